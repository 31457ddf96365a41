package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/adversity/internal/engine"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Context string
	History int
}

// EventRow is one event as stored, without revalidation.
type EventRow struct {
	ID            string  `json:"id"`
	Pack          string  `json:"pack"`
	Status        string  `json:"status"`
	Severity      int     `json:"severity"`
	CooldownUntil float64 `json:"cooldown_until"`
	ReqsMet       bool    `json:"reqs_met"`
	Valid         bool    `json:"valid"`
}

// StatusResult describes one context.
type StatusResult struct {
	Context       string             `json:"context"`
	GameTime      float64            `json:"game_time"`
	Cycles        int                `json:"cycles"`
	DisabledPacks []string           `json:"disabled_packs,omitempty"`
	Events        []EventRow         `json:"events"`
	History       []*engine.Decision `json:"history,omitempty"`
}

// RenderText implements TextRenderer.
func (r StatusResult) RenderText(w io.Writer) {
	fmt.Fprintf(w, "%s at day %g, %d cycles\n", r.Context, r.GameTime, r.Cycles)
	if len(r.DisabledPacks) > 0 {
		fmt.Fprintf(w, "disabled packs: %s\n", strings.Join(r.DisabledPacks, ", "))
	}
	for _, e := range r.Events {
		var notes []string
		if !e.Valid {
			notes = append(notes, "invalid")
		} else if !e.ReqsMet {
			notes = append(notes, "requirements unmet")
		}
		if e.CooldownUntil > r.GameTime {
			notes = append(notes, fmt.Sprintf("cooling until day %g", e.CooldownUntil))
		}
		suffix := ""
		if len(notes) > 0 {
			suffix = " (" + strings.Join(notes, ", ") + ")"
		}
		fmt.Fprintf(w, "  %-9s %3d  %s%s\n", e.Status, e.Severity, e.ID, suffix)
	}
	for _, d := range r.History {
		fmt.Fprintf(w, "cycle %d: activated [%s] preempted [%s]\n",
			d.Seq, strings.Join(d.Activated, " "), strings.Join(d.Preempted, " "))
	}
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored state of a context's events",
		Long: `Show every event of a context as stored in the save, with whether
its requirements currently hold. Status does not revalidate and never
writes to the database.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Context, "context", "", "context to show (required)")
	cmd.Flags().IntVar(&opts.History, "history", 0, "number of recent decisions to include")
	_ = cmd.MarkFlagRequired("context")

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := commandContext(cmd.Context())

	s, err := openSession(ctx, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.close()

	snap, ok := s.contexts.Snapshot(opts.Context)
	if !ok {
		return f.Fail(ExitFailure, ErrCodeNotFound, "unknown context "+opts.Context, engine.ErrUnknownContext)
	}

	result := StatusResult{
		Context:       opts.Context,
		GameTime:      s.time.Now(),
		Cycles:        snap.Cycles(),
		DisabledPacks: snap.DisabledPacks(),
		Events:        []EventRow{},
	}
	for _, e := range s.pool.InContext(opts.Context) {
		st := e.State()
		result.Events = append(result.Events, EventRow{
			ID:            e.ID(),
			Pack:          e.PackID(),
			Status:        st.Status.String(),
			Severity:      e.Severity(),
			CooldownUntil: st.Cooldown,
			ReqsMet:       e.ReqsMet(),
			Valid:         e.IsValid(),
		})
	}

	if opts.History > 0 {
		recs, err := s.store.ReadDecisions(ctx, opts.Context, 0)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to read decision log", err)
		}
		if len(recs) > opts.History {
			recs = recs[len(recs)-opts.History:]
		}
		for _, rec := range recs {
			var d engine.Decision
			if err := json.Unmarshal(rec.Payload, &d); err != nil {
				return f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("corrupt decision %d", rec.Seq), err)
			}
			result.History = append(result.History, &d)
		}
	}

	return f.Success(result)
}
