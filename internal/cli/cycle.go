package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/adversity/internal/engine"
)

// CycleOptions holds flags for the cycle command.
type CycleOptions struct {
	*RootOptions
	Context string
	Advance float64
}

// CycleResult is the outcome of one committed decision.
type CycleResult struct {
	GameTime float64          `json:"game_time"`
	Decision *engine.Decision `json:"decision"`
}

// RenderText implements TextRenderer.
func (r CycleResult) RenderText(w io.Writer) {
	d := r.Decision
	fmt.Fprintf(w, "cycle %d in %s at day %g\n", d.Seq, d.Context, r.GameTime)
	line(w, "activated", d.Activated)
	line(w, "retained", d.Retained)
	line(w, "preempted", d.Preempted)
	line(w, "downgraded", d.Downgraded)
	line(w, "enabled", d.Enabled)
	line(w, "cooling", d.Cooling)
	line(w, "stale", d.Stale)
	for _, rej := range d.Rejected {
		if len(rej.ConflictsWith) > 0 {
			fmt.Fprintf(w, "  rejected   %s (%s with %s)\n", rej.ID, rej.Reason, strings.Join(rej.ConflictsWith, ", "))
			continue
		}
		fmt.Fprintf(w, "  rejected   %s (%s)\n", rej.ID, rej.Reason)
	}
}

func line(w io.Writer, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(w, "  %-10s %s\n", label, strings.Join(ids, ", "))
}

// NewCycleCommand creates the cycle command.
func NewCycleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CycleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Run one decision cycle for a context",
		Long: `Revalidate every event of a context, select a conflict-free set of
candidates, activate it and save the result.

Example:
  adversity cycle --context player
  adversity cycle --context player --advance 0.5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCycle(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Context, "context", "", "context to decide for (required)")
	cmd.Flags().Float64Var(&opts.Advance, "advance", 0, "game days to advance before deciding")
	_ = cmd.MarkFlagRequired("context")

	return cmd
}

func runCycle(opts *CycleOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if opts.Advance < 0 {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "--advance must not be negative", nil)
	}

	ctx := commandContext(cmd.Context())
	s, err := openSession(ctx, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.close()

	if opts.Advance > 0 {
		s.time.Advance(opts.Advance)
	}

	d, err := s.controller.Cycle(ctx, opts.Context)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownContext) {
			return f.Fail(ExitFailure, ErrCodeNotFound, "unknown context "+opts.Context, err)
		}
		return f.Fail(ExitCommandError, ErrCodeStore, "cycle failed", err)
	}
	if err := s.save(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to save", err)
	}

	return f.Success(CycleResult{GameTime: s.time.Now(), Decision: d})
}
