package cli

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/roach88/adversity/internal/engine"
)

// DrawOptions holds flags for the draw command.
type DrawOptions struct {
	*RootOptions
	Context string
	Seed    uint64
}

// DrawResult is the event picked by draw.
type DrawResult struct {
	Event    string `json:"event"`
	Severity int    `json:"severity"`
}

func (r DrawResult) String() string {
	return fmt.Sprintf("%s (severity %d)", r.Event, r.Severity)
}

// NewDrawCommand creates the draw command.
func NewDrawCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DrawOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Pick one Enabled event at random, weighted by severity",
		Long: `Pick one Enabled event of a context at random. Higher severity means a
higher chance. Nothing is written; use --seed for a repeatable pick.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraw(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Context, "context", "", "context to draw from (required)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (0 picks one)")
	_ = cmd.MarkFlagRequired("context")

	return cmd
}

func runDraw(opts *DrawOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := commandContext(cmd.Context())

	s, err := openSession(ctx, opts.RootOptions, f)
	if err != nil {
		return err
	}
	defer s.close()

	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	f.VerboseLog("draw seed %d", seed)

	e, err := s.controller.Draw(opts.Context, rand.New(rand.NewPCG(seed, seed)))
	switch {
	case errors.Is(err, engine.ErrUnknownContext):
		return f.Fail(ExitFailure, ErrCodeNotFound, "unknown context "+opts.Context, err)
	case errors.Is(err, engine.ErrNoCandidates):
		return f.Fail(ExitFailure, ErrCodeNotFound, "no enabled events in "+opts.Context, err)
	case err != nil:
		return f.Fail(ExitCommandError, ErrCodeGeneric, "draw failed", err)
	}

	return f.Success(DrawResult{Event: e.ID(), Severity: e.Severity()})
}
