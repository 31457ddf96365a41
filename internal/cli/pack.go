package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// PackResult reports a pack switch.
type PackResult struct {
	Context string `json:"context"`
	Pack    string `json:"pack"`
	Enabled bool   `json:"enabled"`
}

func (r PackResult) String() string {
	state := "disabled"
	if r.Enabled {
		state = "enabled"
	}
	return fmt.Sprintf("%s/%s %s", r.Context, r.Pack, state)
}

// NewPackCommand creates the pack command with enable and disable
// subcommands.
func NewPackCommand(rootOpts *RootOptions) *cobra.Command {
	var contextID string

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Switch content packs on or off per context",
	}
	cmd.PersistentFlags().StringVar(&contextID, "context", "", "context the pack belongs to (required)")
	_ = cmd.MarkPersistentFlagRequired("context")

	for _, enable := range []bool{true, false} {
		use, short := "enable", "Let a pack's events take part in decisions again"
		if !enable {
			use, short = "disable", "Keep a pack's events out of decisions"
		}
		cmd.AddCommand(&cobra.Command{
			Use:           use + " <pack>",
			Short:         short,
			Args:          cobra.ExactArgs(1),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPack(rootOpts, contextID, args[0], enable, cmd)
			},
		})
	}
	return cmd
}

func runPack(opts *RootOptions, contextID, pack string, enable bool, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := commandContext(cmd.Context())

	s, err := openSession(ctx, opts, f)
	if err != nil {
		return err
	}
	defer s.close()

	switchPack := s.contexts.DisablePack
	if enable {
		switchPack = s.contexts.EnablePack
	}
	if err := switchPack(contextID, pack); err != nil {
		return f.Fail(ExitFailure, ErrCodeNotFound, "unknown context "+contextID, err)
	}
	if err := s.save(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to save", err)
	}

	return f.Success(PackResult{Context: contextID, Pack: pack, Enabled: s.contexts.PackEnabled(contextID, pack)})
}
