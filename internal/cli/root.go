package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/adversity/internal/engine"
)

// RootOptions holds global flags for all commands. Empty string flags
// fall back to the environment configuration.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	Dotenv   string
	Root     string
	DB       string
	SaveName string
	Facts    string

	// Tokens overrides the cycle token generator (for tests).
	Tokens engine.TokenGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the adversity CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "adversity",
		Short: "Adversity event governance",
		Long: `Load adversity event packs, decide which events may run together,
and keep their lifecycle state in a save.

Content lives under <root>/contexts/<context>/packs/<pack>/events/*.yaml.
World facts for requirement expressions are read from <root>/world.yaml
unless --facts names another file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.Dotenv, "env", "", "dotenv file to read before the environment (default .env)")
	flags.StringVar(&opts.Root, "root", "", "content root (env ADVERSITY_ROOT)")
	flags.StringVar(&opts.DB, "db", "", "SQLite database (env ADVERSITY_DB)")
	flags.StringVar(&opts.SaveName, "save", "", "save name in the database (env ADVERSITY_SAVE_NAME)")
	flags.StringVar(&opts.Facts, "facts", "", "YAML file of world facts (default <root>/world.yaml)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCycleCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewDrawCommand(opts))
	cmd.AddCommand(NewPackCommand(opts))
	for _, op := range transitionOps {
		cmd.AddCommand(newTransitionCommand(opts, op))
	}

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
