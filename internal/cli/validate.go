package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/adversity/internal/loader"
)

// ValidationResult is the outcome of validate.
type ValidationResult struct {
	Valid          bool                   `json:"valid"`
	Root           string                 `json:"root"`
	Contexts       []string               `json:"contexts"`
	Events         int                    `json:"events"`
	Invalid        []InvalidEvent         `json:"invalid,omitempty"`
	Skipped        []SkippedFile          `json:"skipped,omitempty"`
	Contradictions []loader.Contradiction `json:"contradictions,omitempty"`
}

// InvalidEvent is a loaded event that can never be selected.
type InvalidEvent struct {
	ID     string   `json:"id"`
	Errors []string `json:"errors"`
}

// SkippedFile is a document or directory that did not load.
type SkippedFile struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// RenderText implements TextRenderer.
func (r ValidationResult) RenderText(w io.Writer) {
	for _, inv := range r.Invalid {
		fmt.Fprintf(w, "✗ %s\n", inv.ID)
		for _, msg := range inv.Errors {
			fmt.Fprintf(w, "    %s\n", msg)
		}
	}
	for _, sk := range r.Skipped {
		fmt.Fprintf(w, "✗ %s [%s] %s\n", sk.Path, sk.Code, sk.Message)
	}
	for _, c := range r.Contradictions {
		fmt.Fprintf(w, "! %s and %s are both excluded and compatible\n", c.A, c.B)
	}

	if r.Valid {
		fmt.Fprintf(w, "✓ %d events in %d contexts valid\n", r.Events, len(r.Contexts))
		return
	}
	fmt.Fprintf(w, "%d invalid events, %d skipped files\n", len(r.Invalid), len(r.Skipped))
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [root]",
		Short: "Load content and report definition problems",
		Long: `Load every context and pack under the content root without touching
the database, and report invalid events, skipped documents and
contradictory excludes/compatible pairs.

Exits 1 when any event is invalid or any document was skipped.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := *rootOpts
			if len(args) == 1 {
				opts.Root = args[0]
			}
			return runValidate(&opts, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	cfg, err := resolveConfig(opts)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}
	c, err := loadContent(opts, cfg, newLogger(f.errWriter(), cfg, opts.Verbose))
	if err != nil {
		var lerr *loader.LoadError
		if errors.As(err, &lerr) {
			return f.Fail(ExitCommandError, lerr.Code, lerr.Message, err)
		}
		return f.Fail(ExitCommandError, ErrCodeContent, "failed to load content", err)
	}

	result := summarize(cfg.Root, c.report)
	if err := f.Success(result); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, "content has errors")
	}
	return nil
}

func summarize(root string, rep *loader.Report) ValidationResult {
	r := ValidationResult{
		Root:           root,
		Contexts:       rep.Contexts,
		Events:         len(rep.Loaded),
		Contradictions: rep.Contradictions,
	}

	for id, errs := range rep.Invalid {
		inv := InvalidEvent{ID: id}
		for _, err := range errs {
			inv.Errors = append(inv.Errors, err.Error())
		}
		r.Invalid = append(r.Invalid, inv)
	}
	sort.Slice(r.Invalid, func(i, j int) bool { return r.Invalid[i].ID < r.Invalid[j].ID })

	for _, err := range rep.Skipped {
		sk := SkippedFile{Code: ErrCodeGeneric, Message: err.Error()}
		var lerr *loader.LoadError
		if errors.As(err, &lerr) {
			sk = SkippedFile{Code: lerr.Code, Path: lerr.Path, Message: lerr.Message}
		}
		r.Skipped = append(r.Skipped, sk)
	}

	r.Valid = len(r.Invalid) == 0 && len(r.Skipped) == 0
	return r
}
