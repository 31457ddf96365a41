package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/adversity/internal/engine"
)

// transitionOp is one operator-driven status change.
type transitionOp struct {
	name  string
	short string
	apply func(c *engine.Controller, id string) error
}

var transitionOps = []transitionOp{
	{"pause", "Suspend an Active event", (*engine.Controller).Pause},
	{"resume", "Return a Paused event to Active", (*engine.Controller).Resume},
	{"end", "Stop a running event and start its cooldown", (*engine.Controller).End},
}

// TransitionResult reports the status after a transition.
type TransitionResult struct {
	Event    string  `json:"event"`
	Status   string  `json:"status"`
	Cooldown float64 `json:"cooldown_until"`
}

func (r TransitionResult) String() string {
	return fmt.Sprintf("%s is now %s", r.Event, r.Status)
}

// newTransitionCommand creates the pause, resume or end command.
func newTransitionCommand(rootOpts *RootOptions, op transitionOp) *cobra.Command {
	return &cobra.Command{
		Use:           op.name + " <event-id>",
		Short:         op.short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(rootOpts, op, args[0], cmd)
		},
	}
}

func runTransition(opts *RootOptions, op transitionOp, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := commandContext(cmd.Context())

	s, err := openSession(ctx, opts, f)
	if err != nil {
		return err
	}
	defer s.close()

	if err := op.apply(s.controller, id); err != nil {
		switch {
		case errors.Is(err, engine.ErrUnknownEvent):
			return f.Fail(ExitFailure, ErrCodeNotFound, "unknown event "+id, err)
		case engine.IsTransitionError(err):
			return f.Fail(ExitFailure, ErrCodeTransition, err.Error(), err)
		}
		return f.Fail(ExitCommandError, ErrCodeGeneric, op.name+" failed", err)
	}
	if err := s.save(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to save", err)
	}

	e, _ := s.pool.Get(id)
	st := e.State()
	return f.Success(TransitionResult{Event: id, Status: st.Status.String(), Cooldown: st.Cooldown})
}
