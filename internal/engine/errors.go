package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/adversity/internal/contexts"
	"github.com/roach88/adversity/internal/event"
)

var (
	// ErrUnknownEvent is returned for operations on an id not in the pool.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrUnknownContext is returned for decisions on an unregistered context.
	ErrUnknownContext = contexts.ErrUnknownContext

	// ErrNoCandidates is returned by Draw when no event is Enabled.
	ErrNoCandidates = errors.New("no enabled events")

	// ErrAlreadyCommitted is returned by Commit for a decision that was
	// already committed.
	ErrAlreadyCommitted = errors.New("decision already committed")
)

// TransitionError reports a status change the state machine does not allow.
type TransitionError struct {
	// Event is the id of the event.
	Event string

	// From is the revalidated status at the time of the request.
	From event.Status

	// To is the requested status.
	To event.Status
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %s: cannot move from %s to %s", e.Event, e.From, e.To)
}

// IsTransitionError reports whether err wraps a *TransitionError.
// Uses errors.As to handle wrapped errors.
func IsTransitionError(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}
