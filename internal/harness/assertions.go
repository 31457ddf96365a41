package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/adversity/internal/event"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEntry
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nSteps:\n")
	for _, entry := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s", entry.Step, entry.Op, entry.Arg)
		if entry.Error != "" {
			fmt.Fprintf(&buf, " (error: %s)", entry.Error)
		}
		fmt.Fprintln(&buf)
	}
	return buf.String()
}

func (h *Harness) check(a Assertion, r *Result) error {
	switch a.Type {
	case AssertStatus:
		return h.assertStatus(a, r.Trace)
	case AssertActivated:
		return assertActivated(a, r.Trace)
	case AssertNeverTogether:
		return assertNeverTogether(a, r.Trace)
	case AssertCycles:
		return h.assertCycles(a, r.Trace)
	case AssertMaxRunning:
		return h.assertMaxRunning(a, r.Trace)
	}
	return fmt.Errorf("unknown assertion type: %s", a.Type)
}

// assertStatus checks the final stored status of one event.
func (h *Harness) assertStatus(a Assertion, trace []TraceEntry) error {
	e, ok := h.pool.Get(a.ID)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: a.ID, Actual: "no such event", Trace: trace}
	}
	if got := e.State().Status.String(); got != a.Expect {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s is %s", a.ID, a.Expect),
			Actual:   got,
			Trace:    trace,
		}
	}
	return nil
}

// assertActivated checks that some committed decision activated the event.
func assertActivated(a Assertion, trace []TraceEntry) error {
	for _, entry := range trace {
		if entry.Decision != nil && slices.Contains(entry.Decision.Activated, a.ID) {
			return nil
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s activated by a cycle", a.ID),
		Actual:   "never activated",
		Trace:    trace,
	}
}

// assertNeverTogether checks that after no step two of the events were
// running at once.
func assertNeverTogether(a Assertion, trace []TraceEntry) error {
	for _, entry := range trace {
		var running []string
		for _, id := range a.IDs {
			if isRunning(entry.Status[id]) {
				running = append(running, id)
			}
		}
		if len(running) > 1 {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("at most one of %v running", a.IDs),
				Actual:   fmt.Sprintf("step %d: %v running", entry.Step, running),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertCycles checks the committed cycle count of a context.
func (h *Harness) assertCycles(a Assertion, trace []TraceEntry) error {
	snap, ok := h.contexts.Snapshot(a.Context)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: a.Context, Actual: "no such context", Trace: trace}
	}
	if snap.Cycles() != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d cycles in %s", a.Count, a.Context),
			Actual:   fmt.Sprintf("%d", snap.Cycles()),
			Trace:    trace,
		}
	}
	return nil
}

// assertMaxRunning checks that a context never ran more than Count events.
func (h *Harness) assertMaxRunning(a Assertion, trace []TraceEntry) error {
	var ids []string
	for _, e := range h.pool.InContext(a.Context) {
		ids = append(ids, e.ID())
	}
	for _, entry := range trace {
		n := 0
		for _, id := range ids {
			if isRunning(entry.Status[id]) {
				n++
			}
		}
		if n > a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("at most %d running in %s", a.Count, a.Context),
				Actual:   fmt.Sprintf("step %d: %d running", entry.Step, n),
				Trace:    trace,
			}
		}
	}
	return nil
}

func isRunning(status string) bool {
	return status == event.StatusActive.String() || status == event.StatusPaused.String()
}
