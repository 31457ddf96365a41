package harness

import "github.com/roach88/adversity/internal/engine"

// TraceEntry records one executed step and the state it left behind.
type TraceEntry struct {
	Step     int              `json:"step"`
	Op       string           `json:"op"`
	Arg      string           `json:"arg,omitempty"`
	Time     float64          `json:"time"`
	Decision *engine.Decision `json:"decision,omitempty"`
	Error    string           `json:"error,omitempty"`

	// Status maps every event id to its stored status after the step.
	Status map[string]string `json:"status"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step behaved as expected, every assertion
	// held and no committed cycle left conflicting events running.
	Pass   bool         `json:"pass"`
	Trace  []TraceEntry `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Decisions is the decision log as stored, in sequence order.
	Decisions []*engine.Decision `json:"-"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEntry{}}
}

// AddError records a failure.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
