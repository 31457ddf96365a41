package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/adversity/internal/contexts"
	"github.com/roach88/adversity/internal/event"
	"github.com/roach88/adversity/internal/pool"
	"github.com/roach88/adversity/internal/store"
)

// DefaultCooldown is the cooldown (in game days) applied when an event
// stops running and its metadata carries no "cooldown" key.
const DefaultCooldown = 1.0

// DecisionLog receives every committed decision.
// Implemented by *store.Store.
type DecisionLog interface {
	WriteDecision(ctx context.Context, rec store.DecisionRecord) error
}

// Controller runs decision cycles over a pool of events.
//
// Thread-safety model: the controller is single-writer. Decide, Commit,
// Cycle and the transition operations must be called from one goroutine.
type Controller struct {
	pool     *pool.Pool
	contexts *contexts.Registry
	tokens   TokenGenerator
	clock    *Clock
	log      DecisionLog
	logger   *slog.Logger

	defaultCooldown float64
	maxActive       int
}

// Option configures a Controller.
type Option func(*Controller)

// WithDefaultCooldown sets the cooldown used for events without a
// "cooldown" metadata key.
//
// Default: 1 game day (DefaultCooldown)
func WithDefaultCooldown(days float64) Option {
	return func(c *Controller) {
		c.defaultCooldown = days
	}
}

// WithTokenGenerator sets the cycle token generator.
//
// Default: UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(c *Controller) {
		c.tokens = g
	}
}

// WithClock sets the sequence clock, e.g. NewClockAt(lastSeq) to resume
// numbering from a decision log.
func WithClock(clk *Clock) Option {
	return func(c *Controller) {
		c.clock = clk
	}
}

// WithDecisionLog records committed decisions in log.
func WithDecisionLog(log DecisionLog) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// WithMaxActive caps how many events may run at once in a context.
// Candidates past the cap are rejected with ReasonQuota. Running events
// are never preempted by the cap.
//
// Default: 0 (no cap)
func WithMaxActive(n int) Option {
	return func(c *Controller) {
		c.maxActive = n
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// New creates a controller over p and ctxs.
func New(p *pool.Pool, ctxs *contexts.Registry, opts ...Option) *Controller {
	c := &Controller{
		pool:            p,
		contexts:        ctxs,
		tokens:          UUIDv7Generator{},
		clock:           NewClock(),
		logger:          slog.Default(),
		defaultCooldown: DefaultCooldown,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rejection reasons.
const (
	ReasonConflict = "conflict"
	ReasonQuota    = "quota"
)

// Rejection explains why a candidate was not selected.
type Rejection struct {
	ID            string   `json:"id"`
	Reason        string   `json:"reason"`
	ConflictsWith []string `json:"conflicts_with,omitempty"`
}

// Decision is the outcome of one Decide call.
type Decision struct {
	Seq     int64  `json:"seq"`
	Token   string `json:"token"`
	Context string `json:"context"`

	// Downgraded events failed revalidation and were forced to Disabled.
	Downgraded []string `json:"downgraded,omitempty"`
	// Enabled events moved from Disabled to Enabled this cycle.
	Enabled []string `json:"enabled,omitempty"`
	// Cooling events were Enabled but their cooldown had not elapsed.
	Cooling []string `json:"cooling,omitempty"`

	Selected  []string    `json:"selected,omitempty"`
	Retained  []string    `json:"retained,omitempty"`
	Preempted []string    `json:"preempted,omitempty"`
	Rejected  []Rejection `json:"rejected,omitempty"`

	// Activated is filled by Commit: selected events that became Active.
	Activated []string `json:"activated,omitempty"`
	// Stale is filled by Commit: selected events whose hold was lost
	// before commit (save, revert or reload in between).
	Stale     []string `json:"stale,omitempty"`
	Committed bool     `json:"committed"`
}

// Decide runs the selection pass for contextID. See the package
// documentation for the algorithm.
func (c *Controller) Decide(contextID string) (*Decision, error) {
	if !c.contexts.Has(contextID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContext, contextID)
	}

	d := &Decision{
		Seq:     c.clock.Next(),
		Token:   c.tokens.Generate(),
		Context: contextID,
	}

	ranked, running, pending := c.revalidate(contextID, d)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Severity() != ranked[j].Severity() {
			return ranked[i].Severity() > ranked[j].Severity()
		}
		return ranked[i].ID() < ranked[j].ID()
	})

	// Selections of other uncommitted decisions hold their place.
	accepted := pending
	for _, e := range ranked {
		clashes := conflictsWith(e, accepted)

		if running[e.ID()] {
			if len(clashes) > 0 {
				e.SetStatus(event.StatusDisabled)
				e.SetCooldown(c.cooldownFor(e))
				d.Preempted = append(d.Preempted, e.ID())
				c.logger.Info("event preempted",
					"cycle", d.Token,
					"event", e.ID(),
					"by", clashes)
				continue
			}
			accepted = append(accepted, e)
			d.Retained = append(d.Retained, e.ID())
			continue
		}

		e.SetStatus(event.StatusReserved)
		switch {
		case len(clashes) > 0:
			e.SetStatus(event.StatusEnabled)
			d.Rejected = append(d.Rejected, Rejection{ID: e.ID(), Reason: ReasonConflict, ConflictsWith: clashes})
		case c.maxActive > 0 && len(accepted) >= c.maxActive:
			e.SetStatus(event.StatusEnabled)
			d.Rejected = append(d.Rejected, Rejection{ID: e.ID(), Reason: ReasonQuota})
		default:
			e.SetStatus(event.StatusSelected)
			c.pool.Hold(e.ID(), d.Token)
			accepted = append(accepted, e)
			d.Selected = append(d.Selected, e.ID())
		}
	}

	c.logger.Debug("decision made",
		"cycle", d.Token,
		"context", contextID,
		"selected", len(d.Selected),
		"retained", len(d.Retained),
		"rejected", len(d.Rejected),
		"preempted", len(d.Preempted))
	return d, nil
}

// revalidate applies the per-event transitions of step 1. It returns the
// events entering ranking, the set of those already running and the
// events still held by an uncommitted decision.
func (c *Controller) revalidate(contextID string, d *Decision) (ranked []*event.Event, running map[string]bool, pending []*event.Event) {
	running = make(map[string]bool)

	for _, e := range c.pool.InContext(contextID) {
		if !e.IsValid() || !c.contexts.PackEnabled(contextID, e.PackID()) {
			continue
		}

		st, downgraded := c.settle(e)
		if downgraded {
			d.Downgraded = append(d.Downgraded, e.ID())
			continue
		}

		switch st {
		case event.StatusDisabled:
			if !e.ReqsMet() || !e.IsCooldownComplete() {
				continue
			}
			e.SetStatus(event.StatusEnabled)
			d.Enabled = append(d.Enabled, e.ID())
		case event.StatusEnabled:
			if !e.IsCooldownComplete() {
				e.SetStatus(event.StatusDisabled)
				d.Cooling = append(d.Cooling, e.ID())
				continue
			}
		case event.StatusReserved, event.StatusSelected:
			if _, held := c.pool.Held(e.ID()); held {
				pending = append(pending, e)
			}
			continue
		case event.StatusActive, event.StatusPaused:
			running[e.ID()] = true
		}
		ranked = append(ranked, e)
	}
	return ranked, running, pending
}

// settle revalidates e. An event that stops running because its
// requirements failed starts its cooldown; any hold on it is dropped.
func (c *Controller) settle(e *event.Event) (event.Status, bool) {
	prev := e.State().Status
	st, downgraded := e.Evaluate()
	if !downgraded {
		return st, false
	}
	if prev.IsActive() {
		e.SetCooldown(c.cooldownFor(e))
	}
	c.pool.Release(e.ID())
	c.logger.Debug("event downgraded", "event", e.ID(), "from", prev.String())
	return st, true
}

func conflictsWith(e *event.Event, accepted []*event.Event) []string {
	var ids []string
	for _, a := range accepted {
		if e.Conflicts(a) {
			ids = append(ids, a.ID())
		}
	}
	return ids
}

// Commit moves the decision's Selected events to Active, counts the
// cycle for the context and writes the decision log.
//
// Events whose hold no longer belongs to this decision are reported as
// Stale and left alone.
func (c *Controller) Commit(ctx context.Context, d *Decision) error {
	if d == nil {
		return fmt.Errorf("commit: nil decision")
	}
	if d.Committed {
		return ErrAlreadyCommitted
	}

	for _, id := range d.Selected {
		e, ok := c.pool.Get(id)
		token, held := c.pool.Held(id)
		if !ok || !held || token != d.Token || e.State().Status != event.StatusSelected {
			d.Stale = append(d.Stale, id)
			c.logger.Warn("selected event lost its hold before commit",
				"cycle", d.Token,
				"event", id)
			continue
		}
		e.SetStatus(event.StatusActive)
		c.pool.Release(id)
		d.Activated = append(d.Activated, id)
	}
	d.Committed = true

	if _, err := c.contexts.Tick(d.Context); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	c.logger.Info("decision committed",
		"cycle", d.Token,
		"context", d.Context,
		"activated", d.Activated,
		"preempted", d.Preempted)

	if c.log == nil {
		return nil
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	rec := store.DecisionRecord{Seq: d.Seq, Token: d.Token, Context: d.Context, Payload: payload}
	if err := c.log.WriteDecision(ctx, rec); err != nil {
		return fmt.Errorf("write decision: %w", err)
	}
	return nil
}

// Cycle runs Decide then Commit.
func (c *Controller) Cycle(ctx context.Context, contextID string) (*Decision, error) {
	d, err := c.Decide(contextID)
	if err != nil {
		return nil, err
	}
	if err := c.Commit(ctx, d); err != nil {
		return d, err
	}
	return d, nil
}

func (c *Controller) cooldownFor(e *event.Event) float64 {
	return e.Metadata.Float("cooldown", c.defaultCooldown)
}
