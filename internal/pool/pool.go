package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/roach88/adversity/internal/event"
)

var (
	// ErrDuplicateEvent is returned by Add when the id is already taken.
	ErrDuplicateEvent = errors.New("duplicate event id")

	// ErrUninitialized is returned by Add for events that never ran Init.
	ErrUninitialized = errors.New("event has no id")
)

// Pool is the registry of loaded events.
//
// Thread-safety: all methods are safe for concurrent use. Event state
// itself lives in slots; the pool only guards its own maps.
type Pool struct {
	mu     sync.RWMutex
	events map[string]*event.Event
	holds  map[string]string // event id -> decision token
	logger *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = l
	}
}

// New creates an empty pool.
func New(opts ...Option) *Pool {
	p := &Pool{
		events: make(map[string]*event.Event),
		holds:  make(map[string]string),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Add registers an initialized event. Invalid events are accepted so that
// status reads and diagnostics still work; the controller skips them.
func (p *Pool) Add(e *event.Event) error {
	if e == nil || e.ID() == "" {
		return ErrUninitialized
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.events[e.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, e.ID())
	}
	p.events[e.ID()] = e
	return nil
}

// Get returns the event with the given id.
func (p *Pool) Get(id string) (*event.Event, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.events[id]
	return e, ok
}

// Len returns the number of registered events.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.events)
}

// All returns every event ordered by id.
func (p *Pool) All() []*event.Event {
	return p.filter(func(*event.Event) bool { return true })
}

// InContext returns the events of one context ordered by id.
func (p *Pool) InContext(context string) []*event.Event {
	return p.filter(func(e *event.Event) bool { return e.Context() == context })
}

// Packs returns the sorted pack ids that have events in context.
func (p *Pool) Packs(context string) []string {
	seen := make(map[string]struct{})
	for _, e := range p.InContext(context) {
		seen[e.PackID()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for pack := range seen {
		out = append(out, pack)
	}
	sort.Strings(out)
	return out
}

// UnregisterPack removes every event of pack in context and returns how
// many were removed.
func (p *Pool) UnregisterPack(context, pack string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for id, e := range p.events {
		if e.Context() == context && e.PackID() == pack {
			delete(p.events, id)
			delete(p.holds, id)
			n++
		}
	}
	return n
}

func (p *Pool) filter(keep func(*event.Event) bool) []*event.Event {
	p.mu.RLock()
	out := make([]*event.Event, 0, len(p.events))
	for _, e := range p.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	p.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Hold marks id as claimed by the decision identified by token.
func (p *Pool) Hold(id, token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.holds[id] = token
}

// Release drops the hold on id.
func (p *Pool) Release(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.holds, id)
}

// Held returns the decision token holding id, if any.
func (p *Pool) Held(id string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	token, ok := p.holds[id]
	return token, ok
}

// Reconcile demotes stale Reserved/Selected statuses in context to
// Enabled and drops their holds. Events held by a live decision are kept
// unless force is set. It returns the ids that were demoted.
func (p *Pool) Reconcile(context string, force bool) []string {
	var demoted []string
	for _, e := range p.InContext(context) {
		st := e.State().Status
		if st != event.StatusReserved && st != event.StatusSelected {
			continue
		}
		if _, held := p.Held(e.ID()); held && !force {
			continue
		}
		e.SetStatus(event.StatusEnabled)
		p.Release(e.ID())
		demoted = append(demoted, e.ID())
		p.logger.Debug("reconciled stale status",
			"event", e.ID(),
			"context", context,
			"from", st.String())
	}
	return demoted
}
