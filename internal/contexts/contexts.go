// Package contexts tracks the logical contexts events are namespaced
// under: which packs are switched off in each, and how many decision
// cycles each has committed.
//
// The registry is the contexts subsystem of the persistence gateway. Its
// state is volatile and travels in the save record; Reload reconciles it
// against the packs and events actually loaded.
package contexts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
)

// ErrUnknownContext is returned for operations on an unregistered context.
var ErrUnknownContext = errors.New("unknown context")

// Events is the view of the event pool the registry reconciles against.
// Implemented by *pool.Pool.
type Events interface {
	Packs(context string) []string
	Reconcile(context string, force bool) []string
}

// Context is the volatile state of one context.
type Context struct {
	ID       string
	disabled map[string]struct{}
	cycles   int
}

// DisabledPacks returns the switched-off packs in sorted order.
func (c *Context) DisabledPacks() []string {
	out := make([]string, 0, len(c.disabled))
	for p := range c.disabled {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Cycles returns the number of committed decision cycles.
func (c *Context) Cycles() int {
	return c.cycles
}

// Registry holds every known context.
//
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	contexts map[string]*Context
	events   Events
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New creates a registry reconciling against events (may be nil).
func New(events Events, opts ...Option) *Registry {
	r := &Registry{
		contexts: make(map[string]*Context),
		events:   events,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a context. Registering an existing id is a no-op.
func (r *Registry) Register(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contexts[id]; !ok {
		r.contexts[id] = &Context{ID: id, disabled: make(map[string]struct{})}
	}
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.contexts[id]
	return ok
}

// Snapshot returns a copy of the context's state.
func (r *Registry) Snapshot(id string) (Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contexts[id]
	if !ok {
		return Context{}, false
	}
	cp := Context{ID: c.ID, cycles: c.cycles, disabled: make(map[string]struct{}, len(c.disabled))}
	for p := range c.disabled {
		cp.disabled[p] = struct{}{}
	}
	return cp, true
}

// IDs returns the registered context ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.contexts))
	for id := range r.contexts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// DisablePack switches pack off in context. Its events are skipped by
// decision cycles until it is enabled again.
func (r *Registry) DisablePack(context, pack string) error {
	return r.with(context, func(c *Context) {
		c.disabled[pack] = struct{}{}
	})
}

// EnablePack switches pack back on in context.
func (r *Registry) EnablePack(context, pack string) error {
	return r.with(context, func(c *Context) {
		delete(c.disabled, pack)
	})
}

// PackEnabled reports whether pack takes part in decisions for context.
// Packs of unknown contexts are never enabled.
func (r *Registry) PackEnabled(context, pack string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contexts[context]
	if !ok {
		return false
	}
	_, off := c.disabled[pack]
	return !off
}

// Tick records a committed decision cycle and returns the new count.
func (r *Registry) Tick(context string) (int, error) {
	var n int
	err := r.with(context, func(c *Context) {
		c.cycles++
		n = c.cycles
	})
	return n, err
}

func (r *Registry) with(context string, fn func(*Context)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contexts[context]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContext, context)
	}
	fn(c)
	return nil
}

// record is the saved form of one context.
type record struct {
	ID            string   `json:"id"`
	DisabledPacks []string `json:"disabled_packs,omitempty"`
	Cycles        int      `json:"cycles"`
}

// PersistAll is part of the save contract. Context state is volatile and
// is written by Save directly, so there is nothing to flush.
func (r *Registry) PersistAll() error {
	return nil
}

// Save writes every context ordered by id.
func (r *Registry) Save(w io.Writer) error {
	r.mu.RLock()
	records := make([]record, 0, len(r.contexts))
	for _, c := range r.contexts {
		records = append(records, record{ID: c.ID, DisabledPacks: c.DisabledPacks(), Cycles: c.cycles})
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	if err := json.NewEncoder(w).Encode(records); err != nil {
		return fmt.Errorf("encode contexts: %w", err)
	}
	return nil
}

// Load restores saved context state. Contexts not registered in this
// process are logged and skipped.
func (r *Registry) Load(rd io.Reader) error {
	var records []record
	if err := json.NewDecoder(rd).Decode(&records); err != nil {
		return fmt.Errorf("decode contexts: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		c, ok := r.contexts[rec.ID]
		if !ok {
			r.logger.Warn("saved context not loaded", "context", rec.ID)
			continue
		}
		c.cycles = rec.Cycles
		c.disabled = make(map[string]struct{}, len(rec.DisabledPacks))
		for _, p := range rec.DisabledPacks {
			c.disabled[p] = struct{}{}
		}
	}
	return nil
}

// Reload reconciles context state with what is loaded: disabled entries
// for packs that no longer exist are dropped, and stale Reserved/Selected
// event statuses are demoted. It runs after every load, with or without
// a save record.
func (r *Registry) Reload() {
	for _, id := range r.IDs() {
		if r.events == nil {
			continue
		}

		loaded := make(map[string]struct{})
		for _, p := range r.events.Packs(id) {
			loaded[p] = struct{}{}
		}

		r.mu.Lock()
		if c, ok := r.contexts[id]; ok {
			for p := range c.disabled {
				if _, ok := loaded[p]; !ok {
					delete(c.disabled, p)
					r.logger.Info("dropped disabled entry for missing pack", "context", id, "pack", p)
				}
			}
		}
		r.mu.Unlock()

		if demoted := r.events.Reconcile(id, true); len(demoted) > 0 {
			r.logger.Info("reconciled stale statuses", "context", id, "count", len(demoted))
		}
	}
}

// Revert clears volatile state of every context. Registrations are kept.
func (r *Registry) Revert() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.contexts {
		c.disabled = make(map[string]struct{})
		c.cycles = 0
	}
}
