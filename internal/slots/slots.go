// Package slots provides the process-wide registry of durable numeric slots.
//
// A slot is a named float64 variable owned by the host. Its value is the
// unit of cross-restart persistence: event status and cooldown timers are
// stored in slots, never in the event objects themselves.
//
// Slots are addressed two ways:
//   - by editor id ("AdvEventNakedStatus"), matched case-insensitively
//   - by form reference ("0x801|Adversity Framework.esm")
//
// Callers hold opaque Key values returned by Resolve. A zero Key never
// refers to a slot.
package slots

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// GameDaysPassed is the editor id of the slot holding current game time.
const GameDaysPassed = "GameDaysPassed"

// Key is an opaque handle to a registered slot.
type Key struct {
	name string
}

// IsZero reports whether the key refers to no slot.
func (k Key) IsZero() bool {
	return k.name == ""
}

// String returns the canonical (lowercased) editor id.
func (k Key) String() string {
	return k.name
}

// Registry holds slot values keyed by editor id.
//
// Thread-safety: all methods are safe for concurrent use. The decision
// loop is single-writer, but hosts may read values from other goroutines.
type Registry struct {
	mu     sync.RWMutex
	values map[string]float64
	names  map[string]string  // canonical -> declared spelling
	forms  map[FormRef]string // form reference -> canonical editor id
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		values: make(map[string]float64),
		names:  make(map[string]string),
		forms:  make(map[FormRef]string),
	}
}

// Declare registers a slot under editorID with an initial value.
// Declaring an existing slot keeps its current value.
func (r *Registry) Declare(editorID string, initial float64) Key {
	canonical := canonicalName(editorID)
	if canonical == "" {
		return Key{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.values[canonical]; !ok {
		r.values[canonical] = initial
		r.names[canonical] = editorID
	}
	return Key{name: canonical}
}

// DeclareForm registers a slot reachable both by editor id and form reference.
func (r *Registry) DeclareForm(ref FormRef, editorID string, initial float64) Key {
	k := r.Declare(editorID, initial)
	if k.IsZero() {
		return k
	}

	r.mu.Lock()
	r.forms[ref] = k.name
	r.mu.Unlock()
	return k
}

// Resolve looks up a slot by editor id or form reference string.
func (r *Registry) Resolve(ref string) (Key, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Key{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	canonical := canonicalName(ref)
	if _, ok := r.values[canonical]; ok {
		return Key{name: canonical}, true
	}

	if form, ok := ParseFormRef(ref); ok {
		if name, ok := r.forms[form]; ok {
			return Key{name: name}, true
		}
	}
	return Key{}, false
}

// Get returns the slot value, or 0 for an unknown key.
func (r *Registry) Get(k Key) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values[k.name]
}

// Set writes a slot value. Writes to unknown keys are ignored.
func (r *Registry) Set(k Key, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.values[k.name]; ok {
		r.values[k.name] = v
	}
}

// Values returns a copy of all slot values keyed by declared editor id.
// Used by the host to persist slots in its own save format.
func (r *Registry) Values() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]float64, len(r.values))
	for canonical, v := range r.values {
		out[r.names[canonical]] = v
	}
	return out
}

// Restore overwrites values of already declared slots.
// Unknown names are returned so the host can report them.
func (r *Registry) Restore(values map[string]float64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var unknown []string
	for name, v := range values {
		canonical := canonicalName(name)
		if _, ok := r.values[canonical]; !ok {
			unknown = append(unknown, name)
			continue
		}
		r.values[canonical] = v
	}
	sort.Strings(unknown)
	return unknown
}

// Len returns the number of declared slots.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}

func canonicalName(editorID string) string {
	return strings.ToLower(strings.TrimSpace(editorID))
}

// GameTime reads the current game time (in days) from a slot.
type GameTime struct {
	registry *Registry
	key      Key
}

// NewGameTime declares the GameDaysPassed slot (if needed) and returns a
// clock backed by it.
func NewGameTime(r *Registry) *GameTime {
	return &GameTime{registry: r, key: r.Declare(GameDaysPassed, 0)}
}

// Now returns the current game time.
func (g *GameTime) Now() float64 {
	return g.registry.Get(g.key)
}

// Advance moves game time forward by delta days.
func (g *GameTime) Advance(delta float64) {
	g.registry.Set(g.key, g.Now()+delta)
}

// SetNow sets the current game time.
func (g *GameTime) SetNow(t float64) {
	g.registry.Set(g.key, t)
}

// String implements fmt.Stringer for diagnostics.
func (g *GameTime) String() string {
	return fmt.Sprintf("%s=%g", GameDaysPassed, g.Now())
}
