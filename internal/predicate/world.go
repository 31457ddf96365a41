package predicate

import (
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Facts is a snapshot of world state. Values are plain Go data: maps,
// slices, strings, bools and numbers, as decoded from YAML or JSON.
type Facts map[string]any

// Refs binds extra names into an expression's scope. They shadow facts
// of the same name.
type Refs map[string]any

// World owns the CUE context and the current facts.
//
// The encoded scope is cached until the facts change. cue.Context is not
// safe for concurrent use, so evaluation is serialized with a mutex.
type World struct {
	mu    sync.Mutex
	ctx   *cue.Context
	facts Facts
	scope *cue.Value
}

// NewWorld creates a world with the given initial facts (may be nil).
func NewWorld(facts Facts) *World {
	if facts == nil {
		facts = Facts{}
	}
	return &World{ctx: cuecontext.New(), facts: facts}
}

// Update replaces the facts. Subsequent evaluations see the new snapshot.
func (w *World) Update(facts Facts) {
	if facts == nil {
		facts = Facts{}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.facts = facts
	w.scope = nil
}

// Set replaces a single top-level fact.
func (w *World) Set(name string, value any) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := make(Facts, len(w.facts)+1)
	for k, v := range w.facts {
		next[k] = v
	}
	next[name] = value
	w.facts = next
	w.scope = nil
}

// Facts returns the current snapshot. Callers must not mutate it.
func (w *World) Facts() Facts {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.facts
}

// eval compiles src within the world scope (plus refs) and reports
// whether it evaluates to true.
func (w *World) eval(src string, refs Refs) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	scope := w.scopeLocked(refs)
	if err := scope.Err(); err != nil {
		return false, err
	}

	v := w.ctx.CompileString(src, cue.Scope(scope), cue.Filename("requirement"))
	if err := v.Err(); err != nil {
		return false, err
	}
	return v.Bool()
}

func (w *World) scopeLocked(refs Refs) cue.Value {
	if len(refs) > 0 {
		merged := make(map[string]any, len(w.facts)+len(refs))
		for k, v := range w.facts {
			merged[k] = v
		}
		for k, v := range refs {
			merged[k] = v
		}
		return w.ctx.Encode(merged)
	}

	if w.scope == nil {
		v := w.ctx.Encode(map[string]any(w.facts))
		w.scope = &v
	}
	return *w.scope
}
