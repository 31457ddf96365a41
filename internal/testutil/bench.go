package testutil

import (
	"testing"

	"github.com/roach88/adversity/internal/event"
	"github.com/roach88/adversity/internal/predicate"
	"github.com/roach88/adversity/internal/slots"
)

// Bench bundles the capabilities events bind to, for tests outside the
// event package.
type Bench struct {
	Slots *slots.Registry
	Clock *ManualClock
	World *predicate.World
}

// NewBench creates a bench whose world holds facts.
func NewBench(facts predicate.Facts) *Bench {
	return &Bench{
		Slots: slots.NewRegistry(),
		Clock: NewManualClock(0),
		World: predicate.NewWorld(facts),
	}
}

// Env returns the binding environment for event.New.
func (b *Bench) Env() event.Env {
	return event.Env{Slots: b.Slots, Clock: b.Clock, World: b.World}
}

// Event declares the definition's slots, binds it and runs Init.
func (b *Bench) Event(t testing.TB, def event.Definition, context, pack string) *event.Event {
	t.Helper()
	if def.Global != "" {
		b.Slots.Declare(def.Global, 0)
	}
	if def.Timer != "" {
		b.Slots.Declare(def.Timer, 0)
	}
	e := event.New(def, b.Env())
	e.Init(context, pack, nil)
	return e
}

// Def returns a valid definition named name with the given severity and
// conventional status/timer slot names.
func Def(name string, severity int) event.Definition {
	return event.Definition{
		Name:     name,
		Severity: severity,
		Global:   "Adv" + name + "Status",
		Timer:    "Adv" + name + "Timer",
	}
}

// Wear returns a non-exclusive Wear descriptor on slots.
func Wear(slots ...int) event.ConflictDef {
	return event.ConflictDef{Type: "wear", Slots: slots}
}
