package event

import (
	"testing"

	"github.com/roach88/adversity/internal/predicate"
	"github.com/roach88/adversity/internal/slots"
)

// fixture bundles the capabilities events bind to.
type fixture struct {
	reg   *slots.Registry
	clock *slots.GameTime
	world *predicate.World
}

func newFixture() *fixture {
	reg := slots.NewRegistry()
	return &fixture{
		reg:   reg,
		clock: slots.NewGameTime(reg),
		world: predicate.NewWorld(predicate.Facts{"ok": true}),
	}
}

func (f *fixture) env() Env {
	return Env{Slots: f.reg, Clock: f.clock, World: f.world}
}

// build declares the definition's slots, binds it and runs Init under
// context "player", pack "core".
func (f *fixture) build(t *testing.T, def Definition) *Event {
	t.Helper()
	if def.Global != "" {
		f.reg.Declare(def.Global, 0)
	}
	if def.Timer != "" {
		f.reg.Declare(def.Timer, 0)
	}
	e := New(def, f.env())
	e.Init("player", "core", nil)
	return e
}

// simple returns a valid definition named name with status/timer slots.
func simple(name string) Definition {
	return Definition{
		Name:   name,
		Global: name + "Status",
		Timer:  name + "Timer",
	}
}
