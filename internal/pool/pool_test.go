package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adversity/internal/event"
	"github.com/roach88/adversity/internal/predicate"
	"github.com/roach88/adversity/internal/testutil"
)

func newBenchPool(t *testing.T) (*testutil.Bench, *Pool) {
	t.Helper()
	return testutil.NewBench(predicate.Facts{}), New()
}

func TestAdd(t *testing.T) {
	b, p := newBenchPool(t)

	a := b.Event(t, testutil.Def("A", 1), "player", "core")
	require.NoError(t, p.Add(a))

	err := p.Add(b.Event(t, testutil.Def("a", 1), "player", "core"))
	assert.ErrorIs(t, err, ErrDuplicateEvent)

	uninit := event.New(testutil.Def("B", 1), b.Env())
	assert.ErrorIs(t, p.Add(uninit), ErrUninitialized)
	assert.ErrorIs(t, p.Add(nil), ErrUninitialized)

	got, ok := p.Get("core/a")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, 1, p.Len())
}

func TestQueries(t *testing.T) {
	b, p := newBenchPool(t)
	for _, tc := range []struct{ name, ctx, pack string }{
		{"Zed", "player", "core"},
		{"Amy", "player", "extra"},
		{"Bob", "player", "core"},
		{"Cat", "follower", "core"},
	} {
		require.NoError(t, p.Add(b.Event(t, testutil.Def(tc.name, 0), tc.ctx, tc.pack)))
	}

	ids := func(es []*event.Event) []string {
		out := make([]string, len(es))
		for i, e := range es {
			out[i] = e.ID()
		}
		return out
	}

	assert.Equal(t, []string{"core/bob", "core/cat", "core/zed", "extra/amy"}, ids(p.All()))
	assert.Equal(t, []string{"core/bob", "core/zed", "extra/amy"}, ids(p.InContext("player")))
	assert.Equal(t, []string{"core", "extra"}, p.Packs("player"))
	assert.Equal(t, []string{"core"}, p.Packs("follower"))
	assert.Empty(t, p.InContext("nobody"))

	assert.Equal(t, 2, p.UnregisterPack("player", "core"))
	assert.Equal(t, []string{"core/cat", "extra/amy"}, ids(p.All()))
}

func TestHoldAndReconcile(t *testing.T) {
	b, p := newBenchPool(t)
	held := b.Event(t, testutil.Def("Held", 0), "player", "core")
	stale := b.Event(t, testutil.Def("Stale", 0), "player", "core")
	active := b.Event(t, testutil.Def("Active", 0), "player", "core")
	for _, e := range []*event.Event{held, stale, active} {
		require.NoError(t, p.Add(e))
	}

	held.SetStatus(event.StatusSelected)
	p.Hold(held.ID(), "cycle-1")
	stale.SetStatus(event.StatusReserved)
	active.SetStatus(event.StatusActive)

	token, ok := p.Held(held.ID())
	require.True(t, ok)
	assert.Equal(t, "cycle-1", token)

	assert.Equal(t, []string{"core/stale"}, p.Reconcile("player", false))
	assert.Equal(t, event.StatusSelected, held.State().Status)
	assert.Equal(t, event.StatusEnabled, stale.State().Status)
	assert.Equal(t, event.StatusActive, active.State().Status)

	assert.Equal(t, []string{"core/held"}, p.Reconcile("player", true))
	_, ok = p.Held(held.ID())
	assert.False(t, ok)
}

func TestSaveLoad_FreshInstance(t *testing.T) {
	b, p := newBenchPool(t)
	a := b.Event(t, testutil.Def("A", 0), "player", "core")
	c := b.Event(t, testutil.Def("C", 0), "player", "core")
	require.NoError(t, p.Add(a))
	require.NoError(t, p.Add(c))

	b.Clock.Set(5)
	a.SetStatus(event.StatusActive)
	a.SetCooldown(1.25)
	c.SetStatus(event.StatusPaused)

	var buf bytes.Buffer
	require.NoError(t, p.Save(&buf))

	// Fresh process: new slots, new events, same definitions.
	b2, p2 := newBenchPool(t)
	a2 := b2.Event(t, testutil.Def("A", 0), "player", "core")
	require.NoError(t, p2.Add(a2))

	require.NoError(t, p2.Load(&buf))
	assert.Equal(t, event.State{Status: event.StatusActive, Cooldown: 6.25}, a2.State())
}

func TestLoad_Malformed(t *testing.T) {
	_, p := newBenchPool(t)
	assert.Error(t, p.Load(bytes.NewBufferString("{not json")))
}

func TestPersistAllAndRevert(t *testing.T) {
	b, p := newBenchPool(t)
	a := b.Event(t, testutil.Def("A", 0), "player", "core")
	require.NoError(t, p.Add(a))

	a.SetStatus(event.StatusSelected)
	p.Hold(a.ID(), "cycle-1")

	require.NoError(t, p.PersistAll())
	assert.Equal(t, event.StatusEnabled, a.State().Status, "holds never reach a save")
	_, held := p.Held(a.ID())
	assert.False(t, held)

	p.Hold(a.ID(), "cycle-2")
	p.Revert()
	_, held = p.Held(a.ID())
	assert.False(t, held)
}
