package saves

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/adversity/internal/contexts"
	"github.com/roach88/adversity/internal/event"
	"github.com/roach88/adversity/internal/pool"
	"github.com/roach88/adversity/internal/predicate"
	"github.com/roach88/adversity/internal/testutil"
)

// instance is one process worth of adversity state.
type instance struct {
	bench *testutil.Bench
	pool  *pool.Pool
	ctxs  *contexts.Registry
	gw    *Gateway
	a     *event.Event
}

func newInstance(t *testing.T, opts ...Option) *instance {
	t.Helper()
	b := testutil.NewBench(predicate.Facts{})
	p := pool.New()
	ctxs := contexts.New(p)
	ctxs.Register("player")

	a := b.Event(t, testutil.Def("A", 1), "player", "core")
	require.NoError(t, p.Add(a))
	return &instance{bench: b, pool: p, ctxs: ctxs, gw: NewGateway(ctxs, p, opts...), a: a}
}

type failingWriter struct {
	Cosave
	openErr error
}

func (w *failingWriter) OpenRecord(tag, version uint32) error {
	return w.openErr
}

type persisterFunc func() error

func (f persisterFunc) PersistAll() error { return f() }

func TestSaveLoad_FreshInstance(t *testing.T) {
	first := newInstance(t)
	first.bench.Clock.Set(10)
	first.a.SetStatus(event.StatusActive)
	first.a.SetCooldown(2.5)
	require.NoError(t, first.ctxs.DisablePack("player", "core"))

	cosave := NewCosave()
	require.NoError(t, first.gw.Save(cosave))
	blob, err := cosave.MarshalBinary()
	require.NoError(t, err)

	second := newInstance(t)
	restored := NewCosave()
	require.NoError(t, restored.UnmarshalBinary(blob))
	require.NoError(t, second.gw.Load(restored))

	assert.Equal(t, event.State{Status: event.StatusActive, Cooldown: 12.5}, second.a.State())
	assert.False(t, second.ctxs.PackEnabled("player", "core"))
}

func TestSave_RecordLayout(t *testing.T) {
	in := newInstance(t)
	cosave := NewCosave()
	require.NoError(t, in.gw.Save(cosave))

	tag, version, length, ok := cosave.NextRecordInfo()
	require.True(t, ok)
	assert.Equal(t, "ADVY", TagString(tag))
	assert.Equal(t, Version, version)

	data := make([]byte, length)
	_, err := io.ReadFull(readerFunc(cosave.ReadRecordData), data)
	require.NoError(t, err)

	ctxChunk, rest, err := readChunk(data)
	require.NoError(t, err)
	evChunk, rest, err := readChunk(rest)
	require.NoError(t, err)
	assert.Empty(t, rest)

	assert.JSONEq(t, `[{"id":"player","cycles":0}]`, string(ctxChunk))
	assert.JSONEq(t, `[{"id":"core/a","status":0,"cooldown":0}]`, string(evChunk))
}

func TestSave_OpenFailureWritesNothing(t *testing.T) {
	in := newInstance(t)
	w := &failingWriter{Cosave: *NewCosave(), openErr: errors.New("disk full")}

	err := in.gw.Save(w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Zero(t, w.Len())
}

func TestSave_PersistFailureAbandons(t *testing.T) {
	in := newInstance(t, WithPersister(persisterFunc(func() error { return errors.New("actors busy") })))
	cosave := NewCosave()

	assert.Error(t, in.gw.Save(cosave))
	assert.Zero(t, cosave.Len())
}

func TestSave_PersistersRunFirst(t *testing.T) {
	var order []string
	in := newInstance(t, WithPersister(persisterFunc(func() error {
		order = append(order, "actors")
		return nil
	})))
	in.a.SetStatus(event.StatusSelected)
	in.pool.Hold(in.a.ID(), "cycle-1")

	require.NoError(t, in.gw.Save(NewCosave()))
	assert.Equal(t, []string{"actors"}, order)
	assert.Equal(t, event.StatusEnabled, in.a.State().Status, "events flush their holds before saving")
}

func TestLoad_NoRecordStillReloads(t *testing.T) {
	in := newInstance(t)
	in.a.SetStatus(event.StatusReserved)

	cosave := NewCosave()
	require.NoError(t, cosave.OpenRecord('O'<<24|'T'<<16|'H'<<8|'R', 1))
	require.NoError(t, cosave.WriteRecordData([]byte("unrelated")))

	require.NoError(t, in.gw.Load(cosave))
	assert.Equal(t, event.StatusEnabled, in.a.State().Status, "reload demotes stale reservations")
}

func TestLoad_EmptyRecord(t *testing.T) {
	in := newInstance(t)
	in.a.SetStatus(event.StatusActive)

	cosave := NewCosave()
	require.NoError(t, cosave.OpenRecord(Tag, Version))

	require.NoError(t, in.gw.Load(cosave))
	assert.Equal(t, event.StatusActive, in.a.State().Status)
}

func TestLoad_SkipsForeignRecords(t *testing.T) {
	first := newInstance(t)
	first.a.SetStatus(event.StatusPaused)

	cosave := NewCosave()
	require.NoError(t, cosave.OpenRecord(1, 0))
	require.NoError(t, cosave.WriteRecordData([]byte{1, 2, 3}))
	require.NoError(t, first.gw.Save(cosave))

	second := newInstance(t)
	require.NoError(t, second.gw.Load(cosave))
	assert.Equal(t, event.StatusPaused, second.a.State().Status)
}

func TestLoad_Truncated(t *testing.T) {
	in := newInstance(t)
	cosave := NewCosave()
	require.NoError(t, cosave.OpenRecord(Tag, Version))
	require.NoError(t, cosave.WriteRecordData([]byte{9, 0, 0, 0, '['}))

	err := in.gw.Load(cosave)
	assert.ErrorIs(t, err, ErrShortRecord)
}

func TestRevert(t *testing.T) {
	in := newInstance(t)
	in.bench.Clock.Set(3)
	in.a.SetStatus(event.StatusSelected)
	in.a.SetCooldown(1)
	in.pool.Hold(in.a.ID(), "cycle-1")
	require.NoError(t, in.ctxs.DisablePack("player", "core"))

	in.gw.Revert()

	_, held := in.pool.Held(in.a.ID())
	assert.False(t, held)
	assert.True(t, in.ctxs.PackEnabled("player", "core"))
	assert.Equal(t, event.State{Status: event.StatusSelected, Cooldown: 4}, in.a.State(), "slots are untouched")
}
