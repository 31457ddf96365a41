package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_DeclareAndResolve(t *testing.T) {
	r := NewRegistry()
	k := r.Declare("AdvNakedStatus", 1)
	require.False(t, k.IsZero())

	got, ok := r.Resolve("advnakedstatus")
	require.True(t, ok, "editor ids resolve case-insensitively")
	assert.Equal(t, k, got)
	assert.Equal(t, 1.0, r.Get(got))
}

func TestRegistry_DeclareKeepsExistingValue(t *testing.T) {
	r := NewRegistry()
	k := r.Declare("Timer", 3)
	r.Set(k, 7)

	r.Declare("Timer", 0)
	assert.Equal(t, 7.0, r.Get(k))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_DeclareEmptyName(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.Declare("  ", 1).IsZero())
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Resolve("Missing")
	assert.False(t, ok)

	_, ok = r.Resolve("")
	assert.False(t, ok)
}

func TestRegistry_ResolveFormRef(t *testing.T) {
	r := NewRegistry()
	k := r.DeclareForm(FormRef{ID: 0x801, Plugin: "Adversity Framework.esm"}, "AdvFilthStatus", 0)

	got, ok := r.Resolve("0x801|Adversity Framework.esm")
	require.True(t, ok)
	assert.Equal(t, k, got)

	got, ok = r.Resolve("801|  Adversity   Framework.esm ")
	require.True(t, ok, "plugin spacing is normalized")
	assert.Equal(t, k, got)
}

func TestRegistry_SetUnknownIgnored(t *testing.T) {
	r := NewRegistry()
	r.Set(Key{name: "ghost"}, 5)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0.0, r.Get(Key{name: "ghost"}))
}

func TestRegistry_ValuesAndRestore(t *testing.T) {
	r := NewRegistry()
	a := r.Declare("StatusA", 1)
	b := r.Declare("TimerA", 2.5)

	values := r.Values()
	assert.Equal(t, map[string]float64{"StatusA": 1, "TimerA": 2.5}, values)

	r.Set(a, 0)
	r.Set(b, 0)
	unknown := r.Restore(map[string]float64{"statusa": 1, "TimerA": 2.5, "Other": 9})
	assert.Equal(t, []string{"Other"}, unknown)
	assert.Equal(t, 1.0, r.Get(a))
	assert.Equal(t, 2.5, r.Get(b))
}

func TestParseFormRef(t *testing.T) {
	tests := []struct {
		in   string
		want FormRef
		ok   bool
	}{
		{"0x39|Skyrim.esm", FormRef{ID: 0x39, Plugin: "Skyrim.esm"}, true},
		{"0XAB|Mod.esp", FormRef{ID: 0xAB, Plugin: "Mod.esp"}, true},
		{"FF|Mod.esp", FormRef{ID: 0xFF, Plugin: "Mod.esp"}, true},
		{"0xZZ|Mod.esp", FormRef{}, false},
		{"0x39", FormRef{}, false},
		{"0x39|a|b", FormRef{}, false},
		{"0x39|   ", FormRef{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseFormRef(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormRef_String(t *testing.T) {
	assert.Equal(t, "0x1AB|Adversity Framework.esm", FormRef{ID: 0x1ab, Plugin: "Adversity Framework.esm"}.String())
}

func TestGameTime(t *testing.T) {
	r := NewRegistry()
	gt := NewGameTime(r)
	assert.Equal(t, 0.0, gt.Now())

	gt.Advance(1.5)
	assert.Equal(t, 1.5, gt.Now())

	gt.SetNow(10)
	assert.Equal(t, 10.0, gt.Now())

	k, ok := r.Resolve(GameDaysPassed)
	require.True(t, ok)
	assert.Equal(t, 10.0, r.Get(k))
	assert.Equal(t, "GameDaysPassed=10", gt.String())
}
