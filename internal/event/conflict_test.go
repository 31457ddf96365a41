package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCategory(t *testing.T) {
	tests := map[string]Category{
		"wear":         CategoryWear,
		"Naked":        CategoryNaked,
		"FILTH":        CategoryFilth,
		"outfit":       CategoryOutfit,
		"heavybondage": CategoryHeavyBondage,
		" Clean ":      CategoryClean,
		"unknown":      CategoryUnknown,
		"lava":         CategoryUnknown,
		"":             CategoryUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseCategory(in), in)
	}
}

func TestParseLocation(t *testing.T) {
	assert.Equal(t, LocationTown, ParseLocation("town"))
	assert.Equal(t, LocationOutside, ParseLocation("OUTSIDE"))
	assert.Equal(t, LocationNone, ParseLocation("none"))
	assert.Equal(t, LocationNone, ParseLocation("dungeon"), "unknown locations decode to None")
}

func TestCategoryAndLocationString(t *testing.T) {
	assert.Equal(t, "HeavyBondage", CategoryHeavyBondage.String())
	assert.Equal(t, "Unknown", Category(99).String())
	assert.Equal(t, "Town", LocationTown.String())
	assert.Equal(t, "None", Location(-1).String())
}

var allCategories = []Category{
	CategoryWear, CategoryNaked, CategoryFilth, CategoryOutfit, CategoryHeavyBondage, CategoryClean,
}

func TestConflictWith_ExclusiveSameCategory(t *testing.T) {
	for _, cat := range allCategories {
		a := NewConflict(cat, []int{1}, []Location{LocationTown}, true)
		b := NewConflict(cat, []int{99}, []Location{LocationOutside}, false)

		assert.True(t, a.With(b), "%s: exclusive ignores slots and locations", cat)
		assert.True(t, b.With(a), "%s: symmetric", cat)
	}
}

func TestConflictWith_DifferentCategory(t *testing.T) {
	for _, ca := range allCategories {
		for _, cb := range allCategories {
			if ca == cb {
				continue
			}
			a := NewConflict(ca, []int{1, 2}, nil, true)
			b := NewConflict(cb, []int{1, 2}, nil, true)
			assert.False(t, a.With(b), "%s vs %s", ca, cb)
		}
	}
}

func TestConflictWith_DisjointSlots(t *testing.T) {
	a := NewConflict(CategoryWear, []int{3, 4}, nil, false)
	b := NewConflict(CategoryWear, []int{5, 6}, nil, false)
	assert.False(t, a.With(b))
}

func TestConflictWith_EmptySlotSetsDoNotIntersect(t *testing.T) {
	a := NewConflict(CategoryFilth, nil, nil, false)
	b := NewConflict(CategoryFilth, nil, nil, false)
	assert.False(t, a.With(b))
}

func TestConflictWith_SlotsAndLocations(t *testing.T) {
	tests := []struct {
		name string
		a, b []Location
		want bool
	}{
		{"both unscoped", nil, nil, true},
		{"one side unscoped", []Location{LocationTown}, nil, true},
		{"other side unscoped", nil, []Location{LocationOutside}, true},
		{"locations intersect", []Location{LocationTown, LocationOutside}, []Location{LocationOutside}, true},
		{"locations disjoint", []Location{LocationTown}, []Location{LocationOutside}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewConflict(CategoryWear, []int{3, 4}, tt.a, false)
			b := NewConflict(CategoryWear, []int{4, 5}, tt.b, false)
			assert.Equal(t, tt.want, a.With(b))
			assert.Equal(t, tt.want, b.With(a))
		})
	}
}

func TestNewConflict_Dedup(t *testing.T) {
	c := NewConflict(CategoryWear, []int{5, 3, 5}, []Location{LocationTown, LocationTown}, false)
	assert.Equal(t, []int{3, 5}, c.SortedSlots())
	assert.Equal(t, []Location{LocationTown}, c.SortedLocations())
}

func TestConflictDef_Decode(t *testing.T) {
	c, err := ConflictDef{Type: "Wear", Slots: []int{32}, Exclusive: true, Loc: []string{"town", "nowhere"}}.Decode()
	assert.NoError(t, err)
	assert.Equal(t, CategoryWear, c.Category)
	assert.True(t, c.Exclusive)
	assert.Equal(t, []Location{LocationNone, LocationTown}, c.SortedLocations())

	_, err = ConflictDef{Type: "Lava"}.Decode()
	assert.Error(t, err)
}
