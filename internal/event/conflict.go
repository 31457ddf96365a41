package event

import (
	"sort"
	"strings"
)

// Category is the primary conflict axis.
type Category int

const (
	// CategoryUnknown marks a failed decode. Never valid at runtime.
	CategoryUnknown Category = iota
	CategoryWear
	CategoryNaked
	CategoryFilth
	CategoryOutfit
	CategoryHeavyBondage
	CategoryClean
)

var categoryNames = [...]string{
	CategoryUnknown:      "Unknown",
	CategoryWear:         "Wear",
	CategoryNaked:        "Naked",
	CategoryFilth:        "Filth",
	CategoryOutfit:       "Outfit",
	CategoryHeavyBondage: "HeavyBondage",
	CategoryClean:        "Clean",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return categoryNames[CategoryUnknown]
	}
	return categoryNames[c]
}

// ParseCategory matches a category name case-insensitively.
// Unrecognized names return CategoryUnknown.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	for i, name := range categoryNames {
		if i != int(CategoryUnknown) && strings.EqualFold(name, s) {
			return Category(i)
		}
	}
	return CategoryUnknown
}

// Location scopes a conflict to where the subject is.
type Location int

const (
	LocationNone Location = iota
	LocationOutside
	LocationTown
)

var locationNames = [...]string{
	LocationNone:    "None",
	LocationOutside: "Outside",
	LocationTown:    "Town",
}

func (l Location) String() string {
	if l < 0 || int(l) >= len(locationNames) {
		return locationNames[LocationNone]
	}
	return locationNames[l]
}

// ParseLocation matches a location name case-insensitively.
// Unrecognized names map to LocationNone.
func ParseLocation(s string) Location {
	s = strings.TrimSpace(s)
	for i, name := range locationNames {
		if strings.EqualFold(name, s) {
			return Location(i)
		}
	}
	return LocationNone
}

// Conflict describes one axis of incompatibility for an event.
type Conflict struct {
	Category  Category
	Slots     map[int]struct{}
	Locations map[Location]struct{}
	Exclusive bool
}

// NewConflict builds a descriptor. Duplicate slots and locations collapse.
func NewConflict(category Category, slots []int, locations []Location, exclusive bool) Conflict {
	c := Conflict{
		Category:  category,
		Slots:     make(map[int]struct{}, len(slots)),
		Locations: make(map[Location]struct{}, len(locations)),
		Exclusive: exclusive,
	}
	for _, s := range slots {
		c.Slots[s] = struct{}{}
	}
	for _, l := range locations {
		c.Locations[l] = struct{}{}
	}
	return c
}

// With reports whether c and other conflict.
//
// Same category with either side exclusive always conflicts. Different
// categories never conflict. Otherwise the slot sets must intersect and
// the location sets must intersect, where an empty location set matches
// any location.
func (c Conflict) With(other Conflict) bool {
	if c.Category != other.Category {
		return false
	}
	if c.Exclusive || other.Exclusive {
		return true
	}
	if !intersects(c.Slots, other.Slots) {
		return false
	}
	if len(c.Locations) == 0 || len(other.Locations) == 0 {
		return true
	}
	return intersects(c.Locations, other.Locations)
}

// SortedSlots returns the slot ids in ascending order.
func (c Conflict) SortedSlots() []int {
	out := make([]int, 0, len(c.Slots))
	for s := range c.Slots {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// SortedLocations returns the locations in ascending order.
func (c Conflict) SortedLocations() []Location {
	out := make([]Location, 0, len(c.Locations))
	for l := range c.Locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func intersects[K comparable](a, b map[K]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
