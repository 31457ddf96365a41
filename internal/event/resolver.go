package event

// Conflicts reports whether e and other may not be active together.
//
// Precedence:
//  1. either side's excludes names the other: conflict
//  2. either side's compatible names the other: no conflict
//  3. either side is exclusive: conflict
//  4. any descriptor pair conflicts (Conflict.With)
//
// An event never conflicts with itself.
func (e *Event) Conflicts(other *Event) bool {
	if other == nil || e == other || (e.id != "" && e.id == other.id) {
		return false
	}

	if names(e.excludes, other) || names(other.excludes, e) {
		return true
	}
	if names(e.compatible, other) || names(other.compatible, e) {
		return false
	}
	if e.exclusive || other.exclusive {
		return true
	}

	for _, a := range e.conflicts {
		for _, b := range other.conflicts {
			if a.With(b) {
				return true
			}
		}
	}
	return false
}

// Contradicts reports contradictory authoring: the pair is named both in
// an excludes and a compatible relation. Conflicts resolves it as a
// conflict; loaders should warn about it.
func Contradicts(a, b *Event) bool {
	if a == nil || b == nil {
		return false
	}
	excluded := names(a.excludes, b) || names(b.excludes, a)
	compatible := names(a.compatible, b) || names(b.compatible, a)
	return excluded && compatible
}

func names(set map[string]struct{}, other *Event) bool {
	if other.id == "" {
		return false
	}
	_, ok := set[other.id]
	return ok
}
