// Package event defines adversity events, their conflict descriptors, and
// the compatibility rules between them.
//
// An Event is mostly immutable metadata loaded from a definition document.
// Its mutable state (status and cooldown timer) lives in durable slots
// owned by the host, so it survives restarts without event-specific
// save code. The Event only holds opaque slot keys.
//
// # Status
//
// Status moves through a fixed lattice:
//
//	Disabled -> Enabled -> Reserved -> Selected -> Active <-> Paused
//
// Reading status revalidates it: if requirements no longer hold, the
// stored status is forced to Disabled before it is returned. Evaluate
// makes that step explicit and reports whether a downgrade happened.
//
// # Conflicts
//
// Two events may not be active together when Conflicts reports true.
// Declared excludes and compatible relations outrank the structural
// descriptor comparison; see Event.Conflicts.
package event
