package event

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/adversity/internal/predicate"
	"github.com/roach88/adversity/internal/slots"
)

// Status is the lifecycle state of an event. Values are stored as numbers
// in the event's status slot, so the order is part of the save format.
type Status int

const (
	StatusDisabled Status = iota
	StatusEnabled
	StatusReserved
	StatusSelected
	StatusPaused
	StatusActive
)

var statusNames = [...]string{
	StatusDisabled: "Disabled",
	StatusEnabled:  "Enabled",
	StatusReserved: "Reserved",
	StatusSelected: "Selected",
	StatusPaused:   "Paused",
	StatusActive:   "Active",
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Valid reports whether s is one of the six defined states.
func (s Status) Valid() bool {
	return s >= StatusDisabled && s <= StatusActive
}

// IsActive reports whether s counts as active membership (Active or Paused).
func (s Status) IsActive() bool {
	return s == StatusActive || s == StatusPaused
}

// statusFromValue decodes a slot value. Out-of-range values read as Disabled.
func statusFromValue(v float64) Status {
	s := Status(int(v))
	if !s.Valid() {
		return StatusDisabled
	}
	return s
}

// Clock reports the current game time in days.
type Clock interface {
	Now() float64
}

// Slots is the durable slot capability events are bound to.
// Implemented by *slots.Registry.
type Slots interface {
	Resolve(ref string) (slots.Key, bool)
	Get(k slots.Key) float64
	Set(k slots.Key, v float64)
}

// Keywords resolves external keyword references. Unresolved keywords are
// dropped.
type Keywords interface {
	ResolveKeyword(ref string) (string, bool)
}

// Env carries the capabilities an event is bound to at construction.
// Keywords is optional; without it keyword references are kept verbatim.
type Env struct {
	Slots    Slots
	Clock    Clock
	World    *predicate.World
	Keywords Keywords
}

// State is the durable part of an event as read from its slots.
type State struct {
	Status   Status  `json:"status"`
	Cooldown float64 `json:"cooldown"`
}

// Event is a single adversity event.
type Event struct {
	id      string
	packID  string
	context string

	name     string
	desc     string
	tags     map[string]struct{}
	severity int
	keywords []string

	status    slots.Key
	hasStatus bool
	timer     slots.Key
	hasTimer  bool

	Requirements Requirements
	Metadata     Metadata

	excludes   map[string]struct{}
	compatible map[string]struct{}
	conflicts  []Conflict
	exclusive  bool

	defErrs []error
	env     Env
}

// New binds a definition to env. Definition problems are recorded on the
// event rather than returned; see Errors and IsValid.
func New(def Definition, env Env) *Event {
	e := &Event{
		name:         def.Name,
		desc:         def.Desc,
		severity:     def.Severity,
		tags:         toSet(def.Tags),
		excludes:     toSet(def.Excludes),
		compatible:   toSet(def.Compatible),
		exclusive:    bool(def.Exclusive),
		Requirements: newRequirements(def.Requirements, def.Conditions),
		Metadata:     NewMetadata(def.Config),
		env:          env,
	}

	if def.Name == "" {
		e.addError("name", "name is required", nil)
	}

	switch {
	case def.Global == "":
		e.addError("global", "global is required", nil)
	case env.Slots == nil:
		e.addError("global", "no slot registry bound", nil)
	default:
		if k, ok := env.Slots.Resolve(def.Global); ok {
			e.status, e.hasStatus = k, true
		} else {
			e.addError("global", fmt.Sprintf("unresolved slot %q", def.Global), nil)
		}
	}

	if def.Timer != "" && env.Slots != nil {
		if k, ok := env.Slots.Resolve(def.Timer); ok {
			e.timer, e.hasTimer = k, true
		} else {
			e.addError("timer", fmt.Sprintf("unresolved slot %q", def.Timer), nil)
		}
	}

	for _, kw := range def.Keywords {
		if env.Keywords == nil {
			e.keywords = append(e.keywords, kw)
			continue
		}
		if resolved, ok := env.Keywords.ResolveKeyword(kw); ok {
			e.keywords = append(e.keywords, resolved)
		}
	}

	for i, cd := range def.Conflicts {
		c, err := cd.Decode()
		if err != nil {
			e.addError(fmt.Sprintf("conflicts[%d].type", i), "invalid conflict", err)
			continue
		}
		e.conflicts = append(e.conflicts, c)
	}

	return e
}

// Init performs the one-time identity step and compiles requirements.
// Identity is only assigned when unset; repeated calls keep the first
// context, pack and id.
func (e *Event) Init(context, pack string, refs predicate.Refs) {
	if e.id == "" {
		e.context = context
		e.packID = pack
		e.id = pack + "/" + cases.Lower(language.Und).String(e.name)
	}

	for _, err := range e.Requirements.compile(refs) {
		e.addError("requirements", "invalid expression", err)
	}
}

func (e *Event) addError(field, msg string, err error) {
	e.defErrs = append(e.defErrs, &DefinitionError{Field: field, Message: msg, Err: err})
}

func (e *Event) ID() string { return e.id }
func (e *Event) PackID() string { return e.packID }
func (e *Event) Context() string { return e.context }
func (e *Event) Name() string { return e.name }
func (e *Event) Desc() string { return e.desc }
func (e *Event) Severity() int { return e.severity }
func (e *Event) IsExclusive() bool { return e.exclusive }

// Tags returns the tag set in sorted order.
func (e *Event) Tags() []string {
	return sortedKeys(e.tags)
}

// Keywords returns the resolved keyword references.
func (e *Event) Keywords() []string {
	return append([]string(nil), e.keywords...)
}

// ConflictList returns a copy of the descriptor list.
func (e *Event) ConflictList() []Conflict {
	return append([]Conflict(nil), e.conflicts...)
}

// Excludes returns the ids this event is declared incompatible with.
func (e *Event) Excludes() []string {
	return sortedKeys(e.excludes)
}

// Compatible returns the ids this event is declared compatible with.
func (e *Event) Compatible() []string {
	return sortedKeys(e.compatible)
}

// Errors returns the definition errors recorded while binding.
func (e *Event) Errors() []error {
	return append([]error(nil), e.defErrs...)
}

// HasTag reports whether the event carries tag.
func (e *Event) HasTag(tag string) bool {
	_, ok := e.tags[tag]
	return ok
}

// HasTags reports whether the event carries all (all=true) or any of tags.
func (e *Event) HasTags(tags []string, all bool) bool {
	for _, t := range tags {
		has := e.HasTag(t)
		if all && !has {
			return false
		}
		if !all && has {
			return true
		}
	}
	return all
}

// IsValid reports whether the event can take part in decisions: it has a
// name, a resolved status slot, and no definition errors.
func (e *Event) IsValid() bool {
	return e.name != "" && e.hasStatus && len(e.defErrs) == 0
}

// ReqsMet reports whether the status slot exists and all requirements and
// conditions currently hold.
func (e *Event) ReqsMet() bool {
	if !e.hasStatus {
		return false
	}
	return e.Requirements.Met(e.env.World)
}

// Evaluate revalidates the stored status. If requirements no longer hold
// and the event is not already Disabled, Disabled is written and the
// second result is true. Invalid events read as Disabled without touching
// storage.
func (e *Event) Evaluate() (Status, bool) {
	if !e.IsValid() {
		return StatusDisabled, false
	}

	current := e.stored()
	if current != StatusDisabled && !e.ReqsMet() {
		e.SetStatus(StatusDisabled)
		return StatusDisabled, true
	}
	return current, false
}

// Status returns the revalidated status. It may write Disabled as a side
// effect; see Evaluate.
func (e *Event) Status() Status {
	s, _ := e.Evaluate()
	return s
}

// SetStatus writes the status slot. Ignored for invalid events.
func (e *Event) SetStatus(s Status) {
	if !e.IsValid() || !s.Valid() {
		return
	}
	e.env.Slots.Set(e.status, float64(s))
}

func (e *Event) stored() Status {
	return statusFromValue(e.env.Slots.Get(e.status))
}

// CooldownUntil returns the game time at which the cooldown elapses.
// Events without a timer slot report 0.
func (e *Event) CooldownUntil() float64 {
	if !e.hasTimer {
		return 0
	}
	return e.env.Slots.Get(e.timer)
}

// IsCooldownComplete reports whether current game time has reached the
// cooldown timer. Events without a timer are always complete.
func (e *Event) IsCooldownComplete() bool {
	if !e.hasTimer {
		return true
	}
	return e.CooldownUntil() <= e.now()
}

// SetCooldown starts the cooldown: the timer becomes now+delta.
// It returns false when the event has no timer slot.
func (e *Event) SetCooldown(delta float64) bool {
	if !e.hasTimer {
		return false
	}
	e.env.Slots.Set(e.timer, e.now()+delta)
	return true
}

func (e *Event) now() float64 {
	if e.env.Clock == nil {
		return 0
	}
	return e.env.Clock.Now()
}

// State reads the durable slots without revalidation.
func (e *Event) State() State {
	if !e.hasStatus {
		return State{Status: StatusDisabled, Cooldown: e.CooldownUntil()}
	}
	return State{Status: e.stored(), Cooldown: e.CooldownUntil()}
}

// Restore writes a previously saved state back into the slots.
func (e *Event) Restore(s State) {
	if e.hasStatus && s.Status.Valid() {
		e.env.Slots.Set(e.status, float64(s.Status))
	}
	if e.hasTimer {
		e.env.Slots.Set(e.timer, s.Cooldown)
	}
}

func (e *Event) String() string {
	return fmt.Sprintf("%s[%s]", e.id, e.State().Status)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
