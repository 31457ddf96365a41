package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/adversity/internal/event"
)

// Scenario is a scripted run of decision cycles against inline events.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description"`

	// Token prefixes the cycle tokens ("<token>-1", "<token>-2", ...).
	// Default: "test-cycle".
	Token string `yaml:"token,omitempty"`

	// Facts is the initial world.
	Facts map[string]any `yaml:"facts,omitempty"`

	// DefaultCooldown overrides the controller default (game days).
	DefaultCooldown *float64 `yaml:"default_cooldown,omitempty"`

	// MaxActive caps running events per context.
	MaxActive int `yaml:"max_active,omitempty"`

	// Contexts registers contexts with no events of their own.
	Contexts []string `yaml:"contexts,omitempty"`

	Events     []EventSpec `yaml:"events"`
	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// EventSpec is one event document plus where it lives.
type EventSpec struct {
	Context          string `yaml:"context"`
	Pack             string `yaml:"pack"`
	event.Definition `yaml:",inline"`
}

// Step is one action. Exactly one action field is set.
type Step struct {
	Cycle   string         `yaml:"cycle,omitempty"`
	Decide  string         `yaml:"decide,omitempty"`
	Commit  string         `yaml:"commit,omitempty"`
	Advance float64        `yaml:"advance,omitempty"`
	Facts   map[string]any `yaml:"facts,omitempty"`
	Pause   string         `yaml:"pause,omitempty"`
	Resume  string         `yaml:"resume,omitempty"`
	End     string         `yaml:"end,omitempty"`

	// DisablePack and EnablePack take "<context>/<pack>".
	DisablePack string `yaml:"disable_pack,omitempty"`
	EnablePack  string `yaml:"enable_pack,omitempty"`

	Save   bool `yaml:"save,omitempty"`
	Load   bool `yaml:"load,omitempty"`
	Revert bool `yaml:"revert,omitempty"`

	// ExpectError marks a step that must fail.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Op names the step's action and its argument.
func (s Step) Op() (op, arg string) {
	switch {
	case s.Cycle != "":
		return OpCycle, s.Cycle
	case s.Decide != "":
		return OpDecide, s.Decide
	case s.Commit != "":
		return OpCommit, s.Commit
	case s.Advance != 0:
		return OpAdvance, fmt.Sprintf("%g", s.Advance)
	case s.Facts != nil:
		return OpFacts, ""
	case s.Pause != "":
		return OpPause, s.Pause
	case s.Resume != "":
		return OpResume, s.Resume
	case s.End != "":
		return OpEnd, s.End
	case s.DisablePack != "":
		return OpDisablePack, s.DisablePack
	case s.EnablePack != "":
		return OpEnablePack, s.EnablePack
	case s.Save:
		return OpSave, ""
	case s.Load:
		return OpLoad, ""
	case s.Revert:
		return OpRevert, ""
	}
	return "", ""
}

func (s Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.Cycle != "", s.Decide != "", s.Commit != "", s.Advance != 0, s.Facts != nil,
		s.Pause != "", s.Resume != "", s.End != "", s.DisablePack != "", s.EnablePack != "",
		s.Save, s.Load, s.Revert,
	} {
		if set {
			n++
		}
	}
	return n
}

// Step operations.
const (
	OpCycle       = "cycle"
	OpDecide      = "decide"
	OpCommit      = "commit"
	OpAdvance     = "advance"
	OpFacts       = "facts"
	OpPause       = "pause"
	OpResume      = "resume"
	OpEnd         = "end"
	OpDisablePack = "disable_pack"
	OpEnablePack  = "enable_pack"
	OpSave        = "save"
	OpLoad        = "load"
	OpRevert      = "revert"
)

// Assertion checks the finished run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// ID is the event for status and activated.
	ID string `yaml:"id,omitempty"`
	// IDs are the events for never_together.
	IDs []string `yaml:"ids,omitempty"`
	// Context is the context for cycles and max_running.
	Context string `yaml:"context,omitempty"`

	// Expect is the status name for status.
	Expect string `yaml:"expect,omitempty"`
	// Count is the number for cycles and max_running.
	Count int `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertStatus        = "status"
	AssertActivated     = "activated"
	AssertNeverTogether = "never_together"
	AssertCycles        = "cycles"
	AssertMaxRunning    = "max_running"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, ev := range s.Events {
		if ev.Context == "" || ev.Pack == "" {
			return fmt.Errorf("events[%d]: context and pack are required", i)
		}
	}
	for i, st := range s.Steps {
		if n := st.actions(); n != 1 {
			return fmt.Errorf("steps[%d]: exactly one action expected, got %d", i, n)
		}
		for _, ref := range []string{st.DisablePack, st.EnablePack} {
			if ref != "" && !strings.Contains(ref, "/") {
				return fmt.Errorf("steps[%d]: pack reference %q must be <context>/<pack>", i, ref)
			}
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertStatus:
		if a.ID == "" || a.Expect == "" {
			return fmt.Errorf("status requires id and expect")
		}
	case AssertActivated:
		if a.ID == "" {
			return fmt.Errorf("activated requires id")
		}
	case AssertNeverTogether:
		if len(a.IDs) < 2 {
			return fmt.Errorf("never_together requires at least two ids")
		}
	case AssertCycles, AssertMaxRunning:
		if a.Context == "" {
			return fmt.Errorf("%s requires context", a.Type)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
