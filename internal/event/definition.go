package event

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Flag is a stringified boolean: only the scalar "true" is true.
type Flag bool

// UnmarshalYAML accepts any scalar and compares its text to "true".
func (f *Flag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: flag must be a scalar", node.Line)
	}
	*f = node.Value == "true"
	return nil
}

// Requirement is one entry of a requirements list. A scalar is a single
// expression; a nested list is an any-of group.
type Requirement struct {
	Expr string
	Any  []string
}

// UnmarshalYAML decodes a scalar or a sequence of scalars.
func (r *Requirement) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.Expr = node.Value
		return nil
	case yaml.SequenceNode:
		return node.Decode(&r.Any)
	}
	return fmt.Errorf("line %d: requirement must be a string or a list of strings", node.Line)
}

// MarshalYAML writes the requirement back in its source form.
func (r Requirement) MarshalYAML() (any, error) {
	if r.Any != nil {
		return r.Any, nil
	}
	return r.Expr, nil
}

// ConflictDef is the document form of a conflict descriptor.
type ConflictDef struct {
	Type      string   `yaml:"type"`
	Slots     []int    `yaml:"slots,omitempty"`
	Exclusive Flag     `yaml:"exclusive,omitempty"`
	Loc       []string `yaml:"loc,omitempty"`
}

// Decode converts the document form into a Conflict.
// An unknown category is an error and yields no descriptor.
func (d ConflictDef) Decode() (Conflict, error) {
	category := ParseCategory(d.Type)
	if category == CategoryUnknown {
		return Conflict{}, fmt.Errorf("unknown conflict type %q", d.Type)
	}

	locations := make([]Location, 0, len(d.Loc))
	for _, l := range d.Loc {
		locations = append(locations, ParseLocation(l))
	}
	return NewConflict(category, d.Slots, locations, bool(d.Exclusive)), nil
}

// Definition is the decoded form of one event document.
type Definition struct {
	Name         string         `yaml:"name"`
	Desc         string         `yaml:"desc,omitempty"`
	Severity     int            `yaml:"severity,omitempty"`
	Tags         []string       `yaml:"tags,omitempty"`
	Global       string         `yaml:"global"`
	Timer        string         `yaml:"timer,omitempty"`
	Requirements []Requirement  `yaml:"requirements,omitempty"`
	Excludes     []string       `yaml:"excludes,omitempty"`
	Compatible   []string       `yaml:"compatible,omitempty"`
	Keywords     []string       `yaml:"keywords,omitempty"`
	Conflicts    []ConflictDef  `yaml:"conflicts,omitempty"`
	Exclusive    Flag           `yaml:"exclusive,omitempty"`
	Conditions   []string       `yaml:"conditions,omitempty"`
	Config       map[string]any `yaml:"config,omitempty"`
}

// ParseDefinition decodes a YAML document.
func ParseDefinition(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("parse definition: %w", err)
	}
	return def, nil
}
