package event

import (
	"sort"
	"strconv"
	"strings"
)

// Metadata is the free-form config block of a definition.
// Keys may be dotted to reach nested maps ("effects.duration").
type Metadata struct {
	values map[string]any
}

// NewMetadata wraps a decoded config block. A nil map is allowed.
func NewMetadata(values map[string]any) Metadata {
	return Metadata{values: values}
}

// Has reports whether key is present.
func (m Metadata) Has(key string) bool {
	_, ok := m.lookup(key)
	return ok
}

// Keys returns the top-level keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the value at key formatted as a string, or def.
func (m Metadata) String(key, def string) string {
	v, ok := m.lookup(key)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return def
}

// Float returns the numeric value at key, or def.
func (m Metadata) Float(key string, def float64) float64 {
	v, ok := m.lookup(key)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
	}
	return def
}

// Int returns the integer value at key, or def. Floats are truncated.
func (m Metadata) Int(key string, def int) int {
	v, ok := m.lookup(key)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return i
		}
	}
	return def
}

// Bool returns the boolean at key, or def. The string "true" is true.
func (m Metadata) Bool(key string, def bool) bool {
	v, ok := m.lookup(key)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x == "true"
	}
	return def
}

func (m Metadata) lookup(key string) (any, bool) {
	if m.values == nil {
		return nil, false
	}
	if v, ok := m.values[key]; ok {
		return v, true
	}

	parts := strings.Split(key, ".")
	if len(parts) < 2 {
		return nil, false
	}
	var cur any = m.values
	for _, p := range parts {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = node[p]; !ok {
			return nil, false
		}
	}
	return cur, true
}
