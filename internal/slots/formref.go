package slots

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FormRef identifies a form by local id and owning plugin file.
type FormRef struct {
	ID     uint32
	Plugin string
}

// String formats the reference as "0xID|Plugin" with an uppercase hex id.
func (f FormRef) String() string {
	return fmt.Sprintf("0x%X|%s", f.ID, f.Plugin)
}

var pluginSpaces = regexp.MustCompile(`^ +| +$|( ) +`)

// ParseFormRef parses "0x801|Adversity Framework.esm".
// The id is hexadecimal (the 0x prefix is optional). Leading and trailing
// spaces of the plugin name are trimmed and inner runs collapsed.
func ParseFormRef(s string) (FormRef, bool) {
	parts := strings.Split(s, "|")
	if len(parts) != 2 {
		return FormRef{}, false
	}

	idStr := strings.TrimSpace(parts[0])
	idStr = strings.TrimPrefix(strings.TrimPrefix(idStr, "0x"), "0X")
	id, err := strconv.ParseUint(idStr, 16, 32)
	if err != nil {
		return FormRef{}, false
	}

	plugin := pluginSpaces.ReplaceAllString(parts[1], "$1")
	if plugin == "" {
		return FormRef{}, false
	}
	return FormRef{ID: uint32(id), Plugin: plugin}, true
}
