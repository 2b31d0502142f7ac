package varedit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tmachale/scenforge/internal/scenario/variable"
)

// Entry is one row of the active category's listing: either a basic value
// (Target nil) or one modifier value for a specific target. Default and
// HasDefault carry the inherited baseline for the comparison column.
type Entry struct {
	ID         string
	Target     *variable.Target
	Current    int
	Default    int
	HasDefault bool
}

// IsModifier reports whether the entry is a modifier value.
func (e Entry) IsModifier() bool {
	return e.Target != nil
}

// CurrentText returns the entry's current value in its display format.
func (e Entry) CurrentText() string {
	if e.IsModifier() {
		return FormatModifier(e.Current)
	}
	return FormatBasic(e.Current)
}

// DefaultText returns the entry's default value in its display format,
// or the empty string when no default exists.
func (e Entry) DefaultText() string {
	if !e.HasDefault {
		return ""
	}
	if e.IsModifier() {
		return FormatModifier(e.Default)
	}
	return FormatBasic(e.Default)
}

// FormatBasic renders a basic value as a plain integer.
func FormatBasic(v int) string {
	return strconv.Itoa(v)
}

// FormatModifier renders a modifier value as a signed delta ("+5", "-3").
// Zero renders as "+0" so a modifier is never mistaken for a basic value.
func FormatModifier(v int) string {
	return fmt.Sprintf("%+d", v)
}

// ParsedValue is the result of parsing a formatted value string.
type ParsedValue struct {
	Value int
	// IsModifier is true when the string carried an explicit sign,
	// marking it as a modifier delta rather than a basic value.
	IsModifier bool
}

// ParseValue parses a formatted value string back into its numeric value
// and format tag. Strings with a leading '+' or '-' are modifier deltas;
// bare digit strings are basic values. Malformed input is an error, never
// a silent zero.
func ParseValue(s string) (ParsedValue, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ParsedValue{}, fmt.Errorf("empty value string")
	}
	isMod := trimmed[0] == '+' || trimmed[0] == '-'
	v, err := strconv.Atoi(trimmed)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("parsing value %q: %w", s, err)
	}
	return ParsedValue{Value: v, IsModifier: isMod}, nil
}
