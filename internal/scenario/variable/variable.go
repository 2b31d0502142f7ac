// Package variable defines the scenario variable system: value categories,
// modifier targets, value collections, and the global definition registry
// the editor dialogs draw from.
package variable

import "fmt"

// Value bounds of the variable system. Every basic or modifier value must
// fall inside this range before it is committed or persisted.
const (
	AbsoluteMinimum = -1_000_000
	AbsoluteMaximum = 1_000_000
)

// Clamp returns v limited to [AbsoluteMinimum, AbsoluteMaximum].
func Clamp(v int) int {
	if v < AbsoluteMinimum {
		return AbsoluteMinimum
	}
	if v > AbsoluteMaximum {
		return AbsoluteMaximum
	}
	return v
}

// InBounds reports whether v lies inside [AbsoluteMinimum, AbsoluteMaximum].
func InBounds(v int) bool {
	return v >= AbsoluteMinimum && v <= AbsoluteMaximum
}

// Category tags one of the variable families a scenario object can carry.
type Category int

const (
	Attribute Category = iota
	Counter
	Resource
	BuildResource
)

// Categories returns all categories in declaration order.
func Categories() []Category {
	return []Category{Attribute, Counter, Resource, BuildResource}
}

// String returns the category's content-file name.
func (c Category) String() string {
	switch c {
	case Attribute:
		return "attribute"
	case Counter:
		return "counter"
	case Resource:
		return "resource"
	case BuildResource:
		return "build_resource"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// SupportsModifiers reports whether values in this category may carry
// per-target modifier deltas. Counters and build resources are plain
// amounts and never have modifiers.
func (c Category) SupportsModifiers() bool {
	return c == Attribute || c == Resource
}

// ParseCategory converts a content-file category name into a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown variable category %q", s)
}

// Target identifies the modifier slot a modifier value applies to.
// Declaration order doubles as the listing order for modifier entries
// sharing a variable id, so it must stay stable.
type Target int

const (
	TargetSelf Target = iota
	TargetOwner
	TargetAllies
	TargetEnemies
)

// Targets returns all modifier targets in declaration order.
func Targets() []Target {
	return []Target{TargetSelf, TargetOwner, TargetAllies, TargetEnemies}
}

// String returns the target's content-file name.
func (t Target) String() string {
	switch t {
	case TargetSelf:
		return "self"
	case TargetOwner:
		return "owner"
	case TargetAllies:
		return "allies"
	case TargetEnemies:
		return "enemies"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// ParseTarget converts a content-file target name into a Target.
func ParseTarget(s string) (Target, error) {
	for _, t := range Targets() {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown modifier target %q", s)
}

// ModifierRecord holds the modifier values of one variable, at most one
// per target. An empty record must never be stored; callers delete the
// record when its last target value is removed.
type ModifierRecord map[Target]int

// Clone returns an independent copy of the record.
func (r ModifierRecord) Clone() ModifierRecord {
	out := make(ModifierRecord, len(r))
	for t, v := range r {
		out[t] = v
	}
	return out
}

// Equal reports whether both records define the same targets with the
// same values.
func (r ModifierRecord) Equal(other ModifierRecord) bool {
	if len(r) != len(other) {
		return false
	}
	for t, v := range r {
		ov, ok := other[t]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// ValueSet is one category's values: basic amounts keyed by variable id
// plus modifier records for categories that support them.
type ValueSet struct {
	Basic     map[string]int
	Modifiers map[string]ModifierRecord
}

// NewValueSet returns an empty ValueSet with both maps allocated.
func NewValueSet() *ValueSet {
	return &ValueSet{
		Basic:     make(map[string]int),
		Modifiers: make(map[string]ModifierRecord),
	}
}

// Clone returns a deep copy of the set. Cloning a nil set yields an
// empty set.
func (s *ValueSet) Clone() *ValueSet {
	out := NewValueSet()
	if s == nil {
		return out
	}
	for id, v := range s.Basic {
		out.Basic[id] = v
	}
	for id, rec := range s.Modifiers {
		out.Modifiers[id] = rec.Clone()
	}
	return out
}

// Equal reports whether both sets hold identical basic and modifier
// values. A nil set equals an empty one.
func (s *ValueSet) Equal(other *ValueSet) bool {
	sb, sm := s.maps()
	ob, om := other.maps()
	if len(sb) != len(ob) || len(sm) != len(om) {
		return false
	}
	for id, v := range sb {
		ov, ok := ob[id]
		if !ok || ov != v {
			return false
		}
	}
	for id, rec := range sm {
		orec, ok := om[id]
		if !ok || !rec.Equal(orec) {
			return false
		}
	}
	return true
}

// Empty reports whether the set holds no values at all.
func (s *ValueSet) Empty() bool {
	return s == nil || (len(s.Basic) == 0 && len(s.Modifiers) == 0)
}

func (s *ValueSet) maps() (map[string]int, map[string]ModifierRecord) {
	if s == nil {
		return nil, nil
	}
	return s.Basic, s.Modifiers
}
