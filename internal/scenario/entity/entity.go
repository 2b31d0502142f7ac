// Package entity defines the editable scenario objects — entity classes,
// entity templates, and faction classes — together with their persisted
// variable override collections.
package entity

import (
	"fmt"

	"github.com/tmachale/scenforge/internal/scenario/variable"
)

// Kind identifies which flavour of scenario object is being edited and
// which variable categories it exposes in the editor.
type Kind string

const (
	KindEntityClass    Kind = "entity_class"
	KindEntityTemplate Kind = "entity_template"
	KindFactionClass   Kind = "faction_class"
)

// Categories returns the variable categories an object of this kind
// exposes. Faction classes carry only counters and resources; entity
// classes and templates carry all four categories.
func (k Kind) Categories() []variable.Category {
	if k == KindFactionClass {
		return []variable.Category{variable.Counter, variable.Resource}
	}
	return variable.Categories()
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindEntityClass, KindEntityTemplate, KindFactionClass:
		return true
	}
	return false
}

// Overrides holds the persisted per-category override values of one
// scenario object. Only values that differ from the object's inherited
// defaults are stored here; omission means "inherit".
type Overrides struct {
	byCategory map[variable.Category]*variable.ValueSet
}

// NewOverrides creates an empty override collection.
func NewOverrides() *Overrides {
	return &Overrides{byCategory: make(map[variable.Category]*variable.ValueSet)}
}

// CategoryOverrides returns the override set for cat. The result is never
// nil; a category with no overrides yields an empty set that is installed
// into the collection, so mutations through it are visible.
func (o *Overrides) CategoryOverrides(cat variable.Category) *variable.ValueSet {
	vs := o.byCategory[cat]
	if vs == nil {
		vs = variable.NewValueSet()
		o.byCategory[cat] = vs
	}
	return vs
}

// SetCategoryOverrides replaces the override set for cat.
//
// Precondition: vs must not be nil.
func (o *Overrides) SetCategoryOverrides(cat variable.Category, vs *variable.ValueSet) {
	o.byCategory[cat] = vs
}

// Categories returns, in declaration order, the categories holding at
// least one override value.
func (o *Overrides) Categories() []variable.Category {
	var out []variable.Category
	for _, cat := range variable.Categories() {
		if !o.byCategory[cat].Empty() {
			out = append(out, cat)
		}
	}
	return out
}

// Clone returns a deep copy of the collection.
func (o *Overrides) Clone() *Overrides {
	out := NewOverrides()
	for cat, vs := range o.byCategory {
		if !vs.Empty() {
			out.byCategory[cat] = vs.Clone()
		}
	}
	return out
}

// Class is a reusable entity archetype (unit, building, terrain feature).
type Class struct {
	ID          string
	Name        string
	Description string
	Overrides   *Overrides
}

// Template is a scenario-local specialisation of an entity class. Its
// inherited defaults are the class's effective values, not the raw
// category baseline.
type Template struct {
	ID        string
	Name      string
	ClassID   string
	Overrides *Overrides
}

// FactionClass is one playable faction's definition. Factions carry only
// counter and resource values.
type FactionClass struct {
	ID        string
	Name      string
	Overrides *Overrides
}

// Effective overlays overrides on defaults and returns a fresh set: the
// values an object actually has, which seed the editor's working copy at
// dialog open.
//
// Postcondition: The result aliases neither input.
func Effective(defaults, overrides *variable.ValueSet) *variable.ValueSet {
	out := defaults.Clone()
	if overrides == nil {
		return out
	}
	for id, v := range overrides.Basic {
		out.Basic[id] = v
	}
	for id, rec := range overrides.Modifiers {
		merged := out.Modifiers[id].Clone()
		for t, v := range rec {
			merged[t] = v
		}
		out.Modifiers[id] = merged
	}
	return out
}

// Scenario is the loaded content of one scenario: every editable object
// indexed by id.
type Scenario struct {
	Classes   map[string]*Class
	Templates map[string]*Template
	Factions  map[string]*FactionClass
}

// Object returns the override collection and display name for the object
// of the given kind and id, or an error if it does not exist.
func (s *Scenario) Object(kind Kind, id string) (*Overrides, string, error) {
	switch kind {
	case KindEntityClass:
		if c, ok := s.Classes[id]; ok {
			return c.Overrides, c.Name, nil
		}
	case KindEntityTemplate:
		if t, ok := s.Templates[id]; ok {
			return t.Overrides, t.Name, nil
		}
	case KindFactionClass:
		if f, ok := s.Factions[id]; ok {
			return f.Overrides, f.Name, nil
		}
	default:
		return nil, "", fmt.Errorf("unknown object kind %q", kind)
	}
	return nil, "", fmt.Errorf("no %s with id %q", kind, id)
}

// Validate checks cross-references: every template must name a known class.
func (s *Scenario) Validate() error {
	for id, tmpl := range s.Templates {
		if _, ok := s.Classes[tmpl.ClassID]; !ok {
			return fmt.Errorf("template %q references unknown class %q", id, tmpl.ClassID)
		}
	}
	return nil
}
