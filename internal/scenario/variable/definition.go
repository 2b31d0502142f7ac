package variable

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Def is the static definition of one scenario variable, loaded from YAML.
// Default and DefaultModifiers form the category-level baseline an object
// inherits when it carries no override of its own.
type Def struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Category is the content-file category name:
	// "attribute" | "counter" | "resource" | "build_resource".
	Category string `yaml:"category"`
	Default  int    `yaml:"default"`
	// DefaultModifiers maps target names to baseline modifier deltas.
	// Only valid for categories that support modifiers.
	DefaultModifiers map[string]int `yaml:"default_modifiers"`
}

// Validate checks that the definition satisfies basic invariants.
//
// Precondition: d must not be nil.
// Postcondition: Returns nil iff ID is non-empty, Category parses, all
// values are in bounds, and DefaultModifiers is only set for categories
// that support modifiers.
func (d *Def) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("variable def: id must not be empty")
	}
	cat, err := ParseCategory(d.Category)
	if err != nil {
		return fmt.Errorf("variable def %q: %w", d.ID, err)
	}
	if !InBounds(d.Default) {
		return fmt.Errorf("variable def %q: default %d out of range [%d, %d]",
			d.ID, d.Default, AbsoluteMinimum, AbsoluteMaximum)
	}
	if len(d.DefaultModifiers) > 0 && !cat.SupportsModifiers() {
		return fmt.Errorf("variable def %q: category %s does not support modifiers", d.ID, cat)
	}
	for name, v := range d.DefaultModifiers {
		if _, err := ParseTarget(name); err != nil {
			return fmt.Errorf("variable def %q: %w", d.ID, err)
		}
		if !InBounds(v) {
			return fmt.Errorf("variable def %q: modifier %s value %d out of range [%d, %d]",
				d.ID, name, v, AbsoluteMinimum, AbsoluteMaximum)
		}
	}
	return nil
}

// category returns the parsed Category. Only valid after Validate.
func (d *Def) category() Category {
	c, _ := ParseCategory(d.Category)
	return c
}

// Registry indexes all known variable definitions per category.
type Registry struct {
	byCategory map[Category]map[string]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byCategory: make(map[Category]map[string]*Def)}
}

// Register validates def and adds it to the registry.
//
// Precondition: def must not be nil.
// Postcondition: Get(def category, def.ID) succeeds, or an error is
// returned and the registry is unchanged. Re-registering an id within its
// category is rejected.
func (r *Registry) Register(def *Def) error {
	if err := def.Validate(); err != nil {
		return err
	}
	cat := def.category()
	defs := r.byCategory[cat]
	if defs == nil {
		defs = make(map[string]*Def)
		r.byCategory[cat] = defs
	}
	if _, exists := defs[def.ID]; exists {
		return fmt.Errorf("variable def %q already registered in category %s", def.ID, cat)
	}
	defs[def.ID] = def
	return nil
}

// Get returns the definition for id in cat, or (nil, false) if unknown.
func (r *Registry) Get(cat Category, id string) (*Def, bool) {
	d, ok := r.byCategory[cat][id]
	return d, ok
}

// Has reports whether id is defined in cat.
func (r *Registry) Has(cat Category, id string) bool {
	_, ok := r.byCategory[cat][id]
	return ok
}

// IDs returns all variable ids of cat in ordinal order.
func (r *Registry) IDs(cat Category) []string {
	defs := r.byCategory[cat]
	out := make([]string, 0, len(defs))
	for id := range defs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of definitions registered for cat.
func (r *Registry) Count(cat Category) int {
	return len(r.byCategory[cat])
}

// Defaults builds the category-level baseline ValueSet from the
// registered definitions. The result is a fresh set on every call;
// mutating it never affects the registry.
func (r *Registry) Defaults(cat Category) *ValueSet {
	out := NewValueSet()
	for id, def := range r.byCategory[cat] {
		out.Basic[id] = def.Default
		if len(def.DefaultModifiers) == 0 {
			continue
		}
		rec := make(ModifierRecord, len(def.DefaultModifiers))
		for name, v := range def.DefaultModifiers {
			t, err := ParseTarget(name)
			if err != nil {
				continue // rejected by Register; unreachable for registered defs
			}
			rec[t] = v
		}
		out.Modifiers[id] = rec
	}
	return out
}

// LoadDefsFromBytes parses a sequence of variable definitions from raw
// YAML bytes. Unknown fields are rejected.
func LoadDefsFromBytes(data []byte) ([]*Def, error) {
	var defs []*Def
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&defs); err != nil {
		return nil, fmt.Errorf("parsing variable defs YAML: %w", err)
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

// LoadDirectory reads every *.yaml file in dir, parses each as a list of
// variable definitions, and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file
// fails to parse or any definition is invalid or duplicated.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading variable dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		defs, err := LoadDefsFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		for _, d := range defs {
			if err := reg.Register(d); err != nil {
				return nil, fmt.Errorf("loading %q: %w", path, err)
			}
		}
	}
	return reg, nil
}
