package entity

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tmachale/scenforge/internal/scenario/variable"
)

// yamlValues is the on-disk shape of one category's override values.
type yamlValues struct {
	Basic     map[string]int            `yaml:"basic"`
	Modifiers map[string]map[string]int `yaml:"modifiers"`
}

type classFile struct {
	ID          string                `yaml:"id"`
	Name        string                `yaml:"name"`
	Description string                `yaml:"description"`
	Values      map[string]yamlValues `yaml:"values"`
}

type templateFile struct {
	ID     string                `yaml:"id"`
	Name   string                `yaml:"name"`
	Class  string                `yaml:"class"`
	Values map[string]yamlValues `yaml:"values"`
}

type factionFile struct {
	ID     string                `yaml:"id"`
	Name   string                `yaml:"name"`
	Values map[string]yamlValues `yaml:"values"`
}

// convertValues turns the YAML override block into an Overrides
// collection, rejecting unknown categories and targets, out-of-range
// values, categories the kind does not expose, and modifier values in
// categories that do not support them.
func convertValues(objID string, kind Kind, values map[string]yamlValues) (*Overrides, error) {
	allowed := make(map[variable.Category]bool)
	for _, cat := range kind.Categories() {
		allowed[cat] = true
	}

	out := NewOverrides()
	for catName, block := range values {
		cat, err := variable.ParseCategory(catName)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", kind, objID, err)
		}
		if !allowed[cat] {
			return nil, fmt.Errorf("%s %q: category %s is not editable for this kind", kind, objID, cat)
		}
		vs := variable.NewValueSet()
		for id, v := range block.Basic {
			if !variable.InBounds(v) {
				return nil, fmt.Errorf("%s %q: %s value for %q out of range", kind, objID, cat, id)
			}
			vs.Basic[id] = v
		}
		if len(block.Modifiers) > 0 && !cat.SupportsModifiers() {
			return nil, fmt.Errorf("%s %q: category %s does not support modifiers", kind, objID, cat)
		}
		for id, targets := range block.Modifiers {
			if len(targets) == 0 {
				continue // empty records are never stored
			}
			rec := make(variable.ModifierRecord, len(targets))
			for name, v := range targets {
				t, err := variable.ParseTarget(name)
				if err != nil {
					return nil, fmt.Errorf("%s %q: modifier for %q: %w", kind, objID, id, err)
				}
				if !variable.InBounds(v) {
					return nil, fmt.Errorf("%s %q: modifier %s for %q out of range", kind, objID, name, id)
				}
				rec[t] = v
			}
			vs.Modifiers[id] = rec
		}
		if !vs.Empty() {
			out.SetCategoryOverrides(cat, vs)
		}
	}
	return out, nil
}

// LoadClassFromBytes parses a single entity class from raw YAML bytes.
func LoadClassFromBytes(data []byte) (*Class, error) {
	var f classFile
	if err := decodeStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parsing class YAML: %w", err)
	}
	if f.ID == "" {
		return nil, fmt.Errorf("entity class: id must not be empty")
	}
	ov, err := convertValues(f.ID, KindEntityClass, f.Values)
	if err != nil {
		return nil, err
	}
	return &Class{ID: f.ID, Name: f.Name, Description: f.Description, Overrides: ov}, nil
}

// LoadTemplateFromBytes parses a single entity template from raw YAML bytes.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var f templateFile
	if err := decodeStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if f.ID == "" {
		return nil, fmt.Errorf("entity template: id must not be empty")
	}
	if f.Class == "" {
		return nil, fmt.Errorf("entity template %q: class must not be empty", f.ID)
	}
	ov, err := convertValues(f.ID, KindEntityTemplate, f.Values)
	if err != nil {
		return nil, err
	}
	return &Template{ID: f.ID, Name: f.Name, ClassID: f.Class, Overrides: ov}, nil
}

// LoadFactionFromBytes parses a single faction class from raw YAML bytes.
func LoadFactionFromBytes(data []byte) (*FactionClass, error) {
	var f factionFile
	if err := decodeStrict(data, &f); err != nil {
		return nil, fmt.Errorf("parsing faction YAML: %w", err)
	}
	if f.ID == "" {
		return nil, fmt.Errorf("faction class: id must not be empty")
	}
	ov, err := convertValues(f.ID, KindFactionClass, f.Values)
	if err != nil {
		return nil, err
	}
	return &FactionClass{ID: f.ID, Name: f.Name, Overrides: ov}, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// LoadScenario reads classes, templates, and factions from their content
// directories and returns a cross-checked Scenario.
//
// Precondition: all three directories must be readable.
// Postcondition: Returns a Scenario whose template class references all
// resolve, or an error.
func LoadScenario(classDir, templateDir, factionDir string) (*Scenario, error) {
	s := &Scenario{
		Classes:   make(map[string]*Class),
		Templates: make(map[string]*Template),
		Factions:  make(map[string]*FactionClass),
	}

	err := eachYAML(classDir, func(path string, data []byte) error {
		c, err := LoadClassFromBytes(data)
		if err != nil {
			return err
		}
		if _, dup := s.Classes[c.ID]; dup {
			return fmt.Errorf("duplicate entity class id %q", c.ID)
		}
		s.Classes[c.ID] = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachYAML(templateDir, func(path string, data []byte) error {
		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return err
		}
		if _, dup := s.Templates[tmpl.ID]; dup {
			return fmt.Errorf("duplicate entity template id %q", tmpl.ID)
		}
		s.Templates[tmpl.ID] = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachYAML(factionDir, func(path string, data []byte) error {
		f, err := LoadFactionFromBytes(data)
		if err != nil {
			return err
		}
		if _, dup := s.Factions[f.ID]; dup {
			return fmt.Errorf("duplicate faction class id %q", f.ID)
		}
		s.Factions[f.ID] = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func eachYAML(dir string, fn func(path string, data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading content dir %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		if err := fn(path, data); err != nil {
			return fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return nil
}
