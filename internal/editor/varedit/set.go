// Package varedit implements the variable edit set behind the scenario
// editor's value dialogs: per-category baseline and working copies of
// basic and modifier values, with add/remove/reset operations and
// merge-by-difference-from-default commit semantics.
package varedit

import (
	"fmt"
	"sort"

	"github.com/tmachale/scenforge/internal/scenario/variable"
)

// DuplicateVariableError reports an attempt to add a basic or modifier
// value the working copy already contains. It is recoverable: the edit
// set is unchanged and the dialog surfaces it as an informational prompt.
type DuplicateVariableError struct {
	ID     string
	Target *variable.Target // nil for a basic value
}

func (e *DuplicateVariableError) Error() string {
	if e.Target != nil {
		return fmt.Sprintf("variable %q already has a %s modifier value", e.ID, *e.Target)
	}
	return fmt.Sprintf("variable %q already has a basic value", e.ID)
}

// Snapshot pairs one category's inherited baseline with the object's
// effective values at dialog open. Either set may be nil (treated as
// empty).
type Snapshot struct {
	Default *variable.ValueSet
	Current *variable.ValueSet
}

// categoryState holds one category's collections for the session.
// The default maps are frozen at construction; only current* mutate.
type categoryState struct {
	defaultBasic     map[string]int
	currentBasic     map[string]int
	defaultModifiers map[string]variable.ModifierRecord
	currentModifiers map[string]variable.ModifierRecord
}

// OverrideStore is the object-side storage an edit session commits into.
// Implementations must treat SetCategoryOverrides as a replacement, not a
// merge.
type OverrideStore interface {
	CategoryOverrides(cat variable.Category) *variable.ValueSet
	SetCategoryOverrides(cat variable.Category, vs *variable.ValueSet)
}

// Set is one dialog session's editable view of a scenario object's
// variable values. Exactly one Set exists per open dialog; it is not
// safe for concurrent use and the owning session must serialise access.
type Set struct {
	states map[variable.Category]*categoryState
	order  []variable.Category // snapshot categories in declaration order
	active variable.Category
	dirty  bool
}

// New creates a Set from per-category snapshots. Every input set is deep
// copied: the session never aliases the caller's collections, and the
// baseline copies are frozen for the session's lifetime.
//
// Precondition: snapshots must not be empty; modifier values may only
// appear in categories that support them.
// Postcondition: The first snapshot category in declaration order is
// active and Dirty() is false.
func New(snapshots map[variable.Category]Snapshot) (*Set, error) {
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("varedit: at least one category snapshot is required")
	}
	s := &Set{states: make(map[variable.Category]*categoryState)}
	for _, cat := range variable.Categories() {
		snap, ok := snapshots[cat]
		if !ok {
			continue
		}
		if !cat.SupportsModifiers() && (hasModifiers(snap.Default) || hasModifiers(snap.Current)) {
			return nil, fmt.Errorf("varedit: category %s does not support modifiers", cat)
		}
		def := snap.Default.Clone()
		cur := snap.Current.Clone()
		s.states[cat] = &categoryState{
			defaultBasic:     def.Basic,
			currentBasic:     cur.Basic,
			defaultModifiers: def.Modifiers,
			currentModifiers: cur.Modifiers,
		}
		s.order = append(s.order, cat)
	}
	if len(s.order) != len(snapshots) {
		return nil, fmt.Errorf("varedit: snapshot map contains an unknown category")
	}
	s.active = s.order[0]
	return s, nil
}

func hasModifiers(vs *variable.ValueSet) bool {
	return vs != nil && len(vs.Modifiers) > 0
}

// Categories returns the categories this session edits, in declaration
// order.
func (s *Set) Categories() []variable.Category {
	out := make([]variable.Category, len(s.order))
	copy(out, s.order)
	return out
}

// Active returns the currently selected category.
func (s *Set) Active() variable.Category {
	return s.active
}

// SelectCategory switches the active category. Selecting the already
// active category is a no-op. No values change; the caller re-renders its
// listing afterwards.
func (s *Set) SelectCategory(cat variable.Category) error {
	if _, ok := s.states[cat]; !ok {
		return fmt.Errorf("varedit: category %s is not part of this session", cat)
	}
	s.active = cat
	return nil
}

// Dirty reports whether any operation has changed the working copy since
// construction. Equal-value SetValue calls and no-op resets do not count.
func (s *Set) Dirty() bool {
	return s.dirty
}

// Entries returns the active category's listing. See CategoryEntries for
// the ordering contract.
func (s *Set) Entries() []Entry {
	entries, _ := s.CategoryEntries(s.active)
	return entries
}

// CategoryEntries returns one Entry per value in cat's working copy: a
// basic entry for each basic value and one modifier entry per defined
// target. Entries are ordered by variable id (ordinal); for equal ids the
// basic entry sorts first and modifier entries follow in Target
// declaration order. The listing is recomputed on every call, never
// maintained incrementally.
func (s *Set) CategoryEntries(cat variable.Category) ([]Entry, error) {
	st, ok := s.states[cat]
	if !ok {
		return nil, fmt.Errorf("varedit: category %s is not part of this session", cat)
	}

	ids := make(map[string]bool, len(st.currentBasic)+len(st.currentModifiers))
	for id := range st.currentBasic {
		ids[id] = true
	}
	for id := range st.currentModifiers {
		ids[id] = true
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	var out []Entry
	for _, id := range sorted {
		if cur, ok := st.currentBasic[id]; ok {
			def, hasDef := st.defaultBasic[id]
			out = append(out, Entry{ID: id, Current: cur, Default: def, HasDefault: hasDef})
		}
		rec := st.currentModifiers[id]
		if rec == nil {
			continue
		}
		defRec := st.defaultModifiers[id]
		for _, t := range variable.Targets() {
			cur, ok := rec[t]
			if !ok {
				continue
			}
			def, hasDef := defRec[t]
			target := t
			out = append(out, Entry{ID: id, Target: &target, Current: cur, Default: def, HasDefault: hasDef})
		}
	}
	return out, nil
}

// AddBasicValue inserts id with value 0 into the active category's
// working copy.
//
// Postcondition: On success the entry exists with value 0 and the set is
// dirty; on *DuplicateVariableError nothing changed.
func (s *Set) AddBasicValue(id string) error {
	st := s.states[s.active]
	if _, exists := st.currentBasic[id]; exists {
		return &DuplicateVariableError{ID: id}
	}
	st.currentBasic[id] = 0
	s.dirty = true
	return nil
}

// AddModifierValue inserts a modifier value of 0 for (id, target) into
// the active category's working copy. When the variable has no modifier
// record yet, the record is seeded from the baseline record if one
// exists, so sibling target defaults stay visible.
//
// Postcondition: On success the (id, target) entry exists with value 0
// and the set is dirty; on error nothing changed.
func (s *Set) AddModifierValue(id string, target variable.Target) error {
	if !s.active.SupportsModifiers() {
		return fmt.Errorf("varedit: category %s does not support modifiers", s.active)
	}
	st := s.states[s.active]
	rec := st.currentModifiers[id]
	if rec != nil {
		if _, exists := rec[target]; exists {
			t := target
			return &DuplicateVariableError{ID: id, Target: &t}
		}
	} else {
		if defRec, ok := st.defaultModifiers[id]; ok {
			rec = defRec.Clone()
		} else {
			rec = make(variable.ModifierRecord)
		}
		st.currentModifiers[id] = rec
	}
	rec[target] = 0
	s.dirty = true
	return nil
}

// SetValue updates the basic value (target nil) or modifier value of id
// in the active category. Storing a value equal to the one already held
// changes nothing and does not mark the set dirty.
func (s *Set) SetValue(id string, target *variable.Target, value int) error {
	st := s.states[s.active]
	if target == nil {
		cur, ok := st.currentBasic[id]
		if !ok {
			return fmt.Errorf("varedit: no basic value for %q in category %s", id, s.active)
		}
		if cur == value {
			return nil
		}
		st.currentBasic[id] = value
		s.dirty = true
		return nil
	}
	rec := st.currentModifiers[id]
	cur, ok := rec[*target]
	if !ok {
		return fmt.Errorf("varedit: no %s modifier value for %q in category %s", *target, id, s.active)
	}
	if cur == value {
		return nil
	}
	rec[*target] = value
	s.dirty = true
	return nil
}

// RemoveEntry deletes the basic value (target nil) or one modifier value
// of id from the active category. Removing the last target of a modifier
// record removes the record entirely. Removing an absent entry is a
// no-op.
func (s *Set) RemoveEntry(id string, target *variable.Target) {
	st := s.states[s.active]
	if target == nil {
		if _, ok := st.currentBasic[id]; ok {
			delete(st.currentBasic, id)
			s.dirty = true
		}
		return
	}
	rec := st.currentModifiers[id]
	if rec == nil {
		return
	}
	if _, ok := rec[*target]; !ok {
		return
	}
	delete(rec, *target)
	if len(rec) == 0 {
		delete(st.currentModifiers, id)
	}
	s.dirty = true
}

// ResetEntry restores the entry's value to its inherited default. An
// entry with no default is left untouched; such entries only exist for
// variables added during the session.
func (s *Set) ResetEntry(id string, target *variable.Target) error {
	st := s.states[s.active]
	if target == nil {
		def, ok := st.defaultBasic[id]
		if !ok {
			return nil
		}
		return s.SetValue(id, nil, def)
	}
	def, ok := st.defaultModifiers[id][*target]
	if !ok {
		return nil
	}
	return s.SetValue(id, target, def)
}

// ResetCategory clears the active category's working copy entirely.
// Downstream commit logic treats "no current value" as "inherit", so
// this reverts the category to its defaults.
//
// Postcondition: The active category's working copy is empty. Calling
// ResetCategory twice yields the same state as calling it once.
func (s *Set) ResetCategory() {
	s.resetCategory(s.active)
}

// ResetAll performs ResetCategory for every category of the session.
func (s *Set) ResetAll() {
	for _, cat := range s.order {
		s.resetCategory(cat)
	}
}

func (s *Set) resetCategory(cat variable.Category) {
	st := s.states[cat]
	if len(st.currentBasic) == 0 && len(st.currentModifiers) == 0 {
		return
	}
	st.currentBasic = make(map[string]int)
	st.currentModifiers = make(map[string]variable.ModifierRecord)
	s.dirty = true
}

// AcceptAndMerge commits the session into store. For each category the
// working copy is first pruned of every value identical to its inherited
// default — only true overrides are ever persisted — and the pruned set
// then replaces the store's previous override collection. The returned
// flag reports whether any persisted collection differs from what the
// store held before.
//
// The caller is responsible for validating values beforehand; a failed
// validation must skip this call entirely so the working copy survives
// for correction.
func (s *Set) AcceptAndMerge(store OverrideStore) bool {
	changed := false
	for _, cat := range s.order {
		st := s.states[cat]

		for id, v := range st.currentBasic {
			if def, ok := st.defaultBasic[id]; ok && def == v {
				delete(st.currentBasic, id)
			}
		}
		for id, rec := range st.currentModifiers {
			defRec := st.defaultModifiers[id]
			for t, v := range rec {
				if def, ok := defRec[t]; ok && def == v {
					delete(rec, t)
				}
			}
			if len(rec) == 0 {
				delete(st.currentModifiers, id)
			}
		}

		pruned := variable.NewValueSet()
		for id, v := range st.currentBasic {
			pruned.Basic[id] = v
		}
		for id, rec := range st.currentModifiers {
			pruned.Modifiers[id] = rec.Clone()
		}

		if !pruned.Equal(store.CategoryOverrides(cat)) {
			changed = true
		}
		store.SetCategoryOverrides(cat, pruned)
	}
	return changed
}
