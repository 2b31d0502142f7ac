package varedit_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmachale/scenforge/internal/editor/varedit"
	"github.com/tmachale/scenforge/internal/scenario/entity"
	"github.com/tmachale/scenforge/internal/scenario/variable"
)

func target(t variable.Target) *variable.Target {
	return &t
}

// attrSet builds a single-category Attribute session with the given
// baseline; the working copy starts equal to the baseline.
func attrSet(t *testing.T, defaults *variable.ValueSet) *varedit.Set {
	t.Helper()
	s, err := varedit.New(map[variable.Category]varedit.Snapshot{
		variable.Attribute: {Default: defaults, Current: defaults.Clone()},
	})
	require.NoError(t, err)
	return s
}

func TestNew_ActiveIsFirstDeclaredCategory(t *testing.T) {
	s, err := varedit.New(map[variable.Category]varedit.Snapshot{
		variable.Resource: {},
		variable.Counter:  {},
	})
	require.NoError(t, err)
	assert.Equal(t, variable.Counter, s.Active())
	assert.Equal(t, []variable.Category{variable.Counter, variable.Resource}, s.Categories())
	assert.False(t, s.Dirty())
}

func TestNew_Empty(t *testing.T) {
	_, err := varedit.New(nil)
	assert.Error(t, err)
}

func TestNew_ModifiersOnCounterRejected(t *testing.T) {
	vs := variable.NewValueSet()
	vs.Modifiers["turns"] = variable.ModifierRecord{variable.TargetSelf: 1}
	_, err := varedit.New(map[variable.Category]varedit.Snapshot{
		variable.Counter: {Current: vs},
	})
	assert.Error(t, err)
}

func TestNew_DoesNotAliasInputs(t *testing.T) {
	defaults := variable.NewValueSet()
	defaults.Basic["attack"] = 5
	s := attrSet(t, defaults)

	defaults.Basic["attack"] = 99
	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 5, entries[0].Current)
	assert.Equal(t, 5, entries[0].Default)
}

func TestSelectCategory(t *testing.T) {
	s, err := varedit.New(map[variable.Category]varedit.Snapshot{
		variable.Attribute: {},
		variable.Resource:  {},
	})
	require.NoError(t, err)

	require.NoError(t, s.SelectCategory(variable.Resource))
	assert.Equal(t, variable.Resource, s.Active())

	// selecting the active category again is a no-op
	require.NoError(t, s.SelectCategory(variable.Resource))
	assert.Equal(t, variable.Resource, s.Active())
	assert.False(t, s.Dirty())

	assert.Error(t, s.SelectCategory(variable.BuildResource))
}

func TestEntries_Ordering(t *testing.T) {
	defaults := variable.NewValueSet()
	defaults.Basic["zeta"] = 1
	defaults.Basic["alpha"] = 2
	defaults.Modifiers["alpha"] = variable.ModifierRecord{variable.TargetSelf: 3}
	s := attrSet(t, defaults)

	entries := s.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "alpha", entries[0].ID)
	assert.Nil(t, entries[0].Target)
	assert.Equal(t, "alpha", entries[1].ID)
	require.NotNil(t, entries[1].Target)
	assert.Equal(t, variable.TargetSelf, *entries[1].Target)
	assert.Equal(t, "zeta", entries[2].ID)
	assert.Nil(t, entries[2].Target)
}

func TestEntries_ModifierTargetsInDeclarationOrder(t *testing.T) {
	defaults := variable.NewValueSet()
	defaults.Modifiers["attack"] = variable.ModifierRecord{
		variable.TargetEnemies: 1,
		variable.TargetSelf:    2,
		variable.TargetOwner:   3,
	}
	s := attrSet(t, defaults)

	entries := s.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, variable.TargetSelf, *entries[0].Target)
	assert.Equal(t, variable.TargetOwner, *entries[1].Target)
	assert.Equal(t, variable.TargetEnemies, *entries[2].Target)
}

func TestAddBasicValue(t *testing.T) {
	s := attrSet(t, variable.NewValueSet())
	require.NoError(t, s.AddBasicValue("morale"))
	assert.True(t, s.Dirty())

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Current)
	assert.False(t, entries[0].HasDefault)
}

func TestAddBasicValue_Duplicate(t *testing.T) {
	s := attrSet(t, variable.NewValueSet())
	require.NoError(t, s.AddBasicValue("morale"))
	require.NoError(t, s.SetValue("morale", nil, 7))

	err := s.AddBasicValue("morale")
	var dup *varedit.DuplicateVariableError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "morale", dup.ID)
	assert.Nil(t, dup.Target)

	// the failed add changed nothing
	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 7, entries[0].Current)
}

func TestAddModifierValue_SeedsSiblingsFromBaseline(t *testing.T) {
	defaults := variable.NewValueSet()
	defaults.Modifiers["attack"] = variable.ModifierRecord{variable.TargetOwner: 4}
	// working copy starts without any modifier record for "attack"
	s, err := varedit.New(map[variable.Category]varedit.Snapshot{
		variable.Attribute: {Default: defaults, Current: variable.NewValueSet()},
	})
	require.NoError(t, err)

	require.NoError(t, s.AddModifierValue("attack", variable.TargetSelf))

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, variable.TargetSelf, *entries[0].Target)
	assert.Equal(t, 0, entries[0].Current)
	// owner value seeded from the baseline record
	assert.Equal(t, variable.TargetOwner, *entries[1].Target)
	assert.Equal(t, 4, entries[1].Current)
}

func TestAddModifierValue_Duplicate(t *testing.T) {
	s := attrSet(t, variable.NewValueSet())
	require.NoError(t, s.AddModifierValue("attack", variable.TargetSelf))

	err := s.AddModifierValue("attack", variable.TargetSelf)
	var dup *varedit.DuplicateVariableError
	require.True(t, errors.As(err, &dup))
	require.NotNil(t, dup.Target)
	assert.Equal(t, variable.TargetSelf, *dup.Target)
}

func TestAddModifierValue_UnsupportedCategory(t *testing.T) {
	s, err := varedit.New(map[variable.Category]varedit.Snapshot{
		variable.Counter: {},
	})
	require.NoError(t, err)
	assert.Error(t, s.AddModifierValue("turns", variable.TargetSelf))
}

func TestSetValue_EqualValueIsNoOp(t *testing.T) {
	defaults := variable.NewValueSet()
	defaults.Basic["attack"] = 5
	s := attrSet(t, defaults)

	require.NoError(t, s.SetValue("attack", nil, 5))
	assert.False(t, s.Dirty())

	require.NoError(t, s.SetValue("attack", nil, 6))
	assert.True(t, s.Dirty())
}

func TestSetValue_MissingEntry(t *testing.T) {
	s := attrSet(t, variable.NewValueSet())
	assert.Error(t, s.SetValue("ghost", nil, 1))
	assert.Error(t, s.SetValue("ghost", target(variable.TargetSelf), 1))
	assert.False(t, s.Dirty())
}

func TestRemoveEntry_LastTargetRemovesRecord(t *testing.T) {
	defaults := variable.NewValueSet()
	defaults.Modifiers["attack"] = variable.ModifierRecord{variable.TargetSelf: 2}
	s := attrSet(t, defaults)

	s.RemoveEntry("attack", target(variable.TargetSelf))
	assert.Empty(t, s.Entries())

	// commit must persist no record for "attack" at all
	store := entity.NewOverrides()
	s.AcceptAndMerge(store)
	_, present := store.CategoryOverrides(variable.Attribute).Modifiers["attack"]
	assert.False(t, present)
}

func TestRemoveEntry_KeepsSiblingTargets(t *testing.T) {
	defaults := variable.NewValueSet()
	defaults.Modifiers["attack"] = variable.ModifierRecord{
		variable.TargetSelf:  2,
		variable.TargetOwner: 3,
	}
	s := attrSet(t, defaults)

	s.RemoveEntry("attack", target(variable.TargetSelf))
	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, variable.TargetOwner, *entries[0].Target)
}

func TestRemoveEntry_AbsentIsNoOp(t *testing.T) {
	s := attrSet(t, variable.NewValueSet())
	s.RemoveEntry("ghost", nil)
	s.RemoveEntry("ghost", target(variable.TargetSelf))
	assert.False(t, s.Dirty())
}

func TestResetEntry(t *testing.T) {
	defaults := variable.NewValueSet()
	defaults.Basic["attack"] = 5
	s := attrSet(t, defaults)

	require.NoError(t, s.SetValue("attack", nil, 9))
	require.NoError(t, s.ResetEntry("attack", nil))

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 5, entries[0].Current)
}

func TestResetEntry_NoDefaultIsNoOp(t *testing.T) {
	s := attrSet(t, variable.NewValueSet())
	require.NoError(t, s.AddBasicValue("morale"))
	require.NoError(t, s.SetValue("morale", nil, 3))

	require.NoError(t, s.ResetEntry("morale", nil))
	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Current)
}

func TestResetCategory_Idempotent(t *testing.T) {
	defaults := variable.NewValueSet()
	defaults.Basic["attack"] = 5
	defaults.Modifiers["attack"] = variable.ModifierRecord{variable.TargetSelf: 1}
	s := attrSet(t, defaults)

	s.ResetCategory()
	first := s.Entries()
	s.ResetCategory()
	second := s.Entries()

	assert.Empty(t, first)
	assert.Equal(t, first, second)
}

func TestResetCategory_EmptyDoesNotDirty(t *testing.T) {
	s := attrSet(t, variable.NewValueSet())
	s.ResetCategory()
	assert.False(t, s.Dirty())
}

func TestResetAll(t *testing.T) {
	attrDefaults := variable.NewValueSet()
	attrDefaults.Basic["attack"] = 5
	resDefaults := variable.NewValueSet()
	resDefaults.Basic["gold"] = 100

	s, err := varedit.New(map[variable.Category]varedit.Snapshot{
		variable.Attribute: {Default: attrDefaults, Current: attrDefaults.Clone()},
		variable.Resource:  {Default: resDefaults, Current: resDefaults.Clone()},
	})
	require.NoError(t, err)

	s.ResetAll()
	assert.Empty(t, s.Entries())
	require.NoError(t, s.SelectCategory(variable.Resource))
	assert.Empty(t, s.Entries())
}

func TestAcceptAndMerge_PrunesDefaults(t *testing.T) {
	defaults := variable.NewValueSet()
	defaults.Basic["attack"] = 5
	defaults.Basic["defense"] = 4
	defaults.Modifiers["attack"] = variable.ModifierRecord{variable.TargetSelf: 1, variable.TargetOwner: 2}
	s := attrSet(t, defaults)

	require.NoError(t, s.SetValue("attack", nil, 9))
	require.NoError(t, s.SetValue("attack", target(variable.TargetOwner), 7))

	store := entity.NewOverrides()
	changed := s.AcceptAndMerge(store)
	assert.True(t, changed)

	got := store.CategoryOverrides(variable.Attribute)
	assert.Equal(t, map[string]int{"attack": 9}, got.Basic)
	assert.True(t, got.Modifiers["attack"].Equal(variable.ModifierRecord{variable.TargetOwner: 7}))
	_, hasDefense := got.Basic["defense"]
	assert.False(t, hasDefense)
}

// End-to-end: editing to a new value persists an override; editing back
// to the default persists an empty collection, and both commits report a
// change because the store's previous contents differed.
func TestAcceptAndMerge_EndToEnd(t *testing.T) {
	defaults := variable.NewValueSet()
	defaults.Basic["gold"] = 100
	store := entity.NewOverrides()

	s := attrSet(t, defaults)
	require.NoError(t, s.SetValue("gold", nil, 150))
	assert.True(t, s.AcceptAndMerge(store))
	assert.Equal(t, map[string]int{"gold": 150}, store.CategoryOverrides(variable.Attribute).Basic)

	// new session over the same store, edit back to the default
	current := defaults.Clone()
	current.Basic["gold"] = 150
	s2, err := varedit.New(map[variable.Category]varedit.Snapshot{
		variable.Attribute: {Default: defaults, Current: current},
	})
	require.NoError(t, err)
	require.NoError(t, s2.SetValue("gold", nil, 100))
	assert.True(t, s2.AcceptAndMerge(store))
	assert.True(t, store.CategoryOverrides(variable.Attribute).Empty())
}

func TestAcceptAndMerge_NoChange(t *testing.T) {
	defaults := variable.NewValueSet()
	defaults.Basic["gold"] = 100
	store := entity.NewOverrides()

	s := attrSet(t, defaults)
	assert.False(t, s.AcceptAndMerge(store))
}
