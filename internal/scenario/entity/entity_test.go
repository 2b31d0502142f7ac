package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmachale/scenforge/internal/scenario/entity"
	"github.com/tmachale/scenforge/internal/scenario/variable"
)

func TestKind_Categories(t *testing.T) {
	assert.Equal(t, variable.Categories(), entity.KindEntityClass.Categories())
	assert.Equal(t, variable.Categories(), entity.KindEntityTemplate.Categories())
	assert.Equal(t,
		[]variable.Category{variable.Counter, variable.Resource},
		entity.KindFactionClass.Categories(),
	)
}

func TestOverrides_CategoryOverrides_NeverNil(t *testing.T) {
	ov := entity.NewOverrides()
	vs := ov.CategoryOverrides(variable.Resource)
	require.NotNil(t, vs)

	// Mutations through the returned set are visible on the next lookup.
	vs.Basic["gold"] = 50
	assert.Equal(t, 50, ov.CategoryOverrides(variable.Resource).Basic["gold"])
}

func TestOverrides_Categories_SkipsEmpty(t *testing.T) {
	ov := entity.NewOverrides()
	ov.CategoryOverrides(variable.Attribute) // installed but empty
	ov.CategoryOverrides(variable.Resource).Basic["gold"] = 50
	assert.Equal(t, []variable.Category{variable.Resource}, ov.Categories())
}

func TestOverrides_CloneIsDeep(t *testing.T) {
	ov := entity.NewOverrides()
	ov.CategoryOverrides(variable.Resource).Basic["gold"] = 50

	clone := ov.Clone()
	clone.CategoryOverrides(variable.Resource).Basic["gold"] = 1

	assert.Equal(t, 50, ov.CategoryOverrides(variable.Resource).Basic["gold"])
}

func TestEffective_OverlaysOverrides(t *testing.T) {
	defaults := variable.NewValueSet()
	defaults.Basic["gold"] = 100
	defaults.Basic["wood"] = 20
	defaults.Modifiers["attack"] = variable.ModifierRecord{variable.TargetSelf: 1}

	ov := variable.NewValueSet()
	ov.Basic["gold"] = 150
	ov.Modifiers["attack"] = variable.ModifierRecord{variable.TargetOwner: 3}

	eff := entity.Effective(defaults, ov)
	assert.Equal(t, 150, eff.Basic["gold"])
	assert.Equal(t, 20, eff.Basic["wood"])
	// Override targets merge with default targets, not replace them.
	assert.Equal(t, 1, eff.Modifiers["attack"][variable.TargetSelf])
	assert.Equal(t, 3, eff.Modifiers["attack"][variable.TargetOwner])
}

func TestEffective_DoesNotAliasInputs(t *testing.T) {
	defaults := variable.NewValueSet()
	defaults.Basic["gold"] = 100

	eff := entity.Effective(defaults, nil)
	eff.Basic["gold"] = 1
	assert.Equal(t, 100, defaults.Basic["gold"])
}

func TestScenario_Object(t *testing.T) {
	s := &entity.Scenario{
		Classes: map[string]*entity.Class{
			"infantry": {ID: "infantry", Name: "Infantry", Overrides: entity.NewOverrides()},
		},
		Templates: map[string]*entity.Template{},
		Factions:  map[string]*entity.FactionClass{},
	}

	ov, name, err := s.Object(entity.KindEntityClass, "infantry")
	require.NoError(t, err)
	assert.Equal(t, "Infantry", name)
	assert.NotNil(t, ov)

	_, _, err = s.Object(entity.KindFactionClass, "infantry")
	assert.Error(t, err)

	_, _, err = s.Object(entity.Kind("garrison"), "infantry")
	assert.Error(t, err)
}

func TestScenario_Validate_UnknownClassRef(t *testing.T) {
	s := &entity.Scenario{
		Classes: map[string]*entity.Class{},
		Templates: map[string]*entity.Template{
			"vet": {ID: "vet", ClassID: "missing", Overrides: entity.NewOverrides()},
		},
		Factions: map[string]*entity.FactionClass{},
	}
	assert.Error(t, s.Validate())
}
