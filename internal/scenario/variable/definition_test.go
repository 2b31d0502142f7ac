package variable_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmachale/scenforge/internal/scenario/variable"
)

const sampleDefsYAML = `
- id: gold
  name: Gold
  category: resource
  default: 100
- id: attack
  name: Attack
  category: attribute
  default: 5
  default_modifiers:
    self: 1
- id: turns_held
  name: Turns Held
  category: counter
  default: 0
`

func TestLoadDefsFromBytes(t *testing.T) {
	defs, err := variable.LoadDefsFromBytes([]byte(sampleDefsYAML))
	require.NoError(t, err)
	require.Len(t, defs, 3)
	assert.Equal(t, "gold", defs[0].ID)
	assert.Equal(t, 100, defs[0].Default)
	assert.Equal(t, map[string]int{"self": 1}, defs[1].DefaultModifiers)
}

func TestLoadDefsFromBytes_UnknownField(t *testing.T) {
	_, err := variable.LoadDefsFromBytes([]byte("- id: gold\n  category: resource\n  colour: yellow\n"))
	assert.Error(t, err)
}

func TestDef_Validate_ModifiersOnCounter(t *testing.T) {
	d := &variable.Def{ID: "turns", Category: "counter", DefaultModifiers: map[string]int{"self": 1}}
	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support modifiers")
}

func TestDef_Validate_UnknownTarget(t *testing.T) {
	d := &variable.Def{ID: "attack", Category: "attribute", DefaultModifiers: map[string]int{"neutral": 1}}
	assert.Error(t, d.Validate())
}

func TestDef_Validate_OutOfRangeDefault(t *testing.T) {
	d := &variable.Def{ID: "gold", Category: "resource", Default: variable.AbsoluteMaximum + 1}
	assert.Error(t, d.Validate())
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := variable.NewRegistry()
	require.NoError(t, reg.Register(&variable.Def{ID: "gold", Category: "resource", Default: 100}))

	d, ok := reg.Get(variable.Resource, "gold")
	require.True(t, ok)
	assert.Equal(t, 100, d.Default)
	assert.False(t, reg.Has(variable.Attribute, "gold"))
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	reg := variable.NewRegistry()
	require.NoError(t, reg.Register(&variable.Def{ID: "gold", Category: "resource"}))
	err := reg.Register(&variable.Def{ID: "gold", Category: "resource"})
	assert.Error(t, err)
}

func TestRegistry_IDs_Ordinal(t *testing.T) {
	reg := variable.NewRegistry()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, reg.Register(&variable.Def{ID: id, Category: "resource"}))
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, reg.IDs(variable.Resource))
}

func TestRegistry_Defaults_FreshCopy(t *testing.T) {
	reg := variable.NewRegistry()
	require.NoError(t, reg.Register(&variable.Def{
		ID: "attack", Category: "attribute", Default: 5,
		DefaultModifiers: map[string]int{"self": 1},
	}))

	d1 := reg.Defaults(variable.Attribute)
	d1.Basic["attack"] = 99
	d1.Modifiers["attack"][variable.TargetSelf] = 99

	d2 := reg.Defaults(variable.Attribute)
	assert.Equal(t, 5, d2.Basic["attack"])
	assert.Equal(t, 1, d2.Modifiers["attack"][variable.TargetSelf])
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core.yaml"), []byte(sampleDefsYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	reg, err := variable.LoadDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Count(variable.Resource))
	assert.Equal(t, 1, reg.Count(variable.Attribute))
	assert.Equal(t, 1, reg.Count(variable.Counter))
}

func TestLoadDirectory_BadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("- id: ''\n  category: resource\n"), 0o644))
	_, err := variable.LoadDirectory(dir)
	assert.Error(t, err)
}
