package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	m "github.com/samir-djili/obfuscator/internal/model"
)

func TestRegistry_SelectLevels(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		level int
		want  []m.TechniqueName
	}{
		{1, []m.TechniqueName{m.TechniqueNumericObfuscation, m.TechniqueStringEncoding}},
		{2, []m.TechniqueName{m.TechniqueNumericObfuscation, m.TechniqueStringEncoding, m.TechniqueIdentifierRenaming}},
		{3, []m.TechniqueName{
			m.TechniqueImportIndirection, m.TechniqueNumericObfuscation,
			m.TechniqueStringEncoding, m.TechniqueIdentifierRenaming, m.TechniqueDeadCode,
		}},
	}

	for _, c := range cases {
		cfg := m.DefaultConfig()
		cfg.Level = c.level

		got, diags, err := reg.Select(cfg)
		require.NoError(t, err)
		require.Empty(t, diags)
		require.Equal(t, c.want, got, "level %d", c.level)
	}
}

func TestRegistry_LevelFourEqualsLevelThree(t *testing.T) {
	reg := NewRegistry()

	cfg3 := m.DefaultConfig()
	cfg3.Level = 3
	cfg4 := m.DefaultConfig()
	cfg4.Level = 4

	three, _, err := reg.Select(cfg3)
	require.NoError(t, err)

	four, _, err := reg.Select(cfg4)
	require.NoError(t, err)

	require.Equal(t, three, four)
}

func TestRegistry_ExplicitTechniquesOverrideLevel(t *testing.T) {
	reg := NewRegistry()

	cfg := m.DefaultConfig()
	cfg.Level = 1
	cfg.Techniques = []m.TechniqueName{m.TechniqueDeadCode, m.TechniqueStringEncoding}

	got, _, err := reg.Select(cfg)
	require.NoError(t, err)

	// Selection is always priority ordered regardless of input order.
	require.Equal(t, []m.TechniqueName{m.TechniqueStringEncoding, m.TechniqueDeadCode}, got)
}

func TestRegistry_UnknownTechnique(t *testing.T) {
	reg := NewRegistry()

	cfg := m.DefaultConfig()
	cfg.Techniques = []m.TechniqueName{"rot13"}

	_, _, err := reg.Select(cfg)
	require.Error(t, err)
}

func TestRegistry_LevelOutOfRange(t *testing.T) {
	reg := NewRegistry()

	for _, level := range []int{0, 5, -1} {
		cfg := m.DefaultConfig()
		cfg.Level = level

		_, _, err := reg.Select(cfg)
		require.Error(t, err, "level %d", level)
	}
}

func TestRegistry_SelectKeepsConflictingTechniques(t *testing.T) {
	// Declared conflicts only guide reduction after a validation failure;
	// selection itself must hand out the full set.
	reg := NewRegistry(
		m.TechniqueDescriptor{Name: "alpha", MinLevel: 1, Priority: 10},
		m.TechniqueDescriptor{Name: "beta", MinLevel: 1, Priority: 20, Conflicts: []m.TechniqueName{"alpha"}},
		m.TechniqueDescriptor{Name: "gamma", MinLevel: 1, Priority: 30},
	)

	cfg := m.DefaultConfig()
	cfg.Level = 1

	got, diags, err := reg.Select(cfg)
	require.NoError(t, err)
	require.Equal(t, []m.TechniqueName{"alpha", "beta", "gamma"}, got)
	require.Empty(t, diags)
}
