package techniques

import (
	"math/rand"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	m "github.com/samir-djili/obfuscator/internal/model"
)

func testAllocator(pattern m.NamePattern, excluded ...string) *NameAllocator {
	cfg := m.DefaultConfig()
	cfg.NamePattern = pattern
	cfg.ExcludedPatterns = excluded

	return NewNameAllocator(cfg, rand.New(rand.NewSource(1)))
}

func TestNameAllocator_Patterns(t *testing.T) {
	cases := []struct {
		pattern m.NamePattern
		re      *regexp.Regexp
	}{
		{m.NameHex, regexp.MustCompile(`^_0x[0-9a-f]{4}$`)},
		{m.NameSequential, regexp.MustCompile(`^_v\d+$`)},
		{m.NameRandom, regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9]{5,12}$`)},
	}

	for _, c := range cases {
		alloc := testAllocator(c.pattern)

		seen := make(map[string]struct{})

		for i := 0; i < 100; i++ {
			name, err := alloc.Fresh()
			require.NoError(t, err)
			require.Regexp(t, c.re, name, "pattern %s", c.pattern)

			_, dup := seen[name]
			require.False(t, dup, "pattern %s produced duplicate %q", c.pattern, name)

			seen[name] = struct{}{}
		}
	}
}

func TestNameAllocator_ReserveBlocksName(t *testing.T) {
	alloc := testAllocator(m.NameSequential)
	alloc.Reserve("_v1")
	alloc.Reserve("_v2")

	name, err := alloc.Fresh()
	require.NoError(t, err)
	require.NotContains(t, []string{"_v1", "_v2"}, name)
}

func TestNameAllocator_ExclusionPatternBlocks(t *testing.T) {
	// Every sequential name contains "_v", so exclusion exhausts the space.
	alloc := testAllocator(m.NameSequential, "_v")

	_, err := alloc.Fresh()
	require.ErrorIs(t, err, ErrNameSpaceExhausted)
}

func TestNameAllocator_DeterministicWithSeed(t *testing.T) {
	a := testAllocator(m.NameRandom)
	b := testAllocator(m.NameRandom)

	for i := 0; i < 20; i++ {
		na, err := a.Fresh()
		require.NoError(t, err)

		nb, err := b.Fresh()
		require.NoError(t, err)

		require.Equal(t, na, nb, "same seed diverged")
	}
}
