package techniques_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samir-djili/obfuscator/internal/domain"
	"github.com/samir-djili/obfuscator/internal/domain/techniques"
	m "github.com/samir-djili/obfuscator/internal/model"
)

func deadCodeCtx(t *testing.T, density float64) *techniques.Context {
	t.Helper()

	return newTestContext(t, func(cfg *m.Config) {
		cfg.DeadCodeDensity = density
		cfg.NamePattern = m.NameSequential
	})
}

func TestDeadCodeInjector_ZeroDensityChangesNothing(t *testing.T) {
	src := "a = 1\nb = 2\n"
	out := applyPass(t, techniques.NewDeadCodeInjector(), deadCodeCtx(t, 0), src)

	require.Equal(t, src, out)
}

func TestDeadCodeInjector_FullDensityInsertsEverywhereEligible(t *testing.T) {
	src := "a = 1\nb = 2\nc = 3\n"
	out := applyPass(t, techniques.NewDeadCodeInjector(), deadCodeCtx(t, 1), src)

	require.Greater(t, strings.Count(out, "\n"), strings.Count(src, "\n"))
	require.Contains(t, out, "a = 1\n")
	require.Contains(t, out, "b = 2\n")
	require.Contains(t, out, "c = 3\n")
}

func TestDeadCodeInjector_IndentFollowsNextLine(t *testing.T) {
	src := "def f():\n    a = 1\n    return a\n"
	out := applyPass(t, techniques.NewDeadCodeInjector(), deadCodeCtx(t, 1), src)

	for _, line := range strings.Split(out, "\n") {
		if line == "" || strings.HasPrefix(line, "def f") {
			continue
		}

		require.True(t, strings.HasPrefix(line, "    "), "inserted line %q broke the block indent", line)
	}
}

func TestDeadCodeInjector_SkipsUnsafeBoundaries(t *testing.T) {
	src := "x = [\n    1,\n    2,\n]\n" +
		"if x:\n    a = 1\nelse:\n    a = 2\n" +
		"@dec\ndef f():\n    pass\n" +
		"try:\n    pass\nexcept ValueError:\n    pass\nfinally:\n    pass\n"

	out := applyPass(t, techniques.NewDeadCodeInjector(), deadCodeCtx(t, 1), src)

	// Structural pairs must stay adjacent in line terms: nothing between a
	// decorator and its def, nothing separating else/except/finally from
	// their blocks, nothing inside the bracketed literal.
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "@dec":
			require.Equal(t, "def f():", strings.TrimSpace(lines[i+1]), "decorator separated from def")
		case trimmed == "1,":
			require.Equal(t, "2,", strings.TrimSpace(lines[i+1]), "insertion inside brackets")
		case trimmed == "else:", strings.HasPrefix(trimmed, "except "), trimmed == "finally:":
			prev := strings.TrimSpace(lines[i-1])
			require.Contains(t, []string{"a = 1", "a = 2", "pass"}, prev,
				"%q separated from its block by %q", trimmed, prev)
		}
	}
}

func TestDeadCodeInjector_RespectsClaimedLines(t *testing.T) {
	ctx := deadCodeCtx(t, 1)
	ctx.ClaimLine(0)
	ctx.ClaimLine(1)

	src := "a = 1\nb = 2\n"
	spans, err := domain.Scan(src)
	require.NoError(t, err)

	out, err := techniques.NewDeadCodeInjector().Apply(ctx, spans)
	require.NoError(t, err)

	// Claimed boundaries (after line 0 and after line 1) are off-limits, so
	// nothing can be inserted at all in this two-line file.
	require.Equal(t, src, m.Render(out))
}

func TestDeadCodeInjector_AllocatorExhaustionFailsApply(t *testing.T) {
	// Sequential names all contain "_v"; excluding it starves the allocator,
	// so the first inserted form that needs a fresh name must fail the pass.
	ctx := newTestContext(t, func(cfg *m.Config) {
		cfg.DeadCodeDensity = 1
		cfg.NamePattern = m.NameSequential
		cfg.ExcludedPatterns = []string{"_v"}
	})

	src := strings.Repeat("a = 1\n", 20)
	spans, err := domain.Scan(src)
	require.NoError(t, err)

	_, err = techniques.NewDeadCodeInjector().Apply(ctx, spans)
	require.ErrorIs(t, err, techniques.ErrNameSpaceExhausted)
}

func TestDeadCodeInjector_StatementsAreInert(t *testing.T) {
	src := strings.Repeat("a = 1\n", 20)
	out := applyPass(t, techniques.NewDeadCodeInjector(), deadCodeCtx(t, 1), src)

	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "a = 1" {
			continue
		}

		inert := strings.HasPrefix(trimmed, "_v") ||
			trimmed == "if False:" ||
			trimmed == "pass" ||
			strings.HasPrefix(trimmed, "def _v")

		require.True(t, inert, "unexpected injected statement %q", trimmed)
	}
}
