package domain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samir-djili/obfuscator/internal/domain/techniques"
	m "github.com/samir-djili/obfuscator/internal/model"
)

// failNValidator rejects the first n candidates it sees.
type failNValidator struct {
	n    int
	seen int
}

func (v *failNValidator) Validate(_ context.Context, _ string) error {
	v.seen++
	if v.seen <= v.n {
		return errors.New("rejected")
	}

	return nil
}

func seededConfig(level int) m.Config {
	cfg := m.DefaultConfig()
	cfg.Level = level
	cfg.RandomizeSeed = false
	cfg.Seed = 42

	return cfg
}

const pipelineSource = "import os\n\ndef main():\n    name = 'world'\n    print('hello ' + name, 42)\n\nmain()\n"

func TestPipeline_RunAccepted(t *testing.T) {
	p := NewPipeline(seededConfig(3), NewRegistry(), NewValidator(false))

	result, err := p.Run(context.Background(), pipelineSource)
	require.NoError(t, err)

	require.False(t, result.FallbackOccurred)
	require.False(t, result.FellBackToOriginal())
	require.Equal(t, int64(42), result.Seed)
	require.Len(t, result.Applied, 5)
	require.NotEqual(t, pipelineSource, result.Output)

	// Whatever came out must itself be scannable.
	_, err = Scan(result.Output)
	require.NoError(t, err)
}

func TestPipeline_ReproducibleWithFixedSeed(t *testing.T) {
	a := NewPipeline(seededConfig(3), NewRegistry(), NewValidator(false))
	b := NewPipeline(seededConfig(3), NewRegistry(), NewValidator(false))

	ra, err := a.Run(context.Background(), pipelineSource)
	require.NoError(t, err)

	rb, err := b.Run(context.Background(), pipelineSource)
	require.NoError(t, err)

	require.Equal(t, ra.Output, rb.Output)
}

func TestPipeline_ReducingRetriesAndSucceeds(t *testing.T) {
	p := NewPipeline(seededConfig(2), NewRegistry(), &failNValidator{n: 1})

	result, err := p.Run(context.Background(), pipelineSource)
	require.NoError(t, err)

	// One rejection dropped the last technique; the retry succeeded.
	require.True(t, result.FallbackOccurred)
	require.False(t, result.FellBackToOriginal())
	require.Equal(t, []m.TechniqueName{m.TechniqueNumericObfuscation, m.TechniqueStringEncoding}, result.Applied)
	require.NotEqual(t, pipelineSource, result.Output)
}

func TestPipeline_ExhaustionFallsBackToOriginal(t *testing.T) {
	p := NewPipeline(seededConfig(2), NewRegistry(), &failNValidator{n: 100})

	result, err := p.Run(context.Background(), pipelineSource)
	require.NoError(t, err)

	require.True(t, result.FellBackToOriginal())
	require.Empty(t, result.Applied)
	require.Equal(t, pipelineSource, result.Output)
}

func TestPipeline_UnscannableInputIsFatal(t *testing.T) {
	p := NewPipeline(seededConfig(1), NewRegistry(), NewValidator(false))

	result, err := p.Run(context.Background(), "x = 'unterminated\n")
	require.Error(t, err)

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	require.Equal(t, 1, scanErr.Line)

	// Fatal means fatal: no output, no fallback result.
	require.Empty(t, result.Output)
	require.False(t, result.FallbackOccurred)
}

func TestPipeline_NameSpaceExhaustedSurfaces(t *testing.T) {
	// Every sequential name contains "_v", so excluding it starves the
	// allocator and the first pass that needs a fresh name must fail the run.
	cfg := seededConfig(2)
	cfg.NamePattern = m.NameSequential
	cfg.ExcludedPatterns = []string{"_v"}

	p := NewPipeline(cfg, NewRegistry(), NewValidator(false))

	_, err := p.Run(context.Background(), pipelineSource)
	require.ErrorIs(t, err, techniques.ErrNameSpaceExhausted)
}

func TestPipeline_ReducingDropsConflictSetMemberFirst(t *testing.T) {
	// string_encoding declares a conflict with numeric_obfuscation. After the
	// first validation failure the conflicting pair's lower-priority member
	// goes, not the last technique applied.
	reg := NewRegistry(
		m.TechniqueDescriptor{Name: m.TechniqueNumericObfuscation, MinLevel: 1, Priority: 20},
		m.TechniqueDescriptor{
			Name: m.TechniqueStringEncoding, MinLevel: 1, Priority: 30,
			Conflicts: []m.TechniqueName{m.TechniqueNumericObfuscation},
		},
		m.TechniqueDescriptor{Name: m.TechniqueIdentifierRenaming, MinLevel: 1, Priority: 40},
	)

	p := NewPipeline(seededConfig(1), reg, &failNValidator{n: 1})

	result, err := p.Run(context.Background(), pipelineSource)
	require.NoError(t, err)

	require.True(t, result.FallbackOccurred)
	require.False(t, result.FellBackToOriginal())
	require.Equal(t, []m.TechniqueName{m.TechniqueNumericObfuscation, m.TechniqueIdentifierRenaming}, result.Applied)

	found := false

	for _, d := range result.Diagnostics {
		if strings.Contains(d.Message, "retrying without "+string(m.TechniqueStringEncoding)) {
			found = true
		}
	}

	require.True(t, found, "expected a reduction diagnostic, got %v", result.Diagnostics)
}

func TestPipeline_RandomSeedIsRecorded(t *testing.T) {
	cfg := m.DefaultConfig()
	cfg.Level = 1

	p := NewPipeline(cfg, NewRegistry(), NewValidator(false))

	result, err := p.Run(context.Background(), "x = 'a'\n")
	require.NoError(t, err)
	require.NotZero(t, result.Seed)
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(seededConfig(1), NewRegistry(), NewValidator(false))

	_, err := p.Run(ctx, pipelineSource)
	require.ErrorIs(t, err, context.Canceled)
}
