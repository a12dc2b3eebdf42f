package domain

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/samir-djili/obfuscator/internal/domain/techniques"
	m "github.com/samir-djili/obfuscator/internal/model"
)

// Obfuscator runs the full technique pipeline over one source text and
// guarantees the output is at least lexically valid, falling back to the
// original text when it cannot be.
type Obfuscator interface {
	Run(ctx context.Context, source string) (m.PipelineResult, error)
}

type pipeline struct {
	cfg       m.Config
	registry  Registry
	validator Validator
}

// NewPipeline constructs an Obfuscator with the given registry and validity
// gate.
func NewPipeline(cfg m.Config, registry Registry, validator Validator) Obfuscator {
	return &pipeline{
		cfg:       cfg,
		registry:  registry,
		validator: validator,
	}
}

// Run selects the technique set, applies it, and validates the result. On
// validation failure it drops one technique and retries from the original
// scan, down to an empty set, in which case the original text is returned
// unchanged. Input that does not scan is fatal and yields no result.
func (p *pipeline) Run(ctx context.Context, source string) (m.PipelineResult, error) {
	seed, err := effectiveSeed(p.cfg)
	if err != nil {
		return m.PipelineResult{}, fmt.Errorf("seed: %w", err)
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // obfuscation randomness, not crypto

	result := m.PipelineResult{Output: source, Seed: seed}

	selected, diags, err := p.registry.Select(p.cfg)
	if err != nil {
		return m.PipelineResult{}, fmt.Errorf("select techniques: %w", err)
	}

	result.Diagnostics = append(result.Diagnostics, diags...)
	result.Diagnostics = append(result.Diagnostics, m.Diagnostic{
		Severity: m.SeverityInfo,
		Message:  fmt.Sprintf("seed %d", seed),
	})

	spans, err := Scan(source)
	if err != nil {
		return m.PipelineResult{}, fmt.Errorf("scan: %w", err)
	}

	attempt := selected

	for retries := 0; len(attempt) > 0 && retries <= p.cfg.MaxRetries; retries++ {
		if err := ctx.Err(); err != nil {
			return m.PipelineResult{}, err
		}

		output, tctx, err := p.applyAll(attempt, spans, rng)
		if err != nil {
			return m.PipelineResult{}, err
		}

		result.Diagnostics = append(result.Diagnostics, tctx.Diagnostics()...)

		if verr := p.validator.Validate(ctx, output); verr != nil {
			drop := p.reduceIndex(attempt)
			dropped := attempt[drop]
			attempt = append(append([]m.TechniqueName{}, attempt[:drop]...), attempt[drop+1:]...)
			result.FallbackOccurred = true
			result.Diagnostics = append(result.Diagnostics, m.Diagnostic{
				Severity: m.SeverityWarning,
				Message:  fmt.Sprintf("output invalid (%v), retrying without %s", verr, dropped),
			})

			slog.Warn("validation failed, reducing technique set",
				"error", verr, "dropped", dropped, "remaining", len(attempt))

			continue
		}

		result.Output = output
		result.Applied = attempt
		result.Renames = tctx.Renames

		return result, nil
	}

	slog.Warn("all technique sets rejected, returning original")

	result.FallbackOccurred = true
	result.Applied = nil
	result.Output = source
	result.Diagnostics = append(result.Diagnostics, m.Diagnostic{
		Severity: m.SeverityError,
		Message:  "no valid output produced, original returned",
	})

	return result, nil
}

// reduceIndex picks the technique to drop after a validation failure. When
// the attempt still contains a declared conflict pair, the lower-priority
// member of that pair goes first; otherwise the last technique in
// application order. The attempt is priority-ordered, so scanning from the
// back finds the lowest-priority conflicting member.
func (p *pipeline) reduceIndex(attempt []m.TechniqueName) int {
	for i := len(attempt) - 1; i > 0; i-- {
		d, ok := p.registry.Descriptor(attempt[i])
		if !ok {
			continue
		}

		for j := 0; j < i; j++ {
			o, ok := p.registry.Descriptor(attempt[j])
			if !ok {
				continue
			}

			if d.ConflictsWith(o.Name) || o.ConflictsWith(d.Name) {
				return i
			}
		}
	}

	return len(attempt) - 1
}

// applyAll chains the passes over a fresh copy of the scan, threading one
// technique context through all of them.
func (p *pipeline) applyAll(names []m.TechniqueName, spans []m.Span, rng *rand.Rand) (string, *techniques.Context, error) {
	tctx := techniques.NewContext(p.cfg, rng)

	current := spans

	for _, name := range names {
		pass, err := passFor(name)
		if err != nil {
			return "", nil, err
		}

		next, err := pass.Apply(tctx, current)
		if err != nil {
			return "", nil, fmt.Errorf("apply %s: %w", name, err)
		}

		current = next
	}

	return m.Render(current), tctx, nil
}

// effectiveSeed resolves the run seed: the configured one, or a fresh one
// from the system entropy source when randomization is on.
func effectiveSeed(cfg m.Config) (int64, error) {
	if !cfg.RandomizeSeed {
		return cfg.Seed, nil
	}

	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("read entropy: %w", err)
	}

	seed := int64(binary.LittleEndian.Uint64(buf[:]) &^ (1 << 63))

	return seed, nil
}
