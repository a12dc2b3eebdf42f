// Package techniques implements the individual source-rewriting passes that
// the pipeline composes: literal encoding, numeric substitution, identifier
// renaming, dead-code insertion, and import indirection.
package techniques

import (
	"fmt"
	"math/rand"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// Pass is one technique applied to a span sequence. Apply consumes its input
// sequence and returns a new one; it never mutates the input, so the composer
// can retry with a different technique subset from the same scan.
type Pass interface {
	Name() m.TechniqueName
	Apply(ctx *Context, spans []m.Span) ([]m.Span, error)
}

// Context carries the per-run state shared across passes: the RNG, the name
// allocator, the decode-helper registry, and the insertion set the dead-code
// injector consults to avoid colliding with encoder insertions. One Context
// per pipeline run; never shared across runs.
type Context struct {
	Config  m.Config
	Rand    *rand.Rand
	Alloc   *NameAllocator
	Helpers *HelperSet

	// Renames is filled by the identifier renamer for reporting.
	Renames m.RenameMap

	claimed map[int]struct{}
	diags   []m.Diagnostic
}

// NewContext builds the shared state for one pipeline run.
func NewContext(cfg m.Config, rng *rand.Rand) *Context {
	ctx := &Context{
		Config:  cfg,
		Rand:    rng,
		claimed: make(map[int]struct{}),
	}
	ctx.Alloc = NewNameAllocator(cfg, rng)
	ctx.Helpers = &HelperSet{names: make(map[string]string)}

	return ctx
}

// ClaimLine marks an output line index as owned by an inserting technique.
func (c *Context) ClaimLine(line int) {
	c.claimed[line] = struct{}{}
}

// Claimed reports whether the boundary after the given line is already owned.
func (c *Context) Claimed(line int) bool {
	_, ok := c.claimed[line]
	return ok
}

// shiftClaims moves claimed line indexes at or beyond from down the file by n,
// keeping claims accurate after a prologue insertion.
func (c *Context) shiftClaims(from, n int) {
	shifted := make(map[int]struct{}, len(c.claimed))

	for line := range c.claimed {
		if line >= from {
			line += n
		}

		shifted[line] = struct{}{}
	}

	c.claimed = shifted
}

// Infof records an informational diagnostic.
func (c *Context) Infof(format string, args ...any) {
	c.diags = append(c.diags, m.Diagnostic{Severity: m.SeverityInfo, Message: fmt.Sprintf(format, args...)})
}

// Warnf records a warning diagnostic.
func (c *Context) Warnf(format string, args ...any) {
	c.diags = append(c.diags, m.Diagnostic{Severity: m.SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

// Diagnostics returns everything recorded so far.
func (c *Context) Diagnostics() []m.Diagnostic {
	return c.diags
}
