package techniques

import (
	"fmt"
	"strings"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// DeadCodeInjector inserts inert statements at statement boundaries with the
// configured density. It runs after every other pass and consults the claimed
// line set, so it never splits a boundary another technique owns (decode
// helper definitions in particular).
type DeadCodeInjector struct{}

// NewDeadCodeInjector returns the dead-code pass.
func NewDeadCodeInjector() *DeadCodeInjector { return &DeadCodeInjector{} }

// Name implements Pass.
func (*DeadCodeInjector) Name() m.TechniqueName { return m.TechniqueDeadCode }

// Apply implements Pass.
func (d *DeadCodeInjector) Apply(ctx *Context, spans []m.Span) ([]m.Span, error) {
	reserveSourceIdents(ctx, maskedText(spans))

	lines := analyzeLines(spans)
	ins := make(map[int][]string)
	inserted := 0

	for i := range lines {
		if !boundaryEligible(ctx, lines, i) {
			continue
		}

		if ctx.Rand.Float64() >= ctx.Config.DeadCodeDensity {
			continue
		}

		stmts, err := d.statements(ctx, boundaryIndent(lines, i))
		if err != nil {
			return nil, err
		}

		ins[i] = stmts

		for j := range stmts {
			ctx.ClaimLine(i + 1 + inserted + j)
		}

		inserted += len(stmts)
	}

	if len(ins) == 0 {
		return m.Reflow(append([]m.Span(nil), spans...)), nil
	}

	return insertAfterLines(spans, ins), nil
}

// boundaryEligible reports whether a dead statement may go right after line i.
// The boundary must sit at bracket depth zero in plain code, must not be
// claimed by another technique, and must not separate a construct from its
// continuation (decorators, else/elif/except/finally/case headers).
func boundaryEligible(ctx *Context, lines []lineInfo, i int) bool {
	ln := lines[i]

	if !ln.nlInCode || ln.depthEnd != 0 {
		return false
	}

	trimmed := strings.TrimSpace(ln.text)
	if trimmed == "" || strings.HasSuffix(trimmed, "\\") || strings.HasPrefix(trimmed, "@") {
		return false
	}

	if ctx.Claimed(i) || ctx.Claimed(i+1) {
		return false
	}

	if i+1 >= len(lines) {
		// End of file: only safe when the last line is a top-level statement,
		// otherwise the appended statement would extend an inner block.
		return lineIndent(ln.text) == "" && !strings.HasSuffix(trimmed, ":")
	}

	next := lines[i+1]
	if !next.startsInCode {
		return false
	}

	nextTrimmed := strings.TrimSpace(next.text)
	if nextTrimmed == "" {
		return false
	}

	switch firstWord(nextTrimmed) {
	case "else", "elif", "except", "finally", "case":
		return false
	}

	return true
}

// boundaryIndent picks the indentation of the inserted statement: the next
// line's indent, so block openers get their body's depth and everything else
// stays at statement depth.
func boundaryIndent(lines []lineInfo, i int) string {
	if i+1 < len(lines) && strings.TrimSpace(lines[i+1].text) != "" {
		return lineIndent(lines[i+1].text)
	}

	return lineIndent(lines[i].text)
}

// statements renders one inert insertion, one of four forms chosen per
// boundary.
func (*DeadCodeInjector) statements(ctx *Context, indent string) ([]string, error) {
	freshName := func() (string, error) { return ctx.Alloc.Fresh() }

	switch ctx.Rand.Intn(4) {
	case 0:
		name, err := freshName()
		if err != nil {
			return nil, err
		}

		return []string{fmt.Sprintf("%s%s = %d", indent, name, ctx.Rand.Intn(10000))}, nil
	case 1:
		name, err := freshName()
		if err != nil {
			return nil, err
		}

		return []string{fmt.Sprintf("%s%s = lambda: None", indent, name)}, nil
	case 2:
		return []string{
			indent + "if False:",
			indent + "    pass",
		}, nil
	default:
		name, err := freshName()
		if err != nil {
			return nil, err
		}

		return []string{fmt.Sprintf("%sdef %s(): pass", indent, name)}, nil
	}
}

func firstWord(s string) string {
	for i := 0; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return s[:i]
		}
	}

	return s
}
