package techniques

import (
	"strings"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// HelperSet registers the decode helpers a run needs. A helper is defined
// once and shared by every occurrence that uses it, including the import
// indirector's path decoding.
type HelperSet struct {
	names   map[string]string
	defs    []string
	emitted int
}

// Ensure returns the generated name for the helper identified by key,
// allocating and registering its definition on first use.
func (h *HelperSet) Ensure(alloc *NameAllocator, key string, def func(name string) string) (string, error) {
	if name, ok := h.names[key]; ok {
		return name, nil
	}

	name, err := alloc.Fresh()
	if err != nil {
		return "", err
	}

	h.names[key] = name
	h.defs = append(h.defs, def(name))

	return name, nil
}

// emitHelpers splices any not-yet-emitted helper definitions into the module
// prologue (after the shebang, leading comments, docstring, and __future__
// imports) and claims the inserted lines so the dead-code injector skips
// those boundaries.
func emitHelpers(ctx *Context, spans []m.Span) []m.Span {
	defs := ctx.Helpers.defs[ctx.Helpers.emitted:]
	if len(defs) == 0 {
		return spans
	}

	ctx.Helpers.emitted = len(ctx.Helpers.defs)

	lines := analyzeLines(spans)
	at := prologueEnd(lines)

	ctx.shiftClaims(at, len(defs))

	for i := range defs {
		ctx.ClaimLine(at + i)
	}

	if at == 0 {
		block := m.Span{Kind: m.SpanCode, Text: strings.Join(defs, "\n") + "\n"}
		return m.Reflow(append([]m.Span{block}, spans...))
	}

	return insertAfterLines(spans, map[int][]string{at - 1: defs})
}
