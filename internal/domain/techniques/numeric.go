package techniques

import (
	"fmt"
	"strconv"
	"strings"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// NumericObfuscator replaces small decimal integer literals with
// value-equivalent arithmetic expressions. Floats, complex numbers, and
// non-decimal bases are left alone: their textual forms carry semantics
// (precision, base) that a rewrite could disturb.
type NumericObfuscator struct{}

// NewNumericObfuscator returns the numeric-substitution pass.
func NewNumericObfuscator() *NumericObfuscator { return &NumericObfuscator{} }

// Name implements Pass.
func (*NumericObfuscator) Name() m.TechniqueName { return m.TechniqueNumericObfuscation }

const maxSubstitutedInt = 100

// Apply implements Pass.
func (*NumericObfuscator) Apply(ctx *Context, spans []m.Span) ([]m.Span, error) {
	out := make([]m.Span, len(spans))
	copy(out, spans)

	for i, s := range spans {
		if s.Kind != m.SpanNumericLiteral || s.Protected {
			continue
		}

		// `1 .real` style attribute access: the replacement would turn the
		// dot into a float point. Leave the literal.
		if i+1 < len(spans) && strings.HasPrefix(strings.TrimLeft(spans[i+1].Text, " \t"), ".") {
			continue
		}

		v, ok := plainDecimalInt(s.Text)
		if !ok || v >= maxSubstitutedInt {
			continue
		}

		out[i] = m.Span{Kind: m.SpanCode, Text: rewriteInt(ctx, v)}
	}

	return m.Reflow(out), nil
}

// plainDecimalInt parses a decimal integer literal, rejecting every token
// whose value or type the rewrite could not reproduce exactly.
func plainDecimalInt(token string) (int64, bool) {
	if token == "" {
		return 0, false
	}

	for i := 0; i < len(token); i++ {
		c := token[i]
		if (c < '0' || c > '9') && c != '_' {
			return 0, false
		}
	}

	v, err := strconv.ParseInt(strings.ReplaceAll(token, "_", ""), 10, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

// rewriteInt renders one of three equivalent forms, chosen per occurrence.
func rewriteInt(ctx *Context, v int64) string {
	switch ctx.Rand.Intn(3) {
	case 0:
		a := int64(0)
		if v > 0 {
			a = int64(ctx.Rand.Intn(int(v) + 1))
		}

		return fmt.Sprintf("(%d + %d)", a, v-a)
	case 1:
		k := int64(ctx.Rand.Intn(50) + 1)
		return fmt.Sprintf("(%d - %d)", v+k, k)
	default:
		return fmt.Sprintf("(int('%d'))", v)
	}
}
