package techniques

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// StringEncoder rewrites every unprotected string literal into a
// value-equivalent reconstruction expression using the configured strategy.
// Protected spans (f-strings, triple-quoted strings) are never touched.
type StringEncoder struct{}

// NewStringEncoder returns the literal-encoding pass.
func NewStringEncoder() *StringEncoder { return &StringEncoder{} }

// Name implements Pass.
func (*StringEncoder) Name() m.TechniqueName { return m.TechniqueStringEncoding }

// Apply implements Pass. Adjacent implicitly-concatenated literals are
// encoded as one combined value, since replacing each with an expression
// would break the implicit concatenation syntax.
func (*StringEncoder) Apply(ctx *Context, spans []m.Span) ([]m.Span, error) {
	depths := spanDepths(spans)

	out := make([]m.Span, 0, len(spans))

	for i := 0; i < len(spans); i++ {
		s := spans[i]

		if !isLiteralKind(s.Kind) {
			out = append(out, s)
			continue
		}

		group := literalGroup(spans, depths, i)

		replacement, ok, err := encodeGroup(ctx, spans, group)
		if err != nil {
			return nil, err
		}

		if !ok {
			out = append(out, spans[group[0]:group[len(group)-1]+1]...)
			i = group[len(group)-1]

			continue
		}

		out = append(out, replacement...)
		i = group[len(group)-1]
	}

	return m.Reflow(emitHelpers(ctx, out)), nil
}

func isLiteralKind(k m.SpanKind) bool {
	return k == m.SpanStringLiteral || k == m.SpanInterpolatedLiteral
}

// spanDepths returns the bracket depth at the start of each span, counting
// brackets in Code spans only.
func spanDepths(spans []m.Span) []int {
	depths := make([]int, len(spans))
	depth := 0

	for i, s := range spans {
		depths[i] = depth

		if s.Kind != m.SpanCode {
			continue
		}

		for j := 0; j < len(s.Text); j++ {
			switch s.Text[j] {
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				if depth > 0 {
					depth--
				}
			}
		}
	}

	return depths
}

// literalGroup returns the contiguous indexes [first, sep, lit, sep, lit...]
// of an implicit-concatenation group starting at the literal span at index i.
func literalGroup(spans []m.Span, depths []int, i int) []int {
	group := []int{i}

	for j := i + 1; j+1 < len(spans); j += 2 {
		sep, next := spans[j], spans[j+1]
		if !isLiteralKind(next.Kind) || !isConcatSeparator(sep, depths[j]) {
			break
		}

		group = append(group, j, j+1)
	}

	return group
}

// isConcatSeparator reports whether the code span between two literals keeps
// them one expression: whitespace on the same line, or whitespace spanning
// lines inside brackets or behind a backslash continuation.
func isConcatSeparator(sep m.Span, depth int) bool {
	if sep.Kind != m.SpanCode {
		return false
	}

	if strings.Trim(sep.Text, " \t\r\n\\") != "" {
		return false
	}

	if !strings.Contains(sep.Text, "\n") {
		return true
	}

	return depth > 0 || strings.Contains(sep.Text, "\\")
}

// encodeGroup builds the replacement spans for one literal group. It returns
// ok=false when any member must be preserved (protected, interpolated, or
// undecodable), in which case the whole group is left as-is.
func encodeGroup(ctx *Context, spans []m.Span, group []int) ([]m.Span, bool, error) {
	var (
		strVal   strings.Builder
		bytesVal []byte
		sawStr   bool
		sawBytes bool
	)

	for gi, idx := range group {
		if gi%2 == 1 { // separator
			continue
		}

		s := spans[idx]
		if s.Protected || s.Kind != m.SpanStringLiteral {
			return nil, false, nil
		}

		lv, err := decodeLiteral(s.Text)
		if err != nil {
			ctx.Infof("literal left unencoded: %v", err)
			return nil, false, nil
		}

		if lv.isBytes {
			sawBytes = true
			bytesVal = append(bytesVal, lv.data...)
		} else {
			sawStr = true
			strVal.WriteString(lv.str)
		}
	}

	if sawStr && sawBytes {
		// str+bytes concatenation would already be a TypeError; leave it.
		return nil, false, nil
	}

	value := literalValue{str: strVal.String(), data: bytesVal, isBytes: sawBytes}

	expr, err := encodeValueSpans(ctx, value)
	if err != nil {
		return nil, false, err
	}

	return expr, true, nil
}

// encodeValueSpans renders the reconstruction expression for one decoded
// value, always parenthesized so it binds like a literal atom. Encoded
// payloads are emitted as protected literal spans so later passes treat them
// as opaque.
func encodeValueSpans(ctx *Context, lv literalValue) ([]m.Span, error) {
	code := func(text string) m.Span {
		return m.Span{Kind: m.SpanCode, Text: text}
	}
	payload := func(text string) m.Span {
		return m.Span{Kind: m.SpanStringLiteral, Text: "'" + text + "'", Protected: true}
	}

	switch ctx.Config.StringEncoding {
	case m.EncodingHex:
		if lv.isBytes {
			return []m.Span{code("(bytes.fromhex("), payload(hex.EncodeToString(lv.data)), code("))")}, nil
		}

		h := hex.EncodeToString([]byte(lv.str))

		return []m.Span{code("(bytes.fromhex("), payload(h), code(").decode('utf-8'))")}, nil

	case m.EncodingBase64:
		helper, err := ctx.Helpers.Ensure(ctx.Alloc, "b64decode", func(name string) string {
			return name + " = __import__('base64').b64decode"
		})
		if err != nil {
			return nil, err
		}

		if lv.isBytes {
			enc := base64.StdEncoding.EncodeToString(lv.data)
			return []m.Span{code("(" + helper + "("), payload(enc), code("))")}, nil
		}

		enc := base64.StdEncoding.EncodeToString([]byte(lv.str))

		return []m.Span{code("(" + helper + "("), payload(enc), code(").decode('utf-8'))")}, nil

	default: // charcode
		if lv.isBytes {
			return []m.Span{code(fmt.Sprintf("(bytes([%s]))", joinCodes(bytesToInts(lv.data))))}, nil
		}

		return []m.Span{code(fmt.Sprintf("(''.join(chr(c) for c in [%s]))", joinCodes(runesToInts(lv.str))))}, nil
	}
}

// EncodeStringExpr renders the reconstruction expression for a plain string
// value as flat code text. The import indirector uses it to encode module
// paths with the run's configured strategy and shared helper.
func EncodeStringExpr(ctx *Context, value string) (string, error) {
	expr, err := encodeValueSpans(ctx, literalValue{str: value})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, s := range expr {
		b.WriteString(s.Text)
	}

	return b.String(), nil
}

func runesToInts(s string) []int {
	var out []int
	for _, r := range s {
		out = append(out, int(r))
	}

	return out
}

func bytesToInts(b []byte) []int {
	out := make([]int, len(b))
	for i, c := range b {
		out[i] = int(c)
	}

	return out
}

func joinCodes(codes []int) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = fmt.Sprintf("%d", c)
	}

	return strings.Join(parts, ", ")
}
