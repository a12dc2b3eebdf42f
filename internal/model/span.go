// Package model defines the data structures for the obfuscation pipeline.
package model

import "strings"

// SpanKind classifies a slice of source text produced by the scanner.
type SpanKind int

const (
	// SpanCode is executable source text outside any literal or comment.
	SpanCode SpanKind = iota
	// SpanStringLiteral is a quoted string literal, including its quotes and prefix.
	SpanStringLiteral
	// SpanInterpolatedLiteral is an f-string, covering its full extent including
	// interior expression slots. Always protected.
	SpanInterpolatedLiteral
	// SpanNumericLiteral is a numeric literal token.
	SpanNumericLiteral
	// SpanComment is a # comment running to end of line (newline excluded).
	SpanComment
)

func (k SpanKind) String() string {
	switch k {
	case SpanCode:
		return "code"
	case SpanStringLiteral:
		return "string"
	case SpanInterpolatedLiteral:
		return "interpolated"
	case SpanNumericLiteral:
		return "number"
	case SpanComment:
		return "comment"
	}

	return "unknown"
}

// Span is a classified, boundary-exact slice of source text. A scan produces a
// gap-free, non-overlapping, ordered sequence of spans covering every input
// byte. Spans are never mutated in place: each pipeline pass consumes a span
// sequence and produces a new one, so a retry can restart from the same scan.
type Span struct {
	Kind      SpanKind
	Start     int
	End       int
	Text      string
	Protected bool
}

// Reflow recomputes Start/End offsets after a pass has replaced span texts.
// It returns the same slice for convenience.
func Reflow(spans []Span) []Span {
	off := 0
	for i := range spans {
		spans[i].Start = off
		off += len(spans[i].Text)
		spans[i].End = off
	}

	return spans
}

// Render concatenates a span sequence back into source text.
func Render(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}

	return b.String()
}
