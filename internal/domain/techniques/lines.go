package techniques

import (
	"strings"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// lineInfo is the per-line view of a span sequence used by passes that insert
// or rewrite whole statements.
type lineInfo struct {
	// text is the raw line without its trailing newline.
	text string
	// depthStart and depthEnd are the bracket depths at the line boundaries,
	// counting brackets in Code spans only.
	depthStart int
	depthEnd   int
	// nlInCode is true when the terminating newline (or EOF) lies in a Code
	// span, i.e. the boundary after this line is not inside a literal.
	nlInCode bool
	// pureCode is true when every non-space byte of the line lies in a Code
	// or Comment span.
	pureCode bool
	// litOnly is true when the line's non-space bytes all lie in string
	// literal spans (a docstring line).
	litOnly bool
	// startsInCode is true when the first byte of the line lies in a Code
	// span (or the line is empty).
	startsInCode bool
}

// analyzeLines walks a span sequence once and builds the per-line view.
func analyzeLines(spans []m.Span) []lineInfo {
	var lines []lineInfo

	depth := 0
	cur := lineInfo{depthStart: 0, pureCode: true, litOnly: true, startsInCode: true, nlInCode: true}

	var buf strings.Builder

	atLineStart := true

	flush := func(nlCode bool) {
		cur.text = buf.String()
		buf.Reset()

		cur.depthEnd = depth
		cur.nlInCode = nlCode
		lines = append(lines, cur)
		cur = lineInfo{depthStart: depth, pureCode: true, litOnly: true, startsInCode: true, nlInCode: true}
		atLineStart = true
	}

	for _, s := range spans {
		isCode := s.Kind == m.SpanCode
		isLit := s.Kind == m.SpanStringLiteral || s.Kind == m.SpanInterpolatedLiteral

		for i := 0; i < len(s.Text); i++ {
			c := s.Text[i]

			if atLineStart {
				cur.startsInCode = isCode
				atLineStart = false
			}

			if c == '\n' {
				flush(isCode)
				continue
			}

			buf.WriteByte(c)

			if c == ' ' || c == '\t' || c == '\r' {
				continue
			}

			if !isCode && s.Kind != m.SpanComment {
				cur.pureCode = false
			}

			if !isLit {
				cur.litOnly = false
			}

			if isCode {
				switch c {
				case '(', '[', '{':
					depth++
				case ')', ']', '}':
					if depth > 0 {
						depth--
					}
				}
			}
		}
	}

	if buf.Len() > 0 || atLineStart && len(lines) == 0 {
		flush(true)
	}

	return lines
}

// insertAfterLines splices the given statements (keyed by line index) into the
// sequence right after that line's newline. Callers only target lines whose
// terminating newline lies in a Code span, so at most Code spans are split.
func insertAfterLines(spans []m.Span, ins map[int][]string) []m.Span {
	if len(ins) == 0 {
		return spans
	}

	out := make([]m.Span, 0, len(spans)+len(ins))
	line := 0
	lastLineHasNL := false

	for _, s := range spans {
		if s.Kind != m.SpanCode || !strings.Contains(s.Text, "\n") {
			line += strings.Count(s.Text, "\n")
			out = append(out, s)

			if len(s.Text) > 0 {
				lastLineHasNL = strings.HasSuffix(s.Text, "\n")
			}

			continue
		}

		text := s.Text
		segStart := 0

		for idx := 0; idx < len(text); idx++ {
			if text[idx] != '\n' {
				continue
			}

			if stmts, ok := ins[line]; ok {
				out = append(out, m.Span{Kind: m.SpanCode, Text: text[segStart : idx+1]})
				out = append(out, m.Span{Kind: m.SpanCode, Text: strings.Join(stmts, "\n") + "\n"})
				segStart = idx + 1
			}

			line++
		}

		if segStart < len(text) {
			out = append(out, m.Span{Kind: m.SpanCode, Text: text[segStart:]})
		}

		lastLineHasNL = strings.HasSuffix(text, "\n")
	}

	// Boundary after a final line with no trailing newline.
	if stmts, ok := ins[line]; ok && !lastLineHasNL {
		out = append(out, m.Span{Kind: m.SpanCode, Text: "\n" + strings.Join(stmts, "\n")})
	}

	return m.Reflow(out)
}

// prologueEnd returns the index of the first line that is neither blank, a
// comment, part of the module docstring, nor a __future__ import. Decode
// helpers are inserted there.
func prologueEnd(lines []lineInfo) int {
	for i, ln := range lines {
		trimmed := strings.TrimSpace(ln.text)

		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "#"):
		case strings.HasPrefix(trimmed, "from __future__ import"):
		case ln.litOnly:
		default:
			return i
		}
	}

	return len(lines)
}

func lineIndent(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] != ' ' && text[i] != '\t' {
			return text[:i]
		}
	}

	return text
}
