// Package domain contains the core obfuscation pipeline: the lexical scanner,
// the technique composer with its validity gate, and the file workflow.
package domain

import (
	"fmt"
	"strings"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// ScanError reports a malformed or unterminated literal. It is fatal for the
// run: no partial span sequence is ever produced.
type ScanError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Scan splits Python source into a gap-free, non-overlapping, ordered span
// sequence covering every input byte.
//
// Interpolated literals (f-strings) are emitted as one opaque protected span
// covering their full extent including interior expression slots; the scanner
// never descends into interpolation internals. Triple-quoted strings are also
// protected, so docstrings survive every technique untouched.
func Scan(src string) ([]m.Span, error) {
	var spans []m.Span

	codeStart := 0

	flushCode := func(end int) {
		if end > codeStart {
			spans = append(spans, m.Span{
				Kind:  m.SpanCode,
				Start: codeStart,
				End:   end,
				Text:  src[codeStart:end],
			})
		}
	}

	i := 0
	for i < len(src) {
		c := src[i]

		switch {
		case c == '#':
			flushCode(i)

			end := i
			for end < len(src) && src[end] != '\n' {
				end++
			}

			spans = append(spans, m.Span{Kind: m.SpanComment, Start: i, End: end, Text: src[i:end]})
			codeStart = end
			i = end

		case c == '\'' || c == '"':
			start, flags := stringPrefix(src, i, codeStart)
			flushCode(start)

			end, err := scanStringBody(src, i)
			if err != nil {
				return nil, err
			}

			kind := m.SpanStringLiteral
			protected := flags.triple

			if flags.interpolated {
				kind = m.SpanInterpolatedLiteral
				protected = true
			}

			spans = append(spans, m.Span{
				Kind:      kind,
				Start:     start,
				End:       end,
				Text:      src[start:end],
				Protected: protected,
			})
			codeStart = end
			i = end

		case isDigit(c) && !prevIsIdent(src, i),
			c == '.' && i+1 < len(src) && isDigit(src[i+1]) && !prevIsIdent(src, i):
			flushCode(i)

			end := scanNumber(src, i)
			spans = append(spans, m.Span{
				Kind:  m.SpanNumericLiteral,
				Start: i,
				End:   end,
				Text:  src[i:end],
			})
			codeStart = end
			i = end

		default:
			i++
		}
	}

	flushCode(len(src))

	return spans, nil
}

type prefixFlags struct {
	interpolated bool
	raw          bool
	bytes        bool
	triple       bool
}

// stringPrefix walks back over literal prefix letters (r, b, u, f in any case,
// at most two) preceding the quote at pos. It returns the true span start and
// the decoded flags. Letters glued to a longer identifier are left in the code
// span.
func stringPrefix(src string, pos, lowBound int) (int, prefixFlags) {
	start := pos

	for start > lowBound && pos-start < 2 && isPrefixLetter(src[start-1]) {
		start--
	}

	if start > 0 && isIdentChar(src[start-1]) {
		return pos, prefixFlags{triple: isTriple(src, pos)}
	}

	var f prefixFlags
	for _, r := range src[start:pos] {
		switch r {
		case 'f', 'F':
			f.interpolated = true
		case 'r', 'R':
			f.raw = true
		case 'b', 'B':
			f.bytes = true
		}
	}

	f.triple = isTriple(src, pos)

	return start, f
}

func isTriple(src string, pos int) bool {
	return pos+2 < len(src) && src[pos] == src[pos+1] && src[pos] == src[pos+2]
}

// scanStringBody consumes a quoted literal starting at the opening quote and
// returns the offset just past the closing quote. A backslash always shields
// the following byte from terminating the literal; that matches Python
// tokenization even for raw strings.
func scanStringBody(src string, pos int) (int, error) {
	quote := src[pos]
	triple := isTriple(src, pos)

	i := pos + 1
	if triple {
		i = pos + 3
	}

	for i < len(src) {
		switch {
		case src[i] == '\\' && i+1 < len(src):
			i += 2
		case src[i] == quote && !triple:
			return i + 1, nil
		case src[i] == quote && triple && isTriple(src, i):
			return i + 3, nil
		case src[i] == '\n' && !triple:
			line, col := lineCol(src, pos)
			return 0, &ScanError{Line: line, Col: col, Msg: "unterminated string literal"}
		default:
			i++
		}
	}

	line, col := lineCol(src, pos)

	msg := "unterminated string literal at end of input"
	if triple {
		msg = "unterminated triple-quoted string at end of input"
	}

	return 0, &ScanError{Line: line, Col: col, Msg: msg}
}

// scanNumber consumes an integer, float, hex/octal/binary, or imaginary
// literal starting at pos.
func scanNumber(src string, pos int) int {
	i := pos

	if src[i] == '0' && i+1 < len(src) && strings.ContainsRune("xXoObB", rune(src[i+1])) {
		i += 2
		for i < len(src) && (isHexDigit(src[i]) || src[i] == '_') {
			i++
		}

		return i
	}

	for i < len(src) && (isDigit(src[i]) || src[i] == '_') {
		i++
	}

	// Fractional part. The dot is consumed only when it cannot be an
	// attribute access (e.g. `1 .real` keeps the dot in code).
	if i < len(src) && src[i] == '.' && !(i+1 < len(src) && (isIdentChar(src[i+1]) && !isDigit(src[i+1]) || src[i+1] == '.')) {
		i++
		for i < len(src) && (isDigit(src[i]) || src[i] == '_') {
			i++
		}
	}

	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}

		if j < len(src) && isDigit(src[j]) {
			i = j
			for i < len(src) && isDigit(src[i]) {
				i++
			}
		}
	}

	if i < len(src) && (src[i] == 'j' || src[i] == 'J') {
		i++
	}

	return i
}

func lineCol(src string, pos int) (int, int) {
	line := 1
	col := 1

	for i := 0; i < pos && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	return line, col
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentChar(c byte) bool {
	return isDigit(c) || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isPrefixLetter(c byte) bool {
	switch c {
	case 'r', 'R', 'b', 'B', 'u', 'U', 'f', 'F':
		return true
	}

	return false
}

func prevIsIdent(src string, pos int) bool {
	return pos > 0 && isIdentChar(src[pos-1])
}
