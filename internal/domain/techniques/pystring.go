package techniques

import (
	"fmt"
	"strconv"
	"strings"
)

// literalValue is the decoded value of one Python string literal.
type literalValue struct {
	// str holds the text value for str literals (escapes resolved to runes).
	str string
	// data holds the byte value for bytes literals.
	data []byte
	// isBytes distinguishes the two.
	isBytes bool
}

// decodeLiteral parses a Python string literal token (prefix, quotes, body)
// into its runtime value. It fails on constructs whose value cannot be
// reproduced exactly (\N{...} named escapes), in which case the literal is
// left untouched by the encoder.
func decodeLiteral(token string) (literalValue, error) {
	i := 0

	var raw, isBytes bool

	for i < len(token) && isPrefixByte(token[i]) {
		switch token[i] {
		case 'r', 'R':
			raw = true
		case 'b', 'B':
			isBytes = true
		}
		i++
	}

	if i >= len(token) || (token[i] != '\'' && token[i] != '"') {
		return literalValue{}, fmt.Errorf("not a string literal: %q", token)
	}

	quote := token[i]
	qlen := 1

	if strings.HasPrefix(token[i:], strings.Repeat(string(quote), 3)) {
		qlen = 3
	}

	body := token[i+qlen : len(token)-qlen]

	if raw {
		if isBytes {
			return literalValue{data: []byte(body), isBytes: true}, nil
		}

		return literalValue{str: body}, nil
	}

	if isBytes {
		data, err := unescapeBytes(body)
		return literalValue{data: data, isBytes: true}, err
	}

	str, err := unescapeStr(body)

	return literalValue{str: str}, err
}

func isPrefixByte(c byte) bool {
	switch c {
	case 'r', 'R', 'b', 'B', 'u', 'U', 'f', 'F':
		return true
	}

	return false
}

// unescapeStr resolves Python escape sequences into runes. \xhh maps to the
// code point hh, not the byte, matching str semantics.
func unescapeStr(body string) (string, error) {
	var b strings.Builder

	for i := 0; i < len(body); i++ {
		if body[i] != '\\' || i+1 >= len(body) {
			b.WriteByte(body[i])
			continue
		}

		i++

		switch body[i] {
		case '\n': // line continuation: contributes nothing
		case '\\':
			b.WriteByte('\\')
		case '\'':
			b.WriteByte('\'')
		case '"':
			b.WriteByte('"')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case 'x':
			r, n, err := hexEscape(body[i+1:], 2)
			if err != nil {
				return "", err
			}

			b.WriteRune(rune(r))
			i += n
		case 'u':
			r, n, err := hexEscape(body[i+1:], 4)
			if err != nil {
				return "", err
			}

			b.WriteRune(rune(r))
			i += n
		case 'U':
			r, n, err := hexEscape(body[i+1:], 8)
			if err != nil {
				return "", err
			}

			b.WriteRune(rune(r))
			i += n
		case 'N':
			return "", fmt.Errorf("named escape \\N{...} is not supported")
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v, n := octalEscape(body[i:])
			b.WriteRune(rune(v))
			i += n - 1
		default:
			// Unknown escape: Python keeps the backslash.
			b.WriteByte('\\')
			b.WriteByte(body[i])
		}
	}

	return b.String(), nil
}

// unescapeBytes resolves escapes with bytes semantics: \xhh is the byte hh,
// \u and \U are not escapes at all.
func unescapeBytes(body string) ([]byte, error) {
	var b []byte

	for i := 0; i < len(body); i++ {
		if body[i] != '\\' || i+1 >= len(body) {
			b = append(b, body[i])
			continue
		}

		i++

		switch body[i] {
		case '\n':
		case '\\':
			b = append(b, '\\')
		case '\'':
			b = append(b, '\'')
		case '"':
			b = append(b, '"')
		case 'n':
			b = append(b, '\n')
		case 't':
			b = append(b, '\t')
		case 'r':
			b = append(b, '\r')
		case 'a':
			b = append(b, '\a')
		case 'b':
			b = append(b, '\b')
		case 'f':
			b = append(b, '\f')
		case 'v':
			b = append(b, '\v')
		case 'x':
			v, n, err := hexEscape(body[i+1:], 2)
			if err != nil {
				return nil, err
			}

			b = append(b, byte(v))
			i += n
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v, n := octalEscape(body[i:])
			b = append(b, byte(v))
			i += n - 1
		default:
			b = append(b, '\\', body[i])
		}
	}

	return b, nil
}

func hexEscape(s string, width int) (int, int, error) {
	if len(s) < width {
		return 0, 0, fmt.Errorf("truncated hex escape")
	}

	v, err := strconv.ParseInt(s[:width], 16, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad hex escape %q: %w", s[:width], err)
	}

	return int(v), width, nil
}

func octalEscape(s string) (int, int) {
	v := 0
	n := 0

	for n < 3 && n < len(s) && s[n] >= '0' && s[n] <= '7' {
		v = v*8 + int(s[n]-'0')
		n++
	}

	return v, n
}
