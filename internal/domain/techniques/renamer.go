package techniques

import (
	"regexp"
	"sort"
	"strings"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// IdentifierRenamer rewrites user-declared names to generated ones. It only
// rewrites Code spans: names inside string literals may be data, so they are
// never touched even when they match a declaration.
type IdentifierRenamer struct{}

// NewIdentifierRenamer returns the renaming pass.
func NewIdentifierRenamer() *IdentifierRenamer { return &IdentifierRenamer{} }

// Name implements Pass.
func (*IdentifierRenamer) Name() m.TechniqueName { return m.TechniqueIdentifierRenaming }

var (
	defRe    = regexp.MustCompile(`\bdef\s+([A-Za-z_]\w*)`)
	classRe  = regexp.MustCompile(`\bclass\s+([A-Za-z_]\w*)`)
	assignRe = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z_]\w*)\s*(?::[^=\n]*)?=(?:[^=]|$)`)
	forRe    = regexp.MustCompile(`\bfor\s+([A-Za-z_]\w*(?:\s*,\s*[A-Za-z_]\w*)*)\s+in\b`)
	asRe     = regexp.MustCompile(`\bas\s+([A-Za-z_]\w*)`)
	lambdaRe = regexp.MustCompile(`\blambda\b([^:\n]*):`)
	identRe  = regexp.MustCompile(`[A-Za-z_]\w*`)
)

// Apply implements Pass. Declarations are collected from a masked view of the
// source where literals and comments are blanked, then every free-standing
// occurrence is rewritten. Attribute accesses, keyword arguments, and import
// statements are skipped; function parameters are deliberately never renamed,
// since call sites may pass them by keyword.
func (*IdentifierRenamer) Apply(ctx *Context, spans []m.Span) ([]m.Span, error) {
	masked := maskedText(spans)
	importLines := importLineSet(masked)

	reserveSourceIdents(ctx, masked)

	renames, err := collectDeclarations(ctx, masked, importLines)
	if err != nil {
		return nil, err
	}

	ctx.Renames = renames

	if len(renames) == 0 {
		return m.Reflow(append([]m.Span(nil), spans...)), nil
	}

	out := make([]m.Span, len(spans))
	copy(out, spans)

	line := 0
	depth := 0

	for i, s := range spans {
		if s.Kind == m.SpanCode {
			out[i].Text = rewriteIdents(s.Text, renames, importLines, &line, &depth)
		} else {
			line += strings.Count(s.Text, "\n")
		}
	}

	return m.Reflow(out), nil
}

// reserveSourceIdents marks every identifier already present in the file as
// off-limits for generated names. A generated binding that collided with a
// later usage would silently change behavior.
func reserveSourceIdents(ctx *Context, masked string) {
	for _, tok := range identRe.FindAllString(masked, -1) {
		ctx.Alloc.Reserve(tok)
	}
}

// maskedText renders the span sequence with literals, comments, and quoted
// payload text inside Code spans blanked to spaces. Offsets and line
// structure are preserved, so regexes over it index real source positions.
func maskedText(spans []m.Span) string {
	var b strings.Builder

	for _, s := range spans {
		if s.Kind == m.SpanCode {
			b.WriteString(maskQuoted(s.Text))
			continue
		}

		for i := 0; i < len(s.Text); i++ {
			if s.Text[i] == '\n' {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
	}

	return b.String()
}

// maskQuoted blanks single-quoted and double-quoted segments inside a Code
// span. Scanning put real literals in their own spans; quoted text inside a
// Code span only comes from expressions emitted by earlier passes.
func maskQuoted(text string) string {
	out := []byte(text)

	for i := 0; i < len(out); i++ {
		q := out[i]
		if q != '\'' && q != '"' {
			continue
		}

		out[i] = ' '
		for i++; i < len(out) && out[i] != q; i++ {
			if out[i] != '\n' {
				out[i] = ' '
			}
		}

		if i < len(out) {
			out[i] = ' '
		}
	}

	return string(out)
}

// importLineSet returns the zero-based indexes of import statements. Module
// paths are real dotted names; renaming any part of them breaks resolution,
// so collection and rewriting both skip these lines entirely.
func importLineSet(masked string) map[int]struct{} {
	set := make(map[int]struct{})

	for i, ln := range strings.Split(masked, "\n") {
		trimmed := strings.TrimSpace(ln)
		if strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "from ") {
			set[i] = struct{}{}
		}
	}

	return set
}

type declaration struct {
	offset int
	name   string
}

// collectDeclarations finds every renameable binding in first-appearance
// order and allocates its replacement. Allocation failure is fatal: a partial
// rename map would leave the file half-rewritten.
func collectDeclarations(ctx *Context, masked string, importLines map[int]struct{}) (m.RenameMap, error) {
	var decls []declaration

	add := func(offset int, name string) {
		decls = append(decls, declaration{offset: offset, name: name})
	}

	for _, idx := range defRe.FindAllStringSubmatchIndex(masked, -1) {
		add(idx[2], masked[idx[2]:idx[3]])
	}

	for _, idx := range classRe.FindAllStringSubmatchIndex(masked, -1) {
		add(idx[2], masked[idx[2]:idx[3]])
	}

	for _, idx := range assignRe.FindAllStringSubmatchIndex(masked, -1) {
		add(idx[2], masked[idx[2]:idx[3]])
	}

	for _, idx := range asRe.FindAllStringSubmatchIndex(masked, -1) {
		add(idx[2], masked[idx[2]:idx[3]])
	}

	for _, idx := range forRe.FindAllStringSubmatchIndex(masked, -1) {
		for _, name := range identRe.FindAllString(masked[idx[2]:idx[3]], -1) {
			add(idx[2], name)
		}
	}

	sort.SliceStable(decls, func(i, j int) bool { return decls[i].offset < decls[j].offset })

	// Names bound by surviving import statements stay as written everywhere:
	// the binding itself cannot be rewritten, so neither can its usages.
	importBound := make(map[string]struct{})

	for i, ln := range strings.Split(masked, "\n") {
		if _, ok := importLines[i]; !ok {
			continue
		}

		for _, tok := range identRe.FindAllString(ln, -1) {
			importBound[tok] = struct{}{}
		}
	}

	params := parameterNames(masked)
	renames := make(m.RenameMap)

	for _, d := range decls {
		if _, done := renames[d.name]; done {
			continue
		}

		if _, imp := importBound[d.name]; imp {
			continue
		}

		// A name that is also a parameter somewhere stays as written: the
		// signature occurrence cannot be rewritten without breaking keyword
		// call sites, so no occurrence may be.
		if _, isParam := params[d.name]; isParam {
			continue
		}

		if isReservedName(d.name) || isExcludedName(ctx.Config, d.name) {
			continue
		}

		fresh, err := ctx.Alloc.Fresh()
		if err != nil {
			return nil, err
		}

		renames[d.name] = fresh
	}

	return renames, nil
}

// parameterNames collects every identifier that appears inside a def
// signature's parentheses or a lambda's parameter list. Annotation and
// default-value names end up in the set too, which only makes renaming more
// conservative.
func parameterNames(masked string) map[string]struct{} {
	set := make(map[string]struct{})

	for _, idx := range defRe.FindAllStringSubmatchIndex(masked, -1) {
		open := strings.IndexByte(masked[idx[3]:], '(')
		if open < 0 {
			continue
		}

		start := idx[3] + open + 1
		depth := 1
		end := start

		for ; end < len(masked) && depth > 0; end++ {
			switch masked[end] {
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				depth--
			}
		}

		for _, tok := range identRe.FindAllString(masked[start:end], -1) {
			set[tok] = struct{}{}
		}
	}

	for _, idx := range lambdaRe.FindAllStringSubmatchIndex(masked, -1) {
		for _, tok := range identRe.FindAllString(masked[idx[2]:idx[3]], -1) {
			set[tok] = struct{}{}
		}
	}

	return set
}

func isExcludedName(cfg m.Config, name string) bool {
	for _, pat := range cfg.ExcludedPatterns {
		if pat != "" && strings.Contains(name, pat) {
			return true
		}
	}

	return false
}

// rewriteIdents rewrites the mapped identifiers of one Code span. line and
// depth persist across spans so import-line and keyword-argument detection
// see the whole file.
func rewriteIdents(text string, renames m.RenameMap, importLines map[int]struct{}, line, depth *int) string {
	var b strings.Builder

	prev := byte(0) // last significant byte written

	for i := 0; i < len(text); i++ {
		c := text[i]

		switch c {
		case '\n':
			*line++
			b.WriteByte(c)
			prev = 0

			continue
		case '\'', '"':
			// Quoted payload emitted by an earlier pass: copy verbatim.
			b.WriteByte(c)

			for i++; i < len(text) && text[i] != c; i++ {
				b.WriteByte(text[i])
			}

			if i < len(text) {
				b.WriteByte(text[i])
			}

			prev = c

			continue
		case '(', '[', '{':
			*depth++
		case ')', ']', '}':
			if *depth > 0 {
				*depth--
			}
		}

		if !isIdentStart(c) {
			b.WriteByte(c)

			if c != ' ' && c != '\t' && c != '\r' {
				prev = c
			}

			continue
		}

		j := i
		for j < len(text) && isIdentChar(text[j]) {
			j++
		}

		name := text[i:j]
		replacement, mapped := renames[name]

		if _, imp := importLines[*line]; imp || prev == '.' || !mapped || isKwargPosition(text, j, *depth) {
			b.WriteString(name)
		} else {
			b.WriteString(replacement)
		}

		prev = text[j-1]
		i = j - 1
	}

	return b.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// isKwargPosition reports whether the identifier ending at end is a keyword
// argument name: `name=` inside brackets, excluding `==`.
func isKwargPosition(text string, end, depth int) bool {
	if depth == 0 {
		return false
	}

	for k := end; k < len(text); k++ {
		switch text[k] {
		case ' ', '\t':
		case '=':
			return k+1 >= len(text) || text[k+1] != '='
		default:
			return false
		}
	}

	return false
}
