package techniques

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	m "github.com/samir-djili/obfuscator/internal/model"
)

// ImportIndirector rewrites import statements into __import__ calls whose
// module paths go through the run's string-encoding strategy. It runs before
// every other pass, so the later passes see the rewritten bindings as plain
// assignments.
type ImportIndirector struct{}

// NewImportIndirector returns the import-rewriting pass.
func NewImportIndirector() *ImportIndirector { return &ImportIndirector{} }

// Name implements Pass.
func (*ImportIndirector) Name() m.TechniqueName { return m.TechniqueImportIndirection }

var (
	importStmtRe = regexp.MustCompile(`^import\s+(.+)$`)
	fromStmtRe   = regexp.MustCompile(`^from\s+([.\w]+)\s+import\s+(.+)$`)
	moduleRe     = regexp.MustCompile(`^\w+(\.\w+)*$`)
)

// Apply implements Pass. Import statements never contain string literals or
// comments we rewrite through, so every eligible statement lies inside a
// single Code span and can be rewritten as text.
func (i *ImportIndirector) Apply(ctx *Context, spans []m.Span) ([]m.Span, error) {
	out := make([]m.Span, len(spans))
	copy(out, spans)

	depth := 0
	atLineStart := true

	for idx, s := range spans {
		if s.Kind != m.SpanCode {
			if strings.Contains(s.Text, "\n") {
				atLineStart = strings.HasSuffix(s.Text, "\n")
			} else if len(s.Text) > 0 {
				atLineStart = false
			}

			continue
		}

		text, newDepth, newAtStart, err := i.rewriteCode(ctx, s.Text, depth, atLineStart)
		if err != nil {
			return nil, err
		}

		out[idx].Text = text
		depth, atLineStart = newDepth, newAtStart
	}

	return m.Reflow(emitHelpers(ctx, out)), nil
}

// rewriteCode walks one Code span's text, gathering logical lines (joined
// across bracket and backslash continuations) and rewriting those that are
// import statements starting at bracket depth zero on a fresh line.
func (i *ImportIndirector) rewriteCode(ctx *Context, text string, depth int, atLineStart bool) (string, int, bool, error) {
	var b strings.Builder

	pos := 0

	for pos < len(text) {
		stmtStart := pos
		stmtDepth := depth
		stmtAtStart := atLineStart

		// Advance to the end of the logical line.
		end, endDepth := logicalLineEnd(text, pos, depth)
		stmt := text[stmtStart:end]

		replaced := ""

		if stmtAtStart && stmtDepth == 0 {
			var err error

			replaced, err = i.rewriteStatement(ctx, stmt)
			if err != nil {
				return "", 0, false, err
			}
		}

		if replaced != "" {
			b.WriteString(replaced)
		} else {
			b.WriteString(stmt)
		}

		depth = endDepth
		atLineStart = end > stmtStart && text[end-1] == '\n'
		pos = end
	}

	return b.String(), depth, atLineStart, nil
}

// logicalLineEnd returns the byte offset just past the logical line starting
// at pos (past its terminating newline at bracket depth zero), plus the depth
// there.
func logicalLineEnd(text string, pos, depth int) (int, int) {
	for i := pos; i < len(text); i++ {
		switch text[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case '\\':
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		case '\n':
			if depth == 0 {
				return i + 1, depth
			}
		}
	}

	return len(text), depth
}

// rewriteStatement rewrites one logical line when it is an eligible import
// statement; it returns "" to keep the original text. An exhausted name space
// is the one fatal case.
func (i *ImportIndirector) rewriteStatement(ctx *Context, stmt string) (string, error) {
	body := stmt
	hadNL := strings.HasSuffix(body, "\n")
	body = strings.TrimSuffix(body, "\n")
	body = strings.TrimSuffix(body, "\r")

	indent := lineIndent(body)
	flat := flattenStatement(strings.TrimSpace(body))

	var (
		stmts []string
		err   error
	)

	switch {
	case fromStmtRe.MatchString(flat):
		groups := fromStmtRe.FindStringSubmatch(flat)
		stmts, err = i.rewriteFrom(ctx, groups[1], groups[2])
	case importStmtRe.MatchString(flat):
		stmts, err = i.rewriteImport(ctx, importStmtRe.FindStringSubmatch(flat)[1])
	default:
		return "", nil
	}

	if err != nil {
		return "", err
	}

	if stmts == nil {
		return "", nil
	}

	for j := range stmts {
		stmts[j] = indent + stmts[j]
	}

	out := strings.Join(stmts, "\n")
	if hadNL {
		out += "\n"
	}

	return out, nil
}

// flattenStatement joins a multi-line statement into one line, dropping
// continuation backslashes and bracket newlines.
func flattenStatement(s string) string {
	s = strings.ReplaceAll(s, "\\\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")

	return s
}

// rewriteImport handles `import a.b.c as x, d`. A dotted path without an
// alias binds the root module, which is exactly what __import__ returns; a
// dotted path with an alias binds the leaf, which needs import_module.
func (i *ImportIndirector) rewriteImport(ctx *Context, clause string) ([]string, error) {
	var stmts []string

	for _, part := range strings.Split(clause, ",") {
		module, alias, ok := splitAlias(strings.TrimSpace(part))
		if !ok || !moduleRe.MatchString(module) {
			ctx.Infof("import left as written: %q", strings.TrimSpace(part))
			return nil, nil
		}

		enc, err := EncodeStringExpr(ctx, module)
		if err != nil {
			return nil, skipOrFail(ctx, err)
		}

		switch {
		case alias == "":
			root := module
			if dot := strings.IndexByte(module, '.'); dot >= 0 {
				root = module[:dot]
			}

			stmts = append(stmts, fmt.Sprintf("%s = __import__(%s)", root, enc))
		case !strings.Contains(module, "."):
			stmts = append(stmts, fmt.Sprintf("%s = __import__(%s)", alias, enc))
		default:
			helper, err := i.importModuleHelper(ctx)
			if err != nil {
				return nil, skipOrFail(ctx, err)
			}

			stmts = append(stmts, fmt.Sprintf("%s = %s(%s)", alias, helper, enc))
		}
	}

	return stmts, nil
}

// skipOrFail turns an encode failure into a keep-as-written skip, except an
// exhausted name space, which is fatal for the whole run.
func skipOrFail(ctx *Context, err error) error {
	if errors.Is(err, ErrNameSpaceExhausted) {
		return err
	}

	ctx.Warnf("import left as written: %v", err)

	return nil
}

// rewriteFrom handles `from m import a, b as c`. Relative imports, star
// imports, and __future__ imports are left as written: the first two need
// package context __import__ does not get here, and the last is a compiler
// directive.
func (i *ImportIndirector) rewriteFrom(ctx *Context, module, names string) ([]string, error) {
	if strings.HasPrefix(module, ".") || module == "__future__" {
		return nil, nil
	}

	names = strings.TrimSpace(names)
	names = strings.TrimPrefix(names, "(")
	names = strings.TrimSuffix(names, ")")

	if strings.Contains(names, "*") {
		ctx.Infof("star import left as written: from %s import *", module)
		return nil, nil
	}

	encModule, err := EncodeStringExpr(ctx, module)
	if err != nil {
		return nil, skipOrFail(ctx, err)
	}

	var stmts []string

	for _, part := range strings.Split(names, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, alias, ok := splitAlias(part)
		if !ok || !moduleRe.MatchString(name) || strings.Contains(name, ".") {
			ctx.Infof("import left as written: from %s import %s", module, part)
			return nil, nil
		}

		if alias == "" {
			alias = name
		}

		encName, err := EncodeStringExpr(ctx, name)
		if err != nil {
			return nil, skipOrFail(ctx, err)
		}

		// fromlist makes __import__ load submodules named in the import, so
		// getattr works for modules and attributes alike.
		stmts = append(stmts, fmt.Sprintf(
			"%s = getattr(__import__(%s, fromlist=[%s]), %s)", alias, encModule, encName, encName))
	}

	return stmts, nil
}

func (*ImportIndirector) importModuleHelper(ctx *Context) (string, error) {
	return ctx.Helpers.Ensure(ctx.Alloc, "import_module", func(name string) string {
		return name + " = __import__('importlib').import_module"
	})
}

// splitAlias splits "name as alias" clauses; ok is false on malformed input.
func splitAlias(clause string) (name, alias string, ok bool) {
	fields := strings.Fields(clause)

	switch len(fields) {
	case 1:
		return fields[0], "", true
	case 3:
		if fields[1] != "as" {
			return "", "", false
		}

		return fields[0], fields[2], true
	default:
		return "", "", false
	}
}
