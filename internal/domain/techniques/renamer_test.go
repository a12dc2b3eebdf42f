package techniques_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samir-djili/obfuscator/internal/domain/techniques"
	m "github.com/samir-djili/obfuscator/internal/model"
)

func renameCtx(t *testing.T) *techniques.Context {
	t.Helper()

	return newTestContext(t, func(cfg *m.Config) {
		cfg.NamePattern = m.NameSequential
	})
}

func TestIdentifierRenamer_RenamesDeclarationsAndUsages(t *testing.T) {
	ctx := renameCtx(t)

	src := "def greet(who):\n    message = 'hi'\n    return message\n\ngreet('x')\n"
	out := applyPass(t, techniques.NewIdentifierRenamer(), ctx, src)

	require.Contains(t, ctx.Renames, "greet")
	require.Contains(t, ctx.Renames, "message")
	require.NotContains(t, out, "greet")
	require.NotContains(t, out, "message")

	// Parameters are never renamed: callers may pass them by keyword.
	require.NotContains(t, ctx.Renames, "who")
	require.Contains(t, out, "(who)")

	// The mapping is consistent: declaration and usage get the same name.
	renamed := ctx.Renames["message"]
	require.Equal(t, 2, strings.Count(out, renamed))
}

func TestIdentifierRenamer_NeverTouchesLiterals(t *testing.T) {
	ctx := renameCtx(t)

	src := "counter = 0\nprint('counter')\n"
	out := applyPass(t, techniques.NewIdentifierRenamer(), ctx, src)

	require.Contains(t, out, "'counter'", "literal content must survive renaming")
	require.NotContains(t, ctx.Renames, "print")
}

func TestIdentifierRenamer_SkipsAttributesAndKwargs(t *testing.T) {
	ctx := renameCtx(t)

	src := "value = 1\nobj.value = 2\nf(value=value)\n"
	out := applyPass(t, techniques.NewIdentifierRenamer(), ctx, src)

	renamed, ok := ctx.Renames["value"]
	require.True(t, ok)

	// Attribute position and keyword-argument name stay as written; the
	// declaration and the argument value are rewritten.
	require.Contains(t, out, "obj.value = 2")
	require.Contains(t, out, "(value="+renamed+")")
	require.True(t, strings.HasPrefix(out, renamed+" = 1"))
}

func TestIdentifierRenamer_ReservedAndExcluded(t *testing.T) {
	ctx := newTestContext(t, func(cfg *m.Config) {
		cfg.NamePattern = m.NameSequential
		cfg.ExcludedPatterns = []string{"main", "keep"}
	})

	src := "main = 1\nkeep_this = 2\n__all__ = []\nitems = 3\n"
	out := applyPass(t, techniques.NewIdentifierRenamer(), ctx, src)

	require.Equal(t, src, out)
	require.Empty(t, ctx.Renames)
}

func TestIdentifierRenamer_ImportBoundNamesStay(t *testing.T) {
	ctx := renameCtx(t)

	src := "import os\nfrom sys import argv\n\nresult = os.path.join(argv[0])\n"
	out := applyPass(t, techniques.NewIdentifierRenamer(), ctx, src)

	require.Contains(t, out, "import os")
	require.Contains(t, out, "from sys import argv")
	require.Contains(t, out, "os.path.join(argv[0])")
	require.NotContains(t, ctx.Renames, "os")
	require.NotContains(t, ctx.Renames, "argv")
	require.Contains(t, ctx.Renames, "result")
}

func TestIdentifierRenamer_ForAndAsTargets(t *testing.T) {
	ctx := renameCtx(t)

	src := "for item, idx in pairs:\n    use(item)\nwith open('f') as handle:\n    handle.read()\n"
	out := applyPass(t, techniques.NewIdentifierRenamer(), ctx, src)

	require.Contains(t, ctx.Renames, "item")
	require.Contains(t, ctx.Renames, "idx")
	require.Contains(t, ctx.Renames, "handle")
	require.NotContains(t, out, "handle.read")
	require.Contains(t, out, ctx.Renames["handle"]+".read()")
}

func TestIdentifierRenamer_SkipsQuotedPayloadInCode(t *testing.T) {
	ctx := renameCtx(t)

	// Simulates text an earlier pass emitted into a code span.
	spans := []m.Span{
		{Kind: m.SpanCode, Text: "data = 1\nmod = __import__('data')\n"},
	}

	out, err := techniques.NewIdentifierRenamer().Apply(ctx, m.Reflow(spans))
	require.NoError(t, err)

	rendered := m.Render(out)
	require.Contains(t, rendered, "__import__('data')", "quoted payload must stay verbatim")
	require.Contains(t, ctx.Renames, "data")
	require.True(t, strings.HasPrefix(rendered, ctx.Renames["data"]+" = 1"))
}

func TestIdentifierRenamer_ParameterNameSharedWithGlobalStays(t *testing.T) {
	// A module-level binding that shares a parameter's name must stay as
	// written everywhere: renaming the signature occurrence while keyword
	// call sites keep the original name would break the call at runtime.
	ctx := renameCtx(t)

	src := "total = 0\ndef f(total):\n    return total\nprint(f(total=3))\n"
	out := applyPass(t, techniques.NewIdentifierRenamer(), ctx, src)

	require.NotContains(t, ctx.Renames, "total")
	require.Contains(t, ctx.Renames, "f")

	renamedF := ctx.Renames["f"]
	require.Contains(t, out, "total = 0")
	require.Contains(t, out, "def "+renamedF+"(total):")
	require.Contains(t, out, "return total")
	require.Contains(t, out, "print("+renamedF+"(total=3))")
}

func TestIdentifierRenamer_LambdaParameterStays(t *testing.T) {
	ctx := renameCtx(t)

	src := "scale = 2\nfn = lambda scale: scale + 1\n"
	out := applyPass(t, techniques.NewIdentifierRenamer(), ctx, src)

	require.NotContains(t, ctx.Renames, "scale")
	require.Contains(t, ctx.Renames, "fn")
	require.Contains(t, out, "lambda scale: scale + 1")
}

func TestIdentifierRenamer_AllocatorExhaustionFailsApply(t *testing.T) {
	// Every sequential name contains "_v"; excluding it starves the allocator
	// and the pass must fail rather than emit a partial rename.
	ctx := newTestContext(t, func(cfg *m.Config) {
		cfg.NamePattern = m.NameSequential
		cfg.ExcludedPatterns = []string{"_v"}
	})

	spans := []m.Span{{Kind: m.SpanCode, Text: "value = 1\n"}}

	_, err := techniques.NewIdentifierRenamer().Apply(ctx, m.Reflow(spans))
	require.ErrorIs(t, err, techniques.ErrNameSpaceExhausted)
}

func TestIdentifierRenamer_GeneratedNamesAvoidFileIdents(t *testing.T) {
	// Sequential names are _v1, _v2...; the file already uses _v1, so the
	// allocator must skip it.
	ctx := renameCtx(t)

	src := "_v1 = 0\nvalue = 1\n"
	out := applyPass(t, techniques.NewIdentifierRenamer(), ctx, src)

	require.NotEqual(t, "_v1", ctx.Renames["_v1"])
	require.NotEqual(t, "_v1", ctx.Renames["value"])
	require.NotEqual(t, ctx.Renames["_v1"], ctx.Renames["value"])
	require.NotContains(t, out, "_v1 = 0")
}
