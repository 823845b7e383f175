package diagnostics

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/declview/internal/parser"
	"github.com/orizon-lang/declview/internal/position"
)

const boxSource = "@Macro\nclass Box(val v: Int) {\n\tfunc get(): Int = v\n}"

func TestDiagnosticManager_LimitsAndSuppression(t *testing.T) {
	dm := NewDiagnosticManager()
	dm.SetErrorLimit(2)
	dm.SuppressCategory(CategoryStubMismatch)

	for i := 0; i < 3; i++ {
		dm.AddDiagnostic(ConversionError(fmt.Sprintf("f%d", i), dm.Sources().AddFile("a.oriz", boxSource).SpanFromOffsets(0, 1), assert.AnError))
	}
	dm.AddDiagnostic(StubMismatchWarning("Box", dm.Sources().GetFile("a.oriz").SpanFromOffsets(7, 12), ""))
	dm.AddDiagnostic(UnknownMacroError("Macr", dm.Sources().GetFile("a.oriz").SpanFromOffsets(1, 6), nil))

	assert.Equal(t, 2, dm.GetErrorCount())
	assert.Equal(t, 1, dm.GetWarningCount())
	assert.True(t, dm.HasErrors())
	assert.Len(t, dm.GetDiagnostics(), 3)
	assert.Empty(t, dm.GetDiagnosticsByCategory(CategoryStubMismatch))
	assert.Len(t, dm.GetDiagnosticsByLevel(DiagnosticWarning), 1)

	summary := dm.GetDiagnosticSummary()
	assert.Equal(t, DiagnosticSummary{TotalCount: 3, ErrorCount: 2, WarningCount: 1}, summary)
	assert.Contains(t, dm.FormatSummary(), "Found 2 error(s) and 1 warning(s).")
	assert.Contains(t, dm.FormatSummary(), "conversion: 2")
}

func TestDiagnosticManager_EmptySummary(t *testing.T) {
	assert.Equal(t, "No diagnostics.", NewDiagnosticManager().FormatSummary())
}

func TestFormatDiagnostic(t *testing.T) {
	dm := NewDiagnosticManager()
	sf := dm.Sources().AddFile("box.oriz", boxSource)
	span := sf.SpanFromOffsets(13, 16)

	dm.AddDiagnostic(UnknownMacroError("Bx", span, []string{"Box"}))
	diags := dm.GetDiagnostics()
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, []string{"class Box(val v: Int) {"}, d.Context)
	assert.Equal(t, "box.oriz", d.SourceFile)

	out := dm.FormatDiagnostic(d, false)
	assert.True(t, strings.HasPrefix(out, "warning[M002]: unknown macro 'Bx'"))
	assert.Contains(t, out, "--> box.oriz:2:7")
	assert.Contains(t, out, "   2 | class Box(val v: Int) {\n")
	assert.Contains(t, out, "   2 | class Box(val v: Int) {\n     |       ^^^\n")
	assert.Contains(t, out, "Did you mean 'Box'? (automatic)")

	colored := dm.FormatDiagnostic(d, true)
	assert.True(t, strings.HasPrefix(colored, "\033[33mwarning"))
}

func TestUnknownMacroError_Suggestions(t *testing.T) {
	none := UnknownMacroError("x", boxSpan(), nil)
	assert.Empty(t, none.FixSuggestions)

	many := UnknownMacroError("x", boxSpan(), []string{"a.x", "b.x"})
	require.Len(t, many.FixSuggestions, 1)
	assert.False(t, many.FixSuggestions[0].Automatic)
	assert.Equal(t, "Did you mean one of: a.x, b.x?", many.FixSuggestions[0].Description)
}

func TestSortDiagnostics(t *testing.T) {
	dm := NewDiagnosticManager()
	sf := dm.Sources().AddFile("box.oriz", boxSource)
	dm.AddDiagnostic(ConversionError("get", sf.SpanFromOffsets(32, 35), assert.AnError))
	dm.AddDiagnostic(StubMismatchWarning("Box", sf.SpanFromOffsets(7, 12), ""))
	dm.AddDiagnostic(ParseError("bad", sf.SpanFromOffsets(7, 8)))
	dm.SortDiagnostics()

	var codes []string
	for _, d := range dm.GetDiagnostics() {
		codes = append(codes, d.Code)
	}
	assert.Equal(t, []string{"P001", "S001", "C001"}, codes)
}

func TestDiagnosticManager_Concurrent(t *testing.T) {
	dm := NewDiagnosticManager()
	dm.SetWarningLimit(50)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				dm.AddDiagnostic(UnknownMacroError("m", boxSpan(), nil))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, dm.GetWarningCount())
	assert.Len(t, dm.GetDiagnostics(), 50)
}

func TestReporter(t *testing.T) {
	r := NewReporter()
	r.AddSource("bad.oriz", "func f(")

	_, errs := parser.ParseFile("bad.oriz", "func f(")
	require.NotEmpty(t, errs)
	r.ParseErrors("bad.oriz", errs)
	r.ParseErrors("bad.oriz", []error{assert.AnError})

	parsing := r.Manager().GetDiagnosticsByCategory(CategoryParsing)
	require.Len(t, parsing, len(errs)+1)
	assert.Equal(t, "bad.oriz", parsing[0].SourceFile)
	assert.Equal(t, 1, parsing[0].Span.Start.Line)

	r.MacroExpansionFailed("f", "builtin.generated", r.Span("bad.oriz", 0, 4), assert.AnError)
	r.WorkspaceFailed("gone.oriz", assert.AnError)
	expansion := r.Manager().GetDiagnosticsByCategory(CategoryMacroExpansion)
	require.Len(t, expansion, 1)
	assert.Equal(t, "expanding @builtin.generated on 'f' failed", expansion[0].Message)
	assert.Equal(t, assert.AnError.Error(), expansion[0].Explanation)

	span := r.Span("unknown.oriz", 3, 4)
	assert.Equal(t, "unknown.oriz", span.Start.Filename)
	assert.Equal(t, 0, span.Start.Line)
}

func boxSpan() position.Span {
	return position.NewSourceFile("box.oriz", boxSource).SpanFromOffsets(1, 6)
}
