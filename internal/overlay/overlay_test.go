package overlay

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/diagnostics"
	"github.com/orizon-lang/declview/internal/errors"
	"github.com/orizon-lang/declview/internal/index"
	"github.com/orizon-lang/declview/internal/macro"
	"github.com/orizon-lang/declview/internal/meta"
	"github.com/orizon-lang/declview/internal/syntax"
)

const mixedSource = `import builtin.generated

@generated func f(): Int = 1

@builtin.generatd func g()

@app.fail class C {
  @builtin.generated func m() = 2
}

@Plain func h()
`

func newEngine(t *testing.T) *macro.Engine {
	t.Helper()
	e := macro.NewEngine()
	require.NoError(t, e.RegisterFunc("app.fail", func(*macro.Invocation) (meta.Node, error) {
		return nil, fmt.Errorf("boom")
	}))
	return e
}

func parse(t *testing.T, path, text string) *decl.File {
	t.Helper()
	f := decl.ParseFile(path, text, NewTools())
	require.Empty(t, f.ParseErrors())
	return f
}

func TestTools_ExpandsThroughParser(t *testing.T) {
	f := parse(t, "a.oriz", "@builtin.generated func f(): Int = 1\n")
	o := decl.CollectOwners(f, false)[0]

	require.NoError(t, o.InitializeHiddenElement(macro.NewEngine()))
	h := o.HiddenElement()
	require.NotNil(t, h)
	assert.Equal(t, "@Generated\nfunc f(): Int = 1", h.Text())
	assert.Equal(t, "a.oriz"+GeneratedSuffix, h.File().Path())
	assert.Same(t, f, h.File().AnalysisContext())
	assert.Same(t, o, h.ReplacedElement())
}

func TestTools_ParseErrors(t *testing.T) {
	tools := NewTools()

	_, err := tools.Parse(syntax.KindClass, "func f()", nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeIncompatibleKind))

	for _, text := range []string{"func (", "func f()\nfunc g()", ""} {
		_, err := tools.Parse(syntax.KindFunction, text, nil)
		require.Error(t, err, text)
		assert.True(t, errors.HasCode(err, errors.CodeGeneratedUnparsed), text)
	}

	o, err := tools.Parse(syntax.KindFunction, "func f()\n", nil)
	require.NoError(t, err)
	assert.Equal(t, "<generated>", o.File().Path())
}

func TestTools_WriteNormalizes(t *testing.T) {
	text, err := NewTools().Write(&meta.Func{Name: "f", Body: &meta.Body{Block: true, Text: "{  \n}"}})
	require.NoError(t, err)
	assert.Equal(t, "func f() {\n}\n", text)

	_, err = NewTools().Write(&meta.Func{})
	assert.Error(t, err)
}

func TestPreprocessFile(t *testing.T) {
	p := NewPreprocessor(newEngine(t))
	f := parse(t, "mixed.oriz", mixedSource)

	res, err := p.PreprocessFile(context.Background(), f)
	require.NoError(t, err)

	var names []string
	for _, o := range res.Expanded {
		names = append(names, o.Name())
	}
	assert.Equal(t, []string{"f", "m"}, names)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Unknown)

	dm := p.Reporter().Manager()
	failed := dm.GetDiagnosticsByCategory(diagnostics.CategoryMacroExpansion)
	require.Len(t, failed, 1)
	assert.Equal(t, "expanding @app.fail on 'C' failed", failed[0].Message)
	assert.Equal(t, 7, failed[0].Span.Start.Line)
	assert.Contains(t, failed[0].Explanation, "boom")

	unknown := dm.GetDiagnosticsByCategory(diagnostics.CategoryUnknownMacro)
	require.Len(t, unknown, 1)
	assert.Equal(t, "unknown macro 'builtin.generatd'", unknown[0].Message)
	require.NotEmpty(t, unknown[0].FixSuggestions)
	assert.Contains(t, unknown[0].FixSuggestions[0].Description, "builtin.generated")

	t.Run("second pass does not re-run macros", func(t *testing.T) {
		again, err := p.PreprocessFile(context.Background(), f)
		require.NoError(t, err)
		assert.Len(t, again.Expanded, 2)
		assert.Equal(t, 1, again.Failed)
	})
}

func TestPreprocessFile_StubBacked(t *testing.T) {
	text := "@builtin.generated class Box(val v: Int)\n"
	s, built := index.New(nil).GetOrBuild("box.oriz", text)
	require.True(t, built)
	f := decl.NewStubFile("box.oriz", text, s, nil)

	res, err := NewPreprocessor(macro.NewEngine()).PreprocessFile(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, res.Expanded, 1)
	assert.Equal(t, "@Generated\nclass Box(val v: Int)", res.Expanded[0].HiddenElement().Text())
	assert.True(t, f.IsStubBased())
}

type recordingExtension struct {
	files []string
	err   error
}

func (r *recordingExtension) Name() string { return "recording" }

func (r *recordingExtension) Process(_ context.Context, f *decl.File) error {
	r.files = append(r.files, f.Path())
	return r.err
}

func TestPreprocessFile_Extensions(t *testing.T) {
	ok := &recordingExtension{}
	p := NewPreprocessor(macro.NewEngine(), WithExtension(ok))
	_, err := p.PreprocessFile(context.Background(), parse(t, "a.oriz", "func f()\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.oriz"}, ok.files)

	failing := &recordingExtension{err: assert.AnError}
	p = NewPreprocessor(macro.NewEngine(), WithExtension(failing))
	_, err = p.PreprocessFile(context.Background(), parse(t, "b.oriz", "func f()\n"))
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "recording")
}

func TestPreprocessAll(t *testing.T) {
	var files []*decl.File
	for i := 0; i < 6; i++ {
		files = append(files, parse(t, fmt.Sprintf("f%d.oriz", i), fmt.Sprintf("@builtin.generated func f%d()\n", i)))
	}
	p := NewPreprocessor(macro.NewEngine(), WithConcurrency(2))

	results, err := p.PreprocessAll(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, results, len(files))
	for i, res := range results {
		assert.Equal(t, files[i].Path(), res.Path)
		require.Len(t, res.Expanded, 1)
		assert.Equal(t, fmt.Sprintf("@Generated\nfunc f%d()", i), res.Expanded[0].HiddenElement().Text())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.PreprocessAll(ctx, files)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSourceElementAndMaterialize(t *testing.T) {
	text := "package p\n\n@builtin.generated class B {\n  @builtin.generated func m() = 2\n}\n"
	f := parse(t, "b.oriz", text)
	res, err := NewPreprocessor(macro.NewEngine()).PreprocessFile(context.Background(), f)
	require.NoError(t, err)
	require.Len(t, res.Expanded, 2)
	b, m := res.Expanded[0], res.Expanded[1]

	hiddenB := b.HiddenElement()
	assert.Equal(t, "@Generated\nclass B {\n  @builtin.generated\n  func m() = 2\n}", hiddenB.Text())

	members := hiddenB.(*decl.Class).Declarations()
	require.Len(t, members, 1)
	hm := members[0].(decl.TypeParameterListOwner)
	assert.True(t, hm.IsHidden())
	assert.False(t, hm.IsRoot())
	assert.Same(t, hiddenB, hm.ReplacedElement())
	assert.Same(t, b, SourceElement(hm))
	assert.Same(t, b, SourceElement(hiddenB))
	assert.Same(t, m, SourceElement(m))

	span := SourceSpan(hm)
	assert.Equal(t, "b.oriz", span.Start.Filename)
	assert.Equal(t, 3, span.Start.Line)

	edits := Splices(f, m, b)
	require.Len(t, edits, 1)
	assert.Equal(t, b.Node().TextOffset(), edits[0].Start)

	out, changed := Materialize(f, m, b)
	require.True(t, changed)
	assert.Equal(t, "package p\n\n"+hiddenB.Text()+"\n", out)

	out, changed = Materialize(f, m)
	require.True(t, changed)
	assert.True(t, strings.HasSuffix(out, "  @Generated\n  func m() = 2\n}\n"), out)

	out, changed = Materialize(f)
	assert.False(t, changed)
	assert.Equal(t, text, out)
}
