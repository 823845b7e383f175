package decl_test

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/errors"
	"github.com/orizon-lang/declview/internal/meta"
	"github.com/orizon-lang/declview/internal/syntax"
)

// fakeTools converts only names and parses generated text with the real
// parser.
type fakeTools struct {
	convertErr error
	write      func(meta.Node) (string, error)
}

func (ft *fakeTools) Convert(o decl.TypeParameterListOwner) (meta.Node, error) {
	if ft.convertErr != nil {
		return nil, ft.convertErr
	}
	switch o.(type) {
	case *decl.Class:
		return &meta.Structured{Name: o.Name()}, nil
	default:
		return &meta.Func{Name: o.Name()}, nil
	}
}

func (ft *fakeTools) Write(n meta.Node) (string, error) {
	if ft.write != nil {
		return ft.write(n)
	}
	return meta.Write(n)
}

func (ft *fakeTools) Parse(kind syntax.Kind, text string, ctx *decl.File) (decl.TypeParameterListOwner, error) {
	f := decl.ParseFile("<generated>", text, nil)
	if errs := f.ParseErrors(); len(errs) > 0 {
		return nil, errs[0]
	}
	decls := f.Declarations()
	if len(decls) != 1 {
		return nil, fmt.Errorf("expected one declaration, got %d", len(decls))
	}
	return decls[0].(decl.TypeParameterListOwner), nil
}

type fakeExpander struct {
	calls  int
	result func(n meta.Node) (meta.Node, error)
}

func (x *fakeExpander) IsMacroAnnotation(a *decl.Annotation) bool {
	return a.ShortName() == "Macro" || a.ShortName() == "Other"
}

func (x *fakeExpander) Expand(a *decl.Annotation, n meta.Node) (meta.Node, error) {
	x.calls++
	if x.result != nil {
		return x.result(n)
	}
	f := *n.(*meta.Func)
	f.Name += "Generated"
	f.Body = &meta.Body{Text: fmt.Sprintf("%q", a.QualifiedName())}
	return &f, nil
}

func owner(t *testing.T, text string, tools decl.MetaTools) decl.TypeParameterListOwner {
	t.Helper()
	f := decl.ParseFile("test.oriz", text, tools)
	require.Empty(t, f.ParseErrors())
	decls := f.Declarations()
	require.NotEmpty(t, decls)
	return decls[0].(decl.TypeParameterListOwner)
}

func TestInitializeHiddenElement_Expands(t *testing.T) {
	x := &fakeExpander{}
	o := owner(t, "@Macro func f()", &fakeTools{})

	assert.False(t, o.HasHiddenElementInitialized())
	assert.Same(t, o, o.ReplacedElement())

	require.NoError(t, o.InitializeHiddenElement(x))
	require.True(t, o.HasHiddenElementInitialized())

	hidden := o.HiddenElement()
	assert.Equal(t, syntax.KindFunction, hidden.Kind())
	assert.Equal(t, "fGenerated", hidden.Name())
	assert.Equal(t, `func fGenerated() = "Macro"`, hidden.Text())
	assert.True(t, hidden.IsHidden())
	assert.True(t, hidden.IsRoot())
	assert.Same(t, o, hidden.ReplacedElement())
	assert.Same(t, o.File(), hidden.File().AnalysisContext())

	assert.False(t, o.IsHidden())
	assert.False(t, o.IsRoot())
	assert.Same(t, o, o.ReplacedElement())
}

func TestInitializeHiddenElement_Idempotent(t *testing.T) {
	x := &fakeExpander{}
	o := owner(t, "@Macro func f()", &fakeTools{})

	require.NoError(t, o.InitializeHiddenElement(x))
	first := o.HiddenElement()
	require.NoError(t, o.InitializeHiddenElement(x))

	assert.Same(t, first, o.HiddenElement())
	assert.Equal(t, 1, x.calls)
}

func TestInitializeHiddenElement_OnlyFirstMacroAnnotation(t *testing.T) {
	x := &fakeExpander{}
	o := owner(t, "@Deprecated @Other @Macro func f()", &fakeTools{})

	require.NoError(t, o.InitializeHiddenElement(x))
	assert.Equal(t, `func fGenerated() = "Other"`, o.HiddenElement().Text())
	assert.Equal(t, 1, x.calls)
}

func TestInitializeHiddenElement_Decline(t *testing.T) {
	t.Run("no macro annotation", func(t *testing.T) {
		x := &fakeExpander{}
		o := owner(t, "@Deprecated func f()", &fakeTools{})
		require.NoError(t, o.InitializeHiddenElement(x))
		assert.False(t, o.HasHiddenElementInitialized())
		assert.Zero(t, x.calls)
	})

	t.Run("no tools", func(t *testing.T) {
		x := &fakeExpander{}
		o := owner(t, "@Macro func f()", nil)
		require.NoError(t, o.InitializeHiddenElement(x))
		assert.False(t, o.HasHiddenElementInitialized())
		assert.Zero(t, x.calls)

		// Tools supplied later make the owner eligible.
		o.SetMetaTools(&fakeTools{})
		require.NoError(t, o.InitializeHiddenElement(x))
		assert.True(t, o.HasHiddenElementInitialized())
	})

	t.Run("no expander", func(t *testing.T) {
		o := owner(t, "@Macro func f()", &fakeTools{})
		require.NoError(t, o.InitializeHiddenElement(nil))
		assert.False(t, o.HasHiddenElementInitialized())
	})

	t.Run("engine declines", func(t *testing.T) {
		x := &fakeExpander{result: func(meta.Node) (meta.Node, error) { return nil, nil }}
		o := owner(t, "@Macro func f()", &fakeTools{})
		require.NoError(t, o.InitializeHiddenElement(x))
		require.NoError(t, o.InitializeHiddenElement(x))
		assert.False(t, o.HasHiddenElementInitialized())
		assert.Equal(t, 1, x.calls)
	})
}

func TestInitializeHiddenElement_Defects(t *testing.T) {
	tests := []struct {
		name   string
		tools  *fakeTools
		result func(meta.Node) (meta.Node, error)
		code   string
	}{
		{
			name:  "conversion",
			tools: &fakeTools{convertErr: fmt.Errorf("unsupported")},
			code:  errors.CodeExpansionFailed,
		},
		{
			name: "unparsable text",
			tools: &fakeTools{write: func(meta.Node) (string, error) {
				return "func (", nil
			}},
			code: errors.CodeExpansionFailed,
		},
		{
			name: "incompatible kind",
			tools: &fakeTools{write: func(meta.Node) (string, error) {
				return "class F", nil
			}},
			code: errors.CodeIncompatibleKind,
		},
		{
			name:  "serialization",
			tools: &fakeTools{},
			result: func(meta.Node) (meta.Node, error) {
				return &meta.Func{}, nil
			},
			code: errors.CodeExpansionFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := &fakeExpander{result: tt.result}
			o := owner(t, "@Macro func f()", tt.tools)

			err := o.InitializeHiddenElement(x)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
			assert.False(t, o.HasHiddenElementInitialized())
			assert.False(t, o.IsHidden())

			calls := x.calls
			assert.Equal(t, err, o.InitializeHiddenElement(x))
			assert.Equal(t, calls, x.calls)
		})
	}
}

func TestInitializeHiddenElement_NestedDeclarationsAreHidden(t *testing.T) {
	x := &fakeExpander{result: func(n meta.Node) (meta.Node, error) {
		s := *n.(*meta.Structured)
		s.HasBody = true
		s.Members = []meta.Decl{
			&meta.Func{Name: "copy", Body: &meta.Body{Block: true, Text: "{ func local() {} }"}},
		}
		return &s, nil
	}}
	o := owner(t, "@Macro class Point", &fakeTools{})
	require.NoError(t, o.InitializeHiddenElement(x))

	hidden := o.HiddenElement().(*decl.Class)
	members := hidden.Declarations()
	require.Len(t, members, 1)
	member := members[0].(*decl.Function)

	assert.True(t, member.IsHidden())
	assert.False(t, member.IsRoot())
	assert.Same(t, hidden, member.ReplacedElement())

	local := member.BodyExpression().LocalDeclarations()[0].(*decl.Function)
	assert.True(t, local.IsHidden())
	assert.Same(t, hidden, local.ReplacedElement())

	assert.Same(t, o, decl.ReplacedParent(local))
	assert.Same(t, o, decl.ReplacedParent(member.ValueParameterList()))
	assert.Nil(t, decl.ReplacedParent(o))
}

func TestReplacedElement_IsNotOwning(t *testing.T) {
	x := &fakeExpander{}
	hidden := func() decl.TypeParameterListOwner {
		o := owner(t, "@Macro func f()", &fakeTools{})
		require.NoError(t, o.InitializeHiddenElement(x))
		return o.HiddenElement()
	}()

	// Only the generated declaration is still referenced.
	for i := 0; i < 5 && hidden.ReplacedElement() != hidden; i++ {
		runtime.GC()
	}
	assert.Same(t, hidden, hidden.ReplacedElement())
}

func TestSetReplacedElement(t *testing.T) {
	f := decl.ParseFile("test.oriz", "func a()\nfunc b()", nil)
	decls := f.Declarations()
	a := decls[0].(decl.TypeParameterListOwner)
	b := decls[1].(decl.TypeParameterListOwner)

	a.SetReplacedElement(b)
	assert.Same(t, b, a.ReplacedElement())
	a.SetReplacedElement(nil)
	assert.Same(t, a, a.ReplacedElement())
}
