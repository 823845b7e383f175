package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/declview/internal/lexer"
	"github.com/orizon-lang/declview/internal/syntax"
)

func parseOK(t *testing.T, src string) *syntax.Node {
	t.Helper()
	root, errs := ParseFile("test.oriz", src)
	require.Empty(t, errs, "unexpected parse errors")
	require.NotNil(t, root)
	return root
}

func decls(root *syntax.Node) []*syntax.Node {
	var out []*syntax.Node
	for _, c := range root.Children() {
		if c.Kind().IsDeclaration() {
			out = append(out, c)
		}
	}
	return out
}

func TestParseFile_Lossless(t *testing.T) {
	sources := []string{
		"",
		"package a.b\n\nimport a.b.C\nimport x.y.*\nimport q.R as S\n",
		"// leading\n@Memo(\"x\") pub func <T> List<T>.head(): T? = first() // trailing\n",
		"class Box<T>(val value: T) : Base(), Other where T: Any {\n  func get(): T { return value }\n}\n",
		"func broken( { }\n",
		"garbage here\nfunc ok() {}\n",
	}
	for _, src := range sources {
		root, _ := ParseFile("t.oriz", src)
		require.NotNil(t, root)
		assert.Equal(t, src, root.Text(), "tree must reproduce the source")
		assert.Equal(t, 0, root.TextOffset())
	}
}

func TestParseFile_Directives(t *testing.T) {
	root := parseOK(t, "package a.b\nimport a.b.C\nimport q.R as S\nfunc f() {}\n")

	pkg := root.FirstChildOfKind(syntax.KindPackageDirective)
	require.NotNil(t, pkg)
	assert.Equal(t, "package a.b", pkg.Text())

	imports := root.FirstChildOfKind(syntax.KindImportList).ChildrenOfKind(syntax.KindImportDirective)
	require.Len(t, imports, 2)
	assert.Equal(t, "import q.R as S", imports[1].Text())
	require.Len(t, decls(root), 1)
}

func TestParseFunction_Shapes(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		children []syntax.Kind
	}{
		{
			name:     "expression body",
			src:      "func f() = 1",
			children: []syntax.Kind{syntax.KindValueParameterList, syntax.KindExpression},
		},
		{
			name:     "block body",
			src:      "func f() {}",
			children: []syntax.Kind{syntax.KindValueParameterList, syntax.KindBlock},
		},
		{
			name:     "no body",
			src:      "abstract func f(): Int",
			children: []syntax.Kind{syntax.KindModifierList, syntax.KindValueParameterList, syntax.KindTypeReference},
		},
		{
			name: "receiver and type parameters before name",
			src:  "func <T> List<T>.head(): T where T: Any = get(0)",
			children: []syntax.Kind{
				syntax.KindTypeParameterList, syntax.KindTypeReference, syntax.KindValueParameterList,
				syntax.KindTypeReference, syntax.KindTypeConstraintList, syntax.KindExpression,
			},
		},
		{
			name: "type parameters after name",
			src:  "func f<T>(x: T) {}",
			children: []syntax.Kind{
				syntax.KindTypeParameterList, syntax.KindValueParameterList, syntax.KindBlock,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parseOK(t, tt.src)
			ds := decls(root)
			require.Len(t, ds, 1)
			fn := ds[0]
			assert.Equal(t, syntax.KindFunction, fn.Kind())

			var kinds []syntax.Kind
			for _, c := range fn.Children() {
				if !c.IsToken() {
					kinds = append(kinds, c.Kind())
				}
			}
			assert.Equal(t, tt.children, kinds)
		})
	}
}

func TestParseFunction_ReceiverStopsAtDot(t *testing.T) {
	root := parseOK(t, "func a.b.Type.f(): Other {}")
	fn := decls(root)[0]

	recv := fn.FirstChildOfKind(syntax.KindTypeReference)
	require.NotNil(t, recv)
	assert.Equal(t, "a.b.Type", recv.Text())

	var name string
	for _, c := range fn.Children() {
		if c.IsToken() && c.TokenType() == lexer.TokenIdentifier {
			name = c.Token().Literal
		}
	}
	assert.Equal(t, "f", name)
}

func TestParseFunction_NullableReceiver(t *testing.T) {
	root := parseOK(t, "func String?.orEmpty(): String = this ?: \"\"")
	fn := decls(root)[0]
	recv := fn.FirstChildOfKind(syntax.KindTypeReference)
	require.NotNil(t, recv)
	assert.Equal(t, "String?", recv.Text())
}

func TestParseFunction_ExpressionEndsAtNewline(t *testing.T) {
	root := parseOK(t, "func f() = compute(\n  1,\n  2)\nfunc g() = 2\n")
	ds := decls(root)
	require.Len(t, ds, 2)
	expr := ds[0].FirstChildOfKind(syntax.KindExpression)
	assert.Equal(t, "compute(\n  1,\n  2)", expr.Text())
}

func TestParseClass(t *testing.T) {
	src := `@Data
pub class Box<T>(val value: T, count: Int = 0) : Base(1), Other where T: Any {
  func get(): T = value
  class Inner
}
`
	root := parseOK(t, src)
	cls := decls(root)[0]
	assert.Equal(t, syntax.KindClass, cls.Kind())
	require.NotNil(t, cls.FirstChildOfKind(syntax.KindModifierList))

	params := cls.FirstChildOfKind(syntax.KindValueParameterList).ChildrenOfKind(syntax.KindValueParameter)
	require.Len(t, params, 2)
	assert.NotNil(t, params[1].FirstChildOfKind(syntax.KindExpression))

	supers := cls.ChildrenOfKind(syntax.KindTypeReference)
	require.Len(t, supers, 2)
	assert.Equal(t, "Other", supers[1].Text())

	body := cls.FirstChildOfKind(syntax.KindClassBody)
	require.NotNil(t, body)
	members := body.ChildrenOfKind(syntax.KindFunction)
	require.Len(t, members, 1)
	require.Len(t, body.ChildrenOfKind(syntax.KindClass), 1)
}

func TestParseBlock_LocalDeclarations(t *testing.T) {
	root := parseOK(t, "func outer() {\n  val x = 1\n  func inner() = x\n  if (x > 0) { println(x) }\n}\n")
	block := decls(root)[0].FirstChildOfKind(syntax.KindBlock)
	require.NotNil(t, block)
	locals := block.ChildrenOfKind(syntax.KindFunction)
	require.Len(t, locals, 1)
	assert.Equal(t, "func inner() = x", locals[0].Text())
}

func TestParseAnnotation_ArgumentsMustBeAdjacent(t *testing.T) {
	root := parseOK(t, "@Memo(size = 3) func f() {}")
	ann := decls(root)[0].FirstChildOfKind(syntax.KindModifierList).FirstChildOfKind(syntax.KindAnnotation)
	require.NotNil(t, ann)
	assert.Equal(t, "@Memo(size = 3)", ann.Text())
	assert.NotNil(t, ann.FirstChildOfKind(syntax.KindValueArgumentList))
}

func TestParseSoftKeywordsAsNames(t *testing.T) {
	root := parseOK(t, "func f(data: Int, open: Boolean) {}")
	params := decls(root)[0].FirstChildOfKind(syntax.KindValueParameterList).ChildrenOfKind(syntax.KindValueParameter)
	require.Len(t, params, 2)
	assert.Nil(t, params[0].FirstChildOfKind(syntax.KindModifierList))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing parameter list", "func f: Int"},
		{"unclosed block", "func f() {"},
		{"stray tokens", "42 + 1"},
		{"modifiers without declaration", "pub 12"},
		{"missing parameter type", "func f(x) {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, errs := ParseFile("bad.oriz", tt.src)
			require.NotEmpty(t, errs)
			var pe *ParseError
			require.ErrorAs(t, errs[0], &pe)
			assert.Equal(t, "bad.oriz", pe.Position.File)
			assert.Equal(t, tt.src, root.Text())
		})
	}
}

func TestParseDeclaration(t *testing.T) {
	node, err := ParseDeclaration("func f() = 1\n")
	require.NoError(t, err)
	assert.Equal(t, syntax.KindFunction, node.Kind())

	_, err = ParseDeclaration("func f() = 1\nfunc g() = 2\n")
	require.Error(t, err)

	_, err = ParseDeclaration("func (")
	require.Error(t, err)
}
