package decl

import (
	"strings"
	"weak"

	"github.com/orizon-lang/declview/internal/errors"
	"github.com/orizon-lang/declview/internal/lexer"
	"github.com/orizon-lang/declview/internal/parser"
	"github.com/orizon-lang/declview/internal/stub"
	"github.com/orizon-lang/declview/internal/syntax"
)

// File is the root element of one source file. A file is either tree
// based, or stub based with its tree parsed from the text on first need.
type File struct {
	path string
	text string

	root        *syntax.Node
	parseErrors []error
	stub        *stub.File
	bindErr     error

	tools           MetaTools
	analysisContext weak.Pointer[File]

	byNode map[*syntax.Node]Element
	byStub map[stub.Stub]Element

	nodeToStub map[*syntax.Node]stub.Stub
	stubToNode map[stub.Stub]*syntax.Node
}

// NewFile wraps an already parsed tree.
func NewFile(path, text string, root *syntax.Node, tools MetaTools) *File {
	f := newFile(path, text, tools)
	f.root = root
	return f
}

// ParseFile parses text and wraps the resulting tree. Parse errors do not
// prevent building the file; they are available from ParseErrors.
func ParseFile(path, text string, tools MetaTools) *File {
	root, errs := parser.ParseFile(path, text)
	f := NewFile(path, text, root, tools)
	f.parseErrors = errs
	return f
}

// NewStubFile creates a file whose elements answer from s. The text is
// parsed only when an accessor needs the tree.
func NewStubFile(path, text string, s *stub.File, tools MetaTools) *File {
	f := newFile(path, text, tools)
	f.stub = s
	return f
}

func newFile(path, text string, tools MetaTools) *File {
	return &File{
		path:       path,
		text:       text,
		tools:      tools,
		byNode:     make(map[*syntax.Node]Element),
		byStub:     make(map[stub.Stub]Element),
		nodeToStub: make(map[*syntax.Node]stub.Stub),
		stubToNode: make(map[stub.Stub]*syntax.Node),
	}
}

func (f *File) Kind() syntax.Kind { return syntax.KindFile }
func (f *File) File() *File       { return f }
func (f *File) Parent() Element   { return nil }
func (f *File) Path() string      { return f.path }
func (f *File) Text() string      { return f.text }
func (f *File) Node() *syntax.Node {
	return f.Root()
}

func (f *File) Stub() stub.Stub {
	if f.stub == nil {
		return nil
	}
	return f.stub
}

// StubFile returns the stub tree the file was created from, or nil.
func (f *File) StubFile() *stub.File { return f.stub }

// IsStubBased reports whether the file was created from a stub tree.
func (f *File) IsStubBased() bool { return f.stub != nil }

// IsMaterialized reports whether the tree has been parsed.
func (f *File) IsMaterialized() bool { return f.root != nil }

func (f *File) Accept(v Visitor) any { return v.VisitFile(f) }

// Root returns the tree, parsing the text on first use for stub based
// files. Elements created from stubs are bound to their nodes.
func (f *File) Root() *syntax.Node {
	if f.root != nil {
		return f.root
	}
	root, errs := parser.ParseFile(f.path, f.text)
	f.root = root
	f.parseErrors = errs
	if f.stub != nil {
		f.bind()
	}
	return f.root
}

// bind pairs stubs and nodes by their pre-order position. A stub tree
// that does not line up with the tree is left unbound; its elements keep
// answering from the stub.
func (f *File) bind() {
	nodes := stub.StubbedNodes(f.root)
	stubs := stub.Preorder(f.stub)
	if len(nodes) != len(stubs) {
		f.bindErr = errors.StaleStub(f.path)
		return
	}
	for i := range nodes {
		if nodes[i].Kind() != stubs[i].Kind() {
			f.bindErr = errors.StaleStub(f.path)
			return
		}
	}
	for i := range nodes {
		f.nodeToStub[nodes[i]] = stubs[i]
		f.stubToNode[stubs[i]] = nodes[i]
		if e, ok := f.byStub[stubs[i]]; ok {
			setNode(e, nodes[i])
			f.byNode[nodes[i]] = e
		}
	}
}

// StubError reports a stub tree that did not match the parsed text.
func (f *File) StubError() error { return f.bindErr }

// ParseErrors returns the errors of the last parse.
func (f *File) ParseErrors() []error { return f.parseErrors }

// MetaTools returns the conversion facility used for macro expansion.
func (f *File) MetaTools() MetaTools { return f.tools }

// SetMetaTools replaces the conversion facility. Owners created afterwards
// pick it up; existing owners keep theirs.
func (f *File) SetMetaTools(t MetaTools) { f.tools = t }

// AnalysisContext returns the file whose scope generated declarations are
// resolved in, or f itself.
func (f *File) AnalysisContext() *File {
	if ctx := f.analysisContext.Value(); ctx != nil {
		return ctx
	}
	return f
}

// SetAnalysisContext records ctx without keeping it alive.
func (f *File) SetAnalysisContext(ctx *File) {
	if ctx == nil {
		f.analysisContext = weak.Pointer[File]{}
		return
	}
	f.analysisContext = weak.Make(ctx)
}

// PackageName returns the declared package, empty when there is none.
func (f *File) PackageName() string {
	if f.stub != nil {
		return f.stub.PackageName
	}
	pd := f.Root().FirstChildOfKind(syntax.KindPackageDirective)
	if pd == nil {
		return ""
	}
	return qualifiedName(pd)
}

// Imports returns the import directives in source order.
func (f *File) Imports() []stub.Import {
	if f.stub != nil {
		return f.stub.Imports
	}
	list := f.Root().FirstChildOfKind(syntax.KindImportList)
	if list == nil {
		return nil
	}
	var out []stub.Import
	for _, d := range list.ChildrenOfKind(syntax.KindImportDirective) {
		out = append(out, importOf(d))
	}
	return out
}

// ResolutionScope returns the imports that annotation names on this file's
// declarations are resolved against. Generated files resolve in their
// analysis context.
func (f *File) ResolutionScope() []stub.Import {
	return f.AnalysisContext().Imports()
}

func importOf(d *syntax.Node) stub.Import {
	var imp stub.Import
	var parts []string
	afterAs := false
	for _, c := range d.Children() {
		if !c.IsToken() {
			continue
		}
		switch tt := c.TokenType(); {
		case tt == lexer.TokenImport, tt == lexer.TokenDot:
		case tt == lexer.TokenMul:
			imp.AllUnder = true
		case tt == lexer.TokenAs && !afterAs && len(parts) > 0 && !imp.AllUnder && nextIsName(c):
			afterAs = true
		case tt.IsIdentLike():
			if afterAs {
				imp.Alias = c.Token().Literal
			} else {
				parts = append(parts, c.Token().Literal)
			}
		}
	}
	imp.Path = strings.Join(parts, ".")
	return imp
}

func nextIsName(n *syntax.Node) bool {
	s := syntax.NextSignificantSibling(n)
	return s != nil && s.IsToken() && s.TokenType().IsIdentLike()
}

// qualifiedName joins the identifier leaves directly under n.
func qualifiedName(n *syntax.Node) string {
	var parts []string
	for _, c := range n.Children() {
		if c.IsToken() && c.TokenType().IsIdentLike() {
			parts = append(parts, c.Token().Literal)
		}
	}
	return strings.Join(parts, ".")
}

// Declarations returns the top level functions and classes.
func (f *File) Declarations() []Declaration {
	if f.stub != nil {
		var out []Declaration
		for _, s := range f.stub.Children() {
			if s.Kind().IsDeclaration() {
				out = append(out, f.elementForStub(s).(Declaration))
			}
		}
		return out
	}
	var out []Declaration
	for _, c := range f.Root().Children() {
		if c.Kind().IsDeclaration() {
			out = append(out, f.elementForNode(c).(Declaration))
		}
	}
	return out
}

// ElementFor returns the element wrapping n, or nil when n is not an
// element node. The same node always yields the same element.
func (f *File) ElementFor(n *syntax.Node) Element {
	return f.elementForNode(n)
}

func (f *File) elementForNode(n *syntax.Node) Element {
	if n == nil {
		return nil
	}
	if n.Kind() == syntax.KindFile {
		return f
	}
	if e, ok := f.byNode[n]; ok {
		return e
	}
	s := f.nodeToStub[n]
	if s != nil {
		if e, ok := f.byStub[s]; ok {
			setNode(e, n)
			f.byNode[n] = e
			return e
		}
	}
	e := f.newElement(n.Kind(), n, s)
	if e == nil {
		return nil
	}
	f.byNode[n] = e
	if s != nil {
		f.byStub[s] = e
	}
	return e
}

func (f *File) elementForStub(s stub.Stub) Element {
	if s == nil {
		return nil
	}
	if s.Kind() == syntax.KindFile {
		return f
	}
	if e, ok := f.byStub[s]; ok {
		return e
	}
	n := f.stubToNode[s]
	e := f.newElement(s.Kind(), n, s)
	if e == nil {
		return nil
	}
	f.byStub[s] = e
	if n != nil {
		f.byNode[n] = e
	}
	return e
}

func (f *File) newElement(k syntax.Kind, n *syntax.Node, s stub.Stub) Element {
	b := base{kind: k, file: f, node: n, stub: s}
	switch k {
	case syntax.KindFunction:
		fn := &Function{owner: owner{base: b}}
		fn.initOwner(fn)
		return fn
	case syntax.KindClass:
		c := &Class{owner: owner{base: b}}
		c.initOwner(c)
		return c
	case syntax.KindClassBody:
		return &ClassBody{base: b}
	case syntax.KindModifierList:
		return &ModifierList{base: b}
	case syntax.KindAnnotation:
		return &Annotation{base: b}
	case syntax.KindTypeParameterList:
		return &TypeParameterList{base: b}
	case syntax.KindTypeParameter:
		return &TypeParameter{base: b}
	case syntax.KindTypeConstraintList:
		return &TypeConstraintList{base: b}
	case syntax.KindTypeConstraint:
		return &TypeConstraint{base: b}
	case syntax.KindValueParameterList:
		return &ValueParameterList{base: b}
	case syntax.KindValueParameter:
		return &ValueParameter{base: b}
	case syntax.KindTypeReference:
		return &TypeReference{base: b}
	case syntax.KindBlock, syntax.KindExpression:
		return &Body{base: b}
	}
	return nil
}

// setNode binds a stub created element to its node after materialization.
func setNode(e Element, n *syntax.Node) {
	if b, ok := e.(interface{ baseOf() *base }); ok {
		b.baseOf().node = n
	}
}

func (b *base) baseOf() *base { return b }
