// Package decl exposes declarations of a parsed or indexed file as typed
// elements. Every structural accessor answers from the attached stub when
// one exists and otherwise walks the concrete syntax tree; both paths give
// the same answer for the same text. Declarations that can carry type
// parameters also carry a ReplacementState that links them to the
// declaration generated by a macro.
//
// Elements of one file must not be used from several goroutines at once.
package decl

import (
	"github.com/orizon-lang/declview/internal/lexer"
	"github.com/orizon-lang/declview/internal/stub"
	"github.com/orizon-lang/declview/internal/syntax"
)

// Element is a typed view over one node of a file.
type Element interface {
	Kind() syntax.Kind
	// File returns the file owning the element.
	File() *File
	// Node returns the tree node, parsing the file first if it is stub based.
	Node() *syntax.Node
	// Stub returns the attached stub or nil.
	Stub() stub.Stub
	// Parent returns the enclosing element, nil for files.
	Parent() Element
	// Text returns the exact source text of the element.
	Text() string
	Accept(v Visitor) any
}

type base struct {
	kind syntax.Kind
	file *File
	node *syntax.Node
	stub stub.Stub
}

func (b *base) Kind() syntax.Kind { return b.kind }
func (b *base) File() *File       { return b.file }
func (b *base) Stub() stub.Stub   { return b.stub }

func (b *base) Node() *syntax.Node {
	if b.node == nil {
		b.file.Root()
	}
	return b.node
}

func (b *base) Text() string {
	if n := b.Node(); n != nil {
		return n.Text()
	}
	return ""
}

func (b *base) Parent() Element {
	if b.stub != nil {
		if p := b.stub.Parent(); p != nil {
			return b.file.elementForStub(p)
		}
		return nil
	}
	for n := b.Node().Parent(); n != nil; n = n.Parent() {
		if e := b.file.elementForNode(n); e != nil {
			return e
		}
	}
	return nil
}

// child returns the first direct child element of kind k. Kinds that are
// not part of stub trees are always looked up in the tree.
func (b *base) child(k syntax.Kind) Element {
	if b.stub != nil && stub.Stubbed(k) {
		if s := stub.ChildOfKind(b.stub, k); s != nil {
			return b.file.elementForStub(s)
		}
		return nil
	}
	if n := b.Node(); n != nil {
		return b.file.elementForNode(n.FirstChildOfKind(k))
	}
	return nil
}

func (b *base) children(k syntax.Kind) []Element {
	var out []Element
	if b.stub != nil && stub.Stubbed(k) {
		for _, s := range stub.ChildrenOfKind(b.stub, k) {
			out = append(out, b.file.elementForStub(s))
		}
		return out
	}
	if n := b.Node(); n != nil {
		for _, c := range n.ChildrenOfKind(k) {
			out = append(out, b.file.elementForNode(c))
		}
	}
	return out
}

// token returns the first direct leaf of type tt. Tokens only exist in the
// tree.
func (b *base) token(tt lexer.TokenType) *syntax.Node {
	if n := b.Node(); n != nil {
		return n.FirstToken(tt)
	}
	return nil
}

// nameIdentifier returns the first direct identifier-like leaf.
func (b *base) nameIdentifier() *syntax.Node {
	n := b.Node()
	if n == nil {
		return nil
	}
	for _, c := range n.Children() {
		if c.IsToken() && c.TokenType().IsIdentLike() {
			return c
		}
	}
	return nil
}

func childAs[T Element](e Element) T {
	var zero T
	if e == nil {
		return zero
	}
	t, _ := e.(T)
	return t
}

func childrenAs[T Element](es []Element) []T {
	out := make([]T, 0, len(es))
	for _, e := range es {
		if t, ok := e.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// stubAs returns the attached stub as a concrete stub type.
func stubAs[T stub.Stub](b *base) (T, bool) {
	var zero T
	if b.stub == nil {
		return zero, false
	}
	t, ok := b.stub.(T)
	return t, ok
}
