// Package stub holds the serialized summaries of declarations. A stub tree
// answers the signature questions about a file without parsing it: names,
// shapes and the presence of bodies. Bodies themselves are never stubbed.
package stub

import (
	"github.com/orizon-lang/declview/internal/syntax"
)

// Stub is a node of a stub tree. Each stub mirrors one node of the
// concrete syntax tree of the same kind.
type Stub interface {
	Kind() syntax.Kind
	Parent() Stub
	Children() []Stub
	base() *Base
}

// Base carries the tree links shared by every stub.
type Base struct {
	parent   Stub
	children []Stub
}

func (b *Base) Parent() Stub     { return b.parent }
func (b *Base) Children() []Stub { return b.children }
func (b *Base) base() *Base      { return b }

// Append links child under parent and returns child.
func Append[T Stub](parent Stub, child T) T {
	child.base().parent = parent
	pb := parent.base()
	pb.children = append(pb.children, child)
	return child
}

// Stubbed reports whether nodes of kind k are represented in stub trees.
func Stubbed(k syntax.Kind) bool {
	switch k {
	case syntax.KindFile,
		syntax.KindFunction,
		syntax.KindClass,
		syntax.KindClassBody,
		syntax.KindModifierList,
		syntax.KindAnnotation,
		syntax.KindTypeParameterList,
		syntax.KindTypeParameter,
		syntax.KindTypeConstraintList,
		syntax.KindTypeConstraint,
		syntax.KindValueParameterList,
		syntax.KindValueParameter,
		syntax.KindTypeReference:
		return true
	}
	return false
}

// File is the root stub.
type File struct {
	Base
	Path        string
	PackageName string
	Imports     []Import
}

// Import mirrors an import directive.
type Import struct {
	Path     string
	Alias    string
	AllUnder bool
}

// Function summarizes a function declaration. Local functions are never
// stubbed, so IsLocal is false on every function stub built from a file;
// the field exists for stubs built by hand.
type Function struct {
	Base
	Name                           string
	HasBlockBody                   bool
	HasBody                        bool
	IsExtension                    bool
	HasTypeParameterListBeforeName bool
	IsLocal                        bool
}

// Class summarizes a class, interface or object declaration.
type Class struct {
	Base
	Name        string
	IsInterface bool
	IsObject    bool
}

type ClassBody struct{ Base }

type ModifierList struct {
	Base
	Modifiers []string
}

type Annotation struct {
	Base
	ShortName     string
	QualifiedName string
	Arguments     string
	HasArguments  bool
}

type TypeParameterList struct{ Base }

type TypeParameter struct {
	Base
	Name     string
	Variance string
}

type TypeConstraintList struct{ Base }

type TypeConstraint struct {
	Base
	SubjectName string
}

type ValueParameterList struct{ Base }

type ValueParameter struct {
	Base
	Name            string
	Binding         string
	HasDefaultValue bool
}

// TypeReference keeps the significant text of the reference.
type TypeReference struct {
	Base
	Text string
}

func (*File) Kind() syntax.Kind               { return syntax.KindFile }
func (*Function) Kind() syntax.Kind           { return syntax.KindFunction }
func (*Class) Kind() syntax.Kind              { return syntax.KindClass }
func (*ClassBody) Kind() syntax.Kind          { return syntax.KindClassBody }
func (*ModifierList) Kind() syntax.Kind       { return syntax.KindModifierList }
func (*Annotation) Kind() syntax.Kind         { return syntax.KindAnnotation }
func (*TypeParameterList) Kind() syntax.Kind  { return syntax.KindTypeParameterList }
func (*TypeParameter) Kind() syntax.Kind      { return syntax.KindTypeParameter }
func (*TypeConstraintList) Kind() syntax.Kind { return syntax.KindTypeConstraintList }
func (*TypeConstraint) Kind() syntax.Kind     { return syntax.KindTypeConstraint }
func (*ValueParameterList) Kind() syntax.Kind { return syntax.KindValueParameterList }
func (*ValueParameter) Kind() syntax.Kind     { return syntax.KindValueParameter }
func (*TypeReference) Kind() syntax.Kind      { return syntax.KindTypeReference }

// ChildOfKind returns the first direct child of kind k.
func ChildOfKind(s Stub, k syntax.Kind) Stub {
	for _, c := range s.Children() {
		if c.Kind() == k {
			return c
		}
	}
	return nil
}

// ChildOfKindAt returns the index-th direct child of kind k.
func ChildOfKindAt(s Stub, k syntax.Kind, index int) Stub {
	n := 0
	for _, c := range s.Children() {
		if c.Kind() != k {
			continue
		}
		if n == index {
			return c
		}
		n++
	}
	return nil
}

// ChildrenOfKind returns every direct child of kind k in order.
func ChildrenOfKind(s Stub, k syntax.Kind) []Stub {
	var out []Stub
	for _, c := range s.Children() {
		if c.Kind() == k {
			out = append(out, c)
		}
	}
	return out
}

// Preorder lists s and its descendants in pre-order.
func Preorder(s Stub) []Stub {
	var out []Stub
	Walk(s, func(x Stub) bool {
		out = append(out, x)
		return true
	})
	return out
}

// Walk visits s and its descendants in pre-order. Returning false skips the
// children of the current stub.
func Walk(s Stub, fn func(Stub) bool) {
	if s == nil || !fn(s) {
		return
	}
	for _, c := range s.Children() {
		Walk(c, fn)
	}
}

// StubbedNodes lists, in pre-order, the nodes of the tree under root that
// a stub tree built from the same text mirrors one to one. Bodies are not
// entered.
func StubbedNodes(root *syntax.Node) []*syntax.Node {
	var out []*syntax.Node
	syntax.Walk(root, func(n *syntax.Node) bool {
		if n.IsToken() || n.Kind().IsBody() {
			return false
		}
		if Stubbed(n.Kind()) {
			out = append(out, n)
		}
		return true
	})
	return out
}
