package decl

import (
	"github.com/orizon-lang/declview/internal/stub"
	"github.com/orizon-lang/declview/internal/syntax"
)

// Visitor dispatches on the element kind.
type Visitor interface {
	VisitFile(f *File) any
	VisitFunction(f *Function) any
	VisitClass(c *Class) any
	VisitClassBody(b *ClassBody) any
	VisitModifierList(m *ModifierList) any
	VisitAnnotation(a *Annotation) any
	VisitTypeParameterList(l *TypeParameterList) any
	VisitTypeParameter(p *TypeParameter) any
	VisitTypeConstraintList(l *TypeConstraintList) any
	VisitTypeConstraint(c *TypeConstraint) any
	VisitParameterList(l *ValueParameterList) any
	VisitParameter(p *ValueParameter) any
	VisitTypeReference(t *TypeReference) any
	VisitBody(b *Body) any
}

// BaseVisitor returns nil for every element. Embed it to implement only
// some methods.
type BaseVisitor struct{}

func (BaseVisitor) VisitFile(*File) any                             { return nil }
func (BaseVisitor) VisitFunction(*Function) any                     { return nil }
func (BaseVisitor) VisitClass(*Class) any                           { return nil }
func (BaseVisitor) VisitClassBody(*ClassBody) any                   { return nil }
func (BaseVisitor) VisitModifierList(*ModifierList) any             { return nil }
func (BaseVisitor) VisitAnnotation(*Annotation) any                 { return nil }
func (BaseVisitor) VisitTypeParameterList(*TypeParameterList) any   { return nil }
func (BaseVisitor) VisitTypeParameter(*TypeParameter) any           { return nil }
func (BaseVisitor) VisitTypeConstraintList(*TypeConstraintList) any { return nil }
func (BaseVisitor) VisitTypeConstraint(*TypeConstraint) any         { return nil }
func (BaseVisitor) VisitParameterList(*ValueParameterList) any      { return nil }
func (BaseVisitor) VisitParameter(*ValueParameter) any              { return nil }
func (BaseVisitor) VisitTypeReference(*TypeReference) any           { return nil }
func (BaseVisitor) VisitBody(*Body) any                             { return nil }

// Walk calls v for e and every element below it in source order. Stub
// based files are walked through their stubs, so bodies are skipped there.
func Walk(e Element, v Visitor) {
	if e == nil {
		return
	}
	e.Accept(v)
	for _, c := range childElements(e) {
		Walk(c, v)
	}
}

func childElements(e Element) []Element {
	f := e.File()
	var out []Element
	if s := e.Stub(); s != nil && (!f.IsMaterialized() || f.bindErr != nil) {
		for _, c := range s.Children() {
			out = append(out, f.elementForStub(c))
		}
		return out
	}
	var collect func(n *syntax.Node)
	collect = func(n *syntax.Node) {
		for _, c := range n.Children() {
			if c.IsToken() {
				continue
			}
			if ce := f.elementForNode(c); ce != nil {
				out = append(out, ce)
				continue
			}
			collect(c)
		}
	}
	collect(e.Node())
	return out
}

// CollectOwners lists every function and class of f in pre-order. Local
// declarations are included only when includeLocals is set; they are
// never part of a stub tree.
func CollectOwners(f *File, includeLocals bool) []TypeParameterListOwner {
	var out []TypeParameterListOwner
	if f.stub != nil && !includeLocals {
		stub.Walk(f.stub, func(s stub.Stub) bool {
			if s.Kind().IsDeclaration() {
				out = append(out, f.elementForStub(s).(TypeParameterListOwner))
			}
			return true
		})
		return out
	}
	syntax.Walk(f.Root(), func(n *syntax.Node) bool {
		if n.IsToken() {
			return false
		}
		if n.Kind().IsBody() && !includeLocals {
			return false
		}
		if n.Kind().IsDeclaration() {
			out = append(out, f.elementForNode(n).(TypeParameterListOwner))
		}
		return true
	})
	return out
}
