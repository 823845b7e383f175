// Package index builds stub trees from parsed files and keeps them per path
// so that unchanged files can be opened without parsing.
package index

import (
	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/stub"
	"github.com/orizon-lang/declview/internal/syntax"
)

// Build computes the stub tree of f from its syntax tree. The answers are
// the tree answers of the declaration accessors, so a stub based view of
// the same text agrees with the tree by construction.
func Build(f *decl.File) *stub.File {
	tree := decl.NewFile(f.Path(), f.Text(), f.Root(), nil)
	sf := &stub.File{
		Path:        tree.Path(),
		PackageName: tree.PackageName(),
		Imports:     tree.Imports(),
	}
	b := &builder{file: tree}
	b.children(sf, tree.Root())
	return sf
}

type builder struct {
	decl.BaseVisitor
	file *decl.File
}

// children mirrors the walk of stub.StubbedNodes: bodies are skipped and
// nodes of kinds without stubs are transparent.
func (b *builder) children(parent stub.Stub, n *syntax.Node) {
	for _, c := range n.Children() {
		if c.IsToken() || c.Kind().IsBody() {
			continue
		}
		if !stub.Stubbed(c.Kind()) {
			b.children(parent, c)
			continue
		}
		s, _ := b.file.ElementFor(c).Accept(b).(stub.Stub)
		stub.Append(parent, s)
		b.children(s, c)
	}
}

func (b *builder) VisitFunction(f *decl.Function) any {
	return &stub.Function{
		Name:                           f.Name(),
		HasBlockBody:                   f.HasBlockBody(),
		HasBody:                        f.HasBody(),
		IsExtension:                    f.IsExtension(),
		HasTypeParameterListBeforeName: f.HasTypeParameterListBeforeName(),
		IsLocal:                        f.IsLocal(),
	}
}

func (b *builder) VisitClass(c *decl.Class) any {
	return &stub.Class{
		Name:        c.Name(),
		IsInterface: c.IsInterface(),
		IsObject:    c.IsObject(),
	}
}

func (b *builder) VisitClassBody(*decl.ClassBody) any { return &stub.ClassBody{} }

func (b *builder) VisitModifierList(m *decl.ModifierList) any {
	return &stub.ModifierList{Modifiers: m.Modifiers()}
}

func (b *builder) VisitAnnotation(a *decl.Annotation) any {
	return &stub.Annotation{
		ShortName:     a.ShortName(),
		QualifiedName: a.QualifiedName(),
		Arguments:     a.Arguments(),
		HasArguments:  a.HasArguments(),
	}
}

func (b *builder) VisitTypeParameterList(*decl.TypeParameterList) any {
	return &stub.TypeParameterList{}
}

func (b *builder) VisitTypeParameter(p *decl.TypeParameter) any {
	return &stub.TypeParameter{Name: p.Name(), Variance: p.Variance()}
}

func (b *builder) VisitTypeConstraintList(*decl.TypeConstraintList) any {
	return &stub.TypeConstraintList{}
}

func (b *builder) VisitTypeConstraint(c *decl.TypeConstraint) any {
	return &stub.TypeConstraint{SubjectName: c.SubjectName()}
}

func (b *builder) VisitParameterList(*decl.ValueParameterList) any {
	return &stub.ValueParameterList{}
}

func (b *builder) VisitParameter(p *decl.ValueParameter) any {
	return &stub.ValueParameter{
		Name:            p.Name(),
		Binding:         p.Binding(),
		HasDefaultValue: p.HasDefaultValue(),
	}
}

func (b *builder) VisitTypeReference(t *decl.TypeReference) any {
	return &stub.TypeReference{Text: t.TypeText()}
}
