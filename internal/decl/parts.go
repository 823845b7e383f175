package decl

import (
	"strings"

	"github.com/orizon-lang/declview/internal/lexer"
	"github.com/orizon-lang/declview/internal/stub"
	"github.com/orizon-lang/declview/internal/syntax"
)

// ModifierList holds the annotations and modifier keywords of a
// declaration or a parameter.
type ModifierList struct {
	base
}

func (m *ModifierList) Accept(v Visitor) any { return v.VisitModifierList(m) }

func (m *ModifierList) Annotations() []*Annotation {
	return childrenAs[*Annotation](m.children(syntax.KindAnnotation))
}

// Modifiers returns the modifier keywords in source order.
func (m *ModifierList) Modifiers() []string {
	if s, ok := stubAs[*stub.ModifierList](&m.base); ok {
		return s.Modifiers
	}
	var out []string
	for _, c := range m.Node().Children() {
		if c.IsToken() && !c.TokenType().IsTrivia() {
			out = append(out, c.Token().Literal)
		}
	}
	return out
}

func (m *ModifierList) HasModifier(keyword string) bool {
	for _, k := range m.Modifiers() {
		if k == keyword {
			return true
		}
	}
	return false
}

// Annotation is an annotation entry: '@' qualified name and optional
// arguments.
type Annotation struct {
	base
}

func (a *Annotation) Accept(v Visitor) any { return v.VisitAnnotation(a) }

// QualifiedName returns the name as written, e.g. "memo.Memo".
func (a *Annotation) QualifiedName() string {
	if s, ok := stubAs[*stub.Annotation](&a.base); ok {
		return s.QualifiedName
	}
	return qualifiedName(a.Node())
}

// ShortName returns the last segment of the name.
func (a *Annotation) ShortName() string {
	if s, ok := stubAs[*stub.Annotation](&a.base); ok {
		return s.ShortName
	}
	name := a.QualifiedName()
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func (a *Annotation) HasArguments() bool {
	if s, ok := stubAs[*stub.Annotation](&a.base); ok {
		return s.HasArguments
	}
	return a.Node().FirstChildOfKind(syntax.KindValueArgumentList) != nil
}

// Arguments returns the text between the parentheses.
func (a *Annotation) Arguments() string {
	if s, ok := stubAs[*stub.Annotation](&a.base); ok {
		return s.Arguments
	}
	args := a.Node().FirstChildOfKind(syntax.KindValueArgumentList)
	if args == nil {
		return ""
	}
	return argumentsText(args)
}

// argumentsText strips the outer parentheses of a value argument list.
func argumentsText(args *syntax.Node) string {
	text := args.Text()
	text = strings.TrimPrefix(text, "(")
	text = strings.TrimSuffix(strings.TrimRightFunc(text, isSpace), ")")
	return strings.TrimSpace(text)
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }

// TypeParameterList is '<' type parameters '>'.
type TypeParameterList struct {
	base
}

func (l *TypeParameterList) Accept(v Visitor) any { return v.VisitTypeParameterList(l) }

func (l *TypeParameterList) Parameters() []*TypeParameter {
	return childrenAs[*TypeParameter](l.children(syntax.KindTypeParameter))
}

type TypeParameter struct {
	base
}

func (p *TypeParameter) Accept(v Visitor) any { return v.VisitTypeParameter(p) }

func (p *TypeParameter) Name() string {
	if s, ok := stubAs[*stub.TypeParameter](&p.base); ok {
		return s.Name
	}
	name, _ := varianceAndName(p.Node())
	return name
}

// Variance returns the marker before the name such as "out", or "".
func (p *TypeParameter) Variance() string {
	if s, ok := stubAs[*stub.TypeParameter](&p.base); ok {
		return s.Variance
	}
	_, variance := varianceAndName(p.Node())
	return variance
}

func varianceAndName(n *syntax.Node) (name, variance string) {
	var ids []string
	for _, c := range n.Children() {
		if c.IsToken() && c.TokenType().IsIdentLike() {
			ids = append(ids, c.Token().Literal)
		}
	}
	switch len(ids) {
	case 0:
		return "", ""
	case 1:
		return ids[0], ""
	}
	return ids[1], ids[0]
}

// Bound returns the upper bound after ':'.
func (p *TypeParameter) Bound() *TypeReference {
	return childAs[*TypeReference](p.child(syntax.KindTypeReference))
}

// TypeConstraintList is a where clause.
type TypeConstraintList struct {
	base
}

func (l *TypeConstraintList) Accept(v Visitor) any { return v.VisitTypeConstraintList(l) }

func (l *TypeConstraintList) Constraints() []*TypeConstraint {
	return childrenAs[*TypeConstraint](l.children(syntax.KindTypeConstraint))
}

type TypeConstraint struct {
	base
}

func (c *TypeConstraint) Accept(v Visitor) any { return v.VisitTypeConstraint(c) }

// SubjectName returns the constrained type parameter.
func (c *TypeConstraint) SubjectName() string {
	if s, ok := stubAs[*stub.TypeConstraint](&c.base); ok {
		return s.SubjectName
	}
	if id := c.nameIdentifier(); id != nil {
		return id.Token().Literal
	}
	return ""
}

func (c *TypeConstraint) Bound() *TypeReference {
	return childAs[*TypeReference](c.child(syntax.KindTypeReference))
}

// ValueParameterList is '(' parameters ')'.
type ValueParameterList struct {
	base
}

func (l *ValueParameterList) Accept(v Visitor) any { return v.VisitParameterList(l) }

func (l *ValueParameterList) Parameters() []*ValueParameter {
	return childrenAs[*ValueParameter](l.children(syntax.KindValueParameter))
}

type ValueParameter struct {
	base
}

func (p *ValueParameter) Accept(v Visitor) any { return v.VisitParameter(p) }

func (p *ValueParameter) Name() string {
	if s, ok := stubAs[*stub.ValueParameter](&p.base); ok {
		return s.Name
	}
	name, _ := p.bindingAndName()
	return name
}

// Binding returns "val", "var" or "".
func (p *ValueParameter) Binding() string {
	if s, ok := stubAs[*stub.ValueParameter](&p.base); ok {
		return s.Binding
	}
	_, binding := p.bindingAndName()
	return binding
}

func (p *ValueParameter) bindingAndName() (name, binding string) {
	for _, c := range p.Node().Children() {
		if !c.IsToken() {
			continue
		}
		tt := c.TokenType()
		if (tt == lexer.TokenVal || tt == lexer.TokenVar) && binding == "" && isNameAfter(c) {
			binding = c.Token().Literal
			continue
		}
		if tt.IsIdentLike() {
			return c.Token().Literal, binding
		}
		if tt == lexer.TokenColon {
			break
		}
	}
	return "", binding
}

func isNameAfter(n *syntax.Node) bool {
	s := syntax.NextSignificantSibling(n)
	return s != nil && s.IsToken() && s.TokenType().IsIdentLike()
}

func (p *ValueParameter) ModifierList() *ModifierList {
	return childAs[*ModifierList](p.child(syntax.KindModifierList))
}

func (p *ValueParameter) TypeReference() *TypeReference {
	return childAs[*TypeReference](p.child(syntax.KindTypeReference))
}

func (p *ValueParameter) HasDefaultValue() bool {
	if s, ok := stubAs[*stub.ValueParameter](&p.base); ok {
		return s.HasDefaultValue
	}
	return p.DefaultValue() != nil
}

// DefaultValue returns the expression after '='.
func (p *ValueParameter) DefaultValue() *Body {
	n := p.Node()
	if n == nil {
		return nil
	}
	return childAs[*Body](p.file.elementForNode(syntax.NextSiblingOfKind(n.FirstToken(lexer.TokenAssign), syntax.KindExpression)))
}

// TypeReference is a reference to a type.
type TypeReference struct {
	base
}

func (t *TypeReference) Accept(v Visitor) any { return v.VisitTypeReference(t) }

// TypeText returns the reference with comments dropped and whitespace
// collapsed, the same whether read from the stub or the tree.
func (t *TypeReference) TypeText() string {
	if s, ok := stubAs[*stub.TypeReference](&t.base); ok {
		return s.Text
	}
	return t.Node().SignificantText()
}

// IsNullable reports a trailing '?'.
func (t *TypeReference) IsNullable() bool {
	return strings.HasSuffix(t.TypeText(), "?")
}

// Body is a block or an expression. Bodies are never stubbed.
type Body struct {
	base
}

func (b *Body) Accept(v Visitor) any { return v.VisitBody(b) }

// IsBlock reports whether the body is a braces block.
func (b *Body) IsBlock() bool { return b.kind == syntax.KindBlock }

// LocalDeclarations returns the declarations nested directly in a block.
func (b *Body) LocalDeclarations() []Declaration {
	var out []Declaration
	syntax.Walk(b.Node(), func(n *syntax.Node) bool {
		if n == b.node {
			return true
		}
		if n.Kind().IsDeclaration() {
			out = append(out, b.file.elementForNode(n).(Declaration))
			return false
		}
		return n.Kind() == syntax.KindBlock
	})
	return out
}
