package decl

import (
	"github.com/orizon-lang/declview/internal/lexer"
	"github.com/orizon-lang/declview/internal/stub"
	"github.com/orizon-lang/declview/internal/syntax"
)

// Declaration is a named declaration: a function or a class.
type Declaration interface {
	Element
	Name() string
	ModifierList() *ModifierList
	Modifiers() []string
	Annotations() []*Annotation
	HasModifier(keyword string) bool
}

// TypeParameterListOwner is a declaration that may declare type parameters
// and constraints. It is the unit macro expansion applies to.
type TypeParameterListOwner interface {
	Declaration
	TypeParameterList() *TypeParameterList
	TypeParameters() []*TypeParameter
	TypeConstraintList() *TypeConstraintList
	TypeConstraints() []*TypeConstraint

	IsHidden() bool
	IsRoot() bool
	HiddenElement() TypeParameterListOwner
	HasHiddenElementInitialized() bool
	ReplacedElement() TypeParameterListOwner
	SetReplacedElement(e TypeParameterListOwner)
	InitializeHiddenElement(x MacroExpander) error
	MetaTools() MetaTools
	SetMetaTools(t MetaTools)

	replacement() *ReplacementState
}

// owner carries what functions and classes share.
type owner struct {
	base
	state ReplacementState
}

func (o *owner) initOwner(self TypeParameterListOwner) {
	o.state.init(self, o.file.tools)
}

func (o *owner) replacement() *ReplacementState { return &o.state }

func (o *owner) TypeParameterList() *TypeParameterList {
	return childAs[*TypeParameterList](o.child(syntax.KindTypeParameterList))
}

// TypeParameters returns the parameters of every type parameter list.
// Functions may declare one before and one after the name.
func (o *owner) TypeParameters() []*TypeParameter {
	var out []*TypeParameter
	for _, l := range childrenAs[*TypeParameterList](o.children(syntax.KindTypeParameterList)) {
		out = append(out, l.Parameters()...)
	}
	return out
}

func (o *owner) TypeConstraintList() *TypeConstraintList {
	return childAs[*TypeConstraintList](o.child(syntax.KindTypeConstraintList))
}

func (o *owner) TypeConstraints() []*TypeConstraint {
	if l := o.TypeConstraintList(); l != nil {
		return l.Constraints()
	}
	return nil
}

func (o *owner) ModifierList() *ModifierList {
	return childAs[*ModifierList](o.child(syntax.KindModifierList))
}

func (o *owner) Annotations() []*Annotation {
	if ml := o.ModifierList(); ml != nil {
		return ml.Annotations()
	}
	return nil
}

func (o *owner) HasModifier(keyword string) bool {
	if ml := o.ModifierList(); ml != nil {
		return ml.HasModifier(keyword)
	}
	return false
}

// Modifiers returns the modifier keywords in source order.
func (o *owner) Modifiers() []string {
	if ml := o.ModifierList(); ml != nil {
		return ml.Modifiers()
	}
	return nil
}

func (o *owner) IsHidden() bool                        { return o.state.isHidden }
func (o *owner) IsRoot() bool                          { return o.state.isRoot }
func (o *owner) HiddenElement() TypeParameterListOwner { return o.state.hidden }
func (o *owner) HasHiddenElementInitialized() bool     { return o.state.hidden != nil }
func (o *owner) ReplacedElement() TypeParameterListOwner {
	return o.state.replacedElement()
}
func (o *owner) SetReplacedElement(e TypeParameterListOwner) { o.state.setReplaced(e) }
func (o *owner) MetaTools() MetaTools                        { return o.state.tools }
func (o *owner) SetMetaTools(t MetaTools)                    { o.state.tools = t }

func (o *owner) InitializeHiddenElement(x MacroExpander) error {
	return o.state.initializeHiddenElement(x)
}

// Name returns the declared name, empty when it is missing.
func (o *owner) Name() string {
	if o.stub != nil {
		if name, ok := stubName(o.stub); ok {
			return name
		}
	}
	if id := o.NameIdentifier(); id != nil {
		return id.Token().Literal
	}
	return ""
}

// NameIdentifier returns the name leaf. It always reads the tree.
func (o *owner) NameIdentifier() *syntax.Node {
	return o.nameIdentifier()
}

// stubName is implemented by stubs that carry a declaration name.
func stubName(s stub.Stub) (string, bool) {
	switch s := s.(type) {
	case *stub.Function:
		return s.Name, true
	case *stub.Class:
		return s.Name, true
	}
	return "", false
}

// Colon returns the ':' leaf directly under the declaration.
func (o *owner) Colon() *syntax.Node {
	return o.token(lexer.TokenColon)
}
