package decl

import (
	"github.com/orizon-lang/declview/internal/lexer"
	"github.com/orizon-lang/declview/internal/stub"
	"github.com/orizon-lang/declview/internal/syntax"
)

// Function is a function declaration, top level, member or local.
type Function struct {
	owner
}

func (f *Function) Accept(v Visitor) any { return v.VisitFunction(f) }

func (f *Function) fnStub() *stub.Function {
	s, _ := stubAs[*stub.Function](&f.base)
	return s
}

// HasBlockBody reports the absence of an '=' initializer. A function
// without any body also has a block body by this definition.
func (f *Function) HasBlockBody() bool {
	if s := f.fnStub(); s != nil {
		return s.HasBlockBody
	}
	return f.EqualsToken() == nil
}

// HasBody reports whether the function has a block or an expression body.
func (f *Function) HasBody() bool {
	if s := f.fnStub(); s != nil {
		return s.HasBody
	}
	return f.BodyExpression() != nil
}

// BodyExpression returns the block or the '=' expression.
func (f *Function) BodyExpression() *Body {
	n := f.Node()
	if n == nil {
		return nil
	}
	return childAs[*Body](f.file.elementForNode(n.FirstChildOfKinds(syntax.KindBlock, syntax.KindExpression)))
}

// EqualsToken returns the '=' leaf introducing an expression body.
func (f *Function) EqualsToken() *syntax.Node {
	return f.token(lexer.TokenAssign)
}

// Initializer returns the expression after '='.
func (f *Function) Initializer() *Body {
	eq := f.EqualsToken()
	if eq == nil {
		return nil
	}
	return childAs[*Body](f.file.elementForNode(syntax.NextSiblingOfKind(eq, syntax.KindExpression)))
}

func (f *Function) HasInitializer() bool { return f.Initializer() != nil }

// IsExtension reports whether the function declares a receiver type.
func (f *Function) IsExtension() bool {
	if s := f.fnStub(); s != nil {
		return s.IsExtension
	}
	return f.ReceiverTypeReference() != nil
}

// IsLocal reports whether the function is declared inside a body.
func (f *Function) IsLocal() bool {
	if s := f.fnStub(); s != nil {
		return s.IsLocal
	}
	p := f.Node().Parent()
	if p == nil {
		return false
	}
	return p.Kind() != syntax.KindFile && p.Kind() != syntax.KindClassBody
}

// HasTypeParameterListBeforeName reports whether a type parameter list
// precedes the name in the text.
func (f *Function) HasTypeParameterListBeforeName() bool {
	if s := f.fnStub(); s != nil {
		return s.HasTypeParameterListBeforeName
	}
	tpl := f.TypeParameterList()
	name := f.NameIdentifier()
	if tpl == nil || name == nil {
		return false
	}
	return tpl.Node().TextOffset() < name.TextOffset()
}

// ReceiverTypeReference returns the receiver type of an extension function.
// The tree scan stops at the value parameter list or a ':' so that the
// return type is never taken for a receiver.
func (f *Function) ReceiverTypeReference() *TypeReference {
	if s := f.fnStub(); s != nil {
		if !s.IsExtension {
			return nil
		}
		return childAs[*TypeReference](f.file.elementForStub(stub.ChildOfKindAt(s, syntax.KindTypeReference, 0)))
	}
	for _, c := range f.Node().Children() {
		if c.Is(lexer.TokenLParen) || c.Is(lexer.TokenColon) || c.Kind() == syntax.KindValueParameterList {
			return nil
		}
		if c.Kind() == syntax.KindTypeReference {
			return childAs[*TypeReference](f.file.elementForNode(c))
		}
	}
	return nil
}

// TypeReference returns the declared return type.
func (f *Function) TypeReference() *TypeReference {
	if s := f.fnStub(); s != nil {
		index := 0
		if s.IsExtension {
			index = 1
		}
		return childAs[*TypeReference](f.file.elementForStub(stub.ChildOfKindAt(s, syntax.KindTypeReference, index)))
	}
	return childAs[*TypeReference](f.file.elementForNode(syntax.NextSiblingOfKind(f.Colon(), syntax.KindTypeReference)))
}

func (f *Function) HasDeclaredReturnType() bool { return f.TypeReference() != nil }

func (f *Function) ValueParameterList() *ValueParameterList {
	return childAs[*ValueParameterList](f.child(syntax.KindValueParameterList))
}

func (f *Function) ValueParameters() []*ValueParameter {
	if l := f.ValueParameterList(); l != nil {
		return l.Parameters()
	}
	return nil
}
