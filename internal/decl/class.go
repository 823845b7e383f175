package decl

import (
	"github.com/orizon-lang/declview/internal/lexer"
	"github.com/orizon-lang/declview/internal/stub"
	"github.com/orizon-lang/declview/internal/syntax"
)

// Class is a class, interface or object declaration.
type Class struct {
	owner
}

func (c *Class) Accept(v Visitor) any { return v.VisitClass(c) }

func (c *Class) classStub() *stub.Class {
	s, _ := stubAs[*stub.Class](&c.base)
	return s
}

func (c *Class) IsInterface() bool {
	if s := c.classStub(); s != nil {
		return s.IsInterface
	}
	return c.token(lexer.TokenInterface) != nil
}

func (c *Class) IsObject() bool {
	if s := c.classStub(); s != nil {
		return s.IsObject
	}
	return c.token(lexer.TokenObject) != nil
}

// Keyword returns "class", "interface" or "object".
func (c *Class) Keyword() string {
	switch {
	case c.IsInterface():
		return "interface"
	case c.IsObject():
		return "object"
	}
	return "class"
}

// PrimaryConstructorParameterList returns the parameter list following the
// name.
func (c *Class) PrimaryConstructorParameterList() *ValueParameterList {
	return childAs[*ValueParameterList](c.child(syntax.KindValueParameterList))
}

func (c *Class) PrimaryConstructorParameters() []*ValueParameter {
	if l := c.PrimaryConstructorParameterList(); l != nil {
		return l.Parameters()
	}
	return nil
}

// SuperTypes returns the entries after ':' in source order.
func (c *Class) SuperTypes() []*TypeReference {
	return childrenAs[*TypeReference](c.children(syntax.KindTypeReference))
}

func (c *Class) Body() *ClassBody {
	return childAs[*ClassBody](c.child(syntax.KindClassBody))
}

// Declarations returns the members declared in the body.
func (c *Class) Declarations() []Declaration {
	if b := c.Body(); b != nil {
		return b.Declarations()
	}
	return nil
}

// IsMacroDefinition reports whether the class defines a macro: an
// annotation class declaring an invoke function.
func (c *Class) IsMacroDefinition() bool {
	if !c.HasModifier("annotation") {
		return false
	}
	for _, d := range c.Declarations() {
		if fn, ok := d.(*Function); ok && fn.Name() == "invoke" {
			return true
		}
	}
	return false
}

// ClassBody is the brace delimited member list of a class.
type ClassBody struct {
	base
}

func (b *ClassBody) Accept(v Visitor) any { return v.VisitClassBody(b) }

func (b *ClassBody) Declarations() []Declaration {
	var out []Declaration
	if b.stub != nil {
		for _, s := range b.stub.Children() {
			if s.Kind().IsDeclaration() {
				out = append(out, b.file.elementForStub(s).(Declaration))
			}
		}
		return out
	}
	for _, n := range b.Node().Children() {
		if n.Kind().IsDeclaration() {
			out = append(out, b.file.elementForNode(n).(Declaration))
		}
	}
	return out
}

func (b *ClassBody) Functions() []*Function {
	var out []*Function
	for _, d := range b.Declarations() {
		if fn, ok := d.(*Function); ok {
			out = append(out, fn)
		}
	}
	return out
}
