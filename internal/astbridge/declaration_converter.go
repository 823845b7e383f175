package astbridge

import (
	"fmt"

	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/errors"
	"github.com/orizon-lang/declview/internal/meta"
)

// DeclarationConverter handles conversion of function and class
// declarations. Types and bodies are delegated to the sub-converters.
type DeclarationConverter struct {
	typeConverter       *TypeConverter
	expressionConverter *ExpressionConverter
}

// NewDeclarationConverter creates a declaration converter with its
// dependencies wired.
func NewDeclarationConverter() *DeclarationConverter {
	tc := NewTypeConverter()
	return &DeclarationConverter{
		typeConverter:       tc,
		expressionConverter: NewExpressionConverter(),
	}
}

// FromOwner dispatches on the concrete declaration.
func (dc *DeclarationConverter) FromOwner(o decl.TypeParameterListOwner) (meta.Decl, error) {
	if o == nil {
		return nil, fmt.Errorf("cannot convert nil declaration")
	}
	switch concrete := o.(type) {
	case *decl.Function:
		return dc.FromFunction(concrete)
	case *decl.Class:
		return dc.FromClass(concrete)
	default:
		return nil, errors.UnsupportedShape(o.Kind().String(), fmt.Sprintf("no conversion for %T", o))
	}
}

// FromFunction converts a function declaration.
func (dc *DeclarationConverter) FromFunction(fn *decl.Function) (*meta.Func, error) {
	if fn == nil {
		return nil, fmt.Errorf("cannot convert nil function")
	}
	name := fn.Name()
	if name == "" {
		return nil, errors.UnsupportedShape("function", "declaration has no name")
	}

	out := &meta.Func{
		Annotations:          dc.fromModifierList(fn.ModifierList()),
		Name:                 name,
		TypeParamsBeforeName: fn.HasTypeParameterListBeforeName(),
	}

	var err error
	if out.TypeParams, err = dc.typeConverter.FromTypeParameters(fn.TypeParameters()); err != nil {
		return nil, dc.wrap(name, err)
	}
	out.Receiver = dc.typeConverter.FromTypeReference(fn.ReceiverTypeReference())
	if out.Params, err = dc.fromParameters(fn.ValueParameters()); err != nil {
		return nil, dc.wrap(name, err)
	}
	out.ReturnType = dc.typeConverter.FromTypeReference(fn.TypeReference())
	if out.Constraints, err = dc.typeConverter.FromTypeConstraints(fn.TypeConstraints()); err != nil {
		return nil, dc.wrap(name, err)
	}
	if fn.HasBody() {
		out.Body = dc.expressionConverter.FromBody(fn.BodyExpression())
	}
	return out, nil
}

// FromClass converts a class, interface or object together with its
// members.
func (dc *DeclarationConverter) FromClass(c *decl.Class) (*meta.Structured, error) {
	if c == nil {
		return nil, fmt.Errorf("cannot convert nil class")
	}
	name := c.Name()
	if name == "" {
		return nil, errors.UnsupportedShape(c.Keyword(), "declaration has no name")
	}
	form, ok := meta.ParseForm(c.Keyword())
	if !ok {
		return nil, errors.UnsupportedShape(c.Keyword(), "unknown declaration form")
	}

	out := &meta.Structured{
		Annotations:           dc.fromModifierList(c.ModifierList()),
		Form:                  form,
		Name:                  name,
		HasPrimaryConstructor: c.PrimaryConstructorParameterList() != nil,
		HasBody:               c.Body() != nil,
	}

	var err error
	if out.TypeParams, err = dc.typeConverter.FromTypeParameters(c.TypeParameters()); err != nil {
		return nil, dc.wrap(name, err)
	}
	if out.PrimaryParams, err = dc.fromParameters(c.PrimaryConstructorParameters()); err != nil {
		return nil, dc.wrap(name, err)
	}
	for _, st := range c.SuperTypes() {
		out.SuperTypes = append(out.SuperTypes, dc.typeConverter.FromSuperType(st))
	}
	if out.Constraints, err = dc.typeConverter.FromTypeConstraints(c.TypeConstraints()); err != nil {
		return nil, dc.wrap(name, err)
	}
	for _, m := range c.Declarations() {
		o, ok := m.(decl.TypeParameterListOwner)
		if !ok {
			continue
		}
		md, err := dc.FromOwner(o)
		if err != nil {
			return nil, dc.wrap(name, err)
		}
		out.Members = append(out.Members, md)
	}
	return out, nil
}

func (dc *DeclarationConverter) fromModifierList(ml *decl.ModifierList) meta.Annotations {
	var out meta.Annotations
	if ml == nil {
		return out
	}
	for _, a := range ml.Annotations() {
		out.Annotations = append(out.Annotations, meta.Annotation{
			Name:    a.QualifiedName(),
			Args:    a.Arguments(),
			HasArgs: a.HasArguments(),
		})
	}
	for _, m := range ml.Modifiers() {
		out.Modifiers = append(out.Modifiers, meta.Modifier(m))
	}
	return out
}

func (dc *DeclarationConverter) fromParameters(ps []*decl.ValueParameter) ([]meta.Param, error) {
	if len(ps) == 0 {
		return nil, nil
	}
	out := make([]meta.Param, 0, len(ps))
	for i, p := range ps {
		name := p.Name()
		if name == "" {
			return nil, errors.UnsupportedShape("parameter", fmt.Sprintf("parameter %d has no name", i))
		}
		t := dc.typeConverter.FromTypeReference(p.TypeReference())
		if t == nil {
			return nil, errors.UnsupportedShape("parameter", fmt.Sprintf("parameter %q has no type", name))
		}
		mp := meta.Param{
			Annotations: dc.fromModifierList(p.ModifierList()),
			Binding:     p.Binding(),
			Name:        name,
			Type:        t,
		}
		if p.HasDefaultValue() {
			mp.HasDefault = true
			mp.Default = dc.expressionConverter.FromDefaultValue(p.DefaultValue())
		}
		out = append(out, mp)
	}
	return out, nil
}

func (dc *DeclarationConverter) wrap(name string, err error) error {
	if errors.HasCode(err, errors.CodeUnsupportedShape) {
		return err
	}
	return errors.ConversionFailed(name, err)
}
