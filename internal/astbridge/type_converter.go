package astbridge

import (
	"fmt"

	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/errors"
	"github.com/orizon-lang/declview/internal/meta"
	"github.com/orizon-lang/declview/internal/syntax"
)

// TypeConverter handles type references, type parameters and constraints.
type TypeConverter struct{}

func NewTypeConverter() *TypeConverter {
	return &TypeConverter{}
}

// FromTypeReference returns nil for a nil reference.
func (tc *TypeConverter) FromTypeReference(t *decl.TypeReference) *meta.TypeRef {
	if t == nil {
		return nil
	}
	return &meta.TypeRef{Text: t.TypeText()}
}

// FromSuperType keeps the constructor call of a super type entry, if any.
func (tc *TypeConverter) FromSuperType(t *decl.TypeReference) meta.TypeRef {
	text := t.TypeText()
	if n := t.Node(); n != nil {
		if args := syntax.NextSignificantSibling(n); args != nil && args.Kind() == syntax.KindValueArgumentList {
			text += args.SignificantText()
		}
	}
	return meta.TypeRef{Text: text}
}

func (tc *TypeConverter) FromTypeParameters(tps []*decl.TypeParameter) ([]meta.TypeParam, error) {
	if len(tps) == 0 {
		return nil, nil
	}
	out := make([]meta.TypeParam, 0, len(tps))
	for i, tp := range tps {
		name := tp.Name()
		if name == "" {
			return nil, errors.UnsupportedShape("type parameter", fmt.Sprintf("type parameter %d has no name", i))
		}
		out = append(out, meta.TypeParam{
			Name:     name,
			Variance: tp.Variance(),
			Bound:    tc.FromTypeReference(tp.Bound()),
		})
	}
	return out, nil
}

func (tc *TypeConverter) FromTypeConstraints(cs []*decl.TypeConstraint) ([]meta.TypeConstraint, error) {
	if len(cs) == 0 {
		return nil, nil
	}
	out := make([]meta.TypeConstraint, 0, len(cs))
	for _, c := range cs {
		subject := c.SubjectName()
		bound := tc.FromTypeReference(c.Bound())
		if subject == "" || bound == nil {
			return nil, errors.UnsupportedShape("type constraint", "constraint needs a subject and a bound")
		}
		out = append(out, meta.TypeConstraint{Param: subject, Bound: *bound})
	}
	return out, nil
}
