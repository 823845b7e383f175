package astbridge

import (
	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/meta"
)

// ExpressionConverter carries bodies and default values over as text.
// Expressions are opaque to the meta model.
type ExpressionConverter struct{}

func NewExpressionConverter() *ExpressionConverter {
	return &ExpressionConverter{}
}

// FromBody returns nil for a nil body.
func (ec *ExpressionConverter) FromBody(b *decl.Body) *meta.Body {
	if b == nil {
		return nil
	}
	return &meta.Body{Block: b.IsBlock(), Text: b.Text()}
}

func (ec *ExpressionConverter) FromDefaultValue(b *decl.Body) string {
	if b == nil {
		return ""
	}
	return b.Text()
}
