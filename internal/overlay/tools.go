// Package overlay connects declarations to the macro engine: it provides
// the default MetaTools, runs macro expansion over whole files and maps
// generated declarations back to their sources.
package overlay

import (
	"github.com/orizon-lang/declview/internal/astbridge"
	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/errors"
	"github.com/orizon-lang/declview/internal/format"
	"github.com/orizon-lang/declview/internal/meta"
	"github.com/orizon-lang/declview/internal/parser"
	"github.com/orizon-lang/declview/internal/syntax"
)

// GeneratedSuffix is appended to the path of a file to name the file its
// generated declarations live in.
const GeneratedSuffix = "!expanded"

// Tools is the default decl.MetaTools: declarations are converted with
// astbridge and generated text is re-parsed with the declview parser.
type Tools struct {
	converter *astbridge.DeclarationConverter
	options   format.Options
}

var _ decl.MetaTools = (*Tools)(nil)

func NewTools() *Tools {
	return &Tools{
		converter: astbridge.NewDeclarationConverter(),
		options:   format.Options{},
	}
}

func (t *Tools) Convert(o decl.TypeParameterListOwner) (meta.Node, error) {
	d, err := t.converter.FromOwner(o)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Write serializes n and normalizes the result.
func (t *Tools) Write(n meta.Node) (string, error) {
	text, err := meta.Write(n)
	if err != nil {
		return "", err
	}
	return format.FormatText(text, t.options), nil
}

// Parse parses text as one declaration of the given kind. The declaration
// lives in a new file named after ctx whose analysis context is ctx.
func (t *Tools) Parse(kind syntax.Kind, text string, ctx *decl.File) (decl.TypeParameterListOwner, error) {
	node, err := parser.ParseDeclaration(text)
	if err != nil {
		return nil, errors.GeneratedTextUnparsable(text, err)
	}
	if node.Kind() != kind {
		return nil, errors.IncompatibleKind(kind.String(), node.Kind().String())
	}

	path := "<generated>"
	if ctx != nil {
		path = ctx.Path() + GeneratedSuffix
	}
	f := decl.NewFile(path, text, node.Root(), t)
	f.SetAnalysisContext(ctx)

	o, ok := f.ElementFor(node).(decl.TypeParameterListOwner)
	if !ok {
		return nil, errors.IncompatibleKind(kind.String(), node.Kind().String())
	}
	return o, nil
}
