// Package astbridge converts declaration elements into their meta model
// counterparts. Structure is taken from the element accessors, so stub
// based and tree based elements convert alike; bodies and default values
// are carried over as source text.
package astbridge

import (
	"fmt"

	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/meta"
)

var defaultConverter = NewDeclarationConverter()

// FromOwner converts a function or class declaration.
func FromOwner(o decl.TypeParameterListOwner) (meta.Decl, error) {
	return defaultConverter.FromOwner(o)
}

// FromFile converts every top level declaration of f together with its
// package directive and imports.
func FromFile(f *decl.File) (*meta.File, error) {
	if f == nil {
		return nil, fmt.Errorf("cannot convert nil file")
	}
	out := &meta.File{Package: f.PackageName()}
	for _, imp := range f.Imports() {
		path := imp.Path
		if imp.AllUnder {
			path += ".*"
		}
		out.Imports = append(out.Imports, meta.Import{Path: path, Alias: imp.Alias})
	}
	for _, d := range f.Declarations() {
		o, ok := d.(decl.TypeParameterListOwner)
		if !ok {
			continue
		}
		md, err := defaultConverter.FromOwner(o)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path(), err)
		}
		out.Decls = append(out.Decls, md)
	}
	return out, nil
}
