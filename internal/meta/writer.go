package meta

import (
	"fmt"
	"strings"

	"github.com/orizon-lang/declview/internal/format"
)

const memberIndent = "  "

// Write serializes a node to source text.
func Write(n Node) (string, error) {
	var w writer
	if err := w.node(n); err != nil {
		return "", err
	}
	return w.sb.String(), nil
}

type writer struct {
	sb strings.Builder
}

func (w *writer) node(n Node) error {
	switch n := n.(type) {
	case nil:
		return fmt.Errorf("meta: cannot write nil node")
	case *File:
		if n == nil {
			return fmt.Errorf("meta: cannot write nil file")
		}
		return w.file(n)
	case *Func:
		if n == nil {
			return fmt.Errorf("meta: cannot write nil function")
		}
		return w.fun(n)
	case *Structured:
		if n == nil {
			return fmt.Errorf("meta: cannot write nil structured declaration")
		}
		return w.structured(n)
	default:
		return fmt.Errorf("meta: unsupported node %T", n)
	}
}

func (w *writer) file(f *File) error {
	if f.Package != "" {
		fmt.Fprintf(&w.sb, "package %s\n\n", f.Package)
	}
	for _, imp := range f.Imports {
		w.sb.WriteString("import ")
		w.sb.WriteString(imp.Path)
		if imp.Alias != "" {
			w.sb.WriteString(" as ")
			w.sb.WriteString(imp.Alias)
		}
		w.sb.WriteByte('\n')
	}
	if len(f.Imports) > 0 {
		w.sb.WriteByte('\n')
	}
	for i, d := range f.Decls {
		if i > 0 {
			w.sb.WriteByte('\n')
		}
		if err := w.node(d); err != nil {
			return err
		}
		w.sb.WriteByte('\n')
	}
	return nil
}

func (w *writer) header(a Annotations, inline bool) {
	for _, ann := range a.Annotations {
		w.annotation(ann)
		if inline {
			w.sb.WriteByte(' ')
		} else {
			w.sb.WriteByte('\n')
		}
	}
	for _, m := range a.Modifiers {
		w.sb.WriteString(string(m))
		w.sb.WriteByte(' ')
	}
}

func (w *writer) annotation(a Annotation) {
	w.sb.WriteByte('@')
	w.sb.WriteString(a.Name)
	if a.HasArgs {
		w.sb.WriteByte('(')
		w.sb.WriteString(a.Args)
		w.sb.WriteByte(')')
	}
}

func (w *writer) fun(f *Func) error {
	if f.Name == "" {
		return fmt.Errorf("meta: function has no name")
	}
	w.header(f.Annotations, false)
	w.sb.WriteString("func ")
	if f.TypeParamsBeforeName && len(f.TypeParams) > 0 {
		if err := w.typeParams(f.TypeParams); err != nil {
			return err
		}
		w.sb.WriteByte(' ')
	}
	if f.Receiver != nil {
		if f.Receiver.Text == "" {
			return fmt.Errorf("meta: function %s has an empty receiver type", f.Name)
		}
		w.sb.WriteString(f.Receiver.Text)
		w.sb.WriteByte('.')
	}
	w.sb.WriteString(f.Name)
	if !f.TypeParamsBeforeName && len(f.TypeParams) > 0 {
		if err := w.typeParams(f.TypeParams); err != nil {
			return err
		}
	}
	if err := w.params(f.Params); err != nil {
		return err
	}
	if f.ReturnType != nil {
		if f.ReturnType.Text == "" {
			return fmt.Errorf("meta: function %s has an empty return type", f.Name)
		}
		w.sb.WriteString(": ")
		w.sb.WriteString(f.ReturnType.Text)
	}
	if err := w.constraints(f.Constraints); err != nil {
		return err
	}
	if f.Body != nil {
		if strings.TrimSpace(f.Body.Text) == "" {
			return fmt.Errorf("meta: function %s has an empty body", f.Name)
		}
		if f.Body.Block {
			w.sb.WriteByte(' ')
		} else {
			w.sb.WriteString(" = ")
		}
		w.sb.WriteString(f.Body.Text)
	}
	return nil
}

func (w *writer) typeParams(tps []TypeParam) error {
	w.sb.WriteByte('<')
	for i, tp := range tps {
		if tp.Name == "" {
			return fmt.Errorf("meta: type parameter %d has no name", i)
		}
		if i > 0 {
			w.sb.WriteString(", ")
		}
		if tp.Variance != "" {
			w.sb.WriteString(tp.Variance)
			w.sb.WriteByte(' ')
		}
		w.sb.WriteString(tp.Name)
		if tp.Bound != nil {
			w.sb.WriteString(": ")
			w.sb.WriteString(tp.Bound.Text)
		}
	}
	w.sb.WriteByte('>')
	return nil
}

func (w *writer) params(ps []Param) error {
	w.sb.WriteByte('(')
	for i, p := range ps {
		if p.Name == "" {
			return fmt.Errorf("meta: parameter %d has no name", i)
		}
		if p.Type == nil || p.Type.Text == "" {
			return fmt.Errorf("meta: parameter %s has no type", p.Name)
		}
		if i > 0 {
			w.sb.WriteString(", ")
		}
		w.header(p.Annotations, true)
		if p.Binding != "" {
			w.sb.WriteString(p.Binding)
			w.sb.WriteByte(' ')
		}
		w.sb.WriteString(p.Name)
		w.sb.WriteString(": ")
		w.sb.WriteString(p.Type.Text)
		if p.HasDefault {
			w.sb.WriteString(" = ")
			w.sb.WriteString(p.Default)
		}
	}
	w.sb.WriteByte(')')
	return nil
}

func (w *writer) constraints(cs []TypeConstraint) error {
	if len(cs) == 0 {
		return nil
	}
	w.sb.WriteString(" where ")
	for i, c := range cs {
		if c.Param == "" || c.Bound.Text == "" {
			return fmt.Errorf("meta: incomplete type constraint %d", i)
		}
		if i > 0 {
			w.sb.WriteString(", ")
		}
		w.sb.WriteString(c.Param)
		w.sb.WriteString(": ")
		w.sb.WriteString(c.Bound.Text)
	}
	return nil
}

func (w *writer) structured(s *Structured) error {
	if s.Name == "" {
		return fmt.Errorf("meta: %s has no name", s.Form)
	}
	w.header(s.Annotations, false)
	w.sb.WriteString(s.Form.String())
	w.sb.WriteByte(' ')
	w.sb.WriteString(s.Name)
	if len(s.TypeParams) > 0 {
		if err := w.typeParams(s.TypeParams); err != nil {
			return err
		}
	}
	if s.HasPrimaryConstructor || len(s.PrimaryParams) > 0 {
		if err := w.params(s.PrimaryParams); err != nil {
			return err
		}
	}
	if len(s.SuperTypes) > 0 {
		w.sb.WriteString(" : ")
		for i, st := range s.SuperTypes {
			if i > 0 {
				w.sb.WriteString(", ")
			}
			w.sb.WriteString(st.Text)
		}
	}
	if err := w.constraints(s.Constraints); err != nil {
		return err
	}
	if !s.HasBody && len(s.Members) == 0 {
		return nil
	}
	if len(s.Members) == 0 {
		w.sb.WriteString(" {}")
		return nil
	}
	w.sb.WriteString(" {\n")
	for i, m := range s.Members {
		if i > 0 {
			w.sb.WriteByte('\n')
		}
		text, err := Write(m)
		if err != nil {
			return fmt.Errorf("meta: member %d of %s: %w", i, s.Name, err)
		}
		w.sb.WriteString(format.Indent(text, memberIndent))
		w.sb.WriteByte('\n')
	}
	w.sb.WriteByte('}')
	return nil
}
