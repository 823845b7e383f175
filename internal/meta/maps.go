package meta

import (
	"fmt"
	"reflect"
)

// ToMap converts a declaration into a tree of maps, slices, strings and
// bools. Macro runtimes without access to Go types work on this form.
func ToMap(d Decl) (map[string]any, error) {
	switch d := d.(type) {
	case *Func:
		if d == nil {
			return nil, fmt.Errorf("meta: nil function")
		}
		return funcToMap(d), nil
	case *Structured:
		if d == nil {
			return nil, fmt.Errorf("meta: nil structured declaration")
		}
		return structuredToMap(d)
	default:
		return nil, fmt.Errorf("meta: unsupported declaration %T", d)
	}
}

func funcToMap(f *Func) map[string]any {
	m := map[string]any{
		"kind":                    "func",
		"name":                    f.Name,
		"type_params":             typeParamsToList(f.TypeParams),
		"type_params_before_name": f.TypeParamsBeforeName,
		"receiver":                typeRefText(f.Receiver),
		"params":                  paramsToList(f.Params),
		"return_type":             typeRefText(f.ReturnType),
		"constraints":             constraintsToList(f.Constraints),
		"body":                    nil,
	}
	annotationsToMap(m, f.Annotations)
	if f.Body != nil {
		m["body"] = map[string]any{"block": f.Body.Block, "text": f.Body.Text}
	}
	return m
}

func structuredToMap(s *Structured) (map[string]any, error) {
	members := make([]any, 0, len(s.Members))
	for _, member := range s.Members {
		mm, err := ToMap(member)
		if err != nil {
			return nil, err
		}
		members = append(members, mm)
	}
	supers := make([]any, 0, len(s.SuperTypes))
	for _, st := range s.SuperTypes {
		supers = append(supers, st.Text)
	}
	m := map[string]any{
		"kind":                    s.Form.String(),
		"name":                    s.Name,
		"type_params":             typeParamsToList(s.TypeParams),
		"has_primary_constructor": s.HasPrimaryConstructor,
		"params":                  paramsToList(s.PrimaryParams),
		"supertypes":              supers,
		"constraints":             constraintsToList(s.Constraints),
		"has_body":                s.HasBody,
		"members":                 members,
	}
	annotationsToMap(m, s.Annotations)
	return m, nil
}

func annotationsToMap(m map[string]any, a Annotations) {
	anns := make([]any, 0, len(a.Annotations))
	for _, ann := range a.Annotations {
		am := map[string]any{"name": ann.Name, "args": nil}
		if ann.HasArgs {
			am["args"] = ann.Args
		}
		anns = append(anns, am)
	}
	mods := make([]any, 0, len(a.Modifiers))
	for _, mod := range a.Modifiers {
		mods = append(mods, string(mod))
	}
	m["annotations"] = anns
	m["modifiers"] = mods
}

func typeParamsToList(tps []TypeParam) []any {
	out := make([]any, 0, len(tps))
	for _, tp := range tps {
		out = append(out, map[string]any{
			"name":     tp.Name,
			"variance": tp.Variance,
			"bound":    typeRefText(tp.Bound),
		})
	}
	return out
}

func paramsToList(ps []Param) []any {
	out := make([]any, 0, len(ps))
	for _, p := range ps {
		pm := map[string]any{
			"name":    p.Name,
			"type":    typeRefText(p.Type),
			"binding": p.Binding,
			"default": nil,
		}
		if p.HasDefault {
			pm["default"] = p.Default
		}
		annotationsToMap(pm, p.Annotations)
		out = append(out, pm)
	}
	return out
}

func constraintsToList(cs []TypeConstraint) []any {
	out := make([]any, 0, len(cs))
	for _, c := range cs {
		out = append(out, map[string]any{"param": c.Param, "bound": c.Bound.Text})
	}
	return out
}

func typeRefText(t *TypeRef) string {
	if t == nil {
		return ""
	}
	return t.Text
}

func typeRefFromText(s string) *TypeRef {
	if s == "" {
		return nil
	}
	return &TypeRef{Text: s}
}

// FromMap is the inverse of ToMap. Missing keys take their zero value;
// keys holding values of the wrong type are an error.
func FromMap(m map[string]any) (Decl, error) {
	r := mapReader{m: m, path: "decl"}
	kind := r.str("kind")
	var d Decl
	switch kind {
	case "func":
		d = r.fun()
	case "class", "interface", "object":
		d = r.structured(kind)
	default:
		if r.err == nil {
			r.err = fmt.Errorf("meta: %s.kind: unknown declaration kind %q", r.path, kind)
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}

// mapReader accumulates the first error so callers can read many fields
// before checking.
type mapReader struct {
	m    map[string]any
	path string
	err  error
}

func (r *mapReader) fail(key, format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("meta: %s.%s: %s", r.path, key, fmt.Sprintf(format, args...))
	}
}

func (r *mapReader) str(key string) string {
	v, ok := r.m[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.fail(key, "expected string, got %T", v)
	}
	return s
}

func (r *mapReader) optStr(key string) (string, bool) {
	v, ok := r.m[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		r.fail(key, "expected string or None, got %T", v)
		return "", false
	}
	return s, true
}

func (r *mapReader) boolean(key string) bool {
	v, ok := r.m[key]
	if !ok || v == nil {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		r.fail(key, "expected bool, got %T", v)
	}
	return b
}

func (r *mapReader) list(key string) []any {
	v, ok := r.m[key]
	if !ok || v == nil {
		return nil
	}
	l, ok := v.([]any)
	if !ok {
		r.fail(key, "expected list, got %T", v)
	}
	return l
}

func (r *mapReader) maps(key string) []mapReader {
	var out []mapReader
	for i, v := range r.list(key) {
		mm, ok := v.(map[string]any)
		if !ok {
			r.fail(key, "element %d: expected dict, got %T", i, v)
			return nil
		}
		out = append(out, mapReader{m: mm, path: fmt.Sprintf("%s.%s[%d]", r.path, key, i)})
	}
	return out
}

func (r *mapReader) sub(child *mapReader) {
	if r.err == nil && child.err != nil {
		r.err = child.err
	}
}

func (r *mapReader) annotations() Annotations {
	var a Annotations
	for _, ar := range r.maps("annotations") {
		args, hasArgs := ar.optStr("args")
		a.Annotations = append(a.Annotations, Annotation{Name: ar.str("name"), Args: args, HasArgs: hasArgs})
		r.sub(&ar)
	}
	for i, v := range r.list("modifiers") {
		s, ok := v.(string)
		if !ok {
			r.fail("modifiers", "element %d: expected string, got %T", i, v)
			break
		}
		a.Modifiers = append(a.Modifiers, Modifier(s))
	}
	return a
}

func (r *mapReader) typeParams() []TypeParam {
	var out []TypeParam
	for _, tr := range r.maps("type_params") {
		out = append(out, TypeParam{
			Name:     tr.str("name"),
			Variance: tr.str("variance"),
			Bound:    typeRefFromText(tr.str("bound")),
		})
		r.sub(&tr)
	}
	return out
}

func (r *mapReader) params() []Param {
	var out []Param
	for _, pr := range r.maps("params") {
		def, hasDef := pr.optStr("default")
		out = append(out, Param{
			Annotations: pr.annotations(),
			Binding:     pr.str("binding"),
			Name:        pr.str("name"),
			Type:        typeRefFromText(pr.str("type")),
			Default:     def,
			HasDefault:  hasDef,
		})
		r.sub(&pr)
	}
	return out
}

func (r *mapReader) constraints() []TypeConstraint {
	var out []TypeConstraint
	for _, cr := range r.maps("constraints") {
		out = append(out, TypeConstraint{Param: cr.str("param"), Bound: TypeRef{Text: cr.str("bound")}})
		r.sub(&cr)
	}
	return out
}

func (r *mapReader) fun() *Func {
	f := &Func{
		Annotations:          r.annotations(),
		TypeParams:           r.typeParams(),
		TypeParamsBeforeName: r.boolean("type_params_before_name"),
		Receiver:             typeRefFromText(r.str("receiver")),
		Name:                 r.str("name"),
		Params:               r.params(),
		ReturnType:           typeRefFromText(r.str("return_type")),
		Constraints:          r.constraints(),
	}
	if v, ok := r.m["body"]; ok && v != nil {
		bm, ok := v.(map[string]any)
		if !ok {
			r.fail("body", "expected dict or None, got %T", v)
			return f
		}
		br := mapReader{m: bm, path: r.path + ".body"}
		f.Body = &Body{Block: br.boolean("block"), Text: br.str("text")}
		r.sub(&br)
	}
	return f
}

func (r *mapReader) structured(kind string) *Structured {
	form, _ := ParseForm(kind)
	s := &Structured{
		Annotations:           r.annotations(),
		Form:                  form,
		Name:                  r.str("name"),
		TypeParams:            r.typeParams(),
		HasPrimaryConstructor: r.boolean("has_primary_constructor"),
		PrimaryParams:         r.params(),
		Constraints:           r.constraints(),
		HasBody:               r.boolean("has_body"),
	}
	for i, v := range r.list("supertypes") {
		st, ok := v.(string)
		if !ok {
			r.fail("supertypes", "element %d: expected string, got %T", i, v)
			break
		}
		s.SuperTypes = append(s.SuperTypes, TypeRef{Text: st})
	}
	for i, v := range r.list("members") {
		mm, ok := v.(map[string]any)
		if !ok {
			r.fail("members", "element %d: expected dict, got %T", i, v)
			break
		}
		member, err := FromMap(mm)
		if err != nil {
			if r.err == nil {
				r.err = fmt.Errorf("meta: %s.members[%d]: %w", r.path, i, err)
			}
			break
		}
		s.Members = append(s.Members, member)
	}
	return s
}

// Equal reports whether two declarations carry the same content.
func Equal(a, b Decl) bool {
	am, aerr := ToMap(a)
	bm, berr := ToMap(b)
	if aerr != nil || berr != nil {
		return aerr != nil && berr != nil
	}
	return reflect.DeepEqual(am, bm)
}
