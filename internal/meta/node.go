// Package meta defines the generic declaration tree handed to macros. It is
// independent of the concrete syntax tree: macros receive a meta node,
// return a meta node, and the writer turns the result back into source.
package meta

// Node is implemented by every node of the intermediate representation.
type Node interface {
	metaNode()
}

// Decl is a declaration: a function or a structured type.
type Decl interface {
	Node
	DeclName() string
	Annotated() *Annotations
}

// File is a whole source file.
type File struct {
	Package string
	Imports []Import
	Decls   []Decl
}

// Import is an import directive.
type Import struct {
	Path  string
	Alias string
}

// Annotation is an annotation entry such as @memo.Memo(size = 3).
type Annotation struct {
	Name    string
	Args    string // text between the parentheses
	HasArgs bool
}

// Modifier is a modifier keyword such as pub or abstract.
type Modifier string

// Annotations groups the annotations and modifiers of a declaration.
type Annotations struct {
	Annotations []Annotation
	Modifiers   []Modifier
}

// TypeRef is a type reference kept as normalized source text.
type TypeRef struct {
	Text string
}

// TypeParam is a declared type parameter.
type TypeParam struct {
	Name     string
	Variance string
	Bound    *TypeRef
}

// TypeConstraint is an entry of a where clause.
type TypeConstraint struct {
	Param string
	Bound TypeRef
}

// Param is a value parameter.
type Param struct {
	Annotations
	Binding    string // "val", "var" or empty
	Name       string
	Type       *TypeRef
	Default    string
	HasDefault bool
}

// Body is a function body.
type Body struct {
	Block bool   // true for { ... }, false for = expression
	Text  string // source text; for blocks including the braces
}

// Func is a function declaration.
type Func struct {
	Annotations
	TypeParams           []TypeParam
	TypeParamsBeforeName bool
	Receiver             *TypeRef
	Name                 string
	Params               []Param
	ReturnType           *TypeRef
	Constraints          []TypeConstraint
	Body                 *Body
}

// StructuredForm distinguishes classes, interfaces and objects.
type StructuredForm int

const (
	FormClass StructuredForm = iota
	FormInterface
	FormObject
)

func (f StructuredForm) String() string {
	switch f {
	case FormInterface:
		return "interface"
	case FormObject:
		return "object"
	default:
		return "class"
	}
}

// ParseForm maps a keyword to a form.
func ParseForm(keyword string) (StructuredForm, bool) {
	switch keyword {
	case "class":
		return FormClass, true
	case "interface":
		return FormInterface, true
	case "object":
		return FormObject, true
	}
	return FormClass, false
}

// Structured is a class, interface or object declaration.
type Structured struct {
	Annotations
	Form                  StructuredForm
	Name                  string
	TypeParams            []TypeParam
	HasPrimaryConstructor bool
	PrimaryParams         []Param
	SuperTypes            []TypeRef
	Constraints           []TypeConstraint
	HasBody               bool
	Members               []Decl
}

func (*File) metaNode()       {}
func (*Func) metaNode()       {}
func (*Structured) metaNode() {}

func (f *Func) DeclName() string       { return f.Name }
func (s *Structured) DeclName() string { return s.Name }

func (f *Func) Annotated() *Annotations       { return &f.Annotations }
func (s *Structured) Annotated() *Annotations { return &s.Annotations }

// HasAnnotation reports whether an annotation with the given name is present.
func (a *Annotations) HasAnnotation(name string) bool {
	for _, ann := range a.Annotations {
		if ann.Name == name {
			return true
		}
	}
	return false
}

// RemoveAnnotation drops every annotation whose name is any of names and
// reports whether something was removed.
func (a *Annotations) RemoveAnnotation(names ...string) bool {
	kept := a.Annotations[:0]
	removed := false
	for _, ann := range a.Annotations {
		match := false
		for _, n := range names {
			if ann.Name == n {
				match = true
				break
			}
		}
		if match {
			removed = true
			continue
		}
		kept = append(kept, ann)
	}
	a.Annotations = kept
	return removed
}

// AddAnnotation appends an annotation unless one with the same name exists.
func (a *Annotations) AddAnnotation(ann Annotation) {
	if a.HasAnnotation(ann.Name) {
		return
	}
	a.Annotations = append(a.Annotations, ann)
}

// HasModifier reports whether the modifier is present.
func (a *Annotations) HasModifier(m Modifier) bool {
	for _, x := range a.Modifiers {
		if x == m {
			return true
		}
	}
	return false
}
