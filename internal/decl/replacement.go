package decl

import (
	"weak"

	"github.com/orizon-lang/declview/internal/errors"
	"github.com/orizon-lang/declview/internal/meta"
	"github.com/orizon-lang/declview/internal/syntax"
)

// MetaTools converts declarations to the generic form handed to macros and
// turns generated text back into declarations.
type MetaTools interface {
	// Convert builds the generic form of a declaration.
	Convert(o TypeParameterListOwner) (meta.Node, error)
	// Write serializes a generic node to source text.
	Write(n meta.Node) (string, error)
	// Parse builds a declaration of the given kind from generated text. The
	// result lives in a new file whose analysis context is ctx.
	Parse(kind syntax.Kind, text string, ctx *File) (TypeParameterListOwner, error)
}

// MacroExpander runs macros. Expand returns nil to decline.
type MacroExpander interface {
	IsMacroAnnotation(a *Annotation) bool
	Expand(a *Annotation, n meta.Node) (meta.Node, error)
}

// handle is the target of weak references to an owner.
type handle struct {
	owner TypeParameterListOwner
}

// ReplacementState links a declaration to the declaration a macro
// generated for it.
//
// State goes from unexpanded to expanded once. An attempt that declines or
// fails leaves the owner unexpanded and is not repeated.
type ReplacementState struct {
	self     *handle
	replaced weak.Pointer[handle] // zero means self
	hidden   TypeParameterListOwner
	tools    MetaTools

	isHidden  bool
	isRoot    bool
	attempted bool
	err       error
}

func (s *ReplacementState) init(self TypeParameterListOwner, tools MetaTools) {
	s.self = &handle{owner: self}
	s.tools = tools
}

func (s *ReplacementState) replacedElement() TypeParameterListOwner {
	if h := s.replaced.Value(); h != nil {
		return h.owner
	}
	return s.self.owner
}

func (s *ReplacementState) setReplaced(e TypeParameterListOwner) {
	if e == nil {
		s.replaced = weak.Pointer[handle]{}
		return
	}
	s.replaced = weak.Make(e.replacement().self)
}

// macroAnnotation returns the first annotation x treats as a macro.
func macroAnnotation(o TypeParameterListOwner, x MacroExpander) *Annotation {
	for _, a := range o.Annotations() {
		if x.IsMacroAnnotation(a) {
			return a
		}
	}
	return nil
}

// IsMacroAnnotated reports whether any annotation of o is a macro for x.
func IsMacroAnnotated(o TypeParameterListOwner, x MacroExpander) bool {
	return x != nil && macroAnnotation(o, x) != nil
}

func (s *ReplacementState) initializeHiddenElement(x MacroExpander) error {
	if s.attempted {
		return s.err
	}
	self := s.self.owner
	if s.tools == nil || x == nil {
		return nil
	}
	ann := macroAnnotation(self, x)
	if ann == nil {
		return nil
	}
	s.attempted = true

	name := self.Name()
	converted, err := s.tools.Convert(self)
	if err != nil {
		s.err = errors.ExpansionFailed(name, "conversion", err)
		return s.err
	}
	expanded, err := x.Expand(ann, converted)
	if err != nil {
		s.err = errors.ExpansionFailed(name, "macro", err)
		return s.err
	}
	if expanded == nil {
		return nil
	}
	text, err := s.tools.Write(expanded)
	if err != nil {
		s.err = errors.ExpansionFailed(name, "serialization", err)
		return s.err
	}
	hidden, err := s.tools.Parse(self.Kind(), text, self.File())
	if err != nil {
		s.err = errors.ExpansionFailed(name, "re-parse", err)
		return s.err
	}
	if hidden == nil || hidden.Kind() != self.Kind() {
		got := "nothing"
		if hidden != nil {
			got = hidden.Kind().String()
		}
		s.err = errors.ExpansionFailed(name, "re-parse", errors.IncompatibleKind(self.Kind().String(), got))
		return s.err
	}

	markHiddenRoot(hidden, self)
	s.hidden = hidden
	return nil
}

// markHiddenRoot flags every declaration of the generated subtree as
// hidden and points it at the generated root; the root itself points back
// at the original declaration.
func markHiddenRoot(root, original TypeParameterListOwner) {
	for _, o := range ownersUnder(root) {
		st := o.replacement()
		st.isHidden = true
		st.replaced = weak.Make(root.replacement().self)
	}
	rs := root.replacement()
	rs.isRoot = true
	rs.replaced = weak.Make(original.replacement().self)
	root.File().SetAnalysisContext(original.File())
}

// ownersUnder lists o and every declaration nested in it, locals included.
func ownersUnder(o TypeParameterListOwner) []TypeParameterListOwner {
	f := o.File()
	var out []TypeParameterListOwner
	syntax.Walk(o.Node(), func(n *syntax.Node) bool {
		if n.Kind().IsDeclaration() {
			if d, ok := f.elementForNode(n).(TypeParameterListOwner); ok {
				out = append(out, d)
			}
		}
		return !n.IsToken()
	})
	return out
}

// ReplacedParent returns the original declaration that the generated
// subtree containing e replaces, or nil when e is not generated.
func ReplacedParent(e Element) TypeParameterListOwner {
	for cur := e; cur != nil; cur = cur.Parent() {
		o, ok := cur.(TypeParameterListOwner)
		if !ok || !o.IsHidden() {
			continue
		}
		if o.IsRoot() {
			if r := o.ReplacedElement(); r != o {
				return r
			}
			return nil
		}
	}
	return nil
}
