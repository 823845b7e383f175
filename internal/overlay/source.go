package overlay

import (
	"strings"

	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/format"
	"github.com/orizon-lang/declview/internal/position"
)

// SourceElement returns the written declaration a generated element stands
// for, or e itself when e was written by hand.
func SourceElement(e decl.Element) decl.Element {
	if r := decl.ReplacedParent(e); r != nil {
		return r
	}
	return e
}

// SourceSpan locates e in the text it was written in. Generated elements
// are located at their source element.
func SourceSpan(e decl.Element) position.Span {
	src := SourceElement(e)
	f := src.File()
	n := src.Node()
	return position.NewSourceFile(f.Path(), f.Text()).SpanFromOffsets(n.TextOffset(), n.EndOffset())
}

// Splices returns the edits that replace every expanded declaration among
// owners by the text of its hidden element. A declaration nested in
// another replaced one is left to its parent.
func Splices(f *decl.File, owners ...decl.TypeParameterListOwner) []format.Edit {
	var edits []format.Edit
	for _, o := range owners {
		if o == nil || o.File() != f || !o.HasHiddenElementInitialized() {
			continue
		}
		n := o.Node()
		text := o.HiddenElement().Text()
		if indent := lineIndent(f.Text(), n.TextOffset()); indent != "" {
			text = strings.ReplaceAll(text, "\n", "\n"+indent)
		}
		edits = append(edits, format.Edit{Start: n.TextOffset(), End: n.EndOffset(), Text: text})
	}
	return format.NormalizeEdits(edits)
}

// Materialize returns the text of f with the Splices of owners applied.
// The second result reports whether anything was replaced.
func Materialize(f *decl.File, owners ...decl.TypeParameterListOwner) (string, bool) {
	edits := Splices(f, owners...)
	if len(edits) == 0 {
		return f.Text(), false
	}
	return format.Apply(f.Text(), edits), true
}

// lineIndent returns the blanks between the start of the line holding
// offset and offset, or "" when anything else precedes offset on its line.
func lineIndent(text string, offset int) string {
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	indent := text[start:offset]
	if strings.TrimLeft(indent, " \t") != "" {
		return ""
	}
	return indent
}
