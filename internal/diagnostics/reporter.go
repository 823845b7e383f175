package diagnostics

import (
	stderrors "errors"

	"github.com/orizon-lang/declview/internal/parser"
	"github.com/orizon-lang/declview/internal/position"
)

// Reporter turns the failures of the declview pipeline into diagnostics.
type Reporter struct {
	manager *DiagnosticManager
}

// NewReporter creates a reporter with a fresh manager.
func NewReporter() *Reporter {
	return &Reporter{manager: NewDiagnosticManager()}
}

// Manager returns the underlying diagnostic manager
func (r *Reporter) Manager() *DiagnosticManager {
	return r.manager
}

// AddSource registers the text of a file so diagnostics in it carry
// context lines.
func (r *Reporter) AddSource(path, text string) *position.SourceFile {
	return r.manager.Sources().AddFile(path, text)
}

// Span converts offsets in a registered file to a span. Unknown files give
// a span carrying only the filename.
func (r *Reporter) Span(path string, start, end int) position.Span {
	if sf := r.manager.Sources().GetFile(path); sf != nil {
		return sf.SpanFromOffsets(start, end)
	}
	p := position.Position{Filename: path}
	return position.Span{Start: p, End: p}
}

// ParseErrors reports the syntax errors of one file.
func (r *Reporter) ParseErrors(path string, errs []error) {
	for _, err := range errs {
		var pe *parser.ParseError
		if !stderrors.As(err, &pe) {
			r.manager.AddDiagnostic(ParseError(err.Error(), r.Span(path, 0, 0)))
			continue
		}
		pos := position.Position{
			Filename: path,
			Line:     pe.Position.Line,
			Column:   pe.Position.Column,
			Offset:   pe.Position.Offset,
		}
		end := pos
		end.Column++
		end.Offset++
		r.manager.AddDiagnostic(ParseError(pe.Message, position.Span{Start: pos, End: end}))
	}
}

// MacroExpansionFailed reports a failed InitializeHiddenElement.
func (r *Reporter) MacroExpansionFailed(owner, macro string, span position.Span, cause error) {
	r.manager.AddDiagnostic(MacroExpansionError(owner, macro, span, cause))
}

// UnknownMacro reports an annotation in a macro namespace that names no
// registered macro.
func (r *Reporter) UnknownMacro(name string, span position.Span, suggestions []string) {
	r.manager.AddDiagnostic(UnknownMacroError(name, span, suggestions))
}

// StubMismatch reports a declaration whose stub disagrees with its tree.
func (r *Reporter) StubMismatch(owner string, span position.Span, diff string) {
	r.manager.AddDiagnostic(StubMismatchWarning(owner, span, diff))
}

// ConversionFailed reports a declaration that could not be converted.
func (r *Reporter) ConversionFailed(owner string, span position.Span, cause error) {
	r.manager.AddDiagnostic(ConversionError(owner, span, cause))
}

// WorkspaceFailed reports a file the workspace could not process.
func (r *Reporter) WorkspaceFailed(path string, cause error) {
	r.manager.AddDiagnostic(WorkspaceError(path, cause))
}
