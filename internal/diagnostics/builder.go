package diagnostics

import (
	"fmt"
	"strings"

	"github.com/orizon-lang/declview/internal/position"
)

// DiagnosticBuilder provides a fluent interface for building diagnostics.
type DiagnosticBuilder struct {
	diagnostic Diagnostic
}

// NewDiagnosticBuilder creates a new diagnostic builder.
func NewDiagnosticBuilder() *DiagnosticBuilder {
	return &DiagnosticBuilder{}
}

// Error creates an error-level diagnostic.
func (db *DiagnosticBuilder) Error() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticError

	return db
}

// Warning creates a warning-level diagnostic.
func (db *DiagnosticBuilder) Warning() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticWarning

	return db
}

func (db *DiagnosticBuilder) WithCode(code string) *DiagnosticBuilder {
	db.diagnostic.Code = code

	return db
}

func (db *DiagnosticBuilder) WithCategory(category DiagnosticCategory) *DiagnosticBuilder {
	db.diagnostic.Category = category

	return db
}

func (db *DiagnosticBuilder) WithMessage(message string) *DiagnosticBuilder {
	db.diagnostic.Message = message

	return db
}

func (db *DiagnosticBuilder) WithMessagef(format string, args ...interface{}) *DiagnosticBuilder {
	db.diagnostic.Message = fmt.Sprintf(format, args...)

	return db
}

// WithSpan sets the span. The source file defaults to the span's filename.
func (db *DiagnosticBuilder) WithSpan(span position.Span) *DiagnosticBuilder {
	db.diagnostic.Span = span
	if db.diagnostic.SourceFile == "" {
		db.diagnostic.SourceFile = span.Start.Filename
	}

	return db
}

func (db *DiagnosticBuilder) WithSourceFile(sourceFile string) *DiagnosticBuilder {
	db.diagnostic.SourceFile = sourceFile

	return db
}

func (db *DiagnosticBuilder) WithExplanation(explanation string) *DiagnosticBuilder {
	db.diagnostic.Explanation = explanation

	return db
}

func (db *DiagnosticBuilder) WithExplanationf(format string, args ...interface{}) *DiagnosticBuilder {
	db.diagnostic.Explanation = fmt.Sprintf(format, args...)

	return db
}

// AddFixSuggestion adds a fix suggestion.
func (db *DiagnosticBuilder) AddFixSuggestion(fix FixSuggestion) *DiagnosticBuilder {
	db.diagnostic.FixSuggestions = append(db.diagnostic.FixSuggestions, fix)

	return db
}

// AddAutomaticFix adds a fix that replaces span with replacement.
func (db *DiagnosticBuilder) AddAutomaticFix(description, replacement string, span position.Span) *DiagnosticBuilder {
	return db.AddFixSuggestion(FixSuggestion{
		Description: description,
		Replacement: replacement,
		Span:        span,
		Automatic:   true,
	})
}

// AddManualFix adds a fix the user has to apply.
func (db *DiagnosticBuilder) AddManualFix(description string) *DiagnosticBuilder {
	return db.AddFixSuggestion(FixSuggestion{Description: description})
}

// Build returns the diagnostic.
func (db *DiagnosticBuilder) Build() Diagnostic {
	return db.diagnostic
}

// Predefined diagnostics.

// ParseError creates a diagnostic for a syntax error in a source file.
func ParseError(message string, span position.Span) Diagnostic {
	return NewDiagnosticBuilder().
		Error().
		WithCode("P001").
		WithCategory(CategoryParsing).
		WithMessage(message).
		WithSpan(span).
		Build()
}

// MacroExpansionError creates a diagnostic for a macro that failed to
// expand the declaration named owner.
func MacroExpansionError(owner, macro string, span position.Span, cause error) Diagnostic {
	return NewDiagnosticBuilder().
		Error().
		WithCode("M001").
		WithCategory(CategoryMacroExpansion).
		WithMessagef("expanding @%s on '%s' failed", macro, owner).
		WithSpan(span).
		WithExplanationf("%v", cause).
		Build()
}

// UnknownMacroError creates a diagnostic for an annotation that names a
// macro namespace but no registered macro.
func UnknownMacroError(name string, span position.Span, suggestions []string) Diagnostic {
	builder := NewDiagnosticBuilder().
		Warning().
		WithCode("M002").
		WithCategory(CategoryUnknownMacro).
		WithMessagef("unknown macro '%s'", name).
		WithSpan(span)

	switch len(suggestions) {
	case 0:
	case 1:
		builder.AddAutomaticFix(fmt.Sprintf("Did you mean '%s'?", suggestions[0]), suggestions[0], span)
	default:
		builder.AddManualFix(fmt.Sprintf("Did you mean one of: %s?", strings.Join(suggestions, ", ")))
	}

	return builder.Build()
}

// StubMismatchWarning creates a diagnostic for a declaration whose
// stub-backed and tree-backed readings disagree.
func StubMismatchWarning(owner string, span position.Span, diff string) Diagnostic {
	builder := NewDiagnosticBuilder().
		Warning().
		WithCode("S001").
		WithCategory(CategoryStubMismatch).
		WithMessagef("stub for '%s' is out of date", owner).
		WithSpan(span).
		AddManualFix("Re-index the file")
	if diff != "" {
		builder.WithExplanation(diff)
	}

	return builder.Build()
}

// ConversionError creates a diagnostic for a declaration that could not
// be converted to its meta form.
func ConversionError(owner string, span position.Span, cause error) Diagnostic {
	return NewDiagnosticBuilder().
		Error().
		WithCode("C001").
		WithCategory(CategoryConversion).
		WithMessagef("cannot convert '%s'", owner).
		WithSpan(span).
		WithExplanationf("%v", cause).
		Build()
}

// WorkspaceError creates a diagnostic for a file the workspace could not
// read or index.
func WorkspaceError(path string, cause error) Diagnostic {
	return NewDiagnosticBuilder().
		Error().
		WithCode("W001").
		WithCategory(CategoryWorkspace).
		WithSourceFile(path).
		WithMessagef("%v", cause).
		Build()
}
