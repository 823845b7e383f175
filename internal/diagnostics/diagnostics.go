// Package diagnostics collects the problems found while parsing, indexing
// and expanding declview sources, with source context for display.
package diagnostics

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/orizon-lang/declview/internal/position"
)

// DiagnosticLevel represents the severity level of a diagnostic
type DiagnosticLevel int

const (
	DiagnosticError DiagnosticLevel = iota
	DiagnosticWarning
	DiagnosticInfo
	DiagnosticHint
)

func (dl DiagnosticLevel) String() string {
	switch dl {
	case DiagnosticError:
		return "error"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticInfo:
		return "info"
	case DiagnosticHint:
		return "hint"
	default:
		return "unknown"
	}
}

// DiagnosticCategory represents the category of diagnostic
type DiagnosticCategory int

const (
	CategoryParsing DiagnosticCategory = iota
	CategoryMacroExpansion
	CategoryUnknownMacro
	CategoryStubMismatch
	CategoryConversion
	CategoryWorkspace
)

func (dc DiagnosticCategory) String() string {
	switch dc {
	case CategoryParsing:
		return "parsing"
	case CategoryMacroExpansion:
		return "macro-expansion"
	case CategoryUnknownMacro:
		return "unknown-macro"
	case CategoryStubMismatch:
		return "stub-mismatch"
	case CategoryConversion:
		return "conversion"
	case CategoryWorkspace:
		return "workspace"
	default:
		return "unknown"
	}
}

// FixSuggestion represents a suggested fix for a diagnostic
type FixSuggestion struct {
	Description string
	Replacement string
	Span        position.Span
	Automatic   bool // Whether this fix can be applied automatically
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Level    DiagnosticLevel
	Category DiagnosticCategory
	Message  string
	Span     position.Span
	Code     string // error code, e.g. "M001"

	Context []string // source lines around the span

	Explanation    string
	FixSuggestions []FixSuggestion

	SourceFile string
}

// DiagnosticManager collects diagnostics. It is safe for concurrent use.
type DiagnosticManager struct {
	mu           sync.Mutex
	diagnostics  []Diagnostic
	errorCount   int
	warningCount int
	maxErrors    int
	maxWarnings  int
	sources      *position.SourceMap
	suppressions map[DiagnosticCategory]bool
}

// NewDiagnosticManager creates a new diagnostic manager
func NewDiagnosticManager() *DiagnosticManager {
	return &DiagnosticManager{
		maxErrors:    100,
		maxWarnings:  1000,
		sources:      position.NewSourceMap(),
		suppressions: make(map[DiagnosticCategory]bool),
	}
}

// SetErrorLimit sets the maximum number of errors kept.
func (dm *DiagnosticManager) SetErrorLimit(limit int) {
	dm.mu.Lock()
	dm.maxErrors = limit
	dm.mu.Unlock()
}

// SetWarningLimit sets the maximum number of warnings kept.
func (dm *DiagnosticManager) SetWarningLimit(limit int) {
	dm.mu.Lock()
	dm.maxWarnings = limit
	dm.mu.Unlock()
}

// SuppressCategory suppresses all diagnostics of a specific category
func (dm *DiagnosticManager) SuppressCategory(category DiagnosticCategory) {
	dm.mu.Lock()
	dm.suppressions[category] = true
	dm.mu.Unlock()
}

// Sources is the source map used for context lines. Register file texts
// there to get context in formatted diagnostics.
func (dm *DiagnosticManager) Sources() *position.SourceMap { return dm.sources }

// AddDiagnostic adds a new diagnostic to the manager
func (dm *DiagnosticManager) AddDiagnostic(diagnostic Diagnostic) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.suppressions[diagnostic.Category] {
		return
	}
	if diagnostic.Level == DiagnosticError && dm.errorCount >= dm.maxErrors {
		return
	}
	if diagnostic.Level == DiagnosticWarning && dm.warningCount >= dm.maxWarnings {
		return
	}

	switch diagnostic.Level {
	case DiagnosticError:
		dm.errorCount++
	case DiagnosticWarning:
		dm.warningCount++
	}

	dm.enhanceDiagnostic(&diagnostic)
	dm.diagnostics = append(dm.diagnostics, diagnostic)
}

// enhanceDiagnostic adds context information to a diagnostic
func (dm *DiagnosticManager) enhanceDiagnostic(d *Diagnostic) {
	if d.SourceFile == "" || len(d.Context) > 0 {
		return
	}
	if sf := dm.sources.GetFile(d.SourceFile); sf != nil {
		d.Context = extractContext(sf.Lines, d.Span)
	}
}

// extractContext returns the lines of the span. Context for a span
// starting on line n begins at line n.
func extractContext(lines []string, span position.Span) []string {
	if len(lines) == 0 || span.Start.Line < 1 {
		return nil
	}
	start := span.Start.Line - 1
	end := min(len(lines)-1, max(span.End.Line-1, start))
	if start > end {
		return nil
	}
	return append([]string(nil), lines[start:end+1]...)
}

// GetDiagnostics returns a copy of all diagnostics
func (dm *DiagnosticManager) GetDiagnostics() []Diagnostic {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return append([]Diagnostic(nil), dm.diagnostics...)
}

// GetErrorCount returns the number of errors
func (dm *DiagnosticManager) GetErrorCount() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.errorCount
}

// GetWarningCount returns the number of warnings
func (dm *DiagnosticManager) GetWarningCount() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.warningCount
}

// HasErrors returns true if there are any errors
func (dm *DiagnosticManager) HasErrors() bool {
	return dm.GetErrorCount() > 0
}

// SortDiagnostics sorts diagnostics by location and severity
func (dm *DiagnosticManager) SortDiagnostics() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	sort.SliceStable(dm.diagnostics, func(i, j int) bool {
		a, b := dm.diagnostics[i], dm.diagnostics[j]
		if a.SourceFile != b.SourceFile {
			return a.SourceFile < b.SourceFile
		}
		if a.Span.Start.Line != b.Span.Start.Line {
			return a.Span.Start.Line < b.Span.Start.Line
		}
		if a.Span.Start.Column != b.Span.Start.Column {
			return a.Span.Start.Column < b.Span.Start.Column
		}
		return a.Level < b.Level
	})
}

// FormatDiagnostic formats a diagnostic for display
func (dm *DiagnosticManager) FormatDiagnostic(d Diagnostic, colorize bool) string {
	var result strings.Builder

	if colorize {
		result.WriteString(colorizeLevel(d.Level))
	}
	result.WriteString(d.Level.String())
	if d.Code != "" {
		result.WriteString("[" + d.Code + "]")
	}
	if colorize {
		result.WriteString("\033[0m")
	}
	result.WriteString(": " + d.Message)

	if d.SourceFile != "" {
		result.WriteString("\n  --> " + d.SourceFile)
		result.WriteString(fmt.Sprintf(":%d:%d", d.Span.Start.Line, d.Span.Start.Column))
	}

	if len(d.Context) > 0 {
		result.WriteString("\n")
		result.WriteString(position.Excerpt(d.Context, d.Span.Start.Line, d.Span))
	}

	if d.Explanation != "" {
		result.WriteString("\nExplanation:\n")
		result.WriteString("  " + d.Explanation + "\n")
	}

	if len(d.FixSuggestions) > 0 {
		result.WriteString("\nSuggested fixes:\n")
		for _, fix := range d.FixSuggestions {
			result.WriteString("  - " + fix.Description)
			if fix.Automatic {
				result.WriteString(" (automatic)")
			}
			result.WriteString("\n")
		}
	}

	return result.String()
}

// colorizeLevel adds color codes for terminal display
func colorizeLevel(level DiagnosticLevel) string {
	switch level {
	case DiagnosticError:
		return "\033[31m" // Red
	case DiagnosticWarning:
		return "\033[33m" // Yellow
	case DiagnosticInfo:
		return "\033[34m" // Blue
	case DiagnosticHint:
		return "\033[90m" // Gray
	default:
		return ""
	}
}

// FormatSummary formats a summary of all diagnostics
func (dm *DiagnosticManager) FormatSummary() string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if len(dm.diagnostics) == 0 {
		return "No diagnostics."
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d error(s) and %d warning(s).", dm.errorCount, dm.warningCount))

	categoryCount := make(map[DiagnosticCategory]int)
	for _, d := range dm.diagnostics {
		categoryCount[d.Category]++
	}
	categories := make([]DiagnosticCategory, 0, len(categoryCount))
	for c := range categoryCount {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	result.WriteString("\n\nBreakdown by category:")
	for _, c := range categories {
		result.WriteString(fmt.Sprintf("\n  %s: %d", c, categoryCount[c]))
	}
	return result.String()
}

// GetDiagnosticsByLevel returns diagnostics filtered by level
func (dm *DiagnosticManager) GetDiagnosticsByLevel(level DiagnosticLevel) []Diagnostic {
	var filtered []Diagnostic
	for _, diag := range dm.GetDiagnostics() {
		if diag.Level == level {
			filtered = append(filtered, diag)
		}
	}
	return filtered
}

// GetDiagnosticsByCategory returns diagnostics filtered by category
func (dm *DiagnosticManager) GetDiagnosticsByCategory(category DiagnosticCategory) []Diagnostic {
	var filtered []Diagnostic
	for _, diag := range dm.GetDiagnostics() {
		if diag.Category == category {
			filtered = append(filtered, diag)
		}
	}
	return filtered
}

// GetDiagnosticSummary returns a summary of diagnostics
func (dm *DiagnosticManager) GetDiagnosticSummary() DiagnosticSummary {
	all := dm.GetDiagnostics()
	summary := DiagnosticSummary{TotalCount: len(all)}
	for _, diag := range all {
		switch diag.Level {
		case DiagnosticError:
			summary.ErrorCount++
		case DiagnosticWarning:
			summary.WarningCount++
		case DiagnosticInfo:
			summary.InfoCount++
		case DiagnosticHint:
			summary.HintCount++
		}
	}
	return summary
}

// DiagnosticSummary represents a summary of diagnostics
type DiagnosticSummary struct {
	TotalCount   int `json:"total" yaml:"total"`
	ErrorCount   int `json:"errors" yaml:"errors"`
	WarningCount int `json:"warnings" yaml:"warnings"`
	InfoCount    int `json:"info" yaml:"info"`
	HintCount    int `json:"hints" yaml:"hints"`
}
