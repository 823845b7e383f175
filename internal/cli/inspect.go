package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/diagnostics"
	"github.com/orizon-lang/declview/internal/errors"
	"github.com/orizon-lang/declview/internal/overlay"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the declarations of a file",
		Long: `Read the declarations of a file both from its stub and from its parsed
tree, expand the macro-annotated ones and report where the two readings
disagree.`,
		Example: `  # Table of declarations
  declview inspect src/model.oriz

  # Machine readable
  declview inspect src/model.oriz -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, "")
			if err != nil {
				return err
			}
			return a.runInspect(cmd, args[0])
		},
	}
}

// declRow is one declaration as reported by inspect.
type declRow struct {
	Name           string   `json:"name" yaml:"name"`
	Kind           string   `json:"kind" yaml:"kind"`
	Line           int      `json:"line" yaml:"line"`
	Modifiers      []string `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	TypeParameters []string `json:"type_parameters,omitempty" yaml:"type_parameters,omitempty"`
	Annotations    []string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Macro          string   `json:"macro,omitempty" yaml:"macro,omitempty"`
	Status         string   `json:"status" yaml:"status"`
	StubMatches    bool     `json:"stub_matches" yaml:"stub_matches"`
}

type inspectReport struct {
	Path         string                        `json:"path" yaml:"path"`
	Declarations []declRow                     `json:"declarations" yaml:"declarations"`
	Materialized bool                          `json:"materialized" yaml:"materialized"`
	Diagnostics  diagnostics.DiagnosticSummary `json:"diagnostics" yaml:"diagnostics"`
}

// openFile reads path and returns its tree-backed and its stub-backed
// reading.
func (a *app) openFile(path string) (tree, stubbed *decl.File, err error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is a command argument
	if err != nil {
		return nil, nil, errors.WorkspaceIO(path, err)
	}
	text := string(data)
	tools := overlay.NewTools()
	tree = decl.ParseFile(path, text, tools)
	s, _ := a.newIndex().GetOrBuild(path, text)
	return tree, decl.NewStubFile(path, text, s, tools), nil
}

func (a *app) runInspect(cmd *cobra.Command, path string) error {
	tree, stubbed, err := a.openFile(path)
	if err != nil {
		return err
	}
	reporter := a.pre.Reporter()
	reporter.AddSource(path, tree.Text())
	reporter.ParseErrors(path, tree.ParseErrors())

	if _, err := a.pre.PreprocessFile(cmd.Context(), stubbed); err != nil {
		return err
	}

	treeOwners := decl.CollectOwners(tree, false)
	stubOwners := decl.CollectOwners(stubbed, false)
	if len(treeOwners) != len(stubOwners) {
		reporter.StubMismatch(path, reporter.Span(path, 0, 0),
			fmt.Sprintf("stub has %d declarations, tree has %d", len(stubOwners), len(treeOwners)))
	}

	report := inspectReport{Path: path}
	for i, o := range stubOwners {
		row := a.describe(o, true)
		row.StubMatches = true
		if i < len(treeOwners) {
			fromTree := a.describe(treeOwners[i], false)
			row.Line = overlay.SourceSpan(treeOwners[i]).Start.Line
			if diff := readingDiff(row, fromTree); diff != "" {
				row.StubMatches = false
				reporter.StubMismatch(row.Name, overlay.SourceSpan(treeOwners[i]), diff)
			}
		}
		report.Declarations = append(report.Declarations, row)
	}
	report.Materialized = stubbed.IsMaterialized()

	dm := reporter.Manager()
	dm.SortDiagnostics()
	report.Diagnostics = dm.GetDiagnosticSummary()

	if a.renderer.Structured() {
		printDiagnostics(cmd.ErrOrStderr(), dm, 0)
		return a.renderer.Encode(report)
	}

	rows := make([]table.Row, 0, len(report.Declarations))
	for _, d := range report.Declarations {
		match := "yes"
		if !d.StubMatches {
			match = "no"
		}
		rows = append(rows, table.Row{
			d.Line,
			d.Kind,
			d.Name,
			strings.Join(d.TypeParameters, ", "),
			strings.Join(d.Annotations, " "),
			d.Macro,
			d.Status,
			match,
		})
	}
	a.renderer.Table(path,
		table.Row{"Line", "Kind", "Name", "Type Params", "Annotations", "Macro", "Status", "Stub"},
		rows)
	printDiagnostics(cmd.ErrOrStderr(), dm, 0)
	a.renderer.Println(dm.FormatSummary())
	return nil
}

// describe reads o through the accessor API. The expansion status is
// filled in only when withStatus is set.
func (a *app) describe(o decl.TypeParameterListOwner, withStatus bool) declRow {
	row := declRow{
		Name:      o.Name(),
		Kind:      kindLabel(o),
		Modifiers: o.Modifiers(),
		Status:    "-",
	}
	for _, p := range o.TypeParameters() {
		name := p.Name()
		if v := p.Variance(); v != "" {
			name = v + " " + name
		}
		row.TypeParameters = append(row.TypeParameters, name)
	}
	for _, ann := range o.Annotations() {
		row.Annotations = append(row.Annotations, "@"+ann.QualifiedName())
		if row.Macro == "" && a.engine.IsMacroAnnotation(ann) {
			row.Macro, _ = a.engine.Resolve(ann)
		}
	}
	if withStatus && row.Macro != "" {
		row.Status = expansionStatus(o, a.engine)
	}
	return row
}

// expansionStatus reports how the macro of o went. The attempt is not
// repeated: an owner remembers its first attempt.
func expansionStatus(o decl.TypeParameterListOwner, x decl.MacroExpander) string {
	if o.HasHiddenElementInitialized() {
		return "expanded"
	}
	if o.MetaTools() == nil {
		return "pending"
	}
	if err := o.InitializeHiddenElement(x); err != nil {
		return "failed"
	}
	if o.HasHiddenElementInitialized() {
		return "expanded"
	}
	return "declined"
}

func kindLabel(o decl.TypeParameterListOwner) string {
	if c, ok := o.(*decl.Class); ok {
		return c.Keyword()
	}
	return "func"
}

// readingDiff describes where two readings of one declaration differ.
func readingDiff(stubRow, treeRow declRow) string {
	var diffs []string
	if stubRow.Name != treeRow.Name {
		diffs = append(diffs, fmt.Sprintf("name %q vs %q", stubRow.Name, treeRow.Name))
	}
	if stubRow.Kind != treeRow.Kind {
		diffs = append(diffs, fmt.Sprintf("kind %s vs %s", stubRow.Kind, treeRow.Kind))
	}
	if !slices.Equal(stubRow.TypeParameters, treeRow.TypeParameters) {
		diffs = append(diffs, fmt.Sprintf("type parameters [%s] vs [%s]",
			strings.Join(stubRow.TypeParameters, ", "), strings.Join(treeRow.TypeParameters, ", ")))
	}
	if !slices.Equal(stubRow.Annotations, treeRow.Annotations) {
		diffs = append(diffs, fmt.Sprintf("annotations [%s] vs [%s]",
			strings.Join(stubRow.Annotations, " "), strings.Join(treeRow.Annotations, " ")))
	}
	if !slices.Equal(stubRow.Modifiers, treeRow.Modifiers) {
		diffs = append(diffs, fmt.Sprintf("modifiers [%s] vs [%s]",
			strings.Join(stubRow.Modifiers, " "), strings.Join(treeRow.Modifiers, " ")))
	}
	if len(diffs) == 0 {
		return ""
	}
	return "stub vs tree: " + strings.Join(diffs, "; ")
}
