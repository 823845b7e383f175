package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/diagnostics"
	"github.com/orizon-lang/declview/internal/overlay"
)

func newIndexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "index [dir]",
		Short: "Index a workspace and expand its macros",
		Long: `Discover the sources of a workspace, build their stubs, expand every
macro-annotated declaration and summarize the result per file.

The directory defaults to the configured workspace root.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) == 1 {
				root = args[0]
			}
			a, err := newApp(cmd, root)
			if err != nil {
				return err
			}
			return a.runIndex(cmd)
		},
	}
}

type fileRow struct {
	Path         string `json:"path" yaml:"path"`
	Declarations int    `json:"declarations" yaml:"declarations"`
	Expanded     int    `json:"expanded" yaml:"expanded"`
	Failed       int    `json:"failed" yaml:"failed"`
	Unknown      int    `json:"unknown" yaml:"unknown"`
	Materialized bool   `json:"materialized" yaml:"materialized"`
}

type indexReport struct {
	Root        string                        `json:"root" yaml:"root"`
	Files       []fileRow                     `json:"files" yaml:"files"`
	Stubs       int                           `json:"stubs" yaml:"stubs"`
	Diagnostics diagnostics.DiagnosticSummary `json:"diagnostics" yaml:"diagnostics"`
}

func newFileRow(f *decl.File, res *overlay.Result) fileRow {
	row := fileRow{
		Path:         f.Path(),
		Declarations: len(decl.CollectOwners(f, false)),
	}
	if res != nil {
		row.Expanded = len(res.Expanded)
		row.Failed = res.Failed
		row.Unknown = res.Unknown
	}
	// Read last: preprocessing may have parsed the tree.
	row.Materialized = f.IsMaterialized()
	return row
}

func (a *app) runIndex(cmd *cobra.Command) error {
	ws := a.workspace()
	results, err := ws.PreprocessAll(cmd.Context())
	if err != nil {
		return err
	}
	byPath := make(map[string]*overlay.Result, len(results))
	for _, r := range results {
		if r != nil {
			byPath[r.Path] = r
		}
	}

	report := indexReport{Root: ws.Root(), Stubs: ws.Index().Len()}
	for _, f := range ws.Files() {
		report.Files = append(report.Files, newFileRow(f, byPath[f.Path()]))
	}

	dm := a.pre.Reporter().Manager()
	dm.SortDiagnostics()
	report.Diagnostics = dm.GetDiagnosticSummary()
	printDiagnostics(cmd.ErrOrStderr(), dm, 0)

	if a.renderer.Structured() {
		return a.renderer.Encode(report)
	}

	rows := make([]table.Row, 0, len(report.Files))
	var decls, expanded, failed int
	for _, f := range report.Files {
		rows = append(rows, table.Row{f.Path, f.Declarations, f.Expanded, f.Failed, f.Unknown, f.Materialized})
		decls += f.Declarations
		expanded += f.Expanded
		failed += f.Failed
	}
	a.renderer.Table(report.Root,
		table.Row{"File", "Declarations", "Expanded", "Failed", "Unknown", "Materialized"},
		rows)
	a.renderer.Println(fmt.Sprintf("%d files, %d declarations, %d expanded, %d failed, %d stubs cached",
		len(report.Files), decls, expanded, failed, report.Stubs))
	a.renderer.Println(dm.FormatSummary())
	return nil
}
