package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/orizon-lang/declview/internal/diagnostics"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Renderer writes command results in the selected output format.
type Renderer struct {
	w      io.Writer
	format string
}

// NewRenderer creates a renderer. An empty format means table.
func NewRenderer(w io.Writer, format string) (*Renderer, error) {
	switch format {
	case "":
		format = FormatTable
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
	return &Renderer{w: w, format: format}, nil
}

func (r *Renderer) Format() string { return r.format }

// Structured reports whether results are encoded instead of tabulated.
func (r *Renderer) Structured() bool { return r.format != FormatTable }

// Encode writes v as json or yaml.
func (r *Renderer) Encode(v interface{}) error {
	if r.format == FormatYAML {
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table writes a table with an optional title.
func (r *Renderer) Table(title string, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}

// Println writes a line of text.
func (r *Renderer) Println(a ...interface{}) {
	fmt.Fprintln(r.w, a...)
}

// printDiagnostics writes the diagnostics collected so far, starting at
// the given index, and returns the new count.
func printDiagnostics(w io.Writer, dm *diagnostics.DiagnosticManager, from int) int {
	all := dm.GetDiagnostics()
	for _, d := range all[min(from, len(all)):] {
		fmt.Fprintln(w, dm.FormatDiagnostic(d, false))
	}
	return len(all)
}
