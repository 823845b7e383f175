package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orizon-lang/declview/internal/errors"
	"github.com/orizon-lang/declview/internal/format"
	"github.com/orizon-lang/declview/internal/overlay"
)

type expandOptions struct {
	write bool
	diff  bool
}

func newExpandCommand() *cobra.Command {
	opts := &expandOptions{}
	cmd := &cobra.Command{
		Use:   "expand <file>",
		Short: "Print a file with its macro-annotated declarations expanded",
		Long: `Expand every macro-annotated declaration of a file and print the text
with each expanded declaration replaced by the declaration its macro
generated.`,
		Example: `  # Print the expanded text
  declview expand src/model.oriz

  # Show what the macros change
  declview expand src/model.oriz --diff

  # Replace the file with its expansion
  declview expand src/model.oriz --write`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.write && opts.diff {
				return fmt.Errorf("--write and --diff are mutually exclusive")
			}
			a, err := newApp(cmd, "")
			if err != nil {
				return err
			}
			return a.runExpand(cmd, args[0], opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.write, "write", "w", false, "write the expansion back to the file")
	cmd.Flags().BoolVarP(&opts.diff, "diff", "d", false, "print a unified diff instead of the text")
	return cmd
}

type expandReport struct {
	Path     string   `json:"path" yaml:"path"`
	Changed  bool     `json:"changed" yaml:"changed"`
	Expanded []string `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	Failed   int      `json:"failed" yaml:"failed"`
	Unknown  int      `json:"unknown" yaml:"unknown"`
	Text     string   `json:"text,omitempty" yaml:"text,omitempty"`
	Diff     string   `json:"diff,omitempty" yaml:"diff,omitempty"`
}

func (a *app) runExpand(cmd *cobra.Command, path string, opts *expandOptions) error {
	_, f, err := a.openFile(path)
	if err != nil {
		return err
	}
	res, err := a.pre.PreprocessFile(cmd.Context(), f)
	if err != nil {
		return err
	}
	text, changed := overlay.Materialize(f, res.Expanded...)

	report := expandReport{
		Path:    path,
		Changed: changed,
		Failed:  res.Failed,
		Unknown: res.Unknown,
	}
	for _, o := range res.Expanded {
		report.Expanded = append(report.Expanded, o.Name())
	}

	dm := a.pre.Reporter().Manager()
	dm.SortDiagnostics()
	printDiagnostics(cmd.ErrOrStderr(), dm, 0)

	switch {
	case opts.write:
		if changed {
			info, err := os.Stat(path)
			if err != nil {
				return errors.WorkspaceIO(path, err)
			}
			if err := os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
				return errors.WorkspaceIO(path, err)
			}
			a.logger.Info("wrote %s (%d declarations expanded)", path, len(res.Expanded))
		}
	case opts.diff:
		report.Diff = format.Unified(path, f.Text(), overlay.Splices(f, res.Expanded...), format.DefaultDiffOptions())
	default:
		report.Text = text
	}

	if a.renderer.Structured() {
		if err := a.renderer.Encode(report); err != nil {
			return err
		}
	} else if report.Diff != "" {
		fmt.Fprint(cmd.OutOrStdout(), report.Diff)
	} else if report.Text != "" {
		fmt.Fprint(cmd.OutOrStdout(), report.Text)
	}

	if dm.HasErrors() {
		return errors.NewStandardError(errors.CategoryExpansion, errors.CodeExpansionFailed,
			fmt.Sprintf("%d declaration(s) of %s failed to expand", res.Failed, path),
			map[string]interface{}{"path": path, "failed": res.Failed})
	}
	return nil
}
