package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/orizon-lang/declview/internal/workspace"
)

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Keep a workspace expanded while its files change",
		Long: `Index and expand a workspace, then watch it and re-expand every file
that changes until interrupted.`,
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
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runWatch(ctx, cmd)
		},
	}
}

func (a *app) runWatch(ctx context.Context, cmd *cobra.Command) error {
	ws := a.workspace()
	results, err := ws.PreprocessAll(ctx)
	if err != nil {
		return err
	}
	dm := a.pre.Reporter().Manager()
	seen := printDiagnostics(cmd.ErrOrStderr(), dm, 0)
	a.logger.Info("watching %s (%d files)", ws.Root(), len(results))

	out := cmd.OutOrStdout()
	return ws.Watch(ctx, func(changes []workspace.Change) {
		for _, c := range changes {
			fmt.Fprintln(out, describeChange(c))
		}
		seen = printDiagnostics(cmd.ErrOrStderr(), dm, seen)
	})
}

func describeChange(c workspace.Change) string {
	switch {
	case c.Removed:
		return fmt.Sprintf("%s: removed", c.Path)
	case c.Err != nil:
		return fmt.Sprintf("%s: %v", c.Path, c.Err)
	case c.Result != nil:
		return fmt.Sprintf("%s: %s, %d expanded, %d failed", c.Path, c.Op, len(c.Result.Expanded), c.Result.Failed)
	}
	return fmt.Sprintf("%s: %s", c.Path, c.Op)
}
