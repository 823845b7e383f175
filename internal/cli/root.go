// Package cli provides the declview command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/orizon-lang/declview/internal/config"
	"github.com/orizon-lang/declview/internal/index"
	"github.com/orizon-lang/declview/internal/macro"
	"github.com/orizon-lang/declview/internal/overlay"
	"github.com/orizon-lang/declview/internal/workspace"
)

const toolName = "declview"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   toolName,
		Short: "declview - declaration views with macro expansion",
		Long: `declview reads the declarations of .oriz sources either from a stub index
or from the parsed tree, and expands macro-annotated declarations into
hidden generated declarations.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: <root>/declview.yaml)")
	pf.String("root", "", "workspace root directory")
	pf.StringSlice("include", nil, "glob patterns of workspace sources")
	pf.StringSlice("exclude", nil, "glob patterns excluded from the workspace")
	pf.Int("debounce", config.DefaultDebounce, "milliseconds to wait for file changes to settle")
	pf.String("macros-dir", "", "directory of Starlark macro files")
	pf.String("macros-api", "", "semver constraint macro files must satisfy")
	pf.Int("max-depth", 0, "maximum nesting of macro invocations")
	pf.Float64("suggest-threshold", 0, "minimum similarity for unknown macro suggestions")
	pf.Int("concurrency", 0, "files preprocessed at once")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("log-format", "", "log format (text|json)")
	pf.BoolP("verbose", "v", false, "verbose output")
	pf.Bool("debug", false, "debug output")
	pf.StringP("output", "o", FormatTable, "output format (table|json|yaml)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{FormatTable, FormatJSON, FormatYAML}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newExpandCommand())
	rootCmd.AddCommand(newIndexCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

// Execute runs the root command. The error is returned unreported; see
// ExitWithError.
func Execute() error {
	return NewRootCmd().Execute()
}

// app is what every command works with once flags and config are read.
type app struct {
	cfg      *config.Config
	logger   *Logger
	renderer *Renderer
	engine   *macro.Engine
	pre      *overlay.Preprocessor
}

// newApp loads the configuration and the macro registry. A non-empty root
// overrides the default workspace root.
func newApp(cmd *cobra.Command, root string) (*app, error) {
	flags := cmd.Root().PersistentFlags()
	cfgFile, _ := flags.GetString("config")
	verbose, _ := flags.GetBool("verbose")
	debug, _ := flags.GetBool("debug")
	output, _ := flags.GetString("output")

	renderer, err := NewRenderer(cmd.OutOrStdout(), output)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.Options{File: cfgFile, Root: root, Flags: flags})
	if err != nil {
		return nil, err
	}

	logger, err := NewLoggerFromConfig(cmd.ErrOrStderr(), cfg.Log, verbose, debug)
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		logger.Info("using config file %s", cfg.File)
	}

	engine := macro.NewEngine(
		macro.WithLogger(logger.Slog()),
		macro.WithMaxDepth(cfg.Macros.MaxDepth),
	)
	n, err := engine.LoadDir(cfg.Macros.Dir, cfg.Macros.API)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded %d macros from %s", n, cfg.Macros.Dir)

	pre := overlay.NewPreprocessor(engine,
		overlay.WithLogger(logger.Slog()),
		overlay.WithSuggestThreshold(cfg.Macros.SuggestThreshold),
		overlay.WithConcurrency(cfg.Preprocess.Concurrency),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		renderer: renderer,
		engine:   engine,
		pre:      pre,
	}, nil
}

func (a *app) workspace() *workspace.Workspace {
	return workspace.FromConfig(a.cfg, a.pre, a.logger.Slog())
}

func (a *app) newIndex() *index.Index {
	return index.New(a.logger.Slog())
}
