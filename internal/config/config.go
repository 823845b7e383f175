// Package config loads declview settings. Values are layered, lowest
// precedence first: defaults, declview.yaml, DECLVIEW_ environment
// variables, command line flags.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/orizon-lang/declview/internal/errors"
)

const (
	EnvPrefix       = "DECLVIEW_"
	DefaultInclude  = "**/*.oriz"
	DefaultMacros   = "macros"
	DefaultAPI      = "^1.0.0"
	DefaultDebounce = 100
)

// FileNames are the config file names looked up in the workspace root.
var FileNames = []string{"declview.yaml", "declview.yml"}

// flagKeys maps command line flags to config keys. Other flags are not
// configuration.
var flagKeys = map[string]string{
	"root":              "workspace.root",
	"include":           "workspace.include",
	"exclude":           "workspace.exclude",
	"debounce":          "workspace.debounce_ms",
	"macros-dir":        "macros.dir",
	"macros-api":        "macros.api",
	"max-depth":         "macros.max_depth",
	"suggest-threshold": "macros.suggest_threshold",
	"concurrency":       "preprocess.concurrency",
	"log-level":         "log.level",
	"log-format":        "log.format",
}

type WorkspaceConfig struct {
	Root       string   `koanf:"root"`
	Include    []string `koanf:"include"`
	Exclude    []string `koanf:"exclude"`
	DebounceMS int      `koanf:"debounce_ms"`
}

type MacrosConfig struct {
	Dir              string  `koanf:"dir"`
	API              string  `koanf:"api"`
	MaxDepth         int     `koanf:"max_depth"`
	SuggestThreshold float64 `koanf:"suggest_threshold"`
}

type PreprocessConfig struct {
	Concurrency int `koanf:"concurrency"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Config holds all declview settings.
type Config struct {
	Workspace  WorkspaceConfig  `koanf:"workspace"`
	Macros     MacrosConfig     `koanf:"macros"`
	Preprocess PreprocessConfig `koanf:"preprocess"`
	Log        LogConfig        `koanf:"log"`

	// File is the config file that was read, empty when none was.
	File string `koanf:"-"`
}

// Defaults returns the lowest configuration layer.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"workspace.root":           ".",
		"workspace.include":        []string{DefaultInclude},
		"workspace.exclude":        []string{},
		"workspace.debounce_ms":    DefaultDebounce,
		"macros.dir":               DefaultMacros,
		"macros.api":               DefaultAPI,
		"macros.max_depth":         16,
		"macros.suggest_threshold": 0.8,
		"preprocess.concurrency":   4,
		"log.level":                "info",
		"log.format":               "text",
	}
}

// Options selects the sources Load reads besides the defaults.
type Options struct {
	// File is an explicit config file. When empty, FileNames are looked
	// up in the workspace root.
	File string
	// Root is the default workspace root. Defaults to the working
	// directory.
	Root  string
	Flags *pflag.FlagSet
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	defaults := Defaults()
	if opts.Root != "" {
		defaults["workspace.root"] = opts.Root
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	lookupRoot := k.String("workspace.root")
	if opts.Flags != nil && opts.Flags.Changed("root") {
		lookupRoot, _ = opts.Flags.GetString("root")
	}
	cfgFile := findConfigFile(opts.File, lookupRoot)
	if cfgFile != "" {
		fileLayer := koanf.New(".")
		if err := fileLayer.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		// A root written in the file is relative to the file.
		if fileLayer.Exists("workspace.root") {
			dir := filepath.Dir(cfgFile)
			if err := fileLayer.Set("workspace.root", resolvePathRelativeTo(fileLayer.String("workspace.root"), dir)); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
			}
		} else if opts.File != "" && opts.Root == "" {
			if err := fileLayer.Set("workspace.root", filepath.Dir(cfgFile)); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
			}
		}
		if err := k.Merge(fileLayer); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// DECLVIEW_MACROS__MAX_DEPTH -> macros.max_depth
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		switch key {
		case "workspace.include", "workspace.exclude":
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = cfgFile

	if abs, err := filepath.Abs(cfg.Workspace.Root); err == nil {
		cfg.Workspace.Root = abs
	}
	cfg.Macros.Dir = resolvePathRelativeTo(cfg.Macros.Dir, cfg.Workspace.Root)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile(explicit, root string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range FileNames {
		candidate := filepath.Join(root, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.Workspace.Root == "" {
		return errors.InvalidConfig("workspace.root", "must not be empty")
	}
	if len(c.Workspace.Include) == 0 {
		return errors.InvalidConfig("workspace.include", "needs at least one pattern")
	}
	for key, patterns := range map[string][]string{
		"workspace.include": c.Workspace.Include,
		"workspace.exclude": c.Workspace.Exclude,
	} {
		for _, p := range patterns {
			if !doublestar.ValidatePattern(p) {
				return errors.InvalidConfig(key, fmt.Sprintf("bad pattern %q", p))
			}
		}
	}
	if c.Workspace.DebounceMS < 0 {
		return errors.InvalidConfig("workspace.debounce_ms", "must not be negative")
	}
	if c.Macros.API != "" {
		if _, err := semver.NewConstraint(c.Macros.API); err != nil {
			return errors.InvalidConfig("macros.api", err.Error())
		}
	}
	if c.Macros.MaxDepth <= 0 {
		return errors.InvalidConfig("macros.max_depth", "must be positive")
	}
	if c.Macros.SuggestThreshold < 0 || c.Macros.SuggestThreshold > 1 {
		return errors.InvalidConfig("macros.suggest_threshold", "must be between 0 and 1")
	}
	if c.Preprocess.Concurrency <= 0 {
		return errors.InvalidConfig("preprocess.concurrency", "must be positive")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.InvalidConfig("log.format", fmt.Sprintf("unknown format %q", c.Log.Format))
	}
	return nil
}

// ParseLevel maps a log.level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.InvalidConfig("log.level", fmt.Sprintf("unknown level %q", s))
}
