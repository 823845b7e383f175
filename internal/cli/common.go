package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/orizon-lang/declview/internal/config"
	"github.com/orizon-lang/declview/internal/errors"
)

// Version information for the declview tool
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	CommitSHA = "unknown" // Will be set during build
)

// VersionInfo contains version and build information
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	CommitSHA string `json:"commit_sha" yaml:"commit_sha"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
	Arch      string `json:"arch" yaml:"arch"`
}

// GetVersionInfo returns structured version information
func GetVersionInfo() *VersionInfo {
	return &VersionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		CommitSHA: CommitSHA,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// PrintVersion prints version information as text, json or yaml.
func PrintVersion(w io.Writer, toolName, format string) error {
	info := GetVersionInfo()
	doc := map[string]interface{}{
		"tool":         toolName,
		"version_info": info,
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version info: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to marshal version info: %w", err)
		}
		return enc.Close()
	}

	fmt.Fprintf(w, "%s v%s\n", toolName, info.Version)
	fmt.Fprintf(w, "Build Date: %s\n", info.BuildDate)
	if info.CommitSHA != "unknown" && info.CommitSHA != "" {
		fmt.Fprintf(w, "Commit: %s\n", info.CommitSHA)
	}
	fmt.Fprintf(w, "Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(w, "Platform: %s/%s\n", info.Platform, info.Arch)
	return nil
}

// Exit codes of the declview command.
const (
	ExitOK        = 0
	ExitFailure   = 1 // command, flag or I/O failure
	ExitConfig    = 2 // invalid configuration or macro files
	ExitExpansion = 3 // a declaration failed to expand
)

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch errors.CategoryOf(err) {
	case errors.CategoryConfig, errors.CategoryMacro:
		return ExitConfig
	case errors.CategoryExpansion:
		return ExitExpansion
	default:
		return ExitFailure
	}
}

// ReportError writes err to w and returns the exit code for it.
func ReportError(w io.Writer, err error) int {
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return ExitCode(err)
}

// ExitWithError reports err on stderr and exits with its exit code.
func ExitWithError(err error) {
	os.Exit(ReportError(os.Stderr, err))
}

// Logger wraps a slog.Logger with printf-style helpers for command code.
type Logger struct {
	Verbose   bool
	DebugMode bool

	slog *slog.Logger
}

// NewLogger creates a logger writing to w. The level comes from level,
// lowered to info by verbose and to debug by debug. format is "text" or
// "json".
func NewLogger(w io.Writer, level slog.Level, verbose, debug bool, format string) *Logger {
	if verbose && level > slog.LevelInfo {
		level = slog.LevelInfo
	}
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{
		Verbose:   verbose,
		DebugMode: debug,
		slog:      slog.New(handler),
	}
}

// NewLoggerFromConfig creates a logger from the log section of cfg.
func NewLoggerFromConfig(w io.Writer, cfg config.LogConfig, verbose, debug bool) (*Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return NewLogger(w, level, verbose, debug, cfg.Format), nil
}

// Slog returns the structured logger handed to library packages.
func (l *Logger) Slog() *slog.Logger { return l.slog }

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.slog.Info(fmt.Sprintf(format, args...))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.slog.Debug(fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.slog.Warn(fmt.Sprintf(format, args...))
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.slog.Error(fmt.Sprintf(format, args...))
}
