// Package workspace owns the source files of a project: it finds them,
// opens them through the stub index and keeps them current.
package workspace

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/orizon-lang/declview/internal/config"
	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/errors"
	"github.com/orizon-lang/declview/internal/index"
	"github.com/orizon-lang/declview/internal/overlay"
)

// Workspace is the set of files under one root. It is safe for
// concurrent use; a single file must still be used from one goroutine at a
// time.
type Workspace struct {
	root     string
	fsys     fs.FS
	include  []string
	exclude  []string
	debounce time.Duration

	index  *index.Index
	tools  decl.MetaTools
	pre    *overlay.Preprocessor
	logger *slog.Logger

	mu    sync.RWMutex
	files map[string]*decl.File
}

type Option func(*Workspace)

// WithFS reads files from fsys instead of the root directory.
func WithFS(fsys fs.FS) Option {
	return func(w *Workspace) { w.fsys = fsys }
}

func WithInclude(patterns ...string) Option {
	return func(w *Workspace) { w.include = patterns }
}

func WithExclude(patterns ...string) Option {
	return func(w *Workspace) { w.exclude = patterns }
}

func WithDebounce(d time.Duration) Option {
	return func(w *Workspace) { w.debounce = d }
}

func WithIndex(ix *index.Index) Option {
	return func(w *Workspace) { w.index = ix }
}

func WithTools(t decl.MetaTools) Option {
	return func(w *Workspace) { w.tools = t }
}

func WithPreprocessor(p *overlay.Preprocessor) Option {
	return func(w *Workspace) { w.pre = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a workspace rooted at root.
func New(root string, opts ...Option) *Workspace {
	w := &Workspace{
		root:     root,
		include:  []string{config.DefaultInclude},
		debounce: config.DefaultDebounce * time.Millisecond,
		tools:    overlay.NewTools(),
		logger:   slog.Default(),
		files:    make(map[string]*decl.File),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.fsys == nil {
		w.fsys = os.DirFS(root)
	}
	if w.index == nil {
		w.index = index.New(w.logger)
	}
	return w
}

// FromConfig creates a workspace from the workspace section of cfg.
func FromConfig(cfg *config.Config, pre *overlay.Preprocessor, logger *slog.Logger) *Workspace {
	return New(cfg.Workspace.Root,
		WithInclude(cfg.Workspace.Include...),
		WithExclude(cfg.Workspace.Exclude...),
		WithDebounce(time.Duration(cfg.Workspace.DebounceMS)*time.Millisecond),
		WithPreprocessor(pre),
		WithLogger(logger),
	)
}

func (w *Workspace) Root() string        { return w.root }
func (w *Workspace) Index() *index.Index { return w.index }

// Abs returns the file system path of a workspace path.
func (w *Workspace) Abs(rel string) string {
	return filepath.Join(w.root, filepath.FromSlash(rel))
}

// Matches reports whether a slash separated workspace path is included
// and not excluded.
func (w *Workspace) Matches(rel string) bool {
	rel = path.Clean(rel)
	for _, p := range w.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	for _, p := range w.include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Discover lists the workspace paths of all included files, sorted.
func (w *Workspace) Discover() ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range w.include {
		matches, err := doublestar.Glob(w.fsys, p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.WorkspaceIO(p, err)
		}
		for _, m := range matches {
			if seen[m] || !w.Matches(m) {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Open returns the file at rel. A file opened before is returned as is;
// otherwise it is built from the stub index and its tree is parsed only
// when needed.
func (w *Workspace) Open(rel string) (*decl.File, error) {
	w.mu.RLock()
	f, ok := w.files[rel]
	w.mu.RUnlock()
	if ok {
		return f, nil
	}

	data, err := fs.ReadFile(w.fsys, rel)
	if err != nil {
		return nil, errors.WorkspaceIO(rel, err)
	}
	text := string(data)
	s, built := w.index.GetOrBuild(rel, text)
	f = decl.NewStubFile(rel, text, s, w.tools)

	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.files[rel]; ok {
		return existing, nil
	}
	w.files[rel] = f
	w.logger.Debug("opened file", "path", rel, "indexed", built)
	return f, nil
}

// Reparse drops the current file at rel, and with it every expansion made
// on it, and opens the file again from its current text.
func (w *Workspace) Reparse(rel string) (*decl.File, error) {
	w.Remove(rel)
	return w.Open(rel)
}

// Remove forgets the file at rel.
func (w *Workspace) Remove(rel string) {
	w.mu.Lock()
	delete(w.files, rel)
	w.mu.Unlock()
	w.index.Invalidate(rel)
}

// Files returns the open files sorted by path.
func (w *Workspace) Files() []*decl.File {
	w.mu.RLock()
	out := make([]*decl.File, 0, len(w.files))
	for _, f := range w.files {
		out = append(out, f)
	}
	w.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out
}

// OpenAll discovers and opens every file of the workspace. Files that
// cannot be read are reported to the preprocessor's reporter when there is
// one and skipped.
func (w *Workspace) OpenAll(ctx context.Context) ([]*decl.File, error) {
	paths, err := w.Discover()
	if err != nil {
		return nil, err
	}
	files := make([]*decl.File, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := w.Open(p)
		if err != nil {
			if w.pre == nil {
				return nil, err
			}
			w.pre.Reporter().WorkspaceFailed(p, err)
			continue
		}
		files = append(files, f)
	}
	return files, nil
}

// PreprocessAll opens every file and expands its macros.
func (w *Workspace) PreprocessAll(ctx context.Context) ([]*overlay.Result, error) {
	if w.pre == nil {
		return nil, errors.InvalidConfig("preprocess", "workspace has no preprocessor")
	}
	files, err := w.OpenAll(ctx)
	if err != nil {
		return nil, err
	}
	return w.pre.PreprocessAll(ctx, files)
}
