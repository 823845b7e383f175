package index

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/stub"
)

// Fingerprint identifies a file text.
func Fingerprint(text string) uint64 {
	return xxhash.Sum64String(text)
}

type entry struct {
	fingerprint uint64
	stub        *stub.File
}

// Index maps file paths to the stub tree of their last indexed text.
// It is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries map[string]entry
	sf      singleflight.Group
	logger  *slog.Logger
}

func New(logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		entries: make(map[string]entry),
		logger:  logger,
	}
}

// Lookup returns the stub of path if it was built from exactly text.
func (ix *Index) Lookup(path, text string) (*stub.File, bool) {
	fp := Fingerprint(text)
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.entries[path]
	if !ok || e.fingerprint != fp {
		return nil, false
	}
	return e.stub, true
}

// Put records a stub built from text.
func (ix *Index) Put(path, text string, s *stub.File) {
	ix.mu.Lock()
	ix.entries[path] = entry{fingerprint: Fingerprint(text), stub: s}
	ix.mu.Unlock()
}

// GetOrBuild returns the stub for text, parsing and indexing it when the
// index holds none or a stale one. Concurrent calls for the same text share
// one build. The second result reports whether a build happened.
func (ix *Index) GetOrBuild(path, text string) (*stub.File, bool) {
	if s, ok := ix.Lookup(path, text); ok {
		return s, false
	}
	fp := Fingerprint(text)
	v, _, _ := ix.sf.Do(fmt.Sprintf("%s:%x", path, fp), func() (any, error) {
		if s, ok := ix.Lookup(path, text); ok {
			return s, nil
		}
		f := decl.ParseFile(path, text, nil)
		s := Build(f)
		ix.Put(path, text, s)
		ix.logger.Debug("indexed file", "path", path, "declarations", len(f.Declarations()), "parse_errors", len(f.ParseErrors()))
		return s, nil
	})
	return v.(*stub.File), true
}

// Invalidate drops the stub of path.
func (ix *Index) Invalidate(path string) {
	ix.mu.Lock()
	delete(ix.entries, path)
	ix.mu.Unlock()
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Paths returns the indexed paths sorted.
func (ix *Index) Paths() []string {
	ix.mu.RLock()
	paths := make([]string, 0, len(ix.entries))
	for p := range ix.entries {
		paths = append(paths, p)
	}
	ix.mu.RUnlock()
	sort.Strings(paths)
	return paths
}
