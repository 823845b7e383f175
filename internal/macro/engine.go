// Package macro implements the macro engine behind declaration expansion.
// Macros are registered under fully qualified names and are either Go
// functions or exported functions of Starlark files.
package macro

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/errors"
	"github.com/orizon-lang/declview/internal/meta"
)

// DefaultMaxDepth bounds nested expansion.
const DefaultMaxDepth = 16

// Func computes the replacement of inv.Node. A nil node declines.
type Func func(inv *Invocation) (meta.Node, error)

// Definition is a registered macro.
type Definition struct {
	Name   string // fully qualified, e.g. "builtin.generated"
	Source string // file it was loaded from, "builtin" or "go"
	Fn     Func
}

// Invocation carries one macro call.
type Invocation struct {
	Name    string
	Args    string // annotation argument text without parentheses
	HasArgs bool
	Node    meta.Node

	depth  int
	engine *Engine
}

// Depth is zero for the macro named by the annotation and grows with each
// nested Expand.
func (inv *Invocation) Depth() int { return inv.depth }

// Expand runs another macro on node from inside a macro.
func (inv *Invocation) Expand(name string, node meta.Node) (meta.Node, error) {
	return inv.engine.invoke(&Invocation{
		Name:   name,
		Node:   node,
		depth:  inv.depth + 1,
		engine: inv.engine,
	})
}

// Engine is the macro registry. It implements decl.MacroExpander and is
// safe for concurrent use.
type Engine struct {
	mu          sync.RWMutex
	definitions map[string]*Definition
	maxDepth    int
	logger      *slog.Logger
}

var _ decl.MacroExpander = (*Engine)(nil)

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// NewEngine creates an engine with the builtin macros registered.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		definitions: make(map[string]*Definition),
		maxDepth:    DefaultMaxDepth,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	registerBuiltins(e)
	return e
}

// RegisterMacro registers a macro definition in the engine.
func (e *Engine) RegisterMacro(def *Definition) error {
	if def == nil || def.Name == "" || def.Fn == nil {
		return fmt.Errorf("invalid macro definition")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.definitions[def.Name]; exists {
		return errors.MacroDuplicate(def.Name)
	}
	e.definitions[def.Name] = def
	return nil
}

// RegisterFunc registers an in-process Go macro.
func (e *Engine) RegisterFunc(name string, fn Func) error {
	return e.RegisterMacro(&Definition{Name: name, Source: "go", Fn: fn})
}

// GetMacro retrieves a macro definition by name.
func (e *Engine) GetMacro(name string) (*Definition, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	def, ok := e.definitions[name]
	return def, ok
}

// Names returns the registered names sorted.
func (e *Engine) Names() []string {
	e.mu.RLock()
	names := make([]string, 0, len(e.definitions))
	for name := range e.definitions {
		names = append(names, name)
	}
	e.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Namespaces returns the distinct qualifiers of the registered names.
func (e *Engine) Namespaces() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range e.Names() {
		if i := strings.LastIndexByte(name, '.'); i > 0 && !seen[name[:i]] {
			seen[name[:i]] = true
			out = append(out, name[:i])
		}
	}
	return out
}

// Resolve returns the fully qualified name an annotation refers to in the
// resolution scope of its file.
func (e *Engine) Resolve(a *decl.Annotation) (string, bool) {
	return FullName(a.QualifiedName(), a.File().ResolutionScope())
}

// IsMacroAnnotation reports whether a resolves to a registered macro.
func (e *Engine) IsMacroAnnotation(a *decl.Annotation) bool {
	if a == nil {
		return false
	}
	name, ok := e.Resolve(a)
	if !ok {
		return false
	}
	_, ok = e.GetMacro(name)
	return ok
}

// Expand runs the macro a refers to on node.
func (e *Engine) Expand(a *decl.Annotation, node meta.Node) (meta.Node, error) {
	name, ok := e.Resolve(a)
	if !ok {
		return nil, nil
	}
	return e.invoke(&Invocation{
		Name:    name,
		Args:    a.Arguments(),
		HasArgs: a.HasArguments(),
		Node:    node,
		engine:  e,
	})
}

func (e *Engine) invoke(inv *Invocation) (meta.Node, error) {
	if inv.depth >= e.maxDepth {
		return nil, errors.MacroDepthExceeded(inv.Name, e.maxDepth)
	}
	def, ok := e.GetMacro(inv.Name)
	if !ok {
		return nil, errors.MacroNotFound(inv.Name)
	}
	e.logger.Debug("expanding macro", "macro", inv.Name, "source", def.Source, "depth", inv.depth)
	out, err := def.Fn(inv)
	if err != nil {
		return nil, fmt.Errorf("macro %s: %w", inv.Name, err)
	}
	if out == nil {
		e.logger.Debug("macro declined", "macro", inv.Name)
	}
	return out, nil
}
