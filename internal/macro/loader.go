package macro

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.starlark.net/starlark"

	"github.com/orizon-lang/declview/internal/errors"
)

// APIVersionGlobal is the global a macro file sets to declare the macro API
// it was written against.
const APIVersionGlobal = "API_VERSION"

// Loader scans a directory for .star files and loads them as Starlark modules.
type Loader struct {
	dir         string
	constraint  *semver.Constraints
	constraintS string
	predeclared starlark.StringDict
}

// NewLoader creates a loader for dir. Modules declaring an API version that
// does not satisfy apiConstraint are rejected; an empty constraint accepts
// every version.
func NewLoader(dir, apiConstraint string) (*Loader, error) {
	l := &Loader{dir: dir, constraintS: apiConstraint, predeclared: predeclared()}
	if apiConstraint != "" {
		c, err := semver.NewConstraint(apiConstraint)
		if err != nil {
			return nil, errors.InvalidConfig("macros.api", err.Error())
		}
		l.constraint = c
	}
	return l, nil
}

// LoadedModule represents a parsed Starlark macro file.
type LoadedModule struct {
	// Namespace is derived from filename (e.g., "data" from "data.star")
	Namespace string

	Path       string
	APIVersion string

	// Exports contains all exported values (names not starting with _)
	Exports starlark.StringDict
}

// Load scans the macro directory and loads all .star files. A missing
// directory yields no modules.
func (l *Loader) Load() ([]*LoadedModule, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.MacroLoad(l.dir, err)
	}
	if !info.IsDir() {
		return nil, errors.MacroLoad(l.dir, fmt.Errorf("not a directory"))
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.star"))
	if err != nil {
		return nil, errors.MacroLoad(l.dir, err)
	}

	var modules []*LoadedModule
	for _, file := range files {
		module, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}
	return modules, nil
}

func (l *Loader) loadFile(path string) (*LoadedModule, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a glob within the macros directory
	if err != nil {
		return nil, errors.MacroLoad(path, err)
	}

	namespace := strings.TrimSuffix(filepath.Base(path), ".star")
	if err := validateNamespace(namespace); err != nil {
		return nil, errors.MacroLoad(path, err)
	}

	thread := &starlark.Thread{
		Name:  "load:" + namespace,
		Print: func(_ *starlark.Thread, _ string) {},
	}
	globals, err := starlark.ExecFile(thread, path, content, l.predeclared) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	if err != nil {
		return nil, errors.MacroLoad(path, err)
	}

	module := &LoadedModule{Namespace: namespace, Path: path, Exports: make(starlark.StringDict)}
	if v, ok := globals[APIVersionGlobal]; ok {
		s, ok := v.(starlark.String)
		if !ok {
			return nil, errors.MacroLoad(path, fmt.Errorf("%s must be a string, got %s", APIVersionGlobal, v.Type()))
		}
		module.APIVersion = string(s)
		if err := l.checkAPI(namespace, module.APIVersion); err != nil {
			return nil, err
		}
	}
	for name, value := range globals {
		if !strings.HasPrefix(name, "_") && name != APIVersionGlobal {
			module.Exports[name] = value
		}
	}
	return module, nil
}

func (l *Loader) checkAPI(namespace, version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.MacroLoad(namespace, fmt.Errorf("invalid %s %q: %w", APIVersionGlobal, version, err))
	}
	if l.constraint != nil && !l.constraint.Check(v) {
		return errors.MacroAPIMismatch(namespace, version, l.constraintS)
	}
	return nil
}

// validateNamespace checks that a namespace is an identifier.
func validateNamespace(name string) error {
	if name == "" {
		return fmt.Errorf("namespace cannot be empty")
	}
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return fmt.Errorf("namespace %q is not an identifier", name)
		}
	}
	return nil
}

// LoadDir loads every module of dir and registers its callable exports as
// namespace.name. It returns the number of registered macros.
func (e *Engine) LoadDir(dir, apiConstraint string) (int, error) {
	l, err := NewLoader(dir, apiConstraint)
	if err != nil {
		return 0, err
	}
	modules, err := l.Load()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range modules {
		for name, v := range m.Exports {
			fn, ok := v.(starlark.Callable)
			if !ok {
				continue
			}
			def := &Definition{
				Name:   m.Namespace + "." + name,
				Source: m.Path,
				Fn:     starlarkMacro(e, m.Namespace+"."+name, fn),
			}
			if err := e.RegisterMacro(def); err != nil {
				return n, err
			}
			n++
		}
		e.logger.Debug("loaded macro module", "namespace", m.Namespace, "path", m.Path, "api", m.APIVersion)
	}
	return n, nil
}
