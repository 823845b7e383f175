package macro

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"

	"github.com/orizon-lang/declview/internal/errors"
	"github.com/orizon-lang/declview/internal/meta"
)

const dataMacros = `
API_VERSION = "1.2.0"

def rename(node, args = None):
    node["name"] = node["name"] + (args or "Copy")
    return node

def skip(node):
    return None

def twice(node):
    return expand("data.rename", node)

def bad(node):
    return 1

_hidden = 1
`

func writeMacros(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "macros")
	require.NoError(t, os.Mkdir(dir, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoader_Load(t *testing.T) {
	dir := writeMacros(t, map[string]string{"data.star": dataMacros, "notes.txt": "ignored"})
	l, err := NewLoader(dir, "^1.0.0")
	require.NoError(t, err)

	modules, err := l.Load()
	require.NoError(t, err)
	require.Len(t, modules, 1)

	m := modules[0]
	assert.Equal(t, "data", m.Namespace)
	assert.Equal(t, "1.2.0", m.APIVersion)
	assert.Contains(t, m.Exports, "rename")
	assert.NotContains(t, m.Exports, "_hidden")
	assert.NotContains(t, m.Exports, APIVersionGlobal)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]string
		constraint string
		code       string
	}{
		{
			name:       "api mismatch",
			files:      map[string]string{"data.star": dataMacros},
			constraint: "^2.0.0",
			code:       errors.CodeMacroAPIMismatch,
		},
		{
			name:       "invalid api version",
			files:      map[string]string{"data.star": `API_VERSION = "one"`},
			constraint: "^1.0.0",
			code:       errors.CodeMacroLoad,
		},
		{
			name:  "syntax error",
			files: map[string]string{"broken.star": "def f(:\n"},
			code:  errors.CodeMacroLoad,
		},
		{
			name:  "invalid namespace",
			files: map[string]string{"1data.star": "x = 1"},
			code:  errors.CodeMacroLoad,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLoader(writeMacros(t, tt.files), tt.constraint)
			require.NoError(t, err)
			_, err = l.Load()
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestLoader_MissingDirectory(t *testing.T) {
	l, err := NewLoader(filepath.Join(t.TempDir(), "none"), "")
	require.NoError(t, err)
	modules, err := l.Load()
	require.NoError(t, err)
	assert.Nil(t, modules)
}

func TestNewLoader_InvalidConstraint(t *testing.T) {
	_, err := NewLoader(t.TempDir(), "not a constraint")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidConfig))
}

func TestEngine_LoadDir(t *testing.T) {
	e := NewEngine()
	n, err := e.LoadDir(writeMacros(t, map[string]string{"data.star": dataMacros}), "^1.0.0")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"builtin.generated", "builtin.noop", "data.bad", "data.rename", "data.skip", "data.twice"}, e.Names())

	t.Run("with arguments", func(t *testing.T) {
		text, ok := expandText(t, e, owners(t, "@data.rename(X) func f(): Int = 1")[0])
		require.True(t, ok)
		assert.Equal(t, "@data.rename(X)\nfunc fX(): Int = 1", text)
	})

	t.Run("without arguments", func(t *testing.T) {
		text, ok := expandText(t, e, owners(t, "@data.rename class C")[0])
		require.True(t, ok)
		assert.Equal(t, "@data.rename\nclass CCopy", text)
	})

	t.Run("decline", func(t *testing.T) {
		_, ok := expandText(t, e, owners(t, "@data.skip func f()")[0])
		assert.False(t, ok)
	})

	t.Run("nested expand", func(t *testing.T) {
		text, ok := expandText(t, e, owners(t, "@data.twice func f()")[0])
		require.True(t, ok)
		assert.Equal(t, "@data.twice\nfunc fCopy()", text)
	})

	t.Run("wrong result type", func(t *testing.T) {
		o := owners(t, "@data.bad func f()")[0]
		_, err := e.Expand(firstAnnotation(t, o), &meta.Func{Name: "f"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dict or None")
	})

	t.Run("duplicate load", func(t *testing.T) {
		_, err := e.LoadDir(writeMacros(t, map[string]string{"data.star": dataMacros}), "")
		assert.True(t, errors.HasCode(err, errors.CodeMacroDuplicate))
	})
}

func TestStarlarkConversion_Declaration(t *testing.T) {
	d := &meta.Structured{
		Form:                  meta.FormClass,
		Name:                  "Box",
		HasPrimaryConstructor: true,
		PrimaryParams:         []meta.Param{{Binding: "val", Name: "v", Type: &meta.TypeRef{Text: "Int"}, Default: "0", HasDefault: true}},
		HasBody:               true,
		Members: []meta.Decl{&meta.Func{
			Annotations: meta.Annotations{Annotations: []meta.Annotation{{Name: "Inline"}}},
			Name:        "get",
			Body:        &meta.Body{Text: "v"},
		}},
	}
	v, err := declToStarlark(d)
	require.NoError(t, err)
	assert.IsType(t, &starlark.Dict{}, v)

	back, err := starlarkToDecl(v)
	require.NoError(t, err)
	assert.True(t, meta.Equal(d, back))

	none, err := starlarkToDecl(starlark.None)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestToGo_Struct(t *testing.T) {
	s, err := starlark.Call(&starlark.Thread{}, predeclared()["struct"], nil,
		[]starlark.Tuple{{starlark.String("name"), starlark.String("x")}})
	require.NoError(t, err)
	g, err := ToGo(s)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "x"}, g)
}
