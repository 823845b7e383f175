package workspace

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/declview/internal/config"
	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/errors"
	"github.com/orizon-lang/declview/internal/macro"
	"github.com/orizon-lang/declview/internal/overlay"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"a.oriz":       {Data: []byte("@builtin.generated func a()\n")},
		"sub/b.oriz":   {Data: []byte("class B {\n  func m()\n}\n")},
		"gen/c.oriz":   {Data: []byte("func c()\n")},
		"notes.txt":    {Data: []byte("not source")},
		"sub/d.oriz.x": {Data: []byte("func d()\n")},
	}
}

func names(f *decl.File) []string {
	var out []string
	for _, o := range decl.CollectOwners(f, false) {
		out = append(out, o.Name())
	}
	return out
}

func TestDiscover(t *testing.T) {
	w := New("/project", WithFS(testFS()), WithExclude("gen/**"))
	paths, err := w.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.oriz", "sub/b.oriz"}, paths)

	assert.True(t, w.Matches("x/y/z.oriz"))
	assert.False(t, w.Matches("gen/z.oriz"))
	assert.False(t, w.Matches("a.txt"))
	assert.Equal(t, "/project/sub/b.oriz", w.Abs("sub/b.oriz"))
}

func TestOpen(t *testing.T) {
	w := New("/project", WithFS(testFS()))

	f, err := w.Open("sub/b.oriz")
	require.NoError(t, err)
	assert.True(t, f.IsStubBased())
	assert.False(t, f.IsMaterialized())
	assert.Equal(t, []string{"B", "m"}, names(f))

	again, err := w.Open("sub/b.oriz")
	require.NoError(t, err)
	assert.Same(t, f, again)
	assert.Equal(t, []string{"sub/b.oriz"}, w.Index().Paths())

	_, err = w.Open("missing.oriz")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeWorkspaceIO))
}

func TestReparse(t *testing.T) {
	fsys := testFS()
	pre := overlay.NewPreprocessor(macro.NewEngine())
	w := New("/project", WithFS(fsys), WithPreprocessor(pre))

	f, err := w.Open("a.oriz")
	require.NoError(t, err)
	_, err = pre.PreprocessFile(context.Background(), f)
	require.NoError(t, err)
	require.True(t, decl.CollectOwners(f, false)[0].HasHiddenElementInitialized())

	fsys["a.oriz"] = &fstest.MapFile{Data: []byte("@builtin.generated func a2()\nfunc b()\n")}
	g, err := w.Reparse("a.oriz")
	require.NoError(t, err)
	assert.NotSame(t, f, g)
	assert.Equal(t, []string{"a2", "b"}, names(g))
	assert.False(t, decl.CollectOwners(g, false)[0].HasHiddenElementInitialized())
	assert.Len(t, w.Files(), 1)

	w.Remove("a.oriz")
	assert.Empty(t, w.Files())
	assert.Zero(t, w.Index().Len())
}

func TestPreprocessAll(t *testing.T) {
	pre := overlay.NewPreprocessor(macro.NewEngine(), overlay.WithConcurrency(2))
	w := New("/project", WithFS(testFS()), WithPreprocessor(pre), WithExclude("gen/**"))

	results, err := w.PreprocessAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.oriz", results[0].Path)
	require.Len(t, results[0].Expanded, 1)
	assert.Equal(t, "@Generated\nfunc a()", results[0].Expanded[0].HiddenElement().Text())
	assert.Empty(t, results[1].Expanded)

	var paths []string
	for _, f := range w.Files() {
		paths = append(paths, f.Path())
	}
	assert.Equal(t, []string{"a.oriz", "sub/b.oriz"}, paths)
}

func TestPreprocessAll_NoPreprocessor(t *testing.T) {
	w := New("/project", WithFS(testFS()))
	_, err := w.PreprocessAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidConfig))
}

func TestOpenAll_Cancelled(t *testing.T) {
	w := New("/project", WithFS(testFS()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.OpenAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(config.Options{Root: dir})
	require.NoError(t, err)
	cfg.Workspace.Exclude = []string{"gen/**"}

	w := FromConfig(cfg, nil, nil)
	assert.Equal(t, dir, w.Root())
	assert.False(t, w.Matches("gen/a.oriz"))
	assert.True(t, w.Matches("a.oriz"))
}
