package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orizon-lang/declview/internal/macro"
	"github.com/orizon-lang/declview/internal/overlay"
)

func TestOpString(t *testing.T) {
	assert.Equal(t, "none", Op(0).String())
	assert.Equal(t, "create|write", (OpCreate | OpWrite).String())
}

func TestDebouncer(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)
	defer d.stop()
	assert.Nil(t, d.C())

	d.add("b.oriz", OpWrite)
	d.add("a.oriz", OpCreate)
	d.add("a.oriz", OpWrite)

	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire")
	}
	assert.Equal(t, []Event{{Path: "a.oriz", Op: OpCreate | OpWrite}, {Path: "b.oriz", Op: OpWrite}}, d.drain())
	assert.Nil(t, d.C())

	d.add("c.oriz", OpRemove)
	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire again")
	}
	assert.Equal(t, []Event{{Path: "c.oriz", Op: OpRemove}}, d.drain())
}

// waitFor collects change batches until done accepts one of the changes,
// touching the file system with poke in between so that events sent before
// the watcher was ready are repeated.
func waitFor(t *testing.T, changes <-chan []Change, poke func(i int), done func(Change) bool) Change {
	t.Helper()
	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for i := 0; ; i++ {
		select {
		case batch := <-changes:
			for _, c := range batch {
				if done(c) {
					return c
				}
			}
		case <-tick.C:
			poke(i)
		case <-deadline:
			t.Fatal("no matching change")
		}
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.oriz")
	require.NoError(t, os.WriteFile(path, []byte("func a()\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "gen"), 0o755))

	pre := overlay.NewPreprocessor(macro.NewEngine())
	w := New(dir, WithDebounce(20*time.Millisecond), WithPreprocessor(pre), WithExclude("gen/**"))
	first, err := w.Open("a.oriz")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []Change, 16)
	errC := make(chan error, 1)
	go func() {
		errC <- w.Watch(ctx, func(batch []Change) { changes <- batch })
	}()

	c := waitFor(t, changes, func(i int) {
		_ = os.WriteFile(filepath.Join(dir, "gen", "ignored.oriz"), []byte("func x()\n"), 0o644)
		_ = os.WriteFile(path, []byte(fmt.Sprintf("@builtin.generated func a%d()\n", i)), 0o644)
	}, func(c Change) bool {
		return c.Path == "a.oriz" && c.Result != nil && len(c.Result.Expanded) == 1
	})
	require.NoError(t, c.Err)
	assert.NotSame(t, first, c.File)
	assert.False(t, c.Removed)

	require.NoError(t, os.Remove(path))
	c = waitFor(t, changes, func(int) {}, func(c Change) bool { return c.Removed })
	assert.Equal(t, "a.oriz", c.Path)
	assert.Empty(t, w.Files())

	cancel()
	select {
	case err := <-errC:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
