package workspace

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/orizon-lang/declview/internal/decl"
	"github.com/orizon-lang/declview/internal/overlay"
)

// Op is a set of file system operations seen for a path.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
)

func (op Op) String() string {
	var parts []string
	for _, p := range []struct {
		op   Op
		name string
	}{{OpCreate, "create"}, {OpWrite, "write"}, {OpRemove, "remove"}, {OpRename, "rename"}} {
		if op&p.op != 0 {
			parts = append(parts, p.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Event is a change of one file system path.
type Event struct {
	Path string
	Op   Op
}

// Change is what a batch of events did to one workspace file.
type Change struct {
	Path    string
	Op      Op
	Removed bool
	File    *decl.File
	Result  *overlay.Result
	Err     error
}

// fsWatcher forwards fsnotify events until it is closed.
type fsWatcher struct {
	w    *fsnotify.Watcher
	evC  chan Event
	erC  chan error
	done chan struct{}
	wg   sync.WaitGroup
}

func newFSWatcher() (*fsWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &fsWatcher{w: w, evC: make(chan Event, 128), erC: make(chan error, 1), done: make(chan struct{})}
	fw.wg.Add(1)
	go fw.loop()
	return fw, nil
}

func (fw *fsWatcher) loop() {
	defer fw.wg.Done()
	for {
		select {
		case <-fw.done:
			return
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			var op Op
			if ev.Op&fsnotify.Create != 0 {
				op |= OpCreate
			}
			if ev.Op&fsnotify.Write != 0 {
				op |= OpWrite
			}
			if ev.Op&fsnotify.Remove != 0 {
				op |= OpRemove
			}
			if ev.Op&fsnotify.Rename != 0 {
				op |= OpRename
			}
			if op == 0 {
				continue
			}
			select {
			case fw.evC <- Event{Path: ev.Name, Op: op}:
			case <-fw.done:
				return
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			select {
			case fw.erC <- err:
			case <-fw.done:
				return
			default:
			}
		}
	}
}

func (fw *fsWatcher) Events() <-chan Event  { return fw.evC }
func (fw *fsWatcher) Errors() <-chan error  { return fw.erC }
func (fw *fsWatcher) Add(name string) error { return fw.w.Add(name) }

func (fw *fsWatcher) Close() error {
	close(fw.done)
	err := fw.w.Close()
	fw.wg.Wait()
	return err
}

// debouncer collects the operations seen per path until no new event
// arrived for its delay.
type debouncer struct {
	delay   time.Duration
	pending map[string]Op
	timer   *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, pending: make(map[string]Op)}
}

func (d *debouncer) add(path string, op Op) {
	d.pending[path] |= op
	if d.timer == nil {
		d.timer = time.NewTimer(d.delay)
		return
	}
	if !d.timer.Stop() {
		select {
		case <-d.timer.C:
		default:
		}
	}
	d.timer.Reset(d.delay)
}

// C fires when the pending events are due. It is nil while nothing is
// pending.
func (d *debouncer) C() <-chan time.Time {
	if d.timer == nil || len(d.pending) == 0 {
		return nil
	}
	return d.timer.C
}

// drain returns the pending events sorted by path.
func (d *debouncer) drain() []Event {
	events := make([]Event, 0, len(d.pending))
	for p, op := range d.pending {
		events = append(events, Event{Path: p, Op: op})
	}
	d.pending = make(map[string]Op)
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	return events
}

func (d *debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Watch keeps the open files of the workspace in line with the file
// system until ctx is done. Every debounced batch of changes is reparsed,
// preprocessed when the workspace has a preprocessor, and handed to
// onChange. Watch needs the workspace to read from its root directory.
func (w *Workspace) Watch(ctx context.Context, onChange func([]Change)) error {
	fw, err := newFSWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := w.addWatches(fw, w.root); err != nil {
		return err
	}
	w.logger.Debug("watching workspace", "root", w.root)

	d := newDebouncer(w.debounce)
	defer d.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-fw.Events():
			w.handleEvent(fw, d, ev)
		case err := <-fw.Errors():
			w.logger.Warn("file watcher error", "error", err)
		case <-d.C():
			changes := w.apply(ctx, d.drain())
			if len(changes) > 0 && onChange != nil {
				onChange(changes)
			}
		}
	}
}

func (w *Workspace) handleEvent(fw *fsWatcher, d *debouncer, ev Event) {
	rel, err := filepath.Rel(w.root, ev.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)

	if ev.Op&OpCreate != 0 {
		if info, err := os.Stat(ev.Path); err == nil && info.IsDir() {
			if err := w.addWatches(fw, ev.Path); err != nil {
				w.logger.Warn("failed to watch new directory", "path", ev.Path, "error", err)
			}
			return
		}
	}
	if !w.Matches(rel) {
		return
	}
	w.logger.Debug("file event", "path", rel, "op", ev.Op)
	d.add(rel, ev.Op)
}

// addWatches watches dir and every directory below it that is not
// excluded.
func (w *Workspace) addWatches(fw *fsWatcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !de.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(w.root, p); err == nil && rel != "." && w.excludedDir(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			w.logger.Warn("failed to add watch", "path", p, "error", err)
		}
		return nil
	})
}

func (w *Workspace) excludedDir(rel string) bool {
	for _, p := range w.exclude {
		dirPattern := strings.TrimSuffix(p, "/**")
		if dirPattern == p {
			continue
		}
		if ok, _ := doublestar.Match(dirPattern, rel); ok {
			return true
		}
	}
	return false
}

// apply reparses the files a batch of events touched.
func (w *Workspace) apply(ctx context.Context, events []Event) []Change {
	changes := make([]Change, 0, len(events))
	var reparsed []*decl.File
	for _, ev := range events {
		c := Change{Path: ev.Path, Op: ev.Op}
		if _, err := os.Stat(w.Abs(ev.Path)); err != nil {
			w.Remove(ev.Path)
			c.Removed = true
			changes = append(changes, c)
			continue
		}
		c.File, c.Err = w.Reparse(ev.Path)
		if c.File != nil {
			reparsed = append(reparsed, c.File)
		}
		changes = append(changes, c)
	}

	if w.pre != nil && len(reparsed) > 0 {
		results, err := w.pre.PreprocessAll(ctx, reparsed)
		byPath := make(map[string]*overlay.Result, len(results))
		for _, r := range results {
			if r != nil {
				byPath[r.Path] = r
			}
		}
		for i := range changes {
			if r, ok := byPath[changes[i].Path]; ok {
				changes[i].Result = r
			} else if err != nil && changes[i].File != nil && changes[i].Err == nil {
				changes[i].Err = err
			}
		}
	}
	w.logger.Debug("applied file changes", "count", len(changes))
	return changes
}
