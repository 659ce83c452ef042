// Package fswatch adapts the recursive, debounced filesystem-watch
// primitive (treated as a black box per the spec) into a lazy stream of
// (action, short-path) pairs. It is built on fsnotify, which — unlike the
// original implementation's notify crate — neither watches recursively nor
// debounces on its own, so both are layered on top here.
package fswatch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/daveallie/bindrs/internal/ignore"
	"github.com/daveallie/bindrs/internal/logging"
	"github.com/daveallie/bindrs/internal/wire"
)

// DebounceWindow is the quiet period after which a coalesced event is
// emitted (spec'd as >= 100ms, reference implementation 200ms).
const DebounceWindow = 200 * time.Millisecond

// Event is a single outgoing (action, short-path) pair produced by the
// watcher, ready to be turned into a wire.EventRecord by the session's
// sender goroutine.
type Event struct {
	Action wire.Action
	Path   string
}

// Watcher watches a base directory recursively and emits filtered,
// debounced Events.
type Watcher struct {
	baseDir  string
	ignores  *ignore.Set
	log      *logging.Logger
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
}

type pendingEvent struct {
	action wire.Action
	timer  *time.Timer
}

// New creates a Watcher rooted at baseDir, registering a watch on every
// non-ignored directory beneath it.
func New(baseDir string, ignores *ignore.Set, log *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create filesystem watcher")
	}

	w := &Watcher{
		baseDir:  baseDir,
		ignores:  ignores,
		log:      log,
		fsw:      fsw,
		debounce: DebounceWindow,
		pending:  make(map[string]*pendingEvent),
	}

	if err := w.addDirectoriesRecursive(baseDir); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// shortPath converts an absolute path under baseDir into the wire format:
// relative, '/'-separated, never starting with '/'.
func (w *Watcher) shortPath(absPath string) string {
	rel, err := filepath.Rel(w.baseDir, absPath)
	if err != nil {
		return ""
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) addDirectoriesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		short := w.shortPath(path)
		if short != "" && short != "." && w.ignores.Matches(short) {
			return filepath.SkipDir
		}

		if err := w.fsw.Add(path); err != nil {
			return errors.Wrapf(err, "unable to watch %s", path)
		}
		return nil
	})
}

// Close releases the underlying fsnotify resources and cancels any pending
// debounce timers without emitting them.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for _, p := range w.pending {
		p.timer.Stop()
	}
	w.pending = make(map[string]*pendingEvent)
	w.mu.Unlock()

	return w.fsw.Close()
}

// Start runs the watch loop until kill is closed or a fatal watcher error
// occurs, sending surviving events to sink in the order they debounce.
// It blocks the calling goroutine (spec.md §4.2's single watcher worker).
func (w *Watcher) Start(sink chan<- Event, kill <-chan struct{}) error {
	for {
		select {
		case <-kill:
			return nil
		case raw, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleRawEvent(raw, sink, kill)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			return errors.Wrap(err, "filesystem watch error")
		}
	}
}

func (w *Watcher) handleRawEvent(raw fsnotify.Event, sink chan<- Event, kill <-chan struct{}) {
	short := w.shortPath(raw.Name)
	if short == "" || short == "." {
		return
	}
	if w.ignores.Matches(short) {
		return
	}

	var action wire.Action
	switch {
	case raw.Op&fsnotify.Create != 0:
		action = wire.CreateUpdate
		// If a new directory appeared, start watching it too so that files
		// created within it are observed.
		if info, err := os.Stat(raw.Name); err == nil && info.IsDir() {
			if !w.ignores.Matches(short) {
				_ = w.addDirectoriesRecursive(raw.Name)
			}
		}
	case raw.Op&fsnotify.Write != 0:
		action = wire.CreateUpdate
	case raw.Op&fsnotify.Remove != 0, raw.Op&fsnotify.Rename != 0:
		// fsnotify fires Rename against the old name only; the new name
		// arrives as a separate Create event, so translating the old-name
		// half as a Delete reproduces the spec's Rename(p1,p2) expansion
		// into Delete(p1) + CreateUpdate(p2) at the wire level.
		action = wire.Delete
	default:
		// Chmod or anything else: discarded, per spec.md's WatcherEvent::Other.
		return
	}

	w.scheduleDebounced(short, action, sink, kill)
}

func (w *Watcher) scheduleDebounced(path string, action wire.Action, sink chan<- Event, kill <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if existing, ok := w.pending[path]; ok {
		existing.action = action
		existing.timer.Reset(w.debounce)
		return
	}

	entry := &pendingEvent{action: action}
	entry.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		current, ok := w.pending[path]
		if ok {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		if !ok {
			return
		}

		select {
		case sink <- Event{Action: current.action, Path: path}:
		case <-kill:
		}
	})
	w.pending[path] = entry
}
