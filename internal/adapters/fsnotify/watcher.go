// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It recursively watches a root directory, filters out excluded names and the
// generator's own output, and debounces rapid events (editors often trigger
// multiple writes per save).
package fsnotify

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval drops repeat events for the same path.
const debounceInterval = 50 * time.Millisecond

// Filter decides which paths never trigger onChange.
type Filter struct {
	// ExcludeSuffix ignores files whose name ends with it (editor backups).
	ExcludeSuffix string
	// Ignore, when set, is called with the absolute path of every event;
	// typically it matches the output file and its temporary siblings.
	Ignore func(path string) bool
}

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw      *fsnotify.Watcher
	filter  Filter
	done    chan struct{}
	stopped bool
	mu      sync.Mutex
}

// NewWatcher creates a new file system watcher.
func NewWatcher(filter Filter) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:     fw,
		filter: filter,
		done:   make(chan struct{}),
	}, nil
}

// Watch starts monitoring root recursively.
// onChange is called with the absolute path of each changed entry.
func (w *Watcher) Watch(root string, onChange func(path string)) error {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "watch", Path: absPath, Err: os.ErrInvalid}
	}

	if err := w.addTree(absPath); err != nil {
		return err
	}

	// Debounce state: track last event time per path
	debounce := make(map[string]time.Time)

	go func() {
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				path := event.Name

				// New directories (and anything already inside them) join the watch list
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(path); err == nil && info.IsDir() {
						w.addTree(path)
					}
				}

				if w.shouldIgnore(path) {
					continue
				}

				now := time.Now()
				if last, exists := debounce[path]; exists && now.Sub(last) < debounceInterval {
					continue
				}
				debounce[path] = now

				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
					event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					onChange(path)
				}

			case _, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// Errors are swallowed; fsnotify recovers automatically

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}

// addTree adds dir and every directory below it. Symlinked directories are
// not followed, matching the walker.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil // skip inaccessible subtrees
		}
		if d.IsDir() {
			return w.fw.Add(path)
		}
		return nil
	})
}

// shouldIgnore returns true if the path should not trigger onChange.
func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if w.filter.ExcludeSuffix != "" && strings.HasSuffix(base, w.filter.ExcludeSuffix) {
		return true
	}
	return w.filter.Ignore != nil && w.filter.Ignore(path)
}
