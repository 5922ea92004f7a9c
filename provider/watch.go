// ABOUTME: File watcher that signals when local source files change
// ABOUTME: Watches parent directories so editors that replace files atomically are still seen

package provider

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a fixed set of files.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	logf     Logf
}

// NewWatcher watches the given files. Paths that are URLs should be filtered
// out by the caller.
func NewWatcher(paths []string, debounce time.Duration, logf Logf) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]bool, len(paths)),
		debounce: debounce,
		logf:     logf,
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return w, nil
}

// Wait blocks until a watched file is written, created or renamed into place,
// then waits for the debounce period so bursts of writes collapse into one
// change. It returns the changed path, or false once the watcher is closed.
func (w *Watcher) Wait() (string, bool) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return "", false
			}

			if !w.files[filepath.Clean(event.Name)] {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.drain()
				return event.Name, true
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return "", false
			}
			w.logf.printf("watcher: %v", err)
		}
	}
}

// drain swallows follow-up events for the debounce period
func (w *Watcher) drain() {
	if w.debounce <= 0 {
		return
	}

	timer := time.NewTimer(w.debounce)
	defer timer.Stop()

	for {
		select {
		case _, ok := <-w.watcher.Events:
			if !ok {
				return
			}
		case <-timer.C:
			return
		}
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
