// Package watch drives rebuilds: it watches the source and static trees and
// invokes a callback after debouncing rapid editor saves.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"docforge/internal/logging"
)

// DefaultDebounce is how long a path must stay quiet before a change fires.
const DefaultDebounce = 500 * time.Millisecond

// Stats tracks watcher activity for debugging.
type Stats struct {
	FilesCreated  int
	FilesModified int
	FilesDeleted  int
	Rebuilds      int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventOp   string
}

// Watcher monitors directory trees and calls OnChange with the changed path.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	dirs        []string
	onChange    func(path string)
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// New creates a watcher over the given directory trees. onChange runs on the
// watcher goroutine; keep it quick or hand off.
func New(dirs []string, onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fsw,
		dirs:        dirs,
		onChange:    onChange,
		debounceMap: make(map[string]time.Time),
		debounceDur: DefaultDebounce, // Debounce rapid saves
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the watcher runs in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.dirs {
		w.addTree(dir)
	}

	go w.run(ctx)
	return nil
}

// addTree registers dir and every subdirectory with the fsnotify watcher.
func (w *Watcher) addTree(dir string) {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				logging.WatchWarn("cannot watch %s: %v", path, err)
			}
		}
		return nil
	})
	if err != nil {
		logging.WatchWarn("walk %s: %v", dir, err)
	} else {
		logging.Watch("watching tree: %s", dir)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounceDur / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
			logging.WatchWarn("watcher error: %v", err)

		case <-ticker.C:
			w.fireReady()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	w.mu.Lock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventOp = event.Op.String()

	switch {
	case event.Op&fsnotify.Create != 0:
		w.stats.FilesCreated++
	case event.Op&fsnotify.Write != 0:
		w.stats.FilesModified++
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.stats.FilesDeleted++
	default:
		w.mu.Unlock()
		return
	}
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()

	logging.WatchDebug("event: %s %s", event.Op, event.Name)

	// A newly created directory needs its own watch.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addTree(event.Name)
		}
	}
}

// fireReady dispatches paths whose debounce window has elapsed.
func (w *Watcher) fireReady() {
	now := time.Now()
	var ready []string

	w.mu.Lock()
	for path, last := range w.debounceMap {
		if now.Sub(last) >= w.debounceDur {
			ready = append(ready, path)
			delete(w.debounceMap, path)
		}
	}
	if len(ready) > 0 {
		w.stats.Rebuilds++
	}
	w.mu.Unlock()

	for _, path := range ready {
		logging.Watch("change settled: %s", path)
		if w.onChange != nil {
			w.onChange(path)
		}
	}
}

// Stop stops the watcher and waits for the goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.watcher.Close()
	<-w.doneCh
}

// Stats returns a snapshot of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// SetDebounce overrides the debounce window (used by tests).
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceDur = d
}
