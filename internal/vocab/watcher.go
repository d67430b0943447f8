package vocab

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"wildgold/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher refreshes a Store as soon as vocabulary files change on disk,
// instead of waiting for the next Snapshot call to notice.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	store       *Store
	debounceDur time.Duration
	pending     time.Time
	onChange    func(*Snapshot)
	stopCh      chan struct{}
	doneCh      chan struct{}
	started     bool
	stopped     bool
	running     bool

	stats WatcherStats
}

// WatcherStats tracks watcher activity.
type WatcherStats struct {
	Events        int
	Refreshes     int
	Reloads       int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// NewWatcher creates a watcher for store. onChange, if non-nil, is called
// from the watcher goroutine after each refresh that installed a new
// snapshot.
func NewWatcher(store *Store, debounce time.Duration, onChange func(*Snapshot)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		watcher:     fw,
		store:       store,
		debounceDur: debounce,
		onChange:    onChange,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// ErrWatcherStopped is returned by Start once Stop has been called.
var ErrWatcherStopped = errors.New("watcher already stopped")

// Start registers every discovered base directory and its subdirectories,
// then runs the event loop in a goroutine. A second Start is a no-op; a
// stopped watcher cannot be restarted.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrWatcherStopped
	}
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.running = true
	w.mu.Unlock()

	for _, base := range DiscoverBaseDirs(w.store.Root(), w.store.opts) {
		w.addTree(base)
	}

	go w.run(ctx)
	return nil
}

func (w *Watcher) addTree(base string) {
	w.add(base)
	walkDirs(base, w.store.opts, func(parent, name string) {
		w.add(filepath.Join(parent, name))
	})
}

func (w *Watcher) add(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		logging.WatchError("failed to watch %s: %v", dir, err)
		return
	}
	logging.WatchDebug("watching %s", dir)
}

// Stop stops the watcher, waits for the event loop to exit and releases the
// fsnotify handle. It is safe to call more than once, or without Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	started := w.started
	w.mu.Unlock()

	close(w.stopCh)
	if started {
		<-w.doneCh
	}

	if err := w.watcher.Close(); err != nil {
		logging.WatchError("error closing watcher: %v", err)
	}
	logging.Watch("watcher stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	tick := w.debounceDur / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
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
			logging.WatchError("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	if event.Op&fsnotify.Create != 0 && isDir(event.Name) {
		w.addTree(event.Name)
	}

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventPath = event.Name
	w.stats.LastEventTime = time.Now()
	w.pending = time.Now()
	w.mu.Unlock()
}

// flush refreshes the store once events have settled for the debounce window.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.stats.Refreshes++
	w.mu.Unlock()

	snap, changed, err := w.store.Refresh(ctx, false)
	if err != nil {
		logging.WatchError("refresh failed: %v", err)
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}
	if !changed {
		return
	}

	w.mu.Lock()
	w.stats.Reloads++
	w.mu.Unlock()
	logging.Watch("vocabulary reloaded: %d keys (sig %.12s)", len(snap.Mapping), snap.Signature)
	if w.onChange != nil {
		w.onChange(snap)
	}
}

// Stats returns the current watcher statistics.
func (w *Watcher) Stats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running. It turns false after
// Stop or once the Start context is cancelled.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchedDirs returns the directories being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}
