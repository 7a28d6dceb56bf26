package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces a burst of filesystem events (an editor saving
// several descriptor files at once) into a single reload.
const reloadDebounce = 500 * time.Millisecond

// Watcher hot-reloads a Store when its backing directory tree changes.
type Watcher struct {
	store   *Store
	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	timer   *time.Timer
	closeCh chan struct{}
}

// Watch creates and starts a Watcher for s. Callers must call Close to
// stop it.
func Watch(s *Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, sub := range []string{environmentsSubdir, collectionsSubdir} {
		dir := filepath.Join(s.dir, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fsw.Close()
			return nil, err
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	w := &Watcher{store: s, fsw: fsw, closeCh: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.scheduleReload()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("config: watcher error", "err", err)
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDebounce, func() {
		if err := w.store.reload(); err != nil {
			slog.Error("config: reload failed", "err", err)
		}
	})
}

// Close stops the watcher. Safe to call once.
func (w *Watcher) Close() error {
	close(w.closeCh)
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
