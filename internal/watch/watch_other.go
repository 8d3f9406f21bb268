//go:build !linux && !darwin

package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Watcher polls one file's mtime and calls onChange, debounced, after
// each observed change, for platforms without inotify or kqueue.
type Watcher struct {
	path     string
	modTime  time.Time
	debounce time.Duration
	onChange func(string)
	stop     chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// New records path's current mtime; Run then polls it for changes every
// 100ms.
func New(path string, debounce time.Duration, onChange func(string)) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	return &Watcher{
		path: absPath, modTime: info.ModTime(),
		debounce: debounce, onChange: onChange,
		stop: make(chan struct{}),
	}, nil
}

// Run blocks, delivering debounced change notifications.
func (w *Watcher) Run() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				continue
			}
			if info.ModTime().After(w.modTime) {
				w.modTime = info.ModTime()
				w.debouncedCallback()
			}
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) debouncedCallback() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.onChange(w.path)
	})
}

// Close stops the polling loop.
func (w *Watcher) Close() error {
	close(w.stop)
	return nil
}
