//go:build darwin

package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Watcher watches one file via kqueue and calls onChange, debounced,
// after each write.
type Watcher struct {
	kq       int
	fd       int
	path     string
	debounce time.Duration
	onChange func(string)

	mu    sync.Mutex
	timer *time.Timer
}

// New opens a kqueue and arms it for path. debounce is the quiet period
// after a write before onChange fires.
func New(path string, debounce time.Duration, onChange func(string)) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("watch: kqueue failed: %v", err)
	}

	fd, err := unix.Open(absPath, unix.O_RDONLY, 0)
	if err != nil {
		unix.Close(kq)
		return nil, fmt.Errorf("watch: failed to open %s: %v", absPath, err)
	}

	event := unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_VNODE,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
		Fflags: unix.NOTE_WRITE | unix.NOTE_ATTRIB,
	}
	if _, err := unix.Kevent(kq, []unix.Kevent_t{event}, nil, nil); err != nil {
		unix.Close(fd)
		unix.Close(kq)
		return nil, fmt.Errorf("watch: failed to add kevent for %s: %v", absPath, err)
	}

	return &Watcher{kq: kq, fd: fd, path: absPath, debounce: debounce, onChange: onChange}, nil
}

// Run blocks, delivering debounced change notifications.
func (w *Watcher) Run() {
	events := make([]unix.Kevent_t, 10)

	for {
		n, err := unix.Kevent(w.kq, nil, events, nil)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			fmt.Fprintf(os.Stderr, "watch: error reading kevent: %v\n", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		for i := 0; i < n; i++ {
			if int(events[i].Ident) == w.fd {
				w.debouncedCallback()
			}
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

// Close releases the watched file descriptor and the kqueue itself.
func (w *Watcher) Close() error {
	unix.Close(w.fd)
	return unix.Close(w.kq)
}
