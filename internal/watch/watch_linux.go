//go:build linux

package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Watcher watches one file and calls onChange, debounced, after each
// modification or write-and-close.
type Watcher struct {
	fd       int
	wd       int
	path     string
	debounce time.Duration
	onChange func(string)

	mu    sync.Mutex
	timer *time.Timer
}

// New opens an inotify instance and arms it for path. debounce is the
// quiet period after a write before onChange fires.
func New(path string, debounce time.Duration, onChange func(string)) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("watch: inotify_init failed: %v", err)
	}

	wd, err := unix.InotifyAddWatch(fd, absPath, unix.IN_MODIFY|unix.IN_CLOSE_WRITE)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("watch: failed to watch %s: %v", absPath, err)
	}

	return &Watcher{fd: fd, wd: wd, path: absPath, debounce: debounce, onChange: onChange}, nil
}

// Run blocks, delivering debounced change notifications until the
// process exits or Close is called from another goroutine.
func (w *Watcher) Run() {
	buf := make([]byte, unix.SizeofInotifyEvent*10)

	for {
		n, err := unix.Read(w.fd, buf)
		if err != nil {
			if err == unix.EBADF {
				return
			}
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			fmt.Fprintf(os.Stderr, "watch: error reading inotify events: %v\n", err)
			continue
		}

		offset := 0
		for offset < n {
			event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			offset += unix.SizeofInotifyEvent + int(event.Len)

			if event.Wd == int32(w.wd) && event.Mask&(unix.IN_MODIFY|unix.IN_CLOSE_WRITE) != 0 {
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

// Close releases the inotify file descriptor.
func (w *Watcher) Close() error {
	return unix.Close(w.fd)
}
