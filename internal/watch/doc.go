// Package watch recompiles a single input file on every write, the way
// the teacher's own FileWatcher drives its live-reload loop. The
// concrete Watcher is inotify-backed on Linux, kqueue-backed on Darwin,
// and mtime-polling everywhere else.
package watch
