// Package envcfg layers environment-variable fallbacks over this
// compiler's flag defaults, the way the teacher's own tunables can come
// from either a flag or the environment. Flags always win when set
// explicitly; these are only consulted for a flag's default value.
package envcfg

import "github.com/xyproto/env/v2"

// Registers returns SDFC_REGISTERS if set, else fallback. It backs the
// register count the reverse allocator is offered.
func Registers(fallback int) int {
	return env.Int("SDFC_REGISTERS", fallback)
}

// SinkLoads returns SDFC_SINK_LOADS if set, else fallback, as the raw
// string a --sink-loads flag would also accept.
func SinkLoads(fallback string) string {
	return env.Str("SDFC_SINK_LOADS", fallback)
}

// Vector returns SDFC_VECTOR if set, else fallback.
func Vector(fallback bool) bool {
	if !env.Has("SDFC_VECTOR") {
		return fallback
	}
	return env.Bool("SDFC_VECTOR")
}

// WatchDebounce returns SDFC_WATCH_DEBOUNCE_MS if set, else fallback,
// the delay internal/watch waits after a write before firing its
// callback.
func WatchDebounce(fallbackMs int) int {
	return env.Int("SDFC_WATCH_DEBOUNCE_MS", fallbackMs)
}
