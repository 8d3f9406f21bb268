package ir

import "fmt"

// InternalError reports a violated compiler invariant: an operand that
// doesn't precede its use, an allocator with no spillable candidate, or
// similar "this should never happen" conditions from spec §7's
// InternalInvariantViolation category. These are bugs in the compiler,
// not in the input, so callers at the CLI boundary recover the panic,
// print it, and exit nonzero rather than trying to continue.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal invariant violation: " + e.Message
}

// panicInvariant panics with an *InternalError built from format and
// args, mirroring the teacher's compilerError helper: a single place
// that turns "this can't happen" conditions into a typed, recoverable
// panic instead of scattering os.Exit calls through the pass code.
func panicInvariant(format string, args ...any) {
	panic(&InternalError{Message: fmt.Sprintf(format, args...)})
}

// ConfigError reports a rejected CLI flag or flag combination, spec §7's
// ConfigError category: caught at startup before any compilation begins,
// never a panic, since the input program was never even consulted.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Message
}

// Recover turns a panicking *InternalError into an error return, for use
// at package boundaries (cmd/* main functions) that must not crash the
// process without a diagnostic. It re-panics anything that isn't an
// *InternalError, since those represent genuine programmer mistakes
// rather than the documented invariant-violation category.
func Recover(errp *error) {
	if r := recover(); r != nil {
		if ierr, ok := r.(*InternalError); ok {
			*errp = ierr
			return
		}
		panic(r)
	}
}
