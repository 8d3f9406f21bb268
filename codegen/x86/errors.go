package x86

import (
	"fmt"

	"github.com/xyproto/sdfc/ir"
)

// panicX86 mirrors ir's own panicInvariant: a wiring bug between
// regalloc.Config and the addrCtx built for the same subprogram, or an
// opcode with no instruction-selection rule, is a compiler bug, not a
// malformed-input condition, so it uses the same typed-panic
// convention as the rest of the pipeline.
func panicX86(format string, args ...any) {
	panic(&ir.InternalError{Message: fmt.Sprintf(format, args...)})
}
