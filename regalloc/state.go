package regalloc

import "github.com/xyproto/sdfc/internal/support"

// loc is a value's residency at some point during the reverse walk.
type loc uint8

const (
	locUnassigned loc = iota
	locRegister
	locMemory
	locRegisterAndMemory
)

// valueState is per-VId bookkeeping, kept as a dense slice sized to the
// program length rather than a support.IdMap: the allocator always
// knows the final size up front and never grows it mid-walk, matching
// spec §4.4's note that a value's state fits in a handful of bytes.
type valueState struct {
	loc loc
	reg int8 // valid when loc is locRegister or locRegisterAndMemory

	// fixedHome is true for values with an a-priori memory location the
	// allocator never chose and must never spill on top of: var-x/var-y
	// reads and Load results. Such values need no Store.
	fixedHome bool
	home      MemRef

	// lastDemand is the tick of the most recent (i.e. earliest in
	// forward order) demand seen for this value, or 0 if none yet.
	// Comparing against it is how SinkRequireDead recognizes a value's
	// last forward-order use.
	lastDemand uint64

	// sunk, when hasSunk, is the ticket for a pending memory-operand
	// sink still eligible for promotion into a register.
	sunk    support.Ticket
	hasSunk bool
}
