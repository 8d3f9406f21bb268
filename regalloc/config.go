package regalloc

// MemRef names a fixed memory location by a base pointer symbolic to the
// caller (the emitter knows "x_in", "y_in", "xy_out" map to which ABI
// register) and an element offset within it. The allocator never
// interprets Base beyond equality comparison; it exists purely so the
// emitter can turn a Decision back into an addressing mode.
type MemRef struct {
	Base   string
	Offset int
}

// Config supplies everything about a program's memory layout that the
// allocator itself has no way to infer from bare Op/Slot values: which
// base pointer a given Load or Store slot resolves against (this
// differs between a memoized X/Y/XY split, where slots must be routed
// to whichever of x_in/y_in owns them, and a non-memoized program fed
// straight to the XY role, where var-x/var-y stand in for Load) and
// where the two implicit variables live when they're memory-resident
// rather than register arguments.
type Config struct {
	NumRegs int
	Policy  SinkPolicy

	// VarXHome and VarYHome give the fixed location of a var-x/var-y
	// value when the opcode appears directly in the program (the
	// non-memoized path, or X/Y's own reads of their raw input). Left
	// as the zero MemRef when the opcode never appears.
	VarXHome MemRef
	VarYHome MemRef

	// LoadHome and StoreHome resolve a Load/Store instruction's Slot to
	// the base pointer and offset it actually addresses.
	LoadHome  func(slot uint32) MemRef
	StoreHome func(slot uint32) MemRef
}
