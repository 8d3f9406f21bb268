package regalloc

import "github.com/xyproto/sdfc/ir"

// ArgLoc is where an instruction's operand is read from at emission
// time: either a register or a direct memory operand (the ABI's
// argument to allocator/emitter fusion described in spec §4.5 - since
// Allocate runs to completion before any text is emitted, a sunk-load
// promotion can simply edit an already-recorded Decision in place
// rather than patch already-emitted bytes).
type ArgLoc struct {
	InReg bool
	Reg   int
	Mem   MemRef
}

// ExtraLoad is a register load the allocator needs synthesized
// immediately before an instruction, either to satisfy that
// instruction's own operand or to promote a previously queued sink.
type ExtraLoad struct {
	Reg int
	Mem MemRef
}

// Decision records everything the emitter needs to generate one
// original instruction's code, once the full reverse-order allocation
// pass has finished (and any later sink promotion has finished editing
// it in place).
type Decision struct {
	// Skip marks an instruction that emits no code of its own: a dead
	// definition nothing ever reads, or a fixed-home input (var-x,
	// var-y, Load) whose readers load it from its memory home.
	Skip bool

	// LoadsBefore holds any Load instructions that must be emitted,
	// in order, immediately before this instruction's own operation.
	LoadsBefore []ExtraLoad

	// Arg0/Arg1 give each operand's location, valid up to the
	// instruction's arity.
	Arg0, Arg1 ArgLoc

	// ResultReg is valid when the instruction's opcode has a result
	// (HasResult()); it is the register the computed value lands in.
	ResultReg int

	// StoreAfter, when true, means ResultReg must be written out to
	// StoreHome immediately after the instruction executes - either
	// because this is a genuine Store instruction (its operand is
	// Arg0, not a computed result) or because the value was spilled.
	StoreAfter bool
	StoreHome  MemRef
}

// Allocation is the full result of Allocate: one Decision per
// instruction index in p.Insts, plus the number of scratch spill slots
// the emitter must reserve stack space for.
type Allocation struct {
	Decisions []Decision
	SpillSlots int
}

func (a *Allocation) For(v ir.VId) *Decision { return &a.Decisions[v] }
