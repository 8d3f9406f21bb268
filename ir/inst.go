package ir

import "math"

// VId is a value identifier: a dense nonnegative index into a Program's
// instruction list, assigned in definition order. VId(-1) is the
// sentinel "no value" used for unused operand slots.
type VId int32

// NoVId marks an absent operand, e.g. the unused second slot of a unary
// instruction or Load, which has no operands at all.
const NoVId VId = -1

// Valid reports whether v refers to an actual instruction.
func (v VId) Valid() bool {
	return v >= 0
}

// Inst is one instruction: an opcode plus up to two VId operands, a
// float32 payload for Const, and a slot number for Load/Store. Operands
// must reference strictly smaller VIds than the instruction's own
// position in the owning Program; this is the SSA-acyclicity invariant
// checked by CheckInvariants.
type Inst struct {
	Op    Op
	Args  [2]VId
	Const float32
	Slot  uint32
}

// Arg0 and Arg1 name the two operand slots for readability at call
// sites that only care about arity 1 or 2.
func (i Inst) Arg0() VId { return i.Args[0] }
func (i Inst) Arg1() VId { return i.Args[1] }

// Operands returns the live operand slice for i, respecting its arity.
func (i Inst) Operands() []VId {
	return i.Args[:i.Op.Arity()]
}

// ConstInst builds a Const instruction, rejecting non-finite values as
// spec §3 requires ("Const carries a 32-bit IEEE-754 value").
func ConstInst(v float32) Inst {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		panic("ir: non-finite constant")
	}
	return Inst{Op: OpConst, Const: v, Args: [2]VId{NoVId, NoVId}}
}

// UnOpInst builds a unary arithmetic instruction.
func UnOpInst(op Op, arg VId) Inst {
	return Inst{Op: op, Args: [2]VId{arg, NoVId}}
}

// BinOpInst builds a binary arithmetic instruction.
func BinOpInst(op Op, a, b VId) Inst {
	return Inst{Op: op, Args: [2]VId{a, b}}
}

// LoadInst builds a memoization boundary load from the given slot.
func LoadInst(slot uint32) Inst {
	return Inst{Op: OpLoad, Slot: slot, Args: [2]VId{NoVId, NoVId}}
}

// StoreInst builds a memoization boundary store of src into the given
// slot. Store has no result VId of its own; it is a side-effecting
// pseudo-instruction.
func StoreInst(slot uint32, src VId) Inst {
	return Inst{Op: OpStore, Slot: slot, Args: [2]VId{src, NoVId}}
}

// ConstBits returns the IEEE-754 bit pattern of a Const instruction's
// payload, used as the hash-cons and constant-pool key.
func (i Inst) ConstBits() uint32 {
	return math.Float32bits(i.Const)
}
