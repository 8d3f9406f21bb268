// Package x86 turns allocated IR into GNU-assembler text for the
// System-V AMD64 ABI, per spec §4.5: scalar (single-lane f32) or packed
// (4-lane 128-bit SIMD) instruction selection, a deduplicated constant
// pool, and the three-function x/y/xy entry points a harness links
// against.
package x86

import "fmt"

// NumRegs is the number of xmm registers the allocator is offered.
// xmm15 is reserved as always-zero scratch would be one option, but
// this emitter's Neg lowering needs no dedicated zero register (it XORs
// against a pool constant instead), so all sixteen are available; one
// is still held back so a spill-heavy program never has to fight the
// allocator for its very last register.
const NumRegs = 15

func xmm(reg int) string {
	return fmt.Sprintf("%%xmm%d", reg)
}
