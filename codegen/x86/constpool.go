package x86

import (
	"bufio"
	"fmt"
	"math"

	"github.com/xyproto/sdfc/ir"
)

// signBitConst is the bit pattern Neg's Xor lowering needs, per spec
// §4.5. It is interned into the pool like any other constant, so a
// program that never negates anything never pays for it.
const signBitConst uint32 = 0x80000000

// poolLayout gives each interned constant its byte offset within the
// emitted .rodata section. Every entry, scalar or vector mode alike, is
// laid out as four repeated .long words: xorps has no scalar form, it
// always reads a full 128-bit operand, so Neg's mask needs 16 aligned
// bytes even when every other instruction in the function only touches
// lane 0. Reserving the same width for every constant keeps one layout
// rule instead of two.
type poolLayout struct {
	byteAt map[uint32]int // bit pattern -> byte offset
	order  []uint32       // bit patterns, in offset order
}

func layoutPool(pool *ir.ConstPool, needsNeg bool) *poolLayout {
	pl := &poolLayout{byteAt: make(map[uint32]int)}
	add := func(bits uint32) {
		if _, ok := pl.byteAt[bits]; ok {
			return
		}
		pl.byteAt[bits] = len(pl.order) * 16
		pl.order = append(pl.order, bits)
	}
	for _, v := range pool.Values() {
		add(math.Float32bits(v))
	}
	if needsNeg {
		add(signBitConst)
	}
	return pl
}

func (pl *poolLayout) offsetOf(bits uint32) int {
	return pl.byteAt[bits]
}

func (pl *poolLayout) negOffset() int {
	return pl.byteAt[signBitConst]
}

// write emits the .rodata section backing pl: four repeated .long words
// per constant so a single 16-byte aligned load fills every lane a
// packed instruction might read, whether or not the function that reads
// it is running in vector mode.
func (pl *poolLayout) write(w *bufio.Writer) error {
	if len(pl.order) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, ".section .rodata"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ".align 16"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "consts:"); err != nil {
		return err
	}
	for _, bits := range pl.order {
		for i := 0; i < 4; i++ {
			if _, err := fmt.Fprintf(w, ".long %#x\n", bits); err != nil {
				return err
			}
		}
	}
	return nil
}
