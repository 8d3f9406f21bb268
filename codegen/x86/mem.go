package x86

import (
	"fmt"

	"github.com/xyproto/sdfc/regalloc"
)

// addrCtx resolves a regalloc.MemRef into a GAS addressing-mode string.
// Every base regalloc ever hands back is one of: an ABI pointer argument
// (an array of stride-wide elements), or the "spill" scratch frame
// (an array of elemBytes-wide slots, 4 bytes scalar or 16 packed,
// addressed off %rbp).
type addrCtx struct {
	baseReg map[string]string
	stride  int // element width in floats: 1 scalar, 4 packed
	vector  bool
}

func (c *addrCtx) elemBytes() int {
	if c.vector {
		return 16
	}
	return 4
}

func (c *addrCtx) operand(m regalloc.MemRef) string {
	if m.Base == "spill" {
		off := -(m.Offset + 1) * c.elemBytes()
		return fmt.Sprintf("%d(%%rbp)", off)
	}
	base, ok := c.baseReg[m.Base]
	if !ok {
		panicX86("no base register configured for memory base %q", m.Base)
	}
	byteOff := m.Offset * c.stride * 4
	if byteOff == 0 {
		return fmt.Sprintf("(%s)", base)
	}
	return fmt.Sprintf("%#x(%s)", byteOff, base)
}
