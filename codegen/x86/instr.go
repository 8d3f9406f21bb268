package x86

import (
	"bufio"
	"fmt"

	"github.com/xyproto/sdfc/ir"
	"github.com/xyproto/sdfc/regalloc"
)

// emitFunc runs the reverse allocator over fs.p and streams the result
// forward as one GAS function, per spec §4.5's two-phase "allocate
// fully, then emit text" protocol.
func emitFunc(w *bufio.Writer, fs funcSpec) error {
	fs.cfg.NumRegs = fs.opts.numRegs()
	fs.cfg.Policy = fs.opts.Sink
	alloc := regalloc.Allocate(fs.p, fs.cfg)

	suf := "ss"
	if fs.opts.Vector {
		suf = "ps"
	}
	movOp := "vmov" + suf

	fmt.Fprintf(w, ".globl %s\n", fs.name)
	fmt.Fprintf(w, "%s:\n", fs.name)

	frameBytes := alloc.SpillSlots * fs.ctx.elemBytes()
	if frameBytes > 0 {
		fmt.Fprintln(w, "pushq %rbp")
		fmt.Fprintln(w, "movq %rsp,%rbp")
		fmt.Fprintf(w, "sub $%#x,%%rsp\n", frameBytes)
	}

	for i, inst := range fs.p.Insts {
		d := alloc.For(ir.VId(i))
		if d.Skip {
			continue
		}
		switch inst.Op {
		case ir.OpVarX, ir.OpVarY, ir.OpLoad:
			// Fixed-home inputs materialize lazily at their first
			// forward-order demand, recorded in that instruction's own
			// LoadsBefore rather than here.
			continue
		}

		for _, ld := range d.LoadsBefore {
			fmt.Fprintf(w, "%s %s,%s\n", movOp, fs.ctx.operand(ld.Mem), xmm(ld.Reg))
		}

		switch inst.Op {
		case ir.OpConst:
			off := fs.pl.offsetOf(inst.ConstBits())
			fmt.Fprintf(w, "%s %s,%s\n", movOp, poolOperand(off), xmm(d.ResultReg))
		case ir.OpStore:
			fmt.Fprintf(w, "%s %s,%s\n", movOp, xmm(d.Arg0.Reg), fs.ctx.operand(d.StoreHome))
			continue
		case ir.OpNeg:
			mask := poolOperand(fs.pl.negOffset())
			fmt.Fprintf(w, "vxorps %s,%s,%s\n", mask, xmm(d.Arg0.Reg), xmm(d.ResultReg))
		case ir.OpSquare:
			fmt.Fprintf(w, "vmul%s %s,%s,%s\n", suf, xmm(d.Arg0.Reg), xmm(d.Arg0.Reg), xmm(d.ResultReg))
		case ir.OpSqrt:
			fmt.Fprintf(w, "vsqrt%s %s,%s,%s\n", suf, xmm(d.Arg0.Reg), xmm(d.Arg0.Reg), xmm(d.ResultReg))
		case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpMin, ir.OpMax:
			mnemonic := binMnemonic(inst.Op, suf)
			fmt.Fprintf(w, "%s %s,%s,%s\n", mnemonic, operandStr(fs.ctx, d.Arg1), xmm(d.Arg0.Reg), xmm(d.ResultReg))
		default:
			panicX86("%s has no instruction-selection rule", inst.Op)
		}

		if d.StoreAfter {
			fmt.Fprintf(w, "%s %s,%s\n", movOp, xmm(d.ResultReg), fs.ctx.operand(d.StoreHome))
		}
	}

	if frameBytes > 0 {
		fmt.Fprintln(w, "movq %rbp,%rsp")
		fmt.Fprintln(w, "pop %rbp")
	}
	fmt.Fprintln(w, "ret")
	return nil
}

func binMnemonic(op ir.Op, suf string) string {
	switch op {
	case ir.OpAdd:
		return "vadd" + suf
	case ir.OpSub:
		return "vsub" + suf
	case ir.OpMul:
		return "vmul" + suf
	case ir.OpMin:
		return "vmin" + suf
	case ir.OpMax:
		return "vmax" + suf
	default:
		panicX86("binMnemonic called with non-binary opcode %s", op)
		return ""
	}
}

func operandStr(ctx *addrCtx, loc regalloc.ArgLoc) string {
	if loc.InReg {
		return xmm(loc.Reg)
	}
	return ctx.operand(loc.Mem)
}

func poolOperand(byteOff int) string {
	if byteOff == 0 {
		return "consts(%rip)"
	}
	return fmt.Sprintf("consts+%#x(%%rip)", byteOff)
}
