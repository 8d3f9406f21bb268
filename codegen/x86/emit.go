package x86

import (
	"bufio"
	"fmt"
	"io"

	"github.com/xyproto/sdfc/ir"
	"github.com/xyproto/sdfc/passes"
	"github.com/xyproto/sdfc/regalloc"
)

// Options configures a single compile per spec §6's `x86` CLI surface.
type Options struct {
	Memoize bool
	Vector  bool
	Sink    regalloc.SinkPolicy

	// NumRegs overrides how many xmm registers the allocator is
	// offered. Zero (or a value above NumRegs) falls back to NumRegs
	// itself; this only exists so internal/envcfg's SDFC_REGISTERS
	// fallback has somewhere to land.
	NumRegs int
}

func (o Options) numRegs() int {
	if o.NumRegs <= 0 || o.NumRegs > NumRegs {
		return NumRegs
	}
	return o.NumRegs
}

// Write lowers p to GNU-assembler text for System-V AMD64 per spec §4.5,
// choosing between the memoized three-function bundle and a single
// fused `xy` entry point according to opts.Memoize.
func Write(w io.Writer, p *ir.Program, opts Options) error {
	bw := bufio.NewWriter(w)

	stride := 1
	if opts.Vector {
		stride = 4
	}

	var (
		bundle       *passes.Bundle
		xSize, ySize int
		xyProgram    *ir.Program
		xySize       int
		pool         *ir.ConstPool
	)

	if opts.Memoize {
		bundle = passes.Memoize(p)
		xSize, ySize = bundle.XSize(), bundle.YSize()
		xyProgram = bundle.XY
		xySize = bundle.XYSize()
		pool = bundle.Pool
	} else {
		xSize, ySize = 1, 1
		xyProgram = appendResultStore(p)
		xySize = 1
		pool = ir.NewConstPool()
		for _, inst := range xyProgram.Insts {
			if inst.Op == ir.OpConst {
				pool.Intern(inst.Const)
			}
		}
	}

	needsNeg := programNeedsNeg(xyProgram) ||
		(bundle != nil && (programNeedsNeg(bundle.X) || programNeedsNeg(bundle.Y)))
	pl := layoutPool(pool, needsNeg)

	fmt.Fprintln(bw, ".text")
	if opts.Memoize {
		if err := emitFunc(bw, funcSpec{
			name:   "x",
			p:      bundle.X,
			cfg:    xConfig(bundle, opts.numRegs()),
			ctx:    &addrCtx{baseReg: map[string]string{"out": "%rdi"}, stride: stride, vector: opts.Vector},
			opts:   opts,
			pl:     pl,
			stride: stride,
		}); err != nil {
			return err
		}
		if err := emitFunc(bw, funcSpec{
			name:   "y",
			p:      bundle.Y,
			cfg:    yConfig(bundle, opts.numRegs()),
			ctx:    &addrCtx{baseReg: map[string]string{"out": "%rsi"}, stride: stride, vector: opts.Vector},
			opts:   opts,
			pl:     pl,
			stride: stride,
		}); err != nil {
			return err
		}
		if err := emitFunc(bw, funcSpec{
			name: "xy",
			p:    xyProgram,
			cfg:  xyConfigMemoized(bundle, opts.numRegs()),
			ctx: &addrCtx{baseReg: map[string]string{
				"x_in": "%rdi", "y_in": "%rsi", "xy_out": "%rdx",
			}, stride: stride, vector: opts.Vector},
			opts:   opts,
			pl:     pl,
			stride: stride,
		}); err != nil {
			return err
		}
	} else {
		empty := &ir.Program{}
		if err := emitFunc(bw, funcSpec{
			name: "x",
			p:    empty,
			cfg:  regalloc.Config{NumRegs: opts.numRegs(), Policy: opts.Sink},
			ctx:  &addrCtx{baseReg: map[string]string{"out": "%rdi"}, stride: stride, vector: opts.Vector},
			opts: opts, pl: pl, stride: stride,
		}); err != nil {
			return err
		}
		if err := emitFunc(bw, funcSpec{
			name: "y",
			p:    empty,
			cfg:  regalloc.Config{NumRegs: opts.numRegs(), Policy: opts.Sink},
			ctx:  &addrCtx{baseReg: map[string]string{"out": "%rsi"}, stride: stride, vector: opts.Vector},
			opts: opts, pl: pl, stride: stride,
		}); err != nil {
			return err
		}
		if err := emitFunc(bw, funcSpec{
			name: "xy",
			p:    xyProgram,
			cfg: regalloc.Config{
				NumRegs:  opts.numRegs(),
				Policy:   opts.Sink,
				VarXHome: regalloc.MemRef{Base: "x_in", Offset: 0},
				VarYHome: regalloc.MemRef{Base: "y_in", Offset: 0},
				StoreHome: func(slot uint32) regalloc.MemRef {
					return regalloc.MemRef{Base: "xy_out", Offset: int(slot)}
				},
			},
			ctx: &addrCtx{baseReg: map[string]string{
				"x_in": "%rdi", "y_in": "%rsi", "xy_out": "%rdx",
			}, stride: stride, vector: opts.Vector},
			opts: opts, pl: pl, stride: stride,
		}); err != nil {
			return err
		}
	}

	if err := pl.write(bw); err != nil {
		return err
	}

	if err := writeSymbols(bw, xSize, ySize, xySize, stride); err != nil {
		return err
	}

	return bw.Flush()
}

// appendResultStore turns a plain program's designated result into an
// explicit Store, mirroring the way Memoize itself closes off XY's
// output, so the reverse allocator has a real demand to anchor the
// final value's liveness on.
func appendResultStore(p *ir.Program) *ir.Program {
	b := ir.NewBuilder(p.Len() + 1)
	for _, inst := range p.Insts {
		b.Push(inst)
	}
	if p.Result.Valid() {
		b.Push(ir.StoreInst(0, p.Result))
	}
	return b.Finish(ir.NoVId)
}

func programNeedsNeg(p *ir.Program) bool {
	if p == nil {
		return false
	}
	for _, inst := range p.Insts {
		if inst.Op == ir.OpNeg {
			return true
		}
	}
	return false
}

func xConfig(b *passes.Bundle, numRegs int) regalloc.Config {
	return regalloc.Config{
		NumRegs:  numRegs,
		VarXHome: regalloc.MemRef{Base: "out", Offset: 0},
		StoreHome: func(slot uint32) regalloc.MemRef {
			return regalloc.MemRef{Base: "out", Offset: b.XOffset(slot)}
		},
	}
}

func yConfig(b *passes.Bundle, numRegs int) regalloc.Config {
	return regalloc.Config{
		NumRegs:  numRegs,
		VarYHome: regalloc.MemRef{Base: "out", Offset: 0},
		StoreHome: func(slot uint32) regalloc.MemRef {
			return regalloc.MemRef{Base: "out", Offset: b.YOffset(slot)}
		},
	}
}

// xyConfigMemoized builds the Load/Store routing for the XY subprogram:
// a Load's slot number was minted from the shared X/Y boundary counter
// in Memoize, so membership in X's or Y's own OutSlots is what decides
// whether it addresses x_in or y_in.
func xyConfigMemoized(b *passes.Bundle, numRegs int) regalloc.Config {
	fromX := make(map[uint32]bool)
	for _, s := range b.X.OutSlots() {
		fromX[s] = true
	}
	return regalloc.Config{
		NumRegs: numRegs,
		LoadHome: func(slot uint32) regalloc.MemRef {
			if fromX[slot] {
				return regalloc.MemRef{Base: "x_in", Offset: b.XOffset(slot)}
			}
			return regalloc.MemRef{Base: "y_in", Offset: b.YOffset(slot)}
		},
		StoreHome: func(slot uint32) regalloc.MemRef {
			return regalloc.MemRef{Base: "xy_out", Offset: int(slot)}
		},
	}
}

type funcSpec struct {
	name   string
	p      *ir.Program
	cfg    regalloc.Config
	ctx    *addrCtx
	opts   Options
	pl     *poolLayout
	stride int
}

// writeSymbols emits the four 16-bit constants a harness reads to learn
// each buffer's required length and the SIMD lane count in play.
func writeSymbols(w *bufio.Writer, xSize, ySize, xySize, stride int) error {
	fmt.Fprintln(w, ".section .rodata")
	fmt.Fprintln(w, ".globl x_size")
	fmt.Fprintf(w, "x_size: .short %d\n", xSize)
	fmt.Fprintln(w, ".globl y_size")
	fmt.Fprintf(w, "y_size: .short %d\n", ySize)
	fmt.Fprintln(w, ".globl xy_size")
	fmt.Fprintf(w, "xy_size: .short %d\n", xySize)
	fmt.Fprintln(w, ".globl stride")
	_, err := fmt.Fprintf(w, "stride: .short %d\n", stride)
	return err
}
