package passes

import (
	"fmt"

	"github.com/xyproto/sdfc/ir"
)

// Bundle is the output of Memoize: three programs sharing one constant
// pool, per spec §4.3. X reads var-x and writes its boundary values; Y
// is symmetric over var-y; XY reads both sets of boundary values via
// Load and produces the program's final value via a Store to slot 0 of
// its own output.
//
// Store and Load agree on a slot number literally (spec §4.3's
// invariant: "for every slot s, exactly one Store(s, _) ... and one or
// more Load(s)"), so X's and Y's boundary values are numbered from one
// shared counter during Memoize's single discovery sweep. That leaves
// each buffer's own physical layout - a dense 0-based array with the
// raw variable input at offset 0 - as a separate, smaller remapping
// that XOffset/YOffset expose for the register allocator and emitter to
// use when they lay out x_buf/y_buf.
type Bundle struct {
	X, Y, XY *ir.Program
	Pool     *ir.ConstPool

	xOffset map[uint32]int
	yOffset map[uint32]int
}

// XSize is the required length of the buffer passed to the X entry
// point: one slot for the raw var-x input (always reserved, even if
// unused) plus one slot per boundary value X hands to XY.
func (b *Bundle) XSize() int { return 1 + len(b.X.OutSlots()) }

// YSize is X's counterpart for the Y entry point.
func (b *Bundle) YSize() int { return 1 + len(b.Y.OutSlots()) }

// XYSize is the required length of XY's output buffer: normally 1 (a
// single scalar result at slot 0), computed generically in case a
// future extension has XY write more than one slot.
func (b *Bundle) XYSize() int { return len(b.XY.OutSlots()) }

// XOffset returns the 0-based offset within x_buf that the boundary
// value written to the given (bundle-wide) slot number physically lives
// at; offset 0 is always the raw var-x input.
func (b *Bundle) XOffset(slot uint32) int { return b.xOffset[slot] }

// YOffset is XOffset's counterpart for y_buf.
func (b *Bundle) YOffset(slot uint32) int { return b.yOffset[slot] }

// Memoize splits p into the three-program bundle described by spec
// §4.3: values needed only by X-tagged or Y-tagged work stay in their
// own subprogram; values an XY-tagged instruction reads across that
// boundary are persisted with an explicit Store in their home
// subprogram and re-read with a Load in XY. Constants are never
// memoized; each subprogram that needs one materializes its own Const
// instruction, interned into the shared pool so codegen can still
// deduplicate storage.
func Memoize(p *ir.Program) *Bundle {
	tags := ir.Classify(p)
	pool := ir.NewConstPool()

	xSlot := make(map[ir.VId]uint32)
	ySlot := make(map[ir.VId]uint32)
	nextSlot := uint32(0) // one shared counter: Store and Load must agree on the same slot number

	discover := func(u ir.VId) {
		switch tags.Get(int(u)) {
		case ir.TagX:
			if _, ok := xSlot[u]; !ok {
				xSlot[u] = nextSlot
				nextSlot++
			}
		case ir.TagY:
			if _, ok := ySlot[u]; !ok {
				ySlot[u] = nextSlot
				nextSlot++
			}
		}
	}
	for i, inst := range p.Insts {
		if tags.Get(i) != ir.TagXY {
			continue
		}
		for _, u := range inst.Operands() {
			discover(u)
		}
	}
	if p.Result.Valid() {
		discover(p.Result)
	}

	var ensureConst func(orig ir.VId, translate map[ir.VId]ir.VId, b *ir.Builder) ir.VId
	ensureConst = func(orig ir.VId, translate map[ir.VId]ir.VId, b *ir.Builder) ir.VId {
		if nv, ok := translate[orig]; ok {
			return nv
		}
		if inst := p.Inst(orig); inst.Op != ir.OpConst {
			// A constant-tagged computation (e.g. sqrt of a Const) is
			// rebuilt from its own constant operands.
			for k := 0; k < inst.Op.Arity(); k++ {
				inst.Args[k] = ensureConst(inst.Args[k], translate, b)
			}
			nv := b.Push(inst)
			translate[orig] = nv
			return nv
		}
		val := p.Inst(orig).Const
		pool.Intern(val)
		nv := b.Push(ir.ConstInst(val))
		translate[orig] = nv
		return nv
	}

	buildSide := func(want ir.Tag, slots map[ir.VId]uint32) *ir.Program {
		b := ir.NewBuilder(p.Len())
		translate := make(map[ir.VId]ir.VId)
		for i, inst := range p.Insts {
			v := ir.VId(i)
			if tags.Get(i) != want {
				continue
			}
			newInst := inst
			for k := 0; k < inst.Op.Arity(); k++ {
				u := inst.Args[k]
				if tags.Get(int(u)) == ir.TagC {
					newInst.Args[k] = ensureConst(u, translate, b)
				} else {
					newInst.Args[k] = translate[u]
				}
			}
			nv := b.Push(newInst)
			translate[v] = nv
			if slot, ok := slots[v]; ok {
				b.Push(ir.StoreInst(slot, nv))
			}
		}
		return b.Finish(ir.NoVId)
	}

	x := buildSide(ir.TagX, xSlot)
	y := buildSide(ir.TagY, ySlot)

	bxy := ir.NewBuilder(p.Len())
	xyTranslate := make(map[ir.VId]ir.VId)
	var resolve func(u ir.VId) ir.VId
	resolve = func(u ir.VId) ir.VId {
		if nv, ok := xyTranslate[u]; ok {
			return nv
		}
		switch tags.Get(int(u)) {
		case ir.TagC:
			return ensureConst(u, xyTranslate, bxy)
		case ir.TagX:
			nv := bxy.Push(ir.LoadInst(xSlot[u]))
			xyTranslate[u] = nv
			return nv
		case ir.TagY:
			nv := bxy.Push(ir.LoadInst(ySlot[u]))
			xyTranslate[u] = nv
			return nv
		default:
			panicMemoize("operand %d tagged xy was not yet translated", u)
			return ir.NoVId
		}
	}
	for i, inst := range p.Insts {
		v := ir.VId(i)
		if tags.Get(i) != ir.TagXY {
			continue
		}
		newInst := inst
		for k := 0; k < inst.Op.Arity(); k++ {
			newInst.Args[k] = resolve(inst.Args[k])
		}
		nv := bxy.Push(newInst)
		xyTranslate[v] = nv
	}

	if p.Result.Valid() {
		result := resolve(p.Result)
		bxy.Push(ir.StoreInst(0, result))
	}
	xy := bxy.Finish(ir.NoVId)

	xOffset := make(map[uint32]int)
	for i, s := range x.OutSlots() {
		xOffset[s] = i + 1 // offset 0 reserved for the raw var-x input
	}
	yOffset := make(map[uint32]int)
	for i, s := range y.OutSlots() {
		yOffset[s] = i + 1
	}

	return &Bundle{X: x, Y: y, XY: xy, Pool: pool, xOffset: xOffset, yOffset: yOffset}
}

// panicMemoize mirrors ir's own unexported panicInvariant: Memoize's
// invariant violations are equally internal bugs, never triggerable by
// well-formed input, so they use the same typed-panic convention.
func panicMemoize(format string, args ...any) {
	panic(&ir.InternalError{Message: fmt.Sprintf(format, args...)})
}
