package ir

import "math"

// Eval evaluates every instruction of p in order, given fixed x and y
// inputs and a slot->value map for any Load instructions (nil is fine
// for programs with none). It returns the per-VId register file and,
// if the program contains any Store instructions, the slot->value map
// they wrote.
//
// This is the reference interpreter spec §8's "Interpreter equivalence"
// and "Memoize roundtrip" properties are stated against: passes must
// not change what Eval produces (aside from the fan-out memoization
// itself), only how many instructions it takes to get there.
func Eval(p *Program, x, y float32, loads map[uint32]float32) (regs []float32, stores map[uint32]float32) {
	regs = make([]float32, p.Len())
	for i, inst := range p.Insts {
		switch inst.Op {
		case OpVarX:
			regs[i] = x
		case OpVarY:
			regs[i] = y
		case OpConst:
			regs[i] = inst.Const
		case OpNeg:
			regs[i] = -regs[inst.Args[0]]
		case OpSqrt:
			regs[i] = float32(math.Sqrt(float64(regs[inst.Args[0]])))
		case OpSquare:
			a := regs[inst.Args[0]]
			regs[i] = a * a
		case OpAdd:
			regs[i] = regs[inst.Args[0]] + regs[inst.Args[1]]
		case OpSub:
			regs[i] = regs[inst.Args[0]] - regs[inst.Args[1]]
		case OpMul:
			regs[i] = regs[inst.Args[0]] * regs[inst.Args[1]]
		case OpMin:
			regs[i] = minFloat32(regs[inst.Args[0]], regs[inst.Args[1]])
		case OpMax:
			regs[i] = maxFloat32(regs[inst.Args[0]], regs[inst.Args[1]])
		case OpLoad:
			v, ok := loads[inst.Slot]
			if !ok {
				panicInvariant("Eval: load from slot %d with no supplied value", inst.Slot)
			}
			regs[i] = v
		case OpStore:
			if stores == nil {
				stores = make(map[uint32]float32)
			}
			stores[inst.Slot] = regs[inst.Args[0]]
		default:
			panicInvariant("Eval: unhandled opcode %s", inst.Op)
		}
	}
	return regs, stores
}

// Result returns the value of p's designated result, or 0 if the
// program has none (as with the X and Y memoized subprograms, whose
// interesting outputs are their Store slots, not a scalar result).
func Result(p *Program, regs []float32) float32 {
	if !p.Result.Valid() {
		return 0
	}
	return regs[p.Result]
}

// EvalScalar evaluates a plain (non-memoized) program at one (x, y)
// point and returns its result, for use by the reference interpreter
// and by tests checking interpreter equivalence across passes.
func EvalScalar(p *Program, x, y float32) float32 {
	regs, _ := Eval(p, x, y, nil)
	return Result(p, regs)
}

func minFloat32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxFloat32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
