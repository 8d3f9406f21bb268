// Package passes implements the three transformation passes that turn a
// freshly parsed program into one ready for code generation: Simplify
// (algebraic normalization plus value numbering), Reassociate
// (variable-aware chain rebalancing), and Memoize (splitting a program
// into X-only, Y-only, and XY stages). Reorder, a topological-fixup
// utility, rounds out the package.
package passes

import (
	"github.com/xyproto/sdfc/internal/support"
	"github.com/xyproto/sdfc/ir"
)

// sval is a value together with a pending negation that has not yet been
// materialized as a real Neg instruction. Simplify carries these through
// its rewrite rules so that chains of sign flips cancel for free instead
// of emitting and then re-discovering redundant Neg instructions; see
// spec §4.1's "delay creating Neg instructions" rationale.
type sval struct {
	v   ir.VId
	neg bool
}

func pos(v ir.VId) sval   { return sval{v: v} }
func negOf(s sval) sval   { return sval{v: s.v, neg: !s.neg} }

// gvnKey is the hash-cons key for Simplify's value-numbering table: an
// opcode plus up to two canonicalized operands (or a bit pattern for
// Const). ir.NoVId fills unused operand slots.
type gvnKey struct {
	op   ir.Op
	a, b ir.VId
	bits uint32
}

type simplifier struct {
	b        *ir.Builder
	gvn      map[gvnKey]ir.VId
	subTable map[[2]ir.VId]ir.VId
}

// Simplify runs algebraic normalization and global value numbering over
// p, per spec §4.1: negations are pushed outward and cancelled where
// possible, structurally identical instructions are coalesced, and
// commutative operands are placed in canonical (ascending VId) order.
func Simplify(p *ir.Program) *ir.Program {
	s := &simplifier{
		b:        ir.NewBuilder(p.Len()),
		gvn:      make(map[gvnKey]ir.VId, p.Len()),
		subTable: make(map[[2]ir.VId]ir.VId),
	}

	vals := support.NewIdMap[sval](p.Len())
	for i, inst := range p.Insts {
		var out sval
		switch {
		case inst.Op == ir.OpConst:
			out = s.pushConst(inst.Const)
		case inst.Op == ir.OpVarX, inst.Op == ir.OpVarY:
			out = s.pushNullary(inst.Op)
		case inst.Op.IsUnary():
			out = s.pushUnary(inst.Op, vals.Get(int(inst.Args[0])))
		case inst.Op.IsBinary():
			a := vals.Get(int(inst.Args[0]))
			b := vals.Get(int(inst.Args[1]))
			out = s.pushBinop(inst.Op, a, b)
		default:
			panic("passes: Simplify does not accept Load/Store; run before Memoize")
		}
		vals.Set(i, out)
	}

	result := ir.NoVId
	if p.Result.Valid() {
		result = s.forceNeg(vals.Get(int(p.Result)))
	}
	return s.b.Finish(result)
}

func (s *simplifier) pushConst(v float32) sval {
	key := gvnKey{op: ir.OpConst, a: ir.NoVId, b: ir.NoVId, bits: ir.ConstInst(v).ConstBits()}
	if r, ok := s.gvn[key]; ok {
		return pos(r)
	}
	r := s.b.Push(ir.ConstInst(v))
	s.gvn[key] = r
	return pos(r)
}

func (s *simplifier) pushNullary(op ir.Op) sval {
	key := gvnKey{op: op, a: ir.NoVId, b: ir.NoVId}
	if r, ok := s.gvn[key]; ok {
		return pos(r)
	}
	r := s.b.Push(Inst0(op))
	s.gvn[key] = r
	return pos(r)
}

// Inst0 builds a bare nullary instruction (VarX or VarY).
func Inst0(op ir.Op) ir.Inst {
	return ir.Inst{Op: op, Args: [2]ir.VId{ir.NoVId, ir.NoVId}}
}

func (s *simplifier) pushUnaryReal(op ir.Op, v ir.VId) ir.VId {
	key := gvnKey{op: op, a: v, b: ir.NoVId}
	if r, ok := s.gvn[key]; ok {
		return r
	}
	r := s.b.Push(ir.UnOpInst(op, v))
	s.gvn[key] = r
	return r
}

// forceNeg materializes a's pending sign, if any, as a real (hash-consed)
// Neg instruction, and returns the resulting concrete VId.
func (s *simplifier) forceNeg(a sval) ir.VId {
	if a.neg {
		return s.pushUnaryReal(ir.OpNeg, a.v)
	}
	return a.v
}

// pushUnary applies the unary algebraic rewrites of spec §4.1: Neg just
// flips the pending sign (never emitting an instruction by itself),
// Square discards any pending sign since squaring erases it, and Sqrt
// must materialize the sign first since sqrt(-x) != -sqrt(x).
func (s *simplifier) pushUnary(op ir.Op, arg sval) sval {
	switch op {
	case ir.OpNeg:
		return negOf(arg)
	case ir.OpSquare:
		return pos(s.pushUnaryReal(ir.OpSquare, arg.v))
	default: // Sqrt
		v := s.forceNeg(arg)
		return pos(s.pushUnaryReal(op, v))
	}
}

// gvnBinary canonicalizes commutative operand order, applies the
// subtraction-reversal trick (spec §4.1: "if (Sub b a) already exists,
// rewrite (Sub a b) to (Neg that value)"), and hash-conses the result.
func (s *simplifier) gvnBinary(op ir.Op, a, b ir.VId) sval {
	if op.IsCommutative() && a > b {
		a, b = b, a
	}
	if op == ir.OpSub {
		if rev, ok := s.subTable[[2]ir.VId{b, a}]; ok {
			return sval{v: rev, neg: true}
		}
	}
	key := gvnKey{op: op, a: a, b: b}
	if r, ok := s.gvn[key]; ok {
		return pos(r)
	}
	r := s.b.Push(ir.BinOpInst(op, a, b))
	s.gvn[key] = r
	if op == ir.OpSub {
		s.subTable[[2]ir.VId{a, b}] = r
	}
	return pos(r)
}

// pushBinop applies the sign-propagation table of spec §4.1 to a binary
// instruction whose operands may carry a pending negation, rewriting to
// the cheapest equivalent real instruction before hash-consing it.
func (s *simplifier) pushBinop(op ir.Op, a, b sval) sval {
	var targetOp ir.Op
	var av, bv ir.VId
	var negated bool

	switch {
	case !a.neg && !b.neg:
		targetOp, av, bv, negated = op, a.v, b.v, false

	case op == ir.OpAdd && a.neg && b.neg: // (-a)+(-b) = -(a+b)
		targetOp, av, bv, negated = ir.OpAdd, a.v, b.v, true
	case op == ir.OpAdd && !a.neg && b.neg: // a+(-b) = a-b
		targetOp, av, bv, negated = ir.OpSub, a.v, b.v, false
	case op == ir.OpAdd && a.neg && !b.neg: // (-a)+b = b-a
		targetOp, av, bv, negated = ir.OpSub, b.v, a.v, false

	case op == ir.OpSub && a.neg && b.neg: // (-a)-(-b) = b-a
		targetOp, av, bv, negated = ir.OpSub, b.v, a.v, false
	case op == ir.OpSub && !a.neg && b.neg: // a-(-b) = a+b
		targetOp, av, bv, negated = ir.OpAdd, a.v, b.v, false
	case op == ir.OpSub && a.neg && !b.neg: // (-a)-b = -(a+b)
		targetOp, av, bv, negated = ir.OpAdd, a.v, b.v, true

	case op == ir.OpMul && a.neg && b.neg: // (-a)*(-b) = a*b
		targetOp, av, bv, negated = ir.OpMul, a.v, b.v, false
	case op == ir.OpMul && !a.neg && b.neg: // a*(-b) = -(a*b)
		targetOp, av, bv, negated = ir.OpMul, a.v, b.v, true
	case op == ir.OpMul && a.neg && !b.neg: // (-a)*b = -(a*b)
		targetOp, av, bv, negated = ir.OpMul, a.v, b.v, true

	case op == ir.OpMin && a.neg && b.neg: // min(-a,-b) = -max(a,b)
		targetOp, av, bv, negated = ir.OpMax, a.v, b.v, true
	case op == ir.OpMax && a.neg && b.neg: // max(-a,-b) = -min(a,b)
		targetOp, av, bv, negated = ir.OpMin, a.v, b.v, true

	case !a.neg && b.neg: // remaining mixed-sign cases (Min, Max): materialize
		targetOp, av, bv, negated = op, a.v, s.pushUnaryReal(ir.OpNeg, b.v), false
	default: // a.neg && !b.neg
		targetOp, av, bv, negated = op, s.pushUnaryReal(ir.OpNeg, a.v), b.v, false
	}

	result := s.gvnBinary(targetOp, av, bv)
	if negated {
		result = negOf(result)
	}
	return result
}
