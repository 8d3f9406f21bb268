package passes

import (
	"sort"

	"github.com/xyproto/sdfc/internal/support"
	"github.com/xyproto/sdfc/ir"
)

// Reassociate rebalances chains of the same commutative-associative
// operator (Add, Mul, Min, Max) so that operands depending on the same
// free variable end up adjacent, per spec §4.2. This is what lets
// Memoize later split a rebuilt chain cleanly: the X-only prefix of a
// chain can be computed once by the X subprogram instead of once per
// pixel row and column.
//
// A "chain" is the maximal tree of same-opcode nodes reachable from a
// root through operands that are used nowhere else; such an operand
// exists purely to feed its one parent and can be freely regrouped.
// Everything else - multiply-used values, values of a different opcode,
// the designated program result - is a chain leaf.
func Reassociate(p *ir.Program) *ir.Program {
	n := p.Len()
	useCount := make([]int, n)
	soleUser := make([]ir.VId, n)
	for i := range soleUser {
		soleUser[i] = ir.NoVId
	}
	for i, inst := range p.Insts {
		for _, a := range inst.Operands() {
			useCount[a]++
			if useCount[a] == 1 {
				soleUser[a] = ir.VId(i)
			}
		}
	}

	absorbable := func(v ir.VId) bool {
		if v == p.Result || useCount[v] != 1 {
			return false
		}
		u := soleUser[v]
		if !u.Valid() {
			return false
		}
		vi, ui := p.Inst(v), p.Inst(u)
		return vi.Op.IsAssociative() && ui.Op == vi.Op
	}

	tags := ir.Classify(p)

	var collectChain func(root ir.VId) []ir.VId
	collectChain = func(root ir.VId) []ir.VId {
		op := p.Inst(root).Op
		var leaves []ir.VId
		var walk func(v ir.VId)
		walk = func(v ir.VId) {
			inst := p.Inst(v)
			if inst.Op == op && absorbable(v) {
				for _, a := range inst.Operands() {
					walk(a)
				}
				return
			}
			leaves = append(leaves, v)
		}
		for _, a := range p.Inst(root).Operands() {
			walk(a)
		}
		return leaves
	}

	type foldKey struct {
		op   ir.Op
		a, c ir.VId
	}
	folds := make(map[foldKey]ir.VId)

	b := ir.NewBuilder(n)
	translate := support.NewIdMap[ir.VId](n)

	foldPair := func(op ir.Op, a, c ir.VId) ir.VId {
		if a > c {
			a, c = c, a
		}
		key := foldKey{op, a, c}
		if r, ok := folds[key]; ok {
			return r
		}
		r := b.Push(ir.BinOpInst(op, a, c))
		folds[key] = r
		return r
	}
	foldGroup := func(op ir.Op, ids []ir.VId) ir.VId {
		acc := ids[0]
		for _, id := range ids[1:] {
			acc = foldPair(op, acc, id)
		}
		return acc
	}

	remap := func(inst ir.Inst) ir.Inst {
		out := inst
		for k := 0; k < inst.Op.Arity(); k++ {
			out.Args[k] = translate.Get(int(inst.Args[k]))
		}
		return out
	}

	for i, inst := range p.Insts {
		v := ir.VId(i)
		if absorbable(v) {
			continue
		}

		var newV ir.VId
		if inst.Op.IsAssociative() {
			leaves := collectChain(v)
			// Ascending VId order within each group stabilizes GVN:
			// walk collects leaves in tree-traversal order, which
			// depends on how the chain happens to be shaped rather
			// than on the leaves' original numbering.
			sort.Slice(leaves, func(i, j int) bool { return leaves[i] < leaves[j] })
			groups := [4][]ir.VId{}
			for _, leaf := range leaves {
				tag := tags.Get(int(leaf))
				groups[tagIndex(tag)] = append(groups[tagIndex(tag)], translate.Get(int(leaf)))
			}
			var partials []ir.VId
			for _, g := range groups {
				if len(g) > 0 {
					partials = append(partials, foldGroup(inst.Op, g))
				}
			}
			newV = foldGroup(inst.Op, partials)
		} else {
			newV = b.Push(remap(inst))
		}
		translate.Set(i, newV)
	}

	result := ir.NoVId
	if p.Result.Valid() {
		result = translate.Get(int(p.Result))
	}
	return b.Finish(result)
}

// tagIndex fixes the combination order groups are folded back together
// in: X-only, then Y-only, then constants, then mixed XY last.
func tagIndex(t ir.Tag) int {
	switch t {
	case ir.TagX:
		return 0
	case ir.TagY:
		return 1
	case ir.TagC:
		return 2
	default:
		return 3
	}
}
