package passes

import "github.com/xyproto/sdfc/ir"

// Reorder renumbers p via a post-order depth-first walk from its roots
// (every Store instruction, plus the designated result if any),
// guaranteeing the operand-precedes-use invariant regardless of what
// order an upstream pass left instructions in. Per spec §4.5 it is a
// correctness safety net, not something Simplify/Reassociate/Memoize
// need when they already maintain the invariant themselves; a value
// unreachable from any root is silently dropped, since nothing else in
// the program could ever observe it.
func Reorder(p *ir.Program) *ir.Program {
	n := p.Len()
	visited := make([]bool, n)
	translated := make([]ir.VId, n)
	b := ir.NewBuilder(n)

	var visit func(v ir.VId) ir.VId
	visit = func(v ir.VId) ir.VId {
		if visited[v] {
			return translated[v]
		}
		visited[v] = true
		newInst := p.Inst(v)
		for k := 0; k < newInst.Op.Arity(); k++ {
			newInst.Args[k] = visit(newInst.Args[k])
		}
		nv := b.Push(newInst)
		translated[v] = nv
		return nv
	}

	for i, inst := range p.Insts {
		if inst.Op == ir.OpStore {
			visit(ir.VId(i))
		}
	}

	result := ir.NoVId
	if p.Result.Valid() {
		result = visit(p.Result)
	}
	return b.Finish(result)
}
