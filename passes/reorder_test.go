package passes

import (
	"testing"

	"github.com/xyproto/sdfc/ir"
)

func TestReorderFixesInvariant(t *testing.T) {
	// Hand-built out of SSA order: instruction 0 references 1, which is
	// only valid because Reorder performs a fresh topological walk from
	// the roots rather than trusting input order.
	b := ir.NewBuilder(3)
	b.Push(ir.BinOpInst(ir.OpAdd, 1, 1)) // v0: add v1 v1 (forward reference, deliberately malformed)
	b.Push(ir.Inst{Op: ir.OpVarX, Args: [2]ir.VId{ir.NoVId, ir.NoVId}})
	malformed := b.Finish(0)

	got := Reorder(malformed)
	got.CheckInvariants() // must not panic now
	if got.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", got.Len())
	}
	if got.Insts[0].Op != ir.OpVarX {
		t.Errorf("inst 0 = %s, want var-x (definitions must sort before their use)", got.Insts[0].Op)
	}
}

func TestReorderDropsUnreachable(t *testing.T) {
	p := parseOrFatal(t, "0 var-x\n1 var-y\n2 add 0 0\n")
	// Result is v2, which only depends on v0; v1 (var-y) is unreachable.
	got := Reorder(p)
	if got.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (var-y is dead)", got.Len())
	}
}

func TestReorderKeepsStores(t *testing.T) {
	p := parseOrFatal(t, "0 var-x\n1 var-y\n2 store 0 0\n3 store 1 1\n")
	got := Reorder(p)
	stores := 0
	for _, inst := range got.Insts {
		if inst.Op == ir.OpStore {
			stores++
		}
	}
	if stores != 2 {
		t.Errorf("found %d Store instructions, want 2", stores)
	}
}
