package passes

import (
	"testing"

	"github.com/xyproto/sdfc/ir"
)

// TestReassociateGroupsByTag is spec scenario S5: (x + y) + (x*y) should
// regroup so the two single-variable leaves combine before the mixed
// term is folded in last.
func TestReassociateGroupsByTag(t *testing.T) {
	p := parseOrFatal(t, "0 var-x\n1 var-y\n2 mul 0 1\n3 add 0 1\n4 add 3 2\n")
	got := Reassociate(p)
	got.CheckInvariants()

	if !got.Result.Valid() {
		t.Fatal("no result")
	}
	root := got.Inst(got.Result)
	if root.Op != ir.OpAdd {
		t.Fatalf("result op = %s, want add", root.Op)
	}

	tags := ir.Classify(got)
	rhsTag := tags.Get(int(root.Args[1]))
	if rhsTag != ir.TagXY {
		t.Errorf("rightmost operand of the rebuilt chain has tag %s, want xy (mixed term last)", rhsTag)
	}

	for _, pt := range [][2]float32{{1, 2}, {-1, 3}, {0.5, 0.5}} {
		want := ir.EvalScalar(p, pt[0], pt[1])
		have := ir.EvalScalar(got, pt[0], pt[1])
		if want != have {
			t.Errorf("EvalScalar(%v) = %v, want %v", pt, have, want)
		}
	}
}

// TestReassociateOrdersGroupByAscendingVId is the interleaved
// absorbed-plus-direct-leaf shape spec §4.2's tie-break rule covers:
// four same-tag leaves reach the chain root through a mix of a direct
// operand and a nested absorbable sub-chain, so a plain tree-order walk
// visits them in an order that disagrees with their VId numbering. The
// leaf whose VId sorts last (v4, sqrt(sqrt(x))) must end up as the
// chain's outermost fold partner, not whichever leaf the walk happened
// to visit last.
func TestReassociateOrdersGroupByAscendingVId(t *testing.T) {
	p := parseOrFatal(t, "0 var-x\n1 sqrt 0\n2 square 0\n3 neg 0\n4 sqrt 1\n5 add 1 2\n6 add 5 3\n7 add 4 6\n")
	got := Reassociate(p)
	got.CheckInvariants()

	// v4 (sqrt of sqrt(x)) is the only leaf whose own operand is itself
	// a Sqrt, so it's identifiable by shape after translation.
	isDoubleSqrt := func(v ir.VId) bool {
		inst := got.Inst(v)
		if inst.Op != ir.OpSqrt {
			return false
		}
		return got.Inst(inst.Args[0]).Op == ir.OpSqrt
	}

	var leafV4 ir.VId = ir.NoVId
	for i := 0; i < got.Len(); i++ {
		if isDoubleSqrt(ir.VId(i)) {
			leafV4 = ir.VId(i)
			break
		}
	}
	if !leafV4.Valid() {
		t.Fatal("could not find the translated sqrt(sqrt(x)) leaf in the rebuilt program")
	}

	root := got.Inst(got.Result)
	if root.Args[0] != leafV4 && root.Args[1] != leafV4 {
		t.Errorf("sqrt(sqrt(x)) (highest original VId in its group) is not the chain's outermost operand; "+
			"root args = %v, want one of them to be v%d (ascending-VId tie-break violated)", root.Args, leafV4)
	}
}

func TestReassociateSingleUseChainDrops(t *testing.T) {
	// A chain of three Adds over four leaves should collapse to those
	// leaves without leaving the
	// original intermediate Add instructions dangling.
	p := parseOrFatal(t, "0 var-x\n1 const 1\n2 const 2\n3 const 3\n4 add 0 1\n5 add 4 2\n6 add 5 3\n")
	got := Reassociate(p)
	got.CheckInvariants()

	want := ir.EvalScalar(p, 5, 0)
	have := ir.EvalScalar(got, 5, 0)
	if want != have {
		t.Errorf("EvalScalar = %v, want %v", have, want)
	}
}
