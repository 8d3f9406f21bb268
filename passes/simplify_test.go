package passes

import (
	"strings"
	"testing"

	"github.com/xyproto/sdfc/ir"
)

func parseOrFatal(t *testing.T, text string) *ir.Program {
	t.Helper()
	p, err := ir.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

// TestSimplifyDoubleNegation is spec scenario S2.
func TestSimplifyDoubleNegation(t *testing.T) {
	p := parseOrFatal(t, "0 var-x\n1 neg 0\n2 neg 1\n3 add 2 0\n")
	got := Simplify(p)
	got.CheckInvariants()

	if got.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (double negation eliminated)", got.Len())
	}
	if got.Insts[0].Op != ir.OpVarX {
		t.Errorf("inst 0 = %s, want var-x", got.Insts[0].Op)
	}
	if got.Insts[1].Op != ir.OpAdd || got.Insts[1].Args[0] != 0 || got.Insts[1].Args[1] != 0 {
		t.Errorf("inst 1 = %+v, want add 0 0", got.Insts[1])
	}
}

// TestSimplifyNegBeforeSquare is spec scenario S3.
func TestSimplifyNegBeforeSquare(t *testing.T) {
	p := parseOrFatal(t, "0 var-x\n1 var-y\n2 mul 0 1\n3 neg 2\n4 square 3\n")
	got := Simplify(p)
	got.CheckInvariants()

	if got.Len() != 4 {
		t.Fatalf("Len() = %d, want 4 (neg-before-square removed)", got.Len())
	}
	if got.Insts[3].Op != ir.OpSquare || got.Insts[3].Args[0] != 2 {
		t.Errorf("inst 3 = %+v, want square 2", got.Insts[3])
	}
}

// TestSimplifySubReversal is spec scenario S4.
func TestSimplifySubReversal(t *testing.T) {
	p := parseOrFatal(t, "0 var-x\n1 var-y\n2 sub 0 1\n3 sub 1 0\n")
	got := Simplify(p)
	got.CheckInvariants()

	if got.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", got.Len())
	}
	if got.Insts[3].Op != ir.OpNeg || got.Insts[3].Args[0] != 2 {
		t.Errorf("inst 3 = %+v, want neg 2", got.Insts[3])
	}
}

func TestSimplifyCanonicalOrdering(t *testing.T) {
	// v1 (var-x) has a larger VId than v0 (var-y), and add lists v1
	// first; it should still end up with the smaller VId first
	// regardless of source order.
	p := parseOrFatal(t, "0 var-y\n1 var-x\n2 add 1 0\n")
	got := Simplify(p)
	for _, inst := range got.Insts {
		if inst.Op.IsCommutative() && inst.Args[0] > inst.Args[1] {
			t.Errorf("commutative inst %+v not in canonical order", inst)
		}
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	p := parseOrFatal(t, "0 var-x\n1 var-y\n2 neg 0\n3 neg 2\n4 mul 3 1\n5 neg 4\n")
	once := Simplify(p)
	twice := Simplify(once)
	if once.Len() != twice.Len() {
		t.Fatalf("Simplify not idempotent: len %d vs %d", once.Len(), twice.Len())
	}
	for i := range once.Insts {
		if once.Insts[i] != twice.Insts[i] {
			t.Errorf("inst %d differs: %+v vs %+v", i, once.Insts[i], twice.Insts[i])
		}
	}
}

func TestSimplifyInterpreterEquivalence(t *testing.T) {
	p := parseOrFatal(t, "0 var-x\n1 var-y\n2 neg 0\n3 neg 2\n4 add 3 0\n5 sub 1 4\n6 mul 5 1\n")
	got := Simplify(p)
	got.CheckInvariants()
	for _, pt := range [][2]float32{{1, 2}, {-3, 0.5}, {0, 0}, {2.25, -7}} {
		want := ir.EvalScalar(p, pt[0], pt[1])
		have := ir.EvalScalar(got, pt[0], pt[1])
		if want != have {
			t.Errorf("EvalScalar(%v) = %v, want %v", pt, have, want)
		}
	}
}
