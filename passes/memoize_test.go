package passes

import (
	"testing"

	"github.com/xyproto/sdfc/ir"
)

// TestMemoizeSimpleAdd is spec scenario S1.
func TestMemoizeSimpleAdd(t *testing.T) {
	p := parseOrFatal(t, "0 var-x\n1 var-y\n2 add 0 1\n")
	bundle := Memoize(p)
	bundle.X.CheckInvariants()
	bundle.Y.CheckInvariants()
	bundle.XY.CheckInvariants()

	if got := len(bundle.X.OutSlots()); got != 1 {
		t.Fatalf("X writes %d slots, want 1", got)
	}
	if got := len(bundle.Y.OutSlots()); got != 1 {
		t.Fatalf("Y writes %d slots, want 1", got)
	}
	if bundle.XSize() != 2 || bundle.YSize() != 2 {
		t.Errorf("XSize/YSize = %d/%d, want 2/2", bundle.XSize(), bundle.YSize())
	}

	foundAdd := false
	for _, inst := range bundle.XY.Insts {
		if inst.Op == ir.OpAdd {
			foundAdd = true
		}
	}
	if !foundAdd {
		t.Error("XY has no add instruction")
	}
	if got := len(bundle.XY.OutSlots()); got != 1 || bundle.XY.OutSlots()[0] != 0 {
		t.Errorf("XY.OutSlots() = %v, want [0]", bundle.XY.OutSlots())
	}
}

// runBundle emulates the harness protocol: run X and Y with their raw
// input pre-filled at buffer offset 0, collect their Stores, feed those
// into XY's Loads, and return XY's slot-0 output.
func runBundle(t *testing.T, bundle *Bundle, x, y float32) float32 {
	t.Helper()

	xRegs, xStores := ir.Eval(bundle.X, x, 0, nil)
	_ = xRegs
	yRegs, yStores := ir.Eval(bundle.Y, 0, y, nil)
	_ = yRegs

	loads := make(map[uint32]float32, len(xStores)+len(yStores))
	for slot, v := range xStores {
		loads[slot] = v
	}
	for slot, v := range yStores {
		loads[slot] = v
	}

	_, xyStores := ir.Eval(bundle.XY, 0, 0, loads)
	out, ok := xyStores[0]
	if !ok {
		t.Fatal("XY produced no slot-0 store")
	}
	return out
}

func TestMemoizeRoundtrip(t *testing.T) {
	p := parseOrFatal(t, "0 var-x\n1 var-y\n2 mul 0 1\n3 const 2\n4 mul 2 3\n5 add 0 4\n")
	bundle := Memoize(p)
	bundle.X.CheckInvariants()
	bundle.Y.CheckInvariants()
	bundle.XY.CheckInvariants()

	for _, pt := range [][2]float32{{1, 2}, {-3, 0.5}, {0, 0}, {4, -2}} {
		want := ir.EvalScalar(p, pt[0], pt[1])
		have := runBundle(t, bundle, pt[0], pt[1])
		if want != have {
			t.Errorf("(%v,%v): got %v, want %v", pt[0], pt[1], have, want)
		}
	}
}

func TestMemoizeDegenerateXOnly(t *testing.T) {
	// A program that never touches var-y should still produce a valid
	// bundle: Y is trivial, XY just loads X's result and stores it.
	p := parseOrFatal(t, "0 var-x\n1 square 0\n")
	bundle := Memoize(p)
	bundle.X.CheckInvariants()
	bundle.Y.CheckInvariants()
	bundle.XY.CheckInvariants()

	for _, pt := range [][2]float32{{3, 0}, {-2, 100}} {
		want := ir.EvalScalar(p, pt[0], pt[1])
		have := runBundle(t, bundle, pt[0], pt[1])
		if want != have {
			t.Errorf("(%v,%v): got %v, want %v", pt[0], pt[1], have, want)
		}
	}
}

func TestMemoizeSlotOffsetsAreDense(t *testing.T) {
	p := parseOrFatal(t, "0 var-x\n1 var-y\n2 square 0\n3 square 1\n4 mul 2 3\n")
	bundle := Memoize(p)
	for _, slot := range bundle.X.OutSlots() {
		if off := bundle.XOffset(slot); off < 1 || off >= bundle.XSize() {
			t.Errorf("XOffset(%d) = %d out of [1,%d)", slot, off, bundle.XSize())
		}
	}
	for _, slot := range bundle.Y.OutSlots() {
		if off := bundle.YOffset(slot); off < 1 || off >= bundle.YSize() {
			t.Errorf("YOffset(%d) = %d out of [1,%d)", slot, off, bundle.YSize())
		}
	}
}
