package x86

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xyproto/sdfc/ir"
	"github.com/xyproto/sdfc/regalloc"
)

func parseOrFatal(t *testing.T, text string) *ir.Program {
	t.Helper()
	p, err := ir.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

// circle is sqrt(x*x + y*y) - 1, the textbook implicit unit circle.
const circle = `` +
	"0 var-x\n" +
	"1 var-y\n" +
	"2 mul 0 0\n" +
	"3 mul 1 1\n" +
	"4 add 2 3\n" +
	"5 sqrt 4\n" +
	"6 const 1\n" +
	"7 sub 5 6\n"

func TestWriteMemoizedScalarProducesThreeFunctions(t *testing.T) {
	p := parseOrFatal(t, circle)
	var buf bytes.Buffer
	if err := Write(&buf, p, Options{Memoize: true, Sink: regalloc.SinkNone}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, sym := range []string{".globl x\n", ".globl y\n", ".globl xy\n", ".globl x_size\n", ".globl stride\n"} {
		if !strings.Contains(out, sym) {
			t.Errorf("output missing %q", sym)
		}
	}
	if !strings.Contains(out, "vsqrtss") {
		t.Errorf("output missing scalar sqrt instruction for OpSqrt")
	}
	if strings.Contains(out, "vsqrtps") {
		t.Errorf("scalar-mode output should not contain a packed instruction")
	}
}

func TestWriteNonMemoizedFusesIntoXY(t *testing.T) {
	p := parseOrFatal(t, circle)
	var buf bytes.Buffer
	if err := Write(&buf, p, Options{Memoize: false, Sink: regalloc.SinkNone}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "x_size: .short 1") {
		t.Errorf("non-memoized x_size should degenerate to 1, got:\n%s", out)
	}
	if !strings.Contains(out, "y_size: .short 1") {
		t.Errorf("non-memoized y_size should degenerate to 1, got:\n%s", out)
	}
}

func TestWriteVectorUsesPackedMnemonics(t *testing.T) {
	p := parseOrFatal(t, circle)
	var buf bytes.Buffer
	if err := Write(&buf, p, Options{Memoize: true, Vector: true, Sink: regalloc.SinkNone}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "vsqrtps") {
		t.Errorf("vector-mode output missing packed sqrt instruction")
	}
	if !strings.Contains(out, "stride: .short 4") {
		t.Errorf("vector-mode output should report stride 4")
	}
}

func TestWriteNegEmitsSharedSignMask(t *testing.T) {
	p := parseOrFatal(t, "0 var-x\n1 neg 0\n")
	var buf bytes.Buffer
	if err := Write(&buf, p, Options{Memoize: false, Sink: regalloc.SinkNone}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "vxorps") {
		t.Errorf("Neg lowering should use vxorps against the pool sign mask")
	}
	if !strings.Contains(out, ".align 16") {
		t.Errorf("constant pool must be 16-byte aligned for the xorps operand")
	}
}

func TestOptionsNumRegsClampsToNumRegs(t *testing.T) {
	over := Options{NumRegs: NumRegs + 5}
	if got := over.numRegs(); got != NumRegs {
		t.Errorf("numRegs() = %d, want %d (clamped)", got, NumRegs)
	}
	zero := Options{}
	if got := zero.numRegs(); got != NumRegs {
		t.Errorf("numRegs() with zero override = %d, want default %d", got, NumRegs)
	}
	custom := Options{NumRegs: 4}
	if got := custom.numRegs(); got != 4 {
		t.Errorf("numRegs() = %d, want 4", got)
	}
}
