package pbm

import (
	"bytes"
	"testing"
)

func TestWriteP4Header(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteP4(&buf, 8, func(x, y float32) bool { return false }); err != nil {
		t.Fatalf("WriteP4: %v", err)
	}
	want := "P4\n8 8\n"
	if got := buf.String()[:len(want)]; got != want {
		t.Errorf("header = %q, want %q", got, want)
	}
}

func TestWriteP4AllSetRow(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteP4(&buf, 8, func(x, y float32) bool { return true }); err != nil {
		t.Fatalf("WriteP4: %v", err)
	}
	body := buf.Bytes()[len("P4\n8 8\n"):]
	if len(body) != 8 {
		t.Fatalf("body length = %d, want 8 (one byte per row)", len(body))
	}
	for i, b := range body {
		if b != 0xff {
			t.Errorf("row %d = %#x, want 0xff", i, b)
		}
	}
}

func TestWriteP4CoordinateMapping(t *testing.T) {
	// A disc centered at the origin: bit set inside the unit circle.
	// The corner pixels of an odd-sized image map exactly to (+-1, +-1),
	// well outside the disc, so the corner bits must be clear.
	const size = 9
	var buf bytes.Buffer
	err := WriteP4(&buf, size, func(x, y float32) bool {
		return x*x+y*y <= 1
	})
	if err != nil {
		t.Fatalf("WriteP4: %v", err)
	}
	rowBytes := (size + 7) / 8
	body := buf.Bytes()[len("P4\n9 9\n"):]
	if len(body) != rowBytes*size {
		t.Fatalf("body length = %d, want %d", len(body), rowBytes*size)
	}
	topLeft := body[0]&0x80 != 0
	if topLeft {
		t.Errorf("corner pixel (mapped to (-1,1)) should be outside the unit disc")
	}
	center := body[4*rowBytes]&(0x80>>4) != 0
	if !center {
		t.Errorf("center pixel (mapped to (0,0)) should be inside the unit disc")
	}
}

func TestWriteP4RejectsNonPositiveSize(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteP4(&buf, 0, func(x, y float32) bool { return true }); err == nil {
		t.Errorf("expected an error for size 0")
	}
}
