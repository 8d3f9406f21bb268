package ir

import (
	"bytes"
	"strings"
	"testing"
)

func mustParse(t *testing.T, text string) *Program {
	t.Helper()
	p, err := Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func TestParseRoundTrip(t *testing.T) {
	src := "0 var-x\n1 var-y\n2 add 0 1\n"
	p := mustParse(t, src)
	if p.Len() != 3 || p.Result != 2 {
		t.Fatalf("unexpected program: len=%d result=%d", p.Len(), p.Result)
	}

	var buf bytes.Buffer
	if err := Write(&buf, p); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "v0 var-x\nv1 var-y\nv2 add v0 v1\n"
	if buf.String() != want {
		t.Errorf("Write output = %q, want %q", buf.String(), want)
	}
}

func TestParseComments(t *testing.T) {
	src := "# a comment\n\n0 var-x\n# another\n1 const 2.5\n2 add 0 1\n"
	p := mustParse(t, src)
	if p.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", p.Len())
	}
}

func TestParseForwardReferenceRejected(t *testing.T) {
	_, err := Parse(strings.NewReader("0 add 1 1\n1 var-x\n"))
	if err == nil {
		t.Fatal("expected error for forward reference, got nil")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("error type = %T, want *ParseError", err)
	}
}

func TestParseRedefinitionRejected(t *testing.T) {
	_, err := Parse(strings.NewReader("0 var-x\n0 var-y\n"))
	if err == nil {
		t.Fatal("expected error for redefined name, got nil")
	}
}

func TestParseUnknownOpcode(t *testing.T) {
	_, err := Parse(strings.NewReader("0 frobnicate\n"))
	if err == nil {
		t.Fatal("expected error for unknown opcode, got nil")
	}
}

func TestParseResultSkipsStore(t *testing.T) {
	p := mustParse(t, "0 var-x\n1 store 0 0\n")
	if p.Result != 0 {
		t.Errorf("Result = %d, want 0 (Store has no result)", p.Result)
	}
}
