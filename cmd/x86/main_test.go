package main

import (
	"testing"

	"github.com/xyproto/sdfc/regalloc"
)

func TestParseOptionsDefaults(t *testing.T) {
	opts, err := parseOptions("yes", "no", "none", 8)
	if err != nil {
		t.Fatalf("parseOptions: %v", err)
	}
	if !opts.Memoize || opts.Vector || opts.Sink != regalloc.SinkNone || opts.NumRegs != 8 {
		t.Errorf("opts = %+v, want memoized scalar SinkNone with 8 registers", opts)
	}
}

func TestParseOptionsRejectsSinkWithoutVector(t *testing.T) {
	if _, err := parseOptions("yes", "no", "all", 8); err == nil {
		t.Errorf("expected a ConfigError for --sink-loads all with --vector no")
	}
}

func TestParseOptionsRejectsUnknownSink(t *testing.T) {
	if _, err := parseOptions("yes", "yes", "bogus", 8); err == nil {
		t.Errorf("expected a ConfigError for an unknown --sink-loads value")
	}
}

func TestParseOptionsRejectsNonPositiveRegisters(t *testing.T) {
	if _, err := parseOptions("yes", "no", "none", 0); err == nil {
		t.Errorf("expected a ConfigError for --registers 0")
	}
}

func TestYesNo(t *testing.T) {
	if yesNo(true) != "yes" || yesNo(false) != "no" {
		t.Errorf("yesNo mismatched expected string forms")
	}
}
