// Command render is the supplemental end-to-end pipeline stage: it
// compiles an IR program to x86 assembly, assembles and links it
// against the rasterization harness, runs the result, and streams the
// PBM image it prints. This is what exercises the emitted machine code
// rather than just the reference interpreter.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/xyproto/sdfc/codegen/x86"
	"github.com/xyproto/sdfc/internal/envcfg"
	"github.com/xyproto/sdfc/internal/harness"
	"github.com/xyproto/sdfc/ir"
	"github.com/xyproto/sdfc/regalloc"
)

func main() {
	sizeFlag := flag.Int("size", 512, "output image width and height in pixels")
	memoizeFlag := flag.String("memoize", "yes", "split the program into a memoized X/Y/XY bundle: yes or no")
	vectorFlag := flag.String("vector", yesNo(envcfg.Vector(false)), "emit 4-wide AVX instructions instead of scalar: yes or no")
	sinkFlag := flag.String("sink-loads", envcfg.SinkLoads("none"), "load-sinking policy: none, all, prefer-dead, require-dead, spill-any")
	registersFlag := flag.Int("registers", envcfg.Registers(x86.NumRegs), "number of xmm registers the allocator may use")
	flag.Parse()

	opts, err := parseOptions(*memoizeFlag, *vectorFlag, *sinkFlag, *registersFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "render:", err)
		os.Exit(1)
	}

	args := flag.Args()
	in := os.Stdin
	if len(args) > 0 {
		in, err = os.Open(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "render:", err)
			os.Exit(1)
		}
		defer in.Close()
	}

	asm, err := compile(in, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "render:", err)
		os.Exit(1)
	}

	if err := harness.Run(asm, *sizeFlag, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "render:", err)
		os.Exit(1)
	}
}

func parseOptions(memoize, vector, sink string, registers int) (x86.Options, error) {
	var opts x86.Options

	switch memoize {
	case "yes":
		opts.Memoize = true
	case "no":
		opts.Memoize = false
	default:
		return opts, &ir.ConfigError{Message: fmt.Sprintf("--memoize must be yes or no, got %q", memoize)}
	}

	switch vector {
	case "yes":
		opts.Vector = true
	case "no":
		opts.Vector = false
	default:
		return opts, &ir.ConfigError{Message: fmt.Sprintf("--vector must be yes or no, got %q", vector)}
	}

	policy, ok := regalloc.ParseSinkPolicy(sink)
	if !ok {
		return opts, &ir.ConfigError{Message: fmt.Sprintf("--sink-loads must be one of none, all, prefer-dead, require-dead, spill-any, got %q", sink)}
	}
	if !opts.Vector && policy != regalloc.SinkNone {
		return opts, &ir.ConfigError{Message: "--sink-loads other than none requires --vector yes"}
	}
	opts.Sink = policy

	if registers <= 0 {
		return opts, &ir.ConfigError{Message: fmt.Sprintf("--registers must be positive, got %d", registers)}
	}
	opts.NumRegs = registers

	return opts, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func compile(in *os.File, opts x86.Options) (asm string, err error) {
	defer ir.Recover(&err)

	p, err := ir.Parse(in)
	if err != nil {
		return "", err
	}
	p.CheckInvariants()

	var buf bytes.Buffer
	if err := x86.Write(&buf, p, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}
