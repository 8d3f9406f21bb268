// Command x86 lowers an IR program to GNU-assembler text for System-V
// AMD64, per spec §6's pipeline-stage CLI surface. Its output is what
// cmd/render assembles, links, and runs.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/xyproto/sdfc/codegen/x86"
	"github.com/xyproto/sdfc/internal/envcfg"
	"github.com/xyproto/sdfc/internal/watch"
	"github.com/xyproto/sdfc/ir"
	"github.com/xyproto/sdfc/regalloc"
)

func main() {
	memoizeFlag := flag.String("memoize", "yes", "split the program into a memoized X/Y/XY bundle: yes or no")
	vectorFlag := flag.String("vector", yesNo(envcfg.Vector(false)), "emit 4-wide AVX instructions instead of scalar: yes or no")
	sinkFlag := flag.String("sink-loads", envcfg.SinkLoads("none"), "load-sinking policy: none, all, prefer-dead, require-dead, spill-any")
	registersFlag := flag.Int("registers", envcfg.Registers(x86.NumRegs), "number of xmm registers the allocator may use")
	watchFlag := flag.Bool("watch", false, "recompile the input file's assembly on every write")
	outFlag := flag.String("out", "", "output assembly path (defaults to stdout; required with --watch)")
	flag.Parse()

	opts, err := parseOptions(*memoizeFlag, *vectorFlag, *sinkFlag, *registersFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "x86:", err)
		os.Exit(1)
	}

	args := flag.Args()
	if *watchFlag && (len(args) == 0 || *outFlag == "") {
		fmt.Fprintln(os.Stderr, "x86: --watch requires an input file argument and --out")
		os.Exit(1)
	}

	inputPath := ""
	if len(args) > 0 {
		inputPath = args[0]
	}

	compile := func(path string) error {
		return compileTo(path, opts, *outFlag)
	}

	if err := compile(inputPath); err != nil {
		fmt.Fprintln(os.Stderr, "x86:", err)
		os.Exit(1)
	}

	if !*watchFlag {
		return
	}

	debounce := time.Duration(envcfg.WatchDebounce(500)) * time.Millisecond
	w, err := watch.New(inputPath, debounce, func(path string) {
		if err := compile(path); err != nil {
			fmt.Fprintln(os.Stderr, "x86:", err)
			return
		}
		fmt.Fprintf(os.Stderr, "x86: recompiled %s\n", *outFlag)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "x86:", err)
		os.Exit(1)
	}
	defer w.Close()
	w.Run()
}

// parseOptions rejects unknown or contradictory flag values before any
// input is even read, per spec §7's ConfigError category. Scalar mode
// has no memory-operand form for a sunk load's destination width to
// widen into, so a non-none sink policy without --vector is rejected
// rather than silently downgraded to SinkNone.
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

func compileTo(inputPath string, opts x86.Options, outPath string) (err error) {
	defer ir.Recover(&err)

	in := os.Stdin
	if inputPath != "" {
		in, err = os.Open(inputPath)
		if err != nil {
			return err
		}
		defer in.Close()
	}

	p, err := ir.Parse(in)
	if err != nil {
		return err
	}
	p.CheckInvariants()

	out := os.Stdout
	if outPath != "" {
		f, ferr := os.Create(outPath)
		if ferr != nil {
			return ferr
		}
		defer f.Close()
		out = f
	}

	return x86.Write(out, p, opts)
}
