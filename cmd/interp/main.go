// Command interp rasterizes an IR program with the reference
// interpreter instead of compiled machine code, per spec §6's
// pipeline-stage CLI surface and the harness's own pixel-to-coordinate
// contract. It's the ground truth the render/x86 pipeline is checked
// against.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/xyproto/sdfc/internal/envcfg"
	"github.com/xyproto/sdfc/internal/pbm"
	"github.com/xyproto/sdfc/internal/watch"
	"github.com/xyproto/sdfc/ir"
)

func main() {
	sizeFlag := flag.Int("size", 512, "output image width and height in pixels")
	outFlag := flag.String("out", "", "output PBM path (defaults to stdout; required with --watch)")
	watchFlag := flag.Bool("watch", false, "recompile the input file's rasterization on every write")
	flag.Parse()

	args := flag.Args()
	if *watchFlag && (len(args) == 0 || *outFlag == "") {
		fmt.Fprintln(os.Stderr, "interp: --watch requires an input file argument and --out")
		os.Exit(1)
	}

	render := func(path string) error {
		p, err := loadProgram(path)
		if err != nil {
			return err
		}
		return renderTo(p, *sizeFlag, *outFlag)
	}

	inputPath := ""
	if len(args) > 0 {
		inputPath = args[0]
	}

	if err := render(inputPath); err != nil {
		fmt.Fprintln(os.Stderr, "interp:", err)
		os.Exit(1)
	}

	if !*watchFlag {
		return
	}

	debounce := time.Duration(envcfg.WatchDebounce(500)) * time.Millisecond
	w, err := watch.New(inputPath, debounce, func(path string) {
		if err := render(path); err != nil {
			fmt.Fprintln(os.Stderr, "interp:", err)
			return
		}
		fmt.Fprintf(os.Stderr, "interp: re-rendered %s\n", *outFlag)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "interp:", err)
		os.Exit(1)
	}
	defer w.Close()
	w.Run()
}

func loadProgram(path string) (p *ir.Program, err error) {
	defer ir.Recover(&err)

	f := os.Stdin
	if path != "" {
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
	}
	p, err = ir.Parse(f)
	if err != nil {
		return nil, err
	}
	p.CheckInvariants()
	return p, nil
}

func renderTo(p *ir.Program, size int, outPath string) (err error) {
	defer ir.Recover(&err)

	out := os.Stdout
	if outPath != "" {
		f, ferr := os.Create(outPath)
		if ferr != nil {
			return ferr
		}
		defer f.Close()
		out = f
	}

	return pbm.WriteP4(out, size, func(x, y float32) bool {
		return ir.EvalScalar(p, x, y) >= 0
	})
}
