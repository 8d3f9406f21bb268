// Command memoize splits an IR program into its X/Y/XY bundle, per
// spec §6's pipeline-stage CLI surface. Each subprogram is written out
// in the ordinary IR text format under a '#' comment header naming it,
// so the output stays readable by print/simplify/etc. one section at a
// time even though it isn't itself a single valid program.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/xyproto/sdfc/ir"
	"github.com/xyproto/sdfc/passes"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		fmt.Fprintln(os.Stderr, "usage: memoize [file]")
		os.Exit(0)
	}

	in, err := openInput(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "memoize:", err)
		os.Exit(1)
	}
	defer in.Close()

	if err := run(in, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "memoize:", err)
		os.Exit(1)
	}
}

func run(r io.Reader, w io.Writer) (err error) {
	defer ir.Recover(&err)

	p, err := ir.Parse(r)
	if err != nil {
		return err
	}
	bundle := passes.Memoize(p)

	sections := []struct {
		name string
		p    *ir.Program
	}{
		{"x", bundle.X},
		{"y", bundle.Y},
		{"xy", bundle.XY},
	}
	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "# %s\n", s.name); err != nil {
			return err
		}
		if err := ir.Write(w, s.p); err != nil {
			return err
		}
	}
	return nil
}

func openInput(args []string) (*os.File, error) {
	if len(args) == 0 {
		return os.Stdin, nil
	}
	return os.Open(args[0])
}
