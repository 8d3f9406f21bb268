// Command simplify runs the GVN/hash-consing pass over an IR program,
// per spec §6's pipeline-stage CLI surface.
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
		fmt.Fprintln(os.Stderr, "usage: simplify [file]")
		os.Exit(0)
	}

	in, err := openInput(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "simplify:", err)
		os.Exit(1)
	}
	defer in.Close()

	if err := run(in, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "simplify:", err)
		os.Exit(1)
	}
}

func run(r io.Reader, w io.Writer) (err error) {
	defer ir.Recover(&err)

	p, err := ir.Parse(r)
	if err != nil {
		return err
	}
	return ir.Write(w, passes.Simplify(p))
}

func openInput(args []string) (*os.File, error) {
	if len(args) == 0 {
		return os.Stdin, nil
	}
	return os.Open(args[0])
}
