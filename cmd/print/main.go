// Command print parses IR text and writes it back out unchanged, the
// identity member of spec §6's pipeline-stage CLI surface. It exists so
// a hand-written or generated program can be checked for well-formedness
// without running any pass.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/xyproto/sdfc/ir"
)

func main() {
	flagUsage := func() {
		fmt.Fprintf(os.Stderr, "usage: print [file]\n\nReads IR text from file (or stdin) and writes it back out, verifying\nit parses and its invariants hold.\n")
	}
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		flagUsage()
		os.Exit(0)
	}

	in, err := openInput(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "print:", err)
		os.Exit(1)
	}
	defer in.Close()

	if err := run(in, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "print:", err)
		os.Exit(1)
	}
}

func run(r io.Reader, w io.Writer) (err error) {
	defer ir.Recover(&err)

	p, err := ir.Parse(r)
	if err != nil {
		return err
	}
	p.CheckInvariants()
	return ir.Write(w, p)
}

func openInput(args []string) (*os.File, error) {
	if len(args) == 0 {
		return os.Stdin, nil
	}
	return os.Open(args[0])
}
