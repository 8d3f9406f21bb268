package ir

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ParseError reports malformed IR text: wrong arity, an unknown opcode,
// a reference to a name that was never defined, or a name redefined by
// a later line. Per spec §7 this is fatal for whichever CLI stage reads
// it, but is an ordinary error value here, not a panic — parse failures
// are expected input-shaped problems, not compiler bugs.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Parse reads the line-oriented IR text format described in spec §6:
// one instruction per line, "<name> <opcode> <operands...>", blank lines
// and lines starting with '#' ignored. Names may be any token; forward
// references are rejected, matching the SSA-acyclicity invariant.
func Parse(r io.Reader) (*Program, error) {
	b := NewBuilder(64)
	names := make(map[string]VId)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	var lastDefined VId = NoVId

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, &ParseError{lineNo, "expected \"<name> <opcode> ...\""}
		}
		name, opName, rest := fields[0], fields[1], fields[2:]

		lookup := func(tok string) (VId, error) {
			v, ok := names[tok]
			if !ok {
				return NoVId, &ParseError{lineNo, fmt.Sprintf("argument uses undefined name %q", tok)}
			}
			return v, nil
		}

		var inst Inst
		var err error
		switch opName {
		case "const":
			if len(rest) != 1 {
				return nil, &ParseError{lineNo, "const takes exactly one value"}
			}
			f, perr := strconv.ParseFloat(rest[0], 32)
			if perr != nil {
				return nil, &ParseError{lineNo, fmt.Sprintf("invalid constant: %v", perr)}
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, &ParseError{lineNo, fmt.Sprintf("constant %q is not finite", rest[0])}
			}
			inst = ConstInst(float32(f))
		case "var-x":
			inst = Inst{Op: OpVarX, Args: [2]VId{NoVId, NoVId}}
		case "var-y":
			inst = Inst{Op: OpVarY, Args: [2]VId{NoVId, NoVId}}
		case "neg", "sqrt", "square":
			inst, err = parseUnOp(opName, rest, lookup)
		case "add", "sub", "mul", "min", "max":
			inst, err = parseBinOp(opName, rest, lookup)
		case "load":
			inst, err = parseLoad(rest)
		case "store":
			inst, err = parseStore(rest, lookup)
		default:
			return nil, &ParseError{lineNo, fmt.Sprintf("unknown instruction %q", opName)}
		}
		if err != nil {
			if _, ok := err.(*ParseError); !ok {
				err = &ParseError{lineNo, err.Error()}
			}
			return nil, err
		}

		for _, arg := range inst.Operands() {
			if arg.Valid() && int(arg) >= b.Len() {
				return nil, &ParseError{lineNo, fmt.Sprintf("operand v%d does not precede this instruction", arg)}
			}
		}

		if _, exists := names[name]; exists {
			return nil, &ParseError{lineNo, fmt.Sprintf("instruction redefines existing name %q", name)}
		}
		v := b.Push(inst)
		names[name] = v
		if inst.Op.HasResult() {
			lastDefined = v
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return b.Finish(lastDefined), nil
}

func parseUnOp(name string, rest []string, lookup func(string) (VId, error)) (Inst, error) {
	if len(rest) != 1 {
		return Inst{}, fmt.Errorf("%s takes exactly one argument", name)
	}
	arg, err := lookup(rest[0])
	if err != nil {
		return Inst{}, err
	}
	op := map[string]Op{"neg": OpNeg, "sqrt": OpSqrt, "square": OpSquare}[name]
	return UnOpInst(op, arg), nil
}

func parseBinOp(name string, rest []string, lookup func(string) (VId, error)) (Inst, error) {
	if len(rest) != 2 {
		return Inst{}, fmt.Errorf("%s takes exactly two arguments", name)
	}
	a, err := lookup(rest[0])
	if err != nil {
		return Inst{}, err
	}
	b, err := lookup(rest[1])
	if err != nil {
		return Inst{}, err
	}
	op := map[string]Op{"add": OpAdd, "sub": OpSub, "mul": OpMul, "min": OpMin, "max": OpMax}[name]
	return BinOpInst(op, a, b), nil
}

func parseLoad(rest []string) (Inst, error) {
	if len(rest) != 1 {
		return Inst{}, fmt.Errorf("load takes exactly one slot number")
	}
	slot, err := strconv.ParseUint(rest[0], 10, 32)
	if err != nil {
		return Inst{}, fmt.Errorf("invalid slot: %v", err)
	}
	return LoadInst(uint32(slot)), nil
}

func parseStore(rest []string, lookup func(string) (VId, error)) (Inst, error) {
	if len(rest) != 2 {
		return Inst{}, fmt.Errorf("store takes a slot number and a source value")
	}
	slot, err := strconv.ParseUint(rest[0], 10, 32)
	if err != nil {
		return Inst{}, fmt.Errorf("invalid slot: %v", err)
	}
	src, err := lookup(rest[1])
	if err != nil {
		return Inst{}, err
	}
	return StoreInst(uint32(slot), src), nil
}

// Write emits p in the same line-oriented text format Parse reads,
// naming every value "v<index>" so that output is stable and free of
// name-choice nondeterminism.
func Write(w io.Writer, p *Program) error {
	bw := bufio.NewWriter(w)
	for i, inst := range p.Insts {
		if _, err := fmt.Fprintf(bw, "v%d ", i); err != nil {
			return err
		}
		var err error
		switch inst.Op {
		case OpConst:
			_, err = fmt.Fprintf(bw, "const %v\n", inst.Const)
		case OpVarX:
			_, err = fmt.Fprintln(bw, "var-x")
		case OpVarY:
			_, err = fmt.Fprintln(bw, "var-y")
		case OpLoad:
			_, err = fmt.Fprintf(bw, "load %d\n", inst.Slot)
		case OpStore:
			_, err = fmt.Fprintf(bw, "store %d v%d\n", inst.Slot, inst.Args[0])
		default:
			if inst.Op.IsUnary() {
				_, err = fmt.Fprintf(bw, "%s v%d\n", inst.Op, inst.Args[0])
			} else {
				_, err = fmt.Fprintf(bw, "%s v%d v%d\n", inst.Op, inst.Args[0], inst.Args[1])
			}
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}
