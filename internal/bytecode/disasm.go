package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a full Module as human-readable text: header
// metadata, string/constant pools, globals, then one labelled listing
// per chunk (main first, then every named function).
func Disassemble(m *Module) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "module %q\n", m.Name)

	if len(m.Strings) > 0 {
		fmt.Fprintln(&sb, "strings:")
		for i, s := range m.Strings {
			fmt.Fprintf(&sb, "  [%d] %q\n", i, s)
		}
	}

	if len(m.Constants) > 0 {
		fmt.Fprintln(&sb, "constants:")
		for i, c := range m.Constants {
			fmt.Fprintf(&sb, "  [%d] %s\n", i, disasmConst(m, c))
		}
	}

	if len(m.Globals) > 0 {
		fmt.Fprintln(&sb, "globals:")
		for _, g := range m.Globals {
			name := ""
			if int(g.NameIdx) < len(m.Strings) {
				name = m.Strings[g.NameIdx]
			}
			fmt.Fprintf(&sb, "  %s -> const[%d]\n", name, g.ConstIdx)
		}
	}

	fmt.Fprintln(&sb, "chunk main:")
	sb.WriteString(disasmChunk(&m.Main))

	for i, fn := range m.Functions {
		name := fmt.Sprintf("fn%d", i)
		if i < len(m.FunctionNames) {
			name = m.FunctionNames[i]
		}
		fmt.Fprintf(&sb, "chunk %s (arity %d, locals %d):\n", name, fn.Arity, fn.Locals)
		sb.WriteString(disasmChunk(&m.Functions[i]))
	}

	return sb.String()
}

func disasmConst(m *Module, c Const) string {
	switch c.Tag {
	case ConstEmpty:
		return "empty"
	case ConstInt:
		return fmt.Sprintf("int %d", c.Int)
	case ConstFloat:
		return fmt.Sprintf("float %g", c.Float)
	case ConstStringRef:
		if int(c.StringIdx) < len(m.Strings) {
			return fmt.Sprintf("string %q", m.Strings[c.StringIdx])
		}
		return "string <out of range>"
	case ConstFunctionRef:
		return fmt.Sprintf("function #%d", c.FunctionIdx)
	default:
		return "?"
	}
}

// disasmChunk walks a chunk's fixed-width instruction stream from pc 0,
// printing each instruction's byte offset, mnemonic, and operand.
func disasmChunk(c *Chunk) string {
	var sb strings.Builder
	code := c.Code
	pc := 0
	for pc < len(code) {
		op := Op(code[pc])
		start := pc
		pc++

		switch {
		case op == OpJump || op == OpJumpIfFalse:
			offset := int16(uint16(code[pc]) | uint16(code[pc+1])<<8)
			pc += 2
			fmt.Fprintf(&sb, "  %04d %-14s %+d (-> %04d)\n", start, op, offset, pc+int(offset))
		case operandWidth(op) == 1:
			operand := code[pc]
			pc++
			fmt.Fprintf(&sb, "  %04d %-14s %d\n", start, op, operand)
		case operandWidth(op) == 2:
			operand := uint16(code[pc]) | uint16(code[pc+1])<<8
			pc += 2
			fmt.Fprintf(&sb, "  %04d %-14s %d\n", start, op, operand)
		default:
			fmt.Fprintf(&sb, "  %04d %-14s\n", start, op)
		}
	}
	return sb.String()
}
