package bytecode

import (
	"bytes"
	"encoding/binary"
)

// peephole runs a handful of bytecode-level rewrites over every chunk in
// m, to a fixed point: a constant pushed and immediately discarded, a
// jump that lands on the very next instruction, and a conditional jump
// whose condition was just pushed as a constant. None of these are
// visible to internal/optimize's MIR-level passes, since they only
// exist once a function's blocks are linearised into one instruction
// stream with concrete jump offsets.
func peephole(m *Module) {
	peepholeChunk(m, &m.Main)
	for i := range m.Functions {
		peepholeChunk(m, &m.Functions[i])
	}
}

// punit is the original instruction(s) at one or more byte offsets,
// rewritten to their replacement form (0, 1, or unchanged instructions).
// origStarts records every original offset the unit accounts for, so a
// jump that used to target any of them can be retargeted at whatever
// the unit became.
type punit struct {
	origStarts []int
	ops        []penc
}

// penc is a single instruction pending re-encoding. target holds the
// absolute original-offset destination for OpJump/OpJumpIfFalse; raw
// holds the operand for every other fixed-width op.
type penc struct {
	op     Op
	raw    uint16
	target int
}

func peepholeChunk(m *Module, c *Chunk) {
	units := decodeUnits(c.Code)
	for {
		rewritten, changed := peepholeStep(m, units)
		units = rewritten
		if !changed {
			break
		}
	}
	c.Code = encodeUnits(units)
}

func decodeUnits(code []byte) []punit {
	var units []punit
	pc := 0
	for pc < len(code) {
		op := Op(code[pc])
		start := pc

		if op == OpJump || op == OpJumpIfFalse {
			rel := int16(uint16(code[pc+1]) | uint16(code[pc+2])<<8)
			target := start + 3 + int(rel)
			units = append(units, punit{origStarts: []int{start}, ops: []penc{{op: op, target: target}}})
			pc += 3
			continue
		}

		w := operandWidth(op)
		var raw uint16
		switch w {
		case 1:
			raw = uint16(code[pc+1])
		case 2:
			raw = uint16(code[pc+1]) | uint16(code[pc+2])<<8
		}
		units = append(units, punit{origStarts: []int{start}, ops: []penc{{op: op, raw: raw}}})
		pc += 1 + w
	}
	return units
}

// peepholeStep applies one rewrite pass over adjacent units, returning
// the rewritten list and whether anything changed (callers loop this to
// a fixed point, since collapsing one pattern can expose another).
func peepholeStep(m *Module, units []punit) ([]punit, bool) {
	var out []punit
	changed := false

	for i := 0; i < len(units); i++ {
		u := units[i]

		if isOp(u, OpLoadConst) && i+1 < len(units) && isOp(units[i+1], OpPop) {
			out = append(out, punit{origStarts: concatStarts(u, units[i+1])})
			i++
			changed = true
			continue
		}

		if isOp(u, OpJump) && i+1 < len(units) && u.ops[0].target == units[i+1].origStarts[0] {
			out = append(out, punit{origStarts: u.origStarts})
			changed = true
			continue
		}

		if isOp(u, OpLoadConst) && i+1 < len(units) && isOp(units[i+1], OpJumpIfFalse) {
			if truthy, known := constTruthy(m, u.ops[0].raw); known {
				starts := concatStarts(u, units[i+1])
				if truthy {
					out = append(out, punit{origStarts: starts})
				} else {
					out = append(out, punit{origStarts: starts, ops: []penc{{op: OpJump, target: units[i+1].ops[0].target}}})
				}
				i++
				changed = true
				continue
			}
		}

		out = append(out, u)
	}

	return out, changed
}

func isOp(u punit, op Op) bool { return len(u.ops) == 1 && u.ops[0].op == op }

func concatStarts(a, b punit) []int {
	starts := make([]int, 0, len(a.origStarts)+len(b.origStarts))
	starts = append(starts, a.origStarts...)
	starts = append(starts, b.origStarts...)
	return starts
}

// constTruthy reports whether constant-pool entry idx is statically
// known truthy/falsy, mirroring Value.Truthy's rules for the constant
// kinds LOAD_CONST can actually push.
func constTruthy(m *Module, idx uint16) (truthy, known bool) {
	if int(idx) >= len(m.Constants) {
		return false, false
	}
	switch c := m.Constants[idx]; c.Tag {
	case ConstInt:
		return c.Int != 0, true
	case ConstFloat:
		return c.Float != 0, true
	case ConstEmpty:
		return false, true
	default:
		return false, false
	}
}

// encodeUnits re-linearises units into a byte stream, remapping every
// jump's original absolute target to wherever that offset's unit ended
// up (the unit's first surviving instruction, or the first byte past
// the chunk if the unit and everything after it was removed).
func encodeUnits(units []punit) []byte {
	offsetMap := make(map[int]int, len(units))
	cur := 0
	for _, u := range units {
		for _, orig := range u.origStarts {
			offsetMap[orig] = cur
		}
		for _, op := range u.ops {
			cur += InstrSize(op.op)
		}
	}
	end := cur

	var buf bytes.Buffer
	for _, u := range units {
		for _, op := range u.ops {
			if op.op == OpJump || op.op == OpJumpIfFalse {
				target, ok := offsetMap[op.target]
				if !ok {
					target = end
				}
				start := buf.Len()
				rel := int16(target - (start + InstrSize(op.op)))
				buf.WriteByte(byte(op.op))
				binary.Write(&buf, binary.LittleEndian, rel)
				continue
			}

			buf.WriteByte(byte(op.op))
			switch operandWidth(op.op) {
			case 1:
				buf.WriteByte(byte(op.raw))
			case 2:
				binary.Write(&buf, binary.LittleEndian, op.raw)
			}
		}
	}
	return buf.Bytes()
}
