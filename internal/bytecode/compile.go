// MIR→bytecode codegen: linearises each function's reachable basic
// blocks, assigns every named local and SSA temp a dedicated slot (no
// liveness-based coalescing — a deliberate simplification over the
// textbook scheme), eliminates Phi nodes by
// scheduling a slot-copy at the end of each predecessor block, and
// emits one instruction per MIR operation. Grounded on the teacher's
// encoding idioms (bytes.Buffer/encoding/binary) carried over into
// serializer.go; the codegen shape itself has no teacher precedent
// since DWScript never lowered through an SSA form.
package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cwbudde/machine-dialect/internal/mir"
)

type pool struct {
	strIdx   map[string]uint32
	strings  []string
	constIdx map[string]uint16
	consts   []Const
}

func newPool() *pool {
	return &pool{strIdx: map[string]uint32{}, constIdx: map[string]uint16{}}
}

func (p *pool) intern(s string) uint32 {
	if idx, ok := p.strIdx[s]; ok {
		return idx
	}
	idx := uint32(len(p.strings))
	p.strings = append(p.strings, s)
	p.strIdx[s] = idx
	return idx
}

func (p *pool) constKey(c Const) string {
	switch c.Tag {
	case ConstEmpty:
		return "e"
	case ConstInt:
		return fmt.Sprintf("i%d", c.Int)
	case ConstFloat:
		return fmt.Sprintf("f%g", c.Float)
	case ConstStringRef:
		return fmt.Sprintf("s%d", c.StringIdx)
	case ConstFunctionRef:
		return fmt.Sprintf("g%d", c.FunctionIdx)
	default:
		return ""
	}
}

func (p *pool) addConst(c Const) uint16 {
	key := p.constKey(c)
	if idx, ok := p.constIdx[key]; ok {
		return idx
	}
	idx := uint16(len(p.consts))
	p.consts = append(p.consts, c)
	p.constIdx[key] = idx
	return idx
}

func (p *pool) intConst(i int64) uint16     { return p.addConst(Const{Tag: ConstInt, Int: i}) }
func (p *pool) floatConst(f float64) uint16 { return p.addConst(Const{Tag: ConstFloat, Float: f}) }
func (p *pool) stringConst(s string) uint16 {
	return p.addConst(Const{Tag: ConstStringRef, StringIdx: p.intern(s)})
}
func (p *pool) emptyConst() uint16 { return p.addConst(Const{Tag: ConstEmpty}) }
func (p *pool) functionConst(idx uint16) uint16 {
	return p.addConst(Const{Tag: ConstFunctionRef, FunctionIdx: idx})
}

// Compile lowers a MIR module to a bytecode Module. Function order in
// mod.Functions becomes Module.Functions order, except the implicit
// "main" function is pulled out into Module.Main.
func Compile(mod *mir.Module, moduleName string) *Module {
	p := newPool()
	out := &Module{Name: moduleName}

	var named []*mir.Function
	var main *mir.Function
	for _, fn := range mod.Functions {
		if fn.Name == "main" {
			main = fn
			continue
		}
		named = append(named, fn)
	}

	// globals maps a function name to its index into out.Globals, which
	// parallels out.Functions one-for-one; CALL resolves a callee by
	// LOAD_GLOBAL-ing this index ahead of pushing its arguments.
	globals := map[string]uint16{}
	for i, fn := range named {
		constIdx := p.functionConst(uint16(i))
		globals[fn.Name] = uint16(len(out.Globals))
		out.Globals = append(out.Globals, Global{NameIdx: p.intern(fn.Name), ConstIdx: constIdx})
	}

	for _, fn := range named {
		out.Functions = append(out.Functions, compileFunction(fn, p, globals))
		out.FunctionNames = append(out.FunctionNames, fn.Name)
	}

	if main != nil {
		out.Main = compileFunction(main, p, globals)
	}

	out.Strings = p.strings
	out.Constants = p.consts
	peephole(out)
	return out
}

// slotSet assigns every distinct local name and SSA temp number a
// unique, stable slot index: parameters first (in declaration order),
// then every other local/temp encountered while walking the function's
// reachable blocks in order.
type slotSet struct {
	index map[string]uint16
	next  uint16
}

func newSlotSet() *slotSet { return &slotSet{index: map[string]uint16{}} }

func (s *slotSet) slot(key string) uint16 {
	if idx, ok := s.index[key]; ok {
		return idx
	}
	idx := s.next
	s.index[key] = idx
	s.next++
	return idx
}

func localKey(name string) string { return "v:" + name }
func tempKey(t int) string        { return fmt.Sprintf("t:%d", t) }

func reachableBlocks(fn *mir.Function) []*mir.BasicBlock {
	visited := map[string]bool{}
	var order []*mir.BasicBlock
	var walk func(label string)
	walk = func(label string) {
		if visited[label] {
			return
		}
		visited[label] = true
		blk := fn.Block(label)
		if blk == nil {
			return
		}
		order = append(order, blk)
		for _, target := range []string{blk.Term.Target, blk.Term.IfTrue, blk.Term.IfFalse} {
			if target != "" {
				walk(target)
			}
		}
	}
	walk(fn.Entry)
	return order
}

// copyOp is a scheduled slot write: Phi-elimination via copy-insertion
// requires writing the edge's value into the Phi's destination slot at
// the end of the corresponding predecessor block, just before its jump.
type copyOp struct {
	destSlot uint16
	value    mir.Value
}

// predecessorCopies collects, for every predecessor block label, the
// writes that must happen just before its terminator so that by the
// time control reaches a block with a Phi, the Phi's destination slot
// already holds the right value for whichever edge was taken — the
// standard out-of-SSA phi-elimination technique.
func predecessorCopies(blocks []*mir.BasicBlock, slots *slotSet) map[string][]copyOp {
	copies := map[string][]copyOp{}
	for _, blk := range blocks {
		for _, in := range blk.Instrs {
			if in.Op != mir.OpPhi {
				continue
			}
			destSlot := slots.slot(tempKey(in.Dest.Temp))
			for _, edge := range in.Edges {
				copies[edge.Block] = append(copies[edge.Block], copyOp{destSlot: destSlot, value: edge.Value})
			}
		}
	}
	return copies
}

// codegen carries the per-function state (pool, slots, global table,
// block offsets) through both the sizing pass and the real emission
// pass, so jump targets resolve to the offsets computed by the first.
type codegen struct {
	p       *pool
	slots   *slotSet
	globals map[string]uint16
	offsets map[string]uint32
}

func compileFunction(fn *mir.Function, p *pool, globals map[string]uint16) Chunk {
	slots := newSlotSet()
	for _, param := range fn.Params {
		slots.slot(localKey(param))
	}

	blocks := reachableBlocks(fn)
	copies := predecessorCopies(blocks, slots)

	cg := &codegen{p: p, slots: slots, globals: globals, offsets: map[string]uint32{}}

	// Sizing pass: every instruction has a statically fixed width given
	// its opcode, so one dry run is enough to learn each block's start
	// offset with no placeholder/patch cycle needed on the real pass.
	sizer := &bytes.Buffer{}
	for _, blk := range blocks {
		cg.offsets[blk.Label] = uint32(sizer.Len())
		cg.emitBlockBody(sizer, blk, copies[blk.Label])
	}

	var code bytes.Buffer
	for _, blk := range blocks {
		cg.emitBlockBody(&code, blk, copies[blk.Label])
	}

	return Chunk{
		Arity:  uint8(len(fn.Params)),
		Locals: slots.next,
		Code:   code.Bytes(),
	}
}

func (cg *codegen) emitBlockBody(buf *bytes.Buffer, blk *mir.BasicBlock, pending []copyOp) {
	for _, in := range blk.Instrs {
		cg.emitInstr(buf, in)
	}
	for _, c := range pending {
		cg.emitLoadValue(buf, c.value)
		emitOp2(buf, OpStoreVar, c.destSlot)
	}
	cg.emitTerm(buf, blk)
}

func emitOp(buf *bytes.Buffer, op Op) { buf.WriteByte(byte(op)) }

func emitOp1(buf *bytes.Buffer, op Op, operand uint8) {
	buf.WriteByte(byte(op))
	buf.WriteByte(operand)
}

func emitOp2(buf *bytes.Buffer, op Op, operand uint16) {
	buf.WriteByte(byte(op))
	binary.Write(buf, binary.LittleEndian, operand)
}

// emitJump writes a jump opcode followed by a 16-bit signed offset
// relative to the instruction following the jump — the wire format's
// chunk invariant for both JUMP and JUMP_IF_FALSE. cg.offsets holds
// each block's absolute start offset from the sizing pass, so the
// only thing computed here is the delta.
func (cg *codegen) emitJump(buf *bytes.Buffer, op Op, targetLabel string) {
	start := buf.Len()
	rel := int(cg.offsets[targetLabel]) - (start + InstrSize(op))
	buf.WriteByte(byte(op))
	binary.Write(buf, binary.LittleEndian, int16(rel))
}

func (cg *codegen) emitLoadValue(buf *bytes.Buffer, v mir.Value) {
	switch v.Kind {
	case mir.ValConst:
		if v.Const.Kind == mir.ConstBool {
			// NOT of the opposite 0/1 Int leaves a real Bool on the stack.
			n := int64(1)
			if v.Const.B {
				n = 0
			}
			emitOp2(buf, OpLoadConst, cg.p.intConst(n))
			emitOp(buf, OpNot)
			return
		}
		emitOp2(buf, OpLoadConst, cg.constIndexFor(v.Const))
	case mir.ValLocal:
		emitOp2(buf, OpLoadVar, cg.slots.slot(localKey(v.Name)))
	case mir.ValTemp:
		emitOp2(buf, OpLoadVar, cg.slots.slot(tempKey(v.Temp)))
	}
}

func (cg *codegen) constIndexFor(c mir.Const) uint16 {
	switch c.Kind {
	case mir.ConstInt:
		return cg.p.intConst(c.I)
	case mir.ConstFloat:
		return cg.p.floatConst(c.F)
	case mir.ConstString:
		return cg.p.stringConst(c.S)
	case mir.ConstBool:
		// Booleans have no dedicated constant tag; they fold through a
		// 0/1 Int. emitLoadValue does not route Bool constants here: it
		// loads an Int and applies NOT, so the stack receives a Bool.
		if c.B {
			return cg.p.intConst(1)
		}
		return cg.p.intConst(0)
	default:
		return cg.p.emptyConst()
	}
}

var binOpCodes = map[string]Op{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod, "^": OpPow,
	"and": OpAnd, "or": OpOr,
}

var cmpOpCodes = map[string]Op{
	"equals":                       OpEq,
	"is not equal to":              OpNeq,
	"is strictly equal to":         OpStrictEq,
	"is not strictly equal to":     OpStrictNeq,
	"is less than":                 OpLt,
	"is greater than":              OpGt,
	"is greater than or equal to":  OpGte,
	"is less than or equal to":     OpLte,
}

func (cg *codegen) emitInstr(buf *bytes.Buffer, in mir.Instruction) {
	switch in.Op {
	case mir.OpPhi:
		// Eliminated via predecessorCopies; the slot already holds the
		// right value by the time control reaches this block.

	case mir.OpLoadConst:
		cg.emitLoadValue(buf, in.Operand)
		emitOp2(buf, OpStoreVar, cg.slots.slot(tempKey(in.Dest.Temp)))

	case mir.OpLoadVar:
		emitOp2(buf, OpLoadVar, cg.slots.slot(localKey(in.VarName)))
		emitOp2(buf, OpStoreVar, cg.slots.slot(tempKey(in.Dest.Temp)))

	case mir.OpStoreVar:
		cg.emitLoadValue(buf, in.Left)
		emitOp2(buf, OpStoreVar, cg.slots.slot(localKey(in.VarName)))

	case mir.OpUnary:
		cg.emitLoadValue(buf, in.Operand)
		if in.Operator == "not" {
			emitOp(buf, OpNot)
		} else {
			emitOp(buf, OpNeg)
		}
		emitOp2(buf, OpStoreVar, cg.slots.slot(tempKey(in.Dest.Temp)))

	case mir.OpBinary:
		cg.emitLoadValue(buf, in.Left)
		cg.emitLoadValue(buf, in.Right)
		if op, ok := binOpCodes[in.Operator]; ok {
			emitOp(buf, op)
		} else {
			emitOp(buf, OpAdd)
		}
		emitOp2(buf, OpStoreVar, cg.slots.slot(tempKey(in.Dest.Temp)))

	case mir.OpCompare:
		cg.emitLoadValue(buf, in.Left)
		cg.emitLoadValue(buf, in.Right)
		if op, ok := cmpOpCodes[in.Operator]; ok {
			emitOp(buf, op)
		} else {
			emitOp(buf, OpEq)
		}
		emitOp2(buf, OpStoreVar, cg.slots.slot(tempKey(in.Dest.Temp)))

	case mir.OpCall:
		if _, isGlobal := cg.globals[in.Callee]; isGlobal {
			emitOp2(buf, OpLoadGlobal, cg.globalSlotFor(in.Callee))
		} else if _, isBuiltin := builtins[in.Callee]; isBuiltin {
			emitOp2(buf, OpLoadConst, cg.p.stringConst(in.Callee))
		} else {
			emitOp2(buf, OpLoadGlobal, cg.globalSlotFor(in.Callee))
		}
		for _, a := range in.Args {
			cg.emitLoadValue(buf, a)
		}
		emitOp1(buf, OpCall, uint8(len(in.Args)))
		if in.Dest.Kind == mir.ValTemp {
			emitOp2(buf, OpStoreVar, cg.slots.slot(tempKey(in.Dest.Temp)))
		} else {
			emitOp(buf, OpPop)
		}

	case mir.OpPrint:
		cg.emitLoadValue(buf, in.Operand)
		emitOp(buf, OpPrint)
	}
}

// globalSlotFor resolves a callee name to its Module.Globals index. A
// name with no matching entry (shouldn't occur: every Action/
// Interaction is registered in Compile's globals map before any body
// is compiled) resolves to global 0 rather than panicking.
func (cg *codegen) globalSlotFor(name string) uint16 {
	if idx, ok := cg.globals[name]; ok {
		return idx
	}
	return 0
}

func (cg *codegen) emitTerm(buf *bytes.Buffer, blk *mir.BasicBlock) {
	switch blk.Term.Op {
	case mir.OpJump:
		cg.emitJump(buf, OpJump, blk.Term.Target)
	case mir.OpCondJump:
		cg.emitLoadValue(buf, blk.Term.Operand)
		cg.emitJump(buf, OpJumpIfFalse, blk.Term.IfFalse)
		cg.emitJump(buf, OpJump, blk.Term.IfTrue)
	case mir.OpReturn:
		cg.emitLoadValue(buf, blk.Term.Operand)
		emitOp(buf, OpReturn)
	default:
		// Unreachable block shape (reachableBlocks only walks blocks
		// reached via a real terminator edge); emit a defensive HALT
		// rather than falling through into the next block's bytes.
		emitOp(buf, OpHalt)
	}
}
