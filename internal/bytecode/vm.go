package bytecode

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/cwbudde/machine-dialect/internal/errors"
)

// defaultMaxFrames bounds call-stack depth; overridable via MD_VM_STACK
// for embedding/testing scenarios that need a shallower (or deeper)
// limit than the default.
const defaultMaxFrames = 1024

// frame is one call's execution context: its chunk, program counter,
// register file (local slots), and the function name used for stack
// traces.
type frame struct {
	chunk   *Chunk
	pc      int
	locals  []Value
	fnName  string
}

// VM executes a compiled Module against a register file plus operand
// stack per frame. Each frame's register file holds exactly as many
// slots as its chunk's Locals count, not a fixed 256: LOAD_VAR/STORE_VAR
// address the register file, everything else flows through the stack.
type VM struct {
	module    *Module
	stack     []Value
	frames    []*frame
	maxFrames int

	// Output is where the print/say built-ins write. Defaults to
	// os.Stdout; tests swap in a buffer to capture what a program prints.
	Output io.Writer
}

// New constructs a VM bound to module. MD_VM_STACK, if set to a valid
// positive integer, overrides the default max call depth.
func New(module *Module) *VM {
	max := defaultMaxFrames
	if v := os.Getenv("MD_VM_STACK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			max = n
		}
	}
	return &VM{module: module, maxFrames: max, Output: os.Stdout}
}

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() Value {
	n := len(vm.stack)
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v
}

func (vm *VM) top() *frame { return vm.frames[len(vm.frames)-1] }

func (vm *VM) runtimeErr(format string, args ...any) *RuntimeError {
	trace := make(errors.StackTrace, 0, len(vm.frames))
	for _, f := range vm.frames {
		trace = append(trace, errors.StackFrame{FunctionName: f.fnName})
	}
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Trace: trace}
}

// Run executes the module's main chunk to completion and returns its
// final value: the operand on the stack at a RETURN, or Empty if main
// never executes one.
func (vm *VM) Run() (Value, error) {
	return vm.call(&vm.module.Main, "main", nil)
}

// call pushes a new frame for chunk, binds args into its leading
// register slots, executes until RETURN/HALT, and pops the frame.
func (vm *VM) call(chunk *Chunk, name string, args []Value) (Value, error) {
	if len(vm.frames) >= vm.maxFrames {
		return Value{}, vm.runtimeErr("stack overflow: exceeded max call depth %d", vm.maxFrames)
	}
	locals := make([]Value, chunk.Locals)
	for i := 0; i < len(args) && i < len(locals); i++ {
		locals[i] = args[i]
	}
	f := &frame{chunk: chunk, locals: locals, fnName: name}
	vm.frames = append(vm.frames, f)
	defer func() { vm.frames = vm.frames[:len(vm.frames)-1] }()

	result, err := vm.exec(f)
	return result, err
}

func (vm *VM) exec(f *frame) (Value, error) {
	code := f.chunk.Code
	for f.pc < len(code) {
		op := Op(code[f.pc])
		f.pc++

		switch op {
		case OpLoadConst:
			idx := vm.readU16(f)
			vm.push(vm.constValue(idx))

		case OpLoadVar:
			idx := vm.readU16(f)
			if int(idx) >= len(f.locals) {
				return Value{}, vm.runtimeErr("read of undefined local slot %d", idx)
			}
			vm.push(f.locals[idx])

		case OpStoreVar:
			idx := vm.readU16(f)
			v := vm.pop()
			if int(idx) >= len(f.locals) {
				return Value{}, vm.runtimeErr("write to undefined local slot %d", idx)
			}
			f.locals[idx] = v

		case OpLoadGlobal:
			idx := vm.readU16(f)
			if int(idx) >= len(vm.module.Globals) {
				return Value{}, vm.runtimeErr("read of undefined global %d", idx)
			}
			g := vm.module.Globals[idx]
			vm.push(vm.constValue(g.ConstIdx))

		case OpStoreGlobal:
			// Machine Dialect has no runtime mutation of module-level
			// globals (every Global binds an Action/Interaction name to
			// its function constant at compile time); kept so the
			// opcode space matches §3's full instruction set.
			vm.pop()

		case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow:
			r, l := vm.pop(), vm.pop()
			v, err := vm.arith(op, l, r)
			if err != nil {
				return Value{}, err
			}
			vm.push(v)

		case OpNeg:
			v := vm.pop()
			switch {
			case v.IsInt():
				vm.push(IntValue(-v.I))
			case v.IsFloat():
				vm.push(FloatValue(-v.F))
			default:
				return Value{}, vm.runtimeErr("cannot negate a %s value", v.Type)
			}

		case OpEq:
			r, l := vm.pop(), vm.pop()
			vm.push(BoolValue(l.Equal(r)))
		case OpNeq:
			r, l := vm.pop(), vm.pop()
			vm.push(BoolValue(!l.Equal(r)))
		case OpStrictEq:
			r, l := vm.pop(), vm.pop()
			vm.push(BoolValue(l.StrictEqual(r)))
		case OpStrictNeq:
			r, l := vm.pop(), vm.pop()
			vm.push(BoolValue(!l.StrictEqual(r)))

		case OpLt, OpGt, OpLte, OpGte:
			r, l := vm.pop(), vm.pop()
			v, err := vm.compare(op, l, r)
			if err != nil {
				return Value{}, err
			}
			vm.push(v)

		case OpNot:
			v := vm.pop()
			vm.push(BoolValue(!v.Truthy()))
		case OpAnd:
			r, l := vm.pop(), vm.pop()
			vm.push(BoolValue(l.Truthy() && r.Truthy()))
		case OpOr:
			r, l := vm.pop(), vm.pop()
			vm.push(BoolValue(l.Truthy() || r.Truthy()))

		case OpJump:
			f.pc += int(vm.readI16(f))

		case OpJumpIfFalse:
			offset := vm.readI16(f)
			if !vm.pop().Truthy() {
				f.pc += int(offset)
			}

		case OpCall:
			nargs := int(code[f.pc])
			f.pc++
			args := make([]Value, nargs)
			for i := nargs - 1; i >= 0; i-- {
				args[i] = vm.pop()
			}
			callee := vm.pop()
			result, err := vm.dispatch(callee, args)
			if err != nil {
				return Value{}, err
			}
			vm.push(result)

		case OpReturn:
			return vm.pop(), nil

		case OpPop:
			vm.pop()
		case OpDup:
			v := vm.stack[len(vm.stack)-1]
			vm.push(v)
		case OpSwap:
			n := len(vm.stack)
			vm.stack[n-1], vm.stack[n-2] = vm.stack[n-2], vm.stack[n-1]

		case OpPrint:
			w := vm.Output
			if w == nil {
				w = os.Stdout
			}
			fmt.Fprintln(w, vm.pop().String())

		case OpHalt:
			return EmptyValue(), nil

		case OpNop:
			// no-op

		default:
			return Value{}, vm.runtimeErr("unknown opcode 0x%02X", byte(op))
		}
	}
	return EmptyValue(), nil
}

// dispatch calls either a user Action/Interaction (callee is
// ValueFunction) or a built-in (callee is ValueString holding its
// name, the string constant codegen pushes for a built-in callee).
func (vm *VM) dispatch(callee Value, args []Value) (Value, error) {
	if callee.Type == ValueFunction {
		idx := int(callee.I)
		if idx < 0 || idx >= len(vm.module.Functions) {
			return Value{}, vm.runtimeErr("call to undefined function index %d", idx)
		}
		chunk := &vm.module.Functions[idx]
		name := ""
		if idx < len(vm.module.FunctionNames) {
			name = vm.module.FunctionNames[idx]
		}
		if int(chunk.Arity) != len(args) {
			return Value{}, vm.runtimeErr("%s expects %d argument(s), got %d", name, chunk.Arity, len(args))
		}
		return vm.call(chunk, name, args)
	}
	if callee.IsString() {
		fn, ok := builtins[callee.AsString()]
		if !ok {
			return Value{}, vm.runtimeErr("call to undefined action %q", callee.AsString())
		}
		return fn(vm, args)
	}
	return Value{}, vm.runtimeErr("value of type %s is not callable", callee.Type)
}

func (vm *VM) constValue(idx uint16) Value {
	if int(idx) >= len(vm.module.Constants) {
		return EmptyValue()
	}
	c := vm.module.Constants[idx]
	switch c.Tag {
	case ConstInt:
		return IntValue(c.Int)
	case ConstFloat:
		return FloatValue(c.Float)
	case ConstStringRef:
		if int(c.StringIdx) < len(vm.module.Strings) {
			return StringValue(vm.module.Strings[c.StringIdx])
		}
		return StringValue("")
	case ConstFunctionRef:
		return FunctionValue(c.FunctionIdx)
	default:
		return EmptyValue()
	}
}

func (vm *VM) arith(op Op, l, r Value) (Value, error) {
	if !l.IsNumber() || !r.IsNumber() {
		return Value{}, vm.runtimeErr("arithmetic on non-numeric operands (%s, %s)", l.Type, r.Type)
	}
	if l.Type == ValueInt && r.Type == ValueInt {
		switch op {
		case OpAdd:
			return IntValue(l.I + r.I), nil
		case OpSub:
			return IntValue(l.I - r.I), nil
		case OpMul:
			return IntValue(l.I * r.I), nil
		case OpDiv:
			if r.I == 0 {
				return Value{}, vm.runtimeErr("division by zero")
			}
			return IntValue(l.I / r.I), nil
		case OpMod:
			if r.I == 0 {
				return Value{}, vm.runtimeErr("modulo by zero")
			}
			return IntValue(l.I % r.I), nil
		case OpPow:
			return IntValue(intPow(l.I, r.I)), nil
		}
	}
	lf, rf := l.AsFloat(), r.AsFloat()
	switch op {
	case OpAdd:
		return FloatValue(lf + rf), nil
	case OpSub:
		return FloatValue(lf - rf), nil
	case OpMul:
		return FloatValue(lf * rf), nil
	case OpDiv:
		if rf == 0 {
			return Value{}, vm.runtimeErr("division by zero")
		}
		return FloatValue(lf / rf), nil
	case OpMod:
		if rf == 0 {
			return Value{}, vm.runtimeErr("modulo by zero")
		}
		return FloatValue(math.Mod(lf, rf)), nil
	case OpPow:
		return FloatValue(math.Pow(lf, rf)), nil
	}
	return Value{}, vm.runtimeErr("unsupported arithmetic opcode %s", op)
}

func (vm *VM) compare(op Op, l, r Value) (Value, error) {
	if l.IsString() && r.IsString() {
		a, b := l.AsString(), r.AsString()
		switch op {
		case OpLt:
			return BoolValue(a < b), nil
		case OpGt:
			return BoolValue(a > b), nil
		case OpLte:
			return BoolValue(a <= b), nil
		case OpGte:
			return BoolValue(a >= b), nil
		}
	}
	if !l.IsNumber() || !r.IsNumber() {
		return Value{}, vm.runtimeErr("comparison on non-numeric, non-string operands (%s, %s)", l.Type, r.Type)
	}
	a, b := l.AsFloat(), r.AsFloat()
	switch op {
	case OpLt:
		return BoolValue(a < b), nil
	case OpGt:
		return BoolValue(a > b), nil
	case OpLte:
		return BoolValue(a <= b), nil
	case OpGte:
		return BoolValue(a >= b), nil
	}
	return Value{}, vm.runtimeErr("unsupported comparison opcode %s", op)
}

func (vm *VM) readU16(f *frame) uint16 {
	v := uint16(f.chunk.Code[f.pc]) | uint16(f.chunk.Code[f.pc+1])<<8
	f.pc += 2
	return v
}

// readI16 reads the signed, little-endian jump offset following a JUMP
// or JUMP_IF_FALSE opcode, relative to the instruction after it.
func (vm *VM) readI16(f *frame) int16 {
	c := f.chunk.Code
	v := int16(uint16(c[f.pc]) | uint16(c[f.pc+1])<<8)
	f.pc += 2
	return v
}

func intPow(base, exp int64) int64 {
	if exp < 0 {
		return 0
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		result *= base
	}
	return result
}
