package bytecode

import (
	"fmt"
	"math"
	"os"
	"strconv"
)

// builtinFunc is a native Action callable from Machine Dialect source by
// name, dispatched from the same CALL path as a user-defined Action:
// its name is pushed as a ValueString rather than resolved through
// Module.Globals, since built-ins have no constant-pool/Chunk entry.
type builtinFunc func(vm *VM, args []Value) (Value, error)

var builtins = map[string]builtinFunc{
	"print":    builtinPrint,
	"say":      builtinPrint,
	"type":     builtinType,
	"len":      builtinLen,
	"str":      builtinStr,
	"int":      builtinInt,
	"float":    builtinFloat,
	"bool":     builtinBool,
	"abs":      builtinAbs,
	"min":      builtinMin,
	"max":      builtinMax,
	"is_empty": builtinIsEmpty,
	"round":    builtinRound,
}

func arityErr(vm *VM, name string, want, got int) (Value, error) {
	return Value{}, vm.runtimeErr("%s expects %d argument(s), got %d", name, want, got)
}

func builtinPrint(vm *VM, args []Value) (Value, error) {
	w := vm.Output
	if w == nil {
		w = os.Stdout
	}
	for i, a := range args {
		if i > 0 {
			fmt.Fprint(w, " ")
		}
		fmt.Fprint(w, a.String())
	}
	fmt.Fprintln(w)
	return EmptyValue(), nil
}

func builtinType(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return arityErr(vm, "type", 1, len(args))
	}
	return StringValue(args[0].Type.String()), nil
}

func builtinLen(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return arityErr(vm, "len", 1, len(args))
	}
	v := args[0]
	if !v.IsString() {
		return Value{}, vm.runtimeErr("len expects a string or URL, got %s", v.Type)
	}
	return IntValue(int64(len([]rune(v.AsString())))), nil
}

func builtinStr(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return arityErr(vm, "str", 1, len(args))
	}
	return StringValue(args[0].String()), nil
}

func builtinInt(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return arityErr(vm, "int", 1, len(args))
	}
	v := args[0]
	switch {
	case v.IsInt():
		return v, nil
	case v.IsFloat():
		return IntValue(int64(v.F)), nil
	case v.Type == ValueBool:
		if v.B {
			return IntValue(1), nil
		}
		return IntValue(0), nil
	case v.IsString():
		n, err := strconv.ParseInt(v.AsString(), 10, 64)
		if err != nil {
			return Value{}, vm.runtimeErr("cannot convert %q to an integer", v.AsString())
		}
		return IntValue(n), nil
	default:
		return Value{}, vm.runtimeErr("cannot convert %s to an integer", v.Type)
	}
}

func builtinFloat(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return arityErr(vm, "float", 1, len(args))
	}
	v := args[0]
	switch {
	case v.IsFloat():
		return v, nil
	case v.IsInt():
		return FloatValue(float64(v.I)), nil
	case v.IsString():
		f, err := strconv.ParseFloat(v.AsString(), 64)
		if err != nil {
			return Value{}, vm.runtimeErr("cannot convert %q to a float", v.AsString())
		}
		return FloatValue(f), nil
	default:
		return Value{}, vm.runtimeErr("cannot convert %s to a float", v.Type)
	}
}

func builtinBool(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return arityErr(vm, "bool", 1, len(args))
	}
	return BoolValue(args[0].Truthy()), nil
}

func builtinAbs(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return arityErr(vm, "abs", 1, len(args))
	}
	v := args[0]
	switch {
	case v.IsInt():
		if v.I < 0 {
			return IntValue(-v.I), nil
		}
		return v, nil
	case v.IsFloat():
		return FloatValue(math.Abs(v.F)), nil
	default:
		return Value{}, vm.runtimeErr("abs expects a number, got %s", v.Type)
	}
}

func builtinMin(vm *VM, args []Value) (Value, error) {
	if len(args) < 1 {
		return arityErr(vm, "min", 1, len(args))
	}
	return numericFold(vm, "min", args, func(a, b float64) bool { return a < b })
}

func builtinMax(vm *VM, args []Value) (Value, error) {
	if len(args) < 1 {
		return arityErr(vm, "max", 1, len(args))
	}
	return numericFold(vm, "max", args, func(a, b float64) bool { return a > b })
}

// numericFold picks the running best of args under keep(candidate,
// current), widening to Float only if any argument is a Float.
func numericFold(vm *VM, name string, args []Value, keep func(a, b float64) bool) (Value, error) {
	best := args[0]
	if !best.IsNumber() {
		return Value{}, vm.runtimeErr("%s expects numeric arguments, got %s", name, best.Type)
	}
	anyFloat := best.IsFloat()
	for _, v := range args[1:] {
		if !v.IsNumber() {
			return Value{}, vm.runtimeErr("%s expects numeric arguments, got %s", name, v.Type)
		}
		anyFloat = anyFloat || v.IsFloat()
		if keep(v.AsFloat(), best.AsFloat()) {
			best = v
		}
	}
	if anyFloat && !best.IsFloat() {
		return FloatValue(best.AsFloat()), nil
	}
	return best, nil
}

func builtinIsEmpty(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return arityErr(vm, "is_empty", 1, len(args))
	}
	v := args[0]
	if v.IsEmpty() {
		return BoolValue(true), nil
	}
	if v.IsString() {
		return BoolValue(v.AsString() == ""), nil
	}
	return BoolValue(false), nil
}

func builtinRound(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 {
		return arityErr(vm, "round", 1, len(args))
	}
	v := args[0]
	if !v.IsNumber() {
		return Value{}, vm.runtimeErr("round expects a number, got %s", v.Type)
	}
	return IntValue(int64(math.Round(v.AsFloat()))), nil
}
