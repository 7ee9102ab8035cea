package bytecode

import "testing"

func TestBuiltinLenCountsRunes(t *testing.T) {
	vm := New(&Module{})
	got, err := builtinLen(vm, []Value{StringValue("hello")})
	if err != nil {
		t.Fatalf("len: %v", err)
	}
	if got.I != 5 {
		t.Errorf("len(\"hello\") = %d, want 5", got.I)
	}
}

func TestBuiltinMinMaxWidenToFloatWhenMixed(t *testing.T) {
	vm := New(&Module{})
	got, err := builtinMin(vm, []Value{IntValue(3), FloatValue(1.5)})
	if err != nil {
		t.Fatalf("min: %v", err)
	}
	if !got.IsFloat() || got.F != 1.5 {
		t.Errorf("min(3, 1.5) = %+v, want Float(1.5)", got)
	}

	got, err = builtinMax(vm, []Value{IntValue(3), IntValue(9), IntValue(2)})
	if err != nil {
		t.Fatalf("max: %v", err)
	}
	if !got.IsInt() || got.I != 9 {
		t.Errorf("max(3,9,2) = %+v, want Int(9)", got)
	}
}

func TestBuiltinIsEmptyCoversEmptyAndBlankString(t *testing.T) {
	vm := New(&Module{})
	cases := []struct {
		v    Value
		want bool
	}{
		{EmptyValue(), true},
		{StringValue(""), true},
		{StringValue("x"), false},
		{IntValue(0), false},
	}
	for _, c := range cases {
		got, err := builtinIsEmpty(vm, []Value{c.v})
		if err != nil {
			t.Fatalf("is_empty: %v", err)
		}
		if got.B != c.want {
			t.Errorf("is_empty(%+v) = %v, want %v", c.v, got.B, c.want)
		}
	}
}

func TestBuiltinIntConvertsFromStringAndRejectsGarbage(t *testing.T) {
	vm := New(&Module{})
	got, err := builtinInt(vm, []Value{StringValue("42")})
	if err != nil {
		t.Fatalf("int(\"42\"): %v", err)
	}
	if got.I != 42 {
		t.Errorf("int(\"42\") = %d, want 42", got.I)
	}

	if _, err := builtinInt(vm, []Value{StringValue("nope")}); err == nil {
		t.Error("expected an error converting a non-numeric string to int")
	}
}

func TestBuiltinRoundRoundsHalfAwayFromZero(t *testing.T) {
	vm := New(&Module{})
	got, err := builtinRound(vm, []Value{FloatValue(2.5)})
	if err != nil {
		t.Fatalf("round: %v", err)
	}
	if got.I != 3 {
		t.Errorf("round(2.5) = %d, want 3", got.I)
	}
}

func TestBuiltinArityMismatchIsRuntimeError(t *testing.T) {
	vm := New(&Module{})
	if _, err := builtinLen(vm, nil); err == nil {
		t.Error("expected an arity error calling len with no arguments")
	}
}
