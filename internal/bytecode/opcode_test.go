package bytecode

import "testing"

func TestInstrSizeMatchesOperandWidth(t *testing.T) {
	cases := []struct {
		op   Op
		want int
	}{
		{OpLoadConst, 3},
		{OpLoadVar, 3},
		{OpCall, 2},
		{OpJump, 3},
		{OpJumpIfFalse, 3},
		{OpPop, 1},
		{OpAdd, 1},
		{OpReturn, 1},
	}
	for _, c := range cases {
		if got := InstrSize(c.op); got != c.want {
			t.Errorf("InstrSize(%s) = %d, want %d", c.op, got, c.want)
		}
	}
}

func TestOpStringKnownAndUnknown(t *testing.T) {
	if OpAdd.String() != "ADD" {
		t.Errorf("OpAdd.String() = %q, want ADD", OpAdd.String())
	}
	if Op(255).String() != "UNKNOWN" {
		t.Errorf("Op(255).String() = %q, want UNKNOWN", Op(255).String())
	}
}
