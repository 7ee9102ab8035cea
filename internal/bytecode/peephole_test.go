package bytecode

import "testing"

// TestPeepholeRemovesRedundantLoadConstPop exercises the simplest
// pattern: a constant pushed and immediately discarded compiles away to
// nothing, leaving only the surviving code.
func TestPeepholeRemovesRedundantLoadConstPop(t *testing.T) {
	mod := &Module{
		Constants: []Const{{Tag: ConstInt, Int: 99}, {Tag: ConstInt, Int: 7}},
		Main: Chunk{
			Code: []byte{
				byte(OpLoadConst), 0, 0,
				byte(OpPop),
				byte(OpLoadConst), 1, 0,
				byte(OpReturn),
			},
		},
	}

	peephole(mod)

	want := []byte{byte(OpLoadConst), 1, 0, byte(OpReturn)}
	if string(mod.Main.Code) != string(want) {
		t.Errorf("Code = %v, want %v", mod.Main.Code, want)
	}

	got, err := New(mod).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.I != 7 {
		t.Errorf("result = %d, want 7", got.I)
	}
}

// TestPeepholeRemovesJumpToNextInstruction exercises a jump whose
// target is exactly the instruction following it — a no-op that
// codegen sometimes leaves behind (e.g. an if-with-no-else's merge
// jump when the consequence already falls through).
func TestPeepholeRemovesJumpToNextInstruction(t *testing.T) {
	mod := &Module{
		Constants: []Const{{Tag: ConstInt, Int: 5}},
		Main: Chunk{
			Code: []byte{
				byte(OpJump), 0, 0, // target patched below: falls through to the next instr
				byte(OpLoadConst), 0, 0,
				byte(OpReturn),
			},
		},
	}
	rel := int16(0) // offset 3 (next instr) minus (0 + 3) = 0
	mod.Main.Code[1] = byte(rel)
	mod.Main.Code[2] = byte(rel >> 8)

	peephole(mod)

	want := []byte{byte(OpLoadConst), 0, 0, byte(OpReturn)}
	if string(mod.Main.Code) != string(want) {
		t.Errorf("Code = %v, want %v", mod.Main.Code, want)
	}

	got, err := New(mod).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.I != 5 {
		t.Errorf("result = %d, want 5", got.I)
	}
}

// TestPeepholeCollapsesConstantFalseConditionAlwaysJumps covers a
// JUMP_IF_FALSE whose condition was just pushed as a falsy constant:
// the branch is always taken, so it collapses to an unconditional jump
// and the consequence arm becomes dead code.
func TestPeepholeCollapsesConstantFalseConditionAlwaysJumps(t *testing.T) {
	mod := &Module{
		Constants: []Const{
			{Tag: ConstInt, Int: 0},  // condition: always falsy
			{Tag: ConstInt, Int: 11}, // consequence (dead)
			{Tag: ConstInt, Int: 22}, // alternative (always taken)
		},
		Main: Chunk{
			Code: []byte{
				byte(OpLoadConst), 0, 0, // push false
				byte(OpJumpIfFalse), 0, 0, // target patched below
				byte(OpLoadConst), 1, 0,
				byte(OpReturn),
				byte(OpLoadConst), 2, 0, // offset 10: alternative
				byte(OpReturn),
			},
		},
	}
	rel := int16(10 - (3 + 3))
	mod.Main.Code[4] = byte(rel)
	mod.Main.Code[5] = byte(rel >> 8)

	peephole(mod)

	got, err := New(mod).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.I != 22 {
		t.Errorf("result = %d, want 22 (alternative always taken)", got.I)
	}
}

// TestPeepholeCollapsesConstantTrueConditionNeverJumps is the mirror
// case: a truthy constant condition means the branch is never taken, so
// both the load and the jump drop out entirely.
func TestPeepholeCollapsesConstantTrueConditionNeverJumps(t *testing.T) {
	mod := &Module{
		Constants: []Const{
			{Tag: ConstInt, Int: 1},  // condition: always truthy
			{Tag: ConstInt, Int: 11}, // consequence (always taken)
			{Tag: ConstInt, Int: 22}, // alternative (dead)
		},
		Main: Chunk{
			Code: []byte{
				byte(OpLoadConst), 0, 0, // push true
				byte(OpJumpIfFalse), 0, 0, // target patched below
				byte(OpLoadConst), 1, 0,
				byte(OpReturn),
				byte(OpLoadConst), 2, 0, // offset 10: alternative
				byte(OpReturn),
			},
		},
	}
	rel := int16(10 - (3 + 3))
	mod.Main.Code[4] = byte(rel)
	mod.Main.Code[5] = byte(rel >> 8)

	peephole(mod)

	got, err := New(mod).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.I != 11 {
		t.Errorf("result = %d, want 11 (consequence always taken)", got.I)
	}
}
