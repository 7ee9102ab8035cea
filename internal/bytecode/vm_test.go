package bytecode

import "testing"

func TestVMArithmeticAndReturn(t *testing.T) {
	mod := &Module{
		Constants: []Const{{Tag: ConstInt, Int: 2}, {Tag: ConstInt, Int: 3}},
		Main: Chunk{
			Code: []byte{
				byte(OpLoadConst), 0, 0,
				byte(OpLoadConst), 1, 0,
				byte(OpAdd),
				byte(OpReturn),
			},
		},
	}
	got, err := New(mod).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.I != 5 {
		t.Errorf("result = %d, want 5", got.I)
	}
}

func TestVMStoreThenLoadVar(t *testing.T) {
	mod := &Module{
		Constants: []Const{{Tag: ConstInt, Int: 9}},
		Main: Chunk{
			Locals: 1,
			Code: []byte{
				byte(OpLoadConst), 0, 0,
				byte(OpStoreVar), 0, 0,
				byte(OpLoadVar), 0, 0,
				byte(OpReturn),
			},
		},
	}
	got, err := New(mod).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.I != 9 {
		t.Errorf("result = %d, want 9", got.I)
	}
}

func TestVMDivisionByZeroReturnsRuntimeError(t *testing.T) {
	mod := &Module{
		Constants: []Const{{Tag: ConstInt, Int: 1}, {Tag: ConstInt, Int: 0}},
		Main: Chunk{
			Code: []byte{
				byte(OpLoadConst), 0, 0,
				byte(OpLoadConst), 1, 0,
				byte(OpDiv),
				byte(OpReturn),
			},
		},
	}
	_, err := New(mod).Run()
	var rerr *RuntimeError
	if err == nil {
		t.Fatal("expected a division-by-zero error")
	}
	if !errorsAs(err, &rerr) {
		t.Fatalf("error = %v (%T), want *RuntimeError", err, err)
	}
}

func TestVMJumpIfFalseSkipsThenBranch(t *testing.T) {
	// if false: load const[1] (1) else load const[0] (0); return
	mod := &Module{
		Constants: []Const{{Tag: ConstInt, Int: 0}, {Tag: ConstInt, Int: 1}},
		Main: Chunk{
			Code: []byte{
				byte(OpLoadConst), 1, 0, // push Bool? actually push Int(1) as a falsy-check stand-in
				byte(OpNot),          // Not(1) -> false
				byte(OpJumpIfFalse), 0, 0, // placeholder, patched below
				byte(OpLoadConst), 1, 0,
				byte(OpReturn),
				byte(OpLoadConst), 0, 0,
				byte(OpReturn),
			},
		},
	}
	// The jump starts at offset 4 and is 3 bytes wide, so the instruction
	// after it sits at offset 7; the "else" load is at offset 11, a
	// relative offset of +4.
	rel := int16(11 - 7)
	code := mod.Main.Code
	code[5] = byte(rel)
	code[6] = byte(rel >> 8)

	got, err := New(mod).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.I != 0 {
		t.Errorf("result = %d, want 0 (else branch taken)", got.I)
	}
}

func TestVMCallUserFunction(t *testing.T) {
	mod := &Module{
		// const[0] binds the global to function index 0; const[1] is the
		// function body's own return literal.
		Constants:     []Const{{Tag: ConstFunctionRef, FunctionIdx: 0}, {Tag: ConstInt, Int: 42}},
		Globals:       []Global{{NameIdx: 0, ConstIdx: 0}},
		Strings:       []string{"answer"},
		FunctionNames: []string{"answer"},
		Functions: []Chunk{
			{Code: []byte{byte(OpLoadConst), 1, 0, byte(OpReturn)}},
		},
		Main: Chunk{
			Code: []byte{
				byte(OpLoadGlobal), 0, 0,
				byte(OpCall), 0,
				byte(OpReturn),
			},
		},
	}

	got, err := New(mod).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.I != 42 {
		t.Errorf("result = %d, want 42", got.I)
	}
}

func TestVMStackOverflowOnDeepRecursion(t *testing.T) {
	t.Setenv("MD_VM_STACK", "4")
	// loop() calls itself unconditionally via global 0.
	mod := &Module{
		Constants:     []Const{{Tag: ConstFunctionRef, FunctionIdx: 0}},
		Globals:       []Global{{NameIdx: 0, ConstIdx: 0}},
		Strings:       []string{"loop"},
		FunctionNames: []string{"loop"},
		Functions: []Chunk{
			{Code: []byte{
				byte(OpLoadGlobal), 0, 0,
				byte(OpCall), 0,
				byte(OpReturn),
			}},
		},
		Main: Chunk{
			Code: []byte{
				byte(OpLoadGlobal), 0, 0,
				byte(OpCall), 0,
				byte(OpReturn),
			},
		},
	}
	_, err := New(mod).Run()
	if err == nil {
		t.Fatal("expected a stack overflow error")
	}
}

func errorsAs(err error, target **RuntimeError) bool {
	if re, ok := err.(*RuntimeError); ok {
		*target = re
		return true
	}
	return false
}
