package bytecode

import (
	"bytes"
	"testing"

	"github.com/cwbudde/machine-dialect/internal/mir"
)

func TestCompileDeduplicatesIdenticalConstants(t *testing.T) {
	fn := &mir.Function{Name: "main", Entry: "entry"}
	entry := &mir.BasicBlock{Label: "entry"}
	a := fn.NewTemp()
	entry.Instrs = append(entry.Instrs, mir.Instruction{
		Op: mir.OpBinary, Dest: a, Operator: "+",
		Left:  mir.ConstValue(mir.Const{Kind: mir.ConstInt, I: 7}),
		Right: mir.ConstValue(mir.Const{Kind: mir.ConstInt, I: 7}),
	})
	entry.Term = mir.Instruction{Op: mir.OpReturn, Operand: a}
	fn.Blocks = append(fn.Blocks, entry)

	mod := Compile(&mir.Module{Functions: []*mir.Function{fn}}, "dedup")

	count := 0
	for _, c := range mod.Constants {
		if c.Tag == ConstInt && c.Int == 7 {
			count++
		}
	}
	if count != 1 {
		t.Errorf("constant pool has %d entries for Int(7), want 1 (deduplicated)", count)
	}
}

func TestCompilePrunesUnreachableBlocksFromCode(t *testing.T) {
	fn := &mir.Function{Name: "main", Entry: "entry"}
	entry := &mir.BasicBlock{Label: "entry"}
	entry.Term = mir.Instruction{Op: mir.OpReturn, Operand: mir.ConstValue(mir.Const{Kind: mir.ConstInt, I: 1})}
	dead := &mir.BasicBlock{Label: "dead"}
	dead.Term = mir.Instruction{Op: mir.OpReturn, Operand: mir.ConstValue(mir.Const{Kind: mir.ConstInt, I: 2})}
	fn.Blocks = append(fn.Blocks, entry, dead)

	mod := Compile(&mir.Module{Functions: []*mir.Function{fn}}, "prune")

	for _, c := range mod.Constants {
		if c.Tag == ConstInt && c.Int == 2 {
			t.Error("unreachable block's constant leaked into the pool")
		}
	}
}

func TestCompileGlobalsBindEveryNamedFunction(t *testing.T) {
	greet := &mir.Function{Name: "greet", Entry: "entry"}
	entry := &mir.BasicBlock{Label: "entry"}
	entry.Term = mir.Instruction{Op: mir.OpReturn, Operand: mir.ConstValue(mir.Const{Kind: mir.ConstEmpty})}
	greet.Blocks = append(greet.Blocks, entry)
	main := &mir.Function{Name: "main", Entry: "entry"}
	mEntry := &mir.BasicBlock{Label: "entry"}
	mEntry.Term = mir.Instruction{Op: mir.OpReturn, Operand: mir.ConstValue(mir.Const{Kind: mir.ConstEmpty})}
	main.Blocks = append(main.Blocks, mEntry)

	mod := Compile(&mir.Module{Functions: []*mir.Function{greet, main}}, "globals")

	if len(mod.Globals) != 1 {
		t.Fatalf("Globals = %+v, want exactly one entry (for greet, not main)", mod.Globals)
	}
	if mod.Strings[mod.Globals[0].NameIdx] != "greet" {
		t.Errorf("global name = %q, want greet", mod.Strings[mod.Globals[0].NameIdx])
	}
}

// TestCompileCallDispatchesBuiltinByName guards the OpCall codegen split
// between user globals and built-ins: a callee with no matching global
// must be pushed as a constant string so the VM's dispatch routes it
// through the builtins map instead of silently calling whatever function
// happens to live at global slot 0.
func TestCompileCallDispatchesBuiltinByName(t *testing.T) {
	main := &mir.Function{Name: "main", Entry: "entry"}
	entry := &mir.BasicBlock{Label: "entry"}
	dest := main.NewTemp()
	entry.Instrs = append(entry.Instrs, mir.Instruction{
		Op: mir.OpCall, Dest: dest, Callee: "print",
		Args: []mir.Value{mir.ConstValue(mir.Const{Kind: mir.ConstString, S: "hi from a builtin call"})},
	})
	entry.Term = mir.Instruction{Op: mir.OpReturn, Operand: mir.ConstValue(mir.Const{Kind: mir.ConstEmpty})}
	main.Blocks = append(main.Blocks, entry)

	mod := Compile(&mir.Module{Functions: []*mir.Function{main}}, "builtin_call")

	var out bytes.Buffer
	vm := New(mod)
	vm.Output = &out
	if _, err := vm.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out.String(); got != "hi from a builtin call\n" {
		t.Errorf("output = %q, want %q", got, "hi from a builtin call\n")
	}
}
