package bytecode

import (
	"testing"

	"github.com/cwbudde/machine-dialect/internal/hir"
	"github.com/cwbudde/machine-dialect/internal/lexer"
	"github.com/cwbudde/machine-dialect/internal/lower"
	"github.com/cwbudde/machine-dialect/internal/mir"
	"github.com/cwbudde/machine-dialect/internal/optimize"
	"github.com/cwbudde/machine-dialect/internal/parser"
)

// compileSource runs the full lexer→parser→HIR→MIR→optimize→bytecode
// pipeline and returns the resulting Module, failing the test on any
// parse error.
func compileSource(t *testing.T, src string, level optimize.Level) *Module {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l)
	astProg := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	mirMod := optimize.Optimize(lower.Lower(hir.Build(astProg)), level)
	return Compile(mirMod, "test")
}

func TestEndToEndArithmeticReturnsFoldedValue(t *testing.T) {
	mod := compileSource(t, "Set `x` to _2_ + _3_.\n`x`.\n", optimize.Basic)
	got, err := New(mod).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !got.IsInt() || got.I != 5 {
		t.Errorf("result = %+v, want Int(5)", got)
	}
}

func TestEndToEndIfPicksTakenBranch(t *testing.T) {
	src := "Set `x` to _0_.\n" +
		"If `x` is greater than _5_:\n" +
		"> Set `x` to _1_.\n" +
		"else:\n" +
		"> Set `x` to _2_.\n" +
		"`x`.\n"
	mod := compileSource(t, src, optimize.None)
	got, err := New(mod).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !got.IsInt() || got.I != 2 {
		t.Errorf("result = %+v, want Int(2) (else branch taken)", got)
	}
}

func TestEndToEndDivisionByZeroIsRuntimeError(t *testing.T) {
	mod := compileSource(t, "Set `x` to _1_ / _0_.\n`x`.\n", optimize.Basic)
	_, err := New(mod).Run()
	if err == nil {
		t.Fatal("expected a runtime error for division by zero")
	}
}

// buildCallModule hand-builds a MIR module where main calls a hoisted
// function "greet" and returns its result, so codegen and the VM's call
// path are exercised end to end without going through the front end.
func buildCallModule() *mir.Module {
	greet := &mir.Function{Name: "greet", Entry: "entry"}
	entry := &mir.BasicBlock{Label: "entry"}
	entry.Term = mir.Instruction{Op: mir.OpReturn, Operand: mir.ConstValue(mir.Const{Kind: mir.ConstString, S: "hi"})}
	greet.Blocks = append(greet.Blocks, entry)

	main := &mir.Function{Name: "main", Entry: "entry"}
	mEntry := &mir.BasicBlock{Label: "entry"}
	dest := main.NewTemp()
	mEntry.Instrs = append(mEntry.Instrs, mir.Instruction{Op: mir.OpCall, Dest: dest, Callee: "greet"})
	mEntry.Term = mir.Instruction{Op: mir.OpReturn, Operand: dest}
	main.Blocks = append(main.Blocks, mEntry)

	return &mir.Module{Functions: []*mir.Function{greet, main}}
}

func TestEndToEndCallsHoistedFunction(t *testing.T) {
	mod := Compile(buildCallModule(), "test")
	got, err := New(mod).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !got.IsString() || got.AsString() != "hi" {
		t.Errorf("result = %+v, want String(hi)", got)
	}
}
