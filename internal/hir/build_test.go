package hir

import (
	"testing"

	"github.com/cwbudde/machine-dialect/internal/lexer"
	"github.com/cwbudde/machine-dialect/internal/parser"
)

func buildProgram(t *testing.T, input string) *Program {
	t.Helper()
	l := lexer.New(input)
	p := parser.New(l)
	astProg := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	return Build(astProg)
}

func TestBuildSetStatementInfersIntType(t *testing.T) {
	prog := buildProgram(t, "Set `score` to _42_.")

	stmt, ok := prog.Statements[0].(*SetStmt)
	if !ok {
		t.Fatalf("statement is not *SetStmt, got %T", prog.Statements[0])
	}
	if stmt.Name != "score" {
		t.Errorf("Name = %q, want %q", stmt.Name, "score")
	}
	if stmt.Value.TypeHint() != Int {
		t.Errorf("Value.TypeHint() = %s, want Int", stmt.Value.TypeHint())
	}
}

func TestBuildIdentifierCarriesAssignedType(t *testing.T) {
	prog := buildProgram(t, "Set `score` to _42_.\nGive back `score`.")

	ret, ok := prog.Statements[1].(*ReturnStmt)
	if !ok {
		t.Fatalf("statement is not *ReturnStmt, got %T", prog.Statements[1])
	}
	ident, ok := ret.Value.(*Ident)
	if !ok {
		t.Fatalf("ReturnStmt.Value is not *Ident, got %T", ret.Value)
	}
	if ident.Hint != Int {
		t.Errorf("Hint = %s, want Int", ident.Hint)
	}
}

func TestBuildTernaryDesugarsToIfExpr(t *testing.T) {
	prog := buildProgram(t, `Give back _"big"_ if `+"`x`"+` is greater than _10_ else _"small"_.`)

	ret, ok := prog.Statements[0].(*ReturnStmt)
	if !ok {
		t.Fatalf("statement is not *ReturnStmt, got %T", prog.Statements[0])
	}
	ifExpr, ok := ret.Value.(*IfExpr)
	if !ok {
		t.Fatalf("ReturnStmt.Value is not *IfExpr, got %T", ret.Value)
	}
	if ifExpr.TypeHint() != String {
		t.Errorf("IfExpr.TypeHint() = %s, want String (both arms are strings)", ifExpr.TypeHint())
	}
	cond, ok := ifExpr.Cond.(*BinaryOp)
	if !ok {
		t.Fatalf("Cond is not *BinaryOp, got %T", ifExpr.Cond)
	}
	if cond.Op != "is greater than" {
		t.Errorf("Cond.Op = %q, want %q", cond.Op, "is greater than")
	}
}

func TestBuildBareIsNormalizesToEquals(t *testing.T) {
	prog := buildProgram(t, "Give back `x` is _5_.")

	ret := prog.Statements[0].(*ReturnStmt)
	bin, ok := ret.Value.(*BinaryOp)
	if !ok {
		t.Fatalf("ReturnStmt.Value is not *BinaryOp, got %T", ret.Value)
	}
	if bin.Op != "equals" {
		t.Errorf("Op = %q, want %q (bare 'is' normalises to 'equals')", bin.Op, "equals")
	}
	if bin.Hint != Bool {
		t.Errorf("Hint = %s, want Bool", bin.Hint)
	}
}

func TestBuildActionHoistsToFunction(t *testing.T) {
	src := "### **Action**: `greet`\n" +
		"#### Inputs\n" +
		"> `name`.\n" +
		">Say `name`.\n"
	prog := buildProgram(t, src)

	if len(prog.Functions) != 1 {
		t.Fatalf("want 1 hoisted function, got %d", len(prog.Functions))
	}
	fn := prog.Functions[0]
	if fn.Name != "greet" {
		t.Errorf("Name = %q, want %q", fn.Name, "greet")
	}
	if fn.Public {
		t.Errorf("Public = true, want false for an Action")
	}
	if len(fn.Inputs) != 1 || fn.Inputs[0].Name != "name" {
		t.Fatalf("Inputs = %+v, want one param named %q", fn.Inputs, "name")
	}
	if len(fn.Body.Statements) != 1 {
		t.Fatalf("Body.Statements = %d, want 1", len(fn.Body.Statements))
	}
	if _, ok := fn.Body.Statements[0].(*SayStmt); !ok {
		t.Errorf("Body.Statements[0] is not *SayStmt, got %T", fn.Body.Statements[0])
	}
}

func TestBuildUnterminatedSetStillYieldsStatements(t *testing.T) {
	l := lexer.New("Set `x` to .\nGive back `x`.")
	p := parser.New(l)
	astProg := p.ParseProgram()
	prog := Build(astProg)

	if len(prog.Statements) == 0 {
		t.Fatalf("expected at least one statement to survive lowering")
	}
}
