package parser

import (
	"testing"

	"github.com/cwbudde/machine-dialect/internal/ast"
	"github.com/cwbudde/machine-dialect/internal/lexer"
)

// testParse parses input and fails the test if any parser errors occur.
func testParse(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, errors := testParseWithErrors(t, input)
	if len(errors) > 0 {
		t.Fatalf("parsing errors: %v", errors)
	}
	return program
}

// testParseWithErrors parses input without failing on errors, so callers
// can assert on recovered ErrorStatement/ErrorExpression nodes.
func testParseWithErrors(t *testing.T, input string) (*ast.Program, []*ParserError) {
	t.Helper()
	l := lexer.New(input)
	p := New(l)
	program := p.ParseProgram()
	return program, p.Errors()
}

func TestSetStatement(t *testing.T) {
	program := testParse(t, "Set `score` to _42_.")

	if len(program.Statements) != 1 {
		t.Fatalf("program has wrong number of statements. got=%d", len(program.Statements))
	}

	stmt, ok := program.Statements[0].(*ast.SetStatement)
	if !ok {
		t.Fatalf("statement is not ast.SetStatement. got=%T", program.Statements[0])
	}
	if stmt.Name.Value != "score" {
		t.Errorf("stmt.Name.Value = %q, want %q", stmt.Name.Value, "score")
	}
	lit, ok := stmt.Value.(*ast.IntegerLiteral)
	if !ok {
		t.Fatalf("stmt.Value is not ast.IntegerLiteral. got=%T", stmt.Value)
	}
	if lit.Value != 42 {
		t.Errorf("lit.Value = %d, want 42", lit.Value)
	}
}

func TestReturnStatement(t *testing.T) {
	program := testParse(t, "Give back _\"done\"_.")

	stmt, ok := program.Statements[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("statement is not ast.ReturnStatement. got=%T", program.Statements[0])
	}
	lit, ok := stmt.ReturnValue.(*ast.StringLiteral)
	if !ok {
		t.Fatalf("ReturnValue is not ast.StringLiteral. got=%T", stmt.ReturnValue)
	}
	if lit.Value != "done" {
		t.Errorf("lit.Value = %q, want %q", lit.Value, "done")
	}
}

func TestReturnStatementNoValue(t *testing.T) {
	program := testParse(t, "Give back.")

	stmt, ok := program.Statements[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("statement is not ast.ReturnStatement. got=%T", program.Statements[0])
	}
	if stmt.ReturnValue != nil {
		t.Errorf("ReturnValue = %v, want nil", stmt.ReturnValue)
	}
}

func TestSayStatement(t *testing.T) {
	program := testParse(t, "Say _\"hello\"_.")

	stmt, ok := program.Statements[0].(*ast.SayStatement)
	if !ok {
		t.Fatalf("statement is not ast.SayStatement. got=%T", program.Statements[0])
	}
	lit, ok := stmt.Value.(*ast.StringLiteral)
	if !ok {
		t.Fatalf("Value is not ast.StringLiteral. got=%T", stmt.Value)
	}
	if lit.Value != "hello" {
		t.Errorf("lit.Value = %q, want %q", lit.Value, "hello")
	}
}

func TestCallStatementPositionalAndNamed(t *testing.T) {
	program := testParse(t, "Call `greet` with _\"Bob\"_, formal: _Yes_.")

	stmt, ok := program.Statements[0].(*ast.CallStatement)
	if !ok {
		t.Fatalf("statement is not ast.CallStatement. got=%T", program.Statements[0])
	}
	if stmt.Name.Value != "greet" {
		t.Errorf("stmt.Name.Value = %q, want %q", stmt.Name.Value, "greet")
	}
	if len(stmt.Args.Positional) != 1 {
		t.Fatalf("want 1 positional arg, got %d", len(stmt.Args.Positional))
	}
	if len(stmt.Args.Named) != 1 {
		t.Fatalf("want 1 named arg, got %d", len(stmt.Args.Named))
	}
	if stmt.Args.Named[0].Name.Value != "formal" {
		t.Errorf("named arg name = %q, want %q", stmt.Args.Named[0].Name.Value, "formal")
	}
}

func TestCallStatementDuplicateNamedArgIsDiagnostic(t *testing.T) {
	_, errors := testParseWithErrors(t, "Call `greet` with name: _\"A\"_, name: _\"B\"_.")
	if len(errors) == 0 {
		t.Fatalf("expected a diagnostic for duplicate named argument, got none")
	}
	found := false
	for _, e := range errors {
		if e.Code == ErrDuplicateNamedArg {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s among errors, got %v", ErrDuplicateNamedArg, errors)
	}
}

func TestInfixPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Give back _1_ + _2_ * _3_.", "(_1_ + (_2_ * _3_))"},
		{"Give back (_1_ + _2_) * _3_.", "((_1_ + _2_) * _3_)"},
		{"Give back _1_ is greater than _2_ and _3_ is less than _4_.", "((_1_ is greater than _2_) and (_3_ is less than _4_))"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := testParse(t, tt.input)
			stmt, ok := program.Statements[0].(*ast.ReturnStatement)
			if !ok {
				t.Fatalf("statement is not ast.ReturnStatement. got=%T", program.Statements[0])
			}
			if got := stmt.ReturnValue.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConditionalExpression(t *testing.T) {
	program := testParse(t, "Give back _\"big\"_ if `x` is greater than _10_ else _\"small\"_.")

	stmt, ok := program.Statements[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("statement is not ast.ReturnStatement. got=%T", program.Statements[0])
	}
	cond, ok := stmt.ReturnValue.(*ast.ConditionalExpression)
	if !ok {
		t.Fatalf("ReturnValue is not ast.ConditionalExpression. got=%T", stmt.ReturnValue)
	}
	if cond.Consequence.String() != `_"big"_` {
		t.Errorf("Consequence = %s, want _\"big\"_", cond.Consequence.String())
	}
	if cond.Alternative.String() != `_"small"_` {
		t.Errorf("Alternative = %s, want _\"small\"_", cond.Alternative.String())
	}
}

func TestPrefixExpressions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Give back -_5_.", "(-_5_)"},
		{"Give back not _Yes_.", "(not Yes)"},
	}
	for _, tt := range tests {
		program := testParse(t, tt.input)
		stmt := program.Statements[0].(*ast.ReturnStatement)
		if got := stmt.ReturnValue.String(); got != tt.want {
			t.Errorf("input %q: got %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestUnterminatedSetRecoversWithErrorStatement(t *testing.T) {
	program, errors := testParseWithErrors(t, "Set `x` to .\nGive back `x`.")
	if len(errors) == 0 {
		t.Fatalf("expected at least one parser error")
	}
	if len(program.Statements) == 0 {
		t.Fatalf("expected recovery to still produce statements")
	}
}
