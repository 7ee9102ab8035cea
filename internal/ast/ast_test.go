package ast

import (
	"testing"

	"github.com/cwbudde/machine-dialect/internal/lexer"
)

func tok(typ lexer.TokenType, lit string) lexer.Token {
	return lexer.Token{Type: typ, Literal: lit, Pos: lexer.Position{Line: 1, Column: 1}}
}

func TestProgramString(t *testing.T) {
	prog := &Program{
		Statements: []Statement{
			&SetStatement{
				Token: tok(lexer.SET, "Set"),
				Name:  &Identifier{Token: tok(lexer.IDENT, "x"), Value: "x"},
				Value: &IntegerLiteral{Token: tok(lexer.INT, "5"), Value: 5},
			},
		},
	}

	want := "Set `x` to _5_.\n"
	if prog.String() != want {
		t.Errorf("String() = %q, want %q", prog.String(), want)
	}
}

func TestInfixExpressionString(t *testing.T) {
	expr := &InfixExpression{
		Token:    tok(lexer.PLUS, "+"),
		Left:     &IntegerLiteral{Token: tok(lexer.INT, "1"), Value: 1},
		Operator: "+",
		Right:    &IntegerLiteral{Token: tok(lexer.INT, "2"), Value: 2},
	}
	if got, want := expr.String(), "(_1_ + _2_)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestCallArgumentsString(t *testing.T) {
	args := &CallArguments{
		Positional: []Expression{&StringLiteral{Token: tok(lexer.STRING, "Bob"), Value: "Bob"}},
		Named: []NamedArgument{
			{Name: &Identifier{Value: "formal"}, Value: &BooleanLiteral{Token: tok(lexer.BOOL, "Yes"), Value: true}},
		},
	}
	want := `_"Bob"_, formal: Yes`
	if got := args.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestNilCallArgumentsStringIsEmpty(t *testing.T) {
	var args *CallArguments
	if got := args.String(); got != "" {
		t.Errorf("nil CallArguments.String() = %q, want empty", got)
	}
}

func TestBlockStatementDepthPrefixesLines(t *testing.T) {
	block := &BlockStatement{
		Token: tok(lexer.BLOCK_MARKER, ">"),
		Depth: 2,
		Statements: []Statement{
			&SayStatement{Token: tok(lexer.SAY, "Say"), Value: &EmptyLiteral{Token: tok(lexer.EMPTY, "empty")}},
		},
	}
	want := "> > Say _empty_.\n"
	if got := block.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
