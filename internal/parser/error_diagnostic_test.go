package parser

import (
	"testing"

	"github.com/cwbudde/machine-dialect/internal/errors"
	"github.com/cwbudde/machine-dialect/internal/lexer"
)

func TestParserErrorDiagnosticSatisfiesInterface(t *testing.T) {
	pe := NewParserError(lexer.Position{Line: 2, Column: 7}, 1, "unexpected token", ErrUnexpectedToken)

	var d errors.Diagnostic = pe.Diagnostic()
	if d.Kind() != errors.Syntactic {
		t.Errorf("Kind() = %v, want Syntactic", d.Kind())
	}
	if d.Code() != ErrUnexpectedToken {
		t.Errorf("Code() = %q, want %q", d.Code(), ErrUnexpectedToken)
	}
	if d.Position() != pe.Pos {
		t.Errorf("Position() = %+v, want %+v", d.Position(), pe.Pos)
	}
	if d.Error() != pe.Error() {
		t.Errorf("Error() = %q, want %q", d.Error(), pe.Error())
	}
}
