package parser

import (
	"fmt"

	"github.com/cwbudde/machine-dialect/internal/errors"
	"github.com/cwbudde/machine-dialect/internal/lexer"
)

// ParserError represents a structured parsing error with position information.
type ParserError struct {
	Message string
	Code    string
	Pos     lexer.Position
	Length  int
}

// Error implements the error interface.
func (e *ParserError) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.Message, e.Pos.Line, e.Pos.Column)
}

// syntacticDiagnostic adapts a *ParserError to errors.Diagnostic. ParserError
// already has a field named Code, so it can't grow a Code() method itself;
// wrapping it here keeps the field and the interface both available.
type syntacticDiagnostic struct {
	err *ParserError
}

// Diagnostic returns e as an errors.Diagnostic.
func (e *ParserError) Diagnostic() errors.Diagnostic { return syntacticDiagnostic{err: e} }

func (d syntacticDiagnostic) Kind() errors.Category    { return errors.Syntactic }
func (d syntacticDiagnostic) Code() string             { return d.err.Code }
func (d syntacticDiagnostic) Position() lexer.Position { return d.err.Pos }
func (d syntacticDiagnostic) Error() string            { return d.err.Error() }

// NewParserError creates a new ParserError with the given parameters.
func NewParserError(pos lexer.Position, length int, message, code string) *ParserError {
	return &ParserError{
		Message: message,
		Pos:     pos,
		Length:  length,
		Code:    code,
	}
}

// Error code constants for programmatic error handling.
const (
	ErrUnexpectedToken   = "E_UNEXPECTED_TOKEN"
	ErrMissingPeriod     = "E_MISSING_PERIOD"
	ErrMissingTo         = "E_MISSING_TO"
	ErrMissingThen       = "E_MISSING_THEN"
	ErrMissingColon      = "E_MISSING_COLON"
	ErrMissingRParen     = "E_MISSING_RPAREN"
	ErrInvalidExpression = "E_INVALID_EXPRESSION"
	ErrNoPrefixParse     = "E_NO_PREFIX_PARSE"
	ErrExpectedIdent     = "E_EXPECTED_IDENT"
	ErrInvalidSyntax     = "E_INVALID_SYNTAX"
	ErrDuplicateNamedArg = "E_DUPLICATE_NAMED_ARG"
	ErrMisplacedNamedArg = "E_MISPLACED_NAMED_ARG"
	ErrMalformedHeader   = "E_MALFORMED_HEADER"
)
