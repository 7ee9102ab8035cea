package errors

import "github.com/cwbudde/machine-dialect/internal/lexer"

// Category classifies which pipeline stage raised a Diagnostic.
type Category int

const (
	Lexical Category = iota
	Syntactic
	Semantic
	Runtime
)

func (c Category) String() string {
	switch c {
	case Lexical:
		return "lexical"
	case Syntactic:
		return "syntactic"
	case Semantic:
		return "semantic"
	case Runtime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Diagnostic is the common shape every pipeline-stage error satisfies, so
// the CLI's error-reporting path doesn't need to know which stage produced
// a given failure. CompilerError and bytecode.RuntimeError implement it
// directly; lexer.LexerError reaches it through FromLexError and
// parser.ParserError through its Diagnostic method.
type Diagnostic interface {
	Kind() Category
	Code() string
	Position() lexer.Position
	Error() string
}

// Kind reports the diagnostic category for a CompilerError: lowering and
// other post-parse semantic failures are reported through CompilerError,
// so it carries the Semantic kind.
func (e *CompilerError) Kind() Category { return Semantic }

// Code identifies a CompilerError programmatically. CompilerError wraps
// messages from several semantic passes that don't yet assign individual
// codes, so it reports one shared code.
func (e *CompilerError) Code() string { return "E_SEMANTIC" }

// Position returns the source location the error was reported at.
func (e *CompilerError) Position() lexer.Position { return e.Pos }

// lexicalDiagnostic adapts a lexer.LexerError to Diagnostic without making
// package lexer depend on package errors (errors already depends on lexer
// for lexer.Position, so the reverse import would cycle).
type lexicalDiagnostic struct {
	err lexer.LexerError
}

// FromLexError wraps a lexer.LexerError as a Diagnostic.
func FromLexError(e lexer.LexerError) Diagnostic { return lexicalDiagnostic{err: e} }

func (d lexicalDiagnostic) Kind() Category           { return Lexical }
func (d lexicalDiagnostic) Code() string             { return "E_LEXICAL" }
func (d lexicalDiagnostic) Position() lexer.Position { return d.err.Pos }
func (d lexicalDiagnostic) Error() string            { return d.err.Error() }
