package bytecode

import (
	"fmt"

	"github.com/cwbudde/machine-dialect/internal/errors"
	"github.com/cwbudde/machine-dialect/internal/lexer"
)

// RuntimeError represents an error that occurred while executing bytecode.
// It includes a stack trace for easier debugging.
type RuntimeError struct {
	Message string
	Trace   errors.StackTrace
}

// Error implements the error interface.
func (r *RuntimeError) Error() string {
	if r == nil {
		return "<nil>"
	}
	if len(r.Trace) == 0 {
		return r.Message
	}
	return fmt.Sprintf("%s\nStack trace:\n%s", r.Message, r.Trace.String())
}

// Kind reports that a RuntimeError comes from the VM.
func (r *RuntimeError) Kind() errors.Category { return errors.Runtime }

// Code identifies a RuntimeError programmatically. The VM doesn't yet
// assign individual codes per failure mode, so every runtime error shares
// one code.
func (r *RuntimeError) Code() string { return "E_RUNTIME" }

// Position returns the location of the innermost stack frame, or the zero
// Position if the error carries no trace.
func (r *RuntimeError) Position() lexer.Position {
	top := r.Trace.Top()
	if top == nil || top.Position == nil {
		return lexer.Position{}
	}
	return *top.Position
}
