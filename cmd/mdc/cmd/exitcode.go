package cmd

import (
	"errors"

	"github.com/cwbudde/machine-dialect/internal/bytecode"
)

// Exit codes follow the convention a shell pipeline expects: success is
// always 0, and the remaining codes let a caller tell a bad program
// from a broken environment without parsing stderr.
const (
	ExitOK           = 0
	ExitCompileError = 1
	ExitRuntimeError = 2
	ExitIOError      = 3
)

// compileError marks a lex/parse failure so ExitCodeFor can map it to
// ExitCompileError without the caller's error value needing to carry
// that information itself.
type compileError struct{ err error }

func (e *compileError) Error() string { return e.err.Error() }
func (e *compileError) Unwrap() error { return e.err }

// ioError marks a file-system or serialization failure.
type ioError struct{ err error }

func (e *ioError) Error() string { return e.err.Error() }
func (e *ioError) Unwrap() error { return e.err }

// ExitCodeFor classifies err into one of the four process exit codes.
// A *bytecode.RuntimeError surfaces from the VM directly, so it doesn't
// need a wrapper type the way compile and I/O failures do.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var ce *compileError
	if errors.As(err, &ce) {
		return ExitCompileError
	}
	var ie *ioError
	if errors.As(err, &ie) {
		return ExitIOError
	}
	var re *bytecode.RuntimeError
	if errors.As(err, &re) {
		return ExitRuntimeError
	}
	return ExitCompileError
}
