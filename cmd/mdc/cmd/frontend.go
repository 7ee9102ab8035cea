package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/machine-dialect/internal/bytecode"
	"github.com/cwbudde/machine-dialect/internal/errors"
	"github.com/cwbudde/machine-dialect/internal/hir"
	"github.com/cwbudde/machine-dialect/internal/lexer"
	"github.com/cwbudde/machine-dialect/internal/lower"
	"github.com/cwbudde/machine-dialect/internal/optimize"
	"github.com/cwbudde/machine-dialect/internal/parser"
	"github.com/cwbudde/machine-dialect/internal/source"
)

// readInput loads a document from a file path, or from evalExpr when
// non-empty, and separates any frontmatter block from the runnable body.
func readInput(path, evalExpr string) (body, filename string, err error) {
	if evalExpr != "" {
		return evalExpr, "<eval>", nil
	}
	content, readErr := os.ReadFile(path)
	if readErr != nil {
		return "", "", &ioError{fmt.Errorf("reading %s: %w", path, readErr)}
	}
	doc, parseErr := source.Parse(string(content))
	if parseErr != nil {
		return "", "", &ioError{parseErr}
	}
	return doc.Body, path, nil
}

// compileToModule runs the full lexer through bytecode-compiler pipeline
// and reports lexical/syntactic failures as a *compileError so callers
// and ExitCodeFor agree on exit status 1.
func compileToModule(body, filename string, level optimize.Level, moduleName string) (*bytecode.Module, error) {
	l := lexer.New(body)
	p := parser.New(l)
	astProg := p.ParseProgram()

	if errs := p.Errors(); len(errs) > 0 {
		compilerErrors := make([]*errors.CompilerError, 0, len(errs))
		for _, perr := range errs {
			compilerErrors = append(compilerErrors, errors.NewCompilerError(perr.Pos, perr.Message, body, filename))
		}
		fmt.Fprint(os.Stderr, errors.FormatErrors(compilerErrors, true))
		fmt.Fprintln(os.Stderr)
		return nil, &compileError{fmt.Errorf("parsing failed with %d error(s)", len(errs))}
	}

	mirMod := optimize.Optimize(lower.Lower(hir.Build(astProg)), level)
	return bytecode.Compile(mirMod, moduleName), nil
}
