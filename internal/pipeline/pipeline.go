// Package pipeline is the end-to-end test oracle: it drives a Machine
// Dialect document through every stage (lexer, parser, HIR, MIR,
// optimizer, bytecode compiler, VM) and hands back the VM's result, so
// integration tests can assert on program behaviour instead of on any
// one stage's intermediate shape.
package pipeline

import (
	"bytes"
	"fmt"

	"github.com/cwbudde/machine-dialect/internal/bytecode"
	"github.com/cwbudde/machine-dialect/internal/hir"
	"github.com/cwbudde/machine-dialect/internal/lexer"
	"github.com/cwbudde/machine-dialect/internal/lower"
	"github.com/cwbudde/machine-dialect/internal/optimize"
	"github.com/cwbudde/machine-dialect/internal/parser"
)

// T is the subset of *testing.T that RunScenario needs, so callers
// outside _test.go files could in principle drive it too.
type T interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RunScenario compiles source once per level in optLevels and runs it,
// failing the test if any stage errors, and failing if two levels
// disagree on the printed result — an optimizer pass changing program
// behaviour is itself a bug. It returns the last level's result.
func RunScenario(t T, source string, optLevels []int) bytecode.Value {
	t.Helper()

	var last bytecode.Value
	var lastOut string
	for i, lvl := range optLevels {
		l := lexer.New(source)
		p := parser.New(l)
		astProg := p.ParseProgram()
		if errs := p.Errors(); len(errs) > 0 {
			t.Fatalf("opt level %d: parse errors: %v", lvl, errs)
		}

		mirMod := optimize.Optimize(lower.Lower(hir.Build(astProg)), optimize.Level(lvl))
		mod := bytecode.Compile(mirMod, "scenario")

		var out bytes.Buffer
		vm := bytecode.New(mod)
		vm.Output = &out

		result, err := vm.Run()
		if err != nil {
			t.Fatalf("opt level %d: runtime error: %v", lvl, err)
		}

		resultStr := fmt.Sprintf("%v|%s", result, out.String())
		if i > 0 && resultStr != lastOut {
			t.Fatalf("opt level %d result diverges from level %d: %q vs %q", lvl, optLevels[i-1], resultStr, lastOut)
		}
		last, lastOut = result, resultStr
	}
	return last
}
