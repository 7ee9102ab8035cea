package pipeline

import (
	"strings"
	"testing"

	"github.com/cwbudde/machine-dialect/internal/lexer"
	"github.com/cwbudde/machine-dialect/internal/parser"
)

var allLevels = []int{0, 1, 2}

func TestArithmeticPrecedence(t *testing.T) {
	got := RunScenario(t, "Set `x` to _2_ + _3_ * _4_.\n`x`.\n", allLevels)
	if !got.IsInt() || got.I != 14 {
		t.Errorf("result = %+v, want Int(14) (product binds tighter than sum)", got)
	}
}

func TestMixedTypeEquality(t *testing.T) {
	got := RunScenario(t, "Set `x` to _1_ equals _1.0_.\n`x`.\n", allLevels)
	if !got.IsBool() || !got.B {
		t.Errorf("result = %+v, want Bool(true) (Int/Float equality widens)", got)
	}
}

func TestIfElseWithPhi(t *testing.T) {
	src := "Set `x` to _0_.\n" +
		"If `x` is greater than _5_:\n" +
		"> Set `x` to _1_.\n" +
		"else:\n" +
		"> Set `x` to _2_.\n" +
		"`x`.\n"
	got := RunScenario(t, src, allLevels)
	if !got.IsInt() || got.I != 2 {
		t.Errorf("result = %+v, want Int(2) (else branch taken, merged via Phi)", got)
	}
}

func TestShortCircuitAndSkipsRightOperand(t *testing.T) {
	// If "and" ever stopped short-circuiting, the right operand would
	// divide by zero and the VM would return a runtime error instead of
	// this result.
	got := RunScenario(t, "Set `x` to _false_ and _1_ / _0_ is greater than _0_.\n`x`.\n", allLevels)
	if !got.IsBool() || got.B {
		t.Errorf("result = %+v, want Bool(false)", got)
	}
}

func TestErrorRecoveryReportsAllSyntaxErrors(t *testing.T) {
	// Two independent malformed statements; panic-mode recovery should
	// surface both rather than stopping at the first.
	src := "Set `x` to .\nSet `y` to .\n"
	l := lexer.New(src)
	p := parser.New(l)
	p.ParseProgram()

	errs := p.Errors()
	if len(errs) < 2 {
		t.Fatalf("parse errors = %d, want at least 2 (one per malformed statement), got %v", len(errs), errs)
	}
	for _, e := range errs {
		if strings.TrimSpace(e.Message) == "" {
			t.Error("recovered parse error has an empty message")
		}
	}
}

// TestRecursionFibonacci runs a genuine recursive Fibonacci written in
// Machine Dialect source through the full pipeline: `Call` in expression
// position feeds a value straight back to its two Set statements, and
// the Action's own `Call` to itself is what exercises the recursion.
// The Action is declared last, after the code that invokes it.
func TestRecursionFibonacci(t *testing.T) {
	src := "Set `result` to Call `fib` with _10_.\n" +
		"`result`.\n" +
		"### **Action**: `fib`\n" +
		"#### Inputs\n" +
		"> `n`.\n" +
		"> If `n` is less than or equal to _1_ then:\n" +
		">> Give back `n`.\n" +
		"else:\n" +
		">> Set `a` to Call `fib` with `n` - _1_.\n" +
		">> Set `b` to Call `fib` with `n` - _2_.\n" +
		">> Give back `a` + `b`.\n"

	got := RunScenario(t, src, allLevels)
	if !got.IsInt() || got.I != 55 {
		t.Errorf("fib(10) = %+v, want Int(55)", got)
	}
}
