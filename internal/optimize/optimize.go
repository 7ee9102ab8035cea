// Package optimize runs MIR-to-MIR passes: constant folding, dead-code
// elimination, and unreachable-block pruning, gated by an opt level.
// Grounded on the teacher's internal/bytecode/optimizer.go pass/option
// registration idiom, adapted to operate over MIR instructions instead
// of the teacher's post-codegen bytecode chunks.
package optimize

import "github.com/cwbudde/machine-dialect/internal/mir"

// Level selects how aggressively Optimize rewrites a module.
type Level int

const (
	None Level = iota
	Basic
	Aggressive
)

// Optimize rewrites every function in mod in place and returns it, for
// call-site chaining.
func Optimize(mod *mir.Module, level Level) *mir.Module {
	if level == None {
		return mod
	}
	for _, fn := range mod.Functions {
		optimizeFunction(fn, level)
	}
	return mod
}

func optimizeFunction(fn *mir.Function, level Level) {
	for {
		changed := foldConstants(fn)
		changed = pruneUnreachable(fn) || changed
		if level == Aggressive {
			changed = eliminateDeadCode(fn) || changed
		}
		if !changed {
			return
		}
	}
}

// foldConstants evaluates UnaryOp/BinaryOp/Compare instructions whose
// operands are already constants, replacing their Dest's later uses as
// an Operand/Left/Right or block-terminator operand with the folded
// Const, and rewriting the instruction itself into a degenerate
// LoadConst carrying the folded value as Operand (Call arguments and
// Phi edges keep reading the temp, which that LoadConst still defines).
// Division/modulo by a constant zero is left unfolded: it is a runtime
// error, not a compile-time one, so it must still execute and trap.
func foldConstants(fn *mir.Function) bool {
	changed := false
	folded := map[int]mir.Value{}
	subst := func(v *mir.Value) {
		if c, ok := folded[v.Temp]; ok && v.Kind == mir.ValTemp {
			*v, changed = c, true
		}
	}
	for _, blk := range fn.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			subst(&in.Operand)
			subst(&in.Left)
			subst(&in.Right)
			switch in.Op {
			case mir.OpLoadConst:
				folded[in.Dest.Temp] = in.Operand
			case mir.OpUnary:
				if v, ok := evalUnary(in.Operator, in.Operand); ok {
					*in = mir.Instruction{Op: mir.OpLoadConst, Dest: in.Dest, Operand: v}
					folded[in.Dest.Temp] = v
					changed = true
				}
			case mir.OpBinary, mir.OpCompare:
				if v, ok := evalBinary(in.Operator, in.Left, in.Right); ok {
					*in = mir.Instruction{Op: mir.OpLoadConst, Dest: in.Dest, Operand: v}
					folded[in.Dest.Temp] = v
					changed = true
				}
			}
		}
		subst(&blk.Term.Operand)
	}
	return changed
}

func evalUnary(op string, operand mir.Value) (mir.Value, bool) {
	if operand.Kind != mir.ValConst {
		return mir.Value{}, false
	}
	c := operand.Const
	switch op {
	case "not":
		if c.Kind != mir.ConstBool {
			return mir.Value{}, false
		}
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: !c.B}), true
	case "-":
		switch c.Kind {
		case mir.ConstInt:
			return mir.ConstValue(mir.Const{Kind: mir.ConstInt, I: -c.I}), true
		case mir.ConstFloat:
			return mir.ConstValue(mir.Const{Kind: mir.ConstFloat, F: -c.F}), true
		}
	}
	return mir.Value{}, false
}

func evalBinary(op string, l, r mir.Value) (mir.Value, bool) {
	if l.Kind != mir.ValConst || r.Kind != mir.ValConst {
		return mir.Value{}, false
	}
	lc, rc := l.Const, r.Const

	if op == "+" && lc.Kind == mir.ConstString && rc.Kind == mir.ConstString {
		return mir.ConstValue(mir.Const{Kind: mir.ConstString, S: lc.S + rc.S}), true
	}

	if isNumeric(lc) && isNumeric(rc) && op != "is strictly equal to" && op != "is not strictly equal to" {
		if lc.Kind == mir.ConstFloat || rc.Kind == mir.ConstFloat {
			return evalFloatBinary(op, asFloat(lc), asFloat(rc))
		}
		return evalIntBinary(op, lc.I, rc.I)
	}

	if op == "equals" {
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: constEqual(lc, rc)}), true
	}
	if op == "is not equal to" || op == "is not strictly equal to" {
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: !constEqual(lc, rc)}), true
	}
	if op == "is strictly equal to" {
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: constEqual(lc, rc)}), true
	}
	if (op == "and" || op == "or") && lc.Kind == mir.ConstBool && rc.Kind == mir.ConstBool {
		if op == "and" {
			return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: lc.B && rc.B}), true
		}
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: lc.B || rc.B}), true
	}
	return mir.Value{}, false
}

func isNumeric(c mir.Const) bool { return c.Kind == mir.ConstInt || c.Kind == mir.ConstFloat }
func asFloat(c mir.Const) float64 {
	if c.Kind == mir.ConstFloat {
		return c.F
	}
	return float64(c.I)
}

func evalIntBinary(op string, l, r int64) (mir.Value, bool) {
	switch op {
	case "+":
		return mir.ConstValue(mir.Const{Kind: mir.ConstInt, I: l + r}), true
	case "-":
		return mir.ConstValue(mir.Const{Kind: mir.ConstInt, I: l - r}), true
	case "*":
		return mir.ConstValue(mir.Const{Kind: mir.ConstInt, I: l * r}), true
	case "/":
		if r == 0 {
			return mir.Value{}, false // leave in place: runtime divide-by-zero trap
		}
		return mir.ConstValue(mir.Const{Kind: mir.ConstInt, I: l / r}), true
	case "equals":
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: l == r}), true
	case "is strictly equal to":
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: l == r}), true
	case "is not equal to", "is not strictly equal to":
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: l != r}), true
	case "is greater than":
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: l > r}), true
	case "is less than":
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: l < r}), true
	case "is greater than or equal to":
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: l >= r}), true
	case "is less than or equal to":
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: l <= r}), true
	}
	return mir.Value{}, false
}

func evalFloatBinary(op string, l, r float64) (mir.Value, bool) {
	switch op {
	case "+":
		return mir.ConstValue(mir.Const{Kind: mir.ConstFloat, F: l + r}), true
	case "-":
		return mir.ConstValue(mir.Const{Kind: mir.ConstFloat, F: l - r}), true
	case "*":
		return mir.ConstValue(mir.Const{Kind: mir.ConstFloat, F: l * r}), true
	case "/":
		if r == 0 {
			return mir.Value{}, false
		}
		return mir.ConstValue(mir.Const{Kind: mir.ConstFloat, F: l / r}), true
	case "equals", "is strictly equal to":
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: l == r}), true
	case "is not equal to", "is not strictly equal to":
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: l != r}), true
	case "is greater than":
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: l > r}), true
	case "is less than":
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: l < r}), true
	case "is greater than or equal to":
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: l >= r}), true
	case "is less than or equal to":
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: l <= r}), true
	}
	return mir.Value{}, false
}

func constEqual(a, b mir.Const) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case mir.ConstInt:
		return a.I == b.I
	case mir.ConstFloat:
		return a.F == b.F
	case mir.ConstString, mir.ConstURL:
		return a.S == b.S
	case mir.ConstBool:
		return a.B == b.B
	default:
		return true // Empty == Empty
	}
}

// pruneUnreachable drops every block not reachable from the function's
// entry by walking Jump/CondJump/Return terminators.
func pruneUnreachable(fn *mir.Function) bool {
	reachable := map[string]bool{fn.Entry: true}
	work := []string{fn.Entry}
	for len(work) > 0 {
		label := work[len(work)-1]
		work = work[:len(work)-1]
		blk := fn.Block(label)
		if blk == nil {
			continue
		}
		for _, target := range []string{blk.Term.Target, blk.Term.IfTrue, blk.Term.IfFalse} {
			if target != "" && !reachable[target] {
				reachable[target] = true
				work = append(work, target)
			}
		}
	}

	if len(reachable) == len(fn.Blocks) {
		return false
	}
	kept := make([]*mir.BasicBlock, 0, len(reachable))
	for _, blk := range fn.Blocks {
		if reachable[blk.Label] {
			kept = append(kept, blk)
		}
	}
	fn.Blocks = kept
	return true
}

// eliminateDeadCode removes instructions whose Dest temp is never read
// by any later instruction, terminator operand, or Phi edge, and which
// have no side effect of their own (Call and Print always survive: a
// call may have side effects the optimizer cannot see into, and Print
// is definitionally a side effect).
func eliminateDeadCode(fn *mir.Function) bool {
	used := map[int]bool{}
	markValue := func(v mir.Value) {
		if v.Kind == mir.ValTemp {
			used[v.Temp] = true
		}
	}
	for _, blk := range fn.Blocks {
		for _, in := range blk.Instrs {
			markValue(in.Operand)
			markValue(in.Left)
			markValue(in.Right)
			for _, a := range in.Args {
				markValue(a)
			}
			for _, e := range in.Edges {
				markValue(e.Value)
			}
		}
		markValue(blk.Term.Operand)
		markValue(blk.Term.Left)
		markValue(blk.Term.Right)
	}

	changed := false
	for _, blk := range fn.Blocks {
		kept := blk.Instrs[:0]
		for _, in := range blk.Instrs {
			if hasSideEffect(in.Op) || in.Dest.Kind != mir.ValTemp || used[in.Dest.Temp] {
				kept = append(kept, in)
				continue
			}
			changed = true
		}
		blk.Instrs = kept
	}
	return changed
}

func hasSideEffect(op mir.Op) bool {
	return op == mir.OpCall || op == mir.OpPrint || op == mir.OpStoreVar
}
