// Package lower performs HIR→MIR lowering: one pass per function that
// threads a name→Value environment through straight-line code and
// splits into basic blocks at every If, inserting a Phi wherever the
// two arms disagree on a name's value at the merge point. Machine
// Dialect has no loops, so every function's control-flow graph is a
// tree of diamonds — no back-edges, no iterative dataflow fixpoint is
// needed to place the Phis correctly in one forward pass. There is no
// pack precedent for this stage (see DESIGN.md); it is an original
// design grounded only in general SSA-construction practice.
package lower

import (
	"fmt"

	"github.com/cwbudde/machine-dialect/internal/hir"
	"github.com/cwbudde/machine-dialect/internal/lexer"
	"github.com/cwbudde/machine-dialect/internal/mir"
)

// env maps a source-level name to its current SSA value within the
// lowering of one straight-line stretch of code.
type env map[string]mir.Value

func (e env) clone() env {
	out := make(env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

type builder struct {
	fn       *mir.Function
	cur      *mir.BasicBlock
	blockSeq int
	sigs     map[string][]string // function name -> input param names, for named-arg resolution
}

func (b *builder) newBlock(prefix string) *mir.BasicBlock {
	b.blockSeq++
	blk := &mir.BasicBlock{Label: fmt.Sprintf("%s%d.%s", prefix, b.blockSeq, b.fn.Name)}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	return blk
}

func (b *builder) emit(instr mir.Instruction) mir.Value {
	b.cur.Instrs = append(b.cur.Instrs, instr)
	return instr.Dest
}

// Lower builds a Module from a Program: one Function per hoisted
// Action/Interaction, plus an implicit "main" for the top-level
// statements.
func Lower(prog *hir.Program) *mir.Module {
	sigs := make(map[string][]string)
	for _, fn := range prog.Functions {
		names := make([]string, 0, len(fn.Inputs))
		for _, p := range fn.Inputs {
			names = append(names, p.Name)
		}
		sigs[fn.Name] = names
	}

	mod := &mir.Module{}
	for _, fn := range prog.Functions {
		mod.Functions = append(mod.Functions, lowerFunction(fn, sigs))
	}
	mod.Functions = append(mod.Functions, lowerMain(prog, sigs))
	return mod
}

func lowerFunction(fn *hir.Function, sigs map[string][]string) *mir.Function {
	mfn := &mir.Function{Name: fn.Name, Public: fn.Public}
	for _, p := range fn.Inputs {
		mfn.Params = append(mfn.Params, p.Name)
	}
	b := &builder{fn: mfn, sigs: sigs}
	entry := b.newBlock("entry")
	mfn.Entry = entry.Label
	b.cur = entry

	e := make(env, len(fn.Inputs))
	for _, p := range fn.Inputs {
		e[p.Name] = mir.LocalValue(p.Name)
	}

	res := b.lowerStmts(fn.Body.Statements, e)
	if !res.terminated {
		b.cur.Term = mir.Instruction{Op: mir.OpReturn, Operand: mir.ConstValue(mir.Const{Kind: mir.ConstEmpty})}
	}
	return mfn
}

// lowerMain treats the top-level statement list as an implicit function
// returning the last expression statement's value, or Empty.
func lowerMain(prog *hir.Program, sigs map[string][]string) *mir.Function {
	mfn := &mir.Function{Name: "main"}
	b := &builder{fn: mfn, sigs: sigs}
	entry := b.newBlock("entry")
	mfn.Entry = entry.Label
	b.cur = entry

	var last mir.Value
	last = mir.ConstValue(mir.Const{Kind: mir.ConstEmpty})
	e := env{}
	res := b.lowerStmtsTracking(prog.Statements, e, &last)
	if !res.terminated {
		b.cur.Term = mir.Instruction{Op: mir.OpReturn, Operand: last}
	}
	return mfn
}

type blockResult struct {
	env        env
	terminated bool
}

func (b *builder) lowerStmts(stmts []hir.Stmt, e env) blockResult {
	var last mir.Value
	return b.lowerStmtsTracking(stmts, e, &last)
}

// lowerStmtsTracking is lowerStmts plus tracking of the last bare
// expression statement's value, which only lowerMain needs.
func (b *builder) lowerStmtsTracking(stmts []hir.Stmt, e env, last *mir.Value) blockResult {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *hir.SetStmt:
			val := b.lowerExpr(s.Value, e)
			b.emit(mir.Instruction{Op: mir.OpStoreVar, VarName: s.Name, Left: val})
			e[s.Name] = val

		case *hir.ReturnStmt:
			var val mir.Value
			if s.Value != nil {
				val = b.lowerExpr(s.Value, e)
			} else {
				val = mir.ConstValue(mir.Const{Kind: mir.ConstEmpty})
			}
			b.cur.Term = mir.Instruction{Op: mir.OpReturn, Operand: val}
			return blockResult{env: e, terminated: true}

		case *hir.SayStmt:
			val := b.lowerExpr(s.Value, e)
			b.emit(mir.Instruction{Op: mir.OpPrint, Operand: val})

		case *hir.CallStmt:
			args := b.resolveArgs(s.Name, s.Args, s.NamedArgs, e)
			b.emit(mir.Instruction{Op: mir.OpCall, Dest: b.fn.NewTemp(), Callee: s.Name, Args: args})

		case *hir.ExprStmt:
			*last = b.lowerExpr(s.Value, e)

		case *hir.IfStmt:
			mergedEnv, terminated := b.lowerIfStmt(s, e)
			e = mergedEnv
			if terminated {
				return blockResult{env: e, terminated: true}
			}

		case *hir.NoOpStmt:
			// recovered parse error; nothing to lower

		case *exprCarrier:
			e[ifExprResultSlot] = b.lowerExpr(s.val, e)

		default:
			// unreachable for a well-formed HIR tree
		}
	}
	return blockResult{env: e, terminated: false}
}

// lowerIfStmt lowers an If statement's two arms into their own blocks,
// joining at a merge block. It returns the merged environment and
// whether both arms terminate (e.g. both "give back"), in which case
// control cannot fall through past the If.
func (b *builder) lowerIfStmt(s *hir.IfStmt, e env) (env, bool) {
	condVal := b.lowerExpr(s.Cond, e)

	thenBlock := b.newBlock("then")
	var elseBlock *mir.BasicBlock
	mergeBlock := b.newBlock("merge")

	elseLabel := mergeBlock.Label
	if s.Alternative != nil {
		elseBlock = b.newBlock("else")
		elseLabel = elseBlock.Label
	}

	entry := b.cur
	entry.Term = mir.Instruction{Op: mir.OpCondJump, Operand: condVal, IfTrue: thenBlock.Label, IfFalse: elseLabel}

	b.cur = thenBlock
	thenRes := b.lowerStmts(s.Consequence.Statements, e.clone())
	thenExit := b.cur
	if !thenRes.terminated {
		thenExit.Term = mir.Instruction{Op: mir.OpJump, Target: mergeBlock.Label}
	}

	elseRes := blockResult{env: e, terminated: false}
	elseExit := entry
	if s.Alternative != nil {
		b.cur = elseBlock
		elseRes = b.lowerStmts(s.Alternative.Statements, e.clone())
		elseExit = b.cur
		if !elseRes.terminated {
			elseExit.Term = mir.Instruction{Op: mir.OpJump, Target: mergeBlock.Label}
		}
	}

	bothTerminated := thenRes.terminated && (s.Alternative == nil || elseRes.terminated)
	if bothTerminated {
		// Merge block is unreachable; leave it empty with no
		// predecessor (it stays in Blocks for a clean label sequence
		// but nothing jumps to it).
		b.cur = mergeBlock
		return e, true
	}

	b.cur = mergeBlock
	merged := e.clone()

	names := make(map[string]bool)
	for n := range thenRes.env {
		names[n] = true
	}
	for n := range elseRes.env {
		names[n] = true
	}

	thenReaches := !thenRes.terminated
	elseReaches := s.Alternative == nil || !elseRes.terminated
	emptyConst := mir.ConstValue(mir.Const{Kind: mir.ConstEmpty})

	for n := range names {
		thenVal, thenHas := thenRes.env[n]
		elseVal, elseHas := elseRes.env[n]

		switch {
		case thenReaches && elseReaches:
			if !thenHas && !elseHas {
				continue
			}
			if !thenHas {
				thenVal, thenHas = emptyConst, true
			}
			if !elseHas {
				elseVal, elseHas = emptyConst, true
			}
			if valuesEqual(thenVal, elseVal) {
				merged[n] = thenVal
				continue
			}
			dest := b.fn.NewTemp()
			b.emit(mir.Instruction{
				Op:   mir.OpPhi,
				Dest: dest,
				Edges: []mir.PhiEdge{
					{Block: thenExit.Label, Value: thenVal},
					{Block: elseExit.Label, Value: elseVal},
				},
			})
			if n != ifExprResultSlot {
				b.emit(mir.Instruction{Op: mir.OpStoreVar, VarName: n, Left: dest})
			}
			merged[n] = dest

		case thenReaches && !elseReaches:
			if thenHas {
				merged[n] = thenVal
			}

		case !thenReaches && elseReaches:
			if elseHas {
				merged[n] = elseVal
			}
		}
	}

	return merged, false
}

// lowerShortCircuit lowers "and"/"or" as a branch rather than a plain
// OpBinary: the right operand is only evaluated when it can change the
// result, matching boolean short-circuit semantics (an "and" whose left
// side is false never evaluates its right side, and likewise for an
// "or" whose left side is true). The two possible results merge through
// a Phi exactly like an If statement's two arms would.
func (b *builder) lowerShortCircuit(x *hir.BinaryOp, e env) mir.Value {
	left := b.lowerExpr(x.Left, e)

	rhsBlock := b.newBlock(x.Op + "_rhs")
	mergeBlock := b.newBlock(x.Op + "_merge")

	shortValue := mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: x.Op == "or"})

	entry := b.cur
	if x.Op == "and" {
		entry.Term = mir.Instruction{Op: mir.OpCondJump, Operand: left, IfTrue: rhsBlock.Label, IfFalse: mergeBlock.Label}
	} else {
		entry.Term = mir.Instruction{Op: mir.OpCondJump, Operand: left, IfTrue: mergeBlock.Label, IfFalse: rhsBlock.Label}
	}

	b.cur = rhsBlock
	right := b.lowerExpr(x.Right, e)
	rhsExit := b.cur
	rhsExit.Term = mir.Instruction{Op: mir.OpJump, Target: mergeBlock.Label}

	b.cur = mergeBlock
	dest := b.fn.NewTemp()
	b.emit(mir.Instruction{
		Op:   mir.OpPhi,
		Dest: dest,
		Edges: []mir.PhiEdge{
			{Block: entry.Label, Value: shortValue},
			{Block: rhsExit.Label, Value: right},
		},
	})
	return dest
}

func valuesEqual(a, b mir.Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case mir.ValLocal:
		return a.Name == b.Name
	case mir.ValTemp:
		return a.Temp == b.Temp
	default:
		return a.Const == b.Const
	}
}

func (b *builder) resolveArgs(callee string, positional []hir.Expr, named []hir.NamedArg, e env) []mir.Value {
	args := make([]mir.Value, 0, len(positional)+len(named))
	for _, p := range positional {
		args = append(args, b.lowerExpr(p, e))
	}
	if len(named) == 0 {
		return args
	}
	params, ok := b.sigs[callee]
	if !ok {
		for _, n := range named {
			args = append(args, b.lowerExpr(n.Value, e))
		}
		return args
	}
	byName := make(map[string]hir.Expr, len(named))
	for _, n := range named {
		byName[n.Name] = n.Value
	}
	for _, p := range params[len(positional):] {
		if expr, ok := byName[p]; ok {
			args = append(args, b.lowerExpr(expr, e))
		}
	}
	return args
}

var compareOps = map[string]bool{
	"equals": true, "is strictly equal to": true, "is not strictly equal to": true,
	"is not equal to": true,
	"is greater than": true, "is less than": true,
	"is greater than or equal to": true, "is less than or equal to": true,
}

func (b *builder) lowerExpr(expr hir.Expr, e env) mir.Value {
	switch x := expr.(type) {
	case *hir.IntLit:
		return mir.ConstValue(mir.Const{Kind: mir.ConstInt, I: x.Value})
	case *hir.FloatLit:
		return mir.ConstValue(mir.Const{Kind: mir.ConstFloat, F: x.Value})
	case *hir.StringLit:
		return mir.ConstValue(mir.Const{Kind: mir.ConstString, S: x.Value})
	case *hir.BoolLit:
		return mir.ConstValue(mir.Const{Kind: mir.ConstBool, B: x.Value})
	case *hir.UrlLit:
		return mir.ConstValue(mir.Const{Kind: mir.ConstURL, S: x.Value})
	case *hir.EmptyLit:
		return mir.ConstValue(mir.Const{Kind: mir.ConstEmpty})

	case *hir.Ident:
		if v, ok := e[x.Name]; ok {
			return v
		}
		dest := b.fn.NewTemp()
		b.emit(mir.Instruction{Op: mir.OpLoadVar, Dest: dest, VarName: x.Name})
		return dest

	case *hir.UnaryOp:
		operand := b.lowerExpr(x.Operand, e)
		dest := b.fn.NewTemp()
		return b.emit(mir.Instruction{Op: mir.OpUnary, Dest: dest, Operator: x.Op, Operand: operand})

	case *hir.BinaryOp:
		if x.Op == "and" || x.Op == "or" {
			return b.lowerShortCircuit(x, e)
		}
		left := b.lowerExpr(x.Left, e)
		right := b.lowerExpr(x.Right, e)
		op := mir.OpBinary
		if compareOps[x.Op] {
			op = mir.OpCompare
		}
		dest := b.fn.NewTemp()
		return b.emit(mir.Instruction{Op: op, Dest: dest, Operator: x.Op, Left: left, Right: right})

	case *hir.CallExpr:
		args := b.resolveArgs(x.Name, x.Args, x.NamedArgs, e)
		dest := b.fn.NewTemp()
		return b.emit(mir.Instruction{Op: mir.OpCall, Dest: dest, Callee: x.Name, Args: args})

	case *hir.IfExpr:
		thunkStmt := &hir.IfStmt{
			Cond:        x.Cond,
			Consequence: &hir.Block{Statements: []hir.Stmt{&exprCarrier{val: x.Consequence}}},
			Alternative: &hir.Block{Statements: []hir.Stmt{&exprCarrier{val: x.Alternative}}},
			PosInfo:     x.Pos(),
		}
		merged, terminated := b.lowerIfStmt(thunkStmt, e)
		if terminated {
			return mir.ConstValue(mir.Const{Kind: mir.ConstEmpty})
		}
		if v, ok := merged[ifExprResultSlot]; ok {
			return v
		}
		return mir.ConstValue(mir.Const{Kind: mir.ConstEmpty})

	case *hir.ErrorExpr:
		return mir.ConstValue(mir.Const{Kind: mir.ConstEmpty})

	default:
		return mir.ConstValue(mir.Const{Kind: mir.ConstEmpty})
	}
}

// ifExprResultSlot is the synthetic variable name lowerIfStmt's merge
// logic uses to carry a ternary's value through the same Phi-insertion
// path an ordinary If uses for a real local.
const ifExprResultSlot = "$if_expr_result"

// exprCarrier adapts a bare hir.Expr into a hir.Stmt so the ternary can
// reuse lowerIfStmt's branch/merge machinery: each arm "assigns" the
// synthetic result slot instead of a named-by-the-programmer variable.
type exprCarrier struct {
	val hir.Expr
}

func (c *exprCarrier) stmtNode()           {}
func (c *exprCarrier) Pos() lexer.Position { return c.val.Pos() }
