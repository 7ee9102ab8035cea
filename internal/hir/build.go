package hir

import "github.com/cwbudde/machine-dialect/internal/ast"

// canonicalOp maps every operator spelling the parser can produce to one
// canonical form. "is" is a bare-equality synonym for "equals" (see
// DESIGN.md's Open Question resolution); every other operator already
// arrives canonical from internal/parser.operatorText, so this is a
// single-entry table today rather than dead generality.
var canonicalOp = map[string]string{
	"is": "equals",
}

func normalizeOp(op string) string {
	if canon, ok := canonicalOp[op]; ok {
		return canon
	}
	return op
}

// scope tracks the inferred type of every name assigned so far in the
// current function, so Ident references can carry a useful hint instead
// of always falling back to Unknown.
type scope struct {
	types map[string]Type
}

func newScope() *scope {
	return &scope{types: make(map[string]Type)}
}

// Build lowers a parsed ast.Program into a Program, hoisting every
// Action/Interaction definition into a Function and desugaring every
// ternary ConditionalExpression into an IfExpr along the way.
func Build(prog *ast.Program) *Program {
	out := &Program{}
	sc := newScope()
	for _, stmt := range prog.Statements {
		if def, ok := stmt.(*ast.DefinitionStatement); ok {
			out.Functions = append(out.Functions, buildFunction(def))
			continue
		}
		if hs := buildStmt(stmt, sc); hs != nil {
			out.Statements = append(out.Statements, hs)
		}
	}
	return out
}

func buildFunction(def *ast.DefinitionStatement) *Function {
	fn := &Function{
		Name:    def.Name.Value,
		Public:  def.Public,
		PosInfo: def.Pos(),
	}
	sc := newScope()
	for _, p := range def.Inputs {
		fn.Inputs = append(fn.Inputs, Param{Name: p.Name.Value})
		sc.types[p.Name.Value] = Unknown
	}
	for _, p := range def.Outputs {
		fn.Outputs = append(fn.Outputs, Param{Name: p.Name.Value})
	}
	if def.Body != nil {
		fn.Body = buildBlock(def.Body, sc)
	} else {
		fn.Body = &Block{PosInfo: def.Pos()}
	}
	return fn
}

func buildBlock(b *ast.BlockStatement, sc *scope) *Block {
	blk := &Block{PosInfo: b.Pos()}
	for _, stmt := range b.Statements {
		if hs := buildStmt(stmt, sc); hs != nil {
			blk.Statements = append(blk.Statements, hs)
		}
	}
	return blk
}

func buildStmt(stmt ast.Statement, sc *scope) Stmt {
	switch s := stmt.(type) {
	case *ast.SetStatement:
		val := buildExpr(s.Value, sc)
		sc.types[s.Name.Value] = val.TypeHint()
		return &SetStmt{Name: s.Name.Value, Value: val, PosInfo: s.Pos()}

	case *ast.ReturnStatement:
		var val Expr
		if s.ReturnValue != nil {
			val = buildExpr(s.ReturnValue, sc)
		}
		return &ReturnStmt{Value: val, PosInfo: s.Pos()}

	case *ast.SayStatement:
		return &SayStmt{Value: buildExpr(s.Value, sc), PosInfo: s.Pos()}

	case *ast.CallStatement:
		pos, named := buildArgs(s.Args, sc)
		return &CallStmt{Name: s.Name.Value, Args: pos, NamedArgs: named, PosInfo: s.Pos()}

	case *ast.ExpressionStatement:
		if s.Expression == nil {
			return nil
		}
		return &ExprStmt{Value: buildExpr(s.Expression, sc), PosInfo: s.Pos()}

	case *ast.IfStatement:
		hs := &IfStmt{Cond: buildExpr(s.Condition, sc), PosInfo: s.Pos()}
		if s.Consequence != nil {
			hs.Consequence = buildBlock(s.Consequence, sc)
		} else {
			hs.Consequence = &Block{PosInfo: s.Pos()}
		}
		if s.Alternative != nil {
			hs.Alternative = buildBlock(s.Alternative, sc)
		}
		return hs

	case *ast.ErrorStatement:
		return &NoOpStmt{PosInfo: s.Pos()}

	case *ast.DefinitionStatement:
		// Nested definitions aren't part of the grammar; one that
		// appears here is dropped, not hoisted.
		return nil

	default:
		return &NoOpStmt{PosInfo: stmt.Pos()}
	}
}

func buildArgs(args *ast.CallArguments, sc *scope) ([]Expr, []NamedArg) {
	if args == nil {
		return nil, nil
	}
	pos := make([]Expr, 0, len(args.Positional))
	for _, p := range args.Positional {
		pos = append(pos, buildExpr(p, sc))
	}
	var named []NamedArg
	for _, n := range args.Named {
		named = append(named, NamedArg{Name: n.Name.Value, Value: buildExpr(n.Value, sc)})
	}
	return pos, named
}

func buildExpr(expr ast.Expression, sc *scope) Expr {
	switch e := expr.(type) {
	case *ast.Identifier:
		hint := Unknown
		if t, ok := sc.types[e.Value]; ok {
			hint = t
		}
		return &Ident{Name: e.Value, Hint: hint, PosInfo: e.Pos()}

	case *ast.IntegerLiteral:
		return &IntLit{Value: e.Value, PosInfo: e.Pos()}

	case *ast.FloatLiteral:
		return &FloatLit{Value: e.Value, PosInfo: e.Pos()}

	case *ast.StringLiteral:
		return &StringLit{Value: e.Value, PosInfo: e.Pos()}

	case *ast.BooleanLiteral:
		return &BoolLit{Value: e.Value, PosInfo: e.Pos()}

	case *ast.UrlLiteral:
		return &UrlLit{Value: e.Value, PosInfo: e.Pos()}

	case *ast.EmptyLiteral:
		return &EmptyLit{PosInfo: e.Pos()}

	case *ast.PrefixExpression:
		operand := buildExpr(e.Right, sc)
		return &UnaryOp{Op: e.Operator, Operand: operand, Hint: unaryHint(e.Operator, operand.TypeHint()), PosInfo: e.Pos()}

	case *ast.InfixExpression:
		left := buildExpr(e.Left, sc)
		right := buildExpr(e.Right, sc)
		op := normalizeOp(e.Operator)
		return &BinaryOp{Op: op, Left: left, Right: right, Hint: binaryHint(op, left.TypeHint(), right.TypeHint()), PosInfo: e.Pos()}

	case *ast.GroupedExpression:
		return buildExpr(e.Inner, sc)

	case *ast.CallExpression:
		pos, named := buildArgs(e.Args, sc)
		return &CallExpr{Name: e.Name.Value, Args: pos, NamedArgs: named, PosInfo: e.Pos()}

	case *ast.ConditionalExpression:
		cons := buildExpr(e.Consequence, sc)
		alt := buildExpr(e.Alternative, sc)
		hint := cons.TypeHint()
		if hint != alt.TypeHint() {
			hint = Unknown
		}
		return &IfExpr{
			Cond:        buildExpr(e.Condition, sc),
			Consequence: cons,
			Alternative: alt,
			Hint:        hint,
			PosInfo:     e.Pos(),
		}

	case *ast.ErrorExpression:
		return &ErrorExpr{Message: e.Message, PosInfo: e.Pos()}

	default:
		return &ErrorExpr{Message: "unrecognised expression node", PosInfo: expr.Pos()}
	}
}

func unaryHint(op string, operand Type) Type {
	switch op {
	case "not":
		return Bool
	case "-":
		if operand == Int || operand == Float {
			return operand
		}
		return Unknown
	default:
		return Unknown
	}
}

func binaryHint(op string, left, right Type) Type {
	switch op {
	case "+", "-", "*", "/":
		if left == Float || right == Float {
			return Float
		}
		if left == Int && right == Int {
			return Int
		}
		if left == String && right == String && op == "+" {
			return String
		}
		return Unknown
	case "equals", "is strictly equal to", "is not strictly equal to", "is not equal to",
		"is greater than", "is less than",
		"is greater than or equal to", "is less than or equal to",
		"and", "or":
		return Bool
	default:
		return Unknown
	}
}
