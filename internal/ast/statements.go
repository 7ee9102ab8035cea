package ast

import (
	"bytes"
	"fmt"

	"github.com/cwbudde/machine-dialect/internal/lexer"
)

// SetStatement is `Set `` `ident` `` to` expression `.`.
type SetStatement struct {
	Token lexer.Token
	Name  *Identifier
	Value Expression
}

func (s *SetStatement) statementNode()      {}
func (s *SetStatement) TokenLiteral() string { return s.Token.Literal }
func (s *SetStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *SetStatement) String() string {
	return fmt.Sprintf("Set %s to %s.", s.Name.String(), s.Value.String())
}

// ReturnStatement is `Give back`/`Gives back` expression `.`.
type ReturnStatement struct {
	Token       lexer.Token
	ReturnValue Expression
}

func (s *ReturnStatement) statementNode()      {}
func (s *ReturnStatement) TokenLiteral() string { return s.Token.Literal }
func (s *ReturnStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *ReturnStatement) String() string {
	if s.ReturnValue == nil {
		return "Give back."
	}
	return fmt.Sprintf("Give back %s.", s.ReturnValue.String())
}

// CallStatement is `Call`/`Use`/`Apply` `` `ident` `` [`with` args] `.`.
type CallStatement struct {
	Token lexer.Token
	Name  *Identifier
	Args  *CallArguments
}

func (s *CallStatement) statementNode()      {}
func (s *CallStatement) TokenLiteral() string { return s.Token.Literal }
func (s *CallStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *CallStatement) String() string {
	if s.Args == nil || (len(s.Args.Positional) == 0 && len(s.Args.Named) == 0) {
		return fmt.Sprintf("Call %s.", s.Name.String())
	}
	return fmt.Sprintf("Call %s with %s.", s.Name.String(), s.Args.String())
}

// SayStatement is `Say` expression `.` — always side-effects to output
// and evaluates to Empty.
type SayStatement struct {
	Token lexer.Token
	Value Expression
}

func (s *SayStatement) statementNode()      {}
func (s *SayStatement) TokenLiteral() string { return s.Token.Literal }
func (s *SayStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *SayStatement) String() string       { return fmt.Sprintf("Say %s.", s.Value.String()) }

// ExpressionStatement wraps a bare expression used as a statement.
type ExpressionStatement struct {
	Token      lexer.Token
	Expression Expression
}

func (s *ExpressionStatement) statementNode()      {}
func (s *ExpressionStatement) TokenLiteral() string { return s.Token.Literal }
func (s *ExpressionStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *ExpressionStatement) String() string {
	if s.Expression == nil {
		return ""
	}
	return s.Expression.String()
}

// ErrorStatement records a parse failure at statement granularity: the
// tokens skipped during panic-mode recovery and the diagnostic message.
// Lowering treats it as a no-op so a program with recovered errors can
// still execute to completion.
type ErrorStatement struct {
	Token   lexer.Token
	Skipped []lexer.Token
	Message string
}

func (s *ErrorStatement) statementNode()      {}
func (s *ErrorStatement) TokenLiteral() string { return s.Token.Literal }
func (s *ErrorStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *ErrorStatement) String() string       { return "<error: " + s.Message + ">" }

// Parameter is a single entry in an Action/Interaction's Inputs or
// Outputs list.
type Parameter struct {
	Name *Identifier
	Type string // advisory type name from the header, e.g. "Whole Number"
}

// DefinitionStatement defines an Action (private) or Interaction
// (public) method via its `###` header, optional `#### Inputs` /
// `#### Outputs` parameter headers, and a `<details>` body block.
type DefinitionStatement struct {
	Token   lexer.Token
	Public  bool
	Name    *Identifier
	Inputs  []*Parameter
	Outputs []*Parameter
	Body    *BlockStatement
}

func (s *DefinitionStatement) statementNode()      {}
func (s *DefinitionStatement) TokenLiteral() string { return s.Token.Literal }
func (s *DefinitionStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *DefinitionStatement) String() string {
	var out bytes.Buffer
	kind := "Action"
	if s.Public {
		kind = "Interaction"
	}
	fmt.Fprintf(&out, "### **%s**: %s\n", kind, s.Name.String())
	if s.Body != nil {
		out.WriteString(s.Body.String())
	}
	return out.String()
}
