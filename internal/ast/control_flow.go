// Package ast control-flow node types for Machine Dialect: the language
// has no loops, so the only control-flow statement is If.
package ast

import (
	"bytes"
	"fmt"

	"github.com/cwbudde/machine-dialect/internal/lexer"
)

// BlockStatement is a run of statements at an explicit block depth
// (counted by leading '>' markers), depth strictly greater than its
// enclosing block.
type BlockStatement struct {
	Token      lexer.Token
	Depth      int
	Statements []Statement
}

func (b *BlockStatement) statementNode()      {}
func (b *BlockStatement) TokenLiteral() string { return b.Token.Literal }
func (b *BlockStatement) Pos() lexer.Position  { return b.Token.Pos }
func (b *BlockStatement) String() string {
	var out bytes.Buffer
	for _, stmt := range b.Statements {
		for i := 0; i < b.Depth; i++ {
			out.WriteString("> ")
		}
		out.WriteString(stmt.String())
		out.WriteString("\n")
	}
	return out.String()
}

// IfStatement is `If`/`When`/`Whenever` condition `then`? `:`? block
// [`else`|`otherwise` block].
type IfStatement struct {
	Token       lexer.Token
	Condition   Expression
	Consequence *BlockStatement
	Alternative *BlockStatement
}

func (s *IfStatement) statementNode()      {}
func (s *IfStatement) TokenLiteral() string { return s.Token.Literal }
func (s *IfStatement) Pos() lexer.Position  { return s.Token.Pos }
func (s *IfStatement) String() string {
	var out bytes.Buffer
	fmt.Fprintf(&out, "If %s:\n", s.Condition.String())
	if s.Consequence != nil {
		out.WriteString(s.Consequence.String())
	}
	if s.Alternative != nil {
		out.WriteString("else:\n")
		out.WriteString(s.Alternative.String())
	}
	return out.String()
}
