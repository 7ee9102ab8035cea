// Package parser control-flow grammar: Machine Dialect has no loops, so
// this file parses only the If statement and the block structure it
// shares with Action/Interaction bodies.
package parser

import (
	"github.com/cwbudde/machine-dialect/internal/ast"
	"github.com/cwbudde/machine-dialect/internal/lexer"
)

// parseIfStatement: `If`/`When`/`Whenever` expression `then`? `:`?
// block [`else`|`otherwise` block].
func (p *Parser) parseIfStatement() ast.Statement {
	tok := p.cursor.Current()
	enclosing := p.blockDepth

	p.pushBlockContext("if", tok.Pos)
	defer p.popBlockContext()

	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if cond == nil {
		return p.recoverStatement("expected condition after '"+tok.Literal+"'", ErrInvalidExpression)
	}

	if p.peekTokenIs(lexer.THEN) {
		p.nextToken()
	}
	if p.peekTokenIs(lexer.COLON) {
		p.nextToken()
	}
	p.nextToken()

	consequence := p.parseBlock(enclosing)

	// parseBlock leaves the cursor sitting on the terminating token
	// itself (not one before it), so the else/otherwise check is on the
	// current token, not the peek token.
	var alternative *ast.BlockStatement
	if p.curTokenIs(lexer.ELSE) || p.curTokenIs(lexer.OTHERWISE) {
		if p.peekTokenIs(lexer.COLON) {
			p.nextToken()
		}
		p.nextToken()
		alternative = p.parseBlock(enclosing)
	}

	return &ast.IfStatement{Token: tok, Condition: cond, Consequence: consequence, Alternative: alternative}
}

// parseBlock consumes a run of block-marker-prefixed statements whose
// depth is strictly greater than enclosingDepth. Termination is the
// first line whose depth is <= enclosingDepth, a mismatched depth, or
// EOF.
func (p *Parser) parseBlock(enclosingDepth int) *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.cursor.Current()}
	savedDepth := p.blockDepth

	depth := -1
	for p.curTokenIs(lexer.BLOCK_MARKER) {
		markerDepth := len(p.cursor.Current().Literal)
		if markerDepth <= enclosingDepth {
			break
		}
		if depth == -1 {
			depth = markerDepth
		} else if markerDepth != depth {
			break
		}

		p.blockDepth = depth
		p.nextToken() // consume the marker, land on the statement's first token

		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		if _, ok := stmt.(*ast.IfStatement); !ok {
			p.nextToken() // move past the statement to look for the next marker
		}
	}

	p.blockDepth = savedDepth
	if depth == -1 {
		depth = enclosingDepth + 1
	}
	block.Depth = depth
	return block
}

// parseDefinitionStatement: `###` header + bold `**Action**`/
// `**Interaction**` + `:` + backtick identifier, with optional
// `#### Inputs` / `#### Outputs` parameter headers and a body block.
func (p *Parser) parseDefinitionStatement() ast.Statement {
	tok := p.cursor.Current() // first '#' of the '###' run

	for p.peekTokenIs(lexer.HASH) {
		p.nextToken()
	}

	headerType, ok := p.expectAny(lexer.ACTION, lexer.INTERACTION)
	if !ok {
		return p.recoverStatement("expected 'Action' or 'Interaction' after '###'", ErrMalformedHeader)
	}
	public := headerType == lexer.INTERACTION

	if !p.expectPeek(lexer.COLON) {
		return p.recoverStatement("expected ':' after Action/Interaction keyword", ErrMissingColon)
	}
	if !p.expectPeek(lexer.IDENT) {
		return p.recoverStatement("expected identifier naming the Action/Interaction", ErrExpectedIdent)
	}
	name := &ast.Identifier{Token: p.cursor.Current(), Value: p.cursor.Current().Literal}

	def := &ast.DefinitionStatement{Token: tok, Public: public, Name: name}

	// Optional #### Inputs / #### Outputs headers, each introducing a
	// parameter list; anything else ends the header section.
	for p.peekTokenIs(lexer.HASH) {
		mark := p.cursor.Mark()
		p.nextToken()
		for p.peekTokenIs(lexer.HASH) {
			p.nextToken()
		}
		if p.peekTokenIs(lexer.INPUTS) {
			p.nextToken()
			def.Inputs = p.parseParameterList()
			continue
		}
		if p.peekTokenIs(lexer.OUTPUTS) {
			p.nextToken()
			def.Outputs = p.parseParameterList()
			continue
		}
		p.cursor = p.cursor.ResetTo(mark)
		break
	}

	if p.peekTokenIs(lexer.BLOCK_MARKER) {
		p.nextToken()
		def.Body = p.parseBlock(p.blockDepth)
	}

	return def
}

// expectAny advances if the peek token matches one of the given types,
// returning the matched type.
func (p *Parser) expectAny(types ...lexer.TokenType) (lexer.TokenType, bool) {
	for _, t := range types {
		if p.peekTokenIs(t) {
			p.nextToken()
			return t, true
		}
	}
	return lexer.ILLEGAL, false
}

// parseParameterList reads identifier entries (one per line, each
// prefixed by a block marker) until the depth drops back to the header
// level.
func (p *Parser) parseParameterList() []*ast.Parameter {
	var params []*ast.Parameter
	for p.peekTokenIs(lexer.BLOCK_MARKER) {
		mark := p.cursor.Mark()
		p.nextToken() // marker
		if !p.peekTokenIs(lexer.IDENT) {
			p.cursor = p.cursor.ResetTo(mark)
			break
		}
		p.nextToken()
		params = append(params, &ast.Parameter{Name: &ast.Identifier{Token: p.cursor.Current(), Value: p.cursor.Current().Literal}})
		if p.peekTokenIs(lexer.PERIOD) {
			p.nextToken()
		}
	}
	return params
}
