package parser

import (
	"github.com/cwbudde/machine-dialect/internal/ast"
	"github.com/cwbudde/machine-dialect/internal/lexer"
)

// parseStatement dispatches on the opening keyword of the current token.
// An unrecognised opener falls through to an expression statement; a
// parse failure at any point triggers panic-mode recovery and yields an
// ErrorStatement, bounded by maxRecoveries.
func (p *Parser) parseStatement() ast.Statement {
	switch p.cursor.Current().Type {
	case lexer.SET:
		return p.parseSetStatement()
	case lexer.GIVE_BACK:
		return p.parseReturnStatement()
	case lexer.CALL, lexer.USE, lexer.APPLY:
		return p.parseCallStatement()
	case lexer.SAY:
		return p.parseSayStatement()
	case lexer.IF, lexer.WHEN, lexer.WHENEVER:
		return p.parseIfStatement()
	case lexer.HASH:
		return p.parseDefinitionStatement()
	case lexer.PERIOD:
		return nil
	default:
		return p.parseExpressionStatement()
	}
}

// recoverStatement collects the failing token and everything up to the
// next synchronisation point, then returns an ErrorStatement carrying
// them. Once maxRecoveries is reached it skips nothing and returns an
// ErrorStatement holding only the failing token.
// Error reporting and the statement-starter sync set both go through
// ErrorRecovery, so the block context attached to the diagnostic and the
// tokens treated as safe landing points stay in one place.
func (p *Parser) recoverStatement(msg, code string) *ast.ErrorStatement {
	start := p.cursor.Current()

	NewErrorRecovery(p).AddStructuredError(
		NewStructuredError(ErrKindSyntax).
			WithMessage(msg).
			WithCode(code).
			WithPosition(start.Pos, start.Length()).
			Build(),
	)

	if p.recoveries >= maxRecoveries {
		return &ast.ErrorStatement{Token: start, Message: msg}
	}
	p.recoveries++

	syncTokens := map[lexer.TokenType]bool{lexer.PERIOD: true}
	for _, t := range SyncStatementStarters.GetSyncTokens() {
		syncTokens[t] = true
	}

	skipped := []lexer.Token{start}
	for !syncTokens[p.cursor.Current().Type] && !p.curTokenIs(lexer.EOF) {
		skipped = append(skipped, p.cursor.Current())
		p.nextToken()
	}
	return &ast.ErrorStatement{Token: start, Skipped: skipped, Message: msg}
}

// parseSetStatement: `Set` `` `ident` `` `to` expression `.`.
func (p *Parser) parseSetStatement() ast.Statement {
	tok := p.cursor.Current()

	if !p.expectPeek(lexer.IDENT) {
		return p.recoverStatement("expected identifier after 'Set'", ErrExpectedIdent)
	}
	name := &ast.Identifier{Token: p.cursor.Current(), Value: p.cursor.Current().Literal}

	if !p.expectPeek(lexer.TO) {
		return p.recoverStatement("expected 'to' after Set identifier", ErrMissingTo)
	}
	p.nextToken()

	value := p.parseExpression(LOWEST)
	if value == nil {
		return p.recoverStatement("expected expression after 'to'", ErrInvalidExpression)
	}

	if p.peekTokenIs(lexer.PERIOD) {
		p.nextToken()
	} else if !p.peekTokenIs(lexer.EOF) {
		p.addError("expected '.' to terminate Set statement", ErrMissingPeriod)
	}

	return &ast.SetStatement{Token: tok, Name: name, Value: value}
}

// parseReturnStatement: `Give back`/`Gives back` expression `.`.
func (p *Parser) parseReturnStatement() ast.Statement {
	tok := p.cursor.Current()
	p.nextToken()

	var value ast.Expression
	if !p.curTokenIs(lexer.PERIOD) && !p.curTokenIs(lexer.EOF) {
		value = p.parseExpression(LOWEST)
	}

	if p.peekTokenIs(lexer.PERIOD) {
		p.nextToken()
	} else if !p.peekTokenIs(lexer.EOF) {
		p.addError("expected '.' to terminate Give back statement", ErrMissingPeriod)
	}

	return &ast.ReturnStatement{Token: tok, ReturnValue: value}
}

// parseCallStatement: `Call`/`Use`/`Apply` `` `ident` `` [`with` args] `.`.
func (p *Parser) parseCallStatement() ast.Statement {
	tok := p.cursor.Current()

	if !p.expectPeek(lexer.IDENT) {
		return p.recoverStatement("expected identifier after 'Call'", ErrExpectedIdent)
	}
	name := &ast.Identifier{Token: p.cursor.Current(), Value: p.cursor.Current().Literal}

	var args *ast.CallArguments
	if p.peekTokenIs(lexer.WITH) {
		p.nextToken()
		p.nextToken()
		args = p.parseCallArguments()
	}

	if p.peekTokenIs(lexer.PERIOD) {
		p.nextToken()
	} else if !p.peekTokenIs(lexer.EOF) {
		p.addError("expected '.' to terminate Call statement", ErrMissingPeriod)
	}

	return &ast.CallStatement{Token: tok, Name: name, Args: args}
}

// parseCallArguments parses a comma-separated mix of positional
// expressions followed by named `name: value` pairs; positional
// arguments must precede named ones, and duplicate names are a
// diagnostic (not a hard failure).
func (p *Parser) parseCallArguments() *ast.CallArguments {
	args := &ast.CallArguments{}
	seenNamed := map[string]bool{}

	for {
		if p.curTokenIs(lexer.IDENT) && p.peekTokenIs(lexer.COLON) {
			name := &ast.Identifier{Token: p.cursor.Current(), Value: p.cursor.Current().Literal}
			p.nextToken() // consume ':'
			p.nextToken() // move to value
			val := p.parseExpression(LOWEST)
			if val != nil {
				if seenNamed[name.Value] {
					p.addError("duplicate named argument '"+name.Value+"'", ErrDuplicateNamedArg)
				}
				seenNamed[name.Value] = true
				args.Named = append(args.Named, ast.NamedArgument{Name: name, Value: val})
			}
		} else {
			val := p.parseExpression(LOWEST)
			if val == nil {
				break
			}
			if len(args.Named) > 0 {
				p.addError("positional argument after named argument", ErrMisplacedNamedArg)
			}
			args.Positional = append(args.Positional, val)
		}

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			p.nextToken()
			continue
		}
		break
	}

	return args
}

// parseSayStatement: `Say` expression `.`.
func (p *Parser) parseSayStatement() ast.Statement {
	tok := p.cursor.Current()
	p.nextToken()

	value := p.parseExpression(LOWEST)
	if value == nil {
		return p.recoverStatement("expected expression after 'Say'", ErrInvalidExpression)
	}

	if p.peekTokenIs(lexer.PERIOD) {
		p.nextToken()
	} else if !p.peekTokenIs(lexer.EOF) {
		p.addError("expected '.' to terminate Say statement", ErrMissingPeriod)
	}

	return &ast.SayStatement{Token: tok, Value: value}
}

// parseExpressionStatement parses a bare expression used as a statement,
// e.g. a trailing expression whose value the implicit main returns.
func (p *Parser) parseExpressionStatement() ast.Statement {
	tok := p.cursor.Current()
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return p.recoverStatement("expected statement or expression", ErrInvalidSyntax)
	}
	if p.peekTokenIs(lexer.PERIOD) {
		p.nextToken()
	}
	return &ast.ExpressionStatement{Token: tok, Expression: expr}
}
