package parser

import (
	"strconv"
	"strings"

	"github.com/cwbudde/machine-dialect/internal/ast"
	"github.com/cwbudde/machine-dialect/internal/lexer"
)

// parseExpression is the Pratt parser's entry point: look up a prefix
// parse function for the current token, then keep folding in infix
// operators whose precedence is greater than the caller's.
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix, ok := p.prefixParseFns[p.cursor.Current().Type]
	if !ok {
		p.noPrefixParseFnError(p.cursor.Current().Type)
		return nil
	}
	left := prefix()
	if left == nil {
		return nil
	}

	for !p.peekTokenIs(lexer.PERIOD) && precedence < getPrecedence(p.cursor.Peek(1).Type) {
		infix, ok := p.infixParseFns[p.cursor.Peek(1).Type]
		if !ok {
			return left
		}
		p.nextToken()
		left = infix(left)
		if left == nil {
			return nil
		}
	}

	return left
}

func (p *Parser) parseIdentifier() ast.Expression {
	tok := p.cursor.Current()
	return &ast.Identifier{Token: tok, Value: tok.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	tok := p.cursor.Current()
	value, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		p.addError("could not parse '"+tok.Literal+"' as an integer", ErrInvalidExpression)
		return nil
	}
	return &ast.IntegerLiteral{Token: tok, Value: value}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	tok := p.cursor.Current()
	value, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.addError("could not parse '"+tok.Literal+"' as a float", ErrInvalidExpression)
		return nil
	}
	return &ast.FloatLiteral{Token: tok, Value: value}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	tok := p.cursor.Current()
	return &ast.StringLiteral{Token: tok, Value: tok.Literal}
}

func (p *Parser) parseUrlLiteral() ast.Expression {
	tok := p.cursor.Current()
	return &ast.UrlLiteral{Token: tok, Value: tok.Literal}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	tok := p.cursor.Current()
	lit := strings.ToLower(tok.Literal)
	return &ast.BooleanLiteral{Token: tok, Value: lit == "yes" || lit == "true"}
}

func (p *Parser) parseEmptyLiteral() ast.Expression {
	return &ast.EmptyLiteral{Token: p.cursor.Current()}
}

// parsePrefixExpression handles the two unary operators: numeric
// negation ("-") and logical negation ("not").
func (p *Parser) parsePrefixExpression() ast.Expression {
	tok := p.cursor.Current()
	operator := tok.Literal
	if tok.Type == lexer.MINUS {
		operator = "-"
	}

	p.nextToken()
	right := p.parseExpression(PREFIX)
	if right == nil {
		return nil
	}

	return &ast.PrefixExpression{Token: tok, Operator: operator, Right: right}
}

// parseInfixExpression handles every binary operator: arithmetic,
// comparison, equality, and logical and/or.
func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	tok := p.cursor.Current()
	operator := operatorText(tok)
	precedence := getPrecedence(tok.Type)

	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}

	return &ast.InfixExpression{Token: tok, Left: left, Operator: operator, Right: right}
}

// operatorText maps a token to its canonical operator spelling, since
// multi-word phrases like "is greater than" collapse to a single token
// whose literal is the full phrase as written in the source.
func operatorText(tok lexer.Token) string {
	switch tok.Type {
	case lexer.PLUS:
		return "+"
	case lexer.MINUS:
		return "-"
	case lexer.TIMES:
		return "*"
	case lexer.DIVIDED_BY:
		return "/"
	case lexer.EQUALS:
		return "equals"
	case lexer.IS:
		return "is"
	case lexer.STRICTLY:
		return "is strictly equal to"
	case lexer.STRICT_NOT_EQUAL:
		return "is not strictly equal to"
	case lexer.NOT_EQUAL:
		return "is not equal to"
	case lexer.GREATER_THAN:
		return "is greater than"
	case lexer.LESS_THAN:
		return "is less than"
	case lexer.GREATER_OR_EQUAL:
		return "is greater than or equal to"
	case lexer.LESS_OR_EQUAL:
		return "is less than or equal to"
	case lexer.AND:
		return "and"
	case lexer.OR:
		return "or"
	default:
		return tok.Literal
	}
}

// parseCallExpression parses `Call`/`Use`/`Apply` `` `ident` `` [`with`
// args] in expression position — the value-producing sibling of
// parseCallStatement, used wherever a call's result feeds into further
// computation (e.g. the right-hand side of a Set) instead of being
// discarded.
func (p *Parser) parseCallExpression() ast.Expression {
	tok := p.cursor.Current()

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := &ast.Identifier{Token: p.cursor.Current(), Value: p.cursor.Current().Literal}

	var args *ast.CallArguments
	if p.peekTokenIs(lexer.WITH) {
		p.nextToken()
		p.nextToken()
		args = p.parseCallArguments()
	}

	return &ast.CallExpression{Token: tok, Name: name, Args: args}
}

// parseGroupedExpression: `(` expression `)`.
func (p *Parser) parseGroupedExpression() ast.Expression {
	tok := p.cursor.Current()
	p.nextToken()

	inner := p.parseExpression(LOWEST)
	if inner == nil {
		return nil
	}

	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}

	return &ast.GroupedExpression{Token: tok, Inner: inner}
}

// parseConditionalExpression parses the ternary "X if COND else Y" /
// "X when COND otherwise Y" form. It is registered as an infix parser
// on IF/WHEN because the condition follows the already-parsed
// consequence expression.
func (p *Parser) parseConditionalExpression(consequence ast.Expression) ast.Expression {
	tok := p.cursor.Current() // IF or WHEN

	var altKeyword lexer.TokenType
	if tok.Type == lexer.IF {
		altKeyword = lexer.ELSE
	} else {
		altKeyword = lexer.OTHERWISE
	}

	p.nextToken()
	condition := p.parseExpression(CONDITIONAL)
	if condition == nil {
		return nil
	}

	if !p.expectPeek(altKeyword) {
		return nil
	}
	p.nextToken()

	alternative := p.parseExpression(CONDITIONAL)
	if alternative == nil {
		return nil
	}

	return &ast.ConditionalExpression{
		Token:       tok,
		Consequence: consequence,
		Condition:   condition,
		Alternative: alternative,
	}
}
