// Package parser implements the Machine Dialect parser: a hybrid
// recursive-descent statement parser with a Pratt expression parser and
// panic-mode error recovery.
//
// Key patterns:
//   - Lookahead: cursor.Peek(n) for tokens ahead of the current one.
//   - Error recovery: pushBlockContext/popBlockContext + synchronize()
//     for panic-mode recovery bounded by maxRecoveries.
//   - Structured errors: NewStructuredError() with auto-injected block
//     context.
package parser

import (
	"fmt"

	"github.com/cwbudde/machine-dialect/internal/ast"
	"github.com/cwbudde/machine-dialect/internal/lexer"
)

// Precedence levels (lowest to highest), per the conditional-ternary <
// or < and < equality/strict-equality < relational < additive <
// multiplicative < unary < grouping/call chain from the grammar.
const (
	_ int = iota
	LOWEST
	CONDITIONAL // X if COND else Y
	LOGIC_OR
	LOGIC_AND
	EQUALS_PREC // equals, is strictly equal to, is not equal to
	RELATIONAL  // is greater/less than (or equal to)
	SUM         // + -
	PRODUCT     // * /
	PREFIX      // -x, not x
	CALL
)

var precedences = map[lexer.TokenType]int{
	lexer.IF:               CONDITIONAL,
	lexer.WHEN:             CONDITIONAL,
	lexer.OR:               LOGIC_OR,
	lexer.AND:              LOGIC_AND,
	lexer.EQUALS:           EQUALS_PREC,
	lexer.IS:               EQUALS_PREC,
	lexer.STRICTLY:         EQUALS_PREC,
	lexer.STRICT_NOT_EQUAL: EQUALS_PREC,
	lexer.NOT_EQUAL:        EQUALS_PREC,
	lexer.GREATER_THAN:     RELATIONAL,
	lexer.LESS_THAN:        RELATIONAL,
	lexer.GREATER_OR_EQUAL: RELATIONAL,
	lexer.LESS_OR_EQUAL:    RELATIONAL,
	lexer.PLUS:             SUM,
	lexer.MINUS:            SUM,
	lexer.TIMES:            PRODUCT,
	lexer.DIVIDED_BY:       PRODUCT,
	lexer.LPAREN:           CALL,
}

type prefixParseFn func() ast.Expression
type infixParseFn func(ast.Expression) ast.Expression

// BlockContext represents the context of a block being parsed, used for
// better error messages and error recovery.
type BlockContext struct {
	BlockType string
	StartPos  lexer.Position
	StartLine int
}

// Parser is the Machine Dialect parser.
type Parser struct {
	l              *lexer.Lexer
	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
	ctx            *ParseContext
	cursor         *TokenCursor
	errors         []*ParserError
	blockStack     []BlockContext
	recoveries     int
	blockDepth     int // enclosing block-marker depth during block parsing
}

const maxRecoveries = 20

// ParserState is a heavyweight snapshot for speculative parsing with full
// backtracking.
type ParserState struct {
	ctx        *ParseContext
	cursor     *TokenCursor
	errors     []*ParserError
	blockStack []BlockContext
	lexerState lexer.LexerState
	recoveries int
	blockDepth int
}

// New creates a new Parser over l and registers the prefix/infix tables.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		ctx:    NewParseContext(),
		cursor: NewTokenCursor(l),
	}

	p.prefixParseFns = map[lexer.TokenType]prefixParseFn{
		lexer.IDENT:    p.parseIdentifier,
		lexer.INT:      p.parseIntegerLiteral,
		lexer.FLOAT:    p.parseFloatLiteral,
		lexer.STRING:   p.parseStringLiteral,
		lexer.URL:      p.parseUrlLiteral,
		lexer.BOOL:     p.parseBooleanLiteral,
		lexer.EMPTY:    p.parseEmptyLiteral,
		lexer.MINUS:    p.parsePrefixExpression,
		lexer.NOT:      p.parsePrefixExpression,
		lexer.LPAREN:   p.parseGroupedExpression,
		lexer.CALL:     p.parseCallExpression,
		lexer.USE:      p.parseCallExpression,
		lexer.APPLY:    p.parseCallExpression,
	}

	p.infixParseFns = map[lexer.TokenType]infixParseFn{
		lexer.PLUS:             p.parseInfixExpression,
		lexer.MINUS:            p.parseInfixExpression,
		lexer.TIMES:            p.parseInfixExpression,
		lexer.DIVIDED_BY:       p.parseInfixExpression,
		lexer.EQUALS:           p.parseInfixExpression,
		lexer.IS:               p.parseInfixExpression,
		lexer.STRICTLY:         p.parseInfixExpression,
		lexer.STRICT_NOT_EQUAL: p.parseInfixExpression,
		lexer.NOT_EQUAL:        p.parseInfixExpression,
		lexer.GREATER_THAN:     p.parseInfixExpression,
		lexer.LESS_THAN:        p.parseInfixExpression,
		lexer.GREATER_OR_EQUAL: p.parseInfixExpression,
		lexer.LESS_OR_EQUAL:    p.parseInfixExpression,
		lexer.AND:              p.parseInfixExpression,
		lexer.OR:               p.parseInfixExpression,
		lexer.IF:               p.parseConditionalExpression,
		lexer.WHEN:             p.parseConditionalExpression,
	}

	return p
}

// Errors returns the collected parser diagnostics.
func (p *Parser) Errors() []*ParserError { return p.errors }

// LexerErrors returns lexer diagnostics accumulated during tokenization.
func (p *Parser) LexerErrors() []lexer.LexerError { return p.l.Errors() }

func (p *Parser) nextToken() { p.cursor = p.cursor.Advance() }

func (p *Parser) curTokenIs(t lexer.TokenType) bool  { return p.cursor.Current().Type == t }
func (p *Parser) peekTokenIs(t lexer.TokenType) bool  { return p.cursor.Peek(1).Type == t }

func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t lexer.TokenType) {
	peekTok := p.cursor.Peek(1)
	msg := fmt.Sprintf("expected next token to be %s, got %s instead", t, peekTok.Type)
	p.errors = append(p.errors, NewParserError(peekTok.Pos, peekTok.Length(), msg, getErrorCodeForMissingToken(t)))
}

func (p *Parser) addError(msg string, code string) {
	cur := p.cursor.Current()
	p.errors = append(p.errors, NewParserError(cur.Pos, cur.Length(), msg, code))
}

func (p *Parser) addStructuredError(structErr *StructuredParserError) {
	if structErr.BlockContext == nil {
		structErr.BlockContext = p.currentBlockContext()
	}
	p.errors = append(p.errors, structErr.ToParserError())
}

func (p *Parser) noPrefixParseFnError(t lexer.TokenType) {
	p.addError(fmt.Sprintf("no prefix parse function for %s found", t), ErrNoPrefixParse)
}

func getPrecedence(t lexer.TokenType) int {
	if prec, ok := precedences[t]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) saveState() ParserState {
	errorsCopy := make([]*ParserError, len(p.errors))
	copy(errorsCopy, p.errors)
	blockStackCopy := make([]BlockContext, len(p.blockStack))
	copy(blockStackCopy, p.blockStack)

	return ParserState{
		errors:     errorsCopy,
		lexerState: p.l.SaveState(),
		blockStack: blockStackCopy,
		ctx:        p.ctx.Snapshot(),
		cursor:     p.cursor,
		recoveries: p.recoveries,
		blockDepth: p.blockDepth,
	}
}

func (p *Parser) restoreState(state ParserState) {
	p.errors = state.errors
	p.blockStack = state.blockStack
	p.l.RestoreState(state.lexerState)
	p.ctx.Restore(state.ctx)
	p.cursor = state.cursor
	p.recoveries = state.recoveries
	p.blockDepth = state.blockDepth
}

func (p *Parser) pushBlockContext(blockType string, startPos lexer.Position) {
	p.ctx.PushBlock(blockType, startPos)
	p.blockStack = append(p.blockStack, BlockContext{BlockType: blockType, StartPos: startPos, StartLine: startPos.Line})
}

func (p *Parser) popBlockContext() {
	p.ctx.PopBlock()
	if len(p.blockStack) > 0 {
		p.blockStack = p.blockStack[:len(p.blockStack)-1]
	}
}

func (p *Parser) currentBlockContext() *BlockContext { return p.ctx.CurrentBlock() }

// Synchronization sets: a period, EOF, or a statement-starting keyword.
var (
	statementStarters = []lexer.TokenType{
		lexer.SET, lexer.GIVE_BACK, lexer.IF, lexer.WHEN, lexer.WHENEVER,
		lexer.CALL, lexer.USE, lexer.APPLY, lexer.SAY, lexer.HASH,
	}
	blockClosers       = []lexer.TokenType{lexer.ELSE, lexer.OTHERWISE}
	declarationStarters = []lexer.TokenType{lexer.HASH}
)

// synchronize advances to a safe point after an error: a period, EOF, a
// statement starter, or a block closer.
func (p *Parser) synchronize(syncTokens []lexer.TokenType) bool {
	syncMap := map[lexer.TokenType]bool{lexer.PERIOD: true}
	for _, t := range syncTokens {
		syncMap[t] = true
	}
	for _, t := range statementStarters {
		syncMap[t] = true
	}
	for _, t := range blockClosers {
		syncMap[t] = true
	}

	for p.cursor.Current().Type != lexer.EOF {
		if syncMap[p.cursor.Current().Type] {
			return true
		}
		p.cursor = p.cursor.Advance()
	}
	return false
}

func (p *Parser) addErrorWithContext(msg string, code string) {
	if ctx := p.currentBlockContext(); ctx != nil {
		msg = fmt.Sprintf("%s (in %s block starting at line %d)", msg, ctx.BlockType, ctx.StartLine)
	}
	p.addError(msg, code)
}

// ParseProgram parses the entire source into a Program. Parsing never
// aborts: unexpected constructs become ErrorStatement nodes via
// panic-mode recovery, bounded to maxRecoveries to avoid pathological
// loops on malformed input.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}

	for !p.curTokenIs(lexer.EOF) {
		if p.curTokenIs(lexer.BLOCK_MARKER) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		// parseBlock leaves the cursor on the first token after a
		// block-bodied statement, so only other statements advance here.
		if _, ok := stmt.(*ast.IfStatement); ok {
			continue
		}
		if def, ok := stmt.(*ast.DefinitionStatement); ok && def.Body != nil {
			continue
		}
		p.nextToken()
	}

	return program
}
