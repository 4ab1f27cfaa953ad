package parser

import (
	"github.com/funvibe/minicc/internal/ast"
	"github.com/funvibe/minicc/internal/diagnostics"
	"github.com/funvibe/minicc/internal/pipeline"
	"github.com/funvibe/minicc/internal/token"
)

// Operator precedence, lowest to highest.
const (
	LOWEST = iota
	TERNARY
	LOGIC_OR
	LOGIC_AND
	EQUALITY
	COMPARISON
	BITWISE
	SUM
	PRODUCT
	PREFIX
	CALL
)

// MaxRecursionDepth bounds expression nesting so that pathological input
// fails with a diagnostic instead of exhausting the stack.
const MaxRecursionDepth = 512

var precedences = map[token.TokenType]int{
	token.QUESTION:  TERNARY,
	token.OR:        LOGIC_OR,
	token.AND:       LOGIC_AND,
	token.EQ:        EQUALITY,
	token.NOT_EQ:    EQUALITY,
	token.LT:        COMPARISON,
	token.LTE:       COMPARISON,
	token.GT:        COMPARISON,
	token.GTE:       COMPARISON,
	token.AMPERSAND: BITWISE,
	token.PIPE:      BITWISE,
	token.CARET:     BITWISE,
	token.PLUS:      SUM,
	token.MINUS:     SUM,
	token.ASTERISK:  PRODUCT,
	token.SLASH:     PRODUCT,
	token.DOT:       CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	stream *token.Stream
	ctx    *pipeline.PipelineContext

	curToken  token.Token
	peekToken token.Token

	depth int
	fatal bool

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(stream *token.Stream, ctx *pipeline.PipelineContext) *Parser {
	p := &Parser{stream: stream, ctx: ctx}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.NUMBER:    p.parseNumberLiteral,
		token.STRING:    p.parseStringLiteral,
		token.BOOLEAN:   p.parseBooleanLiteral,
		token.IDENT:     p.parseIdentifierTail,
		token.LPAREN:    p.parseGroupedExpression,
		token.PLUS:      p.parseSignOrPrefix,
		token.MINUS:     p.parseSignOrPrefix,
		token.BANG:      p.parsePrefixExpression,
		token.INCREMENT: p.parsePrefixExpression,
		token.DECREMENT: p.parsePrefixExpression,
	}
	p.infixParseFns = map[token.TokenType]infixParseFn{
		token.PLUS:      p.parseInfixExpression,
		token.MINUS:     p.parseInfixExpression,
		token.ASTERISK:  p.parseInfixExpression,
		token.SLASH:     p.parseInfixExpression,
		token.EQ:        p.parseInfixExpression,
		token.NOT_EQ:    p.parseInfixExpression,
		token.LT:        p.parseInfixExpression,
		token.LTE:       p.parseInfixExpression,
		token.GT:        p.parseInfixExpression,
		token.GTE:       p.parseInfixExpression,
		token.AND:       p.parseInfixExpression,
		token.OR:        p.parseInfixExpression,
		token.AMPERSAND: p.parseInfixExpression,
		token.PIPE:      p.parseInfixExpression,
		token.CARET:     p.parseInfixExpression,
		token.QUESTION:  p.parseTernaryExpression,
		token.DOT:       p.parseMemberExpression,
	}

	p.curToken = stream.Current()
	p.peekToken = stream.Peek()
	return p
}

// ParseProgram pulls top-level nodes until end-of-stream. Errors are fatal
// for the unit: the first diagnostic stops the parse.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	for {
		stmt, ok := p.NextNode()
		if !ok {
			break
		}
		program.Statements = append(program.Statements, stmt)
	}
	return program
}

// NextNode returns the next top-level node, or false at end-of-stream or
// after a fatal parse error.
func (p *Parser) NextNode() (ast.Statement, bool) {
	if p.fatal || p.curTokenIs(token.EOF) {
		return nil, false
	}
	stmt := p.parseStatement()
	if stmt == nil || p.fatal {
		return nil, false
	}
	return stmt, true
}

func (p *Parser) nextToken() {
	p.stream.Advance()
	p.curToken = p.stream.Current()
	p.peekToken = p.stream.Peek()
}

// rollback restores the token consumed by the most recent nextToken.
func (p *Parser) rollback() {
	p.stream.Rollback()
	p.curToken = p.stream.Current()
	p.peekToken = p.stream.Peek()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

// expectPeek advances when the next token matches, otherwise records an
// unexpected-token error.
func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf(diagnostics.ErrP002, p.peekToken, "expected '%s', got '%s'", t, p.peekToken.Type)
	return false
}

// expectCur consumes the current token when it matches.
func (p *Parser) expectCur(t token.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf(diagnostics.ErrP002, p.curToken, "expected '%s', got '%s'", t, p.curToken.Type)
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) errorf(code diagnostics.Code, tok token.Token, format string, args ...interface{}) {
	p.fatal = true
	p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewError(code, tok, format, args...))
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	if tok.Type == token.ILLEGAL {
		if msg, ok := tok.Literal.(string); ok && msg != "" {
			code := diagnostics.ErrL003
			switch msg {
			case "malformed numeric literal":
				code = diagnostics.ErrL001
			case "unterminated string":
				code = diagnostics.ErrL002
			}
			p.errorf(code, tok, "%s", msg)
			return
		}
		p.errorf(diagnostics.ErrL003, tok, "illegal character '%s'", tok.Lexeme)
		return
	}
	p.errorf(diagnostics.ErrP001, tok, "unexpected token '%s'", tok.Lexeme)
}
