package parser

import (
	"github.com/funvibe/minicc/internal/ast"
	"github.com/funvibe/minicc/internal/diagnostics"
	"github.com/funvibe/minicc/internal/lexer"
	"github.com/funvibe/minicc/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Expression {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > MaxRecursionDepth {
		p.errorf(diagnostics.ErrP001, p.curToken, "expression too complex: recursion depth limit exceeded")
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	value, isFloat := lexer.NumberValue(p.curToken)
	return &ast.NumberLiteral{Token: p.curToken, Value: value, IsFloat: isFloat}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	value, _ := p.curToken.Literal.(string)
	return &ast.StringLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	value, _ := p.curToken.Literal.(bool)
	return &ast.BooleanLiteral{Token: p.curToken, Value: value}
}

// parseSignOrPrefix handles '+' and '-' in prefix position. A sign directly
// in front of a number literal folds into the literal; anything else is an
// ordinary prefix operation.
func (p *Parser) parseSignOrPrefix() ast.Expression {
	op := p.curToken
	if p.peekTokenIs(token.NUMBER) {
		p.nextToken()
		value, isFloat := lexer.NumberValue(p.curToken)
		if op.Type == token.MINUS {
			value = -value
		}
		return &ast.NumberLiteral{Token: op, Value: value, IsFloat: isFloat}
	}
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	if operand == nil {
		return nil
	}
	return &ast.UnaryExpression{Token: op, Operator: op.Type, Position: ast.Prefix, Operand: operand}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	op := p.curToken
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	if operand == nil {
		return nil
	}
	return &ast.UnaryExpression{Token: op, Operator: op.Type, Position: ast.Prefix, Operand: operand}
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	op := p.curToken
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return &ast.InfixExpression{Token: op, Operator: op.Type, Left: left, Right: right}
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken() // consume '('
	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

// parseIdentifierTail parses an identifier factor together with the forms
// that may only follow one: postfix ++/--, a call, or nothing.
func (p *Parser) parseIdentifierTail() ast.Expression {
	ident := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if p.peekTokenIs(token.INCREMENT) || p.peekTokenIs(token.DECREMENT) {
		p.nextToken()
		return &ast.UnaryExpression{
			Token:    p.curToken,
			Operator: p.curToken.Type,
			Position: ast.Postfix,
			Operand:  ident,
		}
	}
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		return p.parseCallExpression(ident)
	}
	return ident
}

func (p *Parser) parseCallExpression(callee *ast.Identifier) ast.Expression {
	call := &ast.CallExpression{Token: callee.Token, Callee: callee}
	call.Arguments = p.parseCallArguments()
	if p.fatal {
		return nil
	}
	return call
}

// parseCallArguments consumes '(' expr (',' expr)* ')'. The current token
// is the opening parenthesis. A trailing comma is not accepted.
func (p *Parser) parseCallArguments() []ast.Expression {
	args := []ast.Expression{}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args
	}

	p.nextToken()
	arg := p.parseExpression(LOWEST)
	if arg == nil {
		return nil
	}
	args = append(args, arg)

	for p.peekTokenIs(token.COMMA) {
		p.nextToken() // consume ','
		p.nextToken()
		arg = p.parseExpression(LOWEST)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return args
}

func (p *Parser) parseTernaryExpression(cond ast.Expression) ast.Expression {
	tern := &ast.TernaryExpression{Token: p.curToken, Condition: cond}
	p.nextToken()
	tern.Then = p.parseExpression(LOWEST)
	if tern.Then == nil {
		return nil
	}
	if !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()
	tern.Else = p.parseExpression(LOWEST)
	if tern.Else == nil {
		return nil
	}
	return tern
}

// parseMemberExpression parses target.field and target.method(args).
func (p *Parser) parseMemberExpression(target ast.Expression) ast.Expression {
	dot := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		args := p.parseCallArguments()
		if p.fatal {
			return nil
		}
		return &ast.MethodCallExpression{Token: dot, Target: target, Name: name, Arguments: args}
	}
	return &ast.MemberExpression{Token: dot, Target: target, Field: name}
}
