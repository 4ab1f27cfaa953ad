package parser

import (
	"github.com/funvibe/minicc/internal/ast"
	"github.com/funvibe/minicc/internal/diagnostics"
	"github.com/funvibe/minicc/internal/token"
)

// parseStatement parses one statement and leaves the cursor on the first
// token after it.
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.IDENT:
		if stmt := p.tryParseAssignment(true); stmt != nil {
			return stmt
		}
		if p.fatal {
			return nil
		}
		return p.parseExpressionStatement()
	case token.TYPE:
		return p.parseDeclaration()
	case token.DEF:
		return p.parseFunctionDef()
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DO:
		return p.parseDoWhileStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.LBRACE:
		return p.parseBraceBlock()
	default:
		return p.parseExpressionStatement()
	}
}

// tryParseAssignment recognizes `ident '=' expr`. It consumes the
// identifier and looks at the following token; when that is not '=' the
// consumed identifier is restored via single-step rollback and nil is
// returned so the caller can re-parse the identifier as an expression.
func (p *Parser) tryParseAssignment(needSemicolon bool) *ast.AssignStatement {
	identTok := p.curToken
	p.nextToken()
	if !p.curTokenIs(token.ASSIGN) {
		p.rollback()
		return nil
	}
	p.nextToken() // consume '='

	stmt := &ast.AssignStatement{
		Token: identTok,
		Name:  &ast.Identifier{Token: identTok, Value: identTok.Lexeme},
	}
	stmt.Rvalue = p.parseExpression(LOWEST)
	if stmt.Rvalue == nil {
		return nil
	}
	if needSemicolon {
		if !p.expectPeek(token.SEMICOLON) {
			return nil
		}
	}
	p.nextToken()
	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	p.nextToken()
	return stmt
}

// parseTypeName consumes a type keyword with an optional '*' suffix.
func (p *Parser) parseTypeName() *ast.TypeName {
	t := &ast.TypeName{Token: p.curToken, Name: p.curToken.Lexeme}
	if p.peekTokenIs(token.ASTERISK) {
		p.nextToken()
		t.Pointer = true
	}
	return t
}

func (p *Parser) parseDeclaration() ast.Statement {
	stmt := &ast.DeclarationStatement{Token: p.curToken}
	stmt.Type = p.parseTypeName()

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if p.peekTokenIs(token.ASSIGN) {
		p.nextToken() // '='
		p.nextToken()
		stmt.Init = p.parseExpression(LOWEST)
		if stmt.Init == nil {
			return nil
		}
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	p.nextToken()
	return stmt
}

func (p *Parser) parseFunctionDef() ast.Statement {
	defTok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	proto := &ast.ProtoStatement{
		Token: defTok,
		Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
	}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	if !p.parseParameterList(proto) {
		return nil
	}

	if p.peekTokenIs(token.TYPE) {
		p.nextToken()
		proto.ReturnType = p.parseTypeName()
	}

	if p.peekTokenIs(token.LBRACE) {
		p.nextToken()
		body := p.parseBraceBlock()
		if body == nil {
			return nil
		}
		return &ast.FunctionStatement{Token: defTok, Proto: proto, Body: body}
	}

	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	p.nextToken()
	return proto
}

// parseParameterList consumes '(' … ')'. Parameters are `ident` or
// `type ident`; a final `...` marks the prototype variadic.
func (p *Parser) parseParameterList(proto *ast.ProtoStatement) bool {
	for !p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		switch p.curToken.Type {
		case token.ELLIPSIS:
			proto.IsVarArgs = true
			if !p.peekTokenIs(token.RPAREN) {
				p.errorf(diagnostics.ErrP004, p.peekToken, "'...' must be the last parameter")
				return false
			}
		case token.TYPE:
			param := &ast.Parameter{Token: p.curToken, Type: p.parseTypeName()}
			if !p.expectPeek(token.IDENT) {
				return false
			}
			param.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
			proto.Params = append(proto.Params, param)
		case token.IDENT:
			proto.Params = append(proto.Params, &ast.Parameter{
				Token: p.curToken,
				Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
			})
		default:
			p.errorf(diagnostics.ErrP004, p.curToken, "unexpected token '%s' in parameter list", p.curToken.Lexeme)
			return false
		}
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		} else if !p.peekTokenIs(token.RPAREN) {
			p.errorf(diagnostics.ErrP004, p.peekToken, "expected ',' or ')' in parameter list")
			return false
		}
	}
	p.nextToken() // ')'
	return true
}

// parseBraceBlock consumes '{' stmts '}' and steps past the closing brace.
func (p *Parser) parseBraceBlock() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}
	p.nextToken() // consume '{'
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.errorf(diagnostics.ErrP002, p.curToken, "expected '}', got end of input")
			return nil
		}
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		block.Statements = append(block.Statements, stmt)
	}
	p.nextToken() // consume '}'
	return block
}

// parseBlock accepts either a braced block or a single statement.
func (p *Parser) parseBlock() *ast.BlockStatement {
	if p.curTokenIs(token.LBRACE) {
		return p.parseBraceBlock()
	}
	tok := p.curToken
	stmt := p.parseStatement()
	if stmt == nil {
		return nil
	}
	return &ast.BlockStatement{Token: tok, Statements: []ast.Statement{stmt}}
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if cond == nil {
		p.errorf(diagnostics.ErrP003, p.curToken, "if condition does not exist")
		return nil
	}
	p.nextToken()
	then := p.parseBlock()
	if then == nil {
		return nil
	}
	stmt.IfBranch = ast.CondBranch{Cond: cond, Then: then}

	for p.curTokenIs(token.ELSE) {
		p.nextToken() // consume 'else'
		if !p.curTokenIs(token.IF) {
			stmt.Else = p.parseBlock()
			if stmt.Else == nil {
				return nil
			}
			break
		}
		p.nextToken() // consume 'if'
		elseCond := p.parseExpression(LOWEST)
		if elseCond == nil {
			p.errorf(diagnostics.ErrP003, p.curToken, "if condition does not exist")
			return nil
		}
		p.nextToken()
		elseThen := p.parseBlock()
		if elseThen == nil {
			return nil
		}
		stmt.ElseIfs = append(stmt.ElseIfs, ast.CondBranch{Cond: elseCond, Then: elseThen})
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Cond = p.parseExpression(LOWEST)
	if stmt.Cond == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseDoWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken, IsDoWhile: true}
	p.nextToken()
	if !p.curTokenIs(token.LBRACE) {
		p.errorf(diagnostics.ErrP002, p.curToken, "expected '{' after 'do'")
		return nil
	}
	stmt.Body = p.parseBraceBlock()
	if stmt.Body == nil {
		return nil
	}
	if !p.expectCur(token.WHILE) {
		return nil
	}
	if !p.expectCur(token.LPAREN) {
		return nil
	}
	stmt.Cond = p.parseExpression(LOWEST)
	if stmt.Cond == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	p.nextToken()
	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.curToken}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()

	if p.curTokenIs(token.IDENT) {
		stmt.Init = p.tryParseAssignment(false)
		if p.fatal {
			return nil
		}
	}
	if !p.expectCur(token.SEMICOLON) {
		return nil
	}

	stmt.Cond = p.parseExpression(LOWEST)
	if stmt.Cond == nil {
		return nil
	}
	p.nextToken()
	if !p.expectCur(token.SEMICOLON) {
		return nil
	}

	stmt.Step = p.parseExpression(LOWEST)
	if stmt.Step == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	p.nextToken()

	stmt.Body = p.parseBlock()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
		p.nextToken()
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	p.nextToken()
	return stmt
}
