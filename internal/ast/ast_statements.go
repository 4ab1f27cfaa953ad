package ast

import (
	"github.com/funvibe/minicc/internal/token"
)

// ExpressionStatement is a statement that consists of a single expression.
type ExpressionStatement struct {
	Token      token.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()        {}
func (es *ExpressionStatement) TokenLiteral() string  { return es.Token.Lexeme }
func (es *ExpressionStatement) GetToken() token.Token { return es.Token }

// AssignStatement represents name = rvalue.
type AssignStatement struct {
	Token  token.Token // the identifier token
	Name   *Identifier
	Rvalue Expression
}

func (as *AssignStatement) statementNode()        {}
func (as *AssignStatement) TokenLiteral() string  { return as.Token.Lexeme }
func (as *AssignStatement) GetToken() token.Token { return as.Token }

// DeclarationStatement represents type name [= init].
type DeclarationStatement struct {
	Token token.Token // the type keyword token
	Type  *TypeName
	Name  *Identifier
	Init  Expression // may be nil
}

func (ds *DeclarationStatement) statementNode()        {}
func (ds *DeclarationStatement) TokenLiteral() string  { return ds.Token.Lexeme }
func (ds *DeclarationStatement) GetToken() token.Token { return ds.Token }

// Parameter is a single prototype parameter. Type may be nil for the
// untyped form, which defaults to double.
type Parameter struct {
	Token token.Token
	Name  *Identifier
	Type  *TypeName
}

// ProtoStatement represents a function signature. The `;` form of def
// yields a bare prototype; the braced form wraps it in a FunctionStatement.
type ProtoStatement struct {
	Token      token.Token // the 'def' token
	Name       *Identifier
	Params     []*Parameter
	ReturnType *TypeName // nil defaults to double
	IsVarArgs  bool
}

func (ps *ProtoStatement) statementNode()        {}
func (ps *ProtoStatement) TokenLiteral() string  { return ps.Token.Lexeme }
func (ps *ProtoStatement) GetToken() token.Token { return ps.Token }

// FunctionStatement represents a function definition.
type FunctionStatement struct {
	Token token.Token // the 'def' token
	Proto *ProtoStatement
	Body  *BlockStatement
}

func (fs *FunctionStatement) statementNode()        {}
func (fs *FunctionStatement) TokenLiteral() string  { return fs.Token.Lexeme }
func (fs *FunctionStatement) GetToken() token.Token { return fs.Token }

// CondBranch pairs a condition with its block; used by if and else-if arms.
type CondBranch struct {
	Cond Expression
	Then *BlockStatement
}

// IfStatement represents if/else-if/else chains.
type IfStatement struct {
	Token    token.Token // the 'if' token
	IfBranch CondBranch
	ElseIfs  []CondBranch
	Else     *BlockStatement // may be nil
}

func (is *IfStatement) statementNode()        {}
func (is *IfStatement) TokenLiteral() string  { return is.Token.Lexeme }
func (is *IfStatement) GetToken() token.Token { return is.Token }

// WhileStatement represents while and do-while loops.
type WhileStatement struct {
	Token     token.Token // the 'while' or 'do' token
	Cond      Expression
	Body      *BlockStatement
	IsDoWhile bool
}

func (ws *WhileStatement) statementNode()        {}
func (ws *WhileStatement) TokenLiteral() string  { return ws.Token.Lexeme }
func (ws *WhileStatement) GetToken() token.Token { return ws.Token }

// ForStatement represents for (init; cond; step) body. Init may be nil.
type ForStatement struct {
	Token token.Token // the 'for' token
	Init  *AssignStatement
	Cond  Expression
	Step  Expression
	Body  *BlockStatement
}

func (fs *ForStatement) statementNode()        {}
func (fs *ForStatement) TokenLiteral() string  { return fs.Token.Lexeme }
func (fs *ForStatement) GetToken() token.Token { return fs.Token }

// ReturnStatement represents return [expr].
type ReturnStatement struct {
	Token token.Token // the 'return' token
	Value Expression  // may be nil
}

func (rs *ReturnStatement) statementNode()        {}
func (rs *ReturnStatement) TokenLiteral() string  { return rs.Token.Lexeme }
func (rs *ReturnStatement) GetToken() token.Token { return rs.Token }

// BlockStatement represents a list of statements within curly braces, or
// the single-statement block form the grammar permits after if/while.
type BlockStatement struct {
	Token      token.Token // '{', or the first token of a single statement
	Statements []Statement
}

func (bs *BlockStatement) statementNode()        {}
func (bs *BlockStatement) TokenLiteral() string  { return bs.Token.Lexeme }
func (bs *BlockStatement) GetToken() token.Token { return bs.Token }
