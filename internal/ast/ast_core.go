package ast

import (
	"github.com/funvibe/minicc/internal/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	GetToken() token.Token
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node of every AST our parser produces.
type Program struct {
	File       string // Source file path
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) GetToken() token.Token {
	if len(p.Statements) > 0 {
		return p.Statements[0].GetToken()
	}
	return token.Token{}
}

// TypeName is a surface type annotation: one of the primitive type keywords,
// optionally marked as a one-level pointer.
type TypeName struct {
	Token   token.Token // the type keyword token
	Name    string      // bool, byte, char, int, double, str, void
	Pointer bool        // true for a trailing '*'
}

func (t *TypeName) String() string {
	if t == nil {
		return ""
	}
	if t.Pointer {
		return t.Name + "*"
	}
	return t.Name
}
