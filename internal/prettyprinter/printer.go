// Package prettyprinter renders an AST back to canonical source text. The
// output re-parses to a structurally equal tree, which the parser tests
// rely on.
package prettyprinter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/minicc/internal/ast"
)

type CodePrinter struct {
	buf    strings.Builder
	indent int
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) PrintProgram(prog *ast.Program) string {
	for _, stmt := range prog.Statements {
		p.printStatement(stmt)
		p.buf.WriteByte('\n')
	}
	return p.String()
}

func (p *CodePrinter) writeIndent() {
	p.buf.WriteString(strings.Repeat("    ", p.indent))
}

func (p *CodePrinter) printStatement(stmt ast.Statement) {
	p.writeIndent()
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		p.printExpression(s.Expression)
		p.buf.WriteByte(';')
	case *ast.AssignStatement:
		p.buf.WriteString(s.Name.Value)
		p.buf.WriteString(" = ")
		p.printExpression(s.Rvalue)
		p.buf.WriteByte(';')
	case *ast.DeclarationStatement:
		p.buf.WriteString(s.Type.String())
		p.buf.WriteByte(' ')
		p.buf.WriteString(s.Name.Value)
		if s.Init != nil {
			p.buf.WriteString(" = ")
			p.printExpression(s.Init)
		}
		p.buf.WriteByte(';')
	case *ast.ProtoStatement:
		p.printProto(s)
		p.buf.WriteByte(';')
	case *ast.FunctionStatement:
		p.printProto(s.Proto)
		p.buf.WriteByte(' ')
		p.printBlock(s.Body)
	case *ast.IfStatement:
		p.buf.WriteString("if ")
		p.printExpression(s.IfBranch.Cond)
		p.buf.WriteByte(' ')
		p.printBlock(s.IfBranch.Then)
		for _, branch := range s.ElseIfs {
			p.buf.WriteString(" else if ")
			p.printExpression(branch.Cond)
			p.buf.WriteByte(' ')
			p.printBlock(branch.Then)
		}
		if s.Else != nil {
			p.buf.WriteString(" else ")
			p.printBlock(s.Else)
		}
	case *ast.WhileStatement:
		if s.IsDoWhile {
			p.buf.WriteString("do ")
			p.printBlock(s.Body)
			p.buf.WriteString(" while (")
			p.printExpression(s.Cond)
			p.buf.WriteString(");")
		} else {
			p.buf.WriteString("while (")
			p.printExpression(s.Cond)
			p.buf.WriteString(") ")
			p.printBlock(s.Body)
		}
	case *ast.ForStatement:
		p.buf.WriteString("for (")
		if s.Init != nil {
			p.buf.WriteString(s.Init.Name.Value)
			p.buf.WriteString(" = ")
			p.printExpression(s.Init.Rvalue)
		}
		p.buf.WriteString("; ")
		p.printExpression(s.Cond)
		p.buf.WriteString("; ")
		p.printExpression(s.Step)
		p.buf.WriteString(") ")
		p.printBlock(s.Body)
	case *ast.ReturnStatement:
		p.buf.WriteString("return")
		if s.Value != nil {
			p.buf.WriteByte(' ')
			p.printExpression(s.Value)
		}
		p.buf.WriteByte(';')
	case *ast.BlockStatement:
		p.printBlock(s)
	}
}

func (p *CodePrinter) printProto(proto *ast.ProtoStatement) {
	p.buf.WriteString("def ")
	p.buf.WriteString(proto.Name.Value)
	p.buf.WriteByte('(')
	for i, param := range proto.Params {
		if i > 0 {
			p.buf.WriteString(", ")
		}
		if param.Type != nil {
			p.buf.WriteString(param.Type.String())
			p.buf.WriteByte(' ')
		}
		p.buf.WriteString(param.Name.Value)
	}
	if proto.IsVarArgs {
		if len(proto.Params) > 0 {
			p.buf.WriteString(", ")
		}
		p.buf.WriteString("...")
	}
	p.buf.WriteByte(')')
	if proto.ReturnType != nil {
		p.buf.WriteByte(' ')
		p.buf.WriteString(proto.ReturnType.String())
	}
}

func (p *CodePrinter) printBlock(block *ast.BlockStatement) {
	p.buf.WriteString("{\n")
	p.indent++
	for _, stmt := range block.Statements {
		p.printStatement(stmt)
		p.buf.WriteByte('\n')
	}
	p.indent--
	p.writeIndent()
	p.buf.WriteByte('}')
}

func (p *CodePrinter) printExpression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		p.buf.WriteString(formatNumber(e))
	case *ast.StringLiteral:
		p.buf.WriteString(strconv.Quote(e.Value))
	case *ast.BooleanLiteral:
		p.buf.WriteString(strconv.FormatBool(e.Value))
	case *ast.Identifier:
		p.buf.WriteString(e.Value)
	case *ast.InfixExpression:
		p.buf.WriteByte('(')
		p.printExpression(e.Left)
		p.buf.WriteByte(' ')
		p.buf.WriteString(e.Operator.String())
		p.buf.WriteByte(' ')
		p.printExpression(e.Right)
		p.buf.WriteByte(')')
	case *ast.UnaryExpression:
		if e.Position == ast.Postfix {
			p.printExpression(e.Operand)
			p.buf.WriteString(e.Operator.String())
			return
		}
		p.buf.WriteString(e.Operator.String())
		p.buf.WriteByte('(')
		p.printExpression(e.Operand)
		p.buf.WriteByte(')')
	case *ast.CallExpression:
		p.buf.WriteString(e.Callee.Value)
		p.buf.WriteByte('(')
		for i, arg := range e.Arguments {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.printExpression(arg)
		}
		p.buf.WriteByte(')')
	case *ast.TernaryExpression:
		p.buf.WriteByte('(')
		p.printExpression(e.Condition)
		p.buf.WriteString(" ? ")
		p.printExpression(e.Then)
		p.buf.WriteString(" : ")
		p.printExpression(e.Else)
		p.buf.WriteByte(')')
	case *ast.MemberExpression:
		p.printExpression(e.Target)
		p.buf.WriteByte('.')
		p.buf.WriteString(e.Field.Value)
	case *ast.MethodCallExpression:
		p.printExpression(e.Target)
		p.buf.WriteByte('.')
		p.buf.WriteString(e.Name.Value)
		p.buf.WriteByte('(')
		for i, arg := range e.Arguments {
			if i > 0 {
				p.buf.WriteString(", ")
			}
			p.printExpression(arg)
		}
		p.buf.WriteByte(')')
	}
}

func formatNumber(n *ast.NumberLiteral) string {
	if n.IsFloat {
		s := strconv.FormatFloat(n.Value, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	return fmt.Sprintf("%d", int64(n.Value))
}
