// Package diagnostics defines the error values produced by every pipeline
// stage and the span-annotated formatting used to report them.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/funvibe/minicc/internal/reader"
	"github.com/funvibe/minicc/internal/token"
)

type Code string

const (
	// Lexer
	ErrL001 Code = "L001" // malformed numeric literal
	ErrL002 Code = "L002" // unterminated string
	ErrL003 Code = "L003" // illegal character

	// Parser
	ErrP001 Code = "P001" // unexpected token
	ErrP002 Code = "P002" // missing token (';', ')', '}')
	ErrP003 Code = "P003" // missing condition
	ErrP004 Code = "P004" // malformed parameter list

	// Emitter / semantic
	ErrE001 Code = "E001" // unknown variable
	ErrE002 Code = "E002" // redeclaration
	ErrE003 Code = "E003" // unsupported cast
	ErrE004 Code = "E004" // unsupported operation for operand types
	ErrE005 Code = "E005" // argument count mismatch
	ErrE006 Code = "E006" // assignment to constant global
	ErrE007 Code = "E007" // missing return in non-void function
	ErrE008 Code = "E008" // global initializer not constant
	ErrE009 Code = "E009" // undefined reference

	// Verifier
	ErrV001 Code = "V001"

	// Runtime
	ErrR001 Code = "R001"
)

// Diagnostic is a single fatal error for the current compilation unit.
type Diagnostic struct {
	Code    Code
	Token   token.Token
	Message string
	File    string
}

func NewError(code Code, tok token.Token, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{
		Code:    code,
		Token:   tok,
		Message: fmt.Sprintf(format, args...),
	}
}

func (d *Diagnostic) Error() string {
	if d.File != "" {
		return fmt.Sprintf("%s:%d:%d: [%s] %s", d.File, d.Token.Line, d.Token.Column, d.Code, d.Message)
	}
	if d.Token.Line > 0 {
		return fmt.Sprintf("%d:%d: [%s] %s", d.Token.Line, d.Token.Column, d.Code, d.Message)
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

// Annotate renders the source line holding the diagnostic's token, a '-'
// padding up to the token column, '^' marks across the token extent and the
// message on the following line.
func (d *Diagnostic) Annotate(source []byte) string {
	if d.Token.End < d.Token.Start || d.Token.Start >= len(source) {
		return d.Error()
	}
	start, end := reader.LineBounds(source, d.Token.Start)
	line := string(source[start:end])

	padding := d.Token.Start - start
	extent := d.Token.End - d.Token.Start + 1
	if d.Token.End >= end {
		extent = end - d.Token.Start
	}
	if extent < 1 {
		extent = 1
	}

	var b strings.Builder
	b.WriteString(line)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("-", padding))
	b.WriteString(strings.Repeat("^", extent))
	b.WriteByte('\n')
	b.WriteString(d.Error())
	return b.String()
}
