// Package emitter lowers the AST to SSA form on an llir module: functions,
// basic blocks and typed values per the per-node contracts of the language.
package emitter

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/funvibe/minicc/internal/diagnostics"
	"github.com/funvibe/minicc/internal/token"
	"github.com/funvibe/minicc/internal/typesystem"
)

// emitError aborts the unit; it carries the diagnostic reported to the
// driver.
type emitError struct {
	diag *diagnostics.Diagnostic
}

func (e *emitError) Error() string {
	return e.diag.Message
}

// Emitter walks AST nodes carrying the module context and the current
// insertion point. A nil fn means the emitter sits at module scope. A nil
// block means module scope too, or, inside a function, that no code can
// follow (every arm of an if terminated).
type Emitter struct {
	mc *ModuleContext

	fn      *ir.Func
	entry   *ir.Block // alloca placement target
	block   *ir.Block // current insertion point, nil after a terminator
	retType typesystem.Type

	// names uniquifies local value and block names within the function.
	names map[string]int
}

func New(mc *ModuleContext) *Emitter {
	return &Emitter{mc: mc}
}

func (e *Emitter) errorf(code diagnostics.Code, tok token.Token, format string, args ...interface{}) error {
	return &emitError{diag: diagnostics.NewError(code, tok, format, args...)}
}

// Diagnostic unwraps the diagnostic carried by an emit error.
func Diagnostic(err error) *diagnostics.Diagnostic {
	if ee, ok := err.(*emitError); ok {
		return ee.diag
	}
	return diagnostics.NewError(diagnostics.ErrR001, token.Token{}, "%s", err.Error())
}

// name returns base, uniquified within the current function.
func (e *Emitter) name(base string) string {
	if e.names == nil {
		e.names = map[string]int{}
	}
	n := e.names[base]
	e.names[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s%d", base, n)
}

func (e *Emitter) newBlock(base string) *ir.Block {
	return e.fn.NewBlock(e.name(base))
}

// terminated reports whether the insertion point is closed.
func (e *Emitter) terminated() bool {
	return e.block == nil || e.block.Term != nil
}

// tryCast coerces v to dest, following the numeric conversion rules:
// fptosi/sitofp across the int/float boundary, zext out of i1, sext when
// widening and trunc when narrowing. An impossible cast aborts the unit.
func (e *Emitter) tryCast(v value.Value, dest types.Type, tok token.Token) (value.Value, error) {
	src := v.Type()
	if src.Equal(dest) {
		return v, nil
	}

	srcInt, srcIsInt := src.(*types.IntType)
	destInt, destIsInt := dest.(*types.IntType)
	_, srcIsFloat := src.(*types.FloatType)
	_, destIsFloat := dest.(*types.FloatType)

	// Nothing converts into i1 implicitly.
	if destIsInt && destInt.BitSize == 1 {
		return nil, e.errorf(diagnostics.ErrE003, tok, "unsupported cast from %s to %s", src, dest)
	}
	if srcIsFloat && destIsInt {
		return e.block.NewFPToSI(v, dest), nil
	}
	if srcIsInt && destIsFloat {
		return e.block.NewSIToFP(v, dest), nil
	}
	if srcIsInt && destIsInt {
		switch {
		case srcInt.BitSize == 1:
			return e.block.NewZExt(v, dest), nil
		case destInt.BitSize > srcInt.BitSize:
			return e.block.NewSExt(v, dest), nil
		default:
			return e.block.NewTrunc(v, dest), nil
		}
	}
	return nil, e.errorf(diagnostics.ErrE003, tok, "unsupported cast from %s to %s", src, dest)
}

// condValue turns an expression value into an i1, comparing numerics
// against zero.
func (e *Emitter) condValue(v value.Value, t typesystem.Type, tok token.Token) (value.Value, error) {
	switch {
	case t.Kind == typesystem.KindBoolean && !t.Pointer:
		return v, nil
	case t.IsFloat():
		zero := constant.NewFloat(types.Double, 0)
		res, err := typesystem.Double.EmitBinary(e.block, token.NOT_EQ, v, zero, e.name("cond"))
		if err != nil {
			return nil, e.errorf(diagnostics.ErrE004, tok, "%s", err.Error())
		}
		return res, nil
	case t.IsNumeric():
		zero := constant.NewInt(v.Type().(*types.IntType), 0)
		res, err := t.EmitBinary(e.block, token.NOT_EQ, v, zero, e.name("cond"))
		if err != nil {
			return nil, e.errorf(diagnostics.ErrE004, tok, "%s", err.Error())
		}
		return res, nil
	}
	return nil, e.errorf(diagnostics.ErrE004, tok, "type %s cannot be used as a condition", t)
}

// entryAlloca places a stack slot in the function entry block regardless
// of the current insertion point.
func (e *Emitter) entryAlloca(t types.Type, name string) *ir.InstAlloca {
	alloca := ir.NewAlloca(t)
	alloca.SetName(name)
	e.entry.Insts = append(e.entry.Insts, alloca)
	return alloca
}
