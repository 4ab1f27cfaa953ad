// Package typesystem models the semantic types of the language and their
// lowering to IR. Each type answers which binary and unary operations it
// supports and knows how to materialize them on a basic block.
package typesystem

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/funvibe/minicc/internal/token"
)

type Kind int

const (
	KindBoolean Kind = iota
	KindByte         // unsigned 8
	KindChar         // signed 8
	KindInteger      // signed 32
	KindDouble
	KindStr // pointer to byte
	KindVoid
)

// Type is a semantic type: a kind plus an optional one-level pointer mark.
type Type struct {
	Kind    Kind
	Pointer bool
}

var (
	Boolean = Type{Kind: KindBoolean}
	Byte    = Type{Kind: KindByte}
	Char    = Type{Kind: KindChar}
	Integer = Type{Kind: KindInteger}
	Double  = Type{Kind: KindDouble}
	Str     = Type{Kind: KindStr}
	Void    = Type{Kind: KindVoid}
)

var kindNames = map[Kind]string{
	KindBoolean: "bool",
	KindByte:    "byte",
	KindChar:    "char",
	KindInteger: "int",
	KindDouble:  "double",
	KindStr:     "str",
	KindVoid:    "void",
}

var namedTypes = map[string]Type{
	"bool":   Boolean,
	"byte":   Byte,
	"char":   Char,
	"int":    Integer,
	"double": Double,
	"str":    Str,
	"void":   Void,
}

// FromName resolves a surface type annotation.
func FromName(name string, pointer bool) (Type, bool) {
	t, ok := namedTypes[name]
	if !ok {
		return Type{}, false
	}
	t.Pointer = pointer
	return t, true
}

func (t Type) String() string {
	name := kindNames[t.Kind]
	if t.Pointer {
		return name + "*"
	}
	return name
}

// IsNumeric reports whether arithmetic applies to the type.
func (t Type) IsNumeric() bool {
	if t.Pointer {
		return false
	}
	switch t.Kind {
	case KindByte, KindChar, KindInteger, KindDouble:
		return true
	}
	return false
}

// IsSigned reports whether integer operations use signed forms.
func (t Type) IsSigned() bool {
	switch t.Kind {
	case KindChar, KindInteger, KindDouble:
		return true
	}
	return false
}

func (t Type) IsFloat() bool {
	return t.Kind == KindDouble
}

// BitWidth returns the integer width backing the type, 0 for non-integers.
func (t Type) BitWidth() int {
	switch t.Kind {
	case KindBoolean:
		return 1
	case KindByte, KindChar:
		return 8
	case KindInteger:
		return 32
	}
	return 0
}

// Lower materializes the backend type.
func (t Type) Lower() types.Type {
	var base types.Type
	switch t.Kind {
	case KindBoolean:
		base = types.I1
	case KindByte, KindChar:
		base = types.I8
	case KindInteger:
		base = types.I32
	case KindDouble:
		base = types.Double
	case KindStr:
		base = types.NewPointer(types.I8)
	case KindVoid:
		base = types.Void
	}
	if t.Pointer {
		return types.NewPointer(base)
	}
	return base
}

func isArithmetic(op token.TokenType) bool {
	switch op {
	case token.PLUS, token.MINUS, token.ASTERISK, token.SLASH:
		return true
	}
	return false
}

func isComparison(op token.TokenType) bool {
	switch op {
	case token.EQ, token.NOT_EQ, token.LT, token.LTE, token.GT, token.GTE:
		return true
	}
	return false
}

func isBitwise(op token.TokenType) bool {
	switch op {
	case token.AMPERSAND, token.PIPE, token.CARET:
		return true
	}
	return false
}

// SupportsBinary reports whether op is defined between t and other.
func (t Type) SupportsBinary(op token.TokenType, other Type) bool {
	if t.Pointer || other.Pointer {
		return false
	}
	switch t.Kind {
	case KindBoolean:
		if other.Kind != KindBoolean {
			return false
		}
		switch op {
		case token.EQ, token.NOT_EQ, token.AND, token.OR:
			return true
		}
		return false
	case KindByte:
		if !other.IsNumeric() {
			return false
		}
		return isArithmetic(op) || isComparison(op) || (isBitwise(op) && other.Kind == KindByte)
	case KindChar, KindInteger, KindDouble:
		if !other.IsNumeric() {
			return false
		}
		return isArithmetic(op) || isComparison(op)
	}
	return false
}

// SupportsUnary reports whether the unary op is defined on t.
func (t Type) SupportsUnary(op token.TokenType) bool {
	if t.Pointer {
		return false
	}
	switch t.Kind {
	case KindBoolean:
		return op == token.BANG
	case KindByte, KindChar, KindInteger, KindDouble:
		switch op {
		case token.PLUS, token.MINUS, token.INCREMENT, token.DECREMENT:
			return true
		}
	}
	return false
}

// Promote computes the operand type for a mixed binary operation: Double
// wins, otherwise the wider integer; on equal width the right type wins,
// as the backend promotion did.
func Promote(a, b Type) (Type, bool) {
	if a.Pointer || b.Pointer {
		return Type{}, false
	}
	if a == b {
		return a, true
	}
	if !a.IsNumeric() && a.Kind != KindBoolean {
		return Type{}, false
	}
	if !b.IsNumeric() && b.Kind != KindBoolean {
		return Type{}, false
	}
	if a.Kind == KindDouble || b.Kind == KindDouble {
		return Double, true
	}
	if a.BitWidth() > b.BitWidth() {
		return a, true
	}
	return b, true
}

// EmitBinary emits op on a block for two operands already of type t.
// Comparison operators yield i1 regardless of t.
func (t Type) EmitBinary(block *ir.Block, op token.TokenType, lhs, rhs value.Value, name string) (value.Value, error) {
	switch {
	case isArithmetic(op):
		return t.emitArith(block, op, lhs, rhs, name)
	case isComparison(op):
		return t.emitCompare(block, op, lhs, rhs, name)
	case isBitwise(op) && t.Kind == KindByte:
		return t.emitBitwise(block, op, lhs, rhs, name)
	case t.Kind == KindBoolean && op == token.AND:
		return named(block.NewAnd(lhs, rhs), name), nil
	case t.Kind == KindBoolean && op == token.OR:
		return named(block.NewOr(lhs, rhs), name), nil
	}
	return nil, fmt.Errorf("operation '%s' is not supported for type %s", op, t)
}

func (t Type) emitArith(block *ir.Block, op token.TokenType, lhs, rhs value.Value, name string) (value.Value, error) {
	if t.IsFloat() {
		switch op {
		case token.PLUS:
			return named(block.NewFAdd(lhs, rhs), name), nil
		case token.MINUS:
			return named(block.NewFSub(lhs, rhs), name), nil
		case token.ASTERISK:
			return named(block.NewFMul(lhs, rhs), name), nil
		case token.SLASH:
			return named(block.NewFDiv(lhs, rhs), name), nil
		}
	}
	switch op {
	case token.PLUS:
		return named(block.NewAdd(lhs, rhs), name), nil
	case token.MINUS:
		return named(block.NewSub(lhs, rhs), name), nil
	case token.ASTERISK:
		return named(block.NewMul(lhs, rhs), name), nil
	case token.SLASH:
		if t.IsSigned() {
			return named(block.NewSDiv(lhs, rhs), name), nil
		}
		return named(block.NewUDiv(lhs, rhs), name), nil
	}
	return nil, fmt.Errorf("operation '%s' is not arithmetic", op)
}

func (t Type) emitBitwise(block *ir.Block, op token.TokenType, lhs, rhs value.Value, name string) (value.Value, error) {
	switch op {
	case token.AMPERSAND:
		return named(block.NewAnd(lhs, rhs), name), nil
	case token.PIPE:
		return named(block.NewOr(lhs, rhs), name), nil
	case token.CARET:
		return named(block.NewXor(lhs, rhs), name), nil
	}
	return nil, fmt.Errorf("operation '%s' is not bitwise", op)
}

var intPredicates = map[token.TokenType][2]enum.IPred{
	// [signed, unsigned]
	token.LT:     {enum.IPredSLT, enum.IPredULT},
	token.LTE:    {enum.IPredSLE, enum.IPredULE},
	token.GT:     {enum.IPredSGT, enum.IPredUGT},
	token.GTE:    {enum.IPredSGE, enum.IPredUGE},
	token.EQ:     {enum.IPredEQ, enum.IPredEQ},
	token.NOT_EQ: {enum.IPredNE, enum.IPredNE},
}

var floatPredicates = map[token.TokenType]enum.FPred{
	token.LT:     enum.FPredOLT,
	token.LTE:    enum.FPredOLE,
	token.GT:     enum.FPredOGT,
	token.GTE:    enum.FPredOGE,
	token.EQ:     enum.FPredOEQ,
	token.NOT_EQ: enum.FPredONE,
}

func (t Type) emitCompare(block *ir.Block, op token.TokenType, lhs, rhs value.Value, name string) (value.Value, error) {
	if t.IsFloat() {
		pred, ok := floatPredicates[op]
		if !ok {
			return nil, fmt.Errorf("unsupported float comparison '%s'", op)
		}
		return named(block.NewFCmp(pred, lhs, rhs), name), nil
	}
	preds, ok := intPredicates[op]
	if !ok {
		return nil, fmt.Errorf("unsupported integer comparison '%s'", op)
	}
	if t.IsSigned() {
		return named(block.NewICmp(preds[0], lhs, rhs), name), nil
	}
	return named(block.NewICmp(preds[1], lhs, rhs), name), nil
}

// EmitUnary emits a unary op. For increment and decrement, storage is the
// variable slot updated in place; the returned value is the post-value for
// the prefix form and the pre-value for the postfix form.
func (t Type) EmitUnary(block *ir.Block, op token.TokenType, operand value.Value, storage value.Value, prefix bool, name string) (value.Value, error) {
	switch op {
	case token.PLUS:
		return operand, nil
	case token.MINUS:
		if t.IsFloat() {
			zero := constant.NewFloat(types.Double, 0)
			return named(block.NewFSub(zero, operand), name), nil
		}
		zero := constant.NewInt(operand.Type().(*types.IntType), 0)
		return named(block.NewSub(zero, operand), name), nil
	case token.BANG:
		if t.Kind != KindBoolean {
			return nil, fmt.Errorf("operation '!' is not supported for type %s", t)
		}
		return named(block.NewXor(operand, constant.NewBool(true)), name), nil
	case token.INCREMENT, token.DECREMENT:
		delta := int64(1)
		if op == token.DECREMENT {
			delta = -1
		}
		var result value.Value
		if t.IsFloat() {
			result = named(block.NewFAdd(operand, constant.NewFloat(types.Double, float64(delta))), name)
		} else {
			result = named(block.NewAdd(operand, constant.NewInt(operand.Type().(*types.IntType), delta)), name)
		}
		if storage != nil {
			block.NewStore(result, storage)
		}
		if prefix {
			return result, nil
		}
		return operand, nil
	}
	return nil, fmt.Errorf("unsupported unary operation '%s'", op)
}

func named(v value.Value, name string) value.Value {
	if name == "" {
		return v
	}
	if n, ok := v.(value.Named); ok {
		n.SetName(name)
	}
	return v
}
