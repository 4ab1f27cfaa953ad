package emitter

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/funvibe/minicc/internal/ast"
	"github.com/funvibe/minicc/internal/diagnostics"
	"github.com/funvibe/minicc/internal/symbols"
	"github.com/funvibe/minicc/internal/token"
	"github.com/funvibe/minicc/internal/typesystem"
)

// emitExpr produces a typed SSA value for an expression node.
func (e *Emitter) emitExpr(node ast.Expression) (value.Value, typesystem.Type, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		if n.IsFloat {
			return constant.NewFloat(types.Double, n.Value), typesystem.Double, nil
		}
		return constant.NewInt(types.I32, int64(n.Value)), typesystem.Integer, nil

	case *ast.BooleanLiteral:
		return constant.NewBool(n.Value), typesystem.Boolean, nil

	case *ast.StringLiteral:
		return e.emitString(n)

	case *ast.Identifier:
		return e.emitIdentifier(n)

	case *ast.InfixExpression:
		return e.emitInfix(n)

	case *ast.UnaryExpression:
		return e.emitUnary(n)

	case *ast.CallExpression:
		return e.emitCall(n)

	case *ast.TernaryExpression:
		return e.emitTernary(n)

	case *ast.MemberExpression:
		return nil, typesystem.Void, e.errorf(diagnostics.ErrE004, n.Token,
			"field access is not supported: no aggregate types")

	case *ast.MethodCallExpression:
		return nil, typesystem.Void, e.errorf(diagnostics.ErrE004, n.Token,
			"method calls are not supported: no aggregate types")
	}
	return nil, typesystem.Void, e.errorf(diagnostics.ErrR001, node.GetToken(), "unhandled expression node")
}

// emitString materializes a private global byte array holding the literal
// bytes and yields a pointer to its first byte.
func (e *Emitter) emitString(n *ast.StringLiteral) (value.Value, typesystem.Type, error) {
	arr := constant.NewCharArrayFromString(n.Value)
	global := e.mc.Module.NewGlobalDef(e.mc.nextStrName(), arr)
	global.Linkage = enum.LinkagePrivate
	global.Immutable = true

	zero := constant.NewInt(types.I32, 0)
	ptr := e.block.NewGetElementPtr(arr.Typ, global, zero, zero)
	return ptr, typesystem.Str, nil
}

func (e *Emitter) emitIdentifier(n *ast.Identifier) (value.Value, typesystem.Type, error) {
	if sym, ok := e.mc.SymTable.Resolve(n.Value); ok {
		load := e.block.NewLoad(sym.Type.Lower(), sym.Slot)
		load.SetName(e.name(n.Value))
		return load, sym.Type, nil
	}
	if sym, ok := e.mc.Globals[n.Value]; ok {
		load := e.block.NewLoad(sym.Type.Lower(), sym.Slot)
		load.SetName(e.name(n.Value + ".global"))
		return load, sym.Type, nil
	}
	return nil, typesystem.Void, e.errorf(diagnostics.ErrE001, n.Token, "unknown variable name: %s", n.Value)
}

func (e *Emitter) emitInfix(n *ast.InfixExpression) (value.Value, typesystem.Type, error) {
	lhs, lhsType, err := e.emitExpr(n.Left)
	if err != nil {
		return nil, typesystem.Void, err
	}
	rhs, rhsType, err := e.emitExpr(n.Right)
	if err != nil {
		return nil, typesystem.Void, err
	}
	if lhsType.Pointer || rhsType.Pointer || lhsType.Kind == typesystem.KindStr || rhsType.Kind == typesystem.KindStr {
		return nil, typesystem.Void, e.errorf(diagnostics.ErrE004, n.Token,
			"operation '%s' is not supported for pointer operands", n.Operator)
	}

	resType, ok := typesystem.Promote(lhsType, rhsType)
	if !ok {
		return nil, typesystem.Void, e.errorf(diagnostics.ErrE003, n.Token,
			"type mismatch: %s and %s", lhsType, rhsType)
	}
	if !resType.SupportsBinary(n.Operator, resType) {
		return nil, typesystem.Void, e.errorf(diagnostics.ErrE004, n.Token,
			"operation '%s' is not supported for types %s and %s", n.Operator, lhsType, rhsType)
	}

	lhs, err = e.tryCast(lhs, resType.Lower(), n.Left.GetToken())
	if err != nil {
		return nil, typesystem.Void, err
	}
	rhs, err = e.tryCast(rhs, resType.Lower(), n.Right.GetToken())
	if err != nil {
		return nil, typesystem.Void, err
	}

	result, err := resType.EmitBinary(e.block, n.Operator, lhs, rhs, e.name(opName(n.Operator)))
	if err != nil {
		return nil, typesystem.Void, e.errorf(diagnostics.ErrE004, n.Token, "%s", err.Error())
	}
	if isComparisonOp(n.Operator) || n.Operator == token.AND || n.Operator == token.OR {
		return result, typesystem.Boolean, nil
	}
	return result, resType, nil
}

func (e *Emitter) emitUnary(n *ast.UnaryExpression) (value.Value, typesystem.Type, error) {
	switch n.Operator {
	case token.PLUS, token.MINUS, token.BANG:
		operand, operandType, err := e.emitExpr(n.Operand)
		if err != nil {
			return nil, typesystem.Void, err
		}
		if !operandType.SupportsUnary(n.Operator) {
			return nil, typesystem.Void, e.errorf(diagnostics.ErrE004, n.Token,
				"operation '%s' is not supported for type %s", n.Operator, operandType)
		}
		result, err := operandType.EmitUnary(e.block, n.Operator, operand, nil, true, e.name(opName(n.Operator)))
		if err != nil {
			return nil, typesystem.Void, e.errorf(diagnostics.ErrE004, n.Token, "%s", err.Error())
		}
		return result, operandType, nil

	case token.INCREMENT, token.DECREMENT:
		ident, ok := n.Operand.(*ast.Identifier)
		if !ok {
			return nil, typesystem.Void, e.errorf(diagnostics.ErrE004, n.Token,
				"operation '%s' requires a variable", n.Operator)
		}
		sym, err := e.resolveSlot(ident)
		if err != nil {
			return nil, typesystem.Void, err
		}
		if sym.IsConstant {
			return nil, typesystem.Void, e.errorf(diagnostics.ErrE006, ident.Token,
				"variable: %s is constant", ident.Value)
		}
		if !sym.Type.SupportsUnary(n.Operator) {
			return nil, typesystem.Void, e.errorf(diagnostics.ErrE004, n.Token,
				"operation '%s' is not supported for type %s", n.Operator, sym.Type)
		}
		load := e.block.NewLoad(sym.Type.Lower(), sym.Slot)
		load.SetName(e.name(ident.Value))
		result, err := sym.Type.EmitUnary(e.block, n.Operator, load, sym.Slot, n.Position == ast.Prefix, e.name(opName(n.Operator)))
		if err != nil {
			return nil, typesystem.Void, e.errorf(diagnostics.ErrE004, n.Token, "%s", err.Error())
		}
		return result, sym.Type, nil
	}
	return nil, typesystem.Void, e.errorf(diagnostics.ErrE004, n.Token, "unsupported unary operation '%s'", n.Operator)
}

// resolveSlot finds the storage slot behind an identifier, local first,
// then global.
func (e *Emitter) resolveSlot(ident *ast.Identifier) (symbols.Symbol, error) {
	if sym, ok := e.mc.SymTable.Resolve(ident.Value); ok {
		return sym, nil
	}
	if sym, ok := e.mc.Globals[ident.Value]; ok {
		return sym, nil
	}
	return symbols.Symbol{}, e.errorf(diagnostics.ErrE001, ident.Token, "unknown variable name: %s", ident.Value)
}

func (e *Emitter) emitCall(n *ast.CallExpression) (value.Value, typesystem.Type, error) {
	callee, sig, err := e.moduleFunction(n.Callee.Value, n.Callee.Token)
	if err != nil {
		return nil, typesystem.Void, err
	}

	if !sig.Variadic && len(n.Arguments) != len(sig.Params) {
		return nil, typesystem.Void, e.errorf(diagnostics.ErrE005, n.Token,
			"function %s expects %d arguments, got %d", n.Callee.Value, len(sig.Params), len(n.Arguments))
	}
	if sig.Variadic && len(n.Arguments) < len(sig.Params) {
		return nil, typesystem.Void, e.errorf(diagnostics.ErrE005, n.Token,
			"function %s expects at least %d arguments, got %d", n.Callee.Value, len(sig.Params), len(n.Arguments))
	}

	args := make([]value.Value, 0, len(n.Arguments))
	for i, argNode := range n.Arguments {
		arg, _, err := e.emitExpr(argNode)
		if err != nil {
			return nil, typesystem.Void, err
		}
		if i < len(sig.Params) {
			arg, err = e.tryCast(arg, sig.Params[i].Lower(), argNode.GetToken())
			if err != nil {
				return nil, typesystem.Void, err
			}
		}
		args = append(args, arg)
	}

	call := e.block.NewCall(callee, args...)
	if sig.Return.Kind != typesystem.KindVoid {
		call.SetName(e.name("call"))
	}
	return call, sig.Return, nil
}

// moduleFunction resolves a callee: a function already present in the
// module, else a known prototype emitted on demand.
func (e *Emitter) moduleFunction(name string, tok token.Token) (*ir.Func, Signature, error) {
	if fn, ok := e.mc.Funcs[name]; ok {
		return fn, e.mc.Sigs[name], nil
	}
	if proto, ok := e.mc.Protos[name]; ok {
		fn, err := e.emitProto(proto)
		if err != nil {
			return nil, Signature{}, err
		}
		return fn, e.mc.Sigs[name], nil
	}
	return nil, Signature{}, e.errorf(diagnostics.ErrE009, tok, "undefined reference: '%s'", name)
}

// emitTernary lowers cond ? a : b to a then/else/join diamond merged by a
// phi on the promoted result type.
func (e *Emitter) emitTernary(n *ast.TernaryExpression) (value.Value, typesystem.Type, error) {
	condVal, condType, err := e.emitExpr(n.Condition)
	if err != nil {
		return nil, typesystem.Void, err
	}
	cond, err := e.condValue(condVal, condType, n.Condition.GetToken())
	if err != nil {
		return nil, typesystem.Void, err
	}

	thenBB := e.newBlock("ternary.then")
	elseBB := e.newBlock("ternary.else")
	joinBB := e.newBlock("ternary.end")
	e.block.NewCondBr(cond, thenBB, elseBB)

	e.block = thenBB
	thenVal, thenType, err := e.emitExpr(n.Then)
	if err != nil {
		return nil, typesystem.Void, err
	}
	thenExit := e.block

	e.block = elseBB
	elseVal, elseType, err := e.emitExpr(n.Else)
	if err != nil {
		return nil, typesystem.Void, err
	}
	elseExit := e.block

	resType, ok := typesystem.Promote(thenType, elseType)
	if !ok {
		return nil, typesystem.Void, e.errorf(diagnostics.ErrE003, n.Token,
			"type mismatch: %s and %s", thenType, elseType)
	}

	e.block = thenExit
	thenVal, err = e.tryCast(thenVal, resType.Lower(), n.Then.GetToken())
	if err != nil {
		return nil, typesystem.Void, err
	}
	thenExit = e.block
	thenExit.NewBr(joinBB)

	e.block = elseExit
	elseVal, err = e.tryCast(elseVal, resType.Lower(), n.Else.GetToken())
	if err != nil {
		return nil, typesystem.Void, err
	}
	elseExit = e.block
	elseExit.NewBr(joinBB)

	e.block = joinBB
	phi := joinBB.NewPhi(ir.NewIncoming(thenVal, thenExit), ir.NewIncoming(elseVal, elseExit))
	phi.SetName(e.name("ternary"))
	return phi, resType, nil
}

func isComparisonOp(op token.TokenType) bool {
	switch op {
	case token.EQ, token.NOT_EQ, token.LT, token.LTE, token.GT, token.GTE:
		return true
	}
	return false
}

var opNames = map[token.TokenType]string{
	token.PLUS:      "add_tmp",
	token.MINUS:     "sub_tmp",
	token.ASTERISK:  "mul_tmp",
	token.SLASH:     "div_tmp",
	token.EQ:        "cmp_tmp",
	token.NOT_EQ:    "cmp_tmp",
	token.LT:        "cmp_tmp",
	token.LTE:       "cmp_tmp",
	token.GT:        "cmp_tmp",
	token.GTE:       "cmp_tmp",
	token.AND:       "and_tmp",
	token.OR:        "or_tmp",
	token.AMPERSAND: "band_tmp",
	token.PIPE:      "bor_tmp",
	token.CARET:     "bxor_tmp",
	token.BANG:      "not_tmp",
	token.INCREMENT: "increment",
	token.DECREMENT: "decrement",
}

func opName(op token.TokenType) string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "tmp"
}
