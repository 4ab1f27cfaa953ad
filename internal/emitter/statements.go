package emitter

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/funvibe/minicc/internal/ast"
	"github.com/funvibe/minicc/internal/diagnostics"
	"github.com/funvibe/minicc/internal/irverify"
	"github.com/funvibe/minicc/internal/symbols"
	"github.com/funvibe/minicc/internal/token"
	"github.com/funvibe/minicc/internal/typesystem"
)

// emitStatement lowers one statement. Expression statements yield their
// value so the synthetic entry function can return the last one; other
// statements yield nil.
func (e *Emitter) emitStatement(node ast.Statement) (value.Value, typesystem.Type, error) {
	switch n := node.(type) {
	case *ast.ExpressionStatement:
		return e.emitExpr(n.Expression)
	case *ast.AssignStatement:
		return nil, typesystem.Void, e.emitAssign(n)
	case *ast.DeclarationStatement:
		return nil, typesystem.Void, e.emitLocalDeclaration(n)
	case *ast.ReturnStatement:
		return nil, typesystem.Void, e.emitReturn(n)
	case *ast.IfStatement:
		return nil, typesystem.Void, e.emitIf(n)
	case *ast.WhileStatement:
		return nil, typesystem.Void, e.emitWhile(n)
	case *ast.ForStatement:
		return nil, typesystem.Void, e.emitFor(n)
	case *ast.BlockStatement:
		return nil, typesystem.Void, e.emitBlock(n)
	case *ast.FunctionStatement, *ast.ProtoStatement:
		return nil, typesystem.Void, e.errorf(diagnostics.ErrE004, n.GetToken(),
			"nested function definitions are not supported")
	}
	return nil, typesystem.Void, e.errorf(diagnostics.ErrR001, node.GetToken(), "unhandled statement node")
}

// emitBlock opens a scope, lowers the statements in order and closes the
// scope on every exit path. Statements after a terminator are dropped.
func (e *Emitter) emitBlock(block *ast.BlockStatement) error {
	e.mc.SymTable.EnterScope()
	defer e.mc.SymTable.ExitScope()

	for _, stmt := range block.Statements {
		if _, _, err := e.emitStatement(stmt); err != nil {
			return err
		}
		if e.terminated() {
			break
		}
	}
	return nil
}

// emitAssign stores into an existing slot, or creates one: an assignment
// to a name with no binding declares a stack slot of the rvalue's type in
// the current scope, the way the original driver introduced variables.
func (e *Emitter) emitAssign(n *ast.AssignStatement) error {
	rvalue, rvalueType, err := e.emitExpr(n.Rvalue)
	if err != nil {
		return err
	}

	if sym, ok := e.mc.SymTable.Resolve(n.Name.Value); ok {
		casted, err := e.tryCast(rvalue, sym.Type.Lower(), n.Rvalue.GetToken())
		if err != nil {
			return err
		}
		e.block.NewStore(casted, sym.Slot)
		return nil
	}
	if sym, ok := e.mc.Globals[n.Name.Value]; ok {
		if sym.IsConstant {
			return e.errorf(diagnostics.ErrE006, n.Token, "variable: %s is constant", n.Name.Value)
		}
		casted, err := e.tryCast(rvalue, sym.Type.Lower(), n.Rvalue.GetToken())
		if err != nil {
			return err
		}
		e.block.NewStore(casted, sym.Slot)
		return nil
	}

	if rvalueType.Kind == typesystem.KindVoid {
		return e.errorf(diagnostics.ErrE003, n.Token, "cannot assign a void value to %s", n.Name.Value)
	}
	alloca := e.entryAlloca(rvalueType.Lower(), e.name(n.Name.Value))
	e.block.NewStore(rvalue, alloca)
	e.mc.SymTable.Define(symbols.Symbol{Name: n.Name.Value, Type: rvalueType, Slot: alloca})
	return nil
}

// emitLocalDeclaration places an alloca in the function entry block and
// stores the initializer (zero when absent).
func (e *Emitter) emitLocalDeclaration(n *ast.DeclarationStatement) error {
	declType, ok := typesystem.FromName(n.Type.Name, n.Type.Pointer)
	if !ok || declType.Kind == typesystem.KindVoid {
		return e.errorf(diagnostics.ErrE003, n.Type.Token, "cannot declare variable of type %s", n.Type)
	}

	var init value.Value
	if n.Init != nil {
		v, _, err := e.emitExpr(n.Init)
		if err != nil {
			return err
		}
		init, err = e.tryCast(v, declType.Lower(), n.Init.GetToken())
		if err != nil {
			return err
		}
	} else {
		init = zeroValue(declType)
	}

	alloca := e.entryAlloca(declType.Lower(), e.name(n.Name.Value))
	e.block.NewStore(init, alloca)

	if !e.mc.SymTable.Define(symbols.Symbol{Name: n.Name.Value, Type: declType, Slot: alloca}) {
		return e.errorf(diagnostics.ErrE002, n.Name.Token, "redeclaration of variable: %s", n.Name.Value)
	}
	return nil
}

// emitGlobalDeclaration creates an internal-linkage global. Initializers
// must be constant expressions; declared globals are read-only.
func (e *Emitter) emitGlobalDeclaration(n *ast.DeclarationStatement) error {
	declType, ok := typesystem.FromName(n.Type.Name, n.Type.Pointer)
	if !ok || declType.Kind == typesystem.KindVoid {
		return e.errorf(diagnostics.ErrE003, n.Type.Token, "cannot declare variable of type %s", n.Type)
	}
	if _, exists := e.mc.Globals[n.Name.Value]; exists {
		return e.errorf(diagnostics.ErrE002, n.Name.Token, "redeclaration of variable: %s", n.Name.Value)
	}

	var init constant.Constant
	if n.Init != nil {
		c, err := e.constEval(n.Init, declType)
		if err != nil {
			return err
		}
		init = c
	} else {
		init = zeroValue(declType)
	}

	global := e.mc.Module.NewGlobalDef(n.Name.Value, init)
	global.Linkage = enum.LinkageInternal
	e.mc.Globals[n.Name.Value] = symbols.Symbol{
		Name:       n.Name.Value,
		Type:       declType,
		Slot:       global,
		IsGlobal:   true,
		IsConstant: true,
	}
	return nil
}

// constEval folds a constant initializer expression: literals and the
// arithmetic the parser produces over them.
func (e *Emitter) constEval(node ast.Expression, target typesystem.Type) (constant.Constant, error) {
	if b, ok := node.(*ast.BooleanLiteral); ok {
		if target.Kind != typesystem.KindBoolean {
			return nil, e.errorf(diagnostics.ErrE003, b.Token, "cannot initialize %s with a boolean", target)
		}
		return constant.NewBool(b.Value), nil
	}

	val, err := e.constFold(node)
	if err != nil {
		return nil, err
	}
	switch target.Kind {
	case typesystem.KindDouble:
		return constant.NewFloat(types.Double, val), nil
	case typesystem.KindByte, typesystem.KindChar, typesystem.KindInteger:
		return constant.NewInt(target.Lower().(*types.IntType), int64(val)), nil
	}
	return nil, e.errorf(diagnostics.ErrE008, node.GetToken(), "global variable initializer must be constant")
}

func (e *Emitter) constFold(node ast.Expression) (float64, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return n.Value, nil
	case *ast.UnaryExpression:
		v, err := e.constFold(n.Operand)
		if err != nil {
			return 0, err
		}
		switch n.Operator {
		case token.PLUS:
		case token.MINUS:
			v = -v
		default:
			return 0, e.errorf(diagnostics.ErrE008, n.Token, "global variable initializer must be constant")
		}
		return v, nil
	case *ast.InfixExpression:
		lhs, err := e.constFold(n.Left)
		if err != nil {
			return 0, err
		}
		rhs, err := e.constFold(n.Right)
		if err != nil {
			return 0, err
		}
		switch n.Operator {
		case token.PLUS:
			return lhs + rhs, nil
		case token.MINUS:
			return lhs - rhs, nil
		case token.ASTERISK:
			return lhs * rhs, nil
		case token.SLASH:
			return lhs / rhs, nil
		}
	}
	return 0, e.errorf(diagnostics.ErrE008, node.GetToken(), "global variable initializer must be constant")
}

// zeroValue is the default initializer for a declared variable.
func zeroValue(t typesystem.Type) constant.Constant {
	lowered := t.Lower()
	switch lt := lowered.(type) {
	case *types.IntType:
		return constant.NewInt(lt, 0)
	case *types.FloatType:
		return constant.NewFloat(lt, 0)
	case *types.PointerType:
		return constant.NewNull(lt)
	}
	return constant.NewZeroInitializer(lowered)
}

func (e *Emitter) emitReturn(n *ast.ReturnStatement) error {
	if n.Value == nil {
		if e.retType.Kind != typesystem.KindVoid {
			return e.errorf(diagnostics.ErrE007, n.Token,
				"missing return value in non-void function '%s'", e.fn.Name())
		}
		e.block.NewRet(nil)
		return nil
	}
	v, _, err := e.emitExpr(n.Value)
	if err != nil {
		return err
	}
	if e.retType.Kind == typesystem.KindVoid {
		return e.errorf(diagnostics.ErrE003, n.Token, "void function '%s' returns a value", e.fn.Name())
	}
	casted, err := e.tryCast(v, e.retType.Lower(), n.Value.GetToken())
	if err != nil {
		return err
	}
	e.block.NewRet(casted)
	return nil
}

// emitIf lowers an if/else-if/else chain to a cascade of conditional
// branches. Arms that do not terminate branch to a shared join block; the
// join is elided when every arm terminates.
func (e *Emitter) emitIf(n *ast.IfStatement) error {
	branches := append([]ast.CondBranch{n.IfBranch}, n.ElseIfs...)

	var joinBB *ir.Block
	join := func() *ir.Block {
		if joinBB == nil {
			joinBB = e.newBlock("if.end")
		}
		return joinBB
	}

	for i, branch := range branches {
		condVal, condType, err := e.emitExpr(branch.Cond)
		if err != nil {
			return err
		}
		cond, err := e.condValue(condVal, condType, branch.Cond.GetToken())
		if err != nil {
			return err
		}

		thenBB := e.newBlock("if.then")
		var nextBB *ir.Block
		last := i == len(branches)-1
		if !last || n.Else != nil {
			nextBB = e.newBlock("if.else")
		} else {
			nextBB = join()
		}
		e.block.NewCondBr(cond, thenBB, nextBB)

		e.block = thenBB
		if err := e.emitBlock(branch.Then); err != nil {
			return err
		}
		if !e.terminated() {
			e.block.NewBr(join())
		}

		e.block = nextBB
	}

	if n.Else != nil {
		if err := e.emitBlock(n.Else); err != nil {
			return err
		}
		if !e.terminated() {
			e.block.NewBr(join())
		}
		if joinBB == nil {
			// Every arm terminated; nothing falls through.
			e.block = nil
			return nil
		}
		e.block = joinBB
	}
	return nil
}

// emitWhile lowers while (header/body/exit with a back edge) and do-while
// (body/latch/exit, body runs at least once).
func (e *Emitter) emitWhile(n *ast.WhileStatement) error {
	if n.IsDoWhile {
		bodyBB := e.newBlock("do.body")
		latchBB := e.newBlock("do.cond")
		exitBB := e.newBlock("do.end")

		e.block.NewBr(bodyBB)
		e.block = bodyBB
		if err := e.emitBlock(n.Body); err != nil {
			return err
		}
		if !e.terminated() {
			e.block.NewBr(latchBB)
		}

		e.block = latchBB
		condVal, condType, err := e.emitExpr(n.Cond)
		if err != nil {
			return err
		}
		cond, err := e.condValue(condVal, condType, n.Cond.GetToken())
		if err != nil {
			return err
		}
		e.block.NewCondBr(cond, bodyBB, exitBB)
		e.block = exitBB
		return nil
	}

	headerBB := e.newBlock("while.cond")
	bodyBB := e.newBlock("while.body")
	exitBB := e.newBlock("while.end")

	e.block.NewBr(headerBB)
	e.block = headerBB
	condVal, condType, err := e.emitExpr(n.Cond)
	if err != nil {
		return err
	}
	cond, err := e.condValue(condVal, condType, n.Cond.GetToken())
	if err != nil {
		return err
	}
	e.block.NewCondBr(cond, bodyBB, exitBB)

	e.block = bodyBB
	if err := e.emitBlock(n.Body); err != nil {
		return err
	}
	if !e.terminated() {
		e.block.NewBr(headerBB)
	}

	e.block = exitBB
	return nil
}

// emitFor lowers for (init; cond; step): init in the current block, then
// header, body and a dedicated step block branching back to the header.
func (e *Emitter) emitFor(n *ast.ForStatement) error {
	if n.Init != nil {
		if err := e.emitAssign(n.Init); err != nil {
			return err
		}
	}

	headerBB := e.newBlock("for.cond")
	bodyBB := e.newBlock("for.body")
	stepBB := e.newBlock("for.step")
	exitBB := e.newBlock("for.end")

	e.block.NewBr(headerBB)
	e.block = headerBB
	condVal, condType, err := e.emitExpr(n.Cond)
	if err != nil {
		return err
	}
	cond, err := e.condValue(condVal, condType, n.Cond.GetToken())
	if err != nil {
		return err
	}
	e.block.NewCondBr(cond, bodyBB, exitBB)

	e.block = bodyBB
	if err := e.emitBlock(n.Body); err != nil {
		return err
	}
	if !e.terminated() {
		e.block.NewBr(stepBB)
	}

	e.block = stepBB
	if _, _, err := e.emitExpr(n.Step); err != nil {
		return err
	}
	e.block.NewBr(headerBB)

	e.block = exitBB
	return nil
}

// emitProto creates an external-linkage backend function with the declared
// signature and parameter names preserved.
func (e *Emitter) emitProto(proto *ast.ProtoStatement) (*ir.Func, error) {
	if fn, ok := e.mc.Funcs[proto.Name.Value]; ok {
		return fn, nil
	}
	sig, err := signatureOf(proto)
	if err != nil {
		return nil, e.errorf(diagnostics.ErrE003, proto.Token, "%s", err.Error())
	}

	params := make([]*ir.Param, 0, len(proto.Params))
	for i, param := range proto.Params {
		params = append(params, ir.NewParam(param.Name.Value, sig.Params[i].Lower()))
	}
	fn := e.mc.Module.NewFunc(proto.Name.Value, sig.Return.Lower(), params...)
	fn.Sig.Variadic = sig.Variadic

	e.mc.Funcs[proto.Name.Value] = fn
	e.mc.Sigs[proto.Name.Value] = sig
	return fn, nil
}

// emitFunction creates the backend function, lowers its body and runs the
// verifier. The symbol-table depth is restored on every exit path.
func (e *Emitter) emitFunction(n *ast.FunctionStatement) error {
	e.mc.Protos[n.Proto.Name.Value] = n.Proto
	fn, err := e.emitProto(n.Proto)
	if err != nil {
		return err
	}
	sig := e.mc.Sigs[n.Proto.Name.Value]
	if len(fn.Blocks) > 0 {
		return e.errorf(diagnostics.ErrE002, n.Proto.Name.Token,
			"redefinition of function: %s", n.Proto.Name.Value)
	}

	e.fn = fn
	e.retType = sig.Return
	e.names = map[string]int{}
	e.entry = fn.NewBlock(e.name("entry"))
	e.block = e.entry
	defer func() {
		e.fn = nil
		e.entry = nil
		e.block = nil
	}()

	e.mc.SymTable.EnterScope()
	defer e.mc.SymTable.ExitScope()

	for i, param := range fn.Params {
		alloca := e.entryAlloca(sig.Params[i].Lower(), e.name(param.Name()+".addr"))
		e.block.NewStore(param, alloca)
		if !e.mc.SymTable.Define(symbols.Symbol{Name: n.Proto.Params[i].Name.Value, Type: sig.Params[i], Slot: alloca}) {
			return e.errorf(diagnostics.ErrE002, n.Proto.Params[i].Token,
				"duplicate parameter name: %s", n.Proto.Params[i].Name.Value)
		}
	}

	if err := e.emitBlock(n.Body); err != nil {
		return err
	}

	if !e.terminated() {
		if sig.Return.Kind == typesystem.KindVoid {
			e.block.NewRet(nil)
		} else {
			return e.errorf(diagnostics.ErrE007, n.Proto.Name.Token,
				"missing return in non-void function '%s'", n.Proto.Name.Value)
		}
	}

	if err := irverify.VerifyFunc(fn); err != nil {
		return e.errorf(diagnostics.ErrV001, n.Proto.Name.Token,
			"function verification failed for '%s': %s", n.Proto.Name.Value, err.Error())
	}
	return nil
}
