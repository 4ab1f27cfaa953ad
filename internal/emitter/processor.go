package emitter

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/funvibe/minicc/internal/ast"
	"github.com/funvibe/minicc/internal/config"
	"github.com/funvibe/minicc/internal/diagnostics"
	"github.com/funvibe/minicc/internal/irverify"
	"github.com/funvibe/minicc/internal/pipeline"
	"github.com/funvibe/minicc/internal/typesystem"
)

// EmitterProcessor lowers the unit's AST into a fresh module. Function
// definitions, prototypes and global declarations emit directly; all other
// top-level statements are collected into a synthetic entry function for
// immediate execution. On any error the in-progress module is discarded.
type EmitterProcessor struct{}

func (ep *EmitterProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.HasErrors() || ctx.AstRoot == nil {
		return ctx
	}

	mc := NewModuleContext(ctx.UnitID)
	seedBuiltins(mc)
	em := New(mc)

	fail := func(err error) *pipeline.PipelineContext {
		diag := Diagnostic(err)
		if diag.File == "" {
			diag.File = ctx.FilePath
		}
		ctx.Errors = append(ctx.Errors, diag)
		ctx.Module = nil
		return ctx
	}

	var pending []ast.Statement
	for _, stmt := range ctx.AstRoot.Statements {
		switch s := stmt.(type) {
		case *ast.FunctionStatement:
			if err := em.emitFunction(s); err != nil {
				return fail(err)
			}
		case *ast.ProtoStatement:
			mc.Protos[s.Name.Value] = s
			if _, err := em.emitProto(s); err != nil {
				return fail(err)
			}
		case *ast.DeclarationStatement:
			if err := em.emitGlobalDeclaration(s); err != nil {
				return fail(err)
			}
		default:
			pending = append(pending, stmt)
		}
	}

	if len(pending) > 0 {
		if err := em.emitEntry(config.EntryFuncName, pending); err != nil {
			return fail(err)
		}
		ctx.EntryName = config.EntryFuncName
	}

	ctx.Module = mc.Module
	return ctx
}

// seedBuiltins pre-registers the prototypes of environment-provided extern
// functions so calls to them resolve during emission.
func seedBuiltins(mc *ModuleContext) {
	mc.Protos[config.PrintFuncName] = &ast.ProtoStatement{
		Name: &ast.Identifier{Value: config.PrintFuncName},
		Params: []*ast.Parameter{{
			Name: &ast.Identifier{Value: "param"},
			Type: &ast.TypeName{Name: "double"},
		}},
		ReturnType: &ast.TypeName{Name: "double"},
	}
}

// emitEntry wraps top-level statements into a synthetic double-returning
// function. The value of the last top-level expression becomes the return
// value when it is numeric; the return value is zero when there is no such
// expression or the last one is a bool or str.
func (e *Emitter) emitEntry(name string, stmts []ast.Statement) error {
	fn := e.mc.Module.NewFunc(name, types.Double)
	e.mc.Funcs[name] = fn
	e.mc.Sigs[name] = Signature{Return: typesystem.Double}

	e.fn = fn
	e.retType = typesystem.Double
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

	var last value.Value
	var lastType typesystem.Type
	for _, stmt := range stmts {
		v, t, err := e.emitStatement(stmt)
		if err != nil {
			return err
		}
		if v != nil && t.Kind != typesystem.KindVoid {
			last = v
			lastType = t
		}
		if e.terminated() {
			break
		}
	}

	if !e.terminated() {
		ret := value.Value(constant.NewFloat(types.Double, 0))
		if last != nil && lastType.IsNumeric() {
			casted, err := e.tryCast(last, types.Double, stmts[len(stmts)-1].GetToken())
			if err != nil {
				return err
			}
			ret = casted
		}
		e.block.NewRet(ret)
	}

	if err := irverify.VerifyFunc(fn); err != nil {
		return e.errorf(diagnostics.ErrV001, stmts[0].GetToken(),
			"function verification failed for '%s': %s", name, err.Error())
	}
	return nil
}
