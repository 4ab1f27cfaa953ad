package emitter

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/llir/llvm/ir"

	"github.com/funvibe/minicc/internal/ast"
	"github.com/funvibe/minicc/internal/symbols"
	"github.com/funvibe/minicc/internal/typesystem"
)

// Signature is the semantic view of a function type.
type Signature struct {
	Params   []typesystem.Type
	Return   typesystem.Type
	Variadic bool
}

// ModuleContext owns everything produced while emitting one compilation
// unit. It is constructed per unit and handed to the execution engine when
// the unit completes; nothing in it is shared across units.
type ModuleContext struct {
	UnitID uuid.UUID
	Module *ir.Module

	// Globals maps module-scope names to their global slots.
	Globals map[string]symbols.Symbol
	// Protos maps names to parsed prototypes not yet materialized.
	Protos map[string]*ast.ProtoStatement
	// Funcs maps names to materialized backend functions.
	Funcs map[string]*ir.Func
	// Sigs keeps the semantic signature per function name.
	Sigs map[string]Signature

	SymTable *symbols.SymbolTable

	strCount int
}

func NewModuleContext(unitID uuid.UUID) *ModuleContext {
	return &ModuleContext{
		UnitID:   unitID,
		Module:   ir.NewModule(),
		Globals:  map[string]symbols.Symbol{},
		Protos:   map[string]*ast.ProtoStatement{},
		Funcs:    map[string]*ir.Func{},
		Sigs:     map[string]Signature{},
		SymTable: symbols.NewSymbolTable(),
	}
}

// nextStrName yields a fresh private name for a string literal global.
func (mc *ModuleContext) nextStrName() string {
	name := "str"
	if mc.strCount > 0 {
		name = fmt.Sprintf("str%d", mc.strCount)
	}
	mc.strCount++
	return name
}

// signatureOf derives the semantic signature of a prototype. Untyped
// parameters and a missing return annotation default to double, the way
// the original surface language behaved.
func signatureOf(proto *ast.ProtoStatement) (Signature, error) {
	sig := Signature{Variadic: proto.IsVarArgs, Return: typesystem.Double}
	if proto.ReturnType != nil {
		t, ok := typesystem.FromName(proto.ReturnType.Name, proto.ReturnType.Pointer)
		if !ok {
			return sig, fmt.Errorf("unknown type: %s", proto.ReturnType)
		}
		sig.Return = t
	}
	for _, param := range proto.Params {
		pt := typesystem.Double
		if param.Type != nil {
			t, ok := typesystem.FromName(param.Type.Name, param.Type.Pointer)
			if !ok {
				return sig, fmt.Errorf("unknown type: %s", param.Type)
			}
			pt = t
		}
		sig.Params = append(sig.Params, pt)
	}
	return sig, nil
}
