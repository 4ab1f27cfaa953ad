// Package irverify performs structural verification of emitted functions:
// block termination, return-type agreement, branch condition types and phi
// incoming consistency. It is the verify-function hook the emitter runs
// after lowering each function.
package irverify

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// VerifyModule verifies every defined function in the module.
func VerifyModule(m *ir.Module) error {
	for _, fn := range m.Funcs {
		if len(fn.Blocks) == 0 {
			continue // declaration
		}
		if err := VerifyFunc(fn); err != nil {
			return err
		}
	}
	return nil
}

// VerifyFunc checks the structural invariants of a defined function.
func VerifyFunc(fn *ir.Func) error {
	if len(fn.Blocks) == 0 {
		return fmt.Errorf("function %q has no basic blocks", fn.Name())
	}

	// Predecessor map for phi checking.
	preds := map[*ir.Block][]*ir.Block{}
	for _, block := range fn.Blocks {
		if block.Term == nil {
			return fmt.Errorf("block %q in function %q has no terminator", block.Name(), fn.Name())
		}
		for _, succ := range block.Term.Succs() {
			preds[succ] = append(preds[succ], block)
		}
	}

	retType := fn.Sig.RetType
	for _, block := range fn.Blocks {
		for _, inst := range block.Insts {
			phi, ok := inst.(*ir.InstPhi)
			if !ok {
				continue
			}
			if len(phi.Incs) != len(preds[block]) {
				return fmt.Errorf("phi in block %q of function %q has %d incomings, block has %d predecessors",
					block.Name(), fn.Name(), len(phi.Incs), len(preds[block]))
			}
			for _, inc := range phi.Incs {
				if !inc.X.Type().Equal(phi.Typ) {
					return fmt.Errorf("phi in block %q of function %q mixes types %s and %s",
						block.Name(), fn.Name(), phi.Typ, inc.X.Type())
				}
			}
		}

		switch term := block.Term.(type) {
		case *ir.TermRet:
			if term.X == nil {
				if !retType.Equal(types.Void) {
					return fmt.Errorf("function %q returns void but is declared %s", fn.Name(), retType)
				}
			} else {
				if retType.Equal(types.Void) {
					return fmt.Errorf("void function %q returns a value", fn.Name())
				}
				if !term.X.Type().Equal(retType) {
					return fmt.Errorf("function %q returns %s but is declared %s",
						fn.Name(), term.X.Type(), retType)
				}
			}
		case *ir.TermCondBr:
			if !term.Cond.Type().Equal(types.I1) {
				return fmt.Errorf("conditional branch in block %q of function %q has non-i1 condition %s",
					block.Name(), fn.Name(), term.Cond.Type())
			}
		}
	}
	return nil
}
