// Package jit defines the execution-engine contract the driver hands
// compiled modules to, and a reference engine interpreting the IR directly.
package jit

import (
	"github.com/llir/llvm/ir"
)

// Extern is a host function callable from compiled code. Arguments and the
// result travel as doubles, matching the numeric surface of the language.
type Extern func(args []float64) float64

// Callable is a resolved function symbol.
type Callable interface {
	Call(args ...float64) (float64, error)
}

// Engine accepts compiled modules and resolves callable addresses. The
// reference interpreter, Interp, is the implementation in this package.
type Engine interface {
	// AddModule transfers ownership of a completed module to the engine.
	AddModule(m *ir.Module) error
	// Lookup resolves a function symbol by name.
	Lookup(name string) (Callable, bool)
	// RegisterExtern installs a host function into the engine's symbol
	// namespace.
	RegisterExtern(name string, fn Extern)
	// Close releases engine resources.
	Close() error
}

// New constructs the engine selected by name. Unknown names fall back to
// the interpreter.
func New(name string) Engine {
	switch name {
	case "interp", "":
		return NewInterp()
	}
	return NewInterp()
}
