package emitter

import (
	"testing"

	"github.com/google/uuid"

	"github.com/funvibe/minicc/internal/ast"
	"github.com/funvibe/minicc/internal/lexer"
	"github.com/funvibe/minicc/internal/parser"
	"github.com/funvibe/minicc/internal/pipeline"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	ctx := pipeline.NewContext("test.mc", input)
	ctx = (&lexer.LexerProcessor{}).Process(ctx)
	ctx = (&parser.ParserProcessor{}).Process(ctx)
	if ctx.HasErrors() {
		t.Fatalf("parse failed: %v", ctx.Errors[0])
	}
	return ctx.AstRoot
}

// The symbol-table depth must return to its pre-emission value after every
// top-level node, on success and on failure alike.
func TestScopeBalance(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"function", "def f(int a) int { int b = a; { int c = b; } return b; }"},
		{"nested_loops", "def f() int { for (i=0; i<3; ++i) { while (i < 1) { i = i + 1; } } return 0; }"},
		{"emit_error", "def f() int { { return missing; } }"},
		{"missing_return_error", "def f() int { int x = 1; }"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			prog := parseProgram(t, tc.input)
			mc := NewModuleContext(uuid.New())
			em := New(mc)

			before := mc.SymTable.Depth()
			for _, stmt := range prog.Statements {
				fn, ok := stmt.(*ast.FunctionStatement)
				if !ok {
					t.Fatalf("expected a function statement, got %T", stmt)
				}
				_ = em.emitFunction(fn)
				if mc.SymTable.Depth() != before {
					t.Fatalf("scope depth %d after emission, want %d", mc.SymTable.Depth(), before)
				}
			}
		})
	}
}
