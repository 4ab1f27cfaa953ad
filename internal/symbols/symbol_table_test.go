package symbols

import (
	"testing"

	"github.com/funvibe/minicc/internal/typesystem"
)

func TestDefineAndResolve(t *testing.T) {
	st := NewSymbolTable()
	if !st.Define(Symbol{Name: "x", Type: typesystem.Integer}) {
		t.Fatal("first definition must succeed")
	}
	if st.Define(Symbol{Name: "x", Type: typesystem.Double}) {
		t.Fatal("duplicate definition in the same scope must fail")
	}
	sym, ok := st.Resolve("x")
	if !ok || sym.Type != typesystem.Integer {
		t.Fatalf("expected x: int, got %v %v", sym, ok)
	}
	if _, ok := st.Resolve("y"); ok {
		t.Fatal("unknown names must not resolve")
	}
}

func TestNestedScopes(t *testing.T) {
	st := NewSymbolTable()
	st.Define(Symbol{Name: "x", Type: typesystem.Integer})

	st.EnterScope()
	if !st.Define(Symbol{Name: "x", Type: typesystem.Double}) {
		t.Fatal("shadowing in an inner scope must succeed")
	}
	if sym, _ := st.Resolve("x"); sym.Type != typesystem.Double {
		t.Error("inner binding must shadow the outer one")
	}
	st.ExitScope()

	if sym, _ := st.Resolve("x"); sym.Type != typesystem.Integer {
		t.Error("outer binding must be restored after exit")
	}
}

func TestDepthBalance(t *testing.T) {
	st := NewSymbolTable()
	before := st.Depth()
	st.EnterScope()
	st.EnterScope()
	st.ExitScope()
	st.ExitScope()
	if st.Depth() != before {
		t.Fatalf("depth %d after balanced enter/exit, want %d", st.Depth(), before)
	}
}

func TestUnbalancedExitPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on popping the root scope")
		}
	}()
	NewSymbolTable().ExitScope()
}
