package irverify

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

func TestMissingTerminator(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("f", types.I32)
	fn.NewBlock("entry")

	err := VerifyFunc(fn)
	if err == nil || !strings.Contains(err.Error(), "no terminator") {
		t.Fatalf("expected a missing-terminator error, got %v", err)
	}
}

func TestReturnTypeMismatch(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("f", types.I32)
	entry := fn.NewBlock("entry")
	entry.NewRet(constant.NewFloat(types.Double, 1))

	if err := VerifyFunc(fn); err == nil {
		t.Fatal("expected a return-type mismatch error")
	}
}

func TestVoidReturnInNonVoid(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("f", types.I32)
	entry := fn.NewBlock("entry")
	entry.NewRet(nil)

	if err := VerifyFunc(fn); err == nil {
		t.Fatal("expected an error for ret void in a non-void function")
	}
}

func TestNonBoolCondition(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("f", types.Void)
	entry := fn.NewBlock("entry")
	a := fn.NewBlock("a")
	b := fn.NewBlock("b")
	a.NewRet(nil)
	b.NewRet(nil)
	entry.NewCondBr(constant.NewInt(types.I32, 1), a, b)

	err := VerifyFunc(fn)
	if err == nil || !strings.Contains(err.Error(), "non-i1") {
		t.Fatalf("expected a non-i1 condition error, got %v", err)
	}
}

func TestPhiIncomingCount(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("f", types.I32)
	entry := fn.NewBlock("entry")
	join := fn.NewBlock("join")
	entry.NewBr(join)
	phi := join.NewPhi(
		ir.NewIncoming(constant.NewInt(types.I32, 1), entry),
		ir.NewIncoming(constant.NewInt(types.I32, 2), entry),
	)
	join.NewRet(phi)

	err := VerifyFunc(fn)
	if err == nil || !strings.Contains(err.Error(), "incomings") {
		t.Fatalf("expected a phi incoming-count error, got %v", err)
	}
}

func TestValidFunction(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("f", types.I32, ir.NewParam("a", types.I32))
	entry := fn.NewBlock("entry")
	sum := entry.NewAdd(fn.Params[0], constant.NewInt(types.I32, 1))
	entry.NewRet(sum)

	if err := VerifyModule(m); err != nil {
		t.Fatalf("expected a clean verification, got %v", err)
	}
}
