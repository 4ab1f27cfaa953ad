package emitter_test

import (
	"strings"
	"testing"

	"github.com/funvibe/minicc/internal/diagnostics"
	"github.com/funvibe/minicc/internal/emitter"
	"github.com/funvibe/minicc/internal/irverify"
	"github.com/funvibe/minicc/internal/lexer"
	"github.com/funvibe/minicc/internal/parser"
	"github.com/funvibe/minicc/internal/pipeline"
)

func compile(t *testing.T, input string) *pipeline.PipelineContext {
	t.Helper()
	ctx := pipeline.NewContext("test.mc", input)
	pipe := pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&emitter.EmitterProcessor{},
	)
	return pipe.Run(ctx)
}

func compileOK(t *testing.T, input string) *pipeline.PipelineContext {
	t.Helper()
	ctx := compile(t, input)
	if ctx.HasErrors() {
		t.Fatalf("compiling %q failed: %v", input, ctx.Errors[0])
	}
	if err := irverify.VerifyModule(ctx.Module); err != nil {
		t.Fatalf("module verification failed for %q: %v", input, err)
	}
	return ctx
}

func compileErr(t *testing.T, input string, code diagnostics.Code, fragment string) {
	t.Helper()
	ctx := compile(t, input)
	if !ctx.HasErrors() {
		t.Fatalf("expected an error compiling %q", input)
	}
	diag := ctx.Errors[0]
	if diag.Code != code {
		t.Errorf("%q: expected code %s, got %s (%s)", input, code, diag.Code, diag.Message)
	}
	if !strings.Contains(diag.Message, fragment) {
		t.Errorf("%q: expected message containing %q, got %q", input, fragment, diag.Message)
	}
	if ctx.Module != nil {
		t.Errorf("%q: the module must be discarded on a fatal error", input)
	}
}

func TestEmitFunction(t *testing.T) {
	ctx := compileOK(t, "def add(int a, int b) int { return a + b; }")
	text := ctx.Module.String()
	for _, want := range []string{"define", "@add", "alloca i32", "add i32", "ret i32"} {
		if !strings.Contains(text, want) {
			t.Errorf("emitted IR misses %q:\n%s", want, text)
		}
	}
	if ctx.EntryName != "" {
		t.Error("a def-only unit must not synthesize an entry function")
	}
}

func TestEntrySynthesis(t *testing.T) {
	ctx := compileOK(t, "x = 1 + 2; x * 2;")
	if ctx.EntryName != "_start" {
		t.Fatalf("expected the synthetic entry, got %q", ctx.EntryName)
	}
	text := ctx.Module.String()
	if !strings.Contains(text, "define double @_start()") {
		t.Errorf("missing _start definition:\n%s", text)
	}
	if !strings.Contains(text, "sitofp") {
		t.Errorf("the last integer expression must be cast to the double result:\n%s", text)
	}
}

func TestDefaultSignatureIsDouble(t *testing.T) {
	ctx := compileOK(t, "def inc(v) { return v + 1; }")
	text := ctx.Module.String()
	if !strings.Contains(text, "define double @inc(double %v)") {
		t.Errorf("untyped parameters must default to double:\n%s", text)
	}
}

func TestIfLowering(t *testing.T) {
	ctx := compileOK(t, `
def pick(int a) int {
    if a < 10 {
        return 1;
    } else if a < 20 {
        return 2;
    } else {
        return 3;
    }
}`)
	text := ctx.Module.String()
	for _, want := range []string{"if.then", "if.else", "icmp slt"} {
		if !strings.Contains(text, want) {
			t.Errorf("if lowering misses %q:\n%s", want, text)
		}
	}
	// Every arm returns, so no join block is emitted.
	if strings.Contains(text, "if.end") {
		t.Errorf("the join block must be elided when all arms terminate:\n%s", text)
	}
}

func TestIfJoinBlock(t *testing.T) {
	ctx := compileOK(t, `
def f(int a) int {
    int r = 0;
    if a > 0 {
        r = 1;
    }
    return r;
}`)
	text := ctx.Module.String()
	if !strings.Contains(text, "if.end") {
		t.Errorf("an arm that falls through must branch to the join block:\n%s", text)
	}
}

func TestLoopLowering(t *testing.T) {
	ctx := compileOK(t, `
def sum(int n) int {
    int acc = 0;
    int i = 0;
    while (i < n) {
        acc = acc + i;
        i = i + 1;
    }
    do {
        acc = acc + 1;
    } while (acc < 0);
    for (j=0; j<n; ++j) {
        acc = acc + j;
    }
    return acc;
}`)
	text := ctx.Module.String()
	for _, want := range []string{"while.cond", "while.body", "while.end", "do.body", "do.cond", "for.cond", "for.body", "for.step", "for.end"} {
		if !strings.Contains(text, want) {
			t.Errorf("loop lowering misses block %q:\n%s", want, text)
		}
	}
}

func TestStringLiteralGlobal(t *testing.T) {
	ctx := compileOK(t, `s = "hi"; 0;`)
	text := ctx.Module.String()
	if !strings.Contains(text, `c"hi"`) {
		t.Errorf("expected a byte-array global for the literal:\n%s", text)
	}
	if !strings.Contains(text, "getelementptr") {
		t.Errorf("expected a pointer to the first byte:\n%s", text)
	}
}

func TestGlobalDeclaration(t *testing.T) {
	ctx := compileOK(t, "int g = 2*(1+3);\ndef get() int { return g; }")
	text := ctx.Module.String()
	if !strings.Contains(text, "@g = internal global i32 8") {
		t.Errorf("expected a folded internal global:\n%s", text)
	}
}

func TestTernaryPhi(t *testing.T) {
	ctx := compileOK(t, "def m(int a, int b) int { return a < b ? a : b; }")
	text := ctx.Module.String()
	if !strings.Contains(text, "phi i32") {
		t.Errorf("ternary lowering must merge through a phi:\n%s", text)
	}
}

func TestIdempotentEmission(t *testing.T) {
	input := `
int g = 3;
def fact(int n) int {
    if n <= 1 {
        return 1;
    }
    return n * fact(n - 1);
}
print(fact(5));`
	first := compileOK(t, input).Module.String()
	second := compileOK(t, input).Module.String()
	if first != second {
		t.Errorf("two fresh-context emissions differ:\n--- first\n%s\n--- second\n%s", first, second)
	}
}

func TestVariadicCall(t *testing.T) {
	ctx := compileOK(t, "def printf(str fmt, ...) int;\ndef f() int { return printf(\"x\", 1, 2.5); }")
	if !strings.Contains(ctx.Module.String(), "...") {
		t.Errorf("expected a variadic declaration:\n%s", ctx.Module.String())
	}
}

func TestEmitErrors(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		code     diagnostics.Code
		fragment string
	}{
		{"unknown_variable", "def f() int { return missing; }", diagnostics.ErrE001, "missing"},
		{"redeclaration", "def f() int { int x = 1; int x = 2; return x; }", diagnostics.ErrE002, "x"},
		{"global_redeclaration", "int g = 1;\nint g = 2;", diagnostics.ErrE002, "g"},
		{"constant_global_store", "int g = 1;\ng = 2;", diagnostics.ErrE006, "g"},
		{"undefined_callee", "def f() int { return nope(); }", diagnostics.ErrE009, "nope"},
		{"arity_mismatch", "def g(int a) int { return a; }\ndef f() int { return g(1, 2); }", diagnostics.ErrE005, "g"},
		{"missing_return", "def f() int { int x = 1; }", diagnostics.ErrE007, "f"},
		{"bool_arith", "def f(bool a, bool b) int { return a + b; }", diagnostics.ErrE004, "+"},
		{"str_arith", `def f(str s) int { return s + 1; }`, diagnostics.ErrE004, "+"},
		{"global_nonconst_init", "def f() int { return 1; }\nint g = f();", diagnostics.ErrE008, "constant"},
		{"bool_from_int", "def f(int a) bool { return a; }", diagnostics.ErrE003, "cast"},
		{"nonvoid_ret_void", "def f() int { return; }", diagnostics.ErrE007, "f"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			compileErr(t, tc.input, tc.code, tc.fragment)
		})
	}
}

func TestShadowingInNestedBlocks(t *testing.T) {
	compileOK(t, `
def f() int {
    int x = 1;
    {
        int x = 2;
        x = 3;
    }
    return x;
}`)
}
