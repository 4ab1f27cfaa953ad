package diagnostics

import (
	"strings"
	"testing"

	"github.com/funvibe/minicc/internal/token"
)

func TestAnnotate(t *testing.T) {
	//                 0123456789012345
	source := []byte("varName = foo();")
	tok := token.Token{Type: token.IDENT, Lexeme: "foo", Start: 10, End: 12, Line: 1, Column: 11}
	diag := NewError(ErrE009, tok, "undefined reference: '%s'", "foo")

	got := diag.Annotate(source)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), got)
	}
	if lines[0] != "varName = foo();" {
		t.Errorf("line 1 must reproduce the source line, got %q", lines[0])
	}
	if lines[1] != "----------^^^" {
		t.Errorf("expected dashes to the column and carets across the span, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "undefined reference: 'foo'") {
		t.Errorf("expected the message last, got %q", lines[2])
	}
}

func TestAnnotateSecondLine(t *testing.T) {
	source := []byte("a = 1;\nb = @;\n")
	tok := token.Token{Type: token.ILLEGAL, Lexeme: "@", Start: 11, End: 11, Line: 2, Column: 5}
	diag := NewError(ErrL003, tok, "illegal character")

	got := diag.Annotate(source)
	lines := strings.Split(got, "\n")
	if lines[0] != "b = @;" {
		t.Errorf("expected the second source line, got %q", lines[0])
	}
	if lines[1] != "----^" {
		t.Errorf("unexpected annotation %q", lines[1])
	}
}

func TestErrorFormat(t *testing.T) {
	diag := NewError(ErrP001, token.Token{Line: 3, Column: 7}, "unexpected token")
	diag.File = "demo.mc"
	want := "demo.mc:3:7: [P001] unexpected token"
	if diag.Error() != want {
		t.Errorf("expected %q, got %q", want, diag.Error())
	}
}
