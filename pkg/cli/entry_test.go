package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func() int) (int, string) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	code := fn()
	w.Close()
	os.Stdout = old
	out, _ := io.ReadAll(r)
	return code, string(out)
}

func TestRunEval(t *testing.T) {
	code, out := captureStdout(t, func() int {
		return Run([]string{"-e", "print(1+2);"})
	})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out, "print: 3.000000") {
		t.Errorf("expected the print extern output, got %q", out)
	}
	if !strings.Contains(out, "result=3") {
		t.Errorf("expected the entry result, got %q", out)
	}
}

func TestRunEvalError(t *testing.T) {
	code, _ := captureStdout(t, func() int {
		return Run([]string{"-e", "return oops;"})
	})
	if code == 0 {
		t.Fatal("expected a non-zero exit code for a broken unit")
	}
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loop.mc")
	source := "for (i=0; i<3; ++i) { print(i); }"
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out := captureStdout(t, func() int {
		return Run([]string{path})
	})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	for _, want := range []string{"print: 0.000000", "print: 1.000000", "print: 2.000000"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output %q", want, out)
		}
	}
}

func TestRunFileRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _ := captureStdout(t, func() int {
		return Run([]string{path})
	})
	if code == 0 {
		t.Fatal("expected a non-zero exit code for a non-source file")
	}
}

func TestDumpIR(t *testing.T) {
	code, out := captureStdout(t, func() int {
		return Run([]string{"-e", "1+2;", "-dump-ir"})
	})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out, "@_start") {
		t.Errorf("expected the module dump, got %q", out)
	}
}
