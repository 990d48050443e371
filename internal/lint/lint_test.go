package lint

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/anthropics/capstan/internal/domain"
)

func TestParseOutput_CompilerFormat(t *testing.T) {
	raw := "main.go:10:5: error: unused variable x\n" +
		"main.go:22: something odd here\n" +
		"not a diagnostic line\n" +
		"util.go:3:1: warning: shadowed declaration\n"

	diags := ParseOutput(raw, "gcc")
	if len(diags) != 3 {
		t.Fatalf("got %d diagnostics, want 3", len(diags))
	}

	first := diags[0]
	if first.File != "main.go" || first.Line != 10 || first.Column != 5 {
		t.Fatalf("unexpected position %+v", first)
	}
	if first.Severity != "error" || first.Message != "unused variable x" {
		t.Fatalf("unexpected diagnostic %+v", first)
	}
	if first.Source != "gcc" {
		t.Fatalf("got source %q, want gcc", first.Source)
	}

	// No column and no severity keyword: defaults apply.
	second := diags[1]
	if second.Column != 0 || second.Severity != "warning" {
		t.Fatalf("unexpected defaults %+v", second)
	}
	if second.Message != "something odd here" {
		t.Fatalf("unexpected message %q", second.Message)
	}
}

func TestParseOutput_Empty(t *testing.T) {
	if diags := ParseOutput("", "vet"); len(diags) != 0 {
		t.Fatalf("got %d diagnostics, want 0", len(diags))
	}
}

func TestRegistry_ForFile(t *testing.T) {
	reg := NewRegistry()
	spec := ProviderSpec{Name: "vet", Command: "go", Args: []string{"vet"}, Extensions: []string{"go"}}
	if err := reg.Register(spec); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := reg.ForFile("internal/store/sqlite.go")
	if err != nil {
		t.Fatalf("ForFile: %v", err)
	}
	if got.Name != "vet" {
		t.Fatalf("got provider %q, want vet", got.Name)
	}

	_, err = reg.ForFile("README.md")
	if err == nil {
		t.Fatal("expected error for unregistered extension")
	}
	rerr, ok := err.(*domain.RuntimeError)
	if !ok || rerr.Code != domain.ErrLinterUnavailable.Code {
		t.Fatalf("got %v, want LinterUnavailable", err)
	}
}

func TestRegistry_DuplicateExtension(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(ProviderSpec{Name: "a", Command: "a", Extensions: []string{"go"}}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(ProviderSpec{Name: "b", Command: "b", Extensions: []string{"go"}}); err == nil {
		t.Fatal("expected error for duplicate extension")
	}
}

// writeFakeLinter writes an executable script that emits fixed output.
func writeFakeLinter(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakelint.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write fake linter: %v", err)
	}
	return path
}

func TestRunner_LintFile(t *testing.T) {
	bin := writeFakeLinter(t, `echo "$1:4:2: warning: missing doc comment"; exit 1`)

	reg := NewRegistry()
	if err := reg.Register(ProviderSpec{Name: "fake", Command: bin, Extensions: []string{"go"}}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	runner := NewRunner(reg, 5*time.Second)

	diags, err := runner.LintFile(context.Background(), "pkg/thing.go")
	if err != nil {
		t.Fatalf("LintFile: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}
	if diags[0].File != "pkg/thing.go" || diags[0].Line != 4 || diags[0].Severity != "warning" {
		t.Fatalf("unexpected diagnostic %+v", diags[0])
	}
}

func TestRunner_CleanFileNoDiagnostics(t *testing.T) {
	bin := writeFakeLinter(t, "exit 0")

	reg := NewRegistry()
	if err := reg.Register(ProviderSpec{Name: "fake", Command: bin, Extensions: []string{"go"}}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	runner := NewRunner(reg, 5*time.Second)

	diags, err := runner.LintFile(context.Background(), "clean.go")
	if err != nil {
		t.Fatalf("LintFile: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("got %d diagnostics, want 0", len(diags))
	}
}

func TestRunner_Timeout(t *testing.T) {
	bin := writeFakeLinter(t, "sleep 10")

	reg := NewRegistry()
	if err := reg.Register(ProviderSpec{Name: "slow", Command: bin, Extensions: []string{"go"}}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	runner := NewRunner(reg, 100*time.Millisecond)

	_, err := runner.LintFile(context.Background(), "big.go")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	rerr, ok := err.(*domain.RuntimeError)
	if !ok || rerr.Code != domain.ErrSubprocessTimeout.Code {
		t.Fatalf("got %v, want SubprocessTimeout", err)
	}
}
