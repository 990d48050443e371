package scan

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestScanner_FindsTermsAcrossFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package main\nfunc helper() {}\n")
	writeFile(t, root, "sub/b.go", "// calls helper twice\nhelper()\nhelper()\n")

	s := NewScanner(root)
	hits, truncated, err := s.Search([]string{"helper"}, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if truncated {
		t.Error("unexpected truncation")
	}
	if len(hits) != 4 {
		t.Fatalf("hits = %d, want 4", len(hits))
	}
	for _, h := range hits {
		if h.Term != "helper" {
			t.Errorf("Term = %q, want helper", h.Term)
		}
	}
}

func TestScanner_CaseInsensitive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "f.txt", "Widget\nWIDGET\nwidget\n")

	s := NewScanner(root)
	hits, _, err := s.Search([]string{"widget"}, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("hits = %d, want 3", len(hits))
	}
}

func TestScanner_MultipleTermsOnePass(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "f.txt", "alpha and beta\njust gamma\n")

	s := NewScanner(root)
	hits, _, err := s.Search([]string{"alpha", "beta", "gamma"}, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("hits = %d, want 3", len(hits))
	}
	terms := map[string]int{}
	for _, h := range hits {
		terms[h.Term]++
	}
	if terms["alpha"] != 1 || terms["beta"] != 1 || terms["gamma"] != 1 {
		t.Errorf("terms = %v, want one each", terms)
	}
}

func TestScanner_SkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.txt", "needle\n")
	writeFile(t, root, "node_modules/skip.txt", "needle\n")
	writeFile(t, root, ".git/skip.txt", "needle\n")

	s := NewScanner(root)
	hits, _, err := s.Search([]string{"needle"}, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}
	if hits[0].File != "keep.txt" {
		t.Errorf("File = %q, want keep.txt", hits[0].File)
	}
}

func TestScanner_TruncatesAtMaxHits(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "f.txt", "x\nx\nx\nx\nx\n")

	s := NewScanner(root)
	hits, truncated, err := s.Search([]string{"x"}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("hits = %d, want 3", len(hits))
	}
	if !truncated {
		t.Error("expected truncation flag")
	}
}

func TestScanner_SkipsBinaryFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bin.dat", "needle\x00needle")
	writeFile(t, root, "text.txt", "needle")

	s := NewScanner(root)
	hits, _, err := s.Search([]string{"needle"}, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].File != "text.txt" {
		t.Errorf("hits = %+v, want only text.txt", hits)
	}
}

func TestScanner_EmptyQuery(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "f.txt", "anything")

	s := NewScanner(root)
	hits, truncated, err := s.Search([]string{"", "  "}, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 || truncated {
		t.Errorf("got %d hits, want none", len(hits))
	}
}
