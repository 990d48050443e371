// Package scan implements literal multi-term search over workspace files.
// All query terms are compiled into a single Aho-Corasick automaton so each
// file is scanned in one pass.
package scan

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	aho_corasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/anthropics/capstan/internal/domain"
)

// skipDirs are directory names excluded from every walk.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"bin":          true,
	"tmp":          true,
}

// maxScanFileBytes bounds how large a file the scanner will read.
const maxScanFileBytes = 1 << 20

// Scanner searches workspace files for literal terms.
type Scanner struct {
	Root string
}

// NewScanner creates a Scanner rooted at the given workspace directory.
func NewScanner(root string) *Scanner {
	return &Scanner{Root: root}
}

// Search walks the workspace and reports every line containing any of the
// query terms, matched case-insensitively. Results are capped at maxHits;
// the second return value reports truncation.
func (s *Scanner) Search(terms []string, maxHits int) ([]domain.SearchHit, bool, error) {
	patterns := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			patterns = append(patterns, t)
		}
	}
	if len(patterns) == 0 {
		return nil, false, nil
	}

	builder := aho_corasick.NewAhoCorasickBuilder(aho_corasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            aho_corasick.LeftMostLongestMatch,
		DFA:                  false,
	})
	ac := builder.Build(patterns)

	var hits []domain.SearchHit
	truncated := false
	stopErr := errors.New("stop walk")

	err := filepath.WalkDir(s.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return nil
		}

		fileHits, done := scanFile(path, rel, ac, patterns, maxHits-len(hits))
		hits = append(hits, fileHits...)
		if done {
			truncated = true
			return stopErr
		}
		return nil
	})
	if err != nil && !errors.Is(err, stopErr) {
		return hits, truncated, err
	}
	return hits, truncated, nil
}

// scanFile reads one file line by line and collects up to budget hits.
// Binary files and oversized files are skipped silently.
func scanFile(path, rel string, ac aho_corasick.AhoCorasick, patterns []string, budget int) ([]domain.SearchHit, bool) {
	if budget <= 0 {
		return nil, true
	}

	data, err := os.ReadFile(path)
	if err != nil || len(data) > maxScanFileBytes || bytes.IndexByte(data, 0) >= 0 {
		return nil, false
	}

	var hits []domain.SearchHit
	lineNo := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		for _, m := range ac.FindAll(line) {
			hits = append(hits, domain.SearchHit{
				File: rel,
				Line: lineNo,
				Text: line,
				Term: patterns[m.Pattern()],
			})
			if len(hits) >= budget {
				return hits, true
			}
		}
	}
	return hits, false
}
