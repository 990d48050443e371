// Package edit turns a model-authored, format-ambiguous text blob into a
// correct file mutation. The engine classifies the edit payload and
// dispatches to one of four strategies: create, unified-diff patch,
// elision-marker reconciliation, or whole-file replace.
package edit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthropics/capstan/internal/domain"
)

// elisionMarkers are the literal placeholder lines (compared after trim)
// that stand for an unspecified run of unchanged original lines.
var elisionMarkers = map[string]bool{
	"// ... existing code ...":       true,
	"# ... existing code ...":        true,
	"/* ... existing code ... */":    true,
	"<!-- ... existing code ... -->": true,
}

func isElisionMarker(line string) bool {
	return elisionMarkers[strings.TrimSpace(line)]
}

// Engine applies edit requests to files under a workspace root.
type Engine struct {
	Root string
}

// NewEngine creates an Engine rooted at the given workspace directory.
func NewEngine(root string) *Engine {
	return &Engine{Root: root}
}

// Apply classifies the raw edit and mutates the target file accordingly.
// The new content is fully computed in memory and written in one call.
// Strategy selection, by first match:
//
//  1. target does not exist        -> create, raw edit written verbatim
//  2. first non-blank line is a
//     unified-diff hunk header     -> patch
//  3. any line is an elision marker -> reconcile
//  4. otherwise                     -> replace
func (e *Engine) Apply(req domain.EditRequest) (domain.EditResult, error) {
	path := req.TargetFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.Root, path)
	}

	original, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if werr := writeWhole(path, req.CodeEdit); werr != nil {
			return domain.EditResult{}, werr
		}
		return result(req.TargetFile, domain.EditCreated, req.CodeEdit), nil
	}
	if err != nil {
		return domain.EditResult{}, domain.WrapRuntimeError(domain.ErrIO.Code, "read "+req.TargetFile, err)
	}

	var content string
	var action domain.EditAction
	switch {
	case startsWithHunkHeader(req.CodeEdit):
		content = applyPatch(string(original), req.CodeEdit)
		action = domain.EditPatched
	case containsElisionMarker(req.CodeEdit):
		content = reconcile(string(original), req.CodeEdit)
		action = domain.EditEdited
	default:
		content = req.CodeEdit
		action = domain.EditReplaced
	}

	if err := writeWhole(path, content); err != nil {
		return domain.EditResult{}, err
	}
	return result(req.TargetFile, action, content), nil
}

// startsWithHunkHeader reports whether the first non-blank line of the edit
// is a unified-diff hunk header.
func startsWithHunkHeader(edit string) bool {
	for _, line := range strings.Split(edit, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return hunkHeader.MatchString(line)
	}
	return false
}

// containsElisionMarker reports whether any line of the edit is a
// recognized elision marker.
func containsElisionMarker(edit string) bool {
	for _, line := range strings.Split(edit, "\n") {
		if isElisionMarker(line) {
			return true
		}
	}
	return false
}

func writeWhole(path, content string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.WrapRuntimeError(domain.ErrIO.Code, fmt.Sprintf("create parent of %s", path), err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return domain.WrapRuntimeError(domain.ErrIO.Code, "write "+path, err)
	}
	return nil
}

func result(target string, action domain.EditAction, content string) domain.EditResult {
	return domain.EditResult{
		TargetFile: target,
		Action:     action,
		Bytes:      len(content),
	}
}
