// Package tools implements the capability handlers registered with the
// dispatch registry: workspace file operations, search, subprocess
// execution, linting, web search, notes, and mode control.
package tools

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// workspacePath resolves rel against root and rejects paths that escape
// the workspace.
func workspacePath(root, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("path is required")
	}
	abs := filepath.Join(root, filepath.FromSlash(rel))
	cleanRoot := filepath.Clean(root)
	if abs != cleanRoot && !strings.HasPrefix(abs, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the workspace", rel)
	}
	return abs, nil
}

// jsonResult serializes a handler result, falling back to an empty
// object on marshal failure.
func jsonResult(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
