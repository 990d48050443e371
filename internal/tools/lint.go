package tools

import (
	"context"
	"fmt"

	"github.com/anthropics/capstan/internal/lint"
)

// LintFile runs the registered linter provider for a file and returns
// parsed diagnostics.
type LintFile struct {
	Root   string
	Runner *lint.Runner
}

func (h *LintFile) Name() string        { return "lint_file" }
func (h *LintFile) Description() string { return "Lint a workspace file and return diagnostics." }
func (h *LintFile) Restricted() bool    { return false }

func (h *LintFile) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Workspace-relative file path."}
		},
		"required": ["path"]
	}`)
}

func (h *LintFile) Invoke(ctx context.Context, args []byte) (string, error) {
	var req struct {
		Path string `json:"path"`
	}
	if err := unmarshalArgs(args, &req); err != nil {
		return "", err
	}
	if req.Path == "" {
		return "", fmt.Errorf("path is required")
	}

	abs, err := workspacePath(h.Root, req.Path)
	if err != nil {
		return "", err
	}
	diags, err := h.Runner.LintFile(ctx, abs)
	if err != nil {
		return "", err
	}
	return jsonResult(map[string]any{"diagnostics": diags}), nil
}
