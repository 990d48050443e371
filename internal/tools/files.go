package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthropics/capstan/internal/domain"
	"github.com/anthropics/capstan/internal/edit"
)

// skipDirs are directory names excluded from workspace listings.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"bin":          true,
	"tmp":          true,
}

// ReadFile returns a file's content with 1-based line numbers, optionally
// windowed by offset and limit.
type ReadFile struct {
	Root string
}

func (h *ReadFile) Name() string        { return "read_file" }
func (h *ReadFile) Description() string { return "Read a workspace file, returning numbered lines." }
func (h *ReadFile) Restricted() bool    { return false }

func (h *ReadFile) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Workspace-relative file path."},
			"offset": {"type": "integer", "description": "1-based first line to return."},
			"limit": {"type": "integer", "description": "Maximum number of lines to return."}
		},
		"required": ["path"]
	}`)
}

func (h *ReadFile) Invoke(_ context.Context, args []byte) (string, error) {
	var req struct {
		Path   string `json:"path"`
		Offset int    `json:"offset"`
		Limit  int    `json:"limit"`
	}
	if err := unmarshalArgs(args, &req); err != nil {
		return "", err
	}

	abs, err := workspacePath(h.Root, req.Path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", domain.WrapRuntimeError(domain.ErrIO.Code, "read "+req.Path, err)
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	start := req.Offset
	if start < 1 {
		start = 1
	}
	if start > len(lines) {
		return "", nil
	}
	end := len(lines)
	if req.Limit > 0 && start-1+req.Limit < end {
		end = start - 1 + req.Limit
	}

	var b strings.Builder
	for i := start - 1; i < end; i++ {
		fmt.Fprintf(&b, "%d\t%s\n", i+1, lines[i])
	}
	return b.String(), nil
}

// ListFiles walks the workspace and returns relative paths, skipping
// dependency and VCS directories.
type ListFiles struct {
	Root     string
	MaxFiles int
}

func (h *ListFiles) Name() string        { return "list_files" }
func (h *ListFiles) Description() string { return "List workspace files." }
func (h *ListFiles) Restricted() bool    { return false }

func (h *ListFiles) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"dir": {"type": "string", "description": "Workspace-relative directory to list; defaults to the root."}
		}
	}`)
}

func (h *ListFiles) Invoke(_ context.Context, args []byte) (string, error) {
	var req struct {
		Dir string `json:"dir"`
	}
	if err := unmarshalArgs(args, &req); err != nil {
		return "", err
	}

	base := h.Root
	if req.Dir != "" {
		abs, err := workspacePath(h.Root, req.Dir)
		if err != nil {
			return "", err
		}
		base = abs
	}

	max := h.MaxFiles
	if max <= 0 {
		max = 1000
	}

	var files []string
	truncated := false
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if len(files) >= max {
			truncated = true
			return stopErr
		}
		rel, relErr := filepath.Rel(h.Root, path)
		if relErr != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && err != stopErr {
		return "", domain.WrapRuntimeError(domain.ErrIO.Code, "list files", err)
	}

	return jsonResult(map[string]any{"files": files, "truncated": truncated}), nil
}

// DeleteFile removes a workspace file. Missing paths are an error.
type DeleteFile struct {
	Root string
}

func (h *DeleteFile) Name() string        { return "delete_file" }
func (h *DeleteFile) Description() string { return "Delete a workspace file." }
func (h *DeleteFile) Restricted() bool    { return true }

func (h *DeleteFile) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Workspace-relative file path."}
		},
		"required": ["path"]
	}`)
}

func (h *DeleteFile) Invoke(_ context.Context, args []byte) (string, error) {
	var req struct {
		Path string `json:"path"`
	}
	if err := unmarshalArgs(args, &req); err != nil {
		return "", err
	}

	abs, err := workspacePath(h.Root, req.Path)
	if err != nil {
		return "", err
	}
	if err := os.Remove(abs); err != nil {
		return "", domain.WrapRuntimeError(domain.ErrIO.Code, "delete "+req.Path, err)
	}
	return jsonResult(map[string]string{"deleted": req.Path}), nil
}

// EditFile applies one edit request through the edit engine.
type EditFile struct {
	Engine *edit.Engine
}

func (h *EditFile) Name() string { return "edit_file" }

func (h *EditFile) Description() string {
	return "Create, patch, or rewrite a workspace file. The edit content may be " +
		"a unified diff, an abbreviated file with '// ... existing code ...' " +
		"markers, or full replacement text."
}

func (h *EditFile) Restricted() bool { return true }

func (h *EditFile) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"target_file": {"type": "string", "description": "Workspace-relative file path."},
			"code_edit": {"type": "string", "description": "The edit content."},
			"instructions": {"type": "string", "description": "One sentence describing the intent."}
		},
		"required": ["target_file", "code_edit"]
	}`)
}

func (h *EditFile) Invoke(_ context.Context, args []byte) (string, error) {
	var req domain.EditRequest
	if err := unmarshalArgs(args, &req); err != nil {
		return "", err
	}
	if req.TargetFile == "" {
		return "", fmt.Errorf("target_file is required")
	}

	res, err := h.Engine.Apply(req)
	if err != nil {
		return "", err
	}
	return jsonResult(res), nil
}

// stopErr is a sentinel for ending a walk early without reporting failure.
var stopErr = errors.New("stop walk")

func unmarshalArgs(args []byte, v any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
