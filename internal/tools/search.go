package tools

import (
	"context"
	"fmt"

	"github.com/anthropics/capstan/internal/scan"
	"github.com/anthropics/capstan/internal/web"
)

// SearchWorkspace runs a multi-term literal search over workspace files.
type SearchWorkspace struct {
	Scanner *scan.Scanner
	MaxHits int
}

func (h *SearchWorkspace) Name() string { return "search_workspace" }

func (h *SearchWorkspace) Description() string {
	return "Search workspace files for literal terms, returning matching lines."
}

func (h *SearchWorkspace) Restricted() bool { return false }

func (h *SearchWorkspace) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"terms": {"type": "array", "items": {"type": "string"}, "description": "Literal terms to search for."}
		},
		"required": ["terms"]
	}`)
}

func (h *SearchWorkspace) Invoke(_ context.Context, args []byte) (string, error) {
	var req struct {
		Terms []string `json:"terms"`
	}
	if err := unmarshalArgs(args, &req); err != nil {
		return "", err
	}
	if len(req.Terms) == 0 {
		return "", fmt.Errorf("terms is required")
	}

	max := h.MaxHits
	if max <= 0 {
		max = 200
	}
	hits, truncated, err := h.Scanner.Search(req.Terms, max)
	if err != nil {
		return "", err
	}
	return jsonResult(map[string]any{"hits": hits, "truncated": truncated}), nil
}

// WebSearch queries the configured search provider and summarizes results.
type WebSearch struct {
	Service *web.Service
	Limit   int
}

func (h *WebSearch) Name() string        { return "web_search" }
func (h *WebSearch) Description() string { return "Search the web and summarize the results." }
func (h *WebSearch) Restricted() bool    { return false }

func (h *WebSearch) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Search query."}
		},
		"required": ["query"]
	}`)
}

func (h *WebSearch) Invoke(ctx context.Context, args []byte) (string, error) {
	var req struct {
		Query string `json:"query"`
	}
	if err := unmarshalArgs(args, &req); err != nil {
		return "", err
	}
	if req.Query == "" {
		return "", fmt.Errorf("query is required")
	}

	limit := h.Limit
	if limit <= 0 {
		limit = 5
	}
	results, err := h.Service.Search(ctx, req.Query, limit)
	if err != nil {
		return "", err
	}
	return jsonResult(map[string]any{"results": results}), nil
}
