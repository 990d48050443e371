package model

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/capstan/internal/domain"
)

func TestOpenAIClient_PlainContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("got auth header %q", got)
		}
		fmt.Fprint(w, `{
			"choices":[{"message":{"role":"assistant","content":"all done"}}],
			"usage":{"prompt_tokens":12,"completion_tokens":3}
		}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test", "gpt-4o")
	got, err := c.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
	}, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Content != "all done" || len(got.ToolCalls) != 0 {
		t.Fatalf("unexpected completion %+v", got)
	}
	if got.Usage.InputTokens != 12 || got.Usage.OutputTokens != 3 {
		t.Fatalf("unexpected usage %+v", got.Usage)
	}
	if got.Usage.Model != "gpt-4o" {
		t.Fatalf("got usage model %q", got.Usage.Model)
	}
}

func TestOpenAIClient_ToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Tools) != 1 || req.Tools[0].Function.Name != "read_file" {
			t.Errorf("unexpected tools %+v", req.Tools)
		}
		fmt.Fprint(w, `{
			"choices":[{"message":{"role":"assistant","content":"","tool_calls":[
				{"id":"call-1","type":"function","function":{"name":"read_file","arguments":"{\"path\":\"main.go\"}"}}
			]}}]
		}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test", "gpt-4o")
	got, err := c.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "read main.go"},
	}, []domain.ToolDef{
		{Name: "read_file", Description: "reads a file", Schema: []byte(`{"type":"object"}`)},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(got.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(got.ToolCalls))
	}
	tc := got.ToolCalls[0]
	if tc.ID != "call-1" || tc.Name != "read_file" {
		t.Fatalf("unexpected tool call %+v", tc)
	}
	var args map[string]string
	if err := json.Unmarshal(tc.Args, &args); err != nil {
		t.Fatalf("parse args: %v", err)
	}
	if args["path"] != "main.go" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestOpenAIClient_RoundTripsToolResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 3 {
			t.Errorf("got %d messages, want 3", len(req.Messages))
		}
		last := req.Messages[2]
		if last.Role != "tool" || last.ToolCallID != "call-1" {
			t.Errorf("unexpected tool message %+v", last)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-test", "gpt-4o")
	_, err := c.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "go"},
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{
			{ID: "call-1", Name: "read_file", Args: []byte(`{}`)},
		}},
		{Role: domain.RoleTool, ToolCallID: "call-1", Name: "read_file", Content: "file body"},
	}, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
}

func TestOpenAIClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "sk-bad", "gpt-4o")
	if _, err := c.Complete(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for 401 response")
	}
}
