package tools

import (
	"context"
	"fmt"

	"github.com/anthropics/capstan/internal/domain"
	"github.com/anthropics/capstan/internal/notes"
)

// MemoWrite persists a memo.
type MemoWrite struct {
	Store *notes.Store
}

func (h *MemoWrite) Name() string        { return "memo_write" }
func (h *MemoWrite) Description() string { return "Save a memo for later turns." }
func (h *MemoWrite) Restricted() bool    { return true }

func (h *MemoWrite) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"title": {"type": "string"},
			"body": {"type": "string"}
		},
		"required": ["title", "body"]
	}`)
}

func (h *MemoWrite) Invoke(_ context.Context, args []byte) (string, error) {
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := unmarshalArgs(args, &req); err != nil {
		return "", err
	}
	if req.Title == "" {
		return "", fmt.Errorf("title is required")
	}

	memo, err := h.Store.AddMemo(req.Title, req.Body)
	if err != nil {
		return "", err
	}
	return jsonResult(memo), nil
}

// MemoList returns all saved memos.
type MemoList struct {
	Store *notes.Store
}

func (h *MemoList) Name() string        { return "memo_list" }
func (h *MemoList) Description() string { return "List saved memos." }
func (h *MemoList) Restricted() bool    { return false }

func (h *MemoList) Schema() []byte {
	return []byte(`{"type": "object", "properties": {}}`)
}

func (h *MemoList) Invoke(_ context.Context, _ []byte) (string, error) {
	memos, err := h.Store.ListMemos()
	if err != nil {
		return "", err
	}
	return jsonResult(map[string]any{"memos": memos}), nil
}

// TodoWrite adds a todo or updates an existing todo's status.
type TodoWrite struct {
	Store *notes.Store
}

func (h *TodoWrite) Name() string { return "todo_write" }

func (h *TodoWrite) Description() string {
	return "Add a todo, or set the status of an existing one by ID."
}

func (h *TodoWrite) Restricted() bool { return true }

func (h *TodoWrite) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"content": {"type": "string", "description": "New todo content."},
			"id": {"type": "string", "description": "Existing todo to update."},
			"status": {"type": "string", "enum": ["pending", "in_progress", "completed"]}
		}
	}`)
}

func (h *TodoWrite) Invoke(_ context.Context, args []byte) (string, error) {
	var req struct {
		Content string `json:"content"`
		ID      string `json:"id"`
		Status  string `json:"status"`
	}
	if err := unmarshalArgs(args, &req); err != nil {
		return "", err
	}

	if req.ID != "" {
		todo, err := h.Store.SetTodoStatus(req.ID, domain.TodoStatus(req.Status))
		if err != nil {
			return "", err
		}
		return jsonResult(todo), nil
	}
	if req.Content == "" {
		return "", fmt.Errorf("content is required for a new todo")
	}
	todo, err := h.Store.AddTodo(req.Content)
	if err != nil {
		return "", err
	}
	return jsonResult(todo), nil
}

// TodoList returns all todos.
type TodoList struct {
	Store *notes.Store
}

func (h *TodoList) Name() string        { return "todo_list" }
func (h *TodoList) Description() string { return "List todos." }
func (h *TodoList) Restricted() bool    { return false }

func (h *TodoList) Schema() []byte {
	return []byte(`{"type": "object", "properties": {}}`)
}

func (h *TodoList) Invoke(_ context.Context, _ []byte) (string, error) {
	todos, err := h.Store.ListTodos()
	if err != nil {
		return "", err
	}
	return jsonResult(map[string]any{"todos": todos}), nil
}
