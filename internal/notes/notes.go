// Package notes persists memos and todos as JSON files under a state
// directory. Each collection is one file, read and rewritten whole per
// operation.
package notes

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/anthropics/capstan/internal/domain"
)

// Store reads and writes memo and todo collections.
type Store struct {
	Dir string
}

// NewStore creates a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create notes dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) memoPath() string { return filepath.Join(s.Dir, "memos.json") }
func (s *Store) todoPath() string { return filepath.Join(s.Dir, "todos.json") }

// AddMemo appends a memo and returns it with its assigned ID.
func (s *Store) AddMemo(title, body string) (domain.Memo, error) {
	memos, err := s.ListMemos()
	if err != nil {
		return domain.Memo{}, err
	}

	now := time.Now().Unix()
	memo := domain.Memo{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	memos = append(memos, memo)
	if err := writeJSON(s.memoPath(), memos); err != nil {
		return domain.Memo{}, err
	}
	return memo, nil
}

// ListMemos returns all stored memos. A missing file is an empty list.
func (s *Store) ListMemos() ([]domain.Memo, error) {
	var memos []domain.Memo
	if err := readJSON(s.memoPath(), &memos); err != nil {
		return nil, err
	}
	return memos, nil
}

// DeleteMemo removes a memo by ID. Unknown IDs are ignored.
func (s *Store) DeleteMemo(id string) error {
	memos, err := s.ListMemos()
	if err != nil {
		return err
	}
	kept := memos[:0]
	for _, m := range memos {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	return writeJSON(s.memoPath(), kept)
}

// AddTodo appends a pending todo and returns it with its assigned ID.
func (s *Store) AddTodo(content string) (domain.Todo, error) {
	todos, err := s.ListTodos()
	if err != nil {
		return domain.Todo{}, err
	}

	now := time.Now().Unix()
	todo := domain.Todo{
		ID:        uuid.NewString(),
		Content:   content,
		Status:    domain.TodoPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	todos = append(todos, todo)
	if err := writeJSON(s.todoPath(), todos); err != nil {
		return domain.Todo{}, err
	}
	return todo, nil
}

// ListTodos returns all stored todos. A missing file is an empty list.
func (s *Store) ListTodos() ([]domain.Todo, error) {
	var todos []domain.Todo
	if err := readJSON(s.todoPath(), &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// SetTodoStatus updates the status of a todo by ID.
func (s *Store) SetTodoStatus(id string, status domain.TodoStatus) (domain.Todo, error) {
	switch status {
	case domain.TodoPending, domain.TodoInProgress, domain.TodoCompleted:
	default:
		return domain.Todo{}, fmt.Errorf("invalid todo status %q", status)
	}

	todos, err := s.ListTodos()
	if err != nil {
		return domain.Todo{}, err
	}
	for i := range todos {
		if todos[i].ID == id {
			todos[i].Status = status
			todos[i].UpdatedAt = time.Now().Unix()
			if err := writeJSON(s.todoPath(), todos); err != nil {
				return domain.Todo{}, err
			}
			return todos[i], nil
		}
	}
	return domain.Todo{}, fmt.Errorf("todo %q not found", id)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
