package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/capstan/internal/domain"
)

// MessageRepo handles persistence for conversation messages. The message
// log is append-only.
type MessageRepo struct{}

// Append inserts a message at the next sequence number for the session.
func (r *MessageRepo) Append(ctx context.Context, db *sql.DB, sessionID string, seqNo int64, m domain.Message) error {
	toolCalls, err := json.Marshal(m.ToolCalls)
	if err != nil {
		return fmt.Errorf("marshal tool calls: %w", err)
	}

	const q = `INSERT INTO messages (session_id, seq_no, role, content, tool_calls, tool_call_id, name, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, q,
		sessionID,
		seqNo,
		string(m.Role),
		m.Content,
		string(toolCalls),
		m.ToolCallID,
		m.Name,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// ListBySession returns all messages for a session in sequence order.
func (r *MessageRepo) ListBySession(ctx context.Context, db *sql.DB, sessionID string) ([]domain.Message, error) {
	const q = `SELECT role, content, tool_calls, tool_call_id, name
FROM messages WHERE session_id = ? ORDER BY seq_no ASC`

	rows, err := db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		var role, toolCalls string
		if err := rows.Scan(&role, &m.Content, &toolCalls, &m.ToolCallID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = domain.Role(role)
		if err := json.Unmarshal([]byte(toolCalls), &m.ToolCalls); err != nil {
			return nil, fmt.Errorf("unmarshal tool calls: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Count returns the number of messages stored for a session.
func (r *MessageRepo) Count(ctx context.Context, db *sql.DB, sessionID string) (int64, error) {
	const q = `SELECT COUNT(*) FROM messages WHERE session_id = ?`
	var n int64
	if err := db.QueryRowContext(ctx, q, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}
