package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anthropics/capstan/internal/domain"
)

// InvocationRepo handles persistence for per-call Invocation records.
type InvocationRepo struct{}

// Start inserts the record for a capability call that has begun.
func (r *InvocationRepo) Start(ctx context.Context, db *sql.DB, inv domain.Invocation) error {
	const q = `INSERT INTO invocations (id, session_id, tool_call_id, capability, args_json, outcome, result_json, started_at, completed_at)
VALUES (?, ?, ?, ?, ?, '', '{}', ?, 0)`
	_, err := db.ExecContext(ctx, q,
		inv.ID,
		inv.SessionID,
		inv.ToolCallID,
		inv.Capability,
		inv.ArgsJSON,
		inv.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("start invocation: %w", err)
	}
	return nil
}

// Finish records the single terminal outcome for an invocation.
func (r *InvocationRepo) Finish(ctx context.Context, db *sql.DB, id, outcome, resultJSON string, completedAt int64) error {
	const q = `UPDATE invocations SET outcome = ?, result_json = ?, completed_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, q, outcome, resultJSON, completedAt, id)
	if err != nil {
		return fmt.Errorf("finish invocation: %w", err)
	}
	return nil
}

// ListBySession returns all invocations for a session ordered by start time.
func (r *InvocationRepo) ListBySession(ctx context.Context, db *sql.DB, sessionID string) ([]domain.Invocation, error) {
	const q = `SELECT id, session_id, tool_call_id, capability, args_json, outcome, result_json, started_at, completed_at
FROM invocations WHERE session_id = ? ORDER BY started_at ASC, id ASC`

	rows, err := db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	defer rows.Close()

	var invs []domain.Invocation
	for rows.Next() {
		var inv domain.Invocation
		if err := rows.Scan(&inv.ID, &inv.SessionID, &inv.ToolCallID, &inv.Capability,
			&inv.ArgsJSON, &inv.Outcome, &inv.ResultJSON, &inv.StartedAt, &inv.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}
