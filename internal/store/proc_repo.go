package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anthropics/capstan/internal/domain"
)

// ProcRepo handles persistence for detached background process records.
type ProcRepo struct{}

// Create inserts a record for a newly spawned background process.
func (r *ProcRepo) Create(ctx context.Context, db *sql.DB, p domain.ProcRecord) error {
	const q = `INSERT INTO procs (proc_id, session_id, pid, command, state, started_at_unix)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q,
		p.ID,
		p.SessionID,
		p.PID,
		p.Command,
		string(p.State),
		p.StartedAtUnix,
	)
	if err != nil {
		return fmt.Errorf("create proc: %w", err)
	}
	return nil
}

// UpdateState transitions a process record to a new state.
func (r *ProcRepo) UpdateState(ctx context.Context, db *sql.DB, procID string, state domain.ProcState) error {
	const q = `UPDATE procs SET state = ? WHERE proc_id = ?`
	res, err := db.ExecContext(ctx, q, string(state), procID)
	if err != nil {
		return fmt.Errorf("update proc state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update proc state: %w", err)
	}
	if n == 0 {
		return domain.ErrProcNotFound
	}
	return nil
}

// ListBySession returns all process records for a session ordered by start time.
func (r *ProcRepo) ListBySession(ctx context.Context, db *sql.DB, sessionID string) ([]domain.ProcRecord, error) {
	const q = `SELECT proc_id, session_id, pid, command, state, started_at_unix
FROM procs WHERE session_id = ? ORDER BY started_at_unix ASC`

	rows, err := db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list procs: %w", err)
	}
	defer rows.Close()

	var procs []domain.ProcRecord
	for rows.Next() {
		var p domain.ProcRecord
		var state string
		if err := rows.Scan(&p.ID, &p.SessionID, &p.PID, &p.Command, &state, &p.StartedAtUnix); err != nil {
			return nil, fmt.Errorf("scan proc: %w", err)
		}
		p.State = domain.ProcState(state)
		procs = append(procs, p)
	}
	return procs, rows.Err()
}
