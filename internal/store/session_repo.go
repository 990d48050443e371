package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anthropics/capstan/internal/domain"
)

// SessionRepo handles persistence for Session rows.
type SessionRepo struct{}

// Create inserts a new session.
func (r *SessionRepo) Create(ctx context.Context, db *sql.DB, s domain.Session) error {
	const q = `INSERT INTO sessions (session_id, mode, state, max_iterations, created_at_unix, updated_at_unix)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q,
		s.ID,
		string(s.Mode),
		string(s.State),
		s.MaxIterations,
		s.CreatedAtUnix,
		s.UpdatedAtUnix,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetByID returns a session by ID, or ErrSessionNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, db *sql.DB, id string) (*domain.Session, error) {
	const q = `SELECT session_id, mode, state, max_iterations, created_at_unix, updated_at_unix
FROM sessions WHERE session_id = ?`

	var s domain.Session
	var mode, state string
	err := db.QueryRowContext(ctx, q, id).Scan(&s.ID, &mode, &state, &s.MaxIterations, &s.CreatedAtUnix, &s.UpdatedAtUnix)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	s.Mode = domain.Mode(mode)
	s.State = domain.SessionState(state)
	return &s, nil
}

// Update persists mode, state, and updated timestamp for a session.
func (r *SessionRepo) Update(ctx context.Context, db *sql.DB, s domain.Session) error {
	const q = `UPDATE sessions SET mode = ?, state = ?, updated_at_unix = ? WHERE session_id = ?`
	res, err := db.ExecContext(ctx, q, string(s.Mode), string(s.State), s.UpdatedAtUnix, s.ID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// List returns all sessions ordered by creation time.
func (r *SessionRepo) List(ctx context.Context, db *sql.DB) ([]domain.Session, error) {
	const q = `SELECT session_id, mode, state, max_iterations, created_at_unix, updated_at_unix
FROM sessions ORDER BY created_at_unix ASC`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		var mode, state string
		if err := rows.Scan(&s.ID, &mode, &state, &s.MaxIterations, &s.CreatedAtUnix, &s.UpdatedAtUnix); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.Mode = domain.Mode(mode)
		s.State = domain.SessionState(state)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
