package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anthropics/capstan/internal/domain"
)

// UsageRepo handles persistence for token usage deltas.
type UsageRepo struct{}

// Record inserts a usage delta.
func (r *UsageRepo) Record(ctx context.Context, db *sql.DB, d domain.UsageDelta) error {
	const q = `INSERT INTO usage_deltas (session_id, input_tokens, output_tokens, model, created_at)
VALUES (?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q,
		d.SessionID,
		d.InputTokens,
		d.OutputTokens,
		d.Model,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

// SumBySession returns the total input and output tokens for a session.
func (r *UsageRepo) SumBySession(ctx context.Context, db *sql.DB, sessionID string) (int64, int64, error) {
	const q = `SELECT COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0)
FROM usage_deltas WHERE session_id = ?`

	var in, out int64
	if err := db.QueryRowContext(ctx, q, sessionID).Scan(&in, &out); err != nil {
		return 0, 0, fmt.Errorf("sum usage: %w", err)
	}
	return in, out, nil
}
