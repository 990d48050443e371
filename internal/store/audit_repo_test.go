package store

import (
	"context"
	"testing"
	"time"

	"github.com/anthropics/capstan/internal/domain"
)

func TestAuditRepo_RecordAndList(t *testing.T) {
	db := newTestDB(t)
	repo := &AuditRepo{}
	ctx := context.Background()

	rec := domain.AuditRecord{
		ID:           "aud-1",
		SessionID:    "ses-1",
		Category:     "permission",
		Actor:        "gate",
		Action:       "permission_denied",
		RequestJSON:  `{"capability":"edit_file"}`,
		DecisionJSON: `{"reason":"ask mode"}`,
		Severity:     "warning",
		CreatedAt:    time.Now().Unix(),
	}
	if err := repo.Record(ctx, db, rec); err != nil {
		t.Fatalf("Record: %v", err)
	}

	records, err := repo.ListBySession(ctx, db, "ses-1")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len = %d, want 1", len(records))
	}
	if records[0].Action != "permission_denied" {
		t.Errorf("Action = %q, want permission_denied", records[0].Action)
	}
	if records[0].Severity != "warning" {
		t.Errorf("Severity = %q, want warning", records[0].Severity)
	}
}

func TestAuditRepo_ListEmptySession(t *testing.T) {
	db := newTestDB(t)
	repo := &AuditRepo{}

	records, err := repo.ListBySession(context.Background(), db, "nothing")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len = %d, want 0", len(records))
	}
}
