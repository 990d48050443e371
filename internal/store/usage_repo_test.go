package store

import (
	"context"
	"testing"

	"github.com/anthropics/capstan/internal/domain"
)

func TestUsageRepo_RecordAndSum(t *testing.T) {
	db := newTestDB(t)
	repo := &UsageRepo{}
	ctx := context.Background()

	deltas := []domain.UsageDelta{
		{SessionID: "ses-1", InputTokens: 100, OutputTokens: 20, Model: "gpt-4.1"},
		{SessionID: "ses-1", InputTokens: 200, OutputTokens: 50, Model: "gpt-4.1"},
		{SessionID: "ses-2", InputTokens: 999, OutputTokens: 999, Model: "gpt-4.1"},
	}
	for i, d := range deltas {
		if err := repo.Record(ctx, db, d); err != nil {
			t.Fatalf("Record #%d: %v", i, err)
		}
	}

	in, out, err := repo.SumBySession(ctx, db, "ses-1")
	if err != nil {
		t.Fatalf("SumBySession: %v", err)
	}
	if in != 300 || out != 70 {
		t.Errorf("sum = (%d,%d), want (300,70)", in, out)
	}
}

func TestUsageRepo_SumEmptySession(t *testing.T) {
	db := newTestDB(t)
	repo := &UsageRepo{}

	in, out, err := repo.SumBySession(context.Background(), db, "none")
	if err != nil {
		t.Fatalf("SumBySession: %v", err)
	}
	if in != 0 || out != 0 {
		t.Errorf("sum = (%d,%d), want (0,0)", in, out)
	}
}
