package store

import (
	"context"
	"testing"
	"time"

	"github.com/anthropics/capstan/internal/domain"
)

func TestInvocationRepo_StartAndFinish(t *testing.T) {
	db := newTestDB(t)
	repo := &InvocationRepo{}
	ctx := context.Background()

	now := time.Now().Unix()
	inv := domain.Invocation{
		ID:         "inv-1",
		SessionID:  "ses-1",
		ToolCallID: "c1",
		Capability: "edit_file",
		ArgsJSON:   `{"target_file":"a.txt"}`,
		StartedAt:  now,
	}
	if err := repo.Start(ctx, db, inv); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := repo.Finish(ctx, db, "inv-1", "complete", `{"action":"patched"}`, now+1); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	invs, err := repo.ListBySession(ctx, db, "ses-1")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(invs) != 1 {
		t.Fatalf("len = %d, want 1", len(invs))
	}
	got := invs[0]
	if got.Outcome != "complete" {
		t.Errorf("Outcome = %q, want complete", got.Outcome)
	}
	if got.ResultJSON != `{"action":"patched"}` {
		t.Errorf("ResultJSON = %q", got.ResultJSON)
	}
	if got.CompletedAt != now+1 {
		t.Errorf("CompletedAt = %d, want %d", got.CompletedAt, now+1)
	}
}

func TestInvocationRepo_ListOrderedByStart(t *testing.T) {
	db := newTestDB(t)
	repo := &InvocationRepo{}
	ctx := context.Background()

	base := time.Now().Unix()
	for i, id := range []string{"inv-a", "inv-b", "inv-c"} {
		inv := domain.Invocation{
			ID:         id,
			SessionID:  "ses-1",
			Capability: "read_file",
			ArgsJSON:   `{}`,
			StartedAt:  base + int64(i),
		}
		if err := repo.Start(ctx, db, inv); err != nil {
			t.Fatalf("Start %s: %v", id, err)
		}
	}

	invs, err := repo.ListBySession(ctx, db, "ses-1")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(invs) != 3 {
		t.Fatalf("len = %d, want 3", len(invs))
	}
	if invs[0].ID != "inv-a" || invs[2].ID != "inv-c" {
		t.Errorf("order = %s..%s, want inv-a..inv-c", invs[0].ID, invs[2].ID)
	}
}
