package session

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anthropics/capstan/internal/domain"
	"github.com/anthropics/capstan/internal/store"
)

// StoreObserver writes one invocation row per capability call: a start
// row on Start, finished with the terminal outcome on Complete or Error.
// Start and terminal events are matched by capability name and argument
// bytes in FIFO order, which keeps rows balanced even when identical
// calls run concurrently.
type StoreObserver struct {
	mu      sync.Mutex
	pending map[string][]string

	db        *sql.DB
	repo      *store.InvocationRepo
	sessionID string
}

// NewStoreObserver creates an observer recording into the given repo.
func NewStoreObserver(db *sql.DB, repo *store.InvocationRepo, sessionID string) *StoreObserver {
	return &StoreObserver{
		pending:   make(map[string][]string),
		db:        db,
		repo:      repo,
		sessionID: sessionID,
	}
}

func pendingKey(name string, args []byte) string {
	return name + "\x00" + string(args)
}

// Start records the invocation row.
func (o *StoreObserver) Start(name string, args []byte) {
	id := uuid.NewString()

	o.mu.Lock()
	key := pendingKey(name, args)
	o.pending[key] = append(o.pending[key], id)
	o.mu.Unlock()

	_ = o.repo.Start(context.Background(), o.db, domain.Invocation{
		ID:         id,
		SessionID:  o.sessionID,
		Capability: name,
		ArgsJSON:   string(args),
		Outcome:    "started",
		StartedAt:  time.Now().Unix(),
	})
}

// Complete finishes the invocation row with the result.
func (o *StoreObserver) Complete(name string, args []byte, result string) {
	o.finish(name, args, "complete", result)
}

// Error finishes the invocation row with the failure message.
func (o *StoreObserver) Error(name string, args []byte, message string) {
	o.finish(name, args, "error", message)
}

func (o *StoreObserver) finish(name string, args []byte, outcome, detail string) {
	o.mu.Lock()
	key := pendingKey(name, args)
	ids := o.pending[key]
	if len(ids) == 0 {
		o.mu.Unlock()
		return
	}
	id := ids[0]
	o.pending[key] = ids[1:]
	o.mu.Unlock()

	_ = o.repo.Finish(context.Background(), o.db, id, outcome, detail, time.Now().Unix())
}
