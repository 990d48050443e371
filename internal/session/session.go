// Package session owns per-client conversation state: an append-only
// message log, the permission mode, and the iteration cap. One control
// flow runs per session turn.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/anthropics/capstan/internal/domain"
	"github.com/anthropics/capstan/internal/gate"
	"github.com/anthropics/capstan/internal/loop"
	"github.com/anthropics/capstan/internal/store"
)

// Session is one client conversation. It implements loop.ModeSource so a
// mid-turn set_mode call takes effect on the next permission check.
//
// turnMu serializes whole turns; stateMu guards the fields, so set_mode
// and snapshot reads can run while a turn is in flight.
type Session struct {
	turnMu  sync.Mutex
	stateMu sync.Mutex

	id            string
	mode          domain.Mode
	state         domain.SessionState
	maxIterations int
	createdAt     int64

	conv      []domain.Message
	persisted int

	db       *sql.DB
	sessions *store.SessionRepo
	messages *store.MessageRepo
}

// ID returns the session's identifier.
func (s *Session) ID() string {
	return s.id
}

// Mode implements loop.ModeSource.
func (s *Session) Mode() domain.Mode {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.mode
}

// State returns the session's lifecycle state.
func (s *Session) State() domain.SessionState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

// SetMode applies a validated mode transition and persists it. An invalid
// requested mode leaves the current mode in place.
func (s *Session) SetMode(requested domain.Mode) (domain.Mode, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	next, err := gate.Transition(s.mode, requested)
	if err != nil {
		return s.mode, err
	}
	s.mode = next

	if s.db != nil {
		if err := s.sessions.Update(context.Background(), s.db, s.snapshotLocked()); err != nil {
			return s.mode, err
		}
	}
	return s.mode, nil
}

// Snapshot returns the session's persistent fields.
func (s *Session) Snapshot() domain.Session {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.Session {
	return domain.Session{
		ID:            s.id,
		Mode:          s.mode,
		State:         s.state,
		MaxIterations: s.maxIterations,
		CreatedAtUnix: s.createdAt,
		UpdatedAtUnix: time.Now().Unix(),
	}
}

// Messages returns a copy of the conversation so far.
func (s *Session) Messages() []domain.Message {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return append([]domain.Message(nil), s.conv...)
}

// RunTurn appends the user message, drives the loop until it terminates,
// and persists every message the turn produced. Turns on one session are
// serialized; the loop works on a private copy of the conversation that
// is committed when the turn ends.
func (s *Session) RunTurn(ctx context.Context, lp *loop.Loop, content string) (string, error) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.stateMu.Lock()
	if s.state != domain.SessionActive {
		state := s.state
		s.stateMu.Unlock()
		return "", domain.NewRuntimeError(
			domain.ErrSessionNotActive.Code,
			fmt.Sprintf("session %s is %s", s.id, state),
		)
	}
	conv := append(append([]domain.Message(nil), s.conv...), domain.Message{
		Role:    domain.RoleUser,
		Content: content,
	})
	s.stateMu.Unlock()

	reply, runErr := lp.Run(ctx, &conv, s)

	s.stateMu.Lock()
	s.conv = conv
	if runErr != nil {
		s.state = domain.SessionFailed
	}
	s.stateMu.Unlock()

	if s.db != nil {
		if err := s.persist(ctx); err != nil && runErr == nil {
			runErr = err
		}
	}
	return reply, runErr
}

// persist appends unpersisted messages and updates the session row.
func (s *Session) persist(ctx context.Context) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	for ; s.persisted < len(s.conv); s.persisted++ {
		m := s.conv[s.persisted]
		if err := s.messages.Append(ctx, s.db, s.id, int64(s.persisted), m); err != nil {
			return err
		}
	}
	return s.sessions.Update(ctx, s.db, s.snapshotLocked())
}
