package session

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anthropics/capstan/internal/domain"
	"github.com/anthropics/capstan/internal/gate"
	"github.com/anthropics/capstan/internal/loop"
	"github.com/anthropics/capstan/internal/model"
	"github.com/anthropics/capstan/internal/registry"
	"github.com/anthropics/capstan/internal/store"
)

// CapabilityFactory builds the capability registry for a new session.
// Per-session construction lets handlers such as set_mode and run_command
// bind to the owning session.
type CapabilityFactory func(s *Session) (*registry.Registry, error)

// Manager creates and tracks sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	db          *sql.DB
	sessionRepo *store.SessionRepo
	messageRepo *store.MessageRepo
	usageRepo   *store.UsageRepo
	invRepo     *store.InvocationRepo

	client        model.Client
	buildCaps     CapabilityFactory
	defaultMode   domain.Mode
	maxIterations int

	registries map[string]*registry.Registry
}

// NewManager creates a Manager. db may be nil, in which case nothing is
// persisted.
func NewManager(db *sql.DB, client model.Client, buildCaps CapabilityFactory, defaultMode domain.Mode, maxIterations int) *Manager {
	return &Manager{
		sessions:      make(map[string]*Session),
		registries:    make(map[string]*registry.Registry),
		db:            db,
		sessionRepo:   &store.SessionRepo{},
		messageRepo:   &store.MessageRepo{},
		usageRepo:     &store.UsageRepo{},
		invRepo:       &store.InvocationRepo{},
		client:        client,
		buildCaps:     buildCaps,
		defaultMode:   defaultMode,
		maxIterations: maxIterations,
	}
}

// Create creates a new active session in the default mode.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	s := &Session{
		id:            uuid.NewString(),
		mode:          m.defaultMode,
		state:         domain.SessionActive,
		maxIterations: m.maxIterations,
		createdAt:     time.Now().Unix(),
		db:            m.db,
		sessions:      m.sessionRepo,
		messages:      m.messageRepo,
	}

	caps, err := m.buildCaps(s)
	if err != nil {
		return nil, err
	}

	if m.db != nil {
		if err := m.sessionRepo.Create(ctx, m.db, s.Snapshot()); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.registries[s.id] = caps
	m.mu.Unlock()
	return s, nil
}

// Get returns the session by ID, or ErrSessionNotFound.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.NewRuntimeError(
			domain.ErrSessionNotFound.Code,
			"session not found: "+id,
		)
	}
	return s, nil
}

// List returns snapshots of all live sessions.
func (m *Manager) List() []domain.Session {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	out := make([]domain.Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Snapshot())
	}
	return out
}

// RunTurn runs one user turn on the named session.
func (m *Manager) RunTurn(ctx context.Context, sessionID, content string) (string, error) {
	s, err := m.Get(sessionID)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	caps := m.registries[sessionID]
	m.mu.Unlock()

	client := m.client
	if m.db != nil {
		client = &usageRecordingClient{
			inner:     m.client,
			db:        m.db,
			usage:     m.usageRepo,
			sessionID: sessionID,
		}
	}

	var obs loop.Observer
	if m.db != nil {
		obs = NewStoreObserver(m.db, m.invRepo, sessionID)
	}

	lp := loop.New(client, caps, gate.New(caps), obs, s.Snapshot().MaxIterations)
	return s.RunTurn(ctx, lp, content)
}

// usageRecordingClient records the token usage of every completion.
type usageRecordingClient struct {
	inner     model.Client
	db        *sql.DB
	usage     *store.UsageRepo
	sessionID string
}

func (c *usageRecordingClient) Complete(ctx context.Context, msgs []domain.Message, tools []domain.ToolDef) (domain.Completion, error) {
	completion, err := c.inner.Complete(ctx, msgs, tools)
	if err != nil {
		return completion, err
	}

	delta := completion.Usage
	if delta.InputTokens > 0 || delta.OutputTokens > 0 {
		delta.SessionID = c.sessionID
		_ = c.usage.Record(ctx, c.db, delta)
	}
	return completion, nil
}
