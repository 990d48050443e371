// Package registry holds the table of named capabilities exposed to the
// conversation loop. Capabilities are validated at registration time and
// immutable thereafter.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/anthropics/capstan/internal/domain"
)

// Handler executes one capability. Invoke receives the raw JSON argument
// object from the model's tool call and returns the serialized result
// content.
type Handler interface {
	Name() string
	Description() string
	Schema() []byte
	// Restricted capabilities are denied in ask mode.
	Restricted() bool
	Invoke(ctx context.Context, args []byte) (string, error)
}

// Registry maps capability names to handlers.
type Registry struct {
	mu   sync.RWMutex
	caps map[string]Handler
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{caps: make(map[string]Handler)}
}

// Register adds a handler. It fails on a nil handler, an empty name, or a
// duplicate registration.
func (r *Registry) Register(h Handler) error {
	if h == nil || h.Name() == "" {
		return domain.ErrInvalidCapability
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.caps[h.Name()]; exists {
		return domain.NewRuntimeError(
			domain.ErrDuplicateCapability.Code,
			fmt.Sprintf("capability %q already registered", h.Name()),
		)
	}
	r.caps[h.Name()] = h
	return nil
}

// Lookup resolves a capability by name, or returns ErrUnknownCapability.
func (r *Registry) Lookup(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.caps[name]
	if !ok {
		return nil, domain.NewRuntimeError(
			domain.ErrUnknownCapability.Code,
			fmt.Sprintf("unknown capability %q", name),
		)
	}
	return h, nil
}

// Defs returns the tool definitions for every registered capability, for
// presentation to the model.
func (r *Registry) Defs() []domain.ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]domain.ToolDef, 0, len(r.caps))
	for _, h := range r.caps {
		defs = append(defs, domain.ToolDef{
			Name:        h.Name(),
			Description: h.Description(),
			Schema:      h.Schema(),
		})
	}
	return defs
}
