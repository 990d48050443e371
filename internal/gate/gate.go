// Package gate decides whether a capability may execute under the current
// permission mode. The check is a pure predicate over (capability, mode);
// every deny happens before any mutation.
package gate

import (
	"fmt"

	"github.com/anthropics/capstan/internal/domain"
	"github.com/anthropics/capstan/internal/registry"
)

// Gate authorizes capability invocations against a registry.
type Gate struct {
	caps *registry.Registry
}

// New creates a Gate over the given registry.
func New(caps *registry.Registry) *Gate {
	return &Gate{caps: caps}
}

// Authorize returns nil when the named capability may run under mode.
// Unregistered names yield ErrUnknownCapability; restricted capabilities in
// ask mode yield ErrPermissionDenied; an unrecognized mode yields
// ErrInvalidMode. The check is side-effect-free.
func (g *Gate) Authorize(name string, mode domain.Mode) error {
	if !domain.ValidMode(mode) {
		return domain.NewRuntimeError(
			domain.ErrInvalidMode.Code,
			fmt.Sprintf("invalid mode %q", mode),
		)
	}

	h, err := g.caps.Lookup(name)
	if err != nil {
		return err
	}

	if h.Restricted() && mode == domain.ModeAsk {
		return domain.NewRuntimeError(
			domain.ErrPermissionDenied.Code,
			fmt.Sprintf("capability %q requires agent mode", name),
		)
	}
	return nil
}

// Transition validates a mode change as a pure function of the old and
// requested values. Any requested value outside {ask, agent} fails with
// ErrInvalidMode before any state would change.
func Transition(old, requested domain.Mode) (domain.Mode, error) {
	if !domain.ValidMode(requested) {
		return old, domain.NewRuntimeError(
			domain.ErrInvalidMode.Code,
			fmt.Sprintf("invalid mode %q", requested),
		)
	}
	return requested, nil
}
