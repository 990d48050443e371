package tools

import (
	"context"

	"github.com/anthropics/capstan/internal/domain"
)

// ModeSetter applies a validated mode transition to the owning session.
type ModeSetter interface {
	SetMode(requested domain.Mode) (domain.Mode, error)
}

// SetMode switches the session between ask and agent mode. It is
// unrestricted: granting escalation has to be reachable from ask mode.
type SetMode struct {
	Session ModeSetter
}

func (h *SetMode) Name() string        { return "set_mode" }
func (h *SetMode) Description() string { return "Switch the session between ask and agent mode." }
func (h *SetMode) Restricted() bool    { return false }

func (h *SetMode) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"mode": {"type": "string", "enum": ["ask", "agent"]}
		},
		"required": ["mode"]
	}`)
}

func (h *SetMode) Invoke(_ context.Context, args []byte) (string, error) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := unmarshalArgs(args, &req); err != nil {
		return "", err
	}

	mode, err := h.Session.SetMode(domain.Mode(req.Mode))
	if err != nil {
		return "", err
	}
	return jsonResult(map[string]string{"mode": string(mode)}), nil
}
