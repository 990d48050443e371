// Package model defines the completion backend interface and its
// OpenAI-compatible HTTP implementation.
package model

import (
	"context"

	"github.com/anthropics/capstan/internal/domain"
)

// Client produces one completion for a conversation. The completion
// either carries plain content (the turn is done) or tool calls to
// dispatch.
type Client interface {
	Complete(ctx context.Context, msgs []domain.Message, tools []domain.ToolDef) (domain.Completion, error)
}
