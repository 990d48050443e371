// Package loop drives repeated model calls, dispatching the model's tool
// calls through the permission gate and capability registry and feeding
// results back into the conversation.
package loop

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/anthropics/capstan/internal/domain"
	"github.com/anthropics/capstan/internal/gate"
	"github.com/anthropics/capstan/internal/registry"
)

// Model produces one completion for the full conversation so far.
type Model interface {
	Complete(ctx context.Context, msgs []domain.Message, tools []domain.ToolDef) (domain.Completion, error)
}

// ModeSource supplies the permission mode in effect for the next check.
// Threading the mode through every dispatch keeps the gate free of global
// state; a capability such as set_mode may change it mid-turn.
type ModeSource interface {
	Mode() domain.Mode
}

// Loop is the conversation state machine:
//
//	AwaitingModel -> DispatchingTools -> AwaitingModel -> ... -> Done | Failed
//
// Plain model content means Done. The iteration cap exhausting first means
// Failed with ErrMaxIterationsExceeded; termination is always explicit.
type Loop struct {
	Model         Model
	Caps          *registry.Registry
	Gate          *gate.Gate
	Observer      Observer
	MaxIterations int
}

// New creates a Loop with the given collaborators. A nil observer is
// replaced by a nop observer.
func New(model Model, caps *registry.Registry, g *gate.Gate, obs Observer, maxIterations int) *Loop {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Loop{
		Model:         model,
		Caps:          caps,
		Gate:          g,
		Observer:      obs,
		MaxIterations: maxIterations,
	}
}

// Run drives the loop until the model returns plain content or the
// iteration cap is exhausted. The conversation is mutated by append only.
// The final assistant content is returned on Done.
func (l *Loop) Run(ctx context.Context, conv *[]domain.Message, mode ModeSource) (string, error) {
	for iter := 0; iter < l.MaxIterations; iter++ {
		completion, err := l.Model.Complete(ctx, *conv, l.Caps.Defs())
		if err != nil {
			return "", domain.WrapRuntimeError(domain.ErrModelUnavailable.Code, "model call", err)
		}

		*conv = append(*conv, domain.Message{
			Role:      domain.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		if len(completion.ToolCalls) == 0 {
			return completion.Content, nil
		}

		results := l.dispatchBatch(ctx, completion.ToolCalls, mode)
		for _, res := range results {
			*conv = append(*conv, domain.Message{
				Role:       domain.RoleTool,
				Content:    res.Content,
				ToolCallID: res.ToolCallID,
				Name:       res.Name,
			})
		}
	}

	return "", domain.ErrMaxIterationsExceeded
}

// dispatchBatch invokes every call the model requested. Calls run as
// independent concurrent tasks; a single call's failure is captured as that
// call's result and never aborts its siblings. The batch is joined before
// results are reassembled in original request order.
func (l *Loop) dispatchBatch(ctx context.Context, calls []domain.ToolCall, mode ModeSource) []domain.ToolResult {
	results := make([]domain.ToolResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call domain.ToolCall) {
			defer wg.Done()
			results[i] = l.dispatchOne(ctx, call, mode)
		}(i, call)
	}
	wg.Wait()

	return results
}

// dispatchOne resolves, authorizes, and invokes a single call, emitting
// exactly one observer start and one terminal observer event.
func (l *Loop) dispatchOne(ctx context.Context, call domain.ToolCall, mode ModeSource) domain.ToolResult {
	l.Observer.Start(call.Name, call.Args)

	if err := l.Gate.Authorize(call.Name, mode.Mode()); err != nil {
		l.Observer.Error(call.Name, call.Args, err.Error())
		return errorResult(call, err)
	}

	handler, err := l.Caps.Lookup(call.Name)
	if err != nil {
		l.Observer.Error(call.Name, call.Args, err.Error())
		return errorResult(call, err)
	}

	content, err := handler.Invoke(ctx, call.Args)
	if err != nil {
		l.Observer.Error(call.Name, call.Args, err.Error())
		return errorResult(call, err)
	}

	l.Observer.Complete(call.Name, call.Args, content)
	return domain.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    content,
	}
}

// errorResult serializes a call failure into that call's result content so
// the model can react to it.
func errorResult(call domain.ToolCall, err error) domain.ToolResult {
	payload := map[string]any{"error": err.Error()}
	if re, ok := err.(*domain.RuntimeError); ok {
		payload["code"] = re.Code
	}
	body, _ := json.Marshal(payload)
	return domain.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    string(body),
		IsError:    true,
	}
}
