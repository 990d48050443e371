package tools

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"github.com/anthropics/capstan/internal/domain"
	"github.com/anthropics/capstan/internal/store"
)

// RunCommand executes a shell command in the workspace. Foreground runs
// are killed at the timeout; background runs detach immediately and are
// tracked as proc records.
type RunCommand struct {
	Root      string
	Timeout   time.Duration
	SessionID string
	Procs     *store.ProcRepo
	DB        *sql.DB
}

func (h *RunCommand) Name() string { return "run_command" }

func (h *RunCommand) Description() string {
	return "Run a shell command in the workspace. Set background to true to " +
		"detach and receive a PID instead of waiting for output."
}

func (h *RunCommand) Restricted() bool { return true }

func (h *RunCommand) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "description": "Shell command line to run."},
			"background": {"type": "boolean", "description": "Detach and return the PID immediately."},
			"timeout_seconds": {"type": "integer", "description": "Foreground timeout override."}
		},
		"required": ["command"]
	}`)
}

func (h *RunCommand) Invoke(ctx context.Context, args []byte) (string, error) {
	var req struct {
		Command        string `json:"command"`
		Background     bool   `json:"background"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	}
	if err := unmarshalArgs(args, &req); err != nil {
		return "", err
	}
	if req.Command == "" {
		return "", fmt.Errorf("command is required")
	}

	if req.Background {
		return h.runBackground(ctx, req.Command)
	}

	timeout := h.Timeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return h.runForeground(ctx, req.Command, timeout)
}

func (h *RunCommand) runForeground(ctx context.Context, command string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = h.Root
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", domain.NewRuntimeError(
			domain.ErrSubprocessTimeout.Code,
			fmt.Sprintf("command killed after %s", timeout),
		)
	}
	if err != nil {
		exitCode := -1
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		return "", domain.NewRuntimeError(
			domain.ErrSubprocessFailure.Code,
			fmt.Sprintf("exit %d: %s", exitCode, out.String()),
		)
	}
	return jsonResult(map[string]any{"output": out.String(), "exit_code": 0}), nil
}

// runBackground starts the command detached from the dispatch join. The
// proc record is updated when the process eventually exits; its side
// effects are unsynchronized with the conversation.
func (h *RunCommand) runBackground(ctx context.Context, command string) (string, error) {
	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = h.Root
	if err := cmd.Start(); err != nil {
		return "", domain.WrapRuntimeError(domain.ErrSubprocessFailure.Code, "start command", err)
	}

	rec := domain.ProcRecord{
		ID:            uuid.NewString(),
		SessionID:     h.SessionID,
		PID:           cmd.Process.Pid,
		Command:       command,
		State:         domain.ProcRunning,
		StartedAtUnix: time.Now().Unix(),
	}
	if h.Procs != nil && h.DB != nil {
		if err := h.Procs.Create(ctx, h.DB, rec); err != nil {
			_ = cmd.Process.Kill()
			return "", err
		}
		go func() {
			_ = cmd.Wait()
			_ = h.Procs.UpdateState(context.Background(), h.DB, rec.ID, domain.ProcExited)
		}()
	} else {
		go func() { _ = cmd.Wait() }()
	}

	return jsonResult(map[string]any{"proc_id": rec.ID, "pid": rec.PID}), nil
}
