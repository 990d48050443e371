// Package ipc provides the HTTP API for the Capstan runtime.
package ipc

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anthropics/capstan/internal/domain"
	"github.com/anthropics/capstan/internal/session"
	"github.com/anthropics/capstan/internal/store"
)

// Handler holds all dependencies for the HTTP handlers.
type Handler struct {
	Sessions       *session.Manager
	DB             *sql.DB
	AuditRepo      *store.AuditRepo
	InvocationRepo *store.InvocationRepo
	UsageRepo      *store.UsageRepo
	ProcRepo       *store.ProcRepo
}

// MessageRequest is the body for POST /api/v1/session/{sessionID}/message.
type MessageRequest struct {
	Content string `json:"content"`
}

// MessageResponse is the reply for a completed turn.
type MessageResponse struct {
	Reply string              `json:"reply"`
	State domain.SessionState `json:"state"`
}

// ModeRequest is the body for POST /api/v1/session/{sessionID}/mode.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// UsageSummary is the response for GET /api/v1/session/{sessionID}/usage.
type UsageSummary struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// APIError is a structured error response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateSession handles POST /api/v1/session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Create(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionView(s.Snapshot()))
}

// GetSession handles GET /api/v1/session/{sessionID}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Get(r.PathValue("sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(s.Snapshot()))
}

// ListSessions handles GET /api/v1/session.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.Sessions.List()
	views := make([]map[string]any, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView(s))
	}
	writeJSON(w, http.StatusOK, views)
}

// PostMessage handles POST /api/v1/session/{sessionID}/message. It runs
// the conversation loop for one user turn and returns the final reply.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "content is required"})
		return
	}

	reply, err := h.Sessions.RunTurn(r.Context(), sessionID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	s, err := h.Sessions.Get(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Reply: reply, State: s.State()})
}

// SetMode handles POST /api/v1/session/{sessionID}/mode. Mode changes are
// audit-logged with the requested and resulting values.
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	var req ModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}

	s, err := h.Sessions.Get(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	before := s.Mode()
	mode, err := s.SetMode(domain.Mode(req.Mode))
	h.recordModeAudit(r, sessionID, string(before), req.Mode, err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mode": string(mode)})
}

// ListAudit handles GET /api/v1/session/{sessionID}/audit.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	records, err := h.AuditRepo.ListBySession(r.Context(), h.DB, r.PathValue("sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// ListInvocations handles GET /api/v1/session/{sessionID}/invocations.
func (h *Handler) ListInvocations(w http.ResponseWriter, r *http.Request) {
	invs, err := h.InvocationRepo.ListBySession(r.Context(), h.DB, r.PathValue("sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if invs == nil {
		invs = []domain.Invocation{}
	}
	writeJSON(w, http.StatusOK, invs)
}

// GetUsage handles GET /api/v1/session/{sessionID}/usage.
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	in, out, err := h.UsageRepo.SumBySession(r.Context(), h.DB, r.PathValue("sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UsageSummary{InputTokens: in, OutputTokens: out})
}

// ListProcs handles GET /api/v1/session/{sessionID}/procs.
func (h *Handler) ListProcs(w http.ResponseWriter, r *http.Request) {
	procs, err := h.ProcRepo.ListBySession(r.Context(), h.DB, r.PathValue("sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if procs == nil {
		procs = []domain.ProcRecord{}
	}
	writeJSON(w, http.StatusOK, procs)
}

func (h *Handler) recordModeAudit(r *http.Request, sessionID, before, requested string, transitionErr error) {
	if h.AuditRepo == nil || h.DB == nil {
		return
	}
	decision := map[string]string{"result": "applied"}
	severity := "info"
	if transitionErr != nil {
		decision = map[string]string{"result": "rejected", "error": transitionErr.Error()}
		severity = "warn"
	}
	_ = h.AuditRepo.Record(r.Context(), h.DB, domain.AuditRecord{
		ID:           fmt.Sprintf("aud-mode-%s", uuid.NewString()),
		SessionID:    sessionID,
		Category:     "mode",
		Actor:        "client",
		Action:       "set_mode",
		RequestJSON:  mustJSON(map[string]string{"from": before, "requested": requested}),
		DecisionJSON: mustJSON(decision),
		Severity:     severity,
		CreatedAt:    time.Now().Unix(),
	})
}

func sessionView(s domain.Session) map[string]any {
	return map[string]any{
		"session_id":     s.ID,
		"mode":           s.Mode,
		"state":          s.State,
		"max_iterations": s.MaxIterations,
		"created_at":     s.CreatedAtUnix,
		"updated_at":     s.UpdatedAtUnix,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if rtErr, ok := err.(*domain.RuntimeError); ok {
		status := http.StatusInternalServerError
		switch rtErr.Code {
		case domain.ErrSessionNotFound.Code, domain.ErrProcNotFound.Code:
			status = http.StatusNotFound
		case domain.ErrDuplicateSession.Code, domain.ErrSessionNotActive.Code:
			status = http.StatusConflict
		case domain.ErrPermissionDenied.Code:
			status = http.StatusForbidden
		case domain.ErrInvalidMode.Code, domain.ErrMaxIterationsExceeded.Code:
			status = http.StatusUnprocessableEntity
		case domain.ErrModelUnavailable.Code:
			status = http.StatusBadGateway
		}
		writeJSON(w, status, APIError{Code: rtErr.Code, Message: rtErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, APIError{Code: -1, Message: err.Error()})
}

// mustJSON marshals v to a JSON string, returning "{}" on error.
func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
