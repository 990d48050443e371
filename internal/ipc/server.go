package ipc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Server wraps an HTTP server with runtime-specific routing.
type Server struct {
	httpServer *http.Server
}

// NewServer creates a Server that binds to the given address.
func NewServer(h *Handler, listenAddr string) *Server {
	mux := http.NewServeMux()

	// Health endpoint.
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Session lifecycle.
	mux.HandleFunc("POST /api/v1/session", h.CreateSession)
	mux.HandleFunc("GET /api/v1/session", h.ListSessions)
	mux.HandleFunc("GET /api/v1/session/{sessionID}", h.GetSession)

	// Conversation and mode.
	mux.HandleFunc("POST /api/v1/session/{sessionID}/message", h.PostMessage)
	mux.HandleFunc("POST /api/v1/session/{sessionID}/mode", h.SetMode)

	// Observability.
	mux.HandleFunc("GET /api/v1/session/{sessionID}/audit", h.ListAudit)
	mux.HandleFunc("GET /api/v1/session/{sessionID}/invocations", h.ListInvocations)
	mux.HandleFunc("GET /api/v1/session/{sessionID}/usage", h.GetUsage)
	mux.HandleFunc("GET /api/v1/session/{sessionID}/procs", h.ListProcs)

	srv := &http.Server{
		Addr:    listenAddr,
		Handler: corsMiddleware(mux),
	}

	return &Server{
		httpServer: srv,
	}
}

// Start begins listening for HTTP connections. Blocks until the server stops.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// FormatListenURL renders a listen address as a browsable URL.
func FormatListenURL(listenAddr string) string {
	host := listenAddr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return fmt.Sprintf("http://%s", host)
}

// corsMiddleware adds CORS headers for local client access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
