// Package httpmcp implements the Streamable HTTP transport (spec.md §4.7):
// a single /mcp endpoint routed with go-chi/chi, session allocation via the
// Mcp-Session-Id header, permissive CORS by default, and batch JSON-RPC
// support. Grounded on the teacher's internal/mcp/http.go request-handling
// shape, rerouted through chi (stacklok-toolhive's router pattern) in place
// of a bare http.ServeMux.
package httpmcp

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/mcpforge/mcpforge/kernel"
)

const maxBodyBytes = 10 * 1024 * 1024

// Server wraps a kernel.Dispatcher with the Streamable HTTP transport.
type Server struct {
	Dispatch *kernel.Dispatcher
	Sessions *kernel.SessionManager
	CORSOrigins []string // empty or containing "*" means allow any origin
	logger   *slog.Logger
}

// New builds an httpmcp.Server. CORSOrigins of nil or containing "*" allows
// every origin (spec.md §4.7's "permissive CORS by default").
func New(dispatch *kernel.Dispatcher, sessions *kernel.SessionManager, corsOrigins []string, logger *slog.Logger) *Server {
	return &Server{Dispatch: dispatch, Sessions: sessions, CORSOrigins: corsOrigins, logger: logger}
}

// Router returns the chi router exposing POST/GET/DELETE /mcp and a health
// probe, with permissive CORS applied to every response.
func (s *Server) Router() http.Handler {
	origins := s.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Accept", "Mcp-Session-Id"},
		ExposedHeaders:   []string{"Mcp-Session-Id"},
		AllowCredentials: false,
	}))
	r.Get("/healthz", s.handleHealth)
	r.Post("/mcp", s.handlePost)
	r.Get("/mcp", s.handleGet)
	r.Delete("/mcp", s.handleDelete)
	r.Options("/mcp", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, `{"error":"failed to read request body"}`, http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(body) == 0 {
		http.Error(w, `{"error":"empty request body"}`, http.StatusBadRequest)
		return
	}

	trimmed := strings.TrimSpace(string(body))
	sessionID := s.sessionIDFor(r)

	if strings.HasPrefix(trimmed, "[") {
		s.handleBatch(w, r, sessionID, body)
		return
	}
	s.handleSingle(w, r, sessionID, body)
}

func (s *Server) sessionIDFor(r *http.Request) string {
	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		sessionID = s.Sessions.Create().ID
	}
	return sessionID
}

func (s *Server) handleSingle(w http.ResponseWriter, r *http.Request, sessionID string, body []byte) {
	var peek struct {
		ID json.RawMessage `json:"id,omitempty"`
	}
	if err := json.Unmarshal(body, &peek); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, kernel.ErrCodeParse, "Parse error")
		return
	}

	resp := s.Dispatch.Handle(r.Context(), sessionID, body)
	if resp == nil {
		w.Header().Set("Mcp-Session-Id", sessionID)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Mcp-Session-Id", sessionID)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request, sessionID string, body []byte) {
	var messages []json.RawMessage
	if err := json.Unmarshal(body, &messages); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, kernel.ErrCodeParse, "Parse error")
		return
	}
	if len(messages) == 0 {
		s.writeJSONError(w, http.StatusBadRequest, kernel.ErrCodeInvalidRequest, "Empty batch")
		return
	}

	var responses []*kernel.Response
	for _, msg := range messages {
		resp := s.Dispatch.Handle(r.Context(), sessionID, msg)
		if resp != nil {
			responses = append(responses, resp)
		}
	}

	w.Header().Set("Mcp-Session-Id", sessionID)
	if len(responses) == 0 {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	s.writeJSON(w, http.StatusOK, responses)
}

// handleGet is the SSE attachment point for server-initiated messages. No
// current operation originates unsolicited server->client traffic, so this
// returns 405 per the MCP spec's allowance for transports without a stream,
// matching the teacher's handleGet.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	accept := r.Header.Get("Accept")
	if !strings.Contains(accept, "text/event-stream") {
		http.Error(w, `{"error":"Accept header must include text/event-stream"}`, http.StatusBadRequest)
		return
	}
	w.Header().Set("Allow", "POST, DELETE, OPTIONS")
	http.Error(w, `{"error":"SSE stream not supported; use POST for requests"}`, http.StatusMethodNotAllowed)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		http.Error(w, `{"error":"Mcp-Session-Id header required"}`, http.StatusBadRequest)
		return
	}
	if ok := s.Sessions.Delete(sessionID); !ok {
		http.Error(w, `{"error":"session not found"}`, http.StatusNotFound)
		return
	}
	s.logger.Info("session terminated", "session_id", sessionID)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write JSON response", "error", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, httpStatus, code int, message string) {
	resp := &kernel.Response{JSONRPC: "2.0", Error: &kernel.RPCError{Code: code, Message: message}}
	s.writeJSON(w, httpStatus, resp)
}
