package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/alfredjeanlab/secretary/internal/gate"
	"github.com/alfredjeanlab/secretary/internal/model"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/pending", s.handleListPending)
	mux.HandleFunc("POST /v1/pending/{sender}/decide", s.handleDecide)
	mux.HandleFunc("POST /v1/replies", s.handleReply)
	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	mux.HandleFunc("GET /v1/sessions/{sender}", s.handleGetSession)
	mux.HandleFunc("DELETE /v1/sessions/{sender}", s.handleRevokeSession)
	mux.HandleFunc("GET /v1/identities", s.handleListIdentities)
	mux.HandleFunc("GET /v1/identities/{sender}", s.handleGetIdentity)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	return RecoveryMiddleware(s.logger, AuthMiddleware(authToken, mux))
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status":   "ok",
		"pending":  len(s.gate.Pending()),
		"sessions": len(s.gate.Sessions()),
	}
	if s.events != nil {
		resp["stream_clients"] = s.events.hub.clientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListPending handles GET /v1/pending.
func (s *Server) handleListPending(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"pending": s.gate.Pending()})
}

type decideBody struct {
	Decision string `json:"decision"`
}

// handleDecide handles POST /v1/pending/{sender}/decide.
func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	sender := r.PathValue("sender")
	var body decideBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.gate.Decide(r.Context(), sender, model.Decision(strings.ToLower(strings.TrimSpace(body.Decision))))
	switch {
	case errors.Is(err, gate.ErrInvalidDecision):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, gate.ErrNoPending):
		writeError(w, http.StatusNotFound, "no pending request for "+sender)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type replyBody struct {
	Text string `json:"text"`
}

// handleReply handles POST /v1/replies. The text is interpreted exactly as
// if the approver had typed it in chat.
func (s *Server) handleReply(w http.ResponseWriter, r *http.Request) {
	var body replyBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	res, ok := s.gate.HandleApproverReply(r.Context(), body.Text)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"applied": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": true, "resolution": res})
}

// handleListSessions handles GET /v1/sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.gate.Sessions()})
}

// handleGetSession handles GET /v1/sessions/{sender}.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sender := r.PathValue("sender")
	sess, ok := s.gate.Session(sender)
	if !ok {
		writeError(w, http.StatusNotFound, "no session for "+sender)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleRevokeSession handles DELETE /v1/sessions/{sender}.
func (s *Server) handleRevokeSession(w http.ResponseWriter, r *http.Request) {
	sender := r.PathValue("sender")
	if !s.gate.Revoke(r.Context(), sender) {
		writeError(w, http.StatusNotFound, "no session for "+sender)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListIdentities handles GET /v1/identities.
func (s *Server) handleListIdentities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"identities": s.identities.Profiles()})
}

// handleGetIdentity handles GET /v1/identities/{sender}.
func (s *Server) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	sender := r.PathValue("sender")
	p, ok := s.identities.Profile(sender)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown sender "+sender)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return inputError("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return inputError("invalid JSON body: " + err.Error())
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
