package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/soyeahso/standupbot/internal/domain"
	"github.com/soyeahso/standupbot/internal/hooks"
	"github.com/soyeahso/standupbot/internal/version"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Platform      string `json:"platform"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Sessions      int    `json:"sessions"`
	Subscribers   int    `json:"subscribers"`
}

// SessionsResponse is returned by GET /api/sessions.
type SessionsResponse struct {
	Sessions []domain.Session `json:"sessions"`
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/sessions", s.requireToken(s.handleListSessions))
	mux.HandleFunc("DELETE /api/sessions/{id}", s.requireToken(s.handleCancelSession))
	mux.HandleFunc("GET /ws", s.requireToken(s.handleFeed))
	mux.HandleFunc("/", handleNotFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       version.Version,
		Platform:      s.platform,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Sessions:      s.sessions.Len(),
		Subscribers:   s.feed.Count(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	sessions := s.sessions.List()
	if sessions == nil {
		sessions = []domain.Session{}
	}
	writeJSON(w, http.StatusOK, SessionsResponse{Sessions: sessions})
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := s.sessions.Cancel(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found: "+id)
		return
	}

	s.log.Info().
		Str("id", sess.ID).
		Str("conversation", sess.ConversationID).
		Str("author", sess.AuthorHandle).
		Msg("session cancelled")
	s.hooks.EmitAsync(context.WithoutCancel(r.Context()), hooks.EventSessionEnd, hooks.SessionData(sess, hooks.ReasonCancelled))
	writeJSON(w, http.StatusOK, sess)
}

// handleFeed upgrades to a WebSocket and streams hook events until the
// client disconnects. Inbound frames are ignored.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(4096)

	c := s.feed.add(conn)
	defer s.feed.remove(c)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
