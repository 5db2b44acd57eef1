package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/parley-dev/parley/internal/session"
)

// sessionJSON is a serializable session snapshot for the admin API.
type sessionJSON struct {
	ID           string `json:"id"`
	JobRole      string `json:"job_role"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	LastActiveAt string `json:"last_active_at"`
	HistoryLen   int    `json:"history_len"`
	Pending      string `json:"pending,omitempty"`
}

// handleListSessions returns all live sessions as JSON.
func (g *Gateway) handleListSessions() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var sessions []sessionJSON

		g.sessions.Range(func(sess *session.Session) bool {
			entry := sessionJSON{
				ID:           sess.ID,
				JobRole:      sess.Profile.JobRole,
				Status:       string(sess.Status),
				CreatedAt:    sess.CreatedAt.Format("2006-01-02T15:04:05Z"),
				LastActiveAt: sess.LastActiveAt.Format("2006-01-02T15:04:05Z"),
				HistoryLen:   len(sess.History),
			}
			if sess.Pending != nil {
				entry.Pending = sess.Pending.Text
			}
			sessions = append(sessions, entry)
			return true
		})

		if sessions == nil {
			sessions = []sessionJSON{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sessions)
	}
}

// handleDeleteSession deletes a session by its ID.
func (g *Gateway) handleDeleteSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}

		if _, err := g.sessions.Get(id); err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		g.sessions.Delete(id)
		g.logger.Info("session deleted by admin", "session_id", id)

		w.WriteHeader(http.StatusNoContent)
	}
}
