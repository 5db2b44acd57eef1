package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/parley-dev/parley/internal/generator"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime    time.Duration    `json:"uptime_seconds"`
	Version   string           `json:"version,omitempty"`
	Sessions  int              `json:"sessions"`
	Generator *generator.Stats `json:"generator,omitempty"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			Uptime:  time.Since(g.startedAt).Truncate(time.Second),
			Version: g.version,
		}

		if g.sessions != nil {
			resp.Sessions = g.sessions.Len()
		}

		if g.stats != nil {
			stats := g.stats()
			resp.Generator = &stats
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
