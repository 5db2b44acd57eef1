package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status   string `json:"status"` // "ok" or "degraded"
	Sessions int    `json:"sessions"`
	Corpus   string `json:"corpus,omitempty"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 200 when the engine is serving normally, 503 when the
// question corpus is unreachable.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status: "ok",
		}

		if g.sessions != nil {
			resp.Sessions = g.sessions.Len()
		}

		if g.ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := g.ping(ctx); err != nil {
				resp.Status = "degraded"
				resp.Corpus = err.Error()
			} else {
				resp.Corpus = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
