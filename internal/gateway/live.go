package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/parley-dev/parley/internal/session"
)

// handleLive upgrades GET /v1/interviews/{id}/live to a WebSocket turn
// stream. The client sends {"transcript": "..."} messages; the server
// answers each with a TurnResponse and closes after the final turn.
func (g *Gateway) handleLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if _, err := g.sessions.Get(id); err != nil {
			http.Error(w, "interview not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			g.logger.Error("websocket accept failed", "session_id", id, "error", err)
			return
		}
		defer func() {
			_ = conn.Close(websocket.StatusInternalError, "unexpected close")
		}()

		g.logger.Info("live stream opened", "session_id", id)
		g.liveLoop(r.Context(), conn, id)
	}
}

// liveLoop reads transcripts until the interview concludes or the client
// goes away.
func (g *Gateway) liveLoop(ctx context.Context, conn *websocket.Conn, id string) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var req turnRequest
		if err := json.Unmarshal(data, &req); err != nil {
			g.logger.Warn("invalid live message", "session_id", id, "error", err)
			g.writeLive(ctx, conn, liveError{Error: "invalid message"})
			continue
		}

		// A dropped stream must not abandon the turn mid-generation; the
		// committed result stays recoverable via GET.
		start := time.Now()
		sess, out, err := g.manager.Advance(context.WithoutCancel(ctx), id, req.Transcript)
		g.metrics.recordTurn(err, time.Since(start))
		if err != nil {
			switch {
			case errors.Is(err, session.ErrNotFound):
				_ = conn.Close(websocket.StatusPolicyViolation, "interview not found")
				return
			case errors.Is(err, session.ErrFinished):
				_ = conn.Close(websocket.StatusNormalClosure, "interview already concluded")
				return
			default:
				g.logger.Error("live turn failed", "session_id", id, "error", err)
				g.writeLive(ctx, conn, liveError{Error: "turn generation failed"})
				continue
			}
		}

		g.writeLive(ctx, conn, newTurnResponse(sess, out))

		if out.IsInterviewOver {
			g.logger.Info("live stream finished", "session_id", id, "disqualified", out.IsDisqualified)
			_ = conn.Close(websocket.StatusNormalClosure, "interview concluded")
			return
		}
	}
}

// liveError is the envelope written to the stream for recoverable
// failures; the stream stays open and the client may resend.
type liveError struct {
	Error string `json:"error"`
}

// writeLive marshals v onto the stream as a text message.
func (g *Gateway) writeLive(ctx context.Context, conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		g.logger.Warn("live write failed", "error", err)
	}
}
