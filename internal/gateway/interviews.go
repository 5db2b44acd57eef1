package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parley-dev/parley/internal/interview"
	"github.com/parley-dev/parley/internal/session"
)

// createRequest is the body of POST /v1/interviews.
type createRequest struct {
	JobRole       string `json:"job_role"`
	Company       string `json:"company"`
	College       string `json:"college"`
	ResumeText    string `json:"resume_text"`
	Language      string `json:"language"`
	ExamID        string `json:"exam_id"`
	SubcategoryID string `json:"subcategory_id"`
	MinQuestions  int    `json:"min_questions"`
	HasResume     bool   `json:"has_resume"`
	EmailMode     bool   `json:"email_mode"`
}

// turnRequest is the body of POST /v1/interviews/{id}/turns.
type turnRequest struct {
	Transcript string `json:"transcript"`
}

// TurnResponse is the JSON view of one interviewer decision: the
// evaluation of the candidate's last answer and the next thing the
// interviewer says.
type TurnResponse struct {
	SessionID        string              `json:"session_id"`
	Status           string              `json:"status"`
	Feedback         string              `json:"feedback,omitempty"`
	Score            int                 `json:"score"`
	IsCorrectAnswer  bool                `json:"is_correct_answer"`
	NextQuestion     string              `json:"next_question,omitempty"`
	NextQuestionType string              `json:"next_question_type,omitempty"`
	State            string              `json:"state"`
	Turns            int                 `json:"turns"`
	RealQuestions    int                 `json:"real_question_count"`
	IsInterviewOver  bool                `json:"is_interview_over"`
	IsDisqualified   bool                `json:"is_disqualified,omitempty"`
	IsHRInterview    bool                `json:"is_hr_interview,omitempty"`
	HRScores         *interview.HRScores `json:"hr_scores,omitempty"`
	ReferenceIDs     []string            `json:"reference_question_ids,omitempty"`
}

// newTurnResponse builds the wire view from a session snapshot and the
// controller output that produced it.
func newTurnResponse(sess *session.Session, out *interview.Output) TurnResponse {
	return TurnResponse{
		SessionID:        sess.ID,
		Status:           string(sess.Status),
		Feedback:         out.Feedback,
		Score:            out.Score,
		IsCorrectAnswer:  out.IsCorrectAnswer,
		NextQuestion:     out.NextQuestion,
		NextQuestionType: string(out.NextQuestionType),
		State:            string(out.State),
		Turns:            len(sess.History),
		RealQuestions:    out.RealQuestionCount,
		IsInterviewOver:  out.IsInterviewOver,
		IsDisqualified:   out.IsDisqualified,
		IsHRInterview:    out.IsHRInterview,
		HRScores:         out.HRScores,
		ReferenceIDs:     out.ReferenceQuestionIDs,
	}
}

// handleCreateInterview starts a session and returns the interviewer's
// opening move.
func (g *Gateway) handleCreateInterview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.JobRole) == "" {
			http.Error(w, "job_role is required", http.StatusBadRequest)
			return
		}

		profile := session.Profile{
			JobRole:       strings.TrimSpace(req.JobRole),
			Company:       req.Company,
			College:       req.College,
			ResumeText:    req.ResumeText,
			Language:      req.Language,
			ExamID:        req.ExamID,
			SubcategoryID: req.SubcategoryID,
			MinQuestions:  req.MinQuestions,
			HasResume:     req.HasResume || strings.TrimSpace(req.ResumeText) != "",
			EmailMode:     req.EmailMode,
		}

		sess, out, err := g.manager.Start(r.Context(), profile)
		if err != nil {
			if errors.Is(err, session.ErrLimit) {
				http.Error(w, "session limit reached", http.StatusTooManyRequests)
				return
			}
			g.logger.Error("interview start failed", "job_role", profile.JobRole, "error", err)
			http.Error(w, "failed to start interview", http.StatusBadGateway)
			return
		}
		g.metrics.recordSessionStart()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(newTurnResponse(sess, out))
	}
}

// handleTurn processes one candidate utterance.
func (g *Gateway) handleTurn() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req turnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		// A client disconnect must not abandon the turn mid-generation;
		// the committed result stays recoverable via GET.
		ctx := context.WithoutCancel(r.Context())

		start := time.Now()
		sess, out, err := g.manager.Advance(ctx, id, req.Transcript)
		g.metrics.recordTurn(err, time.Since(start))
		if err != nil {
			g.writeTurnError(w, id, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newTurnResponse(sess, out))
	}
}

// writeTurnError maps session and generation errors to HTTP statuses.
func (g *Gateway) writeTurnError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		http.Error(w, "interview not found", http.StatusNotFound)
	case errors.Is(err, session.ErrFinished):
		http.Error(w, "interview already concluded", http.StatusConflict)
	default:
		g.logger.Error("turn failed", "session_id", id, "error", err)
		http.Error(w, "turn generation failed", http.StatusBadGateway)
	}
}

// interviewJSON is the full session view returned by GET.
type interviewJSON struct {
	ID           string                       `json:"id"`
	Status       string                       `json:"status"`
	Profile      session.Profile              `json:"profile"`
	History      []interview.ConversationTurn `json:"history"`
	Pending      *interview.PendingQuestion   `json:"pending,omitempty"`
	CreatedAt    string                       `json:"created_at"`
	LastActiveAt string                       `json:"last_active_at"`
}

// handleGetInterview returns the session snapshot including history.
func (g *Gateway) handleGetInterview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		sess, err := g.sessions.Get(id)
		if err != nil {
			http.Error(w, "interview not found", http.StatusNotFound)
			return
		}

		resp := interviewJSON{
			ID:           sess.ID,
			Status:       string(sess.Status),
			Profile:      sess.Profile,
			History:      sess.History,
			Pending:      sess.Pending,
			CreatedAt:    sess.CreatedAt.Format("2006-01-02T15:04:05Z"),
			LastActiveAt: sess.LastActiveAt.Format("2006-01-02T15:04:05Z"),
		}
		if resp.History == nil {
			resp.History = []interview.ConversationTurn{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// handleAbandonInterview drops a session without a graceful close.
func (g *Gateway) handleAbandonInterview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if _, err := g.sessions.Get(id); err != nil {
			http.Error(w, "interview not found", http.StatusNotFound)
			return
		}

		g.sessions.Delete(id)
		g.logger.Info("interview abandoned", "session_id", id)

		w.WriteHeader(http.StatusNoContent)
	}
}
