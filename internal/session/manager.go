package session

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/parley-dev/parley/internal/interview"
)

// nopHandler is a slog.Handler that discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (nopHandler) Handle(context.Context, slog.Record) error { return nil }

func (nopHandler) WithAttrs([]slog.Attr) slog.Handler { return nopHandler{} }

func (nopHandler) WithGroup(string) slog.Handler { return nopHandler{} }

// Controller is the slice of the interview controller the manager needs.
type Controller interface {
	Advance(ctx context.Context, in interview.Input) (*interview.Output, error)
}

var _ Controller = (*interview.Controller)(nil)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Manager runs interview turns against stored sessions. It snapshots the
// session before calling the controller so the store is never locked
// across a generation call, and commits the result only if the session
// has not moved on meanwhile.
type Manager struct {
	store      *Store
	controller Controller
	logger     *slog.Logger
}

// NewManager couples a store with a controller.
func NewManager(store *Store, controller Controller, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:      store,
		controller: controller,
		logger:     slog.New(nopHandler{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start creates a session and resolves the interviewer's opening move.
func (m *Manager) Start(ctx context.Context, profile Profile) (*Session, *interview.Output, error) {
	ctx, span := otel.Tracer("parley.session").Start(ctx, "session.start",
		trace.WithAttributes(attribute.String("interview.job_role", profile.JobRole)))
	defer span.End()

	sess, err := m.store.Create(profile)
	if err != nil {
		return nil, nil, err
	}

	out, err := m.controller.Advance(ctx, inputFor(sess, ""))
	if err != nil {
		// An unopened session is useless; drop it so the caller can
		// simply start again.
		m.store.Delete(sess.ID)
		return nil, nil, err
	}

	if err := m.store.commit(sess.ID, nil, out); err != nil {
		return nil, nil, err
	}
	m.logger.Info("session started", "session_id", sess.ID, "job_role", profile.JobRole, "email_mode", profile.EmailMode)

	sess, err = m.store.Get(sess.ID)
	if err != nil {
		return nil, nil, err
	}
	return sess, out, nil
}

// Advance processes one candidate utterance for the session. Generation
// failures leave the session unchanged; the same utterance can be
// re-submitted.
func (m *Manager) Advance(ctx context.Context, id, transcript string) (*Session, *interview.Output, error) {
	ctx, span := otel.Tracer("parley.session").Start(ctx, "session.turn",
		trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	sess, err := m.store.Get(id)
	if err != nil {
		return nil, nil, err
	}
	if sess.Status.terminal() {
		return nil, nil, ErrFinished
	}

	out, err := m.controller.Advance(ctx, inputFor(sess, transcript))
	if err != nil {
		m.logger.Warn("turn failed", "session_id", id, "error", err)
		return nil, nil, err
	}

	if err := m.store.commit(id, sess.Pending, out); err != nil {
		return nil, nil, err
	}
	if out.IsInterviewOver {
		m.logger.Info("session finished", "session_id", id, "disqualified", out.IsDisqualified, "turns", len(sess.History)+1)
	}

	sess, err = m.store.Get(id)
	if err != nil {
		return nil, nil, err
	}
	return sess, out, nil
}

// inputFor builds the controller input from a session snapshot.
func inputFor(sess *Session, transcript string) interview.Input {
	return interview.Input{
		JobRole:       sess.Profile.JobRole,
		Company:       sess.Profile.Company,
		College:       sess.Profile.College,
		ResumeText:    sess.Profile.ResumeText,
		Language:      sess.Profile.Language,
		History:       sess.History,
		Pending:       sess.Pending,
		Transcript:    transcript,
		MinQuestions:  sess.Profile.MinQuestions,
		ExamID:        sess.Profile.ExamID,
		SubcategoryID: sess.Profile.SubcategoryID,
		HasResume:     sess.Profile.HasResume,
		EmailMode:     sess.Profile.EmailMode,
	}
}
