// Package session tracks interview sessions between controller calls:
// the profile captured at start, the completed history, the question the
// candidate is answering, and the terminal status. The controller itself
// is stateless; this package owns everything that persists across turns.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parley-dev/parley/internal/interview"
)

var (
	// ErrNotFound marks a lookup for an unknown session ID.
	ErrNotFound = errors.New("session: not found")

	// ErrFinished marks an attempt to advance a concluded or
	// disqualified session. Terminal states are irreversible.
	ErrFinished = errors.New("session: interview already finished")

	// ErrLimit marks a Create call once the store holds the configured
	// maximum number of sessions.
	ErrLimit = errors.New("session: session limit reached")
)

// Status is a session's lifecycle position.
type Status string

const (
	StatusActive       Status = "active"
	StatusConcluded    Status = "concluded"
	StatusDisqualified Status = "disqualified"
)

// terminal reports whether a status permits no further turns.
func (s Status) terminal() bool {
	return s == StatusConcluded || s == StatusDisqualified
}

// Profile captures the candidate setup a session is created with. It is
// immutable for the session's lifetime.
type Profile struct {
	JobRole       string `json:"job_role"`
	Company       string `json:"company,omitempty"`
	College       string `json:"college,omitempty"`
	ResumeText    string `json:"resume_text,omitempty"`
	Language      string `json:"language,omitempty"`
	ExamID        string `json:"exam_id,omitempty"`
	SubcategoryID string `json:"subcategory_id,omitempty"`
	MinQuestions  int    `json:"min_questions,omitempty"`
	HasResume     bool   `json:"has_resume,omitempty"`
	EmailMode     bool   `json:"email_mode,omitempty"`
}

// Session is one candidate's interview.
type Session struct {
	ID      string
	Profile Profile
	Status  Status

	// History holds completed turns, append-only. Pending is the
	// question awaiting an answer; nil before the opening call resolves
	// and after the interview ends.
	History []interview.ConversationTurn
	Pending *interview.PendingQuestion

	CreatedAt    time.Time
	LastActiveAt time.Time
}

// Clone returns a deep copy safe to hand outside the store's lock.
func (s *Session) Clone() *Session {
	out := *s
	out.History = make([]interview.ConversationTurn, len(s.History))
	copy(out.History, s.History)
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return &out
}

// Store is a concurrency-safe, in-memory session store. Lookups are O(1)
// through a map under a read-write mutex; the clock is injectable for
// deterministic tests.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	// maxSessions limits concurrent sessions. Zero means unlimited.
	maxSessions int

	now func() time.Time
}

// NewStore creates a ready-to-use store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// SetMaxSessions configures the concurrent-session limit. Zero means
// unlimited.
func (s *Store) SetMaxSessions(limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxSessions = limit
}

// Create registers a new active session for the profile.
func (s *Store) Create(profile Profile) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		return nil, ErrLimit
	}

	now := s.now()
	sess := &Session{
		ID:           uuid.NewString(),
		Profile:      profile,
		Status:       StatusActive,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	s.sessions[sess.ID] = sess
	return sess.Clone(), nil
}

// Get returns a copy of the session.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

// Delete removes the session. Unknown IDs are a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Prune removes sessions idle longer than maxIdle and returns how many
// were dropped. Meant for a periodic background job.
func (s *Store) Prune(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	pruned := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActiveAt) > maxIdle {
			delete(s.sessions, id)
			pruned++
		}
	}
	return pruned
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Range calls fn with a copy of each session until fn returns false.
func (s *Store) Range(fn func(*Session) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sess := range s.sessions {
		if !fn(sess.Clone()) {
			return
		}
	}
}

// commit applies one controller output to the stored session. The output
// is dropped when the session has finished or moved on in the meantime,
// so results that arrive after a turn was abandoned stay idempotent.
func (s *Store) commit(id string, pendingAtCall *interview.PendingQuestion, out *interview.Output) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if sess.Status.terminal() {
		return ErrFinished
	}
	if !samePending(sess.Pending, pendingAtCall) {
		// Another result landed first; this one is stale.
		return nil
	}

	if out.Turn != nil {
		sess.History = append(sess.History, *out.Turn)
	}
	sess.Pending = out.PendingQuestion()
	sess.LastActiveAt = s.now()

	switch {
	case out.IsDisqualified:
		sess.Status = StatusDisqualified
	case out.IsInterviewOver:
		sess.Status = StatusConcluded
	}
	return nil
}

func samePending(a, b *interview.PendingQuestion) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Text == b.Text && a.Type == b.Type
}
