package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/parley-dev/parley/internal/interview"
)

// fakeTime provides a controllable clock for deterministic tests.
type fakeTime struct {
	mu      sync.Mutex
	current time.Time
}

func newFakeTime() *fakeTime {
	return &fakeTime{current: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
}

func (f *fakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeTime) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}

func newTestStore() (*Store, *fakeTime) {
	ft := newFakeTime()
	s := NewStore()
	s.now = ft.Now
	return s, ft
}

func TestStore_CreateAndGet(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore()

	sess, err := s.Create(Profile{JobRole: "Backend Engineer"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sess.ID == "" {
		t.Fatal("Create() returned empty ID")
	}
	if sess.Status != StatusActive {
		t.Errorf("Status = %q, want %q", sess.Status, StatusActive)
	}

	got, err := s.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Profile.JobRole != "Backend Engineer" {
		t.Errorf("JobRole = %q", got.Profile.JobRole)
	}
}

func TestStore_GetUnknown(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore()
	if _, err := s.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(unknown) error = %v, want %v", err, ErrNotFound)
	}
}

func TestStore_CloneIsolation(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore()
	sess, err := s.Create(Profile{JobRole: "Analyst"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Mutating a returned copy must not leak into the store.
	got, _ := s.Get(sess.ID)
	got.History = append(got.History, interview.ConversationTurn{Question: "rogue"})
	got.Status = StatusDisqualified

	fresh, _ := s.Get(sess.ID)
	if len(fresh.History) != 0 {
		t.Errorf("History = %+v, want empty", fresh.History)
	}
	if fresh.Status != StatusActive {
		t.Errorf("Status = %q, want %q", fresh.Status, StatusActive)
	}
}

func TestStore_MaxSessions(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore()
	s.SetMaxSessions(2)

	for range 2 {
		if _, err := s.Create(Profile{JobRole: "x"}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if _, err := s.Create(Profile{JobRole: "x"}); !errors.Is(err, ErrLimit) {
		t.Fatalf("Create() over limit error = %v, want %v", err, ErrLimit)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestStore_Prune(t *testing.T) {
	t.Parallel()

	s, ft := newTestStore()
	old, _ := s.Create(Profile{JobRole: "x"})

	ft.Advance(2 * time.Hour)
	fresh, _ := s.Create(Profile{JobRole: "y"})

	if got := s.Prune(time.Hour); got != 1 {
		t.Fatalf("Prune() = %d, want 1", got)
	}
	if _, err := s.Get(old.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("idle session survived pruning")
	}
	if _, err := s.Get(fresh.ID); err != nil {
		t.Errorf("fresh session pruned: %v", err)
	}
}

func TestStore_CommitAppendsTurnAndPending(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore()
	sess, _ := s.Create(Profile{JobRole: "x"})

	opening := &interview.Output{
		NextQuestion:     "Ready?",
		NextQuestionType: interview.QuestionGreeting,
	}
	if err := s.commit(sess.ID, nil, opening); err != nil {
		t.Fatalf("commit(opening) error = %v", err)
	}

	got, _ := s.Get(sess.ID)
	if got.Pending == nil || got.Pending.Text != "Ready?" {
		t.Fatalf("Pending = %+v, want greeting", got.Pending)
	}
	if len(got.History) != 0 {
		t.Fatalf("History = %+v, want empty after opening", got.History)
	}

	next := &interview.Output{
		Turn:             &interview.ConversationTurn{Question: "Ready?", Answer: "yes", QuestionType: interview.QuestionGreeting},
		NextQuestion:     "Focus area?",
		NextQuestionType: interview.QuestionAreaSelection,
	}
	if err := s.commit(sess.ID, got.Pending, next); err != nil {
		t.Fatalf("commit(next) error = %v", err)
	}

	got, _ = s.Get(sess.ID)
	if len(got.History) != 1 || got.History[0].Answer != "yes" {
		t.Errorf("History = %+v, want the greeting turn", got.History)
	}
	if got.Pending == nil || got.Pending.Type != interview.QuestionAreaSelection {
		t.Errorf("Pending = %+v, want area selection", got.Pending)
	}
}

func TestStore_CommitStaleResultDropped(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore()
	sess, _ := s.Create(Profile{JobRole: "x"})

	pending := &interview.PendingQuestion{Text: "Q1", Type: interview.QuestionGeneral}
	first := &interview.Output{
		Turn:             &interview.ConversationTurn{Question: "Q1", Answer: "a"},
		NextQuestion:     "Q2",
		NextQuestionType: interview.QuestionGeneral,
	}
	if err := s.commit(sess.ID, nil, &interview.Output{NextQuestion: "Q1", NextQuestionType: interview.QuestionGeneral}); err != nil {
		t.Fatalf("seed pending: %v", err)
	}
	if err := s.commit(sess.ID, pending, first); err != nil {
		t.Fatalf("commit(first) error = %v", err)
	}

	// A second result for the already-completed Q1 must be ignored.
	stale := &interview.Output{
		Turn:             &interview.ConversationTurn{Question: "Q1", Answer: "late duplicate"},
		NextQuestion:     "Q2-duplicate",
		NextQuestionType: interview.QuestionGeneral,
	}
	if err := s.commit(sess.ID, pending, stale); err != nil {
		t.Fatalf("commit(stale) error = %v", err)
	}

	got, _ := s.Get(sess.ID)
	if len(got.History) != 1 {
		t.Fatalf("History length = %d, want 1 (stale result dropped)", len(got.History))
	}
	if got.Pending == nil || got.Pending.Text != "Q2" {
		t.Errorf("Pending = %+v, want Q2 kept", got.Pending)
	}
}

func TestStore_CommitAfterDelete(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore()
	sess, _ := s.Create(Profile{JobRole: "x"})

	pending := &interview.PendingQuestion{Text: "Q1", Type: interview.QuestionGeneral}
	if err := s.commit(sess.ID, nil, &interview.Output{NextQuestion: "Q1", NextQuestionType: interview.QuestionGeneral}); err != nil {
		t.Fatalf("seed pending: %v", err)
	}
	s.Delete(sess.ID)

	late := &interview.Output{
		Turn:         &interview.ConversationTurn{Question: "Q1", Answer: "a"},
		NextQuestion: "Q2",
	}
	if err := s.commit(sess.ID, pending, late); !errors.Is(err, ErrNotFound) {
		t.Fatalf("commit after delete error = %v, want %v", err, ErrNotFound)
	}
}

func TestStore_CommitTerminalIsFinal(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore()
	sess, _ := s.Create(Profile{JobRole: "x"})

	pending := &interview.PendingQuestion{Text: "Q1", Type: interview.QuestionGeneral}
	if err := s.commit(sess.ID, nil, &interview.Output{NextQuestion: "Q1", NextQuestionType: interview.QuestionGeneral}); err != nil {
		t.Fatalf("seed pending: %v", err)
	}

	end := &interview.Output{
		Turn:            &interview.ConversationTurn{Question: "Q1", Answer: "stop"},
		NextQuestion:    "Goodbye.",
		IsInterviewOver: true,
		IsDisqualified:  true,
	}
	if err := s.commit(sess.ID, pending, end); err != nil {
		t.Fatalf("commit(end) error = %v", err)
	}

	got, _ := s.Get(sess.ID)
	if got.Status != StatusDisqualified {
		t.Fatalf("Status = %q, want %q", got.Status, StatusDisqualified)
	}
	if got.Pending != nil {
		t.Errorf("Pending = %+v, want nil after termination", got.Pending)
	}

	if err := s.commit(sess.ID, nil, &interview.Output{NextQuestion: "zombie"}); !errors.Is(err, ErrFinished) {
		t.Fatalf("commit after termination error = %v, want %v", err, ErrFinished)
	}
}

func TestStore_RangeAndDelete(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore()
	a, _ := s.Create(Profile{JobRole: "a"})
	if _, err := s.Create(Profile{JobRole: "b"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	seen := 0
	s.Range(func(*Session) bool {
		seen++
		return true
	})
	if seen != 2 {
		t.Errorf("Range visited %d sessions, want 2", seen)
	}

	s.Delete(a.ID)
	if s.Len() != 1 {
		t.Errorf("Len() after delete = %d, want 1", s.Len())
	}
}
