package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/parley-dev/parley/internal/corpus"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "corpus.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func seedQuestions(t *testing.T, s *Store, qs ...corpus.Question) {
	t.Helper()
	for _, q := range qs {
		if err := s.Insert(context.Background(), q); err != nil {
			t.Fatalf("insert %s: %v", q.ID, err)
		}
	}
}

func TestByKeyword(t *testing.T) {
	s := newTestStore(t)
	seedQuestions(t, s,
		corpus.Question{ID: "q1", Category: "technical", Text: "Explain how a hash table handles collisions."},
		corpus.Question{ID: "q2", Category: "technical", Text: "What is a goroutine and how is it scheduled?"},
		corpus.Question{ID: "q3", Category: "hr", Text: "Tell me about a conflict you resolved at work."},
		corpus.Question{ID: "q4", Category: "technical", Text: "Describe how garbage collection works."},
	)

	got, err := s.ByKeyword(context.Background(), []string{"goroutine", "collection"}, 3, corpus.Filter{})
	if err != nil {
		t.Fatalf("ByKeyword: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d questions, want 2", len(got))
	}
	// Corpus order, not relevance order.
	if got[0].ID != "q2" || got[1].ID != "q4" {
		t.Errorf("ids = %s, %s, want q2, q4", got[0].ID, got[1].ID)
	}
}

func TestByKeyword_Limit(t *testing.T) {
	s := newTestStore(t)
	for i := range 10 {
		seedQuestions(t, s, corpus.Question{
			ID:   fmt.Sprintf("q%d", i),
			Text: fmt.Sprintf("Question number %d about databases.", i),
		})
	}

	got, err := s.ByKeyword(context.Background(), []string{"databases"}, 3, corpus.Filter{})
	if err != nil {
		t.Fatalf("ByKeyword: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d questions, want 3", len(got))
	}
}

func TestByKeyword_ExamFilter(t *testing.T) {
	s := newTestStore(t)
	seedQuestions(t, s,
		corpus.Question{ID: "q1", ExamID: "exam-a", Text: "Banking sector reform question."},
		corpus.Question{ID: "q2", ExamID: "exam-b", Text: "Banking regulation question."},
	)

	got, err := s.ByKeyword(context.Background(), []string{"banking"}, 5, corpus.Filter{ExamID: "exam-a"})
	if err != nil {
		t.Fatalf("ByKeyword: %v", err)
	}
	if len(got) != 1 || got[0].ID != "q1" {
		t.Errorf("got %v, want only q1", got)
	}
}

func TestByKeyword_QuotedInput(t *testing.T) {
	s := newTestStore(t)
	seedQuestions(t, s, corpus.Question{ID: "q1", Text: "Plain question."})

	// FTS5 syntax in keywords must not break the query.
	if _, err := s.ByKeyword(context.Background(), []string{`"NEAR(`, `a AND b`}, 3, corpus.Filter{}); err != nil {
		t.Fatalf("ByKeyword with hostile input: %v", err)
	}
}

func TestByCategoryDiverse(t *testing.T) {
	s := newTestStore(t)
	seedQuestions(t, s,
		corpus.Question{ID: "t1", Category: "technical", Text: "T1"},
		corpus.Question{ID: "t2", Category: "technical", Text: "T2"},
		corpus.Question{ID: "t3", Category: "technical", Text: "T3"},
		corpus.Question{ID: "h1", Category: "hr", Text: "H1"},
		corpus.Question{ID: "h2", Category: "hr", Text: "H2"},
		corpus.Question{ID: "a1", Category: "aptitude", Text: "A1"},
	)

	got, err := s.ByCategoryDiverse(context.Background(), []string{"technical", "hr", "aptitude"}, 2, corpus.Filter{})
	if err != nil {
		t.Fatalf("ByCategoryDiverse: %v", err)
	}

	want := []string{"t1", "t2", "h1", "h2", "a1"}
	if len(got) != len(want) {
		t.Fatalf("got %d questions, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestCurated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertCurated(ctx, "IIM", "commerce", corpus.Question{ID: "c1", Text: "Why IIM for a commerce graduate?"}); err != nil {
		t.Fatalf("insert curated: %v", err)
	}
	if err := s.InsertCurated(ctx, "IIM", "", corpus.Question{ID: "c2", Text: "Why an MBA now?"}); err != nil {
		t.Fatalf("insert curated: %v", err)
	}
	if err := s.InsertCurated(ctx, "IIM", "science", corpus.Question{ID: "c3", Text: "Science to management, why?"}); err != nil {
		t.Fatalf("insert curated: %v", err)
	}

	got, err := s.Curated(ctx, "iim", "Commerce")
	if err != nil {
		t.Fatalf("Curated: %v", err)
	}
	// Background-specific plus background-agnostic rows, not the science one.
	if len(got) != 2 {
		t.Fatalf("got %d questions, want 2", len(got))
	}
	if got[0].ID != "c1" || got[1].ID != "c2" {
		t.Errorf("ids = %s, %s, want c1, c2", got[0].ID, got[1].ID)
	}
}

func TestCurated_UnknownInstitution(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Curated(context.Background(), "nowhere", "any")
	if err != nil {
		t.Fatalf("Curated: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d questions, want 0", len(got))
	}
}

func TestRandom(t *testing.T) {
	s := newTestStore(t)
	for i := range 10 {
		seedQuestions(t, s, corpus.Question{ID: fmt.Sprintf("q%d", i), Text: fmt.Sprintf("Q%d", i)})
	}

	got, err := s.Random(context.Background(), 3)
	if err != nil {
		t.Fatalf("Random: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d questions, want 3", len(got))
	}

	seen := map[string]bool{}
	for _, q := range got {
		if seen[q.ID] {
			t.Errorf("duplicate id %s in random sample", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestAll_InsertionOrder(t *testing.T) {
	s := newTestStore(t)
	seedQuestions(t, s,
		corpus.Question{ID: "first", Text: "1"},
		corpus.Question{ID: "second", Text: "2"},
		corpus.Question{ID: "third", Text: "3"},
	)

	got, err := s.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("got %d questions, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestInsert_Replace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedQuestions(t, s, corpus.Question{ID: "q1", Category: "old", Text: "Old text"})
	seedQuestions(t, s, corpus.Question{ID: "q1", Category: "new", Text: "New text"})

	got, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d questions, want 1", len(got))
	}
	if got[0].Category != "new" || got[0].Text != "New text" {
		t.Errorf("got %+v, want replaced row", got[0])
	}

	// FTS index must follow the replacement.
	hits, err := s.ByKeyword(ctx, []string{"new"}, 5, corpus.Filter{})
	if err != nil {
		t.Fatalf("ByKeyword: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("FTS hits = %d, want 1", len(hits))
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	seedQuestions(t, s,
		corpus.Question{ID: "q1", Category: "hr", Text: "Q"},
		corpus.Question{ID: "q2", Category: "hr", Text: "Q"},
		corpus.Question{ID: "q3", Category: "technical", Text: "Q"},
	)

	counts, total, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(counts) != 2 {
		t.Fatalf("categories = %d, want 2", len(counts))
	}
	if counts[0].Category != "hr" || counts[0].Count != 2 {
		t.Errorf("counts[0] = %+v, want hr:2", counts[0])
	}
	if counts[1].Category != "technical" || counts[1].Count != 1 {
		t.Errorf("counts[1] = %+v, want technical:1", counts[1])
	}
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := migrate(s.db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if err := migrate(s.db); err != nil {
		t.Fatalf("third migrate: %v", err)
	}
}
