package refselect_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parley-dev/parley/internal/corpus"
	"github.com/parley-dev/parley/internal/qcache"
	"github.com/parley-dev/parley/internal/refselect"
)

// fakeStore is a corpus.Store whose behavior is set per test. Unset
// methods report no results.
type fakeStore struct {
	byKeyword func(ctx context.Context, keywords []string, limit int, f corpus.Filter) ([]corpus.Question, error)
	byDiverse func(ctx context.Context, categories []string, cap int, f corpus.Filter) ([]corpus.Question, error)
	curated   func(ctx context.Context, institution, background string) ([]corpus.Question, error)
	random    func(ctx context.Context, n int) ([]corpus.Question, error)
	all       func(ctx context.Context) ([]corpus.Question, error)
}

func (s *fakeStore) ByKeyword(ctx context.Context, keywords []string, limit int, f corpus.Filter) ([]corpus.Question, error) {
	if s.byKeyword == nil {
		return nil, nil
	}
	return s.byKeyword(ctx, keywords, limit, f)
}

func (s *fakeStore) ByCategoryDiverse(ctx context.Context, categories []string, cap int, f corpus.Filter) ([]corpus.Question, error) {
	if s.byDiverse == nil {
		return nil, nil
	}
	return s.byDiverse(ctx, categories, cap, f)
}

func (s *fakeStore) Curated(ctx context.Context, institution, background string) ([]corpus.Question, error) {
	if s.curated == nil {
		return nil, nil
	}
	return s.curated(ctx, institution, background)
}

func (s *fakeStore) Random(ctx context.Context, n int) ([]corpus.Question, error) {
	if s.random == nil {
		return nil, nil
	}
	return s.random(ctx, n)
}

func (s *fakeStore) All(ctx context.Context) ([]corpus.Question, error) {
	if s.all == nil {
		return nil, nil
	}
	return s.all(ctx)
}

var _ corpus.Store = (*fakeStore)(nil)

// detectorFunc adapts a func to refselect.BackgroundDetector.
type detectorFunc func(ctx context.Context, resumeText string) (string, error)

func (f detectorFunc) DetectBackground(ctx context.Context, resumeText string) (string, error) {
	return f(ctx, resumeText)
}

func fastConfig() refselect.Config {
	return refselect.Config{
		StepTimeout:    100 * time.Millisecond,
		InsightTimeout: 50 * time.Millisecond,
	}
}

func TestSelect_CuratedForAspirantTrack(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		curated: func(_ context.Context, institution, background string) ([]corpus.Question, error) {
			if institution != "IIM" {
				t.Errorf("institution = %q, want IIM", institution)
			}
			if background != "commerce" {
				t.Errorf("background = %q, want commerce", background)
			}
			return []corpus.Question{
				{ID: "c1", Text: "Why IIM?"},
				{ID: "c2", Text: "Why management?"},
			}, nil
		},
	}
	detector := detectorFunc(func(_ context.Context, _ string) (string, error) {
		return "commerce", nil
	})

	sel := refselect.New(store, qcache.New(), fastConfig(), refselect.WithBackgroundDetector(detector))

	res := sel.Select(context.Background(), refselect.Request{
		JobRole:    "MBA aspirant",
		College:    "IIM",
		ResumeText: "B.Com graduate with accounting experience",
	})

	if res.Source != "curated" {
		t.Fatalf("source = %q, want curated", res.Source)
	}
	if len(res.Questions) != 2 || len(res.IDs) != 2 {
		t.Fatalf("got %d questions, %d ids, want 2 and 2", len(res.Questions), len(res.IDs))
	}
	if res.IDs[0] != "c1" || res.IDs[1] != "c2" {
		t.Errorf("ids = %v, want [c1 c2]", res.IDs)
	}
}

func TestSelect_InsightFailureStillQueriesCurated(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		curated: func(_ context.Context, _, background string) ([]corpus.Question, error) {
			if background != "" {
				t.Errorf("background = %q, want empty after detector failure", background)
			}
			return []corpus.Question{{ID: "c1", Text: "Why here?"}}, nil
		},
	}
	detector := detectorFunc(func(_ context.Context, _ string) (string, error) {
		return "", errors.New("insight down")
	})

	sel := refselect.New(store, qcache.New(), fastConfig(), refselect.WithBackgroundDetector(detector))

	res := sel.Select(context.Background(), refselect.Request{
		JobRole:    "aspirant",
		College:    "academy",
		ResumeText: "resume",
	})
	if res.Source != "curated" || len(res.Questions) != 1 {
		t.Fatalf("res = %+v, want 1 curated question", res)
	}
}

func TestSelect_KeywordFallback(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		byKeyword: func(_ context.Context, keywords []string, limit int, f corpus.Filter) ([]corpus.Question, error) {
			if limit != 3 {
				t.Errorf("limit = %d, want 3", limit)
			}
			if f.ExamID != "exam-1" {
				t.Errorf("filter.ExamID = %q, want exam-1", f.ExamID)
			}
			found := false
			for _, k := range keywords {
				if k == "backend" {
					found = true
				}
			}
			if !found {
				t.Errorf("keywords = %v, want to contain %q", keywords, "backend")
			}
			return []corpus.Question{{ID: "k1", Text: "What is an index?"}}, nil
		},
	}

	sel := refselect.New(store, qcache.New(), fastConfig())

	res := sel.Select(context.Background(), refselect.Request{
		JobRole: "Backend Engineer",
		ExamID:  "exam-1",
	})
	if res.Source != "keyword" {
		t.Fatalf("source = %q, want keyword", res.Source)
	}
	if len(res.IDs) != 1 || res.IDs[0] != "k1" {
		t.Errorf("ids = %v, want [k1]", res.IDs)
	}
}

func TestSelect_CategorySpreadAfterKeywordMiss(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		byDiverse: func(_ context.Context, categories []string, cap int, _ corpus.Filter) ([]corpus.Question, error) {
			if cap != 1 {
				t.Errorf("perCategoryCap = %d, want 1", cap)
			}
			return []corpus.Question{
				{ID: "d1", Category: "technical", Text: "T"},
				{ID: "d2", Category: "hr", Text: "H"},
				{ID: "d3", Category: "aptitude", Text: "A"},
				{ID: "d4", Category: "situational", Text: "S"},
			}, nil
		},
	}

	sel := refselect.New(store, qcache.New(), fastConfig())

	res := sel.Select(context.Background(), refselect.Request{JobRole: "engineer"})
	if res.Source != "category_spread" {
		t.Fatalf("source = %q, want category_spread", res.Source)
	}
	// Four categories matched but the result is capped at three examples.
	if len(res.Questions) != 3 || len(res.IDs) != 3 {
		t.Errorf("got %d questions, %d ids, want 3 and 3", len(res.Questions), len(res.IDs))
	}
}

func TestSelect_CacheFallbackHasNoIDs(t *testing.T) {
	t.Parallel()

	cache := qcache.New()
	cache.Put(qcache.Key("engineer", "", "", "reference"), []string{"cached question"}, "reference")

	// Every corpus path errors; only the cache can serve.
	boom := errors.New("corpus down")
	store := &fakeStore{
		byKeyword: func(context.Context, []string, int, corpus.Filter) ([]corpus.Question, error) {
			return nil, boom
		},
		byDiverse: func(context.Context, []string, int, corpus.Filter) ([]corpus.Question, error) {
			return nil, boom
		},
		all: func(context.Context) ([]corpus.Question, error) {
			return nil, boom
		},
	}

	sel := refselect.New(store, cache, fastConfig())

	res := sel.Select(context.Background(), refselect.Request{JobRole: "engineer"})
	if res.Source != "cache" {
		t.Fatalf("source = %q, want cache", res.Source)
	}
	if len(res.Questions) != 1 || res.Questions[0] != "cached question" {
		t.Errorf("questions = %v, want the cached question", res.Questions)
	}
	if len(res.IDs) != 0 {
		t.Errorf("ids = %v, want none for cache-sourced results", res.IDs)
	}
}

func TestSelect_RandomSampleLastResort(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		all: func(context.Context) ([]corpus.Question, error) {
			return []corpus.Question{
				{ID: "q1", Text: "A"},
				{ID: "q2", Text: "B"},
				{ID: "q3", Text: "C"},
				{ID: "q4", Text: "D"},
				{ID: "q5", Text: "E"},
			}, nil
		},
	}

	sel := refselect.New(store, qcache.New(), fastConfig())

	res := sel.Select(context.Background(), refselect.Request{JobRole: "engineer"})
	if res.Source != "random_sample" {
		t.Fatalf("source = %q, want random_sample", res.Source)
	}
	if len(res.Questions) != 3 {
		t.Errorf("got %d questions, want 3", len(res.Questions))
	}
	if len(res.IDs) != 0 {
		t.Errorf("ids = %v, want none for sampled results", res.IDs)
	}

	valid := map[string]bool{"A": true, "B": true, "C": true, "D": true, "E": true}
	seen := map[string]bool{}
	for _, q := range res.Questions {
		if !valid[q] {
			t.Errorf("sampled question %q not in corpus", q)
		}
		if seen[q] {
			t.Errorf("duplicate question %q in sample", q)
		}
		seen[q] = true
	}
}

func TestSelect_AllSourcesExhausted(t *testing.T) {
	t.Parallel()

	sel := refselect.New(&fakeStore{}, qcache.New(), fastConfig())

	res := sel.Select(context.Background(), refselect.Request{JobRole: "engineer"})
	if len(res.Questions) != 0 || len(res.IDs) != 0 {
		t.Errorf("res = %+v, want empty result", res)
	}
}

func TestSelect_SlowStepAbandoned(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	store := &fakeStore{
		curated: func(context.Context, string, string) ([]corpus.Question, error) {
			<-release // hold past the step budget
			return []corpus.Question{{ID: "late", Text: "too late"}}, nil
		},
		byKeyword: func(context.Context, []string, int, corpus.Filter) ([]corpus.Question, error) {
			return []corpus.Question{{ID: "k1", Text: "on time"}}, nil
		},
	}

	sel := refselect.New(store, qcache.New(), refselect.Config{
		StepTimeout:    30 * time.Millisecond,
		InsightTimeout: 10 * time.Millisecond,
	})

	start := time.Now()
	res := sel.Select(context.Background(), refselect.Request{
		JobRole: "aspirant",
		College: "academy",
	})
	elapsed := time.Since(start)

	if res.Source != "keyword" {
		t.Fatalf("source = %q, want keyword after curated timeout", res.Source)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("Select took %v, want prompt fallthrough on step timeout", elapsed)
	}
}

func TestSelect_SeedsCacheForLaterCalls(t *testing.T) {
	t.Parallel()

	cache := qcache.New()
	healthy := &fakeStore{
		byKeyword: func(context.Context, []string, int, corpus.Filter) ([]corpus.Question, error) {
			return []corpus.Question{{ID: "k1", Text: "seeded"}}, nil
		},
	}

	req := refselect.Request{JobRole: "engineer"}

	first := refselect.New(healthy, cache, fastConfig()).Select(context.Background(), req)
	if first.Source != "keyword" {
		t.Fatalf("first source = %q, want keyword", first.Source)
	}

	// Same cache, corpus now failing: the seeded batch must serve.
	boom := errors.New("corpus down")
	broken := &fakeStore{
		byKeyword: func(context.Context, []string, int, corpus.Filter) ([]corpus.Question, error) {
			return nil, boom
		},
		byDiverse: func(context.Context, []string, int, corpus.Filter) ([]corpus.Question, error) {
			return nil, boom
		},
		all: func(context.Context) ([]corpus.Question, error) {
			return nil, boom
		},
	}

	second := refselect.New(broken, cache, fastConfig()).Select(context.Background(), req)
	if second.Source != "cache" {
		t.Fatalf("second source = %q, want cache", second.Source)
	}
	if len(second.Questions) != 1 || second.Questions[0] != "seeded" {
		t.Errorf("questions = %v, want the seeded question", second.Questions)
	}
}

func TestSelect_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeStore{
		byKeyword: func(context.Context, []string, int, corpus.Filter) ([]corpus.Question, error) {
			return []corpus.Question{{ID: "k1", Text: "hit"}}, nil
		},
	}

	sel := refselect.New(store, qcache.New(), fastConfig())

	// A dead context drains the chain without panicking; result may be
	// empty or the immediately-available hit depending on select order.
	res := sel.Select(ctx, refselect.Request{JobRole: "engineer"})
	if len(res.Questions) > 3 {
		t.Errorf("got %d questions, want at most 3", len(res.Questions))
	}
}
