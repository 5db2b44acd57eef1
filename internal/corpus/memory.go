package corpus

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
)

// InMemoryStore is a thread-safe, in-memory implementation of Store.
// Keyword search uses simple substring matching; the SQLite module uses
// full-text search instead. Useful for tests and corpus-less deployments.
type InMemoryStore struct {
	mu        sync.RWMutex
	questions []Question
	curated   map[string][]curatedEntry // lowercased institution → entries
}

type curatedEntry struct {
	background string // lowercased; empty applies to every background
	question   Question
}

// NewInMemoryStore creates a new empty corpus store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		curated: make(map[string][]curatedEntry),
	}
}

// Compile-time interface check.
var _ Store = (*InMemoryStore)(nil)

// Add appends questions to the corpus in the given order.
func (s *InMemoryStore) Add(qs ...Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, qs...)
}

// AddCurated registers a curated question for an institution. An empty
// background makes the question apply to every background.
func (s *InMemoryStore) AddCurated(institution, background string, q Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(institution)
	s.curated[key] = append(s.curated[key], curatedEntry{
		background: strings.ToLower(background),
		question:   q,
	})
}

// ByKeyword returns questions containing any keyword as a case-insensitive
// substring, in corpus order, up to limit.
func (s *InMemoryStore) ByKeyword(_ context.Context, keywords []string, limit int, f Filter) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(keywords) == 0 || limit <= 0 {
		return nil, nil
	}

	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(strings.ToLower(k)); k != "" {
			lowered = append(lowered, k)
		}
	}

	var results []Question
	for i := range s.questions {
		q := s.questions[i]
		if !matchesFilter(q, f) {
			continue
		}
		text := strings.ToLower(q.Text)
		for _, k := range lowered {
			if strings.Contains(text, k) {
				results = append(results, q)
				break
			}
		}
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// ByCategoryDiverse returns up to perCategoryCap questions per category,
// concatenated in category order.
func (s *InMemoryStore) ByCategoryDiverse(_ context.Context, categories []string, perCategoryCap int, f Filter) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(categories) == 0 || perCategoryCap <= 0 {
		return nil, nil
	}

	var results []Question
	for _, cat := range categories {
		taken := 0
		for i := range s.questions {
			q := s.questions[i]
			if taken >= perCategoryCap {
				break
			}
			if !strings.EqualFold(q.Category, cat) || !matchesFilter(q, f) {
				continue
			}
			results = append(results, q)
			taken++
		}
	}
	return results, nil
}

// Curated returns curated questions for the institution whose background
// matches or is unset.
func (s *InMemoryStore) Curated(_ context.Context, institution, background string) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.curated[strings.ToLower(institution)]
	bg := strings.ToLower(background)

	var results []Question
	for _, e := range entries {
		if e.background == "" || e.background == bg {
			results = append(results, e.question)
		}
	}
	return results, nil
}

// Random returns n questions chosen uniformly without replacement.
func (s *InMemoryStore) Random(_ context.Context, n int) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || len(s.questions) == 0 {
		return nil, nil
	}

	idx := rand.Perm(len(s.questions))
	if n > len(idx) {
		n = len(idx)
	}

	results := make([]Question, 0, n)
	for _, i := range idx[:n] {
		results = append(results, s.questions[i])
	}
	return results, nil
}

// All returns a copy of the entire corpus in insertion order.
func (s *InMemoryStore) All(_ context.Context) ([]Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out, nil
}

// Len returns the number of corpus questions (curated rows excluded).
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions)
}

func matchesFilter(q Question, f Filter) bool {
	if f.ExamID != "" && !strings.EqualFold(q.ExamID, f.ExamID) {
		return false
	}
	if f.SubcategoryID != "" && !strings.EqualFold(q.SubcategoryID, f.SubcategoryID) {
		return false
	}
	return true
}
