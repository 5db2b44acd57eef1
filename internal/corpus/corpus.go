// Package corpus defines read access to the durable question corpus: the
// bank of vetted interview questions the selector draws reference examples
// from. Implementations must be safe for concurrent use.
package corpus

import "context"

// Question is one corpus record. ExamID and SubcategoryID scope the
// question to an exam track; they are empty for general questions.
type Question struct {
	ID            string
	Category      string
	Subcategory   string
	Text          string
	ExamID        string
	SubcategoryID string
}

// Filter narrows corpus queries to an exam or subcategory. Zero values
// match everything.
type Filter struct {
	ExamID        string
	SubcategoryID string
}

// Store is the read-side corpus contract. Queries that match nothing
// return empty slices; errors are reserved for backend failures.
type Store interface {
	// ByKeyword returns questions whose text matches any of the given
	// keywords, in corpus order, up to limit.
	ByKeyword(ctx context.Context, keywords []string, limit int, f Filter) ([]Question, error)

	// ByCategoryDiverse returns up to perCategoryCap questions from each
	// of the given categories, concatenated in category order.
	ByCategoryDiverse(ctx context.Context, categories []string, perCategoryCap int, f Filter) ([]Question, error)

	// Curated returns hand-picked questions for a target institution and
	// candidate background. Rows curated without a background apply to
	// every background.
	Curated(ctx context.Context, institution, background string) ([]Question, error)

	// Random returns n questions chosen uniformly at random.
	Random(ctx context.Context, n int) ([]Question, error)

	// All returns the entire corpus in insertion order.
	All(ctx context.Context) ([]Question, error)
}
