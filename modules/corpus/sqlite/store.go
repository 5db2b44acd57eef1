package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/parley-dev/parley/internal/corpus"
)

const selectCols = "id, category, subcategory, exam_id, subcategory_id, text"

// ByKeyword returns questions whose text matches any keyword via FTS5,
// in corpus (insertion) order, up to limit.
func (s *Store) ByKeyword(ctx context.Context, keywords []string, limit int, f corpus.Filter) ([]corpus.Question, error) {
	match := ftsQuery(keywords)
	if match == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.category, q.subcategory, q.exam_id, q.subcategory_id, q.text
		FROM questions_fts
		JOIN questions q ON q.rowid = questions_fts.rowid
		WHERE questions_fts MATCH ?
		  AND (? = '' OR q.exam_id = ?)
		  AND (? = '' OR q.subcategory_id = ?)
		ORDER BY q.rowid
		LIMIT ?`,
		match, f.ExamID, f.ExamID, f.SubcategoryID, f.SubcategoryID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: keyword query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanQuestions(rows)
}

// ByCategoryDiverse returns up to perCategoryCap questions from each
// category, concatenated in category order.
func (s *Store) ByCategoryDiverse(ctx context.Context, categories []string, perCategoryCap int, f corpus.Filter) ([]corpus.Question, error) {
	if len(categories) == 0 || perCategoryCap <= 0 {
		return nil, nil
	}

	var results []corpus.Question
	for _, cat := range categories {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+selectCols+`
			FROM questions
			WHERE category = ? COLLATE NOCASE
			  AND (? = '' OR exam_id = ?)
			  AND (? = '' OR subcategory_id = ?)
			ORDER BY rowid
			LIMIT ?`,
			cat, f.ExamID, f.ExamID, f.SubcategoryID, f.SubcategoryID, perCategoryCap,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: category query %q: %w", cat, err)
		}

		qs, err := scanQuestions(rows)
		_ = rows.Close()
		if err != nil {
			return nil, err
		}
		results = append(results, qs...)
	}
	return results, nil
}

// Curated returns curated questions for the institution whose background
// matches or is unset.
func (s *Store) Curated(ctx context.Context, institution, background string) ([]corpus.Question, error) {
	if institution == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, subcategory, '', '', text
		FROM curated_questions
		WHERE institution = ? COLLATE NOCASE
		  AND (background = '' OR background = ? COLLATE NOCASE)
		ORDER BY rowid`,
		institution, background,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: curated query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanQuestions(rows)
}

// Random returns n questions chosen uniformly at random.
func (s *Store) Random(ctx context.Context, n int) ([]corpus.Question, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectCols+`
		FROM questions
		ORDER BY RANDOM()
		LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: random query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanQuestions(rows)
}

// All returns the entire corpus in insertion order.
func (s *Store) All(ctx context.Context) ([]corpus.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectCols+`
		FROM questions
		ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: full scan: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanQuestions(rows)
}

// Insert stores or replaces a corpus question.
func (s *Store) Insert(ctx context.Context, q corpus.Question) error {
	if q.ID == "" || q.Text == "" {
		return fmt.Errorf("sqlite: question requires id and text")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO questions (id, category, subcategory, exam_id, subcategory_id, text)
		VALUES (?, ?, ?, ?, ?, ?)`,
		q.ID, q.Category, q.Subcategory, q.ExamID, q.SubcategoryID, q.Text,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert question: %w", err)
	}
	return nil
}

// InsertCurated stores or replaces a curated question for an institution.
// An empty background makes the question apply to every background.
func (s *Store) InsertCurated(ctx context.Context, institution, background string, q corpus.Question) error {
	if q.ID == "" || q.Text == "" || institution == "" {
		return fmt.Errorf("sqlite: curated question requires id, text, and institution")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO curated_questions (id, institution, background, category, subcategory, text)
		VALUES (?, ?, ?, ?, ?, ?)`,
		q.ID, institution, background, q.Category, q.Subcategory, q.Text,
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert curated question: %w", err)
	}
	return nil
}

// CategoryCount is one row of corpus statistics.
type CategoryCount struct {
	Category string
	Count    int
}

// Stats returns per-category question counts ordered by category name,
// plus the total corpus size.
func (s *Store) Stats(ctx context.Context) ([]CategoryCount, int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*)
		FROM questions
		GROUP BY category
		ORDER BY category`,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: stats query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		counts []CategoryCount
		total  int
	)
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scan stats: %w", err)
		}
		counts = append(counts, cc)
		total += cc.Count
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: stats rows: %w", err)
	}
	return counts, total, nil
}

// ftsQuery builds an FTS5 OR-query from raw keywords. Each keyword is
// quoted so user-derived text cannot inject FTS5 syntax.
func ftsQuery(keywords []string) string {
	var parts []string
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		parts = append(parts, `"`+strings.ReplaceAll(k, `"`, `""`)+`"`)
	}
	return strings.Join(parts, " OR ")
}

func scanQuestions(rows *sql.Rows) ([]corpus.Question, error) {
	var questions []corpus.Question
	for rows.Next() {
		var q corpus.Question
		if err := rows.Scan(&q.ID, &q.Category, &q.Subcategory, &q.ExamID, &q.SubcategoryID, &q.Text); err != nil {
			return nil, fmt.Errorf("sqlite: scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: scan question rows: %w", err)
	}
	return questions, nil
}
