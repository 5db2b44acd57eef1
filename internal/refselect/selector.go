// Package refselect resolves reference questions for an interview scenario.
// It tries a fixed chain of sources in priority order (curated corpus,
// keyword search, category spread, cache, random sample), each bounded by
// its own timeout. Exhausting the chain yields an empty result, never an
// error; callers must tolerate having no reference questions.
package refselect

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/parley-dev/parley/internal/corpus"
	"github.com/parley-dev/parley/internal/qcache"
)

// nopHandler is a slog.Handler that discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (nopHandler) Handle(context.Context, slog.Record) error { return nil }

func (nopHandler) WithAttrs([]slog.Attr) slog.Handler { return nopHandler{} }

func (nopHandler) WithGroup(string) slog.Handler { return nopHandler{} }

// Request describes the scenario reference questions are wanted for.
type Request struct {
	JobRole       string
	Company       string
	College       string // target institution; non-empty marks an aspirant track
	ResumeText    string
	ExamID        string
	SubcategoryID string
}

// Result is a small set of example questions, with corpus identifiers
// when the source was durable. Questions and IDs are parallel when IDs
// are present; cache- and sample-sourced results carry no IDs.
type Result struct {
	Questions []string
	IDs       []string
	Source    string
}

// BackgroundDetector derives the candidate's academic background from
// resume text. Failures degrade to an empty background; they never fail
// the surrounding lookup.
type BackgroundDetector interface {
	DetectBackground(ctx context.Context, resumeText string) (string, error)
}

// Config holds the selector's tunable budgets.
type Config struct {
	// StepTimeout bounds each fallback step. Defaults to 10 s.
	StepTimeout time.Duration

	// InsightTimeout bounds the background-detection sub-call inside the
	// curated step. Defaults to 5 s.
	InsightTimeout time.Duration

	// MaxQuestions caps the returned example set. Defaults to 3.
	MaxQuestions int

	// Categories is the pool for the category-spread step.
	Categories []string
}

func (c *Config) defaults() {
	if c.StepTimeout <= 0 {
		c.StepTimeout = 10 * time.Second
	}
	if c.InsightTimeout <= 0 {
		c.InsightTimeout = 5 * time.Second
	}
	if c.MaxQuestions <= 0 {
		c.MaxQuestions = 3
	}
	if len(c.Categories) == 0 {
		c.Categories = []string{"technical", "hr", "aptitude", "situational"}
	}
}

// Option configures optional Selector behavior.
type Option func(*Selector)

// WithLogger injects a structured logger. When nil or omitted, all log
// output is silently discarded.
func WithLogger(l *slog.Logger) Option {
	return func(s *Selector) { s.logger = l }
}

// WithBackgroundDetector enables background detection for the curated
// step. Without one, curated lookups use the institution alone.
func WithBackgroundDetector(d BackgroundDetector) Option {
	return func(s *Selector) { s.insight = d }
}

// Selector runs the fallback chain. Safe for concurrent use.
type Selector struct {
	corpus  corpus.Store
	cache   *qcache.Cache
	insight BackgroundDetector
	logger  *slog.Logger
	cfg     Config
}

// New creates a Selector over the corpus store and question cache.
func New(store corpus.Store, cache *qcache.Cache, cfg Config, opts ...Option) *Selector {
	cfg.defaults()

	s := &Selector{
		corpus: store,
		cache:  cache,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(nopHandler{})
	}
	return s
}

// step is one fallback source with its time budget.
type step struct {
	name    string
	timeout time.Duration
	seed    bool // successful results are written back to the cache
	run     func(ctx context.Context) (Result, error)
}

// Select resolves reference questions for the request. It never returns
// an error: every step failure (timeout, empty result, backend error)
// falls through to the next source, and exhausting the chain yields an
// empty Result.
func (s *Selector) Select(ctx context.Context, req Request) Result {
	key := s.scenarioKey(req)

	for _, st := range s.steps(req, key) {
		res, ok := s.runStep(ctx, st)
		if !ok {
			s.logger.Debug("reference source failed, falling through",
				"source", st.name,
				"role", req.JobRole,
			)
			continue
		}

		res = truncate(res, s.cfg.MaxQuestions)
		res.Source = st.name

		if st.seed && s.cache != nil {
			s.cache.Put(key, res.Questions, "reference")
		}

		s.logger.Debug("reference questions resolved",
			"source", st.name,
			"count", len(res.Questions),
		)
		return res
	}

	s.logger.Warn("all reference sources exhausted, continuing without examples",
		"role", req.JobRole,
	)
	return Result{}
}

// runStep executes one step against its budget. The underlying call is
// not cancelled on timeout, only abandoned: the result channel is
// buffered so a stray late completion parks harmlessly.
func (s *Selector) runStep(ctx context.Context, st step) (Result, bool) {
	type outcome struct {
		res Result
		err error
	}

	ch := make(chan outcome, 1)
	go func() {
		res, err := st.run(ctx)
		ch <- outcome{res: res, err: err}
	}()

	timer := time.NewTimer(st.timeout)
	defer timer.Stop()

	select {
	case out := <-ch:
		if out.err != nil {
			s.logger.Debug("reference source error", "source", st.name, "error", out.err)
			return Result{}, false
		}
		if len(out.res.Questions) == 0 {
			return Result{}, false
		}
		return out.res, true
	case <-timer.C:
		return Result{}, false
	case <-ctx.Done():
		return Result{}, false
	}
}

// steps builds the fallback chain for a request. The curated step only
// applies to aspirant tracks with a target institution.
func (s *Selector) steps(req Request, scenarioKey string) []step {
	filter := corpus.Filter{ExamID: req.ExamID, SubcategoryID: req.SubcategoryID}

	var steps []step

	if req.College != "" {
		steps = append(steps, step{
			name:    "curated",
			timeout: s.cfg.StepTimeout,
			seed:    true,
			run: func(ctx context.Context) (Result, error) {
				background := s.detectBackground(ctx, req.ResumeText)
				qs, err := s.corpus.Curated(ctx, req.College, background)
				if err != nil {
					return Result{}, err
				}
				return fromQuestions(qs, true), nil
			},
		})
	}

	steps = append(steps,
		step{
			name:    "keyword",
			timeout: s.cfg.StepTimeout,
			seed:    true,
			run: func(ctx context.Context) (Result, error) {
				keywords := deriveKeywords(req.JobRole, req.Company, req.ResumeText)
				qs, err := s.corpus.ByKeyword(ctx, keywords, s.cfg.MaxQuestions, filter)
				if err != nil {
					return Result{}, err
				}
				return fromQuestions(qs, true), nil
			},
		},
		step{
			name:    "category_spread",
			timeout: s.cfg.StepTimeout,
			seed:    true,
			run: func(ctx context.Context) (Result, error) {
				qs, err := s.corpus.ByCategoryDiverse(ctx, s.cfg.Categories, 1, filter)
				if err != nil {
					return Result{}, err
				}
				return fromQuestions(qs, true), nil
			},
		},
		step{
			name:    "cache",
			timeout: s.cfg.StepTimeout,
			run: func(_ context.Context) (Result, error) {
				if s.cache == nil {
					return Result{}, nil
				}
				return Result{Questions: s.cache.Get(scenarioKey)}, nil
			},
		},
		step{
			name:    "random_sample",
			timeout: s.cfg.StepTimeout,
			run: func(ctx context.Context) (Result, error) {
				qs, err := s.corpus.All(ctx)
				if err != nil {
					return Result{}, err
				}
				return sample(qs, s.cfg.MaxQuestions), nil
			},
		},
	)

	return steps
}

// detectBackground runs the insight sub-call under its own budget.
func (s *Selector) detectBackground(ctx context.Context, resumeText string) string {
	if s.insight == nil || resumeText == "" {
		return ""
	}

	ictx, cancel := context.WithTimeout(ctx, s.cfg.InsightTimeout)
	defer cancel()

	background, err := s.insight.DetectBackground(ictx, resumeText)
	if err != nil {
		s.logger.Debug("background detection failed, using institution only", "error", err)
		return ""
	}
	return background
}

func (s *Selector) scenarioKey(req Request) string {
	return qcache.Key(req.JobRole, req.College, "", "reference")
}

// fromQuestions converts corpus records to a Result, carrying IDs only
// for durable sources.
func fromQuestions(qs []corpus.Question, withIDs bool) Result {
	if len(qs) == 0 {
		return Result{}
	}

	res := Result{Questions: make([]string, 0, len(qs))}
	if withIDs {
		res.IDs = make([]string, 0, len(qs))
	}
	for _, q := range qs {
		res.Questions = append(res.Questions, q.Text)
		if withIDs {
			res.IDs = append(res.IDs, q.ID)
		}
	}
	return res
}

// sample draws an unbiased random subset of up to max questions. Sampled
// results carry no identifiers.
func sample(qs []corpus.Question, max int) Result {
	if len(qs) == 0 || max <= 0 {
		return Result{}
	}

	idx := make([]int, len(qs))
	for i := range idx {
		idx[i] = i
	}
	rand.Shuffle(len(idx), func(i, j int) {
		idx[i], idx[j] = idx[j], idx[i]
	})

	if max > len(idx) {
		max = len(idx)
	}

	res := Result{Questions: make([]string, 0, max)}
	for _, i := range idx[:max] {
		res.Questions = append(res.Questions, qs[i].Text)
	}
	return res
}

func truncate(res Result, max int) Result {
	if len(res.Questions) > max {
		res.Questions = res.Questions[:max]
	}
	if len(res.IDs) > max {
		res.IDs = res.IDs[:max]
	}
	return res
}
