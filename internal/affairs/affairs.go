// Package affairs decides when a current-affairs question is due and
// produces one through the generation service, steering away from topics
// and categories already used in the session. Generation failures degrade
// to "no question this turn"; the scheduler never blocks the main turn.
package affairs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parley-dev/parley/internal/generator"
)

// nopHandler is a slog.Handler that discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (nopHandler) Handle(context.Context, slog.Record) error { return nil }

func (nopHandler) WithAttrs([]slog.Attr) slog.Handler { return nopHandler{} }

func (nopHandler) WithGroup(string) slog.Handler { return nopHandler{} }

// Due reports whether a current-affairs question is due after n substantive
// questions. The cadence fires on multiples of three or four; numbers that
// are multiples of both (12, 24, ...) trigger once, not twice.
func Due(n int) bool {
	return n > 0 && (n%3 == 0 || n%4 == 0)
}

// Question is one generated current-affairs interview question.
type Question struct {
	Text     string `json:"question"`
	Topic    string `json:"topic"`
	Category string `json:"category"`
	Context  string `json:"context"`
}

// History summarizes the current-affairs turns already asked in the
// session. Both lists are derived from conversation history each call;
// the scheduler itself keeps no per-session state.
type History struct {
	Topics     []string
	Categories []string
}

// Request carries the scenario for one generation.
type Request struct {
	Language string
	JobRole  string
	History  History
}

// Config holds the scheduler's tunables.
type Config struct {
	// Timeout bounds the whole production, retry included. Defaults to 15 s.
	Timeout time.Duration

	// Categories is the rotation pool. The cursor position is derived
	// from how many current-affairs questions the session has already
	// seen, so concurrent sessions never share rotation state.
	Categories []string
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if len(c.Categories) == 0 {
		c.Categories = []string{
			"economy",
			"technology",
			"sports",
			"politics",
			"environment",
			"science",
			"international",
		}
	}
}

// Option configures optional Scheduler behavior.
type Option func(*Scheduler)

// WithLogger injects a structured logger. When nil or omitted, all log
// output is silently discarded.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// Scheduler produces de-duplicated current-affairs questions. Safe for
// concurrent use.
type Scheduler struct {
	gen    generator.Generator
	logger *slog.Logger
	cfg    Config
}

// New creates a Scheduler over the generation service.
func New(gen generator.Generator, cfg Config, opts ...Option) *Scheduler {
	cfg.defaults()

	s := &Scheduler{
		gen: gen,
		cfg: cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(nopHandler{})
	}
	return s
}

// Produce generates one current-affairs question for the request, or nil
// when generation fails or times out. A topic colliding with session
// history triggers exactly one regeneration; a second collision is
// accepted as-is, since a repeated theme beats an endless retry loop.
func (s *Scheduler) Produce(ctx context.Context, req Request) *Question {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	category := s.nextCategory(req.History.Categories)

	q, err := s.generate(ctx, req, category, req.History.Topics)
	if err != nil {
		s.logger.Warn("current affairs generation failed, skipping this turn",
			"role", req.JobRole,
			"error", err,
		)
		return nil
	}

	if !isDuplicate(q.Topic, req.History.Topics) {
		return q
	}

	s.logger.Debug("duplicate current affairs topic, regenerating once",
		"topic", q.Topic,
	)

	avoid := make([]string, 0, len(req.History.Topics)+1)
	avoid = append(avoid, req.History.Topics...)
	avoid = append(avoid, q.Topic)

	retry, err := s.generate(ctx, req, category, avoid)
	if err != nil {
		// The first result is a duplicate but still a valid question;
		// better that than none.
		s.logger.Warn("current affairs retry failed, keeping duplicate topic",
			"topic", q.Topic,
			"error", err,
		)
		return q
	}
	if isDuplicate(retry.Topic, req.History.Topics) {
		s.logger.Debug("current affairs topic still duplicate after retry, accepting",
			"topic", retry.Topic,
		)
	}
	return retry
}

// generate performs one Generator call and decodes the structured result.
func (s *Scheduler) generate(ctx context.Context, req Request, category string, avoidTopics []string) (*Question, error) {
	resp, err := s.gen.Generate(ctx, generator.Request{
		Task:   generator.TaskCurrentAffairs,
		System: systemPrompt,
		Prompt: buildPrompt(req, category, avoidTopics),
		Schema: outputSchema,
	})
	if err != nil {
		return nil, err
	}

	var q Question
	if err := json.Unmarshal(resp.Raw, &q); err != nil {
		return nil, fmt.Errorf("affairs: %w: %w", generator.ErrInvalidOutput, err)
	}
	if strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("affairs: %w: empty question", generator.ErrInvalidOutput)
	}
	if q.Category == "" {
		q.Category = category
	}
	return &q, nil
}

// nextCategory picks the rotation category: the cursor advances with each
// current-affairs question the session has seen, preferring the first
// unused category from the cursor onward and wrapping when every pool
// entry has been used.
func (s *Scheduler) nextCategory(previous []string) string {
	pool := s.cfg.Categories
	if len(pool) == 0 {
		return ""
	}

	cursor := len(previous) % len(pool)

	used := make(map[string]struct{}, len(previous))
	for _, p := range previous {
		used[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}

	for i := range pool {
		candidate := pool[(cursor+i)%len(pool)]
		if _, taken := used[strings.ToLower(candidate)]; !taken {
			return candidate
		}
	}
	return pool[cursor]
}

// isDuplicate reports whether topic collides with any previous topic.
// The check is case-insensitive substring containment in both directions,
// matching how loosely generated topic strings tend to overlap.
func isDuplicate(topic string, previous []string) bool {
	t := strings.ToLower(strings.TrimSpace(topic))
	if t == "" {
		return false
	}
	for _, p := range previous {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if strings.Contains(t, p) || strings.Contains(p, t) {
			return true
		}
	}
	return false
}
