package generator

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// nopHandler is a slog.Handler that discards all log records.
// Enabled returns false so slog skips formatting entirely (zero cost).
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool {
	return false
}

func (nopHandler) Handle(context.Context, slog.Record) error {
	return nil
}

func (nopHandler) WithAttrs([]slog.Attr) slog.Handler {
	return nopHandler{}
}

func (nopHandler) WithGroup(string) slog.Handler {
	return nopHandler{}
}

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 1 * time.Second
)

// ExecutorOption configures optional Executor behavior.
type ExecutorOption func(*Executor)

// WithLogger injects a structured logger into the Executor.
// When nil or omitted, all log output is silently discarded (zero cost).
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// WithMaxAttempts overrides the total attempt budget. Values below one
// are ignored.
func WithMaxAttempts(n int) ExecutorOption {
	return func(e *Executor) {
		if n >= 1 {
			e.maxAttempts = n
		}
	}
}

// WithBaseDelay overrides the first backoff delay. Each subsequent delay
// doubles the previous one.
func WithBaseDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.baseDelay = d
		}
	}
}

// Executor wraps an Invoker with bounded retries, exponential backoff,
// and per-attempt API key rotation. It is the only path through which
// the rest of the system reaches the generation service.
type Executor struct {
	invoker Invoker
	pool    *KeyPool
	logger  *slog.Logger

	maxAttempts int
	baseDelay   time.Duration

	attempts  atomic.Uint64
	retries   atomic.Uint64
	rotations atomic.Uint64
	exhausted atomic.Uint64
}

// NewExecutor creates an Executor over the invoker and key pool.
func NewExecutor(invoker Invoker, pool *KeyPool, opts ...ExecutorOption) (*Executor, error) {
	if invoker == nil {
		return nil, fmt.Errorf("generator: executor requires an invoker")
	}

	e := &Executor{
		invoker:     invoker,
		pool:        pool,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.New(nopHandler{})
	}

	return e, nil
}

var _ Generator = (*Executor)(nil)

// Generate runs the request with up to the configured number of attempts.
// Every attempt draws the next key from the pool, so a rate-limited key is
// never reused on the immediate retry. Transient failures back off as
// baseDelay, 2x, 4x between attempts; permanent failures return at once.
// When the budget is spent the last error is wrapped in ErrExhausted.
func (e *Executor) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generator: %w", err)
		}

		key := e.pool.Next()
		if attempt > 0 && e.pool.Len() > 1 {
			e.rotations.Add(1)
		}
		e.attempts.Add(1)

		resp, err := e.invoker.GenerateWithKey(ctx, key, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		kind := Transience(err)
		if kind == KindNone {
			return nil, err
		}

		if attempt+1 == e.maxAttempts {
			break
		}

		delay := e.baseDelay << attempt
		e.logger.Warn("generation attempt failed, retrying",
			"task", string(req.Task),
			"attempt", attempt+1,
			"kind", kind.String(),
			"delay", delay,
			"error", err,
		)
		e.retries.Add(1)

		if err := sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("generator: %w", err)
		}
	}

	e.exhausted.Add(1)
	e.logger.Error("generation attempts exhausted",
		"task", string(req.Task),
		"attempts", e.maxAttempts,
		"last_error", lastErr,
	)
	return nil, fmt.Errorf("%w: last error: %w", ErrExhausted, lastErr)
}

// Stats is a point-in-time snapshot of executor counters.
type Stats struct {
	Attempts  uint64 `json:"attempts"`  // total upstream calls made
	Retries   uint64 `json:"retries"`   // attempts that followed a transient failure
	Rotations uint64 `json:"rotations"` // key rotations caused by retries
	Exhausted uint64 `json:"exhausted"` // requests that spent the full attempt budget
}

// Stats returns a snapshot of the executor's counters. Safe to call
// concurrently with Generate.
func (e *Executor) Stats() Stats {
	return Stats{
		Attempts:  e.attempts.Load(),
		Retries:   e.retries.Load(),
		Rotations: e.rotations.Load(),
		Exhausted: e.exhausted.Load(),
	}
}

// sleep blocks for d or until the context is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
