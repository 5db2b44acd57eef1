// Package openai backs the generation boundary with the OpenAI Chat
// Completions API. Every request carries a json_schema response format,
// so the model's answer arrives as schema-conforming JSON instead of
// free text.
package openai

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/parley-dev/parley/internal/generator"
)

// defaultModel balances evaluation quality against per-turn latency.
const defaultModel = "gpt-4o"

// defaultTimeout bounds one chat completions call. Interview turns are
// a single round trip, so anything slower is treated as an outage.
const defaultTimeout = 60 * time.Second

// maxResponseSize caps the response body read (10 MB). Protects against
// OOM from malformed or huge responses.
const maxResponseSize = 10 * 1024 * 1024

// nopHandler is a slog.Handler that discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (nopHandler) Handle(context.Context, slog.Record) error { return nil }

func (nopHandler) WithAttrs([]slog.Attr) slog.Handler { return nopHandler{} }

func (nopHandler) WithGroup(string) slog.Handler { return nopHandler{} }

// Config holds the OpenAI backend settings.
type Config struct {
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// defaults fills in zero-value fields.
func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Option configures optional Backend dependencies.
type Option func(*Backend)

// WithLogger sets the backend's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Backend implements generator.Invoker over the Chat Completions API
// with a hand-rolled HTTP client. The key for each call arrives from
// the executor; the empty key falls back to the OPENAI_API_KEY
// environment variable.
type Backend struct {
	config Config
	logger *slog.Logger
	client *http.Client
}

// Interface guard.
var _ generator.Invoker = (*Backend)(nil)

// New creates a Backend with the given configuration.
func New(cfg Config, opts ...Option) *Backend {
	cfg.defaults()
	b := &Backend{
		config: cfg,
		logger: slog.New(nopHandler{}),
		client: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}
