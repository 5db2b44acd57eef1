// Package anthropic backs the generation boundary with the Anthropic
// Messages API. Every request forces a single tool call whose input
// schema is the caller's output schema, so the model's answer arrives as
// schema-conforming JSON instead of free text.
package anthropic

import (
	"context"
	"log/slog"
	"sync"
	"time"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/parley-dev/parley/internal/generator"
)

// defaultModel is pinned to a dated release for reproducibility; update
// when a newer stable version is validated.
const defaultModel = "claude-sonnet-4-5-20250929"

// defaultTimeout bounds one Messages API call. Interview turns are a
// single round trip, so anything slower is treated as an outage.
const defaultTimeout = 60 * time.Second

// nopHandler is a slog.Handler that discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (nopHandler) Handle(context.Context, slog.Record) error { return nil }

func (nopHandler) WithAttrs([]slog.Attr) slog.Handler { return nopHandler{} }

func (nopHandler) WithGroup(string) slog.Handler { return nopHandler{} }

// Config holds the Anthropic backend settings.
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

// Backend implements generator.Invoker over the Anthropic SDK. Clients
// are cached per API key; the empty key uses the SDK's environment
// credentials.
type Backend struct {
	config Config
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]*sdkanthropic.Client
}

// Interface guard.
var _ generator.Invoker = (*Backend)(nil)

// New creates a Backend with the given configuration.
func New(cfg Config, opts ...Option) *Backend {
	cfg.defaults()
	b := &Backend{
		config:  cfg,
		logger:  slog.New(nopHandler{}),
		clients: make(map[string]*sdkanthropic.Client),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// clientFor returns the cached SDK client for the key, building it on
// first use.
func (b *Backend) clientFor(key string) *sdkanthropic.Client {
	b.mu.Lock()
	defer b.mu.Unlock()

	if client, ok := b.clients[key]; ok {
		return client
	}

	// Retries stay disabled at the SDK level; the executor owns the
	// retry budget.
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	if b.config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(b.config.BaseURL))
	}
	if b.config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(b.config.Timeout))
	}

	client := sdkanthropic.NewClient(opts...)
	b.clients[key] = &client
	return &client
}
