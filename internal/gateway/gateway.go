// Package gateway exposes the interview engine over HTTP: the public
// interview API, a WebSocket turn stream, health and Prometheus metrics,
// and authenticated admin endpoints.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/parley-dev/parley/internal/generator"
	"github.com/parley-dev/parley/internal/session"
)

// nopHandler is a slog.Handler that discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (nopHandler) Handle(context.Context, slog.Record) error { return nil }

func (nopHandler) WithAttrs([]slog.Attr) slog.Handler { return nopHandler{} }

func (nopHandler) WithGroup(string) slog.Handler { return nopHandler{} }

// Option configures optional Gateway dependencies.
type Option func(*Gateway)

// WithLogger sets the gateway's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGeneratorStats wires the executor's counters into metrics and the
// status endpoint.
func WithGeneratorStats(stats func() generator.Stats) Option {
	return func(g *Gateway) { g.stats = stats }
}

// WithCorpusPing wires a corpus connectivity probe into the health
// endpoint.
func WithCorpusPing(ping func(ctx context.Context) error) Option {
	return func(g *Gateway) { g.ping = ping }
}

// WithVersion stamps the build version into status responses.
func WithVersion(version string) Option {
	return func(g *Gateway) { g.version = version }
}

// Gateway is the HTTP server over the interview engine. Turns are
// processed through the session manager; the session store is read
// directly for health, metrics, and admin views.
type Gateway struct {
	config   Config
	logger   *slog.Logger
	manager  *session.Manager
	sessions *session.Store
	metrics  *Metrics

	stats   func() generator.Stats
	ping    func(ctx context.Context) error
	version string

	server    *http.Server
	startedAt time.Time
}

// New creates a Gateway over the manager and store.
func New(cfg Config, manager *session.Manager, sessions *session.Store, opts ...Option) (*Gateway, error) {
	if manager == nil {
		return nil, errors.New("gateway: session manager is required")
	}
	if sessions == nil {
		return nil, errors.New("gateway: session store is required")
	}

	cfg.defaults()
	g := &Gateway{
		config:   cfg,
		logger:   slog.New(nopHandler{}),
		manager:  manager,
		sessions: sessions,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.metrics = newMetrics(sessions, g.stats)
	return g, nil
}

// Start binds the listener and serves in the background.
func (g *Gateway) Start() error {
	if _, err := net.ResolveTCPAddr("tcp", g.config.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + g.config.Bind)
	}

	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the server down within the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
