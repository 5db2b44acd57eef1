package app

import (
	"context"
	"log/slog"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/parley-dev/parley/internal/affairs"
	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/corpus"
	"github.com/parley-dev/parley/internal/cron"
	"github.com/parley-dev/parley/internal/gateway"
	"github.com/parley-dev/parley/internal/generator"
	"github.com/parley-dev/parley/internal/interview"
	"github.com/parley-dev/parley/internal/qcache"
	"github.com/parley-dev/parley/internal/refselect"
	"github.com/parley-dev/parley/internal/session"
	"github.com/parley-dev/parley/internal/telemetry"
	"github.com/parley-dev/parley/modules/corpus/sqlite"
	"github.com/parley-dev/parley/modules/generator/anthropic"
	"github.com/parley-dev/parley/modules/generator/openai"
	"github.com/parley-dev/parley/modules/generator/script"
)

// stopTimeout bounds the whole teardown: gateway drain, in-flight cron
// jobs, and the trace exporter flush share it.
const stopTimeout = 15 * time.Second

// engine holds the running components in start order. buildEngine
// constructs everything; start and stop drive the pieces with their own
// lifecycles (scheduler, HTTP server, tracer, corpus handle).
type engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	logLevel *slog.LevelVar

	tracer      *sdktrace.TracerProvider
	closeCorpus func() error
	sessions    *session.Store
	pool        *generator.KeyPool
	cron        *cron.Scheduler
	gateway     *gateway.Gateway
}

// buildEngine wires the full engine from a validated configuration:
// telemetry, the question corpus, the generation pipeline, the
// interview controller, the session layer, maintenance jobs, and the
// HTTP gateway.
func buildEngine(cfg *config.Config, version string) (*engine, error) {
	logLevel := new(slog.LevelVar)
	lv, err := telemetry.ParseLevel(cfg.Telemetry.LogLevel)
	if err != nil {
		return nil, err
	}
	logLevel.Set(lv)

	secrets := append([]string{}, cfg.Generator.APIKeys...)
	secrets = append(secrets, cfg.Server.Auth.BearerToken, cfg.Server.Auth.BasicPass)
	redactor := telemetry.NewRedactor(secrets...)
	logger := telemetry.NewLogger(logLevel, redactor)

	tracer, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry.OTLPEndpoint, version)
	if err != nil {
		return nil, err
	}

	eng := &engine{
		cfg:      cfg,
		logger:   logger,
		logLevel: logLevel,
		tracer:   tracer,
	}

	var store corpus.Store
	var ping func(ctx context.Context) error
	switch cfg.Corpus.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Corpus.Path)
		if err != nil {
			eng.stop()
			return nil, err
		}
		store = db
		ping = db.Ping
		eng.closeCorpus = db.Close
	default: // "memory", vetted by config.Validate
		store = corpus.NewInMemoryStore()
	}

	var invoker generator.Invoker
	switch cfg.Generator.Backend {
	case "script":
		invoker = script.New()
	case "openai":
		invoker = openai.New(openai.Config{
			Model:     cfg.Generator.Model,
			MaxTokens: cfg.Generator.MaxTokens,
		}, openai.WithLogger(logger))
	default: // "anthropic", vetted by config.Validate
		invoker = anthropic.New(anthropic.Config{
			Model:     cfg.Generator.Model,
			MaxTokens: cfg.Generator.MaxTokens,
		}, anthropic.WithLogger(logger))
	}

	eng.pool = generator.NewKeyPool(cfg.Generator.APIKeys)
	executor, err := generator.NewExecutor(invoker, eng.pool,
		generator.WithLogger(logger),
		generator.WithMaxAttempts(cfg.Generator.MaxAttempts),
		generator.WithBaseDelay(cfg.Generator.BaseDelay),
	)
	if err != nil {
		eng.stop()
		return nil, err
	}

	cache := qcache.New()
	selector := refselect.New(store, cache, refselect.Config{},
		refselect.WithLogger(logger),
		refselect.WithBackgroundDetector(refselect.NewInsightDetector(executor, logger)),
	)
	affairsSched := affairs.New(executor, affairs.Config{}, affairs.WithLogger(logger))

	controller, err := interview.New(executor, interviewConfig(cfg.Interview),
		interview.WithLogger(logger),
		interview.WithReferenceSelector(selector),
		interview.WithAffairsScheduler(affairsSched),
	)
	if err != nil {
		eng.stop()
		return nil, err
	}

	eng.sessions = session.NewStore()
	eng.sessions.SetMaxSessions(cfg.Sessions.MaxSessions)
	manager := session.NewManager(eng.sessions, controller, session.WithLogger(logger))

	eng.cron = cron.NewScheduler(logger)
	cleanup := &cron.SessionCleanupJob{
		Store:        eng.sessions,
		MaxIdle:      cfg.Sessions.MaxIdle,
		Logger:       logger,
		ScheduleExpr: cfg.Cron.SessionCleanup,
	}
	sweep := &cron.CacheSweepJob{
		Cache:        cache,
		Logger:       logger,
		ScheduleExpr: cfg.Cron.CacheSweep,
	}
	for _, job := range []cron.Job{cleanup, sweep} {
		if err := eng.cron.RegisterJob(job); err != nil {
			eng.stop()
			return nil, err
		}
	}

	opts := []gateway.Option{
		gateway.WithLogger(logger),
		gateway.WithGeneratorStats(executor.Stats),
		gateway.WithVersion(version),
	}
	if ping != nil {
		opts = append(opts, gateway.WithCorpusPing(ping))
	}
	gw, err := gateway.New(gatewayConfig(cfg.Server), manager, eng.sessions, opts...)
	if err != nil {
		eng.stop()
		return nil, err
	}
	eng.gateway = gw

	return eng, nil
}

// start brings the scheduler and the HTTP server up.
func (e *engine) start() error {
	if err := e.cron.Start(); err != nil {
		return err
	}
	if err := e.gateway.Start(); err != nil {
		return err
	}
	e.logger.Info("parley started",
		"bind", e.cfg.Server.Bind,
		"backend", e.cfg.Generator.Backend,
		"corpus", e.cfg.Corpus.Driver,
	)
	return nil
}

// stop tears the engine down in reverse start order: stop accepting
// requests, stop the scheduler, flush traces, close the corpus.
// Components that never came up are skipped, so stop is safe after a
// partial build.
func (e *engine) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if e.gateway != nil {
		if err := e.gateway.Stop(ctx); err != nil {
			e.logger.Error("gateway shutdown", "error", err)
		}
	}
	if e.cron != nil {
		if err := e.cron.Stop(ctx); err != nil {
			e.logger.Error("cron shutdown", "error", err)
		}
	}
	if e.tracer != nil {
		if err := e.tracer.Shutdown(ctx); err != nil {
			e.logger.Error("tracer shutdown", "error", err)
		}
	}
	if e.closeCorpus != nil {
		if err := e.closeCorpus(); err != nil {
			e.logger.Error("corpus close", "error", err)
		}
	}
}

// gatewayConfig maps the server section onto the gateway's own config.
func gatewayConfig(c config.ServerConfig) gateway.Config {
	return gateway.Config{
		Bind: c.Bind,
		Auth: gateway.AuthConfig{
			BearerToken: c.Auth.BearerToken,
			BasicUser:   c.Auth.BasicUser,
			BasicPass:   c.Auth.BasicPass,
		},
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
	}
}

// interviewConfig maps the interview section onto the controller's
// config. Zero fields fall through to the controller's defaults.
func interviewConfig(c config.InterviewConfig) interview.Config {
	return interview.Config{
		MinQuestions: c.MinQuestions,
		HRMinimum:    c.HRMinimum,
		SoftCap:      c.SoftCap,
		ScoreWindow:  c.ScoreWindow,
		LowAverage:   c.LowAverage,
		HighAverage:  c.HighAverage,
	}
}
