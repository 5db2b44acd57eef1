package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/parley-dev/parley/internal/affairs"
	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/corpus"
	"github.com/parley-dev/parley/internal/generator"
	"github.com/parley-dev/parley/internal/interview"
	"github.com/parley-dev/parley/internal/qcache"
	"github.com/parley-dev/parley/internal/refselect"
	"github.com/parley-dev/parley/internal/session"
	sqlitecorpus "github.com/parley-dev/parley/modules/corpus/sqlite"
	"github.com/parley-dev/parley/modules/generator/anthropic"
	"github.com/parley-dev/parley/modules/generator/openai"
	"github.com/parley-dev/parley/modules/generator/script"
)

// localOptions configure an engine-local interview stack: the full
// pipeline without the HTTP gateway, cron jobs, or tracing. The practice
// and mcp commands share it.
type localOptions struct {
	// backend is "script" (offline, deterministic), "anthropic", or
	// "openai".
	backend string
	model   string

	// dbPath optionally points at a corpus database. When empty or the
	// file does not exist, an empty in-memory corpus is used and the
	// reference selector simply finds nothing.
	dbPath string
}

// localEngine bundles the wired pieces an in-process interview needs.
type localEngine struct {
	manager  *session.Manager
	sessions *session.Store
	close    func() error
}

func buildLocalEngine(opts localOptions, logger *slog.Logger) (*localEngine, error) {
	var (
		invoker generator.Invoker
		keys    []string
	)
	switch opts.backend {
	case "", "script":
		invoker = script.New()
	case "anthropic":
		config.LoadEnv()
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, errors.New("the anthropic backend requires ANTHROPIC_API_KEY to be set")
		}
		keys = []string{key}
		invoker = anthropic.New(anthropic.Config{Model: opts.model}, anthropic.WithLogger(logger))
	case "openai":
		config.LoadEnv()
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, errors.New("the openai backend requires OPENAI_API_KEY to be set")
		}
		keys = []string{key}
		invoker = openai.New(openai.Config{Model: opts.model}, openai.WithLogger(logger))
	default:
		return nil, fmt.Errorf("unknown backend %q (want script, anthropic, or openai)", opts.backend)
	}

	executor, err := generator.NewExecutor(invoker, generator.NewKeyPool(keys), generator.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	var store corpus.Store = corpus.NewInMemoryStore()
	closeFn := func() error { return nil }
	if opts.dbPath != "" {
		if _, statErr := os.Stat(opts.dbPath); statErr == nil {
			db, err := sqlitecorpus.Open(opts.dbPath)
			if err != nil {
				return nil, err
			}
			store = db
			closeFn = db.Close
		}
	}

	cache := qcache.New()
	selector := refselect.New(store, cache, refselect.Config{},
		refselect.WithLogger(logger),
		refselect.WithBackgroundDetector(refselect.NewInsightDetector(executor, logger)),
	)
	scheduler := affairs.New(executor, affairs.Config{}, affairs.WithLogger(logger))

	controller, err := interview.New(executor, interview.Config{},
		interview.WithLogger(logger),
		interview.WithReferenceSelector(selector),
		interview.WithAffairsScheduler(scheduler),
	)
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	sessions := session.NewStore()
	manager := session.NewManager(sessions, controller, session.WithLogger(logger))

	return &localEngine{manager: manager, sessions: sessions, close: closeFn}, nil
}

// quietLogger returns a logger that keeps warnings and errors visible on
// stderr without drowning interactive output in info noise.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}
