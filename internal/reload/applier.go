package reload

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/telemetry"
)

// SessionLimiter is the slice of the session store the applier adjusts.
type SessionLimiter interface {
	SetMaxSessions(limit int)
}

// KeySwapper is the slice of the generator key pool the applier adjusts.
type KeySwapper interface {
	Swap(keys []string)
}

// Applier folds a freshly loaded configuration into the running engine.
// Only settings that can change without a restart are applied: the log
// level, the session cap, and the generator API keys. Changes to
// anything else are logged as requiring a restart and otherwise left
// alone.
type Applier struct {
	logger   *slog.Logger
	level    *slog.LevelVar
	sessions SessionLimiter
	keys     KeySwapper
	current  *config.Config
}

// NewApplier creates an applier over the running engine's adjustable
// parts. current is the configuration the engine started with; level,
// sessions, and keys may be nil when the corresponding component is
// not in play (the script backend has no key pool).
func NewApplier(logger *slog.Logger, level *slog.LevelVar, sessions SessionLimiter, keys KeySwapper, current *config.Config) *Applier {
	if logger == nil {
		logger = slog.New(nopHandler{})
	}
	return &Applier{
		logger:   logger,
		level:    level,
		sessions: sessions,
		keys:     keys,
		current:  current,
	}
}

// Apply loads the configuration at path, validates it, and applies the
// live-tunable settings. An invalid file leaves the engine untouched
// and returns the validation error, so a bad edit never degrades a
// running instance.
func (a *Applier) Apply(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reload cancelled: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	a.applyLive(cfg)
	a.reportRestartRequired(cfg)
	a.current = cfg

	a.logger.Info("configuration reloaded", "path", path)
	return nil
}

func (a *Applier) applyLive(cfg *config.Config) {
	if a.level != nil && cfg.Telemetry.LogLevel != a.current.Telemetry.LogLevel {
		// Validate has already vetted the level string.
		if lv, err := telemetry.ParseLevel(cfg.Telemetry.LogLevel); err == nil {
			a.level.Set(lv)
			a.logger.Info("log level changed",
				"from", a.current.Telemetry.LogLevel,
				"to", cfg.Telemetry.LogLevel)
		}
	}

	if a.sessions != nil && cfg.Sessions.MaxSessions != a.current.Sessions.MaxSessions {
		a.sessions.SetMaxSessions(cfg.Sessions.MaxSessions)
		a.logger.Info("session cap changed",
			"from", a.current.Sessions.MaxSessions,
			"to", cfg.Sessions.MaxSessions)
	}

	if a.keys != nil && !slices.Equal(cfg.Generator.APIKeys, a.current.Generator.APIKeys) {
		a.keys.Swap(cfg.Generator.APIKeys)
		a.logger.Info("generator api keys rotated", "count", len(cfg.Generator.APIKeys))
	}
}

// reportRestartRequired warns about changed sections the running engine
// cannot pick up. The new values still become the applier's baseline so
// repeated reloads do not repeat the warnings.
func (a *Applier) reportRestartRequired(cfg *config.Config) {
	if cfg.Server != a.current.Server {
		a.logger.Warn("server settings changed; restart required to apply", "section", "server")
	}
	if generatorChanged(cfg.Generator, a.current.Generator) {
		a.logger.Warn("generator settings changed; restart required to apply", "section", "generator")
	}
	if cfg.Corpus != a.current.Corpus {
		a.logger.Warn("corpus settings changed; restart required to apply", "section", "corpus")
	}
	if cfg.Interview != a.current.Interview {
		a.logger.Warn("interview settings changed; restart required to apply", "section", "interview")
	}
	if cfg.Cron != a.current.Cron {
		a.logger.Warn("cron schedules changed; restart required to apply", "section", "cron")
	}
	if cfg.Sessions.MaxIdle != a.current.Sessions.MaxIdle {
		a.logger.Warn("session max_idle changed; restart required to apply", "section", "sessions")
	}
	if cfg.Telemetry.OTLPEndpoint != a.current.Telemetry.OTLPEndpoint {
		a.logger.Warn("otlp endpoint changed; restart required to apply", "section", "telemetry")
	}
}

// generatorChanged compares generator sections ignoring APIKeys, which
// the applier rotates live.
func generatorChanged(next, prev config.GeneratorConfig) bool {
	return next.Backend != prev.Backend ||
		next.Model != prev.Model ||
		next.MaxTokens != prev.MaxTokens ||
		next.MaxAttempts != prev.MaxAttempts ||
		next.BaseDelay != prev.BaseDelay
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (nopHandler) Handle(context.Context, slog.Record) error { return nil }

func (nopHandler) WithAttrs([]slog.Attr) slog.Handler { return nopHandler{} }

func (nopHandler) WithGroup(string) slog.Handler { return nopHandler{} }
