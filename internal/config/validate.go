package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts the same 5-field expressions the maintenance
// scheduler runs.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks the structural validity of a Config. All problems are
// reported at once as joined errors.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	errs = append(errs, validateServer(cfg.Server)...)
	errs = append(errs, validateGenerator(cfg.Generator)...)
	errs = append(errs, validateCorpus(cfg.Corpus)...)
	errs = append(errs, validateSessions(cfg.Sessions)...)
	errs = append(errs, validateInterview(cfg.Interview)...)
	errs = append(errs, validateCron(cfg.Cron)...)
	errs = append(errs, validateTelemetry(cfg.Telemetry)...)

	return errors.Join(errs...)
}

func validateServer(c ServerConfig) []error {
	var errs []error

	if c.Bind == "" {
		errs = append(errs, errors.New("config: server.bind is required"))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("config: server timeouts must not be negative"))
	}
	if (c.Auth.BasicUser == "") != (c.Auth.BasicPass == "") {
		errs = append(errs, errors.New("config: server.auth basic_user and basic_pass must be set together"))
	}

	return errs
}

func validateGenerator(c GeneratorConfig) []error {
	var errs []error

	switch c.Backend {
	case "anthropic", "openai":
		if len(c.APIKeys) == 0 {
			errs = append(errs, fmt.Errorf("config: generator.api_keys is required for the %s backend", c.Backend))
		}
		for i, key := range c.APIKeys {
			if strings.TrimSpace(key) == "" {
				errs = append(errs, fmt.Errorf("config: generator.api_keys[%d] is empty", i))
			}
		}
	case "script":
		// Offline backend, no credentials.
	case "":
		errs = append(errs, errors.New("config: generator.backend is required"))
	default:
		errs = append(errs, fmt.Errorf("config: unknown generator backend %q (supported: anthropic, openai, script)", c.Backend))
	}

	if c.MaxTokens < 0 {
		errs = append(errs, errors.New("config: generator.max_tokens must not be negative"))
	}
	if c.MaxAttempts < 0 {
		errs = append(errs, errors.New("config: generator.max_attempts must not be negative"))
	}

	return errs
}

func validateCorpus(c CorpusConfig) []error {
	var errs []error

	switch c.Driver {
	case "sqlite":
		if c.Path == "" {
			errs = append(errs, errors.New("config: corpus.path is required for the sqlite driver"))
		}
	case "memory":
	case "":
		errs = append(errs, errors.New("config: corpus.driver is required"))
	default:
		errs = append(errs, fmt.Errorf("config: unknown corpus driver %q (supported: sqlite, memory)", c.Driver))
	}

	return errs
}

func validateSessions(c SessionsConfig) []error {
	var errs []error

	if c.MaxSessions < 0 {
		errs = append(errs, errors.New("config: sessions.max_sessions must not be negative"))
	}
	if c.MaxIdle < 0 {
		errs = append(errs, errors.New("config: sessions.max_idle must not be negative"))
	}

	return errs
}

func validateInterview(c InterviewConfig) []error {
	var errs []error

	if c.MinQuestions < 0 || c.HRMinimum < 0 || c.SoftCap < 0 || c.ScoreWindow < 0 {
		errs = append(errs, errors.New("config: interview counts must not be negative"))
	}
	if c.LowAverage < 0 || c.LowAverage > 10 || c.HighAverage < 0 || c.HighAverage > 10 {
		errs = append(errs, errors.New("config: interview averages must be within 0..10"))
	}
	if c.LowAverage > 0 && c.HighAverage > 0 && c.LowAverage >= c.HighAverage {
		errs = append(errs, fmt.Errorf("config: interview.low_average (%v) must be below high_average (%v)", c.LowAverage, c.HighAverage))
	}

	return errs
}

func validateCron(c CronConfig) []error {
	var errs []error

	if c.SessionCleanup != "" {
		if _, err := scheduleParser.Parse(c.SessionCleanup); err != nil {
			errs = append(errs, fmt.Errorf("config: cron.session_cleanup: %w", err))
		}
	}
	if c.CacheSweep != "" {
		if _, err := scheduleParser.Parse(c.CacheSweep); err != nil {
			errs = append(errs, fmt.Errorf("config: cron.cache_sweep: %w", err))
		}
	}

	return errs
}

func validateTelemetry(c TelemetryConfig) []error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return []error{fmt.Errorf("config: unknown log level %q (supported: debug, info, warn, error)", c.LogLevel)}
	}
}
