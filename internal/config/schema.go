// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for parley.
package config

import "time"

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Server    ServerConfig    `yaml:"server"`
	Generator GeneratorConfig `yaml:"generator"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Interview InterviewConfig `yaml:"interview"`
	Cron      CronConfig      `yaml:"cron"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// defaults fills zero values throughout the tree.
func (c *Config) defaults() {
	c.Server.defaults()
	c.Generator.defaults()
	c.Corpus.defaults()
	c.Sessions.defaults()
	c.Telemetry.defaults()
}

// ServerConfig holds HTTP gateway settings.
type ServerConfig struct {
	Bind            string        `yaml:"bind"`
	Auth            AuthConfig    `yaml:"auth"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func (c *ServerConfig) defaults() {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		// Turn generation is slow; give responses room.
		c.WriteTimeout = 120 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// AuthConfig configures authentication for admin endpoints.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
	BasicUser   string `yaml:"basic_user"`
	BasicPass   string `yaml:"basic_pass"`
}

// IsConfigured returns true if any auth method is configured.
func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != "" || (a.BasicUser != "" && a.BasicPass != "")
}

// GeneratorConfig selects and tunes the generation backend.
type GeneratorConfig struct {
	// Backend is "anthropic", "openai", or "script".
	Backend string `yaml:"backend"`

	Model string `yaml:"model"`

	// APIKeys rotate across retry attempts. The hosted backends
	// require at least one.
	APIKeys []string `yaml:"api_keys"`

	MaxTokens   int           `yaml:"max_tokens"`
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

func (c *GeneratorConfig) defaults() {
	if c.Backend == "" {
		c.Backend = "anthropic"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 1 * time.Second
	}
}

// CorpusConfig selects the question corpus store.
type CorpusConfig struct {
	// Driver is "sqlite" or "memory".
	Driver string `yaml:"driver"`

	// Path is the SQLite database file. Ignored by the memory driver.
	Path string `yaml:"path"`
}

func (c *CorpusConfig) defaults() {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.Path == "" {
		c.Path = "parley.db"
	}
}

// SessionsConfig bounds the in-memory session store.
type SessionsConfig struct {
	// MaxSessions caps concurrent sessions. Zero means unlimited.
	MaxSessions int `yaml:"max_sessions"`

	// MaxIdle is how long an untouched session survives before the
	// cleanup job prunes it.
	MaxIdle time.Duration `yaml:"max_idle"`
}

func (c *SessionsConfig) defaults() {
	if c.MaxIdle <= 0 {
		c.MaxIdle = 2 * time.Hour
	}
}

// InterviewConfig tunes conversation policy. Zero values defer to the
// controller's own defaults.
type InterviewConfig struct {
	MinQuestions int     `yaml:"min_questions"`
	HRMinimum    int     `yaml:"hr_minimum"`
	SoftCap      int     `yaml:"soft_cap"`
	ScoreWindow  int     `yaml:"score_window"`
	LowAverage   float64 `yaml:"low_average"`
	HighAverage  float64 `yaml:"high_average"`
}

// CronConfig overrides maintenance job schedules. Empty fields keep the
// jobs' built-in schedules.
type CronConfig struct {
	SessionCleanup string `yaml:"session_cleanup"`
	CacheSweep     string `yaml:"cache_sweep"`
}

// TelemetryConfig controls logging and tracing.
type TelemetryConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// OTLPEndpoint enables trace export when set (host:port of an
	// OTLP/HTTP collector).
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

func (c *TelemetryConfig) defaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
