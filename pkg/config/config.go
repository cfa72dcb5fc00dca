// Package config reads homebase settings from the environment. A .env file
// in the working directory, or the file named by HOMEBASE_ENV_FILE, is loaded
// first; variables already set in the process win.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database driver names accepted in DATABASE_DRIVER.
const (
	DriverAuto     = "auto"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	AppEnv    string
	LogLevel  string
	LogFormat string
	// ContextID is the household every command and query is scoped to.
	ContextID string
	Timezone  string

	DatabaseURL    string
	DatabaseDriver string
	SQLitePath     string
	LocalMode      bool

	RedisURL       string
	AgendaCacheTTL time.Duration

	RabbitMQURL string

	CalDAVURL          string
	CalDAVUsername     string
	CalDAVPassword     string
	CalDAVCalendarPath string

	TransitionThresholdMinutes int
	DefaultDurationMinutes     int
	SourceBreakerFailures      int
	SourceBreakerTimeout       time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxRetries   int
	OutboxRetention    time.Duration

	WorkerHealthAddr string
}

// Load reads the environment. Every malformed or out-of-range variable is
// reported in the returned error.
func Load() (*Config, error) {
	if path := os.Getenv("HOMEBASE_ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	} else {
		_ = godotenv.Load()
	}

	var env environment
	databaseURL := env.str("DATABASE_URL", "")

	cfg := &Config{
		AppEnv:    env.str("APP_ENV", "development"),
		LogLevel:  strings.ToLower(env.str("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(env.str("LOG_FORMAT", "text")),
		ContextID: env.str("HOMEBASE_CONTEXT_ID", "household"),
		Timezone:  env.str("HOMEBASE_TIMEZONE", "Local"),

		DatabaseURL:    databaseURL,
		DatabaseDriver: strings.ToLower(env.str("DATABASE_DRIVER", DriverAuto)),
		SQLitePath:     env.str("SQLITE_PATH", defaultSQLitePath()),
		LocalMode:      env.boolean("HOMEBASE_LOCAL_MODE", databaseURL == ""),

		RedisURL:       env.str("REDIS_URL", ""),
		AgendaCacheTTL: env.duration("AGENDA_CACHE_TTL", 5*time.Minute),

		RabbitMQURL: env.str("RABBITMQ_URL", ""),

		CalDAVURL:          env.str("CALDAV_URL", ""),
		CalDAVUsername:     env.str("CALDAV_USERNAME", ""),
		CalDAVPassword:     env.str("CALDAV_PASSWORD", ""),
		CalDAVCalendarPath: env.str("CALDAV_CALENDAR_PATH", ""),

		TransitionThresholdMinutes: env.integer("TRANSITION_THRESHOLD_MINUTES", 10, 0),
		DefaultDurationMinutes:     env.integer("DEFAULT_DURATION_MINUTES", 30, 1),
		SourceBreakerFailures:      env.integer("SOURCE_BREAKER_FAILURES", 3, 1),
		SourceBreakerTimeout:       env.duration("SOURCE_BREAKER_TIMEOUT", 30*time.Second),

		OutboxPollInterval: env.duration("OUTBOX_POLL_INTERVAL", time.Second),
		OutboxBatchSize:    env.integer("OUTBOX_BATCH_SIZE", 100, 1),
		OutboxMaxRetries:   env.integer("OUTBOX_MAX_RETRIES", 5, 0),
		OutboxRetention:    env.duration("OUTBOX_RETENTION", 7*24*time.Hour),

		WorkerHealthAddr: env.str("WORKER_HEALTH_ADDR", ":8081"),
	}

	if cfg.LocalMode {
		cfg.DatabaseDriver = DriverSQLite
	}

	if err := errors.Join(append(env.errs, cfg.Validate())...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	var errs []error
	switch c.DatabaseDriver {
	case DriverAuto, DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER: unknown driver %q", c.DatabaseDriver))
	}
	if c.IsPostgres() && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL: required for postgres"))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT: want text or json, got %q", c.LogFormat))
	}
	if c.ContextID == "" {
		errs = append(errs, errors.New("HOMEBASE_CONTEXT_ID: must not be empty"))
	}
	if c.Timezone != "" && c.Timezone != "Local" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("HOMEBASE_TIMEZONE: %w", err))
		}
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsSQLite returns true when the SQLite driver is selected.
func (c *Config) IsSQLite() bool {
	return c.DatabaseDriver == DriverSQLite || (c.DatabaseDriver == DriverAuto && c.LocalMode)
}

// IsPostgres returns true when the PostgreSQL driver is selected.
func (c *Config) IsPostgres() bool {
	return c.DatabaseDriver == DriverPostgres || (c.DatabaseDriver == DriverAuto && !c.LocalMode)
}

func (c *Config) HasRedis() bool    { return c.RedisURL != "" }
func (c *Config) HasRabbitMQ() bool { return c.RabbitMQURL != "" }
func (c *Config) HasCalDAV() bool   { return c.CalDAVURL != "" }

// Location resolves Timezone. Load has already rejected unknown zones, so a
// failure here only happens for hand-built configs and falls back to Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// environment reads variables and collects parse errors instead of silently
// falling back to defaults.
type environment struct {
	errs []error
}

func (e *environment) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *environment) integer(key string, def, lowest int) int {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not an integer", key, raw))
		return def
	}
	if n < lowest {
		e.errs = append(e.errs, fmt.Errorf("%s: %d is below %d", key, n, lowest))
		return def
	}
	return n
}

func (e *environment) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a positive duration", key, raw))
		return def
	}
	return d
}

func (e *environment) boolean(key string, def bool) bool {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a boolean", key, raw))
		return def
	}
	return b
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".homebase", "homebase.db")
	}
	return filepath.Join(home, ".homebase", "homebase.db")
}
