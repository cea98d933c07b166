// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Split    SplitConfig
	Results  ResultsConfig
	Database DatabaseConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080" validate:"min=1,max=65535"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s" validate:"gte=0"`

	// WriteTimeout is the maximum duration for writing response (default: 2m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m" validate:"gte=0"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s" validate:"gte=0"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s" validate:"gt=0"`

	// RequestTimeout is the middleware timeout for requests (default: 2m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"2m" validate:"gt=0"`
}

// UploadConfig bounds what a single request may submit and how many runs
// may execute at once.
type UploadConfig struct {
	// MaxFileSize is the maximum request body size in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800" validate:"gt=0"`

	// MaxFiles caps the number of workbooks in one unlock batch (default: 20)
	MaxFiles int `env:"UPLOAD_MAX_FILES" default:"20" validate:"gt=0"`

	// MaxConcurrent is the maximum number of runs processed in parallel (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5" validate:"gt=0"`

	// MaxWaitTime is how long to wait for a job slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s" validate:"gt=0"`

	// Timeout is the maximum duration for a single run (default: 5m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"5m" validate:"gt=0"`
}

// SplitConfig holds the defaults for split runs. Requests may override
// Separator, KeepEmpty and E164.
type SplitConfig struct {
	Separator string `env:"SPLIT_SEPARATOR" default:","`

	// KeepEmpty keeps identifiers with no valid number as empty rows (default: true)
	KeepEmpty bool `env:"SPLIT_KEEP_EMPTY" default:"true"`

	// E164 renders valid numbers as +63... instead of 0... (default: false)
	E164 bool `env:"SPLIT_E164" default:"false"`

	// Workers is the worker count for large inputs (default: 4)
	Workers int `env:"SPLIT_WORKERS" default:"4" validate:"gt=0,lte=256"`

	// ParallelThreshold is the record count above which workers are used (default: 5000)
	ParallelThreshold int `env:"SPLIT_PARALLEL_THRESHOLD" default:"5000" validate:"gte=0"`

	// PreviewRows is how many rows the results page shows (default: 10)
	PreviewRows int `env:"SPLIT_PREVIEW_ROWS" default:"10" validate:"gte=0"`
}

// ResultsConfig controls how long finished runs stay downloadable.
type ResultsConfig struct {
	// TTL is how long a run's output is kept in memory (default: 30m)
	TTL time.Duration `env:"RESULTS_TTL" default:"30m" validate:"gt=0"`

	// MaxRuns is the cap on cached runs; oldest are evicted first (default: 100)
	MaxRuns int `env:"RESULTS_MAX_RUNS" default:"100" validate:"gt=0"`

	// SweepInterval is how often expired runs are purged (default: 1m)
	SweepInterval time.Duration `env:"RESULTS_SWEEP_INTERVAL" default:"1m" validate:"gt=0"`
}

// DatabaseConfig holds database connection settings.
// The database is optional; without a URL run history is kept in memory.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10" validate:"gt=0"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0" validate:"gte=0"`

	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// ConnectTimeout bounds the startup retry loop (default: 20s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"20s" validate:"gt=0"`

	// HistorySize caps the in-memory history when no URL is set (default: 1000)
	HistorySize int `env:"HISTORY_MEMORY_SIZE" default:"1000" validate:"gt=0"`
}

// Enabled reports whether a database URL was configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for split and unlock submissions (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enforces an API key on the JSON API under /api only.
	// The HTML pages and their download links stay open (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
