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
	Convert  ConvertConfig
	Batch    BatchConfig
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// ConvertConfig holds pipeline settings shared by every entry point.
type ConvertConfig struct {
	// Subjects is the ordered list of subject keys to expand (default: ela,math,science)
	Subjects []string `env:"MCAS_SUBJECTS" default:"ela,math,science"`

	// Policy controls unknown performance level codes: fail or passthrough (default: fail)
	Policy string `env:"PERF_LEVEL_POLICY" default:"fail"`

	// Filename is the single-file input used when no --filename flag is given
	Filename string `env:"MCAS_FILENAME"`

	// OutputDir is where single-file output is written (default: current directory)
	OutputDir string `env:"CONVERT_OUTPUT_DIR" default:"."`
}

// BatchConfig holds folder conversion settings.
type BatchConfig struct {
	// InputDir is scanned for *.csv files (default: dummy_data)
	InputDir string `env:"BATCH_INPUT_DIR" default:"dummy_data"`

	// OutputDir receives converted files; created if missing (default: processed_data)
	OutputDir string `env:"BATCH_OUTPUT_DIR" default:"processed_data"`

	// Workers is the number of files converted in parallel (default: 4)
	Workers int `env:"BATCH_WORKERS" default:"4"`

	// FailFast stops the batch at the first failed file (default: false)
	FailFast bool `env:"BATCH_FAIL_FAST" default:"false"`

	// MaxFileSize is the maximum input size in bytes (default: 100MB)
	MaxFileSize int64 `env:"BATCH_MAX_FILE_SIZE" default:"104857600"`

	// OutputSuffix is appended to each input stem (default: _batchprocessed)
	OutputSuffix string `env:"BATCH_OUTPUT_SUFFIX" default:"_batchprocessed"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxUploadSize is the largest accepted request body in bytes (default: 32MB)
	MaxUploadSize int64 `env:"SERVER_MAX_UPLOAD_SIZE" default:"33554432"`

	// MaxConcurrent is the number of conversions run at once (default: 4)
	MaxConcurrent int `env:"SERVER_MAX_CONCURRENT" default:"4"`

	// QueueWait is how long a request waits for a conversion slot (default: 30s)
	QueueWait time.Duration `env:"SERVER_QUEUE_WAIT" default:"30s"`
}

// DatabaseConfig holds database connection settings.
// The database is optional: with no URL, converted rows are only written to files.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database URL is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
