// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the configuration of the field-sync client. It is
// assembled from environment variables, command-line flags and an optional
// JSON file, then completed with defaults and validated.
//
// Struct tags:
//   - envPrefix: prefix applied to nested env lookups (caarlos0/env).
//   - env: environment variable name of a scalar field.
type StructuredConfig struct {
	App App `envPrefix:"APP_"`

	// Storage holds the local SQLite database settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter holds the remote sync endpoint settings.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds the background sync cadence and retry ladder.
	Workers Workers `envPrefix:"WORKERS_"`

	// Hooks holds the loopback address the host platform calls to report
	// lifecycle events.
	Hooks Hooks `envPrefix:"HOOKS_"`

	Log Log `envPrefix:"LOG_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level values.
type App struct {
	// Version is reported by the status endpoint.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups local persistence settings.
type Storage struct {
	DB DB `envPrefix:"DB_"`
}

// DB holds the SQLite connection settings.
type DB struct {
	// DSN is the SQLite file path or URI (e.g. "file:fieldsync.db?_busy_timeout=5000").
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Adapter configures the HTTP client talking to the sync server.
type Adapter struct {
	// HTTPAddress is the base URL of the sync server. A missing scheme
	// defaults to http.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single push/pull round trip.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// RetryCount is the number of transport-level retries per request.
	// Env: ADAPTER_RETRY_COUNT
	RetryCount int `env:"RETRY_COUNT"`
}

// Workers configures the background sync job.
type Workers struct {
	// SyncInterval is how often the background trigger fires.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// BackoffLadder is the sequence of delays applied after consecutive
	// unattended failures. The last step repeats.
	// Env: WORKERS_BACKOFF_LADDER (comma-separated, e.g. "60s,120s")
	BackoffLadder []time.Duration `env:"BACKOFF_LADDER" envSeparator:","`
}

// Hooks configures the host lifecycle hook listener.
type Hooks struct {
	// Address is the host:port the hook server listens on.
	// Env: HOOKS_ADDRESS
	Address string `env:"ADDRESS"`
}

// Log configures client log output.
type Log struct {
	// FilePath of the rotating log file. Empty logs to stdout.
	// Env: LOG_FILE_PATH
	FilePath string `env:"FILE_PATH"`

	// MaxSizeMB is the rotation threshold.
	// Env: LOG_MAX_SIZE_MB
	MaxSizeMB int `env:"MAX_SIZE_MB"`
}

// GetStructuredConfig loads the configuration from the process environment
// and the given command-line arguments (without the program name).
//
// For every field the first non-zero value wins, in this order:
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Defaults
func GetStructuredConfig(args []string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(args).
		withJSON().
		withDefaults().
		build()
}
