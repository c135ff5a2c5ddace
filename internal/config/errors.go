package config

import "errors"

// Validation errors returned by [StructuredConfig.validate].
var (
	// ErrInvalidAdapterConfigs indicates missing server address, a
	// non-positive request timeout or a negative retry count.
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates an empty DSN.
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidWorkerConfigs indicates a zero sync interval or a bad
	// backoff ladder.
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
	ErrInvalidHooksConfigs  = errors.New("invalid hooks configuration")
	ErrInvalidLogConfigs    = errors.New("invalid log configuration")
)
