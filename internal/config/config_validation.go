// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "fmt"

// validate checks the merged configuration before it is used at startup.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 || cfg.Adapter.RetryCount < 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval <= 0 || len(cfg.Workers.BackoffLadder) == 0 {
		return ErrInvalidWorkerConfigs
	}
	for i, step := range cfg.Workers.BackoffLadder {
		if step <= 0 {
			return fmt.Errorf("%w: backoff step %d is %s", ErrInvalidWorkerConfigs, i, step)
		}
	}

	if cfg.Hooks.Address == "" {
		return ErrInvalidHooksConfigs
	}

	if cfg.Log.MaxSizeMB < 0 {
		return ErrInvalidLogConfigs
	}

	return nil
}
