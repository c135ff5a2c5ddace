// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_AllFields(t *testing.T) {
	clearEnv(t)
	envVars := map[string]string{
		"CONFIG":                  "/path/to/config.json",
		"APP_VERSION":             "1.4.0",
		"STORAGE_DB_DSN":          "file:fieldsync.db",
		"ADAPTER_ADDRESS":         "https://sync.example.com",
		"ADAPTER_REQUEST_TIMEOUT": "15s",
		"ADAPTER_RETRY_COUNT":     "3",
		"WORKERS_SYNC_INTERVAL":   "2m",
		"WORKERS_BACKOFF_LADDER":  "10s,20s,40s",
		"HOOKS_ADDRESS":           "127.0.0.1:9999",
		"LOG_FILE_PATH":           "/var/log/fieldsync.log",
		"LOG_MAX_SIZE_MB":         "25",
	}
	for k, v := range envVars {
		t.Setenv(k, v)
	}

	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)
	assert.Equal(t, "1.4.0", cfg.App.Version)
	assert.Equal(t, "file:fieldsync.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "https://sync.example.com", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 15*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, 3, cfg.Adapter.RetryCount)
	assert.Equal(t, 2*time.Minute, cfg.Workers.SyncInterval)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second, 40 * time.Second}, cfg.Workers.BackoffLadder)
	assert.Equal(t, "127.0.0.1:9999", cfg.Hooks.Address)
	assert.Equal(t, "/var/log/fieldsync.log", cfg.Log.FilePath)
	assert.Equal(t, 25, cfg.Log.MaxSizeMB)
}

func TestParseEnv_InvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADAPTER_REQUEST_TIMEOUT", "soon")

	err := parseEnv(&StructuredConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error getting env configs")
}

func TestParseEnv_Empty(t *testing.T) {
	clearEnv(t)

	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))
	assert.Equal(t, &StructuredConfig{}, cfg)
}
