package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_Success(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	jsonBody := `{
		"app": {"version": "2.0.0"},
		"storage": {"db": {"dsn": "fieldsync.db"}},
		"adapter": {"http_address": "https://sync.example.com", "request_timeout": "20s", "retry_count": 1},
		"workers": {"sync_interval": "10m", "backoff_ladder": ["30s", "1m"]},
		"hooks": {"address": "127.0.0.1:7001"},
		"log": {"file_path": "client.log", "max_size_mb": 5}
	}`
	require.NoError(t, os.WriteFile(p, []byte(jsonBody), 0o600))

	cfg, err := parseJSON(p)
	require.NoError(t, err)

	assert.Equal(t, "2.0.0", cfg.App.Version)
	assert.Equal(t, "fieldsync.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "https://sync.example.com", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 20*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, 1, cfg.Adapter.RetryCount)
	assert.Equal(t, 10*time.Minute, cfg.Workers.SyncInterval)
	assert.Equal(t, []time.Duration{30 * time.Second, time.Minute}, cfg.Workers.BackoffLadder)
	assert.Equal(t, "127.0.0.1:7001", cfg.Hooks.Address)
	assert.Equal(t, "client.log", cfg.Log.FilePath)
	assert.Equal(t, 5, cfg.Log.MaxSizeMB)
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseJSON_Errors(t *testing.T) {
	_, err := parseJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "error reading a json file")

	p := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"adapter": {"request_timeout": "soon"}}`), 0o600))
	_, err = parseJSON(p)
	assert.ErrorContains(t, err, "error decoding json configs")
}

func TestDuration_JSON(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, Duration(90*time.Second), d)

	require.NoError(t, d.UnmarshalJSON([]byte(`1000000000`)))
	assert.Equal(t, Duration(time.Second), d)

	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))

	out, err := Duration(2 * time.Second).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2s"`, string(out))
}
