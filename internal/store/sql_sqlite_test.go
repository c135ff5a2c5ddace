package store

import (
	"context"
	"database/sql/driver"
	"os"
	"path/filepath"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/field-sync/internal/config"
	"github.com/MKhiriev/field-sync/internal/logger"
)

func sqlmockResult(rows int64) driver.Result {
	return sqlmock.NewResult(0, rows)
}

func TestDBFilePath(t *testing.T) {
	tests := []struct {
		dsn    string
		want   string
		wantOK bool
	}{
		{dsn: "fieldsync.db", want: "fieldsync.db", wantOK: true},
		{dsn: "data/fieldsync.db?_journal_mode=WAL", want: "data/fieldsync.db", wantOK: true},
		{dsn: ":memory:"},
		{dsn: "file:fieldsync.db?cache=shared"},
		{dsn: ""},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			got, ok := dbFilePath(tt.dsn)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithBusyTimeout(t *testing.T) {
	assert.Equal(t, "a.db?_busy_timeout=5000", withBusyTimeout("a.db"))
	assert.Equal(t, "a.db?_journal_mode=WAL&_busy_timeout=5000", withBusyTimeout("a.db?_journal_mode=WAL"))
	assert.Equal(t, "a.db?_busy_timeout=10", withBusyTimeout("a.db?_busy_timeout=10"))
}

func TestNewClientStorages_CreatesFileAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fieldsync.db")

	storages, err := NewClientStorages(context.Background(), config.Storage{DB: config.DB{DSN: path}}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { storages.Close() })

	_, err = os.Stat(path)
	require.NoError(t, err)

	count, err := storages.MutationQueue.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NotNil(t, storages.EntityRepository)
	assert.NotNil(t, storages.SyncMetaRepository)
}
