package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/models"
)

func TestSyncMetaRepository_LastSyncTime(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewSyncMetaRepository(db, logger.Nop())

	last, err := repo.LastSyncTime(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	first := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.FixedZone("CET", 3600))
	require.NoError(t, repo.SetLastSyncTime(ctx, nil, first))

	second := first.Add(time.Hour)
	require.NoError(t, db.WithTx(ctx, func(tx *sql.Tx) error {
		return repo.SetLastSyncTime(ctx, tx, second)
	}))

	last, err = repo.LastSyncTime(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, second.Equal(*last))
	assert.Equal(t, time.UTC, last.Location())
}

func TestSyncMetaRepository_SessionToken(t *testing.T) {
	ctx := context.Background()
	repo := NewSyncMetaRepository(newSQLiteDB(t), logger.Nop())

	token, err := repo.SessionToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, repo.SetSessionToken(ctx, "tok-1"))
	require.NoError(t, repo.SetSessionToken(ctx, "tok-2"))

	token, err = repo.SessionToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)

	require.NoError(t, repo.SetSessionToken(ctx, ""))
	token, err = repo.SessionToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, repo.SetSessionToken(ctx, "tok-3"))
	require.NoError(t, repo.ClearSessionToken(ctx))
	token, err = repo.SessionToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSyncMetaRepository_CorruptTimestamp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSyncMetaRepository(db, logger.Nop())

	mock.ExpectQuery("SELECT value FROM sync_meta WHERE key = ?").
		WithArgs(metaKeyLastSyncTime).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("yesterday"))

	_, err := repo.LastSyncTime(context.Background())
	assert.ErrorIs(t, err, ErrScanningRow)
}

func TestSyncMetaRepository_WriteError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSyncMetaRepository(db, logger.Nop())

	mock.ExpectExec("INSERT INTO sync_meta").WillReturnError(errors.New("disk full"))

	err := repo.SetLastSyncTime(context.Background(), nil, t0)
	assert.ErrorIs(t, err, ErrExecutingStatement)
}

func TestStoreConstructors_NilLogger(t *testing.T) {
	ctx := context.Background()
	db := NewDB(newSQLiteDB(t).DB, nil)

	meta := NewSyncMetaRepository(db, nil)
	entities := NewEntityRepository(db, nil)

	assert.NotPanics(t, func() {
		require.NoError(t, meta.SetSessionToken(ctx, "tok"))
		require.NoError(t, entities.Upsert(ctx, nil, models.EntitySites, "s1",
			models.Payload{"name": "Ridge", "colour": "red"}, Pending(t0)))
	})
}
