package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/field-sync/internal/logger"
)

const (
	syncMetaTable = "sync_meta"

	metaKeyLastSyncTime = "last_sync_time"
	metaKeySessionToken = "session_token"
)

// syncMetaRepository is the SQLite-backed [SyncMetaRepository], a small
// key/value table.
type syncMetaRepository struct {
	*DB
	logger *logger.Logger
}

func NewSyncMetaRepository(db *DB, log *logger.Logger) SyncMetaRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &syncMetaRepository{
		DB:     db,
		logger: log,
	}
}

func (r *syncMetaRepository) LastSyncTime(ctx context.Context) (*time.Time, error) {
	value, ok, err := r.get(ctx, metaKeyLastSyncTime)
	if err != nil || !ok {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("%w: last sync time %q: %w", ErrScanningRow, value, err)
	}
	t = t.UTC()
	return &t, nil
}

func (r *syncMetaRepository) SetLastSyncTime(ctx context.Context, tx Executor, t time.Time) error {
	return r.set(ctx, tx, metaKeyLastSyncTime, t.UTC().Format(time.RFC3339Nano))
}

func (r *syncMetaRepository) SessionToken(ctx context.Context) (string, error) {
	value, _, err := r.get(ctx, metaKeySessionToken)
	return value, err
}

func (r *syncMetaRepository) SetSessionToken(ctx context.Context, token string) error {
	if token == "" {
		return r.ClearSessionToken(ctx)
	}
	return r.set(ctx, r.DB, metaKeySessionToken, token)
}

func (r *syncMetaRepository) ClearSessionToken(ctx context.Context) error {
	query, args, err := sqlBuilder.Delete(syncMetaTable).
		Where(sq.Eq{"key": metaKeySessionToken}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (r *syncMetaRepository) get(ctx context.Context, key string) (string, bool, error) {
	query, args, err := sqlBuilder.Select("value").
		From(syncMetaTable).
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var value string
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Err(err).Str("func", "syncMetaRepository.get").Str("key", key).Msg("failed to read sync meta")
		return "", false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return value, true, nil
}

func (r *syncMetaRepository) set(ctx context.Context, tx Executor, key, value string) error {
	if tx == nil {
		tx = r.DB
	}

	query, args, err := sqlBuilder.Insert(syncMetaTable).
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.Err(err).Str("func", "syncMetaRepository.set").Str("key", key).Msg("failed to write sync meta")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}
