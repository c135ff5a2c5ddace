package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/models"
)

var entityMetaColumns = []string{"is_active", "sync_status", "created_at", "updated_at", "last_synced_at"}

// entityRepository is the SQLite-backed [EntityRepository]. Each known
// entity is handled through its explicit schema; there is no generic field
// injection.
type entityRepository struct {
	*DB
	logger *logger.Logger
}

func NewEntityRepository(db *DB, log *logger.Logger) EntityRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &entityRepository{
		DB:     db,
		logger: log,
	}
}

func schemaFor(entity models.Entity) (models.EntitySchema, error) {
	schema, ok := models.SchemaFor(entity)
	if !ok {
		return models.EntitySchema{}, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	return schema, nil
}

func (r *entityRepository) Upsert(ctx context.Context, tx Executor, entity models.Entity, id string, payload models.Payload, stamp SyncStamp) error {
	schema, err := schemaFor(entity)
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: empty id for %s", models.ErrInvalidFieldValue, entity)
	}

	values, ignored, err := schema.Coerce(payload)
	if err != nil {
		return err
	}
	if len(ignored) > 0 {
		r.logger.Debug().
			Str("func", "entityRepository.Upsert").
			Str("entity", string(entity)).
			Str("record_id", id).
			Strs("ignored_fields", ignored).
			Msg("payload fields outside the schema were ignored")
	}

	if tx == nil {
		tx = r.DB
	}

	updatedAt := stamp.UpdatedAt.UnixMilli()
	columns := make([]string, 0, len(values)+len(entityMetaColumns)+1)
	args := make([]any, 0, cap(columns))
	assignments := make([]string, 0, len(values)+4)

	columns = append(columns, "id")
	args = append(args, id)
	for _, v := range values {
		columns = append(columns, v.Column)
		args = append(args, v.Value)
		assignments = append(assignments, fmt.Sprintf("%[1]s = excluded.%[1]s", v.Column))
	}

	columns = append(columns, entityMetaColumns...)
	args = append(args, 1, string(stamp.Status), updatedAt, updatedAt, syncedAtValue(stamp))
	assignments = append(assignments,
		"is_active = excluded.is_active",
		"sync_status = excluded.sync_status",
		"updated_at = excluded.updated_at",
	)
	if stamp.SyncedAt != nil {
		assignments = append(assignments, "last_synced_at = excluded.last_synced_at")
	}

	query, queryArgs, err := sqlBuilder.Insert(schema.Table).
		Columns(columns...).
		Values(args...).
		Suffix("ON CONFLICT(id) DO UPDATE SET " + strings.Join(assignments, ", ")).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = tx.ExecContext(ctx, query, queryArgs...); err != nil {
		r.logger.Err(err).
			Str("func", "entityRepository.Upsert").
			Str("entity", string(entity)).
			Str("record_id", id).
			Msg("failed to upsert record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (r *entityRepository) SoftDelete(ctx context.Context, tx Executor, entity models.Entity, id string, stamp SyncStamp) (bool, error) {
	schema, err := schemaFor(entity)
	if err != nil {
		return false, err
	}
	if tx == nil {
		tx = r.DB
	}

	builder := sqlBuilder.Update(schema.Table).
		Set("is_active", 0).
		Set("sync_status", string(stamp.Status)).
		Set("updated_at", stamp.UpdatedAt.UnixMilli())
	if stamp.SyncedAt != nil {
		builder = builder.Set("last_synced_at", stamp.SyncedAt.UnixMilli())
	}

	query, args, err := builder.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).
			Str("func", "entityRepository.SoftDelete").
			Str("entity", string(entity)).
			Str("record_id", id).
			Msg("failed to soft delete record")
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected > 0, nil
}

func (r *entityRepository) Get(ctx context.Context, entity models.Entity, id string) (models.EntityRecord, error) {
	schema, err := schemaFor(entity)
	if err != nil {
		return models.EntityRecord{}, err
	}

	columns := make([]string, 0, len(schema.Fields)+len(entityMetaColumns)+1)
	columns = append(columns, "id")
	for _, f := range schema.Fields {
		columns = append(columns, f.Column)
	}
	columns = append(columns, entityMetaColumns...)

	query, args, err := sqlBuilder.Select(columns...).
		From(schema.Table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.EntityRecord{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var (
		record       = models.EntityRecord{Entity: entity, Fields: models.Payload{}}
		fieldValues  = make([]any, len(schema.Fields))
		active       int
		status       string
		createdAt    int64
		updatedAt    int64
		lastSyncedAt sql.NullInt64
	)
	for i, f := range schema.Fields {
		switch f.Kind {
		case models.FieldText:
			fieldValues[i] = new(sql.NullString)
		case models.FieldReal:
			fieldValues[i] = new(sql.NullFloat64)
		case models.FieldTime:
			fieldValues[i] = new(sql.NullInt64)
		}
	}

	dest := make([]any, 0, len(columns))
	dest = append(dest, &record.ID)
	dest = append(dest, fieldValues...)
	dest = append(dest, &active, &status, &createdAt, &updatedAt, &lastSyncedAt)

	err = r.DB.QueryRowContext(ctx, query, args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EntityRecord{}, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, entity, id)
	}
	if err != nil {
		r.logger.Err(err).
			Str("func", "entityRepository.Get").
			Str("entity", string(entity)).
			Str("record_id", id).
			Msg("failed to read record")
		return models.EntityRecord{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	for i, f := range schema.Fields {
		switch v := fieldValues[i].(type) {
		case *sql.NullString:
			if v.Valid {
				record.Fields[f.Key] = v.String
			}
		case *sql.NullFloat64:
			if v.Valid {
				record.Fields[f.Key] = v.Float64
			}
		case *sql.NullInt64:
			if v.Valid {
				record.Fields[f.Key] = time.UnixMilli(v.Int64).UTC().Format(time.RFC3339Nano)
			}
		}
	}

	record.Active = active != 0
	record.SyncStatus = models.SyncState(status)
	record.CreatedAt = time.UnixMilli(createdAt).UTC()
	record.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	if lastSyncedAt.Valid {
		t := time.UnixMilli(lastSyncedAt.Int64).UTC()
		record.LastSyncedAt = &t
	}
	record.Fields[models.IDKey] = record.ID
	record.Fields[schema.UpdatedAtKey] = record.UpdatedAt.Format(time.RFC3339Nano)

	return record, nil
}

func syncedAtValue(stamp SyncStamp) any {
	if stamp.SyncedAt == nil {
		return nil
	}
	return stamp.SyncedAt.UnixMilli()
}
