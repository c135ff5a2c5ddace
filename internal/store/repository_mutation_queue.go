// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/internal/utils"
	"github.com/MKhiriev/field-sync/models"
)

// sqlBuilder renders SQLite-style "?" placeholders.
var sqlBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

const (
	mutationQueueTable = "mutation_queue"

	// removeChunkSize keeps a single DELETE well below SQLite's host
	// parameter limit.
	removeChunkSize = 500
)

var mutationQueueColumns = []string{
	"id", "entity", "record_id", "operation", "payload", "priority", "created_at",
}

// queueOrder is the drain order of the queue. rowid preserves insertion
// order between entries with equal priority and timestamp.
var queueOrder = []string{"priority ASC", "created_at ASC", "rowid ASC"}

// IDGenerator issues queue entry ids.
type IDGenerator interface {
	Generate() string
}

type enqueueOptions struct {
	priority models.Priority
}

// EnqueueOption customizes a single Enqueue call.
type EnqueueOption func(*enqueueOptions)

// WithPriority overrides the default normal priority.
func WithPriority(p models.Priority) EnqueueOption {
	return func(o *enqueueOptions) {
		o.priority = p
	}
}

// QueueOption customizes NewMutationQueue.
type QueueOption func(*mutationQueue)

// WithClock replaces time.Now as the source of createdAt.
func WithClock(clock func() time.Time) QueueOption {
	return func(q *mutationQueue) {
		if clock != nil {
			q.clock = clock
		}
	}
}

// WithIDGenerator replaces the UUIDv7 id source.
func WithIDGenerator(g IDGenerator) QueueOption {
	return func(q *mutationQueue) {
		if g != nil {
			q.ids = g
		}
	}
}

// mutationQueue is the SQLite-backed [MutationQueue].
type mutationQueue struct {
	*DB
	logger *logger.Logger

	clock func() time.Time
	ids   IDGenerator

	mu            sync.Mutex
	lastCreatedAt time.Time
}

func NewMutationQueue(db *DB, log *logger.Logger, opts ...QueueOption) MutationQueue {
	if log == nil {
		log = logger.Nop()
	}
	q := &mutationQueue{
		DB:     db,
		logger: log,
		clock:  time.Now,
		ids:    utils.NewUUIDGenerator(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// nextCreatedAt returns the clock reading truncated to the stored
// millisecond precision, bumped so it is strictly after both the previous
// one and stored, the newest created_at already in the table.
func (q *mutationQueue) nextCreatedAt(stored time.Time) time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()

	if stored.After(q.lastCreatedAt) {
		q.lastCreatedAt = stored
	}

	now := q.clock().UTC().Truncate(time.Millisecond)
	if !now.After(q.lastCreatedAt) {
		now = q.lastCreatedAt.Add(time.Millisecond)
	}
	q.lastCreatedAt = now
	return now
}

// queueTail is what a new entry has to be ordered after.
type queueTail struct {
	// lastCreatedAt is the newest created_at in the table. It survives
	// restarts, unlike the in-memory watermark.
	lastCreatedAt time.Time
	// recordPriority is the lowest-ranked priority among the pending entries
	// of the same record, if any.
	recordPriority    models.Priority
	hasRecordPriority bool
}

func (q *mutationQueue) tail(ctx context.Context, tx Executor, entity models.Entity, recordID string) (queueTail, error) {
	query, args, err := sqlBuilder.
		Select("COALESCE(MAX(created_at), 0)").
		Column(sq.Expr("COALESCE(MAX(CASE WHEN entity = ? AND record_id = ? THEN priority END), -1)", string(entity), recordID)).
		From(mutationQueueTable).
		ToSql()
	if err != nil {
		return queueTail{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var (
		lastCreatedAt  int64
		recordPriority int
	)
	if err = tx.QueryRowContext(ctx, query, args...).Scan(&lastCreatedAt, &recordPriority); err != nil {
		q.logger.Err(err).
			Str("func", "mutationQueue.tail").
			Str("entity", string(entity)).
			Str("record_id", recordID).
			Msg("failed to read queue tail")
		return queueTail{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	t := queueTail{recordPriority: models.Priority(recordPriority), hasRecordPriority: recordPriority >= 0}
	if lastCreatedAt > 0 {
		t.lastCreatedAt = time.UnixMilli(lastCreatedAt).UTC()
	}
	return t, nil
}

func (q *mutationQueue) Enqueue(ctx context.Context, tx Executor, entity models.Entity, recordID string, op models.Operation, payload models.Payload, opts ...EnqueueOption) (models.MutationRecord, error) {
	options := enqueueOptions{priority: models.PriorityNormal}
	for _, opt := range opts {
		opt(&options)
	}

	if entity == "" || recordID == "" || !op.Valid() || !options.priority.Valid() {
		return models.MutationRecord{}, fmt.Errorf("%w: entity=%q record_id=%q operation=%q priority=%d",
			ErrInvalidMutation, entity, recordID, op, options.priority)
	}

	payloadJSON, err := encodePayload(payload)
	if err != nil {
		return models.MutationRecord{}, fmt.Errorf("%w: %w", ErrInvalidMutation, err)
	}

	if tx == nil {
		tx = q.DB
	}

	tail, err := q.tail(ctx, tx, entity, recordID)
	if err != nil {
		return models.MutationRecord{}, err
	}

	// Entries of one record must drain in insertion order, so a new entry
	// never ranks ahead of a pending entry for the same record.
	priority := options.priority
	if tail.hasRecordPriority && tail.recordPriority > priority {
		q.logger.Debug().
			Str("func", "mutationQueue.Enqueue").
			Str("entity", string(entity)).
			Str("record_id", recordID).
			Str("requested", priority.String()).
			Str("priority", tail.recordPriority.String()).
			Msg("priority lowered to keep record order")
		priority = tail.recordPriority
	}

	record := models.MutationRecord{
		ID:        q.ids.Generate(),
		Entity:    entity,
		RecordID:  recordID,
		Operation: op,
		Payload:   payload.Clone(),
		Priority:  priority,
		CreatedAt: q.nextCreatedAt(tail.lastCreatedAt),
	}

	query, args, err := sqlBuilder.Insert(mutationQueueTable).
		Columns(mutationQueueColumns...).
		Values(record.ID, string(record.Entity), record.RecordID, string(record.Operation),
			payloadJSON, int(record.Priority), record.CreatedAt.UnixMilli()).
		ToSql()
	if err != nil {
		return models.MutationRecord{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		q.logger.Err(err).
			Str("func", "mutationQueue.Enqueue").
			Str("entity", string(entity)).
			Str("record_id", recordID).
			Msg("failed to insert queue entry")
		return models.MutationRecord{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	q.logger.Debug().
		Str("func", "mutationQueue.Enqueue").
		Str("entity", string(entity)).
		Str("record_id", recordID).
		Str("local_id", record.ID).
		Str("operation", string(op)).
		Str("priority", record.Priority.String()).
		Msg("mutation enqueued")

	return record, nil
}

func (q *mutationQueue) Dequeue(ctx context.Context) (*models.MutationRecord, error) {
	var head *models.MutationRecord

	err := q.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		head, err = q.first(ctx, tx)
		if err != nil || head == nil {
			return err
		}

		_, err = q.Remove(ctx, tx, head.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return head, nil
}

func (q *mutationQueue) Peek(ctx context.Context) (*models.MutationRecord, error) {
	return q.first(ctx, q.DB)
}

func (q *mutationQueue) first(ctx context.Context, exec Executor) (*models.MutationRecord, error) {
	query, args, err := sqlBuilder.Select(mutationQueueColumns...).
		From(mutationQueueTable).
		OrderBy(queueOrder...).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	record, err := scanMutation(exec.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (q *mutationQueue) List(ctx context.Context, limit int) ([]models.MutationRecord, error) {
	if limit == 0 {
		return []models.MutationRecord{}, nil
	}

	builder := sqlBuilder.Select(mutationQueueColumns...).
		From(mutationQueueTable).
		OrderBy(queueOrder...)
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := q.DB.QueryContext(ctx, query, args...)
	if err != nil {
		q.logger.Err(err).Str("func", "mutationQueue.List").Msg("failed to read queue")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.MutationRecord, 0, 16)
	for rows.Next() {
		record, err := scanMutation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}

func (q *mutationQueue) Count(ctx context.Context) (int, error) {
	query, args, err := sqlBuilder.Select("COUNT(*)").From(mutationQueueTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var count int
	if err = q.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return count, nil
}

func (q *mutationQueue) Clear(ctx context.Context) error {
	query, args, err := sqlBuilder.Delete(mutationQueueTable).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = q.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	q.logger.Info().Str("func", "mutationQueue.Clear").Msg("mutation queue cleared")
	return nil
}

func (q *mutationQueue) Remove(ctx context.Context, tx Executor, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if tx == nil {
		tx = q.DB
	}

	var removed int64
	for start := 0; start < len(ids); start += removeChunkSize {
		end := min(start+removeChunkSize, len(ids))

		query, args, err := sqlBuilder.Delete(mutationQueueTable).
			Where(sq.Eq{"id": ids[start:end]}).
			ToSql()
		if err != nil {
			return removed, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			q.logger.Err(err).
				Str("func", "mutationQueue.Remove").
				Int("ids", end-start).
				Msg("failed to remove queue entries")
			return removed, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return removed, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
		removed += n
	}

	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMutation(row rowScanner) (models.MutationRecord, error) {
	var (
		record    models.MutationRecord
		entity    string
		operation string
		payload   sql.NullString
		priority  int
		createdAt int64
	)

	err := row.Scan(&record.ID, &entity, &record.RecordID, &operation, &payload, &priority, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return record, err
	}
	if err != nil {
		return record, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	record.Entity = models.Entity(entity)
	record.Operation = models.Operation(operation)
	record.Priority = models.Priority(priority)
	record.CreatedAt = time.UnixMilli(createdAt).UTC()

	if payload.Valid {
		if err = json.Unmarshal([]byte(payload.String), &record.Payload); err != nil {
			return record, fmt.Errorf("%w: %s: %w", ErrCorruptQueueEntry, record.ID, err)
		}
	}

	return record, nil
}

func encodePayload(p models.Payload) (any, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return string(data), nil
}
