package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/internal/store"
	"github.com/MKhiriev/field-sync/internal/utils"
	"github.com/MKhiriev/field-sync/models"
)

type recordService struct {
	storages *store.ClientStorages
	ids      store.IDGenerator
	clock    func() time.Time

	logger *logger.Logger
}

// RecordOption customises a RecordService.
type RecordOption func(*recordService)

// WithRecordClock replaces the clock that stamps local edits.
func WithRecordClock(clock func() time.Time) RecordOption {
	return func(s *recordService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithRecordIDGenerator replaces the UUIDv7 source of new record ids.
func WithRecordIDGenerator(g store.IDGenerator) RecordOption {
	return func(s *recordService) {
		if g != nil {
			s.ids = g
		}
	}
}

func NewRecordService(storages *store.ClientStorages, log *logger.Logger, opts ...RecordOption) RecordService {
	if log == nil {
		log = logger.Nop()
	}
	s := &recordService{
		storages: storages,
		ids:      utils.NewUUIDGenerator(),
		clock:    time.Now,
		logger:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *recordService) Create(ctx context.Context, entity models.Entity, recordID string, payload models.Payload) (models.MutationRecord, error) {
	if strings.TrimSpace(recordID) == "" {
		recordID = s.ids.Generate()
	}
	return s.write(ctx, models.OperationCreate, entity, recordID, payload)
}

func (s *recordService) Update(ctx context.Context, entity models.Entity, recordID string, payload models.Payload) (models.MutationRecord, error) {
	return s.write(ctx, models.OperationUpdate, entity, recordID, payload)
}

// write upserts the local row as pending and enqueues the mutation in the
// same transaction.
func (s *recordService) write(ctx context.Context, op models.Operation, entity models.Entity, recordID string, payload models.Payload) (models.MutationRecord, error) {
	if err := validateTarget(entity, recordID); err != nil {
		return models.MutationRecord{}, err
	}

	now := s.clock().UTC()
	snapshot := s.snapshot(payload, recordID, now)

	var queued models.MutationRecord
	err := s.storages.DB.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.storages.EntityRepository.Upsert(ctx, tx, entity, recordID, snapshot, store.Pending(now)); err != nil {
			return fmt.Errorf("write %s/%s: %w", entity, recordID, err)
		}

		m, err := s.storages.MutationQueue.Enqueue(ctx, tx, entity, recordID, op, snapshot)
		if err != nil {
			return fmt.Errorf("enqueue %s %s/%s: %w", op, entity, recordID, err)
		}
		queued = m
		return nil
	})
	if err != nil {
		s.logger.Err(err).
			Str("func", "recordService.write").
			Str("entity", string(entity)).
			Str("record_id", recordID).
			Str("operation", string(op)).
			Msg("local write rolled back")
		return models.MutationRecord{}, err
	}

	s.logger.Debug().
		Str("func", "recordService.write").
		Str("entity", string(entity)).
		Str("record_id", recordID).
		Str("local_id", queued.ID).
		Str("operation", string(op)).
		Msg("local write queued")

	return queued, nil
}

func (s *recordService) Delete(ctx context.Context, entity models.Entity, recordID string) (models.MutationRecord, error) {
	if err := validateTarget(entity, recordID); err != nil {
		return models.MutationRecord{}, err
	}

	now := s.clock().UTC()
	snapshot := s.snapshot(nil, recordID, now)

	var queued models.MutationRecord
	err := s.storages.DB.WithTx(ctx, func(tx *sql.Tx) error {
		found, err := s.storages.EntityRepository.SoftDelete(ctx, tx, entity, recordID, store.Pending(now))
		if err != nil {
			return fmt.Errorf("soft delete %s/%s: %w", entity, recordID, err)
		}
		if !found {
			return fmt.Errorf("%w: %s/%s", store.ErrRecordNotFound, entity, recordID)
		}

		// The queue keeps the delete behind pending entries of the same
		// record, so it only jumps the line once the record is synced.
		m, err := s.storages.MutationQueue.Enqueue(ctx, tx, entity, recordID, models.OperationDelete, snapshot,
			store.WithPriority(models.PriorityCritical))
		if err != nil {
			return fmt.Errorf("enqueue delete %s/%s: %w", entity, recordID, err)
		}
		queued = m
		return nil
	})
	if err != nil {
		return models.MutationRecord{}, err
	}

	s.logger.Debug().
		Str("func", "recordService.Delete").
		Str("entity", string(entity)).
		Str("record_id", recordID).
		Str("local_id", queued.ID).
		Msg("local delete queued")

	return queued, nil
}

func (s *recordService) Get(ctx context.Context, entity models.Entity, recordID string) (models.EntityRecord, error) {
	if err := validateTarget(entity, recordID); err != nil {
		return models.EntityRecord{}, err
	}
	return s.storages.EntityRepository.Get(ctx, entity, recordID)
}

// snapshot copies payload and stamps the id and updated-at keys, so the
// queued entry carries everything conflict resolution needs.
func (s *recordService) snapshot(payload models.Payload, recordID string, now time.Time) models.Payload {
	out := payload.Clone()
	if out == nil {
		out = models.Payload{}
	}
	out[models.IDKey] = recordID
	out[models.UpdatedAtKey] = now.Format(time.RFC3339Nano)
	return out
}

func validateTarget(entity models.Entity, recordID string) error {
	if !entity.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	if strings.TrimSpace(recordID) == "" {
		return ErrEmptyRecordID
	}
	return nil
}
