package store

import (
	"context"
	"time"

	"github.com/MKhiriev/field-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// NoLimit makes [MutationQueue.List] return every entry.
const NoLimit = -1

// MutationQueue is the durable, priority-ordered queue of local mutations
// waiting to be pushed. Entries are ordered by priority (critical first),
// then creation time, then insertion order, and are never modified after
// Enqueue, only removed.
type MutationQueue interface {
	// Enqueue appends a mutation through tx, the transaction the caller
	// uses for the matching entity write. The requested priority is lowered
	// when the same record already has a pending entry of a lower rank, so
	// a record's entries always drain in insertion order.
	Enqueue(ctx context.Context, tx Executor, entity models.Entity, recordID string, op models.Operation, payload models.Payload, opts ...EnqueueOption) (models.MutationRecord, error)
	// Dequeue removes and returns the first entry, or nil when empty.
	Dequeue(ctx context.Context) (*models.MutationRecord, error)
	// Peek returns the first entry without removing it, or nil when empty.
	Peek(ctx context.Context) (*models.MutationRecord, error)
	// List returns up to limit entries in queue order. Zero returns none,
	// NoLimit returns all.
	List(ctx context.Context, limit int) ([]models.MutationRecord, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	// Remove deletes the given entries through tx and reports how many rows
	// were removed.
	Remove(ctx context.Context, tx Executor, ids ...string) (int64, error)
}

// EntityRepository persists the local copies of synchronised entities.
type EntityRepository interface {
	// Upsert inserts or updates the record, assigning only the schema
	// fields present in payload.
	Upsert(ctx context.Context, tx Executor, entity models.Entity, id string, payload models.Payload, stamp SyncStamp) error
	// SoftDelete marks the record inactive. It reports false when no row
	// with that id exists.
	SoftDelete(ctx context.Context, tx Executor, entity models.Entity, id string, stamp SyncStamp) (bool, error)
	Get(ctx context.Context, entity models.Entity, id string) (models.EntityRecord, error)
}

// SyncMetaRepository stores the client's sync bookkeeping.
type SyncMetaRepository interface {
	// LastSyncTime returns nil before the first completed pass.
	LastSyncTime(ctx context.Context) (*time.Time, error)
	SetLastSyncTime(ctx context.Context, tx Executor, t time.Time) error
	SessionToken(ctx context.Context) (string, error)
	SetSessionToken(ctx context.Context, token string) error
	ClearSessionToken(ctx context.Context) error
}

// SyncStamp is the sync metadata written together with an entity row.
type SyncStamp struct {
	Status    models.SyncState
	UpdatedAt time.Time
	// SyncedAt is set when the row now matches the server.
	SyncedAt *time.Time
}

// Synced returns the stamp for a row that was just applied from the server.
func Synced(at time.Time) SyncStamp {
	at = at.UTC()
	return SyncStamp{Status: models.SyncStateSynced, UpdatedAt: at, SyncedAt: &at}
}

// Pending returns the stamp for a row changed locally and not yet pushed.
func Pending(at time.Time) SyncStamp {
	return SyncStamp{Status: models.SyncStatePending, UpdatedAt: at.UTC()}
}
