package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MKhiriev/field-sync/internal/adapter"
	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/internal/store"
	"github.com/MKhiriev/field-sync/models"
)

type syncEngine struct {
	storages     *store.ClientStorages
	adapter      adapter.SyncAdapter
	connectivity ConnectivityObserver
	clock        func() time.Time

	logger *logger.Logger
}

// EngineOption customises a SyncEngine.
type EngineOption func(*syncEngine)

// WithEngineClock replaces the wall clock used when the server does not
// return a new sync timestamp or a change timestamp.
func WithEngineClock(clock func() time.Time) EngineOption {
	return func(e *syncEngine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// NewSyncEngine wires a SyncEngine over the local storages and the remote
// adapter.
func NewSyncEngine(storages *store.ClientStorages, syncAdapter adapter.SyncAdapter, connectivity ConnectivityObserver, log *logger.Logger, opts ...EngineOption) SyncEngine {
	if log == nil {
		log = logger.Nop()
	}
	e := &syncEngine{
		storages:     storages,
		adapter:      syncAdapter,
		connectivity: connectivity,
		clock:        time.Now,
		logger:       log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sync implements SyncEngine.
func (e *syncEngine) Sync(ctx context.Context) (models.SyncOutcome, error) {
	lastSync, err := e.storages.SyncMetaRepository.LastSyncTime(ctx)
	if err != nil {
		return models.SyncOutcome{}, fmt.Errorf("read last sync time: %w", err)
	}

	if !e.connectivity.IsOnline() {
		e.logger.Debug().Str("func", "syncEngine.Sync").Msg("offline, skipping pass")
		return models.SyncOutcome{Status: models.SyncOffline, LastSyncTime: lastSync}, nil
	}

	pending, err := e.storages.MutationQueue.List(ctx, store.NoLimit)
	if err != nil {
		return models.SyncOutcome{}, fmt.Errorf("snapshot mutation queue: %w", err)
	}
	snap := newQueueSnapshot(pending)

	req := models.SyncBatchRequest{
		Operations:        snap.operations(),
		LastSyncTimestamp: lastSync,
	}

	resp, err := e.adapter.PushBatch(ctx, req)
	if err != nil {
		return models.SyncOutcome{}, fmt.Errorf("push sync batch: %w", mapAdapterError(err))
	}

	removal := snap.acknowledged(resp.Results)
	plan := e.reconcile(snap, resp.ServerChanges)
	for id := range plan.remove {
		removal[id] = struct{}{}
	}
	for id := range plan.keep {
		delete(removal, id)
	}

	newSync := e.clock().UTC()
	if resp.NewSyncTimestamp != nil {
		newSync = resp.NewSyncTimestamp.UTC()
	}

	var pulled int
	err = e.storages.DB.WithTx(ctx, func(tx *sql.Tx) error {
		pulled = 0
		for _, c := range plan.apply {
			applied, err := e.applyChange(ctx, tx, c)
			if err != nil {
				return err
			}
			if applied {
				pulled++
			}
		}

		if _, err := e.storages.MutationQueue.Remove(ctx, tx, keys(removal)...); err != nil {
			return fmt.Errorf("remove acknowledged mutations: %w", err)
		}

		if err := e.storages.SyncMetaRepository.SetLastSyncTime(ctx, tx, newSync); err != nil {
			return fmt.Errorf("persist last sync time: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.SyncOutcome{}, fmt.Errorf("commit sync pass: %w", err)
	}

	outcome := models.SyncOutcome{
		Status:       models.SyncSuccess,
		Pushed:       len(req.Operations),
		Pulled:       pulled,
		Conflicts:    plan.conflictedRecords(),
		LastSyncTime: &newSync,
		ConflictLog:  plan.conflicts,
	}

	e.logger.Info().
		Str("func", "syncEngine.Sync").
		Int("pushed", outcome.Pushed).
		Int("pulled", outcome.Pulled).
		Int("conflicts", outcome.Conflicts).
		Int("removed", len(removal)).
		Time("last_sync_time", newSync).
		Msg("sync pass completed")

	return outcome, nil
}

// applyChange writes one server change. It reports false for a delete of a
// record that does not exist locally.
func (e *syncEngine) applyChange(ctx context.Context, tx *sql.Tx, c resolvedChange) (bool, error) {
	stamp := store.Synced(c.serverTimestamp)

	switch c.change.Type {
	case models.OperationCreate, models.OperationUpdate:
		if err := e.storages.EntityRepository.Upsert(ctx, tx, c.key.Entity, c.key.RecordID, c.change.Data, stamp); err != nil {
			return false, fmt.Errorf("apply %s %s/%s: %w", c.change.Type, c.key.Entity, c.key.RecordID, err)
		}
		return true, nil

	case models.OperationDelete:
		found, err := e.storages.EntityRepository.SoftDelete(ctx, tx, c.key.Entity, c.key.RecordID, stamp)
		if err != nil {
			return false, fmt.Errorf("apply delete %s/%s: %w", c.key.Entity, c.key.RecordID, err)
		}
		return found, nil
	}

	return false, nil
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
