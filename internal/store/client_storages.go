package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/field-sync/internal/config"
	"github.com/MKhiriev/field-sync/internal/logger"
)

// ClientStorages groups the client repositories. All of them share one
// SQLite connection, so a transaction opened with DB.WithTx can carry the
// queue, entity and sync-meta writes of a single unit of work.
type ClientStorages struct {
	DB *DB

	MutationQueue      MutationQueue
	EntityRepository   EntityRepository
	SyncMetaRepository SyncMetaRepository
}

// NewClientStorages opens the SQLite database named by cfg.DB.DSN (creating
// the file when needed), applies pending migrations and wires the
// repositories.
func NewClientStorages(ctx context.Context, cfg config.Storage, log *logger.Logger, queueOpts ...QueueOption) (*ClientStorages, error) {
	log.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(ctx, cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return NewClientStoragesFromDB(db, log, queueOpts...), nil
}

// NewClientStoragesFromDB wires the repositories over an already migrated
// connection.
func NewClientStoragesFromDB(db *DB, log *logger.Logger, queueOpts ...QueueOption) *ClientStorages {
	return &ClientStorages{
		DB:                 db,
		MutationQueue:      NewMutationQueue(db, log, queueOpts...),
		EntityRepository:   NewEntityRepository(db, log),
		SyncMetaRepository: NewSyncMetaRepository(db, log),
	}
}

func (s *ClientStorages) Close() error {
	return s.DB.Close()
}
