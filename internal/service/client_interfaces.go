package service

import (
	"context"
	"time"

	"github.com/MKhiriev/field-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_service_mock.go -package=mock

// ConnectivityObserver reports whether the device can currently reach the
// sync server.
type ConnectivityObserver interface {
	IsOnline() bool
}

// Capabilities is what the scheduler needs from the host: whether a session
// exists, and hooks around every pass so the host can reflect progress.
type Capabilities interface {
	HasSession() bool
	BeginSync(reason models.TriggerReason)
	// CompleteSync is called once per pass. outcome is nil when err is set.
	CompleteSync(outcome *models.SyncOutcome, err error)
}

// SyncEngine performs one batch sync pass: push the pending queue, pull the
// server's changes, reconcile conflicts and persist the result atomically.
type SyncEngine interface {
	// Sync runs one pass. An offline device yields an offline outcome and
	// no state change. Any failure leaves the queue untouched.
	Sync(ctx context.Context) (models.SyncOutcome, error)
}

// SyncScheduler decides when a pass may run, shares an in-flight pass
// between concurrent callers and backs off unattended retries.
type SyncScheduler interface {
	// TriggerForeground runs (or joins) a pass immediately for a
	// user-visible reason. An engine failure yields an error status and
	// the error itself.
	TriggerForeground(ctx context.Context, reason models.TriggerReason) (models.TriggerResult, error)

	// TriggerBackground behaves like TriggerForeground but is skipped while
	// the backoff window is open. Failures advance the backoff ladder.
	TriggerBackground(ctx context.Context) (models.TriggerResult, error)

	BackoffState() models.BackoffState
}

// RecordService is the local writer used by the host UI. Every write updates
// the local row and enqueues the matching mutation in one transaction.
type RecordService interface {
	// Create stores a new record. An empty recordID gets a generated one.
	Create(ctx context.Context, entity models.Entity, recordID string, payload models.Payload) (models.MutationRecord, error)
	Update(ctx context.Context, entity models.Entity, recordID string, payload models.Payload) (models.MutationRecord, error)
	// Delete soft-deletes the record and enqueues a critical delete.
	Delete(ctx context.Context, entity models.Entity, recordID string) (models.MutationRecord, error)
	Get(ctx context.Context, entity models.Entity, recordID string) (models.EntityRecord, error)
}

// SessionService manages the bearer token shared by the store and the
// adapter.
type SessionService interface {
	// RestoreSession loads a persisted token into memory and the adapter.
	RestoreSession(ctx context.Context) error
	SetSession(ctx context.Context, token string) error
	ClearSession(ctx context.Context) error
	HasSession() bool
}

// StatusService assembles the sync status shown by the host.
type StatusService interface {
	Status(ctx context.Context) (models.SyncStatus, error)
}

// BackgroundSyncJob fires unattended sync triggers on a ticker.
type BackgroundSyncJob interface {
	// Start launches the ticker goroutine, defaulting to 5 minutes when
	// interval is zero or negative. A running job is stopped first.
	Start(ctx context.Context, interval time.Duration)

	// Stop cancels the goroutine and blocks until it has exited.
	Stop()
}
