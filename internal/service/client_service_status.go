package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/field-sync/internal/store"
	"github.com/MKhiriev/field-sync/models"
)

type statusService struct {
	runtime   *RuntimeState
	queue     store.MutationQueue
	scheduler SyncScheduler
}

// NewStatusService combines the runtime snapshot with queue and backoff
// state.
func NewStatusService(runtime *RuntimeState, queue store.MutationQueue, scheduler SyncScheduler) StatusService {
	return &statusService{runtime: runtime, queue: queue, scheduler: scheduler}
}

func (s *statusService) Status(ctx context.Context) (models.SyncStatus, error) {
	st := s.runtime.Snapshot()

	n, err := s.queue.Count(ctx)
	if err != nil {
		return st, fmt.Errorf("count pending mutations: %w", err)
	}
	st.QueueLength = n
	st.Backoff = s.scheduler.BackoffState()

	return st, nil
}
