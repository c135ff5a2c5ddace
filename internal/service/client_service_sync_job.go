package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/field-sync/internal/logger"
)

type backgroundSyncJob struct {
	scheduler SyncScheduler
	logger    *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBackgroundSyncJob creates a job that calls scheduler.TriggerBackground
// on a ticker. The job is idle until Start is called.
func NewBackgroundSyncJob(scheduler SyncScheduler, log *logger.Logger) BackgroundSyncJob {
	if log == nil {
		log = logger.Nop()
	}
	return &backgroundSyncJob{scheduler: scheduler, logger: log}
}

// Start implements BackgroundSyncJob. The goroutine exits when ctx is
// cancelled or Stop is called.
func (j *backgroundSyncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				res, err := j.scheduler.TriggerBackground(jobCtx)
				if err != nil {
					j.logger.Debug().
						Err(err).
						Str("func", "backgroundSyncJob.Start").
						Msg("background trigger failed")
					continue
				}
				j.logger.Debug().
					Str("func", "backgroundSyncJob.Start").
					Str("status", string(res.Status)).
					Msg("background trigger finished")
			}
		}
	}()
}

// Stop implements BackgroundSyncJob. Safe to call when the job is not
// running.
func (j *backgroundSyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
