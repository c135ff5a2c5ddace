package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/field-sync/internal/config"
	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/models"
)

// syncRun is the in-flight pass shared by every caller that joins it.
type syncRun struct {
	done    chan struct{}
	reason  models.TriggerReason
	outcome models.SyncOutcome
	err     error

	// background is set under syncScheduler.mu when any background caller
	// started or joined the run.
	background bool
	// joiners counts callers that attached to the run after it started.
	// Guarded by syncScheduler.mu.
	joiners int
}

type syncScheduler struct {
	engine SyncEngine
	caps   Capabilities
	ladder []time.Duration
	clock  func() time.Time

	mu            sync.Mutex
	inFlight      *syncRun
	backoffStep   int
	nextAttemptAt time.Time

	logger *logger.Logger
}

// SchedulerOption customises a SyncScheduler.
type SchedulerOption func(*syncScheduler)

// WithBackoffLadder replaces the unattended retry ladder. An empty ladder
// keeps the default.
func WithBackoffLadder(ladder []time.Duration) SchedulerOption {
	return func(s *syncScheduler) {
		if len(ladder) > 0 {
			s.ladder = append([]time.Duration(nil), ladder...)
		}
	}
}

// WithSchedulerClock replaces the clock used for the backoff window.
func WithSchedulerClock(clock func() time.Time) SchedulerOption {
	return func(s *syncScheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewSyncScheduler creates an idle scheduler around engine.
func NewSyncScheduler(engine SyncEngine, caps Capabilities, log *logger.Logger, opts ...SchedulerOption) SyncScheduler {
	if log == nil {
		log = logger.Nop()
	}
	s := &syncScheduler{
		engine:      engine,
		caps:        caps,
		ladder:      config.DefaultBackoffLadder(),
		clock:       time.Now,
		backoffStep: -1,
		logger:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TriggerForeground implements SyncScheduler.
func (s *syncScheduler) TriggerForeground(ctx context.Context, reason models.TriggerReason) (models.TriggerResult, error) {
	if !reason.Foreground() {
		return models.TriggerResult{Status: models.TriggerError, Reason: reason, Error: ErrInvalidReason.Error()},
			fmt.Errorf("%w: %q", ErrInvalidReason, reason)
	}
	if !s.caps.HasSession() {
		return s.skipped(reason, "no session"), nil
	}

	s.mu.Lock()
	run := s.joinOrStart(ctx, reason)
	s.mu.Unlock()

	return s.wait(ctx, reason, run)
}

// TriggerBackground implements SyncScheduler.
func (s *syncScheduler) TriggerBackground(ctx context.Context) (models.TriggerResult, error) {
	reason := models.TriggerBackground
	if !s.caps.HasSession() {
		return s.skipped(reason, "no session"), nil
	}

	s.mu.Lock()
	if s.clock().Before(s.nextAttemptAt) {
		next := s.nextAttemptAt
		s.mu.Unlock()
		s.logger.Debug().
			Str("func", "syncScheduler.TriggerBackground").
			Time("next_attempt_at", next).
			Msg("backoff window open, skipping")
		return models.TriggerResult{Status: models.TriggerSkipped, Reason: reason}, nil
	}
	run := s.joinOrStart(ctx, reason)
	run.background = true
	s.mu.Unlock()

	return s.wait(ctx, reason, run)
}

// BackoffState implements SyncScheduler.
func (s *syncScheduler) BackoffState() models.BackoffState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.BackoffState{Step: s.backoffStep, NextAttemptAt: s.nextAttemptAt}
}

// joinOrStart must be called with s.mu held.
func (s *syncScheduler) joinOrStart(ctx context.Context, reason models.TriggerReason) *syncRun {
	if s.inFlight != nil {
		s.logger.Debug().
			Str("func", "syncScheduler.joinOrStart").
			Str("reason", string(reason)).
			Str("running_reason", string(s.inFlight.reason)).
			Msg("joining in-flight sync")
		s.inFlight.joiners++
		return s.inFlight
	}

	run := &syncRun{done: make(chan struct{}), reason: reason}
	s.inFlight = run
	// The pass keeps the starter's values but not its cancellation.
	go s.execute(context.WithoutCancel(ctx), run)
	return run
}

func (s *syncScheduler) execute(ctx context.Context, run *syncRun) {
	defer close(run.done)

	s.caps.BeginSync(run.reason)
	outcome, err := s.engine.Sync(ctx)
	if err != nil {
		s.caps.CompleteSync(nil, err)
	} else {
		s.caps.CompleteSync(&outcome, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run.outcome, run.err = outcome, err
	s.inFlight = nil

	switch {
	case err == nil && outcome.Status == models.SyncSuccess:
		s.backoffStep = -1
		s.nextAttemptAt = time.Time{}
	case err != nil && run.background:
		s.backoffStep = min(s.backoffStep+1, len(s.ladder)-1)
		s.nextAttemptAt = s.clock().Add(s.ladder[s.backoffStep])
		s.logger.Warn().
			Err(err).
			Str("func", "syncScheduler.execute").
			Int("backoff_step", s.backoffStep).
			Time("next_attempt_at", s.nextAttemptAt).
			Msg("unattended sync failed, backing off")
	case err != nil:
		s.logger.Warn().
			Err(err).
			Str("func", "syncScheduler.execute").
			Str("reason", string(run.reason)).
			Msg("foreground sync failed")
	}
}

func (s *syncScheduler) wait(ctx context.Context, reason models.TriggerReason, run *syncRun) (models.TriggerResult, error) {
	select {
	case <-ctx.Done():
		return models.TriggerResult{Status: models.TriggerError, Reason: reason, Error: ctx.Err().Error()}, ctx.Err()
	case <-run.done:
	}

	if run.err != nil {
		return models.TriggerResult{Status: models.TriggerError, Reason: reason, Error: run.err.Error()}, run.err
	}

	outcome := run.outcome
	status := models.TriggerSuccess
	if outcome.Status == models.SyncOffline {
		status = models.TriggerOffline
	}
	return models.TriggerResult{Status: status, Reason: reason, Outcome: &outcome}, nil
}

func (s *syncScheduler) skipped(reason models.TriggerReason, why string) models.TriggerResult {
	s.logger.Debug().
		Str("func", "syncScheduler.trigger").
		Str("reason", string(reason)).
		Msg("sync skipped: " + why)
	return models.TriggerResult{Status: models.TriggerSkipped, Reason: reason}
}
