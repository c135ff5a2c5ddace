// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyScheduler counts background triggers.
type spyScheduler struct {
	calls atomic.Int64
	err   error
}

func (s *spyScheduler) TriggerForeground(_ context.Context, reason models.TriggerReason) (models.TriggerResult, error) {
	return models.TriggerResult{Status: models.TriggerSuccess, Reason: reason}, nil
}

func (s *spyScheduler) TriggerBackground(_ context.Context) (models.TriggerResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return models.TriggerResult{Status: models.TriggerError, Reason: models.TriggerBackground}, s.err
	}
	return models.TriggerResult{Status: models.TriggerSuccess, Reason: models.TriggerBackground}, nil
}

func (s *spyScheduler) BackoffState() models.BackoffState {
	return models.BackoffState{Step: -1}
}

func TestNewBackgroundSyncJob_ReturnsInterface(t *testing.T) {
	job := NewBackgroundSyncJob(&spyScheduler{}, logger.Nop())
	require.NotNil(t, job)
}

func TestBackgroundSyncJob_Start_TriggersBackground(t *testing.T) {
	spy := &spyScheduler{}
	job := NewBackgroundSyncJob(spy, logger.Nop())

	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(55 * time.Millisecond)
	job.Stop()

	got := spy.calls.Load()
	assert.GreaterOrEqual(t, got, int64(3), "expected several background triggers, got %d", got)
}

func TestBackgroundSyncJob_Stop_StopsGoroutine(t *testing.T) {
	spy := &spyScheduler{}
	job := NewBackgroundSyncJob(spy, logger.Nop())

	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	job.Stop()

	callsAfterStop := spy.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, callsAfterStop, spy.calls.Load())
}

func TestBackgroundSyncJob_Stop_BeforeStart_NoPanic(t *testing.T) {
	job := NewBackgroundSyncJob(&spyScheduler{}, logger.Nop())
	assert.NotPanics(t, func() { job.Stop() })
}

func TestBackgroundSyncJob_ContextCancelStops(t *testing.T) {
	spy := &spyScheduler{}
	job := NewBackgroundSyncJob(spy, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	job.Start(ctx, 10*time.Millisecond)
	time.Sleep(25 * time.Millisecond)
	cancel()
	time.Sleep(15 * time.Millisecond)

	before := spy.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, before, spy.calls.Load())
	job.Stop()
}

func TestBackgroundSyncJob_ErrorsDoNotStopTicker(t *testing.T) {
	spy := &spyScheduler{err: assert.AnError}
	job := NewBackgroundSyncJob(spy, logger.Nop())

	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(45 * time.Millisecond)
	job.Stop()

	assert.GreaterOrEqual(t, spy.calls.Load(), int64(2))
}

func TestBackgroundSyncJob_RestartReplacesRunningJob(t *testing.T) {
	spy := &spyScheduler{}
	job := NewBackgroundSyncJob(spy, logger.Nop())

	job.Start(context.Background(), time.Hour)
	job.Start(context.Background(), 10*time.Millisecond)
	time.Sleep(35 * time.Millisecond)
	job.Stop()

	assert.GreaterOrEqual(t, spy.calls.Load(), int64(1))
}
