package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/field-sync/internal/adapter"
	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/internal/store"
	"github.com/MKhiriev/field-sync/internal/utils"
	"github.com/MKhiriev/field-sync/models"
)

// RuntimeState is the process-wide sync state the host reports through its
// lifecycle hooks: connectivity, the session token and the last pass. It
// implements ConnectivityObserver, Capabilities and SessionService.
type RuntimeState struct {
	online atomic.Bool

	meta    store.SyncMetaRepository
	adapter adapter.SyncAdapter
	clock   func() time.Time

	mu     sync.RWMutex
	token  string
	status models.SyncStatus

	logger *logger.Logger
}

// NewRuntimeState returns a state that starts online and without a session.
func NewRuntimeState(meta store.SyncMetaRepository, syncAdapter adapter.SyncAdapter, log *logger.Logger) *RuntimeState {
	if log == nil {
		log = logger.Nop()
	}
	s := &RuntimeState{
		meta:    meta,
		adapter: syncAdapter,
		clock:   time.Now,
		logger:  log,
	}
	s.online.Store(true)
	return s
}

// SetOnline records the connectivity reported by the host.
func (s *RuntimeState) SetOnline(online bool) {
	if s.online.Swap(online) != online {
		s.logger.Info().
			Str("func", "RuntimeState.SetOnline").
			Bool("online", online).
			Msg("connectivity changed")
	}
}

// IsOnline implements ConnectivityObserver.
func (s *RuntimeState) IsOnline() bool {
	return s.online.Load()
}

// RestoreSession implements SessionService.
func (s *RuntimeState) RestoreSession(ctx context.Context) error {
	token, err := s.meta.SessionToken(ctx)
	if err != nil {
		return fmt.Errorf("load session token: %w", err)
	}
	s.setToken(token)
	return nil
}

// SetSession implements SessionService. The token is persisted before it
// becomes visible to the scheduler and the adapter.
func (s *RuntimeState) SetSession(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.meta.SetSessionToken(ctx, token); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	s.setToken(token)

	s.logger.Info().Str("func", "RuntimeState.SetSession").Msg("session stored")
	return nil
}

// ClearSession implements SessionService.
func (s *RuntimeState) ClearSession(ctx context.Context) error {
	if err := s.meta.ClearSessionToken(ctx); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	s.setToken("")

	s.logger.Info().Str("func", "RuntimeState.ClearSession").Msg("session cleared")
	return nil
}

func (s *RuntimeState) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.adapter != nil {
		s.adapter.SetToken(token)
	}
}

// HasSession implements Capabilities. A JWT past its exp claim does not
// count as a session; opaque tokens are trusted until the server rejects
// them.
func (s *RuntimeState) HasSession() bool {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return false
	}
	return !utils.TokenExpired(token, s.clock())
}

// BeginSync implements Capabilities.
func (s *RuntimeState) BeginSync(reason models.TriggerReason) {
	now := s.clock().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Running = true
	s.status.LastReason = reason
	s.status.LastStartedAt = &now
}

// CompleteSync implements Capabilities.
func (s *RuntimeState) CompleteSync(outcome *models.SyncOutcome, err error) {
	now := s.clock().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Running = false
	s.status.LastFinishedAt = &now
	if err != nil {
		s.status.LastError = err.Error()
		return
	}
	s.status.LastError = ""
	if outcome != nil {
		o := *outcome
		s.status.LastOutcome = &o
	}
}

// Snapshot returns the in-memory part of the sync status.
func (s *RuntimeState) Snapshot() models.SyncStatus {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()

	st.Online = s.IsOnline()
	st.HasSession = s.HasSession()
	return st
}
