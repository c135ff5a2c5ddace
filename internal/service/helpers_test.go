package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/internal/store"
	"github.com/MKhiriev/field-sync/models"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock {
	return &fakeClock{now: at}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqIDs struct {
	prefix string
	n      atomic.Int64
}

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("%s%04d", g.prefix, g.n.Add(1))
}

// newTestStorages opens a migrated in-memory database whose queue takes
// createdAt from clock and hands out ids q0001, q0002, ...
func newTestStorages(t *testing.T, clock *fakeClock) *store.ClientStorages {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	db := store.NewDB(conn, logger.Nop())
	require.NoError(t, db.Migrate())

	return store.NewClientStoragesFromDB(db, logger.Nop(),
		store.WithClock(clock.Now),
		store.WithIDGenerator(&seqIDs{prefix: "q"}),
	)
}

func enqueue(t *testing.T, s *store.ClientStorages, entity models.Entity, recordID string, op models.Operation, payload models.Payload, opts ...store.EnqueueOption) models.MutationRecord {
	t.Helper()
	m, err := s.MutationQueue.Enqueue(context.Background(), s.DB, entity, recordID, op, payload, opts...)
	require.NoError(t, err)
	return m
}

func queuedIDs(t *testing.T, s *store.ClientStorages) []string {
	t.Helper()
	list, err := s.MutationQueue.List(context.Background(), store.NoLimit)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, m := range list {
		ids = append(ids, m.ID)
	}
	return ids
}

// stubConnectivity is a settable ConnectivityObserver.
type stubConnectivity struct {
	online atomic.Bool
}

func online() *stubConnectivity {
	c := &stubConnectivity{}
	c.online.Store(true)
	return c
}

func (c *stubConnectivity) IsOnline() bool { return c.online.Load() }

// stubCaps records the scheduler hooks.
type stubCaps struct {
	session atomic.Bool

	mu        sync.Mutex
	begun     []models.TriggerReason
	completed int
	lastErr   error
}

func withSession() *stubCaps {
	c := &stubCaps{}
	c.session.Store(true)
	return c
}

func (c *stubCaps) HasSession() bool { return c.session.Load() }

func (c *stubCaps) BeginSync(reason models.TriggerReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.begun = append(c.begun, reason)
}

func (c *stubCaps) CompleteSync(_ *models.SyncOutcome, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed++
	c.lastErr = err
}
