package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/internal/mock"
	"github.com/MKhiriev/field-sync/internal/service"
	"github.com/MKhiriev/field-sync/internal/store"
	"github.com/MKhiriev/field-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type spyConnectivity struct {
	calls  atomic.Int32
	online atomic.Bool
}

func (s *spyConnectivity) SetOnline(online bool) {
	s.calls.Add(1)
	s.online.Store(online)
}

type handlerFixture struct {
	scheduler    *mock.MockSyncScheduler
	sessions     *mock.MockSessionService
	status       *mock.MockStatusService
	records      *mock.MockRecordService
	connectivity *spyConnectivity
	router       http.Handler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &handlerFixture{
		scheduler:    mock.NewMockSyncScheduler(ctrl),
		sessions:     mock.NewMockSessionService(ctrl),
		status:       mock.NewMockStatusService(ctrl),
		records:      mock.NewMockRecordService(ctrl),
		connectivity: &spyConnectivity{},
	}
	h := &Handler{
		scheduler:    f.scheduler,
		sessions:     f.sessions,
		status:       f.status,
		records:      f.records,
		connectivity: f.connectivity,
		version:      "1.2.3",
		logger:       logger.Nop(),
	}
	f.router = h.Init()
	return f
}

func (f *handlerFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeResult(t *testing.T, rr *httptest.ResponseRecorder) models.TriggerResult {
	t.Helper()
	var result models.TriggerResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	return result
}

func TestForegroundHooks(t *testing.T) {
	tests := []struct {
		path   string
		reason models.TriggerReason
	}{
		{"/hooks/app-open", models.TriggerAppOpen},
		{"/hooks/manual", models.TriggerManual},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f := newHandlerFixture(t)
			outcome := models.SyncOutcome{Status: models.SyncSuccess, Pushed: 2}
			f.scheduler.EXPECT().
				TriggerForeground(gomock.Any(), tt.reason).
				Return(models.TriggerResult{Status: models.TriggerSuccess, Reason: tt.reason, Outcome: &outcome}, nil)

			rr := f.do(http.MethodPost, tt.path, "")

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			result := decodeResult(t, rr)
			assert.Equal(t, models.TriggerSuccess, result.Status)
			assert.Equal(t, tt.reason, result.Reason)
			require.NotNil(t, result.Outcome)
			assert.Equal(t, 2, result.Outcome.Pushed)
		})
	}
}

func TestForegroundHook_SkippedWithoutSession(t *testing.T) {
	f := newHandlerFixture(t)
	f.scheduler.EXPECT().
		TriggerForeground(gomock.Any(), models.TriggerManual).
		Return(models.TriggerResult{Status: models.TriggerSkipped, Reason: models.TriggerManual}, nil)

	rr := f.do(http.MethodPost, "/hooks/manual", "")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.TriggerSkipped, decodeResult(t, rr).Status)
}

func TestForegroundHook_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"session rejected", fmt.Errorf("push sync batch: %w", service.ErrSessionRejected), http.StatusUnauthorized},
		{"remote unavailable", fmt.Errorf("push sync batch: %w", service.ErrRemoteUnavailable), http.StatusServiceUnavailable},
		{"batch rejected", service.ErrBatchRejected, http.StatusServiceUnavailable},
		{"local failure", errors.New("disk full"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)
			f.scheduler.EXPECT().
				TriggerForeground(gomock.Any(), models.TriggerAppOpen).
				Return(models.TriggerResult{Status: models.TriggerError, Reason: models.TriggerAppOpen, Error: tt.err.Error()}, tt.err)

			rr := f.do(http.MethodPost, "/hooks/app-open", "")

			assert.Equal(t, tt.status, rr.Code)
			result := decodeResult(t, rr)
			assert.Equal(t, models.TriggerError, result.Status)
			assert.Equal(t, tt.err.Error(), result.Error)
		})
	}
}

func TestNetworkHook(t *testing.T) {
	t.Run("online triggers a pass", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.scheduler.EXPECT().
			TriggerForeground(gomock.Any(), models.TriggerNetwork).
			Return(models.TriggerResult{Status: models.TriggerSuccess, Reason: models.TriggerNetwork}, nil)

		rr := f.do(http.MethodPost, "/hooks/network", `{"online":true}`)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int32(1), f.connectivity.calls.Load())
		assert.True(t, f.connectivity.online.Load())
	})

	t.Run("offline only updates the flag", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.connectivity.online.Store(true)

		rr := f.do(http.MethodPost, "/hooks/network", `{"online":false}`)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, int32(1), f.connectivity.calls.Load())
		assert.False(t, f.connectivity.online.Load())
	})

	t.Run("missing flag", func(t *testing.T) {
		f := newHandlerFixture(t)

		rr := f.do(http.MethodPost, "/hooks/network", `{}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Zero(t, f.connectivity.calls.Load())
	})

	t.Run("invalid json", func(t *testing.T) {
		f := newHandlerFixture(t)

		rr := f.do(http.MethodPost, "/hooks/network", `{"online":`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), ErrInvalidJSON.Error())
	})
}

func TestBackgroundHook(t *testing.T) {
	f := newHandlerFixture(t)
	f.scheduler.EXPECT().
		TriggerBackground(gomock.Any()).
		Return(models.TriggerResult{Status: models.TriggerSkipped, Reason: models.TriggerBackground}, nil)

	rr := f.do(http.MethodPost, "/hooks/background", "")

	require.Equal(t, http.StatusOK, rr.Code)
	result := decodeResult(t, rr)
	assert.Equal(t, models.TriggerSkipped, result.Status)
	assert.Equal(t, models.TriggerBackground, result.Reason)
}

func TestBackgroundHook_Failure(t *testing.T) {
	f := newHandlerFixture(t)
	err := fmt.Errorf("push sync batch: %w", service.ErrRemoteUnavailable)
	f.scheduler.EXPECT().
		TriggerBackground(gomock.Any()).
		Return(models.TriggerResult{Status: models.TriggerError, Reason: models.TriggerBackground, Error: err.Error()}, err)

	rr := f.do(http.MethodPost, "/hooks/background", "")

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, models.TriggerError, decodeResult(t, rr).Status)
}

func TestSession(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.sessions.EXPECT().SetSession(gomock.Any(), "jwt-token").Return(nil)

		rr := f.do(http.MethodPut, "/session", `{"token":"jwt-token"}`)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("empty token", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.sessions.EXPECT().SetSession(gomock.Any(), "").Return(service.ErrEmptyToken)

		rr := f.do(http.MethodPut, "/session", `{"token":""}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.sessions.EXPECT().SetSession(gomock.Any(), "jwt-token").Return(fmt.Errorf("%w: locked", store.ErrExecutingQuery))

		rr := f.do(http.MethodPut, "/session", `{"token":"jwt-token"}`)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("clear", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.sessions.EXPECT().ClearSession(gomock.Any()).Return(nil)

		rr := f.do(http.MethodDelete, "/session", "")

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func TestGetStatus(t *testing.T) {
	f := newHandlerFixture(t)
	next := time.Date(2026, 5, 4, 12, 1, 0, 0, time.UTC)
	f.status.EXPECT().Status(gomock.Any()).Return(models.SyncStatus{
		Online:      true,
		HasSession:  true,
		QueueLength: 3,
		Backoff:     models.BackoffState{Step: 0, NextAttemptAt: next},
	}, nil)

	rr := f.do(http.MethodGet, "/status", "")

	require.Equal(t, http.StatusOK, rr.Code)
	var status models.SyncStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.True(t, status.Online)
	assert.Equal(t, 3, status.QueueLength)
	assert.True(t, next.Equal(status.Backoff.NextAttemptAt))
}

func TestGetVersion(t *testing.T) {
	f := newHandlerFixture(t)

	rr := f.do(http.MethodGet, "/version", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
	assert.Equal(t, "1.2.3", rr.Body.String())
}

func TestCreateRecord(t *testing.T) {
	f := newHandlerFixture(t)
	created := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	f.records.EXPECT().
		Create(gomock.Any(), models.EntitySites, "s1", gomock.Any()).
		DoAndReturn(func(_ context.Context, entity models.Entity, id string, p models.Payload) (models.MutationRecord, error) {
			assert.Equal(t, "North ridge", p["name"])
			return models.MutationRecord{
				ID:        "m1",
				Entity:    entity,
				RecordID:  id,
				Operation: models.OperationCreate,
				Payload:   p,
				Priority:  models.PriorityNormal,
				CreatedAt: created,
			}, nil
		})

	rr := f.do(http.MethodPost, "/records/sites", `{"id":"s1","name":"North ridge"}`)

	require.Equal(t, http.StatusCreated, rr.Code)
	var mutation models.MutationRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &mutation))
	assert.Equal(t, "m1", mutation.ID)
	assert.Equal(t, models.OperationCreate, mutation.Operation)
}

func TestCreateRecord_GeneratedID(t *testing.T) {
	f := newHandlerFixture(t)
	f.records.EXPECT().
		Create(gomock.Any(), models.EntitySurveys, "", gomock.Any()).
		Return(models.MutationRecord{ID: "m1", RecordID: "generated"}, nil)

	rr := f.do(http.MethodPost, "/records/surveys", `{"title":"Spring"}`)

	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestRecordErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		setup  func(f *handlerFixture)
		status int
	}{
		{
			name:   "unknown entity",
			method: http.MethodPost,
			path:   "/records/unicorns",
			body:   `{"name":"x"}`,
			setup: func(f *handlerFixture) {
				f.records.EXPECT().Create(gomock.Any(), models.Entity("unicorns"), "", gomock.Any()).Return(models.MutationRecord{}, service.ErrUnknownEntity)
			},
			status: http.StatusBadRequest,
		},
		{
			name:   "invalid field value",
			method: http.MethodPut,
			path:   "/records/sites/s1",
			body:   `{"latitude":"north"}`,
			setup: func(f *handlerFixture) {
				f.records.EXPECT().Update(gomock.Any(), models.EntitySites, "s1", gomock.Any()).
					Return(models.MutationRecord{}, fmt.Errorf("%w: sites.latitude", models.ErrInvalidFieldValue))
			},
			status: http.StatusBadRequest,
		},
		{
			name:   "delete missing record",
			method: http.MethodDelete,
			path:   "/records/sites/missing",
			setup: func(f *handlerFixture) {
				f.records.EXPECT().Delete(gomock.Any(), models.EntitySites, "missing").Return(models.MutationRecord{}, store.ErrRecordNotFound)
			},
			status: http.StatusNotFound,
		},
		{
			name:   "get missing record",
			method: http.MethodGet,
			path:   "/records/sites/missing",
			setup: func(f *handlerFixture) {
				f.records.EXPECT().Get(gomock.Any(), models.EntitySites, "missing").Return(models.EntityRecord{}, store.ErrRecordNotFound)
			},
			status: http.StatusNotFound,
		},
		{
			name:   "transaction failure",
			method: http.MethodPut,
			path:   "/records/sites/s1",
			body:   `{"name":"x"}`,
			setup: func(f *handlerFixture) {
				f.records.EXPECT().Update(gomock.Any(), models.EntitySites, "s1", gomock.Any()).
					Return(models.MutationRecord{}, fmt.Errorf("%w: busy", store.ErrBeginningTransaction))
			},
			status: http.StatusInternalServerError,
		},
		{
			name:   "invalid json",
			method: http.MethodPost,
			path:   "/records/sites",
			body:   `{"name":`,
			setup:  func(*handlerFixture) {},
			status: http.StatusBadRequest,
		},
		{
			name:   "null payload",
			method: http.MethodPut,
			path:   "/records/sites/s1",
			body:   `null`,
			setup:  func(*handlerFixture) {},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)
			tt.setup(f)

			rr := f.do(tt.method, tt.path, tt.body)

			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestDeleteAndGetRecord(t *testing.T) {
	f := newHandlerFixture(t)
	f.records.EXPECT().Delete(gomock.Any(), models.EntityObservations, "o1").
		Return(models.MutationRecord{ID: "m2", Operation: models.OperationDelete, Priority: models.PriorityCritical}, nil)
	f.records.EXPECT().Get(gomock.Any(), models.EntityObservations, "o1").
		Return(models.EntityRecord{Entity: models.EntityObservations, ID: "o1", Active: false, SyncStatus: models.SyncStatePending}, nil)

	rr := f.do(http.MethodDelete, "/records/observations/o1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var mutation models.MutationRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &mutation))
	assert.Equal(t, models.PriorityCritical, mutation.Priority)

	rr = f.do(http.MethodGet, "/records/observations/o1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var record models.EntityRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &record))
	assert.False(t, record.Active)
	assert.Equal(t, models.SyncStatePending, record.SyncStatus)
}

func TestUnregisteredMethodReturns404(t *testing.T) {
	f := newHandlerFixture(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/hooks/app-open"},
		{http.MethodPost, "/status"},
		{http.MethodGet, "/session"},
		{http.MethodPatch, "/records/sites/s1"},
		{http.MethodGet, "/nope"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := f.do(tt.method, tt.path, "")
			assert.Equal(t, http.StatusNotFound, rr.Code)
		})
	}
}

func TestTraceIDHeader(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/version", bytes.NewReader(nil))
	req.Header.Set(traceIDHeader, "trace-123")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	assert.Equal(t, "trace-123", rr.Header().Get(traceIDHeader))

	rr = f.do(http.MethodGet, "/version", "")
	assert.NotEmpty(t, rr.Header().Get(traceIDHeader))
}
