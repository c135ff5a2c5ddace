package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/field-sync/internal/service"
	"github.com/MKhiriev/field-sync/internal/store"
	"github.com/MKhiriev/field-sync/models"
)

// errorStatusMap is checked in order; the first match wins.
var errorStatusMap = []struct {
	target error
	status int
}{
	{service.ErrUnknownEntity, http.StatusBadRequest},
	{service.ErrEmptyRecordID, http.StatusBadRequest},
	{service.ErrEmptyToken, http.StatusBadRequest},
	{service.ErrInvalidReason, http.StatusBadRequest},
	{models.ErrInvalidFieldValue, http.StatusBadRequest},
	{store.ErrUnknownEntity, http.StatusBadRequest},
	{store.ErrInvalidMutation, http.StatusBadRequest},
	{store.ErrRecordNotFound, http.StatusNotFound},

	{service.ErrSessionRejected, http.StatusUnauthorized},
	{service.ErrBatchRejected, http.StatusBadGateway},
	{service.ErrRemoteUnavailable, http.StatusServiceUnavailable},

	{store.ErrBuildingSQLQuery, http.StatusInternalServerError},
	{store.ErrExecutingQuery, http.StatusInternalServerError},
	{store.ErrBeginningTransaction, http.StatusInternalServerError},
	{store.ErrCommitingTransaction, http.StatusInternalServerError},
	{store.ErrExecutingStatement, http.StatusInternalServerError},
	{store.ErrScanningRow, http.StatusInternalServerError},
	{store.ErrScanningRows, http.StatusInternalServerError},
	{store.ErrCorruptQueueEntry, http.StatusInternalServerError},
}

func statusFromError(err error) int {
	for _, e := range errorStatusMap {
		if errors.Is(err, e.target) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// triggerStatusFromError maps a failed sync pass. Anything not classified
// is reported as a transient 503 so the host offers a retry.
func triggerStatusFromError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidReason):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionRejected):
		return http.StatusUnauthorized
	}
	return http.StatusServiceUnavailable
}
