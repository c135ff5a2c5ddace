// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the transport layer between the sync engine and
// the remote sync server.
//
// The primary abstraction is [SyncAdapter]. The package ships an HTTP/JSON
// implementation ([NewHTTPSyncAdapter]). Non-2xx responses are mapped to the
// sentinel errors in errors.go so callers can use [errors.Is] regardless of
// the transport.
package adapter

import (
	"context"

	"github.com/MKhiriev/field-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/sync_adapter_mock.go -package=mock

// SyncAdapter exchanges one batch of local mutations for the server's
// changes since the last sync.
type SyncAdapter interface {
	// SetToken stores the bearer token attached to every subsequent request.
	// An empty token removes the Authorization header.
	SetToken(token string)

	// Token returns the bearer token currently held by the adapter.
	Token() string

	// PushBatch sends req in a single round trip. A 2xx response with an
	// empty body yields a zero response. Timeouts and retries are governed
	// by the adapter configuration, not by the caller.
	PushBatch(ctx context.Context, req models.SyncBatchRequest) (models.SyncBatchResponse, error)
}
