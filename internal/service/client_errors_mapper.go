// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/field-sync/internal/adapter"
)

// mapAdapterError classifies a transport error for the scheduler and the
// hook surface. The adapter error stays in the chain.
func mapAdapterError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, adapter.ErrUnauthorized), errors.Is(err, adapter.ErrForbidden):
		return fmt.Errorf("%w: %w", ErrSessionRejected, err)

	case errors.Is(err, adapter.ErrBadRequest), errors.Is(err, adapter.ErrConflict),
		errors.Is(err, adapter.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrBatchRejected, err)

	case errors.Is(err, adapter.ErrTransport), errors.Is(err, adapter.ErrServerUnavailable),
		errors.Is(err, adapter.ErrBadGateway), errors.Is(err, adapter.ErrInternalServerError):
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}

	return err
}
