package adapter

import "errors"

var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInternalServerError = errors.New("internal server error")
	ErrBadGateway          = errors.New("bad gateway")
	ErrServerUnavailable   = errors.New("server unavailable")
	ErrUnexpectedStatus    = errors.New("unexpected response status")

	// ErrTransport wraps failures that happened before a response was
	// received (DNS, connection refused, timeout).
	ErrTransport = errors.New("transport failure")
)
