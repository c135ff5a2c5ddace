package service

import "errors"

var (
	ErrUnknownEntity   = errors.New("unknown entity")
	ErrEmptyRecordID   = errors.New("record id is empty")
	ErrInvalidReason   = errors.New("invalid trigger reason")
	ErrEmptyToken      = errors.New("session token is empty")
	ErrSessionRejected = errors.New("session rejected by sync server")
	ErrBatchRejected   = errors.New("sync batch rejected by server")

	// ErrRemoteUnavailable marks transient server or network failures that
	// are expected to succeed on retry.
	ErrRemoteUnavailable = errors.New("sync server unavailable")
)
