package http

import "errors"

var (
	ErrInvalidJSON     = errors.New("invalid JSON was passed")
	ErrMissingOnline   = errors.New("`online` is required")
	ErrPayloadNotEmpty = errors.New("payload must be a JSON object")
)
