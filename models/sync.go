package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidTimestamp is returned when a wire timestamp is neither an RFC 3339
// string nor a number of unix milliseconds.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// BatchOperation is one pushed mutation inside a SyncBatchRequest.
type BatchOperation struct {
	Type      Operation `json:"type"`
	Entity    Entity    `json:"entity"`
	Data      Payload   `json:"data"`
	LocalID   string    `json:"localId"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncBatchRequest is the body of POST /sync/batch.
type SyncBatchRequest struct {
	Operations        []BatchOperation `json:"operations"`
	LastSyncTimestamp *time.Time       `json:"lastSyncTimestamp"`
}

// ResultStatus is the per-operation verdict returned by the server.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultIgnored ResultStatus = "ignored"
	ResultError   ResultStatus = "error"
)

// OperationResult correlates a server verdict with the queue entry that was
// pushed under LocalID.
type OperationResult struct {
	LocalID string       `json:"localId"`
	Status  ResultStatus `json:"status"`
	Entity  Entity       `json:"entity,omitempty"`
}

// ServerChange is a change originated on the server that the client should
// apply locally.
type ServerChange struct {
	Type      Operation  `json:"type"`
	Entity    Entity     `json:"entity"`
	Data      Payload    `json:"data"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// UnmarshalJSON accepts the timestamp as RFC 3339 or unix milliseconds, like
// the time values inside Data.
func (c *ServerChange) UnmarshalJSON(b []byte) error {
	type plain ServerChange
	aux := struct {
		*plain
		Timestamp any `json:"timestamp"`
	}{plain: (*plain)(c)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	ts, err := decodeTimestamp(aux.Timestamp)
	if err != nil {
		return fmt.Errorf("server change timestamp: %w", err)
	}
	c.Timestamp = ts
	return nil
}

// RecordID extracts the logical id from Data. Numeric ids are rendered in
// their canonical decimal form. It returns "" when the id is missing.
func (c ServerChange) RecordID() string {
	return payloadID(c.Data)
}

// SyncBatchResponse is the body returned by POST /sync/batch.
//
// Results is nil when the server omitted the field, which means the whole
// pushed batch was accepted. An empty, non-nil slice means no operation was
// acknowledged.
type SyncBatchResponse struct {
	Results          []OperationResult `json:"results,omitempty"`
	ServerChanges    []ServerChange    `json:"serverChanges,omitempty"`
	NewSyncTimestamp *time.Time        `json:"newSyncTimestamp,omitempty"`
}

// UnmarshalJSON accepts newSyncTimestamp as RFC 3339 or unix milliseconds.
func (r *SyncBatchResponse) UnmarshalJSON(b []byte) error {
	type plain SyncBatchResponse
	aux := struct {
		*plain
		NewSyncTimestamp any `json:"newSyncTimestamp"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	ts, err := decodeTimestamp(aux.NewSyncTimestamp)
	if err != nil {
		return fmt.Errorf("newSyncTimestamp: %w", err)
	}
	r.NewSyncTimestamp = ts
	return nil
}

func decodeTimestamp(v any) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	t, ok := ParseTimeValue(v)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimestamp, v)
	}
	return &t, nil
}

func payloadID(p Payload) string {
	v, ok := p[IDKey]
	if !ok || v == nil {
		return ""
	}

	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case fmt.Stringer:
		return id.String()
	}
	return fmt.Sprint(v)
}
