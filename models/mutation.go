// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Operation is the kind of change a mutation or a server change describes.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Valid reports whether o is one of the known operations.
func (o Operation) Valid() bool {
	switch o {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// Priority is the drain class of a queued mutation. Lower values drain first.
// The numeric values are persisted in the queue table.
type Priority int

const (
	// PriorityCritical entries (destructive or urgent edits) drain ahead of
	// every normal entry.
	PriorityCritical Priority = 0
	// PriorityNormal is the default for routine edits.
	PriorityNormal Priority = 1
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityNormal:
		return "normal"
	}
	return "unknown"
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == PriorityCritical || p == PriorityNormal
}

// Payload is a free-form field snapshot keyed by payload field name.
type Payload map[string]any

// Clone returns a shallow copy of p. A nil payload stays nil.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// RecordKey identifies one entity instance across the queue and the store.
type RecordKey struct {
	Entity   Entity
	RecordID string
}

// MutationRecord is one pending local change. Records are never modified
// after they are enqueued, only removed.
type MutationRecord struct {
	ID        string    `json:"id"`
	Entity    Entity    `json:"entity"`
	RecordID  string    `json:"recordId"`
	Operation Operation `json:"operation"`
	Payload   Payload   `json:"payload,omitempty"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"createdAt"`
}

// Key returns the (entity, record id) pair the mutation targets.
func (m MutationRecord) Key() RecordKey {
	return RecordKey{Entity: m.Entity, RecordID: m.RecordID}
}
