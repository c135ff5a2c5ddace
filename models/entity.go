// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Entity is the logical name of a synchronised collection.
type Entity string

const (
	EntitySites        Entity = "sites"
	EntitySurveys      Entity = "surveys"
	EntityObservations Entity = "observations"
)

// Known reports whether e has a schema on this client.
func (e Entity) Known() bool {
	_, ok := SchemaFor(e)
	return ok
}

// Entities lists every known entity in a stable order.
func Entities() []Entity {
	return []Entity{EntitySites, EntitySurveys, EntityObservations}
}

const (
	// IDKey is the payload key carrying a record's logical id.
	IDKey = "id"
	// UpdatedAtKey is the payload key every schema uses for its
	// last-modification time.
	UpdatedAtKey = "updatedAt"
)

// SyncState is the value of the sync_status column of entity tables.
type SyncState string

const (
	SyncStateSynced   SyncState = "synced"
	SyncStatePending  SyncState = "pending"
	SyncStateConflict SyncState = "conflict"
)

// ErrInvalidFieldValue is returned when a payload value cannot be converted
// to the kind its schema declares.
var ErrInvalidFieldValue = errors.New("invalid field value")

// FieldKind is the storage kind of a schema field.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldReal
	FieldTime
)

// FieldSpec maps a payload key to its column and kind.
type FieldSpec struct {
	Key    string
	Column string
	Kind   FieldKind
}

// EntitySchema describes which payload fields an entity stores and which of
// them are temporal. Fields outside the schema are never written.
type EntitySchema struct {
	Entity       Entity
	Table        string
	UpdatedAtKey string
	Fields       []FieldSpec
}

// Field looks up the spec for a payload key.
func (s EntitySchema) Field(key string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// ColumnValue is a coerced payload value ready to be bound to a column.
type ColumnValue struct {
	Column string
	Value  any
}

// Coerce converts the schema fields present in p into column values, in
// schema order. Keys that are not part of the schema (other than the id and
// updated-at keys) are returned as ignored.
func (s EntitySchema) Coerce(p Payload) ([]ColumnValue, []string, error) {
	values := make([]ColumnValue, 0, len(s.Fields))
	for _, f := range s.Fields {
		raw, ok := p[f.Key]
		if !ok {
			continue
		}
		v, err := coerceValue(f.Kind, raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s.%s: %w", ErrInvalidFieldValue, s.Entity, f.Key, err)
		}
		values = append(values, ColumnValue{Column: f.Column, Value: v})
	}

	var ignored []string
	for key := range p {
		if key == IDKey || key == s.UpdatedAtKey {
			continue
		}
		if _, ok := s.Field(key); !ok {
			ignored = append(ignored, key)
		}
	}

	return values, ignored, nil
}

// UpdatedAt returns the schema's updated-at value from p, if present and
// parseable.
func (s EntitySchema) UpdatedAt(p Payload) (time.Time, bool) {
	return ParseTimeValue(p[s.UpdatedAtKey])
}

func coerceValue(kind FieldKind, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}

	switch kind {
	case FieldText:
		switch v := raw.(type) {
		case string:
			return v, nil
		case float64, int, int64, bool:
			return fmt.Sprint(v), nil
		}
		return nil, fmt.Errorf("expected text, got %T", raw)

	case FieldReal:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case json.Number:
			return v.Float64()
		case string:
			return strconv.ParseFloat(v, 64)
		}
		return nil, fmt.Errorf("expected number, got %T", raw)

	case FieldTime:
		t, ok := ParseTimeValue(raw)
		if !ok {
			return nil, fmt.Errorf("expected timestamp, got %v", raw)
		}
		return t.UnixMilli(), nil
	}

	return nil, fmt.Errorf("unsupported field kind %d", kind)
}

// EntityRecord is a locally stored entity instance.
type EntityRecord struct {
	Entity       Entity     `json:"entity"`
	ID           string     `json:"id"`
	Fields       Payload    `json:"fields"`
	Active       bool       `json:"active"`
	SyncStatus   SyncState  `json:"syncStatus"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}
