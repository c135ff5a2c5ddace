// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"time"

	"github.com/MKhiriev/field-sync/models"
)

// queueSnapshot is the pending queue read once at the start of a pass,
// indexed by entry id and by the record each entry targets.
type queueSnapshot struct {
	entries  []models.MutationRecord
	byID     map[string]models.MutationRecord
	byRecord map[models.RecordKey][]models.MutationRecord
}

func newQueueSnapshot(entries []models.MutationRecord) queueSnapshot {
	s := queueSnapshot{
		entries:  entries,
		byID:     make(map[string]models.MutationRecord, len(entries)),
		byRecord: make(map[models.RecordKey][]models.MutationRecord),
	}
	for _, m := range entries {
		s.byID[m.ID] = m
		s.byRecord[m.Key()] = append(s.byRecord[m.Key()], m)
	}
	return s
}

// operations renders the snapshot as batch operations in queue order. Each
// operation carries its record id inside data and its queue id as localId.
func (s queueSnapshot) operations() []models.BatchOperation {
	ops := make([]models.BatchOperation, 0, len(s.entries))
	for _, m := range s.entries {
		data := m.Payload.Clone()
		if data == nil {
			data = models.Payload{}
		}
		if v, ok := data[models.IDKey]; !ok || v == nil || v == "" {
			data[models.IDKey] = m.RecordID
		}

		ops = append(ops, models.BatchOperation{
			Type:      m.Operation,
			Entity:    m.Entity,
			Data:      data,
			LocalID:   m.ID,
			Timestamp: m.CreatedAt.UTC(),
		})
	}
	return ops
}

// acknowledged returns the ids the server accepted. A nil results slice
// means the whole snapshot was accepted. Results for ids outside the
// snapshot are ignored.
func (s queueSnapshot) acknowledged(results []models.OperationResult) map[string]struct{} {
	out := make(map[string]struct{}, len(s.entries))
	if results == nil {
		for _, m := range s.entries {
			out[m.ID] = struct{}{}
		}
		return out
	}

	for _, r := range results {
		if r.Status != models.ResultSuccess {
			continue
		}
		if _, ok := s.byID[r.LocalID]; ok {
			out[r.LocalID] = struct{}{}
		}
	}
	return out
}

// localTimestamp is the newest updated-at value among the pending entries
// of a record, falling back to each entry's createdAt.
func localTimestamp(schema models.EntitySchema, pending []models.MutationRecord) *time.Time {
	var latest *time.Time
	for _, m := range pending {
		ts, ok := schema.UpdatedAt(m.Payload)
		if !ok {
			ts = m.CreatedAt.UTC()
		}
		if latest == nil || ts.After(*latest) {
			t := ts
			latest = &t
		}
	}
	return latest
}

// serverWins reports whether the server change must overwrite local state.
// Ties go to the server.
func serverWins(server time.Time, local *time.Time) bool {
	return local == nil || !server.Before(*local)
}

type resolvedChange struct {
	key             models.RecordKey
	change          models.ServerChange
	serverTimestamp time.Time
}

// reconcilePlan is the outcome of conflict resolution, computed before any
// local write happens.
type reconcilePlan struct {
	apply     []resolvedChange
	remove    map[string]struct{}
	keep      map[string]struct{}
	conflicts []models.Conflict
}

func (p reconcilePlan) conflictedRecords() int {
	seen := make(map[models.RecordKey]struct{}, len(p.conflicts))
	for _, c := range p.conflicts {
		seen[models.RecordKey{Entity: c.Entity, RecordID: c.RecordID}] = struct{}{}
	}
	return len(seen)
}

func (e *syncEngine) reconcile(snap queueSnapshot, changes []models.ServerChange) reconcilePlan {
	plan := reconcilePlan{
		remove: make(map[string]struct{}),
		keep:   make(map[string]struct{}),
	}

	for _, change := range changes {
		schema, ok := models.SchemaFor(change.Entity)
		if !ok {
			e.logger.Warn().
				Str("func", "syncEngine.reconcile").
				Str("entity", string(change.Entity)).
				Msg("skipping server change for unknown entity")
			continue
		}
		recordID := change.RecordID()
		if recordID == "" {
			e.logger.Warn().
				Str("func", "syncEngine.reconcile").
				Str("entity", string(change.Entity)).
				Msg("skipping server change without id")
			continue
		}
		if !change.Type.Valid() {
			e.logger.Warn().
				Str("func", "syncEngine.reconcile").
				Str("entity", string(change.Entity)).
				Str("record_id", recordID).
				Str("type", string(change.Type)).
				Msg("skipping server change with unknown type")
			continue
		}
		if change.Type != models.OperationDelete {
			if _, _, err := schema.Coerce(change.Data); err != nil {
				e.logger.Warn().Err(err).
					Str("func", "syncEngine.reconcile").
					Str("entity", string(change.Entity)).
					Str("record_id", recordID).
					Msg("skipping server change with invalid field value")
				continue
			}
		}

		key := models.RecordKey{Entity: change.Entity, RecordID: recordID}
		serverTS := e.serverTimestamp(schema, change)
		resolved := resolvedChange{key: key, change: change, serverTimestamp: serverTS}

		pending := snap.byRecord[key]
		if len(pending) == 0 {
			plan.apply = append(plan.apply, resolved)
			continue
		}

		localTS := localTimestamp(schema, pending)
		conflict := models.Conflict{
			Entity:          key.Entity,
			RecordID:        key.RecordID,
			ServerTimestamp: serverTS,
			LocalTimestamp:  localTS,
		}

		if serverWins(serverTS, localTS) {
			conflict.Resolution = models.ResolutionServer
			plan.apply = append(plan.apply, resolved)
			for _, m := range pending {
				plan.remove[m.ID] = struct{}{}
			}
		} else {
			conflict.Resolution = models.ResolutionLocal
			for _, m := range pending {
				plan.keep[m.ID] = struct{}{}
			}
		}
		plan.conflicts = append(plan.conflicts, conflict)

		ev := e.logger.Info().
			Str("func", "syncEngine.reconcile").
			Str("entity", string(key.Entity)).
			Str("record_id", key.RecordID).
			Time("server_timestamp", serverTS).
			Str("resolution", string(conflict.Resolution))
		if localTS != nil {
			ev = ev.Time("local_timestamp", *localTS)
		}
		ev.Msg("sync conflict resolved")
	}

	return plan
}

// serverTimestamp prefers the change timestamp, then the schema's
// updated-at field inside data, then the engine clock.
func (e *syncEngine) serverTimestamp(schema models.EntitySchema, change models.ServerChange) time.Time {
	if change.Timestamp != nil {
		return change.Timestamp.UTC()
	}
	if ts, ok := schema.UpdatedAt(change.Data); ok {
		return ts
	}
	return e.clock().UTC()
}
