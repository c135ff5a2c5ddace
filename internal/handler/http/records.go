// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/models"
	"github.com/go-chi/chi/v5"
)

// createRecord stores a new record and queues its create mutation. The id is
// taken from the payload when present, otherwise one is generated.
func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	entity := models.Entity(chi.URLParam(r, "entity"))

	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	recordID, _ := payload[models.IDKey].(string)
	mutation, err := h.records.Create(r.Context(), entity, recordID, payload)
	if err != nil {
		log.Err(err).Str("func", "*Handler.createRecord").Str("entity", string(entity)).Msg("error creating record")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	writeJSON(w, r, mutation, http.StatusCreated)
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	entity := models.Entity(chi.URLParam(r, "entity"))
	recordID := chi.URLParam(r, "id")

	payload, ok := decodePayload(w, r)
	if !ok {
		return
	}

	mutation, err := h.records.Update(r.Context(), entity, recordID, payload)
	if err != nil {
		log.Err(err).Str("func", "*Handler.updateRecord").Str("entity", string(entity)).Str("record_id", recordID).Msg("error updating record")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	writeJSON(w, r, mutation, http.StatusOK)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	entity := models.Entity(chi.URLParam(r, "entity"))
	recordID := chi.URLParam(r, "id")

	mutation, err := h.records.Delete(r.Context(), entity, recordID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.deleteRecord").Str("entity", string(entity)).Str("record_id", recordID).Msg("error deleting record")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	writeJSON(w, r, mutation, http.StatusOK)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)
	entity := models.Entity(chi.URLParam(r, "entity"))
	recordID := chi.URLParam(r, "id")

	record, err := h.records.Get(r.Context(), entity, recordID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getRecord").Str("entity", string(entity)).Str("record_id", recordID).Msg("error reading record")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	writeJSON(w, r, record, http.StatusOK)
}

func decodePayload(w http.ResponseWriter, r *http.Request) (models.Payload, bool) {
	var payload models.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.FromRequest(r).Err(err).Msg("invalid JSON was passed")
		http.Error(w, ErrInvalidJSON.Error(), http.StatusBadRequest)
		return nil, false
	}
	if payload == nil {
		http.Error(w, ErrPayloadNotEmpty.Error(), http.StatusBadRequest)
		return nil, false
	}
	return payload, true
}
