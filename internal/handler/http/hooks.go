package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/models"
)

type networkHookRequest struct {
	Online *bool `json:"online"`
}

func (h *Handler) appOpen(w http.ResponseWriter, r *http.Request) {
	h.triggerForeground(w, r, models.TriggerAppOpen)
}

func (h *Handler) manualRefresh(w http.ResponseWriter, r *http.Request) {
	h.triggerForeground(w, r, models.TriggerManual)
}

// networkChanged records the connectivity reported by the host. Coming back
// online starts a foreground pass; going offline only updates the flag.
func (h *Handler) networkChanged(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var req networkHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.networkChanged").Msg("invalid JSON was passed")
		http.Error(w, ErrInvalidJSON.Error(), http.StatusBadRequest)
		return
	}
	if req.Online == nil {
		http.Error(w, ErrMissingOnline.Error(), http.StatusBadRequest)
		return
	}

	h.connectivity.SetOnline(*req.Online)
	log.Info().Bool("online", *req.Online).Msg("connectivity changed")

	if !*req.Online {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.triggerForeground(w, r, models.TriggerNetwork)
}

func (h *Handler) backgroundWake(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	result, err := h.scheduler.TriggerBackground(r.Context())
	if err != nil {
		log.Err(err).Str("func", "*Handler.backgroundWake").Msg("background sync failed")
		writeJSON(w, r, result, triggerStatusFromError(err))
		return
	}

	writeJSON(w, r, result, http.StatusOK)
}

func (h *Handler) triggerForeground(w http.ResponseWriter, r *http.Request, reason models.TriggerReason) {
	log := logger.FromRequest(r)

	result, err := h.scheduler.TriggerForeground(r.Context(), reason)
	if err != nil {
		log.Err(err).Str("func", "*Handler.triggerForeground").Str("reason", string(reason)).Msg("sync failed")
		writeJSON(w, r, result, triggerStatusFromError(err))
		return
	}

	writeJSON(w, r, result, http.StatusOK)
}
