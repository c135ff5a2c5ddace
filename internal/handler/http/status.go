package http

import (
	"net/http"

	"github.com/MKhiriev/field-sync/internal/logger"
)

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	status, err := h.status.Status(r.Context())
	if err != nil {
		log.Err(err).Str("func", "*Handler.getStatus").Msg("error reading sync status")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	writeJSON(w, r, status, http.StatusOK)
}
