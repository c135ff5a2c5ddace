package http

import (
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/field-sync/internal/logger"
)

type sessionRequest struct {
	Token string `json:"token"`
}

func (h *Handler) setSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.setSession").Msg("invalid JSON was passed")
		http.Error(w, ErrInvalidJSON.Error(), http.StatusBadRequest)
		return
	}

	if err := h.sessions.SetSession(r.Context(), req.Token); err != nil {
		log.Err(err).Str("func", "*Handler.setSession").Msg("error storing session")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	if err := h.sessions.ClearSession(r.Context()); err != nil {
		log.Err(err).Str("func", "*Handler.clearSession").Msg("error clearing session")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
