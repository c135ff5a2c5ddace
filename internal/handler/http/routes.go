package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// lifecycle hooks
	router.Post("/hooks/app-open", h.appOpen)
	router.Post("/hooks/manual", h.manualRefresh)
	router.Post("/hooks/network", h.networkChanged)
	router.Post("/hooks/background", h.backgroundWake)

	router.Put("/session", h.setSession)
	router.Delete("/session", h.clearSession)

	router.Get("/status", h.getStatus)
	router.Get("/version", h.getVersion)

	// local edits
	router.Post("/records/{entity}", h.createRecord)
	router.Get("/records/{entity}/{id}", h.getRecord)
	router.Put("/records/{entity}/{id}", h.updateRecord)
	router.Delete("/records/{entity}/{id}", h.deleteRecord)

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
