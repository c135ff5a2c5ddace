package handler

import (
	"github.com/MKhiriev/field-sync/internal/config"
	"github.com/MKhiriev/field-sync/internal/handler/http"
	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
}

func NewHandlers(services *service.ClientServices, cfg config.Hooks, version string, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if cfg.Address == "" {
		return nil, errNoHandlersAreCreated
	}

	return &Handlers{HTTP: http.NewHandler(services, version, logger)}, nil
}
