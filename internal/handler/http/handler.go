package http

import (
	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/internal/service"
)

// ConnectivityReporter receives connectivity changes from the host.
type ConnectivityReporter interface {
	SetOnline(online bool)
}

type Handler struct {
	scheduler    service.SyncScheduler
	sessions     service.SessionService
	status       service.StatusService
	records      service.RecordService
	connectivity ConnectivityReporter

	version string

	logger *logger.Logger
}

func NewHandler(services *service.ClientServices, version string, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		scheduler:    services.Scheduler,
		sessions:     services.Runtime,
		status:       services.Status,
		records:      services.Records,
		connectivity: services.Runtime,
		version:      version,
		logger:       logger,
	}
}
