package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MKhiriev/field-sync/internal/adapter"
	"github.com/MKhiriev/field-sync/internal/config"
	"github.com/MKhiriev/field-sync/internal/handler"
	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/internal/server"
	"github.com/MKhiriev/field-sync/internal/service"
	"github.com/MKhiriev/field-sync/internal/store"
	"github.com/MKhiriev/field-sync/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	bootLog := logger.NewLogger("field-sync")
	cfg, err := config.GetStructuredConfig(os.Args[1:])
	if err != nil {
		bootLog.Fatal().Err(err).Msg("error getting configs")
	}

	log := logger.NewClientLogger("field-sync", logger.FileOptions{
		Path:      cfg.Log.FilePath,
		MaxSizeMB: cfg.Log.MaxSizeMB,
	})

	ctx := context.Background()

	storages, err := store.NewClientStorages(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}
	defer storages.Close()

	syncAdapter, err := adapter.NewHTTPSyncAdapter(cfg.Adapter, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create sync adapter")
	}

	services := service.NewClientServices(storages, syncAdapter, cfg.Workers, log)
	if err = services.Runtime.RestoreSession(ctx); err != nil {
		log.Fatal().Err(err).Msg("restore session")
	}

	handlers, err := handler.NewHandlers(services, cfg.Hooks, version(cfg.App), log)
	if err != nil {
		log.Fatal().Err(err).Msg("create handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Hooks, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create hook server")
	}

	services.SyncJob.Start(ctx, cfg.Workers.SyncInterval)
	defer services.SyncJob.Stop()

	go func() {
		result, err := services.Scheduler.TriggerForeground(ctx, models.TriggerAppOpen)
		if err != nil {
			log.Warn().Err(err).Msg("initial sync failed")
			return
		}
		log.Info().Str("status", string(result.Status)).Msg("initial sync finished")
	}()

	srv.RunServer()
}

func version(app config.App) string {
	if app.Version != "" {
		return app.Version
	}
	return buildVersion
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
