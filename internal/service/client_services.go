package service

import (
	"github.com/MKhiriev/field-sync/internal/adapter"
	"github.com/MKhiriev/field-sync/internal/config"
	"github.com/MKhiriev/field-sync/internal/logger"
	"github.com/MKhiriev/field-sync/internal/store"
)

type ClientServices struct {
	Runtime   *RuntimeState
	Engine    SyncEngine
	Scheduler SyncScheduler
	Records   RecordService
	Status    StatusService
	SyncJob   BackgroundSyncJob
}

func NewClientServices(storages *store.ClientStorages, syncAdapter adapter.SyncAdapter, workers config.Workers, log *logger.Logger) *ClientServices {
	runtime := NewRuntimeState(storages.SyncMetaRepository, syncAdapter, log)
	engine := NewSyncEngine(storages, syncAdapter, runtime, log)
	scheduler := NewSyncScheduler(engine, runtime, log, WithBackoffLadder(workers.BackoffLadder))

	return &ClientServices{
		Runtime:   runtime,
		Engine:    engine,
		Scheduler: scheduler,
		Records:   NewRecordService(storages, log),
		Status:    NewStatusService(runtime, storages.MutationQueue, scheduler),
		SyncJob:   NewBackgroundSyncJob(scheduler, log),
	}
}
