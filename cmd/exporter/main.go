package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/aqtracker/internal/adapters/filestore"
	natsadapter "github.com/samirrijal/aqtracker/internal/adapters/nats"
	"github.com/samirrijal/aqtracker/internal/adapters/postgres"
	"github.com/samirrijal/aqtracker/internal/adapters/temporal"
	"github.com/samirrijal/aqtracker/internal/core/ports"
	"github.com/samirrijal/aqtracker/internal/pkg/config"
	"github.com/samirrijal/aqtracker/internal/pkg/logging"
	"github.com/samirrijal/aqtracker/internal/pkg/telemetry"
	"github.com/samirrijal/aqtracker/internal/workflows"
)

func main() {
	cfg, err := config.Load("aqtracker-exporter")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx := context.Background()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr, cfg.Telemetry.SampleRatio)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	store, err := filestore.New(cfg.Export.Dir)
	if err != nil {
		log.Fatalf("export store: %v", err)
	}

	var publisher ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, export results will only be logged", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
	}

	c, err := temporal.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	taskQueue := cfg.Temporal.TaskQueue
	if taskQueue == "" {
		taskQueue = workflows.TaskQueue
	}
	w := worker.New(c, taskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.ExportWorkflow)
	w.RegisterActivity(&workflows.ExportActivities{
		Engine:    postgres.NewRasterEngine(db),
		Store:     store,
		Publisher: publisher,
	})

	slog.Info("export worker started", "task_queue", taskQueue, "dir", cfg.Export.Dir)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
