package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/aqtracker/internal/adapters/http"
	natsadapter "github.com/samirrijal/aqtracker/internal/adapters/nats"
	"github.com/samirrijal/aqtracker/internal/adapters/overpass"
	"github.com/samirrijal/aqtracker/internal/adapters/postgres"
	"github.com/samirrijal/aqtracker/internal/adapters/temporal"
	"github.com/samirrijal/aqtracker/internal/adapters/valkey"
	"github.com/samirrijal/aqtracker/internal/core/domain"
	"github.com/samirrijal/aqtracker/internal/core/ports"
	"github.com/samirrijal/aqtracker/internal/core/usecases"
	"github.com/samirrijal/aqtracker/internal/pkg/config"
	"github.com/samirrijal/aqtracker/internal/pkg/logging"
	"github.com/samirrijal/aqtracker/internal/pkg/metrics"
	"github.com/samirrijal/aqtracker/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("aqtracker-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr, cfg.Telemetry.SampleRatio)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	region, err := loadRegion(ctx, cfg, db)
	if err != nil {
		log.Fatalf("region: %v", err)
	}
	b := region.Bounds
	slog.Info("region loaded", "name", region.Name, "source", cfg.Region.Source,
		"bounds", fmt.Sprintf("%.3f,%.3f,%.3f,%.3f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat))

	deps := &http.Dependencies{DB: db}

	// Cache
	var cache ports.CacheService
	vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
	if err != nil {
		slog.Warn("valkey unavailable, analyses will not be cached", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	// NATS
	var publisher ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, events will not be published", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
		deps.NATS = nc
	}

	// Use cases
	pipeline := usecases.NewPipeline(postgres.NewRasterEngine(db), region, cfg.Engine.SampleScaleMeters)
	analyses := usecases.NewAnalysisService(pipeline, cache, publisher, cfg.Cache.TTLSeconds)
	dispatcher := usecases.NewDispatcher(analyses)

	deps.Catalog = usecases.NewCatalogService(region)
	deps.Analyses = analyses
	deps.Dispatcher = dispatcher

	// Export queue
	tc, err := temporal.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
	if err != nil {
		slog.Warn("temporal unavailable, exports disabled", "error", err)
	} else {
		defer tc.Close()
		queue := temporal.NewQueue(tc, cfg.Temporal.TaskQueue)
		deps.Exports = usecases.NewExportService(pipeline, queue, publisher)
		deps.Temporal = queue
	}

	// Export outcomes are observed for logs and metrics only.
	if sub, err := natsadapter.NewSubscriber(cfg.NATS.URL); err != nil {
		slog.Warn("export result subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
		if err := sub.SubscribeExportResults(ctx, cfg.Telemetry.ServiceName, observeExportResult); err != nil {
			slog.Warn("subscribe export results", "error", err)
		}
	}

	go reportPoolStats(ctx, db)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Air Quality Tracker API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, " + http.SessionHeader,
		ExposeHeaders:    "Content-Disposition, X-Scene-Count",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// loadRegion resolves the region of interest once at startup.
func loadRegion(ctx context.Context, cfg *config.Config, db *postgres.DB) (*domain.Region, error) {
	filter := domain.BoundaryFilter{Attribute: cfg.Region.Attribute, Value: cfg.Region.Value}

	var source ports.BoundarySource
	switch cfg.Region.Source {
	case "overpass":
		source = overpass.NewBoundarySource(cfg.Region.OverpassEndpoint, cfg.Region.OverpassTimeout)
	default:
		source = postgres.NewBoundaryRepo(db)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Region.OverpassTimeout+10*time.Second)
	defer cancel()
	return source.Boundary(ctx, filter)
}

func observeExportResult(ctx context.Context, r *domain.ExportResult) error {
	if r.Succeeded() {
		metrics.ExportsFinished.WithLabelValues("completed").Inc()
		slog.InfoContext(ctx, "export completed", "task_id", r.TaskID, "location", r.Location, "bytes", r.Bytes)
		return nil
	}
	metrics.ExportsFinished.WithLabelValues("failed").Inc()
	slog.WarnContext(ctx, "export failed", "task_id", r.TaskID, "description", r.Description, "error", r.Error)
	return nil
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
