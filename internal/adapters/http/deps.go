package http

import (
	"context"

	"github.com/samirrijal/aqtracker/internal/core/usecases"
)

// Pinger is a backing service the readiness check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers. Backing services
// are optional; a nil Pinger is reported as not configured.
type Dependencies struct {
	Catalog    *usecases.CatalogService
	Analyses   *usecases.AnalysisService
	Dispatcher *usecases.Dispatcher
	Exports    *usecases.ExportService

	DB       Pinger
	NATS     Pinger
	Cache    Pinger
	Temporal Pinger
}
