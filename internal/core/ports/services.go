package ports

import (
	"context"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishAnalysis(ctx context.Context, a *domain.Analysis) error
	PublishExportSubmitted(ctx context.Context, t *domain.ExportTicket) error
	PublishExportResult(ctx context.Context, r *domain.ExportResult) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// ExportQueue accepts export jobs for asynchronous execution. Submit returns
// as soon as the job is enqueued; completion is never reported back.
type ExportQueue interface {
	Submit(ctx context.Context, job domain.ExportJob) (taskID string, err error)
}
