package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/aqtracker/internal/core/domain"
	"github.com/samirrijal/aqtracker/internal/core/ports"
	"github.com/samirrijal/aqtracker/internal/pkg/metrics"
)

// ExportService builds export descriptors and hands them to the task queue.
// It never waits for, polls, or inspects the outcome of a job.
type ExportService struct {
	pipeline  *Pipeline
	queue     ports.ExportQueue
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewExportService creates a new ExportService. publisher may be nil.
func NewExportService(pipeline *Pipeline, queue ports.ExportQueue, publisher ports.EventPublisher) *ExportService {
	return &ExportService{pipeline: pipeline, queue: queue, publisher: publisher, now: time.Now}
}

// Submit computes the composite for sel and enqueues its export.
func (s *ExportService) Submit(ctx context.Context, sel domain.SelectionState) (*domain.ExportTicket, error) {
	handle, cfg, err := s.pipeline.Composite(ctx, sel)
	if err != nil {
		return nil, err
	}
	return s.SubmitRaster(ctx, cfg, handle, sel.Year, sel.Month)
}

// SubmitRaster enqueues the export of an already computed raster.
func (s *ExportService) SubmitRaster(ctx context.Context, cfg domain.PollutantConfig, handle *domain.RasterHandle, year, month int) (*domain.ExportTicket, error) {
	job, err := domain.NewExportJob(handle, s.pipeline.Region(), cfg, year, month)
	if err != nil {
		return nil, err
	}

	taskID, err := s.queue.Submit(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("submit export %s: %w", job.Description, err)
	}
	metrics.ExportsSubmitted.WithLabelValues(string(cfg.ID)).Inc()

	ticket := &domain.ExportTicket{
		TaskID:      taskID,
		Description: job.Description,
		SubmittedAt: s.now().UTC(),
	}
	slog.InfoContext(ctx, "export task started", "task_id", taskID, "description", job.Description)

	if s.publisher != nil {
		_ = s.publisher.PublishExportSubmitted(ctx, ticket)
	}
	return ticket, nil
}
