package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/aqtracker/internal/core/domain"
	"github.com/samirrijal/aqtracker/internal/core/ports"
)

// ExportActivities holds the activity implementations for the export workflow.
type ExportActivities struct {
	Engine    ports.RasterEngine
	Store     ports.ExportStore
	Publisher ports.EventPublisher
}

// ExportRaster checks the pixel cap, materialises the raster and stores it as
// <Description>.tif.
func (a *ExportActivities) ExportRaster(ctx context.Context, job domain.ExportJob) (domain.ExportResult, error) {
	info := activity.GetInfo(ctx)
	result := domain.ExportResult{
		TaskID:      info.WorkflowExecution.ID,
		Description: job.Description,
		Pixels:      job.PixelCount(),
	}

	if err := job.CheckPixelCap(); err != nil {
		return result, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeTooManyPixels, err)
	}

	data, err := a.Engine.Materialize(ctx, &job.Raster, job.ScaleMeters)
	if err != nil {
		return result, fmt.Errorf("materialize %s: %w", job.Description, err)
	}

	location, err := a.Store.Put(ctx, job.Description+".tif", data)
	if err != nil {
		return result, fmt.Errorf("store %s: %w", job.Description, err)
	}

	result.Location = location
	result.Bytes = len(data)
	result.FinishedAt = time.Now().UTC()
	slog.InfoContext(ctx, "export written",
		"task_id", result.TaskID, "location", location, "bytes", result.Bytes, "attempt", info.Attempt)
	return result, nil
}

// PublishExportResult announces the outcome on the event bus.
func (a *ExportActivities) PublishExportResult(ctx context.Context, result domain.ExportResult) error {
	if a.Publisher == nil {
		slog.InfoContext(ctx, "export result (no publisher)", "task_id", result.TaskID, "error", result.Error)
		return nil
	}
	if err := a.Publisher.PublishExportResult(ctx, &result); err != nil {
		return fmt.Errorf("publish export result %s: %w", result.TaskID, err)
	}
	return nil
}
