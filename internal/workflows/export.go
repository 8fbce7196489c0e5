package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/aqtracker/internal/core/domain"
)

// TaskQueue is the Temporal task queue export jobs are routed to.
const TaskQueue = "aq-exports"

// Error type of a pixel-cap violation. Such failures are never retried.
const ErrTypeTooManyPixels = "TooManyPixels"

// ExportWorkflow renders one export job to a GeoTIFF and announces the
// outcome. The submitter does not wait for it.
func ExportWorkflow(ctx workflow.Context, job domain.ExportJob) (domain.ExportResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting export workflow", "description", job.Description, "scaleMeters", job.ScaleMeters)

	exportCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        5 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeTooManyPixels},
		},
	})

	var result domain.ExportResult
	err := workflow.ExecuteActivity(exportCtx, "ExportRaster", job).Get(ctx, &result)
	if err != nil {
		logger.Error("export failed", "description", job.Description, "error", err)
		result = domain.ExportResult{
			TaskID:      workflow.GetInfo(ctx).WorkflowExecution.ID,
			Description: job.Description,
			Pixels:      job.PixelCount(),
			Error:       err.Error(),
			FinishedAt:  workflow.Now(ctx).UTC(),
		}
	}

	notifyCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})
	if perr := workflow.ExecuteActivity(notifyCtx, "PublishExportResult", result).Get(ctx, nil); perr != nil {
		logger.Warn("export result not published", "error", perr)
	}

	if err != nil {
		return result, err
	}
	logger.Info("Export finished", "location", result.Location, "bytes", result.Bytes)
	return result, nil
}
