package temporal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/aqtracker/internal/core/domain"
	"github.com/samirrijal/aqtracker/internal/workflows"
)

// Queue implements ports.ExportQueue by starting an ExportWorkflow. It never
// waits for the workflow to finish.
type Queue struct {
	client    client.Client
	taskQueue string
}

// Dial connects to the Temporal frontend.
func Dial(hostPort, namespace string) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("temporal dial: %w", err)
	}
	return c, nil
}

// NewQueue creates a Queue on taskQueue. An empty taskQueue uses the default
// export queue.
func NewQueue(c client.Client, taskQueue string) *Queue {
	if taskQueue == "" {
		taskQueue = workflows.TaskQueue
	}
	return &Queue{client: c, taskQueue: taskQueue}
}

// Submit starts the export workflow and returns its workflow ID.
func (q *Queue) Submit(ctx context.Context, job domain.ExportJob) (string, error) {
	run, err := q.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "export-" + uuid.NewString(),
		TaskQueue: q.taskQueue,
	}, workflows.ExportWorkflow, job)
	if err != nil {
		return "", fmt.Errorf("start export workflow: %w", err)
	}
	return run.GetID(), nil
}

// Ping checks the frontend is serving.
func (q *Queue) Ping(ctx context.Context) error {
	_, err := q.client.CheckHealth(ctx, &client.CheckHealthRequest{})
	return err
}
