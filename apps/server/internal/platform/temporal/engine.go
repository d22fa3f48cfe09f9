package temporalplatform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/pagecraft/pagecraft/apps/server/internal/sync"
)

// Compile-time check: *Engine implements sync.WorkflowEngine.
var _ sync.WorkflowEngine = (*Engine)(nil)

const (
	taskQueue    = "pagecraft-sync"
	statusFailed = "FAILED"
)

// Engine implements sync.WorkflowEngine using the Temporal SDK client.
type Engine struct {
	c client.Client
}

// NewEngine creates a new Temporal workflow engine.
func NewEngine(c client.Client) *Engine {
	return &Engine{c: c}
}

// TaskQueue returns the Temporal task queue name used by the engine.
func TaskQueue() string { return taskQueue }

// StartWorkflow starts a new Temporal workflow execution.
func (e *Engine) StartWorkflow(ctx context.Context, name, instanceID string, input any) (string, error) {
	opts := client.StartWorkflowOptions{
		ID:        instanceID,
		TaskQueue: taskQueue,
	}
	run, err := e.c.ExecuteWorkflow(ctx, opts, name, input)
	if err != nil {
		return "", fmt.Errorf("start workflow %q: %w", name, err)
	}
	return run.GetID(), nil
}

// GetStatus returns the current status of a publish run.
func (e *Engine) GetStatus(ctx context.Context, instanceID string) (*sync.WorkflowStatus, error) {
	desc, err := e.c.DescribeWorkflowExecution(ctx, instanceID, "")
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("workflow %q: %w", instanceID, sync.ErrRunNotFound)
		}
		return nil, fmt.Errorf("describe workflow %q: %w", instanceID, err)
	}

	status := mapTemporalStatus(desc.WorkflowExecutionInfo.Status)
	ws := &sync.WorkflowStatus{
		RuntimeStatus: status,
	}

	// Running workflows expose partial results through the query handler.
	if status == "RUNNING" {
		val, err := e.c.QueryWorkflow(ctx, instanceID, "", "result")
		if err == nil {
			var result json.RawMessage
			if err := val.Get(&result); err == nil {
				ws.Output = result
			}
		}
		return ws, nil
	}

	// Completed/failed workflows carry the final result.
	run := e.c.GetWorkflow(ctx, instanceID, "")
	var result json.RawMessage
	if err := run.Get(ctx, &result); err == nil {
		ws.Output = result
	}

	return ws, nil
}

func mapTemporalStatus(s enumspb.WorkflowExecutionStatus) string {
	switch s {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		return "RUNNING"
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		return "COMPLETED"
	case enumspb.WORKFLOW_EXECUTION_STATUS_FAILED,
		enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED,
		enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED,
		enumspb.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		return statusFailed
	case enumspb.WORKFLOW_EXECUTION_STATUS_UNSPECIFIED,
		enumspb.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		return "UNKNOWN"
	default:
		return "UNKNOWN"
	}
}
