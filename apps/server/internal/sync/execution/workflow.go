package execution

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/pagecraft/pagecraft/pkg/api"
)

// PublishRunInput is the full input to a durable publish run. The credential
// is resolved inside the activity from the user id, never carried through
// workflow history.
type PublishRunInput struct {
	UserID          string           `json:"userId"`
	Owner           string           `json:"owner"`
	Repo            string           `json:"repo"`
	Branch          string           `json:"branch"`
	Message         string           `json:"message"`
	Files           []api.CommitFile `json:"files"`
	MaximumAttempts int32            `json:"maximumAttempts"`
}

// PublishOrchestrator is the Temporal workflow wrapping one publish in a
// retry envelope. The publish pipeline itself never retries; each attempt
// here runs the full six-step protocol from scratch, which is safe because a
// failed attempt leaves the branch ref untouched.
//
// A query handler ("result") exposes the commit once an attempt lands.
func PublishOrchestrator(ctx workflow.Context, input PublishRunInput) (api.PublishResponse, error) {
	var result api.PublishResponse

	if err := workflow.SetQueryHandler(ctx, "result", func() (api.PublishResponse, error) {
		return result, nil
	}); err != nil {
		return api.PublishResponse{}, fmt.Errorf("register query handler: %w", err)
	}

	attempts := input.MaximumAttempts
	if attempts <= 0 {
		attempts = 1
	}
	actOpts := workflow.ActivityOptions{
		TaskQueue:           workflow.GetInfo(ctx).TaskQueueName,
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: attempts,
		},
	}
	actCtx := workflow.WithActivityOptions(ctx, actOpts)

	if err := workflow.ExecuteActivity(actCtx, "PublishSite", input).Get(ctx, &result); err != nil {
		return api.PublishResponse{}, fmt.Errorf("publish %s/%s@%s: %w", input.Owner, input.Repo, input.Branch, err)
	}
	return result, nil
}
