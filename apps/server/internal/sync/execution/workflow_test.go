package execution_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/pagecraft/pagecraft/apps/server/internal/sync/execution"
	"github.com/pagecraft/pagecraft/pkg/api"
)

// newActivities returns an Activities instance suitable for use in workflow
// tests. The activity method is always mocked via env.OnActivity so the nil
// dependencies are never actually called.
func newActivities() *execution.Activities {
	return execution.NewActivities(nil, nil, nil, slog.Default())
}

func runInput(attempts int32) execution.PublishRunInput {
	return execution.PublishRunInput{
		UserID:          "user-1",
		Owner:           "acme",
		Repo:            "site",
		Branch:          "main",
		Message:         "Update prototype files",
		Files:           []api.CommitFile{{Path: ".x/data.json", Content: "{}"}},
		MaximumAttempts: attempts,
	}
}

// ─── Happy path ───────────────────────────────────────────────────────────────

func TestPublishOrchestrator_Success(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	acts := newActivities()
	env.RegisterActivity(acts)
	env.OnActivity(acts.PublishSite, mock.Anything, mock.Anything).
		Return(api.PublishResponse{CommitId: "commit-1", Url: "https://github.com/acme/site/commit/commit-1"}, nil)

	env.ExecuteWorkflow(execution.PublishOrchestrator, runInput(0))

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result api.PublishResponse
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "commit-1", result.CommitId)
	require.Equal(t, "https://github.com/acme/site/commit/commit-1", result.Url)
}

// ─── Failure + retry envelope ────────────────────────────────────────────────

func TestPublishOrchestrator_SingleAttempt_FailureIsFinal(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	acts := newActivities()
	env.RegisterActivity(acts)

	calls := 0
	env.OnActivity(acts.PublishSite, mock.Anything, mock.Anything).
		Return(api.PublishResponse{}, errors.New("update branch ref failed: remote returned HTTP 409")).
		Run(func(mock.Arguments) { calls++ })

	env.ExecuteWorkflow(execution.PublishOrchestrator, runInput(1))

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	require.Equal(t, 1, calls, "MaximumAttempts 1 means no retry")
}

func TestPublishOrchestrator_RetriesUntilSuccess(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	acts := newActivities()
	env.RegisterActivity(acts)

	calls := 0
	env.OnActivity(acts.PublishSite, mock.Anything, mock.Anything).
		Return(func(_ context.Context, _ execution.PublishRunInput) (api.PublishResponse, error) {
			calls++
			if calls < 3 {
				return api.PublishResponse{}, errors.New("remote returned HTTP 502")
			}
			return api.PublishResponse{CommitId: "commit-1"}, nil
		})

	env.ExecuteWorkflow(execution.PublishOrchestrator, runInput(3))

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	require.Equal(t, 3, calls)

	var result api.PublishResponse
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "commit-1", result.CommitId)
}
