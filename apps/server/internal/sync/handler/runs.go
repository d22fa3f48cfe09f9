package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagecraft/pagecraft/apps/server/internal/sync"
	"github.com/pagecraft/pagecraft/apps/server/internal/sync/execution"
	"github.com/pagecraft/pagecraft/pkg/api"
)

// StartPublishRun handles POST /users/:userId/repos/:owner/:repo/publish-runs
// — starts a durable publish run on the workflow engine and returns its id.
// The credential itself stays out of the workflow input; the activity
// resolves it from the user id at execution time.
func (h *Handler) StartPublishRun(c *gin.Context) {
	var req api.StartPublishRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := execution.PublishRunInput{
		UserID:          c.Param("userId"),
		Owner:           c.Param("owner"),
		Repo:            c.Param("repo"),
		Branch:          req.Branch,
		Message:         req.Message,
		Files:           req.Files,
		MaximumAttempts: req.MaximumAttempts,
	}

	runID := "publish-" + uuid.NewString()
	id, err := h.engine.StartWorkflow(c.Request.Context(), "PublishOrchestrator", runID, input)
	if err != nil {
		h.log.Error("failed to start publish run", "userId", input.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start publish run"})
		return
	}

	h.log.Info("publish run started", "runId", id, "owner", input.Owner, "repo", input.Repo, "branch", input.Branch)
	c.JSON(http.StatusAccepted, api.StartPublishRunResponse{RunId: id})
}

// GetPublishRun handles GET /publish-runs/:runId.
func (h *Handler) GetPublishRun(c *gin.Context) {
	runID := c.Param("runId")

	ws, err := h.engine.GetStatus(c.Request.Context(), runID)
	if errors.Is(err, sync.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "publish run not found"})
		return
	}
	if err != nil {
		h.log.Error("failed to query publish run", "runId", runID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query publish run"})
		return
	}

	status := api.PublishRunStatus{
		RunId:         runID,
		RuntimeStatus: ws.RuntimeStatus,
	}
	if len(ws.Output) > 0 {
		var result api.PublishResponse
		if err := json.Unmarshal(ws.Output, &result); err == nil && result.CommitId != "" {
			status.Result = &result
		}
	}
	if ws.RuntimeStatus == "FAILED" {
		status.Error = "publish run failed"
	}

	c.JSON(http.StatusOK, status)
}
