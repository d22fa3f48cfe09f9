package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pagecraft/pagecraft/apps/server/internal/sync"
	"github.com/pagecraft/pagecraft/pkg/api"
)

func coordsFromPath(c *gin.Context, branch string) sync.Coordinates {
	return sync.Coordinates{
		Owner:  c.Param("owner"),
		Repo:   c.Param("repo"),
		Branch: branch,
	}
}

// Publish handles POST /users/:userId/repos/:owner/:repo/publish — one
// atomic multi-file commit on the named branch.
func (h *Handler) Publish(c *gin.Context) {
	var req api.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, ok := h.resolveToken(c)
	if !ok {
		return
	}

	coords := coordsFromPath(c, req.Branch)
	res, err := h.svc.Publish(c.Request.Context(), token, coords, req.Files, req.Message)
	if err != nil {
		h.writeSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.PublishResponse{CommitId: res.CommitID, Url: res.URL})
}

// PublishFile handles PUT /users/:userId/repos/:owner/:repo/file — a
// create-or-update of one file through the contents endpoint.
func (h *Handler) PublishFile(c *gin.Context) {
	var req api.PublishFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, ok := h.resolveToken(c)
	if !ok {
		return
	}

	coords := coordsFromPath(c, req.Branch)
	res, err := h.svc.PublishFile(c.Request.Context(), token, coords, req.Path, req.Content, req.Message)
	if err != nil {
		h.writeSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.PublishResponse{CommitId: res.CommitID, Url: res.URL})
}

// CreateBranch handles POST /users/:userId/repos/:owner/:repo/branches —
// makes sure the named branch exists, creating it from the source branch's
// tip when missing. Safe to repeat.
func (h *Handler) CreateBranch(c *gin.Context) {
	var req api.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, ok := h.resolveToken(c)
	if !ok {
		return
	}

	coords := coordsFromPath(c, req.SourceBranch)
	if err := h.svc.EnsureBranch(c.Request.Context(), token, coords, req.SourceBranch, req.NewBranch); err != nil {
		h.writeSyncError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
