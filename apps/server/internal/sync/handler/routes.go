package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pagecraft/pagecraft/apps/server/internal/credentials"
	"github.com/pagecraft/pagecraft/apps/server/internal/sync"
)

// Handler translates HTTP requests into calls on the sync.Service and the
// credential store.
type Handler struct {
	svc    *sync.Service
	store  credentials.Store
	cipher *credentials.Cipher
	engine sync.WorkflowEngine
	log    *slog.Logger
}

// RegisterRoutes mounts the pagecraft sync API onto the given Gin engine.
func RegisterRoutes(r *gin.Engine, svc *sync.Service, store credentials.Store, cipher *credentials.Cipher, engine sync.WorkflowEngine, log *slog.Logger) {
	h := &Handler{svc: svc, store: store, cipher: cipher, engine: engine, log: log}

	r.GET("/health", h.Health)

	// Credential lifecycle
	r.PUT("/users/:userId/credential", h.LinkCredential)
	r.DELETE("/users/:userId/credential", h.UnlinkCredential)
	r.GET("/users/:userId/repositories", h.ListRepositories)

	// Publishing (credential resolved from the user ID in the URL)
	r.POST("/users/:userId/repos/:owner/:repo/branches", h.CreateBranch)
	r.POST("/users/:userId/repos/:owner/:repo/publish", h.Publish)
	r.PUT("/users/:userId/repos/:owner/:repo/file", h.PublishFile)

	// Durable publish runs
	r.POST("/users/:userId/repos/:owner/:repo/publish-runs", h.StartPublishRun)
	r.GET("/publish-runs/:runId", h.GetPublishRun)
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
