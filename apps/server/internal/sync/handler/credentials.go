package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pagecraft/pagecraft/apps/server/internal/credentials"
	"github.com/pagecraft/pagecraft/apps/server/internal/sync"
	"github.com/pagecraft/pagecraft/pkg/api"
)

// LinkCredential handles PUT /users/:userId/credential — encrypts and stores
// (or replaces) the user's GitHub token. The plaintext token never reaches
// the log or the response.
func (h *Handler) LinkCredential(c *gin.Context) {
	userID := c.Param("userId")

	var req api.LinkCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	encrypted, err := h.cipher.Encrypt(req.Token)
	if err != nil {
		h.log.Error("failed to encrypt credential", "userId", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "credential encryption unavailable"})
		return
	}

	if err := h.store.Put(c.Request.Context(), userID, encrypted); err != nil {
		h.log.Error("failed to store credential", "userId", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store credential"})
		return
	}

	h.log.Info("credential linked", "userId", userID)
	c.Status(http.StatusNoContent)
}

// UnlinkCredential handles DELETE /users/:userId/credential.
func (h *Handler) UnlinkCredential(c *gin.Context) {
	userID := c.Param("userId")

	if err := h.store.Delete(c.Request.Context(), userID); err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no linked credential"})
			return
		}
		h.log.Error("failed to delete credential", "userId", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete credential"})
		return
	}

	h.log.Info("credential unlinked", "userId", userID)
	c.Status(http.StatusNoContent)
}

// ListRepositories handles GET /users/:userId/repositories.
func (h *Handler) ListRepositories(c *gin.Context) {
	token, ok := h.resolveToken(c)
	if !ok {
		return
	}

	repos, err := h.svc.ListRepositories(c.Request.Context(), token)
	if err != nil {
		h.writeSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, repos)
}

// resolveToken loads and decrypts the credential of the user named in the
// URL. On failure it writes the mapped error response and returns ok=false.
func (h *Handler) resolveToken(c *gin.Context) (string, bool) {
	userID := c.Param("userId")

	encrypted, err := h.store.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no linked credential"})
			return "", false
		}
		h.log.Error("failed to load credential", "userId", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load credential"})
		return "", false
	}

	token, err := h.cipher.Decrypt(encrypted)
	if err != nil {
		var missingKey credentials.MissingKeyError
		if errors.As(err, &missingKey) {
			h.log.Error("credential key not configured", "userId", userID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "credential encryption unavailable"})
			return "", false
		}
		// Format and verification failures mean the stored record cannot be
		// recovered with the current key. The user has to relink.
		c.JSON(http.StatusConflict, gin.H{"error": "stored credential cannot be decrypted, relink required"})
		return "", false
	}

	return token, true
}

// writeSyncError maps pipeline errors onto HTTP responses. Remote failures
// surface as 502 with the failing step and the remote status, so the editor
// can distinguish a rejected credential from a transient host problem.
func (h *Handler) writeSyncError(c *gin.Context, err error) {
	var step sync.StepError
	if errors.As(err, &step) {
		body := gin.H{"error": err.Error(), "step": string(step.Step)}
		if status, ok := sync.RemoteStatus(err); ok {
			body["remoteStatus"] = status
			if status == http.StatusUnauthorized {
				body["detail"] = "remote rejected the linked credential"
			}
		}
		h.log.Error("remote operation failed", "step", string(step.Step), "error", err)
		c.JSON(http.StatusBadGateway, body)
		return
	}

	h.log.Error("sync operation failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
