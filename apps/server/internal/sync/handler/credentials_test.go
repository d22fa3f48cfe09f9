package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagecraft/pagecraft/apps/server/internal/credentials"
	"github.com/pagecraft/pagecraft/apps/server/internal/sync"
	"github.com/pagecraft/pagecraft/pkg/api"
)

// ─── Credential linking ───────────────────────────────────────────────────────

func TestLinkCredential_StoresEncryptedToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPut, "/users/user-1/credential", api.LinkCredentialRequest{Token: "ghp_secret"})

	require.Equal(t, http.StatusNoContent, w.Code)

	stored := ts.store.records["user-1"]
	require.NotEmpty(t, stored)
	assert.NotContains(t, stored, "ghp_secret", "token must be stored encrypted")

	cipher := credentials.NewCipher(func() string { return ts.secret })
	token, err := cipher.Decrypt(stored)
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret", token)
}

func TestLinkCredential_ReplacesExisting(t *testing.T) {
	ts := newTestServer(t)
	ts.link(t, "user-1", "old-token")

	w := ts.do(http.MethodPut, "/users/user-1/credential", api.LinkCredentialRequest{Token: "new-token"})

	require.Equal(t, http.StatusNoContent, w.Code)
	cipher := credentials.NewCipher(func() string { return ts.secret })
	token, err := cipher.Decrypt(ts.store.records["user-1"])
	require.NoError(t, err)
	assert.Equal(t, "new-token", token)
}

func TestLinkCredential_MissingToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPut, "/users/user-1/credential", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLinkCredential_NoKeyConfigured(t *testing.T) {
	ts := newTestServer(t)
	ts.secret = ""

	w := ts.do(http.MethodPut, "/users/user-1/credential", api.LinkCredentialRequest{Token: "ghp_secret"})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "ghp_secret")
}

func TestUnlinkCredential(t *testing.T) {
	ts := newTestServer(t)
	ts.link(t, "user-1", "ghp_secret")

	w := ts.do(http.MethodDelete, "/users/user-1/credential", nil)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, ts.store.records)
}

func TestUnlinkCredential_NotLinked(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodDelete, "/users/user-1/credential", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ─── Repository listing + credential resolution ───────────────────────────────

func TestListRepositories_Success(t *testing.T) {
	ts := newTestServer(t)
	ts.link(t, "user-1", "ghp_secret")

	w := ts.do(http.MethodGet, "/users/user-1/repositories", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var repos []api.Repository
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &repos))
	require.Len(t, repos, 1)
	assert.Equal(t, "acme/site", repos[0].FullName)

	assert.Equal(t, "ghp_secret", ts.host.lastToken, "decrypted token reaches the host client")
}

func TestListRepositories_NolinkedCredential(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/users/user-1/repositories", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRepositories_CorruptRecord_RequiresRelink(t *testing.T) {
	ts := newTestServer(t)
	ts.link(t, "user-1", "ghp_secret")
	ts.secret = "a different key" // record can no longer be verified

	w := ts.do(http.MethodGet, "/users/user-1/repositories", nil)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "relink")
}

func TestListRepositories_KeyGoneMissing(t *testing.T) {
	ts := newTestServer(t)
	ts.link(t, "user-1", "ghp_secret")
	ts.secret = ""

	w := ts.do(http.MethodGet, "/users/user-1/repositories", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListRepositories_RemoteRejectsCredential(t *testing.T) {
	ts := newTestServer(t)
	ts.link(t, "user-1", "ghp_secret")
	ts.host.err = &sync.RemoteError{StatusCode: http.StatusUnauthorized, Message: "Bad credentials"}

	w := ts.do(http.MethodGet, "/users/user-1/repositories", nil)

	require.Equal(t, http.StatusBadGateway, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(http.StatusUnauthorized), body["remoteStatus"])
	assert.Contains(t, body["detail"], "rejected")
	assert.NotContains(t, w.Body.String(), "ghp_secret")
}
