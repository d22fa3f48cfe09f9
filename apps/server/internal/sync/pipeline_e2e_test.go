package sync_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagecraft/pagecraft/apps/server/internal/platform/github"
	"github.com/pagecraft/pagecraft/apps/server/internal/sync"
	"github.com/pagecraft/pagecraft/pkg/api"
)

// TestPublish_EndToEnd drives the pipeline through the real HTTP client
// against a scripted git host and checks the exact wire conversation: seven
// requests, in protocol order, ending with a non-forced ref update.
func TestPublish_EndToEnd(t *testing.T) {
	type call struct {
		method string
		path   string
		body   []byte
	}
	var (
		mu    gosync.Mutex
		calls []call
	)

	blobSeq := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, call{r.Method, r.URL.Path, body})
		mu.Unlock()

		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		key := r.Method + " " + r.URL.Path
		switch key {
		case "GET /repos/acme/site/git/ref/heads/main":
			fmt.Fprint(w, `{"object":{"sha":"head-1"}}`)
		case "GET /repos/acme/site/git/commits/head-1":
			fmt.Fprint(w, `{"tree":{"sha":"base-tree-1"}}`)
		case "POST /repos/acme/site/git/blobs":
			mu.Lock()
			blobSeq++
			n := blobSeq
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"sha":"blob-%d"}`, n)
		case "POST /repos/acme/site/git/trees":
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"sha":"tree-2"}`)
		case "POST /repos/acme/site/git/commits":
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"sha":"commit-1","html_url":"https://github.com/acme/site/commit/commit-1"}`)
		case "PATCH /repos/acme/site/git/refs/heads/main":
			fmt.Fprint(w, `{"object":{"sha":"commit-1"}}`)
		default:
			t.Errorf("unexpected request: %s", key)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	svc := sync.NewService(github.NewClient(srv.URL, nil), slog.Default())

	files := []api.CommitFile{
		{Path: ".x/data.json", Content: "{}"},
		{Path: ".x/page.html", Content: "<h1>Hi</h1>"},
	}
	res, err := svc.Publish(context.Background(), "tok",
		sync.Coordinates{Owner: "acme", Repo: "site", Branch: "main"},
		files, "Update prototype files")
	require.NoError(t, err)

	assert.Equal(t, "commit-1", res.CommitID)
	assert.Equal(t, "https://github.com/acme/site/commit/commit-1", res.URL)

	require.Len(t, calls, 7)
	assert.Equal(t, "GET /repos/acme/site/git/ref/heads/main", calls[0].method+" "+calls[0].path)
	assert.Equal(t, "GET /repos/acme/site/git/commits/head-1", calls[1].method+" "+calls[1].path)
	assert.Equal(t, "POST /repos/acme/site/git/blobs", calls[2].method+" "+calls[2].path)
	assert.Equal(t, "POST /repos/acme/site/git/blobs", calls[3].method+" "+calls[3].path)
	assert.Equal(t, "POST /repos/acme/site/git/trees", calls[4].method+" "+calls[4].path)
	assert.Equal(t, "POST /repos/acme/site/git/commits", calls[5].method+" "+calls[5].path)
	assert.Equal(t, "PATCH /repos/acme/site/git/refs/heads/main", calls[6].method+" "+calls[6].path)

	// Tree layered over the base tree with one entry per file.
	var tree struct {
		BaseTree string `json:"base_tree"`
		Tree     []struct {
			Path string `json:"path"`
			Mode string `json:"mode"`
			Type string `json:"type"`
			SHA  string `json:"sha"`
		} `json:"tree"`
	}
	require.NoError(t, json.Unmarshal(calls[4].body, &tree))
	assert.Equal(t, "base-tree-1", tree.BaseTree)
	require.Len(t, tree.Tree, 2)
	for _, e := range tree.Tree {
		assert.Equal(t, "100644", e.Mode)
		assert.Equal(t, "blob", e.Type)
	}

	// Commit parented on the original head.
	var commit struct {
		Message string   `json:"message"`
		Tree    string   `json:"tree"`
		Parents []string `json:"parents"`
	}
	require.NoError(t, json.Unmarshal(calls[5].body, &commit))
	assert.Equal(t, "Update prototype files", commit.Message)
	assert.Equal(t, "tree-2", commit.Tree)
	assert.Equal(t, []string{"head-1"}, commit.Parents)

	// Fast-forward ref update, never forced.
	var ref struct {
		SHA   string `json:"sha"`
		Force bool   `json:"force"`
	}
	require.NoError(t, json.Unmarshal(calls[6].body, &ref))
	assert.Equal(t, "commit-1", ref.SHA)
	assert.False(t, ref.Force)
}
