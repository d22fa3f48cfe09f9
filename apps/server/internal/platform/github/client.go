// Package github implements the sync.GitHost port against the GitHub REST
// and Git Data APIs (or a mock server speaking the same shape). The client
// owns URL construction and error surfacing; authentication tokens arrive
// per call and are never logged or echoed into error messages.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pagecraft/pagecraft/apps/server/internal/sync"
	"github.com/pagecraft/pagecraft/pkg/api"
)

const defaultAPIURL = "https://api.github.com"

// repoListPageSize caps the repository listing at one page.
const repoListPageSize = 100

// Compile-time check: *Client implements sync.GitHost.
var _ sync.GitHost = (*Client)(nil)

// Client talks to the GitHub (or mock-GitHub) API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a GitHub API client pointing at baseURL. Pass baseURL=""
// for the real GitHub API, or a custom URL (e.g. "http://localhost:9090")
// for a mock server. A nil httpClient falls back to a plain http.Client;
// pass the result of NewAppHTTPClient to authenticate as a GitHub App
// instead of with per-call tokens.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// GetBranchHead resolves refs/heads/{branch} to its head commit SHA. The
// read goes through the singular git/ref endpoint: the plural git/refs form
// is a prefix search that answers with an array whenever another branch
// shares the prefix.
func (c *Client) GetBranchHead(ctx context.Context, token string, coord sync.Coordinates) (string, error) {
	var ref struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	path := fmt.Sprintf("/repos/%s/%s/git/ref/heads/%s",
		segment(coord.Owner), segment(coord.Repo), segment(coord.Branch))
	if err := c.call(ctx, token, http.MethodGet, path, nil, &ref); err != nil {
		return "", err
	}
	return ref.Object.SHA, nil
}

// GetCommitTree resolves a commit object to its tree SHA.
func (c *Client) GetCommitTree(ctx context.Context, token string, coord sync.Coordinates, commitSHA string) (string, error) {
	var commit struct {
		Tree struct {
			SHA string `json:"sha"`
		} `json:"tree"`
	}
	path := fmt.Sprintf("/repos/%s/%s/git/commits/%s",
		segment(coord.Owner), segment(coord.Repo), segment(commitSHA))
	if err := c.call(ctx, token, http.MethodGet, path, nil, &commit); err != nil {
		return "", err
	}
	return commit.Tree.SHA, nil
}

// CreateBlob uploads content base64-encoded and returns the blob SHA. The
// base64 transport keeps the mechanism binary-safe regardless of content.
func (c *Client) CreateBlob(ctx context.Context, token string, coord sync.Coordinates, content []byte) (string, error) {
	body := map[string]string{
		"content":  base64.StdEncoding.EncodeToString(content),
		"encoding": "base64",
	}
	var blob struct {
		SHA string `json:"sha"`
	}
	path := fmt.Sprintf("/repos/%s/%s/git/blobs", segment(coord.Owner), segment(coord.Repo))
	if err := c.call(ctx, token, http.MethodPost, path, body, &blob); err != nil {
		return "", err
	}
	return blob.SHA, nil
}

// CreateTree creates a tree layering entries on top of baseTreeSHA.
// Unlisted paths are inherited from the base tree unchanged; an empty entry
// list is a valid empty overlay.
func (c *Client) CreateTree(ctx context.Context, token string, coord sync.Coordinates, baseTreeSHA string, entries []sync.TreeEntry) (string, error) {
	type treeEntry struct {
		Path string `json:"path"`
		Mode string `json:"mode"`
		Type string `json:"type"`
		SHA  string `json:"sha"`
	}
	wire := make([]treeEntry, 0, len(entries))
	for _, e := range entries {
		wire = append(wire, treeEntry{Path: e.Path, Mode: "100644", Type: "blob", SHA: e.SHA})
	}
	body := map[string]any{
		"base_tree": baseTreeSHA,
		"tree":      wire,
	}
	var tree struct {
		SHA string `json:"sha"`
	}
	path := fmt.Sprintf("/repos/%s/%s/git/trees", segment(coord.Owner), segment(coord.Repo))
	if err := c.call(ctx, token, http.MethodPost, path, body, &tree); err != nil {
		return "", err
	}
	return tree.SHA, nil
}

// CreateCommit creates a commit object for treeSHA with the given parents.
func (c *Client) CreateCommit(ctx context.Context, token string, coord sync.Coordinates, message, treeSHA string, parentSHAs []string) (sync.Commit, error) {
	body := map[string]any{
		"message": message,
		"tree":    treeSHA,
		"parents": parentSHAs,
	}
	var commit struct {
		SHA     string `json:"sha"`
		HTMLURL string `json:"html_url"`
	}
	path := fmt.Sprintf("/repos/%s/%s/git/commits", segment(coord.Owner), segment(coord.Repo))
	if err := c.call(ctx, token, http.MethodPost, path, body, &commit); err != nil {
		return sync.Commit{}, err
	}
	return sync.Commit{SHA: commit.SHA, URL: commit.HTMLURL}, nil
}

// UpdateBranchRef moves refs/heads/{branch} to commitSHA. force is always
// false: the remote rejects non-fast-forward updates, which is the
// pipeline's guard against clobbering a concurrently moved branch.
func (c *Client) UpdateBranchRef(ctx context.Context, token string, coord sync.Coordinates, commitSHA string) error {
	body := map[string]any{
		"sha":   commitSHA,
		"force": false,
	}
	path := fmt.Sprintf("/repos/%s/%s/git/refs/heads/%s",
		segment(coord.Owner), segment(coord.Repo), segment(coord.Branch))
	return c.call(ctx, token, http.MethodPatch, path, body, nil)
}

// CreateBranchRef creates refs/heads/{newBranch} at commitSHA.
func (c *Client) CreateBranchRef(ctx context.Context, token string, coord sync.Coordinates, newBranch, commitSHA string) error {
	body := map[string]string{
		"ref": "refs/heads/" + newBranch,
		"sha": commitSHA,
	}
	path := fmt.Sprintf("/repos/%s/%s/git/refs", segment(coord.Owner), segment(coord.Repo))
	return c.call(ctx, token, http.MethodPost, path, body, nil)
}

// GetFileSHA returns the blob SHA of path on the coordinate branch.
func (c *Client) GetFileSHA(ctx context.Context, token string, coord sync.Coordinates, filepath string) (string, error) {
	var file struct {
		SHA string `json:"sha"`
	}
	path := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s",
		segment(coord.Owner), segment(coord.Repo), escapePath(filepath), url.QueryEscape(coord.Branch))
	if err := c.call(ctx, token, http.MethodGet, path, nil, &file); err != nil {
		return "", err
	}
	return file.SHA, nil
}

// PutFile creates or updates one file through the contents endpoint. When
// req.PriorSHA is set the write is an update of that blob, otherwise a
// create.
func (c *Client) PutFile(ctx context.Context, token string, coord sync.Coordinates, req sync.PutFileRequest) (sync.Commit, error) {
	body := map[string]any{
		"message": req.Message,
		"content": base64.StdEncoding.EncodeToString(req.Content),
		"branch":  req.Branch,
	}
	if req.PriorSHA != "" {
		body["sha"] = req.PriorSHA
	}
	var resp struct {
		Commit struct {
			SHA     string `json:"sha"`
			HTMLURL string `json:"html_url"`
		} `json:"commit"`
	}
	path := fmt.Sprintf("/repos/%s/%s/contents/%s",
		segment(coord.Owner), segment(coord.Repo), escapePath(req.Path))
	if err := c.call(ctx, token, http.MethodPut, path, body, &resp); err != nil {
		return sync.Commit{}, err
	}
	return sync.Commit{SHA: resp.Commit.SHA, URL: resp.Commit.HTMLURL}, nil
}

// ListRepositories returns the repositories visible to the token holder
// across owner, collaborator, and organization-member affiliations, most
// recently pushed first.
func (c *Client) ListRepositories(ctx context.Context, token string) ([]api.Repository, error) {
	q := url.Values{}
	q.Set("affiliation", "owner,collaborator,organization_member")
	q.Set("sort", "pushed")
	q.Set("per_page", fmt.Sprintf("%d", repoListPageSize))

	var raw []struct {
		ID            int64      `json:"id"`
		Name          string     `json:"name"`
		FullName      string     `json:"full_name"`
		Private       bool       `json:"private"`
		DefaultBranch string     `json:"default_branch"`
		HTMLURL       string     `json:"html_url"`
		PushedAt      *time.Time `json:"pushed_at"`
	}
	if err := c.call(ctx, token, http.MethodGet, "/user/repos?"+q.Encode(), nil, &raw); err != nil {
		return nil, err
	}

	repos := make([]api.Repository, 0, len(raw))
	for _, r := range raw {
		repos = append(repos, api.Repository{
			Id:            r.ID,
			Name:          r.Name,
			FullName:      r.FullName,
			Private:       r.Private,
			DefaultBranch: r.DefaultBranch,
			Url:           r.HTMLURL,
			PushedAt:      r.PushedAt,
		})
	}
	return repos, nil
}

// call issues one authenticated JSON request. Non-2xx responses become a
// sync.RemoteError carrying the status code and the remote's message field,
// wrapped with the method and path for context. Transport failures wrap the
// underlying error unchanged.
func (c *Client) call(ctx context.Context, token, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { //nolint:errcheck // response body close errors are non-actionable after reading
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s %s: %w", method, path, &sync.RemoteError{
			StatusCode: resp.StatusCode,
			Message:    remoteMessage(resp.Body),
		})
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

// remoteMessage extracts the "message" field GitHub error bodies carry.
// Best effort: an unreadable or non-JSON body yields an empty message.
func remoteMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload); err != nil {
		return ""
	}
	return payload.Message
}

// segment percent-encodes one opaque path segment (owner, repo, branch,
// SHA). A slash inside the value is data, not a separator, so it is escaped.
func segment(s string) string {
	return url.PathEscape(s)
}

// escapePath percent-encodes a repository-relative file path segment by
// segment, preserving internal slashes as path separators.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
