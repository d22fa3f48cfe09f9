package main

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// commitObj is a git commit as held by the mock object store.
type commitObj struct {
	SHA     string    `json:"sha"`
	Tree    string    `json:"tree"`
	Parents []string  `json:"parents"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
}

// repoState is one repository's object store. Trees are flattened: a tree
// sha maps every file path in the snapshot to its blob sha, which is enough
// for the Git Data API surface the sync server uses.
type repoState struct {
	mu      sync.RWMutex
	blobs   map[string][]byte
	trees   map[string]map[string]string
	commits map[string]commitObj
	refs    map[string]string // branch → commit sha
}

func newRepoState() *repoState {
	return &repoState{
		blobs:   make(map[string][]byte),
		trees:   make(map[string]map[string]string),
		commits: make(map[string]commitObj),
		refs:    make(map[string]string),
	}
}

// store holds repositories keyed by "owner/repo".
type store struct {
	mu    sync.RWMutex
	repos map[string]*repoState
}

func newStore() *store {
	return &store{repos: make(map[string]*repoState)}
}

func (s *store) repo(owner, repo string) *repoState {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := owner + "/" + repo
	r, ok := s.repos[key]
	if !ok {
		r = newRepoState()
		s.repos[key] = r
	}
	return r
}

func (s *store) repoNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.repos))
	for name := range s.repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func objectSHA(kind string, data []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s %d\x00", kind, len(data))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func (r *repoState) putBlob(content []byte) string {
	sha := objectSHA("blob", content)
	r.blobs[sha] = content
	return sha
}

func (r *repoState) putTree(base map[string]string, overlay map[string]string) string {
	tree := make(map[string]string, len(base)+len(overlay))
	for p, sha := range base {
		tree[p] = sha
	}
	for p, sha := range overlay {
		tree[p] = sha
	}
	paths := make([]string, 0, len(tree))
	for p := range tree {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	var sb strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&sb, "%s\x00%s\n", p, tree[p])
	}
	sha := objectSHA("tree", []byte(sb.String()))
	r.trees[sha] = tree
	return sha
}

func (r *repoState) putCommit(treeSHA, message string, parents []string) commitObj {
	now := time.Now().UTC()
	payload := fmt.Sprintf("%s|%s|%s|%d", treeSHA, strings.Join(parents, ","), message, now.UnixNano())
	c := commitObj{
		SHA:     objectSHA("commit", []byte(payload)),
		Tree:    treeSHA,
		Parents: parents,
		Message: message,
		Date:    now,
	}
	r.commits[c.SHA] = c
	return c
}

// isAncestor reports whether old is reachable from new via parent links.
func (r *repoState) isAncestor(old, new string) bool {
	seen := map[string]bool{}
	queue := []string{new}
	for len(queue) > 0 {
		sha := queue[0]
		queue = queue[1:]
		if sha == old {
			return true
		}
		if seen[sha] {
			continue
		}
		seen[sha] = true
		queue = append(queue, r.commits[sha].Parents...)
	}
	return false
}

// fileAt returns the blob content for path at the branch head.
func (r *repoState) fileAt(branch, path string) ([]byte, string, bool) {
	head, ok := r.refs[branch]
	if !ok {
		return nil, "", false
	}
	tree := r.trees[r.commits[head].Tree]
	sha, ok := tree[path]
	if !ok {
		return nil, "", false
	}
	return r.blobs[sha], sha, true
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	s := newStore()

	seedRepos(s)
	log.Info("seeded repos", "repos", len(s.repoNames()))

	r := gin.Default()
	registerHTMLRoutes(r, s)
	registerAPIRoutes(r, s, log)

	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}

	log.Info("mock-github starting", "port", port)
	if err := r.Run(":" + port); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func notFound(c *gin.Context, format string, args ...any) {
	c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf(format, args...)})
}

//nolint:gocognit // route table is long but flat
func registerAPIRoutes(r *gin.Engine, s *store, log *slog.Logger) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Repository listing for the linked user. Every seeded repo is visible.
	r.GET("/user/repos", func(c *gin.Context) {
		names := s.repoNames()
		out := make([]gin.H, 0, len(names))
		id := int64(1)
		for _, name := range names {
			parts := strings.SplitN(name, "/", 2)
			out = append(out, gin.H{
				"id":             id,
				"name":           parts[1],
				"full_name":      name,
				"private":        false,
				"default_branch": "main",
				"html_url":       "http://localhost:9090/" + name,
				"pushed_at":      time.Now().UTC().Format(time.RFC3339),
			})
			id++
		}
		c.JSON(http.StatusOK, out)
	})

	// --- Git Data API ---

	// Exact-match ref read (singular "ref").
	r.GET("/repos/:owner/:repo/git/ref/heads/:branch", func(c *gin.Context) {
		repo := s.repo(c.Param("owner"), c.Param("repo"))
		repo.mu.RLock()
		defer repo.mu.RUnlock()
		head, ok := repo.refs[c.Param("branch")]
		if !ok {
			notFound(c, "branch %q not found", c.Param("branch"))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ref":    "refs/heads/" + c.Param("branch"),
			"object": gin.H{"sha": head, "type": "commit"},
		})
	})

	// Prefix search (plural "refs"), matching real GitHub: a lone match
	// comes back as an object, several matches as an array.
	r.GET("/repos/:owner/:repo/git/refs/heads/:branch", func(c *gin.Context) {
		repo := s.repo(c.Param("owner"), c.Param("repo"))
		repo.mu.RLock()
		defer repo.mu.RUnlock()
		prefix := c.Param("branch")
		var names []string
		for name := range repo.refs {
			if strings.HasPrefix(name, prefix) {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			notFound(c, "no refs match %q", prefix)
			return
		}
		sort.Strings(names)
		matches := make([]gin.H, 0, len(names))
		for _, name := range names {
			matches = append(matches, gin.H{
				"ref":    "refs/heads/" + name,
				"object": gin.H{"sha": repo.refs[name], "type": "commit"},
			})
		}
		if len(matches) == 1 {
			c.JSON(http.StatusOK, matches[0])
			return
		}
		c.JSON(http.StatusOK, matches)
	})

	r.PATCH("/repos/:owner/:repo/git/refs/heads/:branch", func(c *gin.Context) {
		var req struct {
			SHA   string `json:"sha" binding:"required"`
			Force bool   `json:"force"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		repo := s.repo(c.Param("owner"), c.Param("repo"))
		repo.mu.Lock()
		defer repo.mu.Unlock()
		branch := c.Param("branch")
		head, ok := repo.refs[branch]
		if !ok {
			notFound(c, "branch %q not found", branch)
			return
		}
		if _, ok := repo.commits[req.SHA]; !ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Object does not exist"})
			return
		}
		if !req.Force && !repo.isAncestor(head, req.SHA) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"message": fmt.Sprintf("Update is not a fast forward, %s is at %s", branch, head),
			})
			return
		}
		repo.refs[branch] = req.SHA
		log.Info("ref updated", "branch", branch, "sha", req.SHA)
		c.JSON(http.StatusOK, gin.H{"object": gin.H{"sha": req.SHA, "type": "commit"}})
	})

	r.POST("/repos/:owner/:repo/git/refs", func(c *gin.Context) {
		var req struct {
			Ref string `json:"ref" binding:"required"`
			SHA string `json:"sha" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		branch := strings.TrimPrefix(req.Ref, "refs/heads/")
		repo := s.repo(c.Param("owner"), c.Param("repo"))
		repo.mu.Lock()
		defer repo.mu.Unlock()
		if _, exists := repo.refs[branch]; exists {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Reference already exists"})
			return
		}
		if _, ok := repo.commits[req.SHA]; !ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Object does not exist"})
			return
		}
		repo.refs[branch] = req.SHA
		log.Info("branch created", "branch", branch, "sha", req.SHA)
		c.JSON(http.StatusCreated, gin.H{"ref": req.Ref, "object": gin.H{"sha": req.SHA}})
	})

	r.GET("/repos/:owner/:repo/git/commits/:sha", func(c *gin.Context) {
		repo := s.repo(c.Param("owner"), c.Param("repo"))
		repo.mu.RLock()
		defer repo.mu.RUnlock()
		commit, ok := repo.commits[c.Param("sha")]
		if !ok {
			notFound(c, "commit %q not found", c.Param("sha"))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"sha":     commit.SHA,
			"message": commit.Message,
			"tree":    gin.H{"sha": commit.Tree},
		})
	})

	r.POST("/repos/:owner/:repo/git/blobs", func(c *gin.Context) {
		var req struct {
			Content  string `json:"content"`
			Encoding string `json:"encoding"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		content := []byte(req.Content)
		if req.Encoding == "base64" {
			decoded, err := base64.StdEncoding.DecodeString(req.Content)
			if err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "content is not valid base64"})
				return
			}
			content = decoded
		}
		repo := s.repo(c.Param("owner"), c.Param("repo"))
		repo.mu.Lock()
		sha := repo.putBlob(content)
		repo.mu.Unlock()
		c.JSON(http.StatusCreated, gin.H{"sha": sha})
	})

	r.POST("/repos/:owner/:repo/git/trees", func(c *gin.Context) {
		var req struct {
			BaseTree string `json:"base_tree"`
			Tree     []struct {
				Path string `json:"path" binding:"required"`
				SHA  string `json:"sha"  binding:"required"`
			} `json:"tree"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		repo := s.repo(c.Param("owner"), c.Param("repo"))
		repo.mu.Lock()
		defer repo.mu.Unlock()
		base := repo.trees[req.BaseTree]
		overlay := make(map[string]string, len(req.Tree))
		for _, e := range req.Tree {
			if _, ok := repo.blobs[e.SHA]; !ok {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"message": fmt.Sprintf("blob %q does not exist", e.SHA)})
				return
			}
			overlay[e.Path] = e.SHA
		}
		c.JSON(http.StatusCreated, gin.H{"sha": repo.putTree(base, overlay)})
	})

	r.POST("/repos/:owner/:repo/git/commits", func(c *gin.Context) {
		var req struct {
			Message string   `json:"message" binding:"required"`
			Tree    string   `json:"tree"    binding:"required"`
			Parents []string `json:"parents"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		owner, repoName := c.Param("owner"), c.Param("repo")
		repo := s.repo(owner, repoName)
		repo.mu.Lock()
		defer repo.mu.Unlock()
		if _, ok := repo.trees[req.Tree]; !ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": fmt.Sprintf("tree %q does not exist", req.Tree)})
			return
		}
		commit := repo.putCommit(req.Tree, req.Message, req.Parents)
		log.Info("commit created", "repo", owner+"/"+repoName, "sha", commit.SHA)
		c.JSON(http.StatusCreated, gin.H{
			"sha":      commit.SHA,
			"html_url": fmt.Sprintf("http://localhost:9090/%s/%s/commit/%s", owner, repoName, commit.SHA),
		})
	})

	// --- Contents API ---

	r.GET("/repos/:owner/:repo/contents/*path", func(c *gin.Context) {
		repo := s.repo(c.Param("owner"), c.Param("repo"))
		repo.mu.RLock()
		defer repo.mu.RUnlock()
		path := strings.TrimPrefix(c.Param("path"), "/")
		branch := c.Query("ref")
		if branch == "" {
			branch = "main"
		}
		content, sha, ok := repo.fileAt(branch, path)
		if !ok {
			notFound(c, "path %q not found on %q", path, branch)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"path":     path,
			"sha":      sha,
			"content":  base64.StdEncoding.EncodeToString(content),
			"encoding": "base64",
		})
	})

	r.PUT("/repos/:owner/:repo/contents/*path", func(c *gin.Context) {
		var req struct {
			Message string `json:"message" binding:"required"`
			Content string `json:"content" binding:"required"`
			Branch  string `json:"branch"`
			SHA     string `json:"sha"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
			return
		}
		decoded, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "content is not valid base64"})
			return
		}

		owner, repoName := c.Param("owner"), c.Param("repo")
		repo := s.repo(owner, repoName)
		repo.mu.Lock()
		defer repo.mu.Unlock()
		path := strings.TrimPrefix(c.Param("path"), "/")
		branch := req.Branch
		if branch == "" {
			branch = "main"
		}
		head, ok := repo.refs[branch]
		if !ok {
			notFound(c, "branch %q not found", branch)
			return
		}

		// The real API rejects an update whose sha no longer matches.
		if _, prior, exists := repo.fileAt(branch, path); exists && req.SHA != "" && req.SHA != prior {
			c.JSON(http.StatusConflict, gin.H{"message": fmt.Sprintf("%s does not match %s", req.SHA, prior)})
			return
		}

		blobSHA := repo.putBlob(decoded)
		treeSHA := repo.putTree(repo.trees[repo.commits[head].Tree], map[string]string{path: blobSHA})
		commit := repo.putCommit(treeSHA, req.Message, []string{head})
		repo.refs[branch] = commit.SHA

		status := http.StatusOK
		if req.SHA == "" {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{
			"content": gin.H{"path": path, "sha": blobSHA},
			"commit": gin.H{
				"sha":      commit.SHA,
				"html_url": fmt.Sprintf("http://localhost:9090/%s/%s/commit/%s", owner, repoName, commit.SHA),
			},
		})
	})
}
