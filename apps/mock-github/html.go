package main

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

func registerHTMLRoutes(r *gin.Engine, s *store) {
	r.GET("/", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, renderDashboard(s))
	})

	r.GET("/:owner/:repo", func(c *gin.Context) {
		owner, repoName := c.Param("owner"), c.Param("repo")
		repo := s.repo(owner, repoName)
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, renderRepoPage(owner, repoName, repo))
	})
}

func renderDashboard(s *store) string {
	var rows strings.Builder
	for _, name := range s.repoNames() {
		parts := strings.SplitN(name, "/", 2)
		repo := s.repo(parts[0], parts[1])
		repo.mu.RLock()
		branches := make([]string, 0, len(repo.refs))
		for b := range repo.refs {
			branches = append(branches, b)
		}
		commits := len(repo.commits)
		repo.mu.RUnlock()
		sort.Strings(branches)

		rows.WriteString(fmt.Sprintf(`
        <tr>
          <td style="padding:12px 16px;border-bottom:1px solid #21262d;">
            <a href="/%s" style="color:#58a6ff;text-decoration:none;font-weight:600;">%s</a>
          </td>
          <td style="padding:12px 16px;border-bottom:1px solid #21262d;font-family:monospace;font-size:13px;color:#8b949e;">%s</td>
          <td style="padding:12px 16px;border-bottom:1px solid #21262d;font-size:13px;color:#8b949e;">%d commits</td>
        </tr>`, name, name, strings.Join(branches, ", "), commits))
	}

	body := rows.String()
	if body == "" {
		body = `<tr><td colspan="3" style="padding:40px 16px;text-align:center;color:#8b949e;">No repositories.</td></tr>`
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <title>Mock GitHub</title>
  <meta http-equiv="refresh" content="3">
  <style>
    * { margin:0; padding:0; box-sizing:border-box; }
    body { background:#0d1117; color:#c9d1d9; font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Helvetica,Arial,sans-serif; }
  </style>
</head>
<body>
  <div style="max-width:860px;margin:0 auto;padding:32px 16px;">
    <h1 style="font-size:20px;font-weight:600;margin-bottom:24px;">Repositories</h1>
    <table style="width:100%%;border-collapse:collapse;background:#161b22;border:1px solid #30363d;border-radius:6px;overflow:hidden;">
      <thead>
        <tr style="background:#161b22;">
          <th style="padding:12px 16px;text-align:left;font-size:12px;color:#8b949e;border-bottom:1px solid #21262d;font-weight:500;">Repository</th>
          <th style="padding:12px 16px;text-align:left;font-size:12px;color:#8b949e;border-bottom:1px solid #21262d;font-weight:500;">Branches</th>
          <th style="padding:12px 16px;text-align:left;font-size:12px;color:#8b949e;border-bottom:1px solid #21262d;font-weight:500;">History</th>
        </tr>
      </thead>
      <tbody>%s</tbody>
    </table>
  </div>
</body>
</html>`, body)
}

func renderRepoPage(owner, repoName string, repo *repoState) string {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	head := repo.refs["main"]

	// Walk first-parent history from main.
	var commits strings.Builder
	for sha := head; sha != ""; {
		c, ok := repo.commits[sha]
		if !ok {
			break
		}
		commits.WriteString(fmt.Sprintf(`
      <div style="padding:12px 16px;border-bottom:1px solid #21262d;">
        <div style="font-size:14px;color:#c9d1d9;">%s</div>
        <div style="margin-top:4px;font-family:monospace;font-size:12px;color:#8b949e;">%.12s &middot; %s</div>
      </div>`, c.Message, c.SHA, c.Date.Format("2006-01-02 15:04:05")))
		if len(c.Parents) == 0 {
			break
		}
		sha = c.Parents[0]
	}

	var files strings.Builder
	if tree, ok := repo.trees[repo.commits[head].Tree]; ok {
		paths := make([]string, 0, len(tree))
		for p := range tree {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			files.WriteString(fmt.Sprintf(
				`<div style="padding:8px 16px;border-bottom:1px solid #21262d;"><code style="color:#79c0ff;font-size:13px;">%s</code></div>`, p))
		}
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <title>%s/%s - Mock GitHub</title>
  <style>
    * { margin:0; padding:0; box-sizing:border-box; }
    body { background:#0d1117; color:#c9d1d9; font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Helvetica,Arial,sans-serif; }
    a { color:#58a6ff; text-decoration:none; }
    a:hover { text-decoration:underline; }
  </style>
</head>
<body>
  <div style="max-width:860px;margin:0 auto;padding:32px 16px;">
    <div style="margin-bottom:24px;font-size:13px;"><a href="/">All repositories</a></div>
    <h1 style="font-size:24px;font-weight:400;margin-bottom:24px;">%s<span style="color:#8b949e;">/</span>%s</h1>

    <h3 style="font-size:16px;font-weight:500;margin-bottom:12px;">Files on main</h3>
    <div style="background:#161b22;border:1px solid #30363d;border-radius:6px;overflow:hidden;margin-bottom:24px;">%s</div>

    <h3 style="font-size:16px;font-weight:500;margin-bottom:12px;">Commits on main</h3>
    <div style="background:#161b22;border:1px solid #30363d;border-radius:6px;overflow:hidden;">%s</div>
  </div>
</body>
</html>`, owner, repoName, owner, repoName, files.String(), commits.String())
}
