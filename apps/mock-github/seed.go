package main

// seedRepos populates the object store with a couple of prototype sites so
// the sync server has something to publish into out of the box.
func seedRepos(s *store) {
	seedSite(s, "acme", "site", map[string]string{
		"index.html": "<!DOCTYPE html>\n<html><body><h1>Acme</h1></body></html>\n",
		".x/data.json": `{"pages":[{"id":"home","title":"Home"}]}` + "\n",
	})
	seedSite(s, "acme", "portfolio", map[string]string{
		"index.html": "<!DOCTYPE html>\n<html><body><h1>Portfolio</h1></body></html>\n",
		"about.html": "<!DOCTYPE html>\n<html><body><h1>About</h1></body></html>\n",
	})
}

func seedSite(s *store, owner, name string, files map[string]string) {
	repo := s.repo(owner, name)
	repo.mu.Lock()
	defer repo.mu.Unlock()

	overlay := make(map[string]string, len(files))
	for path, content := range files {
		overlay[path] = repo.putBlob([]byte(content))
	}
	tree := repo.putTree(nil, overlay)
	commit := repo.putCommit(tree, "Initial commit", nil)
	repo.refs["main"] = commit.SHA
}
