package sync

import (
	"context"

	"github.com/pagecraft/pagecraft/pkg/api"
)

// GitHost is the port the sync core depends on to talk to a git hosting
// provider. The concrete implementation lives in platform/github; tests use
// an in-memory fake. Every method issues exactly one remote call with the
// given bearer token, so the pipeline owns call ordering and error
// attribution entirely.
type GitHost interface {
	// GetBranchHead resolves the branch ref to its head commit SHA.
	GetBranchHead(ctx context.Context, token string, c Coordinates) (string, error)
	// GetCommitTree resolves a commit to its tree SHA.
	GetCommitTree(ctx context.Context, token string, c Coordinates, commitSHA string) (string, error)
	// CreateBlob uploads raw content as an immutable blob and returns its SHA.
	CreateBlob(ctx context.Context, token string, c Coordinates, content []byte) (string, error)
	// CreateTree creates a tree layering entries over baseTreeSHA.
	CreateTree(ctx context.Context, token string, c Coordinates, baseTreeSHA string, entries []TreeEntry) (string, error)
	// CreateCommit creates a commit object pointing at treeSHA.
	CreateCommit(ctx context.Context, token string, c Coordinates, message, treeSHA string, parentSHAs []string) (Commit, error)
	// UpdateBranchRef moves the branch ref to commitSHA (fast-forward only).
	UpdateBranchRef(ctx context.Context, token string, c Coordinates, commitSHA string) error
	// CreateBranchRef creates a new branch ref at commitSHA.
	CreateBranchRef(ctx context.Context, token string, c Coordinates, newBranch, commitSHA string) error
	// GetFileSHA returns the blob SHA of path on the coordinate branch.
	GetFileSHA(ctx context.Context, token string, c Coordinates, path string) (string, error)
	// PutFile creates or updates one file through the contents endpoint.
	PutFile(ctx context.Context, token string, c Coordinates, req PutFileRequest) (Commit, error)
	// ListRepositories enumerates repositories visible to the token holder.
	ListRepositories(ctx context.Context, token string) ([]api.Repository, error)
}
