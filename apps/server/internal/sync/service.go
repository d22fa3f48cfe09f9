package sync

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/pagecraft/pagecraft/pkg/api"
)

const instrName = "github.com/pagecraft/pagecraft"

// maxBlobConcurrency bounds the blob-creation fan-out during a publish. Blob
// writes are independent, so they run in parallel, but an arbitrary file set
// must not translate into an arbitrary number of in-flight requests.
const maxBlobConcurrency = 8

// Service exposes the five sync operations over an injected GitHost. It
// holds no cross-call state: every call receives its own decrypted token and
// coordinates, so concurrent operations never interact.
type Service struct {
	host GitHost
	log  *slog.Logger
}

// NewService creates a new Service.
func NewService(host GitHost, log *slog.Logger) *Service {
	return &Service{host: host, log: log}
}

// Publish commits files onto an existing branch as exactly one commit.
//
// The protocol is a strict six-step sequence: resolve the branch head,
// resolve its tree, create one blob per file (in parallel), create a tree
// layering the new blobs over the base tree, create a commit parented on the
// head, and finally move the branch ref. Only the last step is visible to
// readers of the branch; a failure at any earlier step returns a StepError
// naming the step and leaves the ref untouched. Orphaned blobs, trees, or
// commits left on the remote by a failed publish are harmless garbage.
//
// An empty file set is valid: the overlay is empty and the resulting commit
// carries the same content as its parent.
func (s *Service) Publish(ctx context.Context, token string, c Coordinates, files []api.CommitFile, message string) (*PushResult, error) {
	ctx, span := otel.Tracer(instrName).Start(ctx, "Publish",
		trace.WithAttributes(
			attribute.String("repo.owner", c.Owner),
			attribute.String("repo.name", c.Repo),
			attribute.String("repo.branch", c.Branch),
			attribute.Int("publish.files", len(files)),
		),
	)
	defer span.End()

	// 1. Branch ref → head commit.
	headSHA, err := s.host.GetBranchHead(ctx, token, c)
	if err != nil {
		return nil, s.fail(span, StepError{Step: StepGetBranchRef, Err: err})
	}

	// 2. Head commit → base tree.
	baseTreeSHA, err := s.host.GetCommitTree(ctx, token, c, headSHA)
	if err != nil {
		return nil, s.fail(span, StepError{Step: StepGetBaseTree, Err: err})
	}

	// 3. One blob per file. Writes are independent, so they fan out; the
	// first failure cancels the rest and the pipeline never reaches the
	// tree step with a partial blob set.
	entries := make([]TreeEntry, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBlobConcurrency)
	for i, f := range files {
		g.Go(func() error {
			blobSHA, err := s.host.CreateBlob(gctx, token, c, []byte(f.Content))
			if err != nil {
				return StepError{Step: StepCreateBlob, Path: f.Path, Err: err}
			}
			entries[i] = TreeEntry{Path: f.Path, SHA: blobSHA}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var step StepError
		if errors.As(err, &step) {
			return nil, s.fail(span, step)
		}
		return nil, err
	}

	// 4. New tree = base tree + overlay. Paths not in the overlay are
	// inherited unchanged, which is what makes the publish atomic with
	// respect to files it does not touch.
	newTreeSHA, err := s.host.CreateTree(ctx, token, c, baseTreeSHA, entries)
	if err != nil {
		return nil, s.fail(span, StepError{Step: StepCreateTree, Err: err})
	}

	// 5. Commit object parented on the head from step 1.
	commit, err := s.host.CreateCommit(ctx, token, c, message, newTreeSHA, []string{headSHA})
	if err != nil {
		return nil, s.fail(span, StepError{Step: StepCreateCommit, Err: err})
	}

	// 6. Move the ref. The update is fast-forward only, so a concurrent
	// writer that moved the branch since step 1 fails this step instead of
	// having its commit silently orphaned.
	if err := s.host.UpdateBranchRef(ctx, token, c, commit.SHA); err != nil {
		return nil, s.fail(span, StepError{Step: StepUpdateRef, Err: err})
	}

	s.log.Info("published commit",
		"owner", c.Owner, "repo", c.Repo, "branch", c.Branch,
		"files", len(files), "commit", commit.SHA,
	)
	return &PushResult{CommitID: commit.SHA, URL: commit.URL}, nil
}

// PublishFile creates or updates a single file through the contents
// endpoint. The existence probe is best-effort: any failure reading the
// current blob SHA (not found, non-2xx, network) means "create new file",
// because a missing file is the expected common case. Only the write itself
// can fail the operation.
func (s *Service) PublishFile(ctx context.Context, token string, c Coordinates, path, content, message string) (*PushResult, error) {
	priorSHA, err := s.host.GetFileSHA(ctx, token, c, path)
	if err != nil {
		priorSHA = ""
	}

	commit, err := s.host.PutFile(ctx, token, c, PutFileRequest{
		Path:     path,
		Content:  []byte(content),
		Message:  message,
		Branch:   c.Branch,
		PriorSHA: priorSHA,
	})
	if err != nil {
		return nil, StepError{Step: StepPutFile, Path: path, Err: err}
	}

	s.log.Info("published file",
		"owner", c.Owner, "repo", c.Repo, "branch", c.Branch, "path", path,
	)
	return &PushResult{CommitID: commit.SHA, URL: commit.URL}, nil
}

// EnsureBranch makes newBranch exist, created from sourceBranch's current
// tip when missing. Creating a branch that already exists is success: the
// remote's "Reference already exists" conflict is swallowed.
func (s *Service) EnsureBranch(ctx context.Context, token string, c Coordinates, sourceBranch, newBranch string) error {
	source := c
	source.Branch = sourceBranch

	headSHA, err := s.host.GetBranchHead(ctx, token, source)
	if err != nil {
		return StepError{Step: StepGetSourceBranch, Err: err}
	}

	if err := s.host.CreateBranchRef(ctx, token, c, newBranch, headSHA); err != nil {
		if status, ok := RemoteStatus(err); ok && status == http.StatusUnprocessableEntity {
			// Reference already exists — idempotent create.
			return nil
		}
		return StepError{Step: StepCreateBranch, Err: err}
	}
	return nil
}

// ListRepositories returns the repositories visible to the token holder,
// most recently pushed first.
func (s *Service) ListRepositories(ctx context.Context, token string) ([]api.Repository, error) {
	repos, err := s.host.ListRepositories(ctx, token)
	if err != nil {
		return nil, StepError{Step: StepListRepos, Err: err}
	}
	return repos, nil
}

// fail records the step error on the publish span before returning it.
func (s *Service) fail(span trace.Span, err StepError) error {
	span.RecordError(err)
	return err
}
