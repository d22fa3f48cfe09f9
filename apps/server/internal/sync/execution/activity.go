package execution

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.temporal.io/sdk/temporal"

	"github.com/pagecraft/pagecraft/apps/server/internal/credentials"
	"github.com/pagecraft/pagecraft/apps/server/internal/sync"
	"github.com/pagecraft/pagecraft/pkg/api"
)

const instrName = "github.com/pagecraft/pagecraft"

// Activities groups Temporal activity methods. The struct holds dependencies
// injected at startup (idiomatic Temporal pattern).
type Activities struct {
	store  credentials.Store
	cipher *credentials.Cipher
	svc    *sync.Service
	log    *slog.Logger
}

// NewActivities creates a new Activities instance with the given dependencies.
func NewActivities(store credentials.Store, cipher *credentials.Cipher, svc *sync.Service, log *slog.Logger) *Activities {
	return &Activities{store: store, cipher: cipher, svc: svc, log: log}
}

// PublishSite resolves the user's credential and runs one atomic publish.
// Credential problems are non-retryable: re-running the attempt cannot fix a
// missing or undecryptable token.
func (a *Activities) PublishSite(ctx context.Context, input PublishRunInput) (api.PublishResponse, error) {
	a.log.Info("PublishSite activity called",
		"userId", input.UserID,
		"owner", input.Owner,
		"repo", input.Repo,
		"branch", input.Branch,
		"files", len(input.Files),
	)

	ctx, span := otel.Tracer(instrName).Start(ctx, "PublishSite",
		trace.WithAttributes(
			attribute.String("repo.owner", input.Owner),
			attribute.String("repo.name", input.Repo),
			attribute.String("repo.branch", input.Branch),
		),
	)
	defer span.End()

	encrypted, err := a.store.Get(ctx, input.UserID)
	if err != nil {
		span.RecordError(err)
		return api.PublishResponse{}, temporal.NewNonRetryableApplicationError(
			"load credential", "CredentialError", fmt.Errorf("load credential: %w", err))
	}
	token, err := a.cipher.Decrypt(encrypted)
	if err != nil {
		span.RecordError(err)
		return api.PublishResponse{}, temporal.NewNonRetryableApplicationError(
			"decrypt credential", "CredentialError", fmt.Errorf("decrypt credential: %w", err))
	}

	coords := sync.Coordinates{Owner: input.Owner, Repo: input.Repo, Branch: input.Branch}
	res, err := a.svc.Publish(ctx, token, coords, input.Files, input.Message)
	if err != nil {
		span.RecordError(err)
		return api.PublishResponse{}, fmt.Errorf("publish: %w", err)
	}
	return api.PublishResponse{CommitId: res.CommitID, Url: res.URL}, nil
}
