// Package api holds the wire types shared between the pagecraft-sync server
// and its clients (the editor backend and the CLI tooling).
package api

import "time"

// CommitFile is one file to be written by a publish operation.
type CommitFile struct {
	Path    string `json:"path"    binding:"required"`
	Content string `json:"content"`
}

// PublishRequest asks for an atomic multi-file commit on an existing branch.
type PublishRequest struct {
	Branch  string       `json:"branch"  binding:"required"`
	Message string       `json:"message" binding:"required"`
	Files   []CommitFile `json:"files"`
}

// PublishResponse reports the commit created by a publish operation.
type PublishResponse struct {
	CommitId string `json:"commitId"`
	Url      string `json:"url"`
}

// PublishFileRequest asks for a create-or-update of a single file via the
// contents endpoint. No multi-file atomicity is implied.
type PublishFileRequest struct {
	Branch  string `json:"branch"  binding:"required"`
	Path    string `json:"path"    binding:"required"`
	Content string `json:"content"`
	Message string `json:"message" binding:"required"`
}

// CreateBranchRequest asks for a branch to exist, created from the source
// branch's current tip when missing.
type CreateBranchRequest struct {
	SourceBranch string `json:"sourceBranch" binding:"required"`
	NewBranch    string `json:"newBranch"    binding:"required"`
}

// LinkCredentialRequest carries a GitHub access token to encrypt and store.
type LinkCredentialRequest struct {
	Token string `json:"token" binding:"required"`
}

// Repository is one repository visible to the credential holder.
type Repository struct {
	Id            int64      `json:"id"`
	Name          string     `json:"name"`
	FullName      string     `json:"fullName"`
	Private       bool       `json:"private"`
	DefaultBranch string     `json:"defaultBranch"`
	Url           string     `json:"url"`
	PushedAt      *time.Time `json:"pushedAt,omitempty"`
}

// StartPublishRunRequest starts a durable publish run. MaximumAttempts
// controls the retry policy applied around the publish activity; the publish
// pipeline itself never retries.
type StartPublishRunRequest struct {
	Branch          string       `json:"branch"  binding:"required"`
	Message         string       `json:"message" binding:"required"`
	Files           []CommitFile `json:"files"`
	MaximumAttempts int32        `json:"maximumAttempts,omitempty"`
}

// StartPublishRunResponse identifies the started run.
type StartPublishRunResponse struct {
	RunId string `json:"runId"`
}

// PublishRunStatus reports the state of a durable publish run.
type PublishRunStatus struct {
	RunId         string           `json:"runId"`
	RuntimeStatus string           `json:"runtimeStatus"`
	Result        *PublishResponse `json:"result,omitempty"`
	Error         string           `json:"error,omitempty"`
}
