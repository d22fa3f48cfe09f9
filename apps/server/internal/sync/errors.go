package sync

import (
	"errors"
	"fmt"
)

// Step names the protocol step a remote failure occurred in. The six-step
// publish pipeline gets one name per step; the branch, file, and listing
// operations get one each.
type Step string

// Publish pipeline steps, in protocol order.
const (
	StepGetBranchRef Step = "get branch ref"
	StepGetBaseTree  Step = "get base tree"
	StepCreateBlob   Step = "create blob"
	StepCreateTree   Step = "create tree"
	StepCreateCommit Step = "create commit"
	StepUpdateRef    Step = "update branch ref"
)

// Remaining operations.
const (
	StepGetSourceBranch Step = "get source branch"
	StepCreateBranch    Step = "create branch"
	StepPutFile         Step = "put file"
	StepListRepos       Step = "list repositories"
)

// StepError attributes a remote failure to a named protocol step. Path is
// set for per-file failures (blob creation, single-file publish). The
// underlying error carries the remote status code when the failure was a
// non-2xx response (see RemoteError); network errors pass through unchanged.
type StepError struct {
	Step Step
	Path string
	Err  error
}

// Error implements the error interface.
func (e StepError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %q failed: %v", e.Step, e.Path, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e StepError) Unwrap() error { return e.Err }

// RemoteError is a non-2xx response from the git host. Port implementations
// return it (usually wrapped with request context) so the pipeline and the
// HTTP boundary can inspect the remote status code.
type RemoteError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote returned HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote returned HTTP %d", e.StatusCode)
}

// RemoteStatus extracts the remote HTTP status code from an error chain.
// Returns 0, false for network-level failures that never got a response.
func RemoteStatus(err error) (int, bool) {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.StatusCode, true
	}
	return 0, false
}
