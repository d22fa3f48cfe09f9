package sync

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrRunNotFound reports that no publish run exists for the queried id.
// Engine adapters wrap their backend's not-found error with this sentinel so
// callers can tell a missing run from an unreachable backend.
var ErrRunNotFound = errors.New("publish run not found")

// WorkflowStatus is the engine-agnostic view of a durable publish run.
type WorkflowStatus struct {
	RuntimeStatus string
	Output        json.RawMessage
}

// WorkflowEngine abstracts the durable execution backend that hosts publish
// runs. The HTTP layer starts runs and polls status through this port.
type WorkflowEngine interface {
	StartWorkflow(ctx context.Context, name, instanceID string, input any) (string, error)
	GetStatus(ctx context.Context, instanceID string) (*WorkflowStatus, error)
}
