package ports

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/warp/pkg/graph"
)

// ErrDraftNotFound is returned when no draft exists for a workflow.
var ErrDraftNotFound = errors.New("draft not found")

// Draft is an unsaved layout kept after a failed or pending workflow save.
type Draft struct {
	WorkflowID string         `json:"workflow_id" yaml:"workflow_id"`
	Name       string         `json:"name" yaml:"name"`
	Snapshot   graph.Snapshot `json:"snapshot" yaml:"snapshot"`
	SavedAt    time.Time      `json:"saved_at" yaml:"saved_at"`
}

// DraftStore persists drafts keyed by workflow id.
type DraftStore interface {
	// Save stores or replaces the draft for draft.WorkflowID.
	Save(ctx context.Context, draft Draft) error

	// Load returns ErrDraftNotFound if nothing is stored.
	Load(ctx context.Context, workflowID string) (Draft, error)

	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, workflowID string) error

	// List returns the ids that currently have a draft.
	List(ctx context.Context) ([]string, error)
}
