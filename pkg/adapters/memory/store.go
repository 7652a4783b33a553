package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/ports"
)

// Store implements ports.DraftStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]ports.Draft
	mu   sync.RWMutex
}

// NewStore creates a new in-memory draft store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]ports.Draft),
	}
}

// copyDraft isolates the stored snapshot from the caller's slices and pointers.
func copyDraft(d ports.Draft) ports.Draft {
	cells := make([]graph.CellRecord, len(d.Snapshot.Cells))
	for i, rec := range d.Snapshot.Cells {
		if rec.Position != nil {
			p := *rec.Position
			rec.Position = &p
		}
		if rec.Size != nil {
			s := *rec.Size
			rec.Size = &s
		}
		cells[i] = rec
	}
	d.Snapshot.Cells = cells
	return d
}

// Save stores the draft.
func (s *Store) Save(ctx context.Context, draft ports.Draft) error {
	copied := copyDraft(draft)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[draft.WorkflowID] = copied
	return nil
}

// Load retrieves a copy of the draft.
func (s *Store) Load(ctx context.Context, workflowID string) (ports.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft, ok := s.data[workflowID]
	if !ok {
		return ports.Draft{}, ports.ErrDraftNotFound
	}
	return copyDraft(draft), nil
}

// Delete removes the draft.
func (s *Store) Delete(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, workflowID)
	return nil
}

// List returns the workflow ids with a draft, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id := range s.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
