// Package file implements ports.DraftStore on the local filesystem.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/warp/pkg/ports"
)

// Store keeps one JSON file per workflow draft in BasePath.
type Store struct {
	BasePath string
}

// NewStore creates a Store. An empty basePath defaults to ".warp/drafts".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".warp", "drafts")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(workflowID string) string {
	return filepath.Join(s.BasePath, url.PathEscape(workflowID)+".json")
}

// Save writes the draft atomically.
func (s *Store) Save(ctx context.Context, draft ports.Draft) error {
	if draft.WorkflowID == "" {
		return errors.New("workflow id cannot be empty")
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure draft directory: %w", err)
	}

	data, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	tmp, err := os.CreateTemp(s.BasePath, ".draft-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write draft: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(draft.WorkflowID)); err != nil {
		return fmt.Errorf("failed to commit draft: %w", err)
	}
	return nil
}

// Load reads a draft.
func (s *Store) Load(ctx context.Context, workflowID string) (ports.Draft, error) {
	data, err := os.ReadFile(s.path(workflowID))
	if err != nil {
		if os.IsNotExist(err) {
			return ports.Draft{}, ports.ErrDraftNotFound
		}
		return ports.Draft{}, fmt.Errorf("failed to read draft: %w", err)
	}
	var draft ports.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return ports.Draft{}, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return draft, nil
}

// Delete removes the draft file.
func (s *Store) Delete(ctx context.Context, workflowID string) error {
	err := os.Remove(s.path(workflowID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// List returns the workflow ids with a draft file, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
