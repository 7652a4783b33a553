package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDraftStoreContract verifies that a DraftStore implementation adheres to
// the interface contract.
func RunDraftStoreContract(t *testing.T, store DraftStore) {
	ctx := context.Background()
	workflowID := "contract-wf-" + time.Now().Format("20060102150405")

	snapshot := graph.Snapshot{
		Version: graph.SnapshotVersion,
		Cells: []graph.CellRecord{
			{Kind: graph.KindNote, ID: "note-1", Position: &graph.Point{X: 1, Y: 2}, Size: &graph.Size{Width: 50, Height: 60}, Text: "hello"},
		},
	}

	t.Run("Save and Load", func(t *testing.T) {
		draft := Draft{WorkflowID: workflowID, Name: "Draft", Snapshot: snapshot, SavedAt: time.Now().UTC().Truncate(time.Second)}
		require.NoError(t, store.Save(ctx, draft))

		loaded, err := store.Load(ctx, workflowID)
		require.NoError(t, err)
		assert.Equal(t, draft.Name, loaded.Name)
		assert.Equal(t, draft.Snapshot, loaded.Snapshot)
		assert.True(t, draft.SavedAt.Equal(loaded.SavedAt))
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, Draft{WorkflowID: workflowID, Name: "Renamed", Snapshot: snapshot}))
		loaded, err := store.Load(ctx, workflowID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", loaded.Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+workflowID)
		assert.ErrorIs(t, err, ErrDraftNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, Draft{WorkflowID: workflowID, Snapshot: snapshot}))
		require.NoError(t, store.Delete(ctx, workflowID))

		_, err := store.Load(ctx, workflowID)
		assert.ErrorIs(t, err, ErrDraftNotFound, "Load after Delete should return ErrDraftNotFound")
		assert.NoError(t, store.Delete(ctx, workflowID), "Delete is idempotent")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := workflowID+"-1", workflowID+"-2"
		require.NoError(t, store.Save(ctx, Draft{WorkflowID: id1, Snapshot: snapshot}))
		require.NoError(t, store.Save(ctx, Draft{WorkflowID: id2, Snapshot: snapshot}))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// TransportPair returns two connected transport ends.
type TransportPair func(t *testing.T) (client, server Transport)

// RunTransportContract verifies that a Transport implementation delivers
// envelopes in both directions and reports closure with ErrTransportClosed.
func RunTransportContract(t *testing.T, pair TransportPair) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("Round Trip", func(t *testing.T) {
		client, server := pair(t)
		defer client.Close()
		defer server.Close()

		req := protocol.Envelope{
			Event:     protocol.EventNodeContentRequest,
			RequestID: "req-1",
			Data:      map[string]any{"workflow_id": "wf", "id": "n1"},
		}
		require.NoError(t, client.Send(ctx, req))
		got, err := server.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, req, got)

		resp := protocol.Envelope{
			Event:     protocol.EventNodeContent,
			RequestID: "req-1",
			Data:      map[string]any{"id": "n1", "static_input": map[string]any{"a": 1.0}},
		}
		require.NoError(t, server.Send(ctx, resp))
		got, err = client.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, resp, got)
	})

	t.Run("Preserves Order", func(t *testing.T) {
		client, server := pair(t)
		defer client.Close()
		defer server.Close()

		go func() {
			for _, ev := range []string{"first", "second", "third"} {
				_ = client.Send(ctx, protocol.Envelope{Event: ev})
			}
		}()
		for _, want := range []string{"first", "second", "third"} {
			got, err := server.Receive(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got.Event)
		}
	})

	t.Run("Close Unblocks Receive", func(t *testing.T) {
		client, server := pair(t)
		defer server.Close()

		errCh := make(chan error, 1)
		go func() {
			_, err := client.Receive(ctx)
			errCh <- err
		}()
		time.Sleep(20 * time.Millisecond)
		require.NoError(t, client.Close())

		select {
		case err := <-errCh:
			assert.True(t, errors.Is(err, ErrTransportClosed), "got %v", err)
		case <-ctx.Done():
			t.Fatal("Receive did not return after Close")
		}
	})

	t.Run("Receive Honours Context", func(t *testing.T) {
		client, server := pair(t)
		defer client.Close()
		defer server.Close()

		short, stop := context.WithTimeout(ctx, 30*time.Millisecond)
		defer stop()
		_, err := client.Receive(short)
		assert.Error(t, err)
	})
}
