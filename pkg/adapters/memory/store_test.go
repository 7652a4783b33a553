package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/warp/pkg/adapters/memory"
	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunDraftStoreContract(t, store)
}

func TestMemoryStore_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pos := &graph.Point{X: 1, Y: 1}
	draft := ports.Draft{WorkflowID: "wf", Snapshot: graph.Snapshot{Cells: []graph.CellRecord{{Kind: graph.KindNote, ID: "n", Position: pos}}}}
	require.NoError(t, store.Save(ctx, draft))

	pos.X = 99
	draft.Snapshot.Cells[0].ID = "mutated"

	loaded, err := store.Load(ctx, "wf")
	require.NoError(t, err)
	assert.Equal(t, "n", loaded.Snapshot.Cells[0].ID)
	assert.Equal(t, 1.0, loaded.Snapshot.Cells[0].Position.X)
}

func TestPipe_Contract(t *testing.T) {
	ports.RunTransportContract(t, func(t *testing.T) (ports.Transport, ports.Transport) {
		a, b := memory.NewPipe(8)
		return a, b
	})
}
