package graph_test

import (
	"fmt"
	"testing"

	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func persistedNode(g *graph.Graph, customID string, x, y float64) *graph.Cell {
	return g.AddNode(graph.Point{X: x, Y: y}, graph.Size{Width: 100, Height: 40}, graph.NodeAttrs{
		CustomID: customID,
		Name:     "node " + customID,
		NodeType: graph.CategoryAction,
	})
}

func TestAddLink_RejectsDuplicatesInBothOrders(t *testing.T) {
	g := graph.New()
	persistedNode(g, "a", 0, 0)
	persistedNode(g, "b", 200, 0)

	_, err := g.AddLink("a", "b")
	require.NoError(t, err)

	_, err = g.AddLink("a", "b")
	assert.ErrorIs(t, err, graph.ErrLinkExists)
	_, err = g.AddLink("b", "a")
	assert.ErrorIs(t, err, graph.ErrLinkExists)

	assert.Len(t, g.OfKind(graph.KindLink), 1)
	assert.True(t, g.HasLink("b", "a"))
}

func TestAddLink_Validation(t *testing.T) {
	g := graph.New()
	persistedNode(g, "a", 0, 0)
	g.AddNode(graph.Point{}, graph.Size{Width: 10, Height: 10}, graph.NodeAttrs{Name: "draft"})

	_, err := g.AddLink("a", "a")
	assert.ErrorIs(t, err, graph.ErrSelfLink)

	_, err = g.AddLink("a", "missing")
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestRemoveNode_DropsIncidentLinks(t *testing.T) {
	g := graph.New()
	a := persistedNode(g, "a", 0, 0)
	persistedNode(g, "b", 200, 0)
	persistedNode(g, "c", 400, 0)
	_, err := g.AddLink("a", "b")
	require.NoError(t, err)
	_, err = g.AddLink("b", "c")
	require.NoError(t, err)

	removed, err := g.RemoveNode(a.ID)
	require.NoError(t, err)

	assert.Equal(t, []graph.LinkAttrs{{Source: "a", Target: "b"}}, removed)
	assert.False(t, g.HasLink("a", "b"))
	assert.True(t, g.HasLink("b", "c"))
	_, ok := g.NodeByCustomID("a")
	assert.False(t, ok)

	_, err = g.AddLink("a", "c")
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestRemove_DispatchesByKind(t *testing.T) {
	g := graph.New()
	persistedNode(g, "a", 0, 0)
	persistedNode(g, "b", 200, 0)
	link, err := g.AddLink("a", "b")
	require.NoError(t, err)
	w := g.AddWindow(graph.Point{}, graph.Size{Width: 500, Height: 500}, "group")

	require.NoError(t, g.Remove(link.ID))
	require.NoError(t, g.Remove(w.ID))
	assert.False(t, g.HasLink("a", "b"))
	assert.Equal(t, 2, g.Len())

	assert.ErrorIs(t, g.Remove("nope"), graph.ErrNotFound)
}

func TestSetCustomID(t *testing.T) {
	g := graph.New()
	n := g.AddNode(graph.Point{}, graph.Size{Width: 10, Height: 10}, graph.NodeAttrs{Name: "fresh"})
	assert.False(t, n.Node.Persisted())

	require.NoError(t, g.SetCustomID(n.ID, "srv-1"))
	found, ok := g.NodeByCustomID("srv-1")
	require.True(t, ok)
	assert.Same(t, n, found)

	assert.Error(t, g.SetCustomID(n.ID, "srv-2"), "custom id is permanent")
}

func TestHitTest(t *testing.T) {
	g := graph.New()
	w := g.AddWindow(graph.Point{X: 0, Y: 0}, graph.Size{Width: 600, Height: 400}, "w")
	a := persistedNode(g, "a", 20, 20)
	persistedNode(g, "b", 320, 20)
	link, err := g.AddLink("a", "b")
	require.NoError(t, err)
	note := g.AddNote(graph.Point{X: 700, Y: 0}, graph.Size{Width: 100, Height: 100}, "hi")

	assert.Same(t, a, g.HitTest(graph.Point{X: 30, Y: 30}))
	assert.Same(t, link, g.HitTest(graph.Point{X: 245, Y: 42}))
	assert.Same(t, w, g.HitTest(graph.Point{X: 300, Y: 300}))
	assert.Same(t, note, g.HitTest(graph.Point{X: 750, Y: 50}))
	assert.Nil(t, g.HitTest(graph.Point{X: 1000, Y: 1000}))
}

func TestContainedNodes(t *testing.T) {
	g := graph.New()
	w := g.AddWindow(graph.Point{X: 0, Y: 0}, graph.Size{Width: 300, Height: 300}, "w")
	inside := persistedNode(g, "in", 10, 10)
	persistedNode(g, "edge", 250, 10) // overflows the right border
	persistedNode(g, "out", 400, 10)

	nodes, err := g.ContainedNodes(w.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Same(t, inside, nodes[0])

	_, err = g.ContainedNodes(inside.ID)
	assert.ErrorIs(t, err, graph.ErrWrongKind)
}

func TestMoveAndResize(t *testing.T) {
	g := graph.New()
	persistedNode(g, "a", 0, 0)
	persistedNode(g, "b", 10, 0)
	link, _ := g.AddLink("a", "b")
	note := g.AddNote(graph.Point{}, graph.Size{Width: 60, Height: 60}, "")

	require.NoError(t, g.Move(note.ID, graph.Point{X: 5, Y: 6}))
	require.NoError(t, g.Resize(note.ID, graph.Size{Width: 70, Height: 80}))
	assert.Equal(t, graph.Point{X: 5, Y: 6}, note.Position)
	assert.Equal(t, graph.Size{Width: 70, Height: 80}, note.Size)

	assert.ErrorIs(t, g.Move(link.ID, graph.Point{}), graph.ErrWrongKind)
	assert.ErrorIs(t, g.Resize(link.ID, graph.Size{}), graph.ErrWrongKind)
}

func TestEditableCategory(t *testing.T) {
	g := graph.New()
	custom := g.AddNode(graph.Point{}, graph.Size{}, graph.NodeAttrs{NodeType: graph.CategoryCustom})
	trigger := g.AddNode(graph.Point{}, graph.Size{}, graph.NodeAttrs{NodeType: graph.CategoryTrigger})
	action := g.AddNode(graph.Point{}, graph.Size{}, graph.NodeAttrs{NodeType: graph.CategoryAction})

	assert.True(t, custom.Node.Editable)
	assert.True(t, trigger.Node.Editable)
	assert.False(t, action.Node.Editable)
}

func buildScene(n, k, j int) *graph.Graph {
	g := graph.New()
	for i := 0; i < n; i++ {
		kind := graph.CategoryAction
		if i%2 == 0 {
			kind = graph.CategoryCustom
		}
		g.AddNode(graph.Point{X: float64(i * 120), Y: float64(i * 7)}, graph.Size{Width: 100, Height: 40}, graph.NodeAttrs{
			CustomID: fmt.Sprintf("n%d", i),
			Name:     fmt.Sprintf("Node %d", i),
			NodeType: kind,
		})
	}
	for i := 0; i+1 < n; i++ {
		_, _ = g.AddLink(fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", i+1))
	}
	for i := 0; i < k; i++ {
		g.AddWindow(graph.Point{X: float64(i * 10)}, graph.Size{Width: 300, Height: 200}, fmt.Sprintf("W%d", i))
	}
	for i := 0; i < j; i++ {
		g.AddNote(graph.Point{Y: float64(i * 50)}, graph.Size{Width: 80, Height: 80}, fmt.Sprintf("note %d", i))
	}
	return g
}

func TestSnapshot_RoundTrip(t *testing.T) {
	for _, tc := range []struct{ n, k, j int }{{0, 0, 0}, {1, 0, 0}, {4, 2, 3}, {9, 1, 5}} {
		t.Run(fmt.Sprintf("N%d_K%d_J%d", tc.n, tc.k, tc.j), func(t *testing.T) {
			g := buildScene(tc.n, tc.k, tc.j)
			snap := g.Serialize()

			wire, err := snap.Map()
			require.NoError(t, err)
			decoded, err := graph.SnapshotFromMap(wire)
			require.NoError(t, err)

			restored, err := graph.Deserialize(decoded)
			require.NoError(t, err)

			assert.Equal(t, snap, restored.Serialize())
			assert.Equal(t, g.Len(), restored.Len())
			for _, c := range g.OfKind(graph.KindLink) {
				assert.True(t, restored.HasLink(c.Link.Source, c.Link.Target))
			}
		})
	}
}

func TestDeserialize_DerivesNodeState(t *testing.T) {
	g := buildScene(2, 0, 0)
	open := g.OfKind(graph.KindNode)[0]
	open.Node.Visible = true
	open.Node.Loaded = true
	open.Size = graph.Size{Width: 100, Height: 240}

	restored, err := graph.Deserialize(g.Serialize())
	require.NoError(t, err)

	nodes := restored.OfKind(graph.KindNode)
	assert.False(t, nodes[0].Node.Visible)
	assert.False(t, nodes[0].Node.Loaded)
	assert.Equal(t, graph.Size{Width: 100, Height: 40}, nodes[0].Size, "panels are saved collapsed")
	assert.True(t, nodes[0].Node.Editable)
	assert.False(t, nodes[1].Node.Editable)
}

func TestDeserialize_Invalid(t *testing.T) {
	_, err := graph.Deserialize(graph.Snapshot{Cells: []graph.CellRecord{{Kind: "blob", ID: "x"}}})
	assert.ErrorIs(t, err, graph.ErrInvalidSnapshot)

	_, err = graph.Deserialize(graph.Snapshot{Cells: []graph.CellRecord{{Kind: graph.KindNote, ID: "x"}, {Kind: graph.KindNote, ID: "x"}}})
	assert.ErrorIs(t, err, graph.ErrInvalidSnapshot)

	g, err := graph.Deserialize(graph.Snapshot{Cells: []graph.CellRecord{
		{Kind: graph.KindNode, ID: "c1", CustomID: "a"},
		{Kind: graph.KindLink, ID: "l1", Source: "a", Target: "gone"},
	}})
	require.NoError(t, err)
	assert.Empty(t, g.OfKind(graph.KindLink))
}

func TestMergeLinks(t *testing.T) {
	g := buildScene(3, 0, 0)
	added := g.MergeLinks([]protocol.LinkRef{
		{Source: "n1", Target: "n0"}, // already present
		{Source: "n0", Target: "n2"},
		{Source: "n0", Target: "ghost"},
	})
	assert.Equal(t, 1, added)
	assert.True(t, g.HasLink("n2", "n0"))
}

func TestSnapshot_YAML(t *testing.T) {
	snap := buildScene(2, 1, 1).Serialize()
	data, err := snap.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: window")

	back, err := graph.SnapshotFromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, snap, back)
}
