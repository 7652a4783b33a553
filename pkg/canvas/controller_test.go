package canvas_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/warp/pkg/canvas"
	"github.com/aretw0/warp/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	g       *graph.Graph
	calls   []string
	linkErr error
}

func (r *recorder) PlaceNode(_ context.Context, at graph.Point, in canvas.Input) (*graph.Cell, error) {
	r.calls = append(r.calls, "place:"+in.NodeType)
	return r.g.AddNode(at, canvas.DefaultNodeSize, graph.NodeAttrs{Name: in.Name, NodeType: in.NodeType}), nil
}

func (r *recorder) SaveWorkflow(context.Context) error {
	r.calls = append(r.calls, "save")
	return nil
}

func (r *recorder) ToggleInterface(_ context.Context, id string) error {
	r.calls = append(r.calls, "toggle:"+id)
	return nil
}

func (r *recorder) EditNode(_ context.Context, id string, _ canvas.Input) error {
	r.calls = append(r.calls, "edit:"+id)
	return nil
}

func (r *recorder) DeleteNode(_ context.Context, id string) error {
	r.calls = append(r.calls, "delete-node:"+id)
	return nil
}

func (r *recorder) CreateLink(_ context.Context, a, b string) error {
	r.calls = append(r.calls, "link:"+a+"-"+b)
	if r.linkErr != nil {
		return r.linkErr
	}
	_, err := r.g.AddLink(a, b)
	return err
}

func (r *recorder) DeleteLink(_ context.Context, id string) error {
	r.calls = append(r.calls, "delete-link:"+id)
	return nil
}

func newController() (*canvas.Controller, *recorder) {
	g := graph.New()
	rec := &recorder{g: g}
	return canvas.NewController(g, rec), rec
}

func TestController_DragAppliesToGraph(t *testing.T) {
	c, _ := newController()
	n := c.Graph().AddNode(pt(0, 0), graph.Size{Width: 50, Height: 50}, graph.NodeAttrs{})
	ctx := context.Background()

	_, err := c.PointerDown(ctx, pt(10, 10))
	require.NoError(t, err)
	c.PointerMove(pt(30, 15))
	c.PointerUp()

	assert.Equal(t, pt(20, 5), n.Position)
	assert.Equal(t, canvas.Idle, c.State().Mode)
}

func TestController_LinkingThroughMenu(t *testing.T) {
	c, rec := newController()
	g := c.Graph()
	g.AddNode(pt(0, 0), graph.Size{Width: 50, Height: 50}, graph.NodeAttrs{CustomID: "a"})
	g.AddNode(pt(200, 0), graph.Size{Width: 50, Height: 50}, graph.NodeAttrs{CustomID: "b"})
	ctx := context.Background()

	m := c.ContextMenu(pt(20, 20))
	require.NotNil(t, m)
	require.NoError(t, c.Select(ctx, canvas.ActionCreateLink, canvas.Input{}))
	assert.Equal(t, canvas.Linking, c.State().Mode)

	_, err := c.PointerDown(ctx, pt(20, 20))
	require.NoError(t, err)
	_, err = c.PointerDown(ctx, pt(220, 20))
	require.NoError(t, err)

	assert.Equal(t, []string{"link:a-b"}, rec.calls)
	assert.True(t, g.HasLink("b", "a"))
	assert.Equal(t, canvas.Idle, c.State().Mode)
}

func TestController_FailedLinkClearsPair(t *testing.T) {
	c, rec := newController()
	g := c.Graph()
	g.AddNode(pt(0, 0), graph.Size{Width: 50, Height: 50}, graph.NodeAttrs{CustomID: "a"})
	g.AddNode(pt(200, 0), graph.Size{Width: 50, Height: 50}, graph.NodeAttrs{CustomID: "b"})
	rec.linkErr = errors.New("link_create: engine said no")
	ctx := context.Background()

	c.ContextMenu(pt(20, 20))
	require.NoError(t, c.Select(ctx, canvas.ActionCreateLink, canvas.Input{}))
	_, err := c.PointerDown(ctx, pt(20, 20))
	require.NoError(t, err)
	_, err = c.PointerDown(ctx, pt(220, 20))

	assert.ErrorIs(t, err, rec.linkErr)
	assert.False(t, g.HasLink("a", "b"))
	assert.Equal(t, canvas.Idle, c.State().Mode)
	assert.Empty(t, c.State().LinkSource)
}

func TestController_SelectDispatch(t *testing.T) {
	c, rec := newController()
	g := c.Graph()
	ctx := context.Background()

	assert.ErrorIs(t, c.Select(ctx, canvas.ActionAddNode, canvas.Input{}), canvas.ErrNoMenu)

	c.ContextMenu(pt(500, 500))
	require.NoError(t, c.Select(ctx, canvas.ActionAddWindow, canvas.Input{Text: "group"}))
	windows := g.OfKind(graph.KindWindow)
	require.Len(t, windows, 1)
	assert.Equal(t, "group", windows[0].Window.Label)
	assert.Equal(t, pt(500, 500), windows[0].Position)

	c.ContextMenu(pt(900, 900))
	require.NoError(t, c.Select(ctx, canvas.ActionAddNode, canvas.Input{NodeType: "action", Name: "x"}))
	nodes := g.OfKind(graph.KindNode)
	require.Len(t, nodes, 1)

	c.ContextMenu(pt(910, 910))
	assert.ErrorIs(t, c.Select(ctx, canvas.ActionDeleteLink, canvas.Input{}), canvas.ErrUnavailable)

	c.ContextMenu(pt(910, 910))
	require.NoError(t, c.Select(ctx, canvas.ActionToggleInterface, canvas.Input{}))
	c.ContextMenu(pt(910, 910))
	require.NoError(t, c.Select(ctx, canvas.ActionDeleteNode, canvas.Input{}))

	c.ContextMenu(pt(510, 510))
	require.NoError(t, c.Select(ctx, canvas.ActionRenameWindow, canvas.Input{Text: "renamed"}))
	assert.Equal(t, "renamed", windows[0].Window.Label)
	c.ContextMenu(pt(510, 510))
	require.NoError(t, c.Select(ctx, canvas.ActionDeleteWindow, canvas.Input{}))
	assert.Empty(t, g.OfKind(graph.KindWindow))

	c.ContextMenu(pt(0, 0))
	require.NoError(t, c.Select(ctx, canvas.ActionSaveWorkflow, canvas.Input{}))

	assert.Equal(t, []string{
		"place:action",
		"toggle:" + nodes[0].ID,
		"delete-node:" + nodes[0].ID,
		"save",
	}, rec.calls)
}
