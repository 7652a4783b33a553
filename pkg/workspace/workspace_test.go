package workspace_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/warp/pkg/canvas"
	"github.com/aretw0/warp/pkg/channel"
	"github.com/aretw0/warp/pkg/enginetest"
	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/ports"
	"github.com/aretw0/warp/pkg/protocol"
	"github.com/aretw0/warp/pkg/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inbox struct {
	mu    sync.Mutex
	items []ports.Notification
}

func (b *inbox) Notify(n ports.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, n)
}

func (b *inbox) all() []ports.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ports.Notification(nil), b.items...)
}

type fixture struct {
	engine *enginetest.Engine
	ch     *channel.Channel
	ws     *workspace.Workspace
	inbox  *inbox
	ctx    context.Context
}

func setup(t *testing.T, opts ...enginetest.Option) *fixture {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	e := enginetest.New(opts...)
	ch := channel.New(e.Dialer(ctx), channel.WithoutReconnect())
	require.NoError(t, ch.Open(ctx))
	t.Cleanup(func() { _ = ch.Close() })

	box := &inbox{}
	ws := workspace.New(ch, workspace.WithNotifier(box), workspace.WithRequestTimeout(2*time.Second))
	t.Cleanup(ws.Close)
	return &fixture{engine: e, ch: ch, ws: ws, inbox: box, ctx: ctx}
}

func (f *fixture) openNew(t *testing.T) string {
	t.Helper()
	id, err := f.ws.CreateWorkflow(f.ctx, "Test")
	require.NoError(t, err)
	return id
}

func (f *fixture) place(t *testing.T, subtype string, at graph.Point) *graph.Cell {
	t.Helper()
	c, err := f.ws.PlaceNode(f.ctx, at, canvas.Input{NodeType: graph.CategoryAction, NodeSubtype: subtype})
	require.NoError(t, err)
	require.True(t, c.Node.Persisted())
	return c
}

func TestWorkspace_ListCreatesDefaultWorkflow(t *testing.T) {
	f := setup(t)

	list, err := f.ws.ListWorkflows(f.ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, workspace.DefaultWorkflowName, list[0].Name)

	again, err := f.ws.ListWorkflows(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, list, again, "no second workflow is created")
}

func TestWorkspace_OpenMergesEngineLinks(t *testing.T) {
	f := setup(t)
	wf := f.openNew(t)
	a := f.place(t, "squash_history", graph.Point{X: 0, Y: 0})
	b := f.place(t, "send_acl_message", graph.Point{X: 300, Y: 0})
	require.NoError(t, f.ws.SaveWorkflow(f.ctx))

	// Link created behind the layout's back.
	require.NoError(t, f.ch.Call(f.ctx, protocol.EventLinkCreateRequest, protocol.LinkRequest{
		WorkflowID: wf, Source: a.Node.CustomID, Target: b.Node.CustomID,
	}, nil))

	require.NoError(t, f.ws.OpenWorkflow(f.ctx, wf))
	g := f.ws.Graph()
	assert.True(t, g.HasLink(b.Node.CustomID, a.Node.CustomID))
	assert.Len(t, g.OfKind(graph.KindNode), 2)

	n, ok := g.NodeByCustomID(a.Node.CustomID)
	require.True(t, ok)
	assert.Equal(t, "squash_history", n.Node.NodeSubtype)
	assert.False(t, n.Node.Loaded, "content is fetched on first open")
}

func TestWorkspace_OpenedNodeFetchesFreshContent(t *testing.T) {
	f := setup(t)
	wf := f.openNew(t)
	c := f.place(t, "send_acl_message", graph.Point{})
	require.NoError(t, f.ws.SaveWorkflow(f.ctx))
	require.NoError(t, f.ws.OpenWorkflow(f.ctx, wf))

	// Edited by another client after the workflow was opened.
	require.NoError(t, f.ch.Call(f.ctx, protocol.EventNodeSaveRequest, protocol.NodeSaveRequest{
		WorkflowID:  wf,
		ID:          c.Node.CustomID,
		StaticInput: map[string]any{"topic": "fresh"},
	}, nil))

	n, ok := f.ws.Graph().NodeByCustomID(c.Node.CustomID)
	require.True(t, ok)
	before := len(f.engine.Received(protocol.EventNodeContentRequest))
	p, err := f.ws.OpenInterface(f.ctx, n.ID)
	require.NoError(t, err)
	assert.Len(t, f.engine.Received(protocol.EventNodeContentRequest), before+1)
	assert.True(t, n.Node.Loaded)
	assert.NotEmpty(t, n.Node.Interface)

	topic, ok := p.Form.Control("topic")
	require.True(t, ok)
	assert.Equal(t, "fresh", topic.Value)
}

func TestWorkspace_SaveFailureKeepsDraft(t *testing.T) {
	f := setup(t)
	wf := f.openNew(t)
	f.ws.Graph().AddNote(graph.Point{X: 5, Y: 5}, canvas.DefaultNoteSize, "remember")

	f.engine.Fail(protocol.EventWorkflowSaveRequest, "disk full")
	err := f.ws.SaveWorkflow(f.ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.Len(t, f.ws.Graph().OfKind(graph.KindNote), 1, "graph is not rolled back")
	d, err := f.ws.Drafts().Load(f.ctx, wf)
	require.NoError(t, err)
	require.Len(t, d.Snapshot.Cells, 1)
	assert.Equal(t, "remember", d.Snapshot.Cells[0].Text)

	notes := f.inbox.all()
	require.NotEmpty(t, notes)
	assert.Equal(t, ports.LevelError, notes[len(notes)-1].Level)

	f.engine.Recover(protocol.EventWorkflowSaveRequest)
	require.NoError(t, f.ws.SaveWorkflow(f.ctx))
	_, err = f.ws.Drafts().Load(f.ctx, wf)
	assert.ErrorIs(t, err, ports.ErrDraftNotFound)
}

func TestWorkspace_RestoreDraft(t *testing.T) {
	f := setup(t)
	f.openNew(t)
	f.ws.Graph().AddWindow(graph.Point{}, canvas.DefaultWindowSize, "group")

	f.engine.Fail(protocol.EventWorkflowSaveRequest, "offline")
	require.Error(t, f.ws.SaveWorkflow(f.ctx))

	require.NoError(t, f.ws.RestoreDraft(f.ctx))
	require.Len(t, f.ws.Graph().OfKind(graph.KindWindow), 1)
	assert.Equal(t, "group", f.ws.Graph().OfKind(graph.KindWindow)[0].Window.Label)
}

func TestWorkspace_PlaceNodeDefaultsSubtype(t *testing.T) {
	f := setup(t)
	f.openNew(t)

	c, err := f.ws.PlaceNode(f.ctx, graph.Point{X: 40, Y: 40}, canvas.Input{NodeType: graph.CategoryResource})
	require.NoError(t, err)
	assert.Equal(t, enginetest.NodeSubtypes[graph.CategoryResource][0], c.Node.NodeSubtype)
	assert.True(t, c.Node.Persisted())
}

func TestWorkspace_PlaceNodeFailureKeepsNode(t *testing.T) {
	f := setup(t)
	f.openNew(t)
	f.engine.Fail(protocol.EventNodeSaveRequest, "rejected")

	c, err := f.ws.PlaceNode(f.ctx, graph.Point{}, canvas.Input{NodeType: graph.CategoryAction, NodeSubtype: "squash_history"})
	require.Error(t, err)
	require.NotNil(t, c)
	assert.False(t, c.Node.Persisted())
	_, ok := f.ws.Graph().Cell(c.ID)
	assert.True(t, ok)
}

func TestWorkspace_DeleteUnsavedNodeSendsNothing(t *testing.T) {
	f := setup(t)
	f.openNew(t)
	c := f.ws.Graph().AddNode(graph.Point{}, canvas.DefaultNodeSize, graph.NodeAttrs{Name: "draft", NodeType: graph.CategoryCustom})

	require.NoError(t, f.ws.DeleteNode(f.ctx, c.ID))
	_, ok := f.ws.Graph().Cell(c.ID)
	assert.False(t, ok)
	assert.Empty(t, f.engine.Received(protocol.EventNodeDeleteRequest))
}

func TestWorkspace_DeleteNodeRemovesLinks(t *testing.T) {
	f := setup(t)
	f.openNew(t)
	a := f.place(t, "squash_history", graph.Point{})
	b := f.place(t, "send_acl_message", graph.Point{X: 300})
	require.NoError(t, f.ws.CreateLink(f.ctx, a.Node.CustomID, b.Node.CustomID))

	id := a.Node.CustomID
	require.NoError(t, f.ws.DeleteNode(f.ctx, a.ID))
	assert.Empty(t, f.ws.Graph().OfKind(graph.KindLink))
	sent := f.engine.Received(protocol.EventNodeDeleteRequest)
	require.Len(t, sent, 1)
	assert.Equal(t, f.ws.WorkflowID(), sent[0].Data["workflow_id"])
	assert.Equal(t, id, sent[0].Data["id"])
}

func TestWorkspace_LinksAreUndirected(t *testing.T) {
	f := setup(t)
	f.openNew(t)
	a := f.place(t, "squash_history", graph.Point{})
	b := f.place(t, "send_acl_message", graph.Point{X: 300})

	require.NoError(t, f.ws.CreateLink(f.ctx, a.Node.CustomID, b.Node.CustomID))
	err := f.ws.CreateLink(f.ctx, b.Node.CustomID, a.Node.CustomID)
	assert.ErrorIs(t, err, graph.ErrLinkExists)
	assert.Len(t, f.engine.Received(protocol.EventLinkCreateRequest), 1, "duplicate is rejected locally")

	links := f.ws.Graph().OfKind(graph.KindLink)
	require.Len(t, links, 1)
	require.NoError(t, f.ws.DeleteLink(f.ctx, links[0].ID))
	assert.Empty(t, f.ws.Graph().OfKind(graph.KindLink))
}

func TestWorkspace_InterfaceSubmitKeepsAllKeys(t *testing.T) {
	f := setup(t)
	wf := f.openNew(t)
	c := f.place(t, "send_acl_message", graph.Point{})
	c.Node.Loaded = false

	// Unknown stored keys survive the merge.
	require.NoError(t, f.ch.Call(f.ctx, protocol.EventNodeSaveRequest, protocol.NodeSaveRequest{
		WorkflowID:  wf,
		ID:          c.Node.CustomID,
		StaticInput: map[string]any{"topic": "alpha", "legacy": 7.0},
	}, nil))

	p, err := f.ws.OpenInterface(f.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, c.Node.Visible)
	topic, ok := p.Form.Control("topic")
	require.True(t, ok)
	assert.Equal(t, "alpha", topic.Value)

	require.NoError(t, p.Form.Set("topic", "beta"))
	require.NoError(t, f.ws.SubmitInterface(f.ctx, c.ID))
	assert.Equal(t, map[string]any{"topic": "beta", "legacy": 7.0}, c.Node.StaticInput)

	var rec protocol.NodeRecord
	require.NoError(t, f.ch.Call(f.ctx, protocol.EventNodeContentRequest, protocol.NodeRequest{WorkflowID: wf, ID: c.Node.CustomID}, &rec))
	assert.Equal(t, "beta", rec.StaticInput["topic"])
	assert.EqualValues(t, 7, rec.StaticInput["legacy"])

	require.NoError(t, f.ws.ToggleInterface(f.ctx, c.ID))
	assert.False(t, c.Node.Visible)
	assert.Equal(t, canvas.DefaultNodeSize, c.Size)
}

func TestWorkspace_DynamicOptions(t *testing.T) {
	f := setup(t)
	f.openNew(t)
	c := f.place(t, "register_standard_tool", graph.Point{})

	p, err := f.ws.OpenInterface(f.ctx, c.ID)
	require.NoError(t, err)
	require.NoError(t, p.Await(f.ctx))

	ctl, ok := p.Form.Control("tool_name")
	require.True(t, ok)
	assert.False(t, ctl.Loading)
	require.Len(t, ctl.Options, 2)
	assert.Equal(t, "get_time", ctl.Value)
}

func TestWorkspace_ToastsReachNotifier(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.engine.Toast(f.ctx, protocol.Toast{Type: "warning", Title: "Engine", Message: "low memory"}))

	assert.Eventually(t, func() bool {
		for _, n := range f.inbox.all() {
			if n.Message == "low memory" && n.Level == ports.LevelWarning {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestWorkspace_CanvasMenuDrivesWorkspace(t *testing.T) {
	f := setup(t)
	f.openNew(t)
	ctrl := f.ws.Canvas()
	menu := ctrl.ContextMenu(graph.Point{X: 500, Y: 500})
	require.NotNil(t, menu)
	assert.Equal(t, canvas.CategoryCanvas, menu.Category)

	require.NoError(t, ctrl.Select(f.ctx, canvas.ActionAddNode, canvas.Input{NodeType: graph.CategoryAction, NodeSubtype: "squash_history"}))
	nodes := f.ws.Graph().OfKind(graph.KindNode)
	require.Len(t, nodes, 1)
	assert.True(t, nodes[0].Node.Persisted())
}

func TestWorkspace_RequiresOpenWorkflow(t *testing.T) {
	f := setup(t)
	assert.ErrorIs(t, f.ws.SaveWorkflow(f.ctx), workspace.ErrNoWorkflow)
	_, err := f.ws.PlaceNode(f.ctx, graph.Point{}, canvas.Input{})
	assert.ErrorIs(t, err, workspace.ErrNoWorkflow)
}

// hookClient runs before on every call and forwards it unless before
// reports it handled.
type hookClient struct {
	*channel.Channel
	before func(event string, out any) (handled bool, err error)
}

func (h *hookClient) Call(ctx context.Context, event string, payload any, out any, opts ...channel.RequestOption) error {
	if handled, err := h.before(event, out); handled {
		return err
	}
	return h.Channel.Call(ctx, event, payload, out, opts...)
}

func TestWorkspace_FetchOptionsRejectsOtherSource(t *testing.T) {
	f := setup(t)
	client := &hookClient{Channel: f.ch, before: func(event string, out any) (bool, error) {
		if event != protocol.EventNodeDynamicOptionsRequest {
			return false, nil
		}
		return true, protocol.Decode(map[string]any{
			"options_source": "get_topics",
			"options":        []any{map[string]any{"value": "a", "text": "A"}},
		}, out)
	}}
	ws := workspace.New(client)
	t.Cleanup(ws.Close)

	req := protocol.DynamicOptionsRequest{WorkflowID: "wf", NodeID: "n", OptionsSource: "get_agents"}
	_, err := ws.FetchOptions(f.ctx, req)
	assert.ErrorIs(t, err, workspace.ErrOptionsMismatch)

	req.OptionsSource = "get_topics"
	opts, err := ws.FetchOptions(f.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, []protocol.Option{{Value: "a", Text: "A"}}, opts)
}

func TestWorkspace_CreateLinkRollsBackWhenEndpointVanishes(t *testing.T) {
	f := setup(t)
	var ws *workspace.Workspace
	var gone string
	client := &hookClient{Channel: f.ch, before: func(event string, _ any) (bool, error) {
		if event == protocol.EventLinkCreateRequest && gone != "" {
			_, err := ws.Graph().RemoveNode(gone)
			gone = ""
			return false, err
		}
		return false, nil
	}}
	box := &inbox{}
	ws = workspace.New(client, workspace.WithNotifier(box), workspace.WithRequestTimeout(2*time.Second))
	t.Cleanup(ws.Close)

	wf, err := ws.CreateWorkflow(f.ctx, "Test")
	require.NoError(t, err)
	a, err := ws.PlaceNode(f.ctx, graph.Point{}, canvas.Input{NodeType: graph.CategoryAction, NodeSubtype: "squash_history"})
	require.NoError(t, err)
	b, err := ws.PlaceNode(f.ctx, graph.Point{X: 300}, canvas.Input{NodeType: graph.CategoryAction, NodeSubtype: "send_acl_message"})
	require.NoError(t, err)

	gone = b.ID
	err = ws.CreateLink(f.ctx, a.Node.CustomID, b.Node.CustomID)
	assert.ErrorIs(t, err, graph.ErrNotFound)
	assert.Len(t, f.engine.Received(protocol.EventLinkDeleteRequest), 1)

	var detail protocol.WorkflowDetail
	require.NoError(t, f.ch.Call(f.ctx, protocol.EventWorkflowRequest, protocol.IDRequest{ID: wf}, &detail))
	assert.Empty(t, detail.Links)

	notes := box.all()
	require.NotEmpty(t, notes)
	assert.Equal(t, ports.LevelError, notes[len(notes)-1].Level)
	assert.Equal(t, "Could not create link", notes[len(notes)-1].Title)
}
