package nodeui_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/nodeui"
	"github.com/aretw0/warp/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodeCell(t *testing.T, iface protocol.Schema, static map[string]any) (*graph.Graph, *graph.Cell) {
	t.Helper()
	g := graph.New()
	c := g.AddNode(graph.Point{X: 10, Y: 10}, graph.Size{Width: 160, Height: 40}, graph.NodeAttrs{
		CustomID:    "n1",
		Name:        "node",
		NodeType:    graph.CategoryAction,
		Interface:   iface,
		StaticInput: static,
		Loaded:      true,
	})
	return g, c
}

func fixedHeight(h float64) nodeui.Measurer {
	return func(*nodeui.Form) float64 { return h }
}

func TestRenderer_ToggleRestoresSize(t *testing.T) {
	_, cell := nodeCell(t, sampleSchema(), nil)
	r := nodeui.NewRenderer(nil, nodeui.WithMeasurer(fixedHeight(100)))
	ctx := context.Background()

	open, err := r.Toggle(ctx, "wf", cell, nil)
	require.NoError(t, err)
	assert.True(t, open)
	assert.Equal(t, graph.Size{Width: 160, Height: 150}, cell.Size)
	assert.Equal(t, graph.Size{Width: 160, Height: 40}, cell.Node.CollapsedSize)

	_, err = r.Open(ctx, "wf", cell, nil)
	require.NoError(t, err)
	assert.Equal(t, graph.Size{Width: 160, Height: 150}, cell.Size, "open is idempotent")

	open, err = r.Toggle(ctx, "wf", cell, nil)
	require.NoError(t, err)
	assert.False(t, open)
	assert.Equal(t, graph.Size{Width: 160, Height: 40}, cell.Size)

	r.Close(cell)
	assert.Equal(t, graph.Size{Width: 160, Height: 40}, cell.Size, "close is idempotent")
	assert.Empty(t, r.OpenPanels())
}

func TestRenderer_OpenRejectsNonNodes(t *testing.T) {
	g := graph.New()
	w := g.AddWindow(graph.Point{}, graph.Size{Width: 100, Height: 100}, "w")

	_, err := nodeui.NewRenderer(nil).Open(context.Background(), "wf", w, nil)
	assert.ErrorIs(t, err, nodeui.ErrNotNode)
}

func TestRenderer_SubmitUsesRegisteredCallback(t *testing.T) {
	_, cell := nodeCell(t, sampleSchema(), map[string]any{"name": "a"})
	r := nodeui.NewRenderer(nil)
	ctx := context.Background()

	var got nodeui.Submission
	p, err := r.Open(ctx, "wf", cell, func(_ context.Context, sub nodeui.Submission) error {
		got = sub
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, p.Form.Set("name", "b"))

	require.NoError(t, r.Submit(ctx, cell.ID))
	assert.Equal(t, "b", got.Values["name"])

	r.Close(cell)
	assert.ErrorIs(t, r.Submit(ctx, cell.ID), nodeui.ErrNoPanel)
}

func dynamicSchema() protocol.Schema {
	return protocol.Schema{
		"source": {Type: protocol.FieldSelect, OptionsSource: "example_source_1"},
		"label":  {Type: protocol.FieldText},
	}
}

func TestPanel_DynamicOptionsKeepPersistedSelection(t *testing.T) {
	_, cell := nodeCell(t, dynamicSchema(), map[string]any{"source": "b"})

	var seen atomic.Value
	fetcher := nodeui.OptionsFetcherFunc(func(_ context.Context, req protocol.DynamicOptionsRequest) ([]protocol.Option, error) {
		seen.Store(req)
		return []protocol.Option{{Value: "a", Text: "A"}, {Value: "b", Text: "B"}}, nil
	})
	r := nodeui.NewRenderer(fetcher)
	p, err := r.Open(context.Background(), "wf1", cell, nil)
	require.NoError(t, err)

	c, _ := p.Form.Control("source")
	assert.True(t, c.Loading)
	_, submitted := p.Form.Submit().Fields["source"]
	assert.False(t, submitted, "loading select is not submitted")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Await(ctx))

	assert.Equal(t, protocol.DynamicOptionsRequest{
		WorkflowID:    "wf1",
		NodeID:        "n1",
		OptionsSource: "example_source_1",
	}, seen.Load())
	assert.False(t, c.Loading)
	assert.Len(t, c.Options, 2)
	assert.Equal(t, "b", c.Value)
	assert.Equal(t, 0, p.Pending())
}

func TestPanel_DynamicOptionsSelectFirstWhenMissing(t *testing.T) {
	_, cell := nodeCell(t, dynamicSchema(), map[string]any{"source": "zzz"})
	fetcher := nodeui.OptionsFetcherFunc(func(context.Context, protocol.DynamicOptionsRequest) ([]protocol.Option, error) {
		return []protocol.Option{{Value: "a"}, {Value: "b"}}, nil
	})
	p, err := nodeui.NewRenderer(fetcher).Open(context.Background(), "wf", cell, nil)
	require.NoError(t, err)
	require.NoError(t, p.Await(context.Background()))

	c, _ := p.Form.Control("source")
	assert.Equal(t, "a", c.Value)
}

func TestPanel_DynamicOptionsFailureLeavesErrorPlaceholder(t *testing.T) {
	static := map[string]any{"source": "b", "label": "x"}
	s := dynamicSchema()
	_, cell := nodeCell(t, s, static)
	fetcher := nodeui.OptionsFetcherFunc(func(context.Context, protocol.DynamicOptionsRequest) ([]protocol.Option, error) {
		return nil, errors.New("engine unavailable")
	})
	p, err := nodeui.NewRenderer(fetcher).Open(context.Background(), "wf", cell, nil)
	require.NoError(t, err)
	require.NoError(t, p.Await(context.Background()))

	c, _ := p.Form.Control("source")
	assert.Equal(t, []protocol.Option{nodeui.ErrorOption}, c.Options)
	assert.True(t, c.Inert)
	assert.Equal(t, "engine unavailable", c.Err)
	assert.ErrorIs(t, p.Form.Set("source", "error"), nodeui.ErrInert)

	merged := nodeui.MergeStaticInput(s, static, p.Form.Submit())
	assert.Equal(t, "b", merged["source"], "inert control keeps the stored value")
}

func TestPanel_ApplyDoesNotBlock(t *testing.T) {
	_, cell := nodeCell(t, dynamicSchema(), nil)
	release := make(chan struct{})
	fetcher := nodeui.OptionsFetcherFunc(func(ctx context.Context, _ protocol.DynamicOptionsRequest) ([]protocol.Option, error) {
		select {
		case <-release:
			return []protocol.Option{{Value: "only"}}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	r := nodeui.NewRenderer(fetcher)
	p, err := r.Open(context.Background(), "wf", cell, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, p.Apply())
	assert.Equal(t, 1, p.Pending())

	close(release)
	assert.Eventually(t, func() bool { return p.Apply() == 1 }, time.Second, 5*time.Millisecond)
	c, _ := p.Form.Control("source")
	assert.Equal(t, "only", c.Value)
}

func TestPanel_CloseCancelsFetches(t *testing.T) {
	_, cell := nodeCell(t, dynamicSchema(), nil)
	cancelled := make(chan struct{})
	fetcher := nodeui.OptionsFetcherFunc(func(ctx context.Context, _ protocol.DynamicOptionsRequest) ([]protocol.Option, error) {
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	})
	r := nodeui.NewRenderer(fetcher)
	_, err := r.Open(context.Background(), "wf", cell, nil)
	require.NoError(t, err)

	r.Close(cell)
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("fetch was not cancelled")
	}
}

func TestRenderer_InvalidFieldsAreSkippedButPreserved(t *testing.T) {
	s := protocol.Schema{
		"ok":     {Type: protocol.FieldText},
		"broken": {Type: protocol.FieldSelect},
	}
	static := map[string]any{"ok": "v", "broken": "stored"}
	_, cell := nodeCell(t, s, static)

	var saved map[string]any
	p, err := nodeui.NewRenderer(nil).Open(context.Background(), "wf", cell, func(_ context.Context, sub nodeui.Submission) error {
		saved = nodeui.MergeStaticInput(s, static, sub)
		return nil
	})
	require.NoError(t, err)

	_, rendered := p.Form.Control("broken")
	assert.False(t, rendered)
	assert.NotEmpty(t, p.Invalid)

	require.NoError(t, p.Submit(context.Background()))
	assert.Equal(t, "stored", saved["broken"])
	assert.Equal(t, "v", saved["ok"])
}
