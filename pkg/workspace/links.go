package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/protocol"
)

// CreateLink joins two persisted nodes on the engine and then in the graph.
// Pairs already linked in either direction are rejected without a request.
func (w *Workspace) CreateLink(ctx context.Context, source, target string) error {
	if err := w.requireWorkflow(); err != nil {
		return err
	}
	if source == target {
		return graph.ErrSelfLink
	}
	g := w.graph
	if g.HasLink(source, target) {
		return graph.ErrLinkExists
	}
	ctx = w.ctx(ctx)
	req := protocol.LinkRequest{WorkflowID: w.workflowID, Source: source, Target: target}
	if err := w.call(ctx, protocol.EventLinkCreateRequest, req, nil, nil); err != nil {
		return w.fail(ctx, "Could not create link", err)
	}
	if g != w.graph {
		return nil
	}
	if _, err := g.AddLink(source, target); err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			// An endpoint left the graph while the request was in flight.
			if derr := w.call(ctx, protocol.EventLinkDeleteRequest, req, nil, nil); derr != nil {
				err = fmt.Errorf("%w; rollback on engine failed: %w", err, derr)
			}
		}
		return w.fail(ctx, "Could not create link", err)
	}
	return nil
}

// DeleteLink removes a link cell on the engine and then in the graph.
func (w *Workspace) DeleteLink(ctx context.Context, cellID string) error {
	if err := w.requireWorkflow(); err != nil {
		return err
	}
	c, ok := w.graph.Cell(cellID)
	if !ok {
		return fmt.Errorf("cell %q: %w", cellID, graph.ErrNotFound)
	}
	if c.Kind != graph.KindLink {
		return fmt.Errorf("cell %q is a %s: %w", cellID, c.Kind, graph.ErrWrongKind)
	}
	link := *c.Link
	g := w.graph
	ctx = w.ctx(ctx)
	req := protocol.LinkRequest{WorkflowID: w.workflowID, Source: link.Source, Target: link.Target}
	if err := w.call(ctx, protocol.EventLinkDeleteRequest, req, nil, nil); err != nil {
		return w.fail(ctx, "Could not delete link", err)
	}
	g.RemoveLink(link.Source, link.Target)
	return nil
}
