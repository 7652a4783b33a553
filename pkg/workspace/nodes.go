package workspace

import (
	"context"
	"fmt"
	"maps"

	"github.com/aretw0/warp/internal/logging"
	"github.com/aretw0/warp/pkg/canvas"
	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/nodeui"
	"github.com/aretw0/warp/pkg/protocol"
)

// NodeTypes returns the node categories offered by the engine.
func (w *Workspace) NodeTypes(ctx context.Context) ([]string, error) {
	var resp protocol.NodeTypesResponse
	if err := w.call(ctx, protocol.EventNodeTypesRequest, nil, &resp, nil); err != nil {
		return nil, w.fail(ctx, "Could not load node types", err)
	}
	return resp.NodeTypes, nil
}

// NodeSubtypes returns the subtypes of a node category.
func (w *Workspace) NodeSubtypes(ctx context.Context, nodeType string) ([]string, error) {
	var resp protocol.NodeSubtypesResponse
	req := protocol.NodeSubtypesRequest{NodeType: nodeType}
	if err := w.call(ctx, protocol.EventNodeSubtypesRequest, req, &resp, nil); err != nil {
		return nil, w.fail(ctx, "Could not load node subtypes", err)
	}
	return resp.NodeSubtypes, nil
}

// PlaceNode adds a node at a model position and creates it on the engine.
// When no subtype is given the first subtype of the category is used. The
// node stays on the canvas, unsaved, if the engine rejects it.
func (w *Workspace) PlaceNode(ctx context.Context, at graph.Point, in canvas.Input) (*graph.Cell, error) {
	if err := w.requireWorkflow(); err != nil {
		return nil, err
	}
	ctx = w.ctx(ctx)
	if in.NodeType == "" {
		in.NodeType = graph.CategoryCustom
	}
	if in.NodeSubtype == "" {
		subs, err := w.NodeSubtypes(ctx, in.NodeType)
		if err != nil {
			return nil, err
		}
		if len(subs) == 0 {
			return nil, w.fail(ctx, "Could not add node", fmt.Errorf("node type %q has no subtypes", in.NodeType))
		}
		in.NodeSubtype = subs[0]
	}
	if in.Name == "" {
		in.Name = in.NodeSubtype
	}

	g := w.graph
	cell := g.AddNode(at, canvas.DefaultNodeSize, graph.NodeAttrs{
		Name:        in.Name,
		NodeType:    in.NodeType,
		NodeSubtype: in.NodeSubtype,
		Handler:     in.Handler,
		Code:        in.Code,
	})
	if err := w.saveNode(ctx, g, cell); err != nil {
		return cell, err
	}
	return cell, nil
}

// nodeSaveRequest builds the sparse save request for a node.
func (w *Workspace) nodeSaveRequest(n *graph.NodeAttrs) protocol.NodeSaveRequest {
	req := protocol.NodeSaveRequest{
		WorkflowID:  w.workflowID,
		ID:          n.CustomID,
		Name:        n.Name,
		NodeType:    n.NodeType,
		NodeSubtype: n.NodeSubtype,
	}
	if n.Handler != "" {
		h := n.Handler
		req.Handler = &h
	}
	if n.Code != "" || n.Editable {
		code := n.Code
		req.Code = &code
	}
	return req
}

// saveNode creates or updates a node on the engine and records the id
// assigned on creation.
func (w *Workspace) saveNode(ctx context.Context, g *graph.Graph, cell *graph.Cell) error {
	n := cell.Node
	ctx = logging.WithNodeID(ctx, n.CustomID)
	req := w.nodeSaveRequest(n)

	var saved protocol.SaveResponse
	if err := w.call(ctx, protocol.EventNodeSaveRequest, req, &saved, w.scope(cell.ID)); err != nil {
		return w.fail(ctx, "Could not save node", err)
	}
	if !w.alive(g, cell) {
		w.logger.InfoContext(ctx, "node removed before save completed, dropping response", "cell", cell.ID)
		return nil
	}
	if n.Persisted() {
		return nil
	}
	if saved.ID == "" {
		return w.fail(ctx, "Could not save node", fmt.Errorf("%s: engine returned no id", protocol.EventNodeSave))
	}
	if err := g.SetCustomID(cell.ID, saved.ID); err != nil {
		return w.fail(ctx, "Could not save node", err)
	}
	w.logger.DebugContext(logging.WithNodeID(ctx, saved.ID), "node created", "cell", cell.ID)
	return nil
}

// SaveNode sends a node's identity, handler and code to the engine.
func (w *Workspace) SaveNode(ctx context.Context, cellID string) error {
	if err := w.requireWorkflow(); err != nil {
		return err
	}
	cell, err := w.nodeCell(cellID)
	if err != nil {
		return err
	}
	return w.saveNode(w.ctx(ctx), w.graph, cell)
}

// EditNode applies the non-empty fields of in to a node and saves it.
func (w *Workspace) EditNode(ctx context.Context, cellID string, in canvas.Input) error {
	cell, err := w.nodeCell(cellID)
	if err != nil {
		return err
	}
	n := cell.Node
	if in.Name != "" {
		n.Name = in.Name
	}
	if in.Code != "" {
		n.Code = in.Code
	}
	if in.Handler != "" {
		n.Handler = in.Handler
	}
	return w.SaveNode(ctx, cellID)
}

// DeleteNode removes a node and its links from the graph, cancels its
// outstanding requests and, if the node was ever saved, deletes it on the
// engine.
func (w *Workspace) DeleteNode(ctx context.Context, cellID string) error {
	cell, err := w.nodeCell(cellID)
	if err != nil {
		return err
	}
	customID := cell.Node.CustomID
	w.dropScope(cellID)
	w.renderer.Forget(cellID)
	if _, err := w.graph.RemoveNode(cellID); err != nil {
		return err
	}
	if customID == "" {
		w.logger.DebugContext(ctx, "removed unsaved node", "cell", cellID)
		return nil
	}
	ctx = logging.WithNodeID(w.ctx(ctx), customID)
	if err := w.call(ctx, protocol.EventNodeDeleteRequest, protocol.NodeRequest{WorkflowID: w.workflowID, ID: customID}, nil, nil); err != nil {
		return w.fail(ctx, "Could not delete node", err)
	}
	return nil
}

// FetchNode loads a node's full record from the engine.
func (w *Workspace) FetchNode(ctx context.Context, cellID string) error {
	cell, err := w.nodeCell(cellID)
	if err != nil {
		return err
	}
	if !cell.Node.Persisted() {
		return fmt.Errorf("fetch %s: %w", cellID, ErrNotPersisted)
	}
	g := w.graph
	ctx = logging.WithNodeID(w.ctx(ctx), cell.Node.CustomID)
	req := protocol.NodeRequest{WorkflowID: w.workflowID, ID: cell.Node.CustomID}

	var rec protocol.NodeRecord
	if err := w.call(ctx, protocol.EventNodeContentRequest, req, &rec, w.scope(cellID)); err != nil {
		return w.fail(ctx, "Could not load node", err)
	}
	if !w.alive(g, cell) {
		w.logger.InfoContext(ctx, "node removed before load completed, dropping response", "cell", cellID)
		return nil
	}
	applyRecord(cell, rec)
	return nil
}

func applyRecord(cell *graph.Cell, rec protocol.NodeRecord) {
	applyIdentity(cell, rec)
	n := cell.Node
	n.Interface = rec.Interface
	n.StaticInput = maps.Clone(rec.StaticInput)
	if n.StaticInput == nil {
		n.StaticInput = map[string]any{}
	}
	n.Code = rec.Code
	n.Handler = rec.Handler
	n.Loaded = true
}

// applyIdentity copies the naming fields of a record. The node's content is
// still fetched on first use.
func applyIdentity(cell *graph.Cell, rec protocol.NodeRecord) {
	n := cell.Node
	if rec.Name != "" {
		n.Name = rec.Name
	}
	if rec.NodeType != "" {
		n.NodeType = rec.NodeType
		n.Editable = graph.EditableCategory(rec.NodeType)
	}
	if rec.NodeSubtype != "" {
		n.NodeSubtype = rec.NodeSubtype
	}
}

// ToggleInterface opens or closes a node's interface panel. The node record
// is fetched first if it has not been loaded yet.
func (w *Workspace) ToggleInterface(ctx context.Context, cellID string) error {
	cell, err := w.nodeCell(cellID)
	if err != nil {
		return err
	}
	if cell.Node.Visible {
		w.renderer.Close(cell)
		return nil
	}
	_, err = w.OpenInterface(ctx, cellID)
	return err
}

// OpenInterface shows a node's interface panel and returns it.
func (w *Workspace) OpenInterface(ctx context.Context, cellID string) (*nodeui.Panel, error) {
	cell, err := w.nodeCell(cellID)
	if err != nil {
		return nil, err
	}
	if !cell.Node.Loaded && cell.Node.Persisted() {
		if err := w.FetchNode(ctx, cellID); err != nil {
			return nil, err
		}
	}
	return w.renderer.Open(w.ctx(ctx), w.workflowID, cell, w.interfaceSaver(cellID))
}

// CloseInterface hides a node's interface panel.
func (w *Workspace) CloseInterface(cellID string) error {
	cell, err := w.nodeCell(cellID)
	if err != nil {
		return err
	}
	w.renderer.Close(cell)
	return nil
}

// SubmitInterface saves the open panel of a node.
func (w *Workspace) SubmitInterface(ctx context.Context, cellID string) error {
	return w.renderer.Submit(ctx, cellID)
}

// interfaceSaver returns the save callback registered for a node's panel.
// The engine replaces static input wholesale, so the merged map always
// carries every interface key.
func (w *Workspace) interfaceSaver(cellID string) nodeui.SaveFunc {
	return func(ctx context.Context, sub nodeui.Submission) error {
		cell, err := w.nodeCell(cellID)
		if err != nil {
			return err
		}
		n := cell.Node
		if !n.Persisted() {
			return w.fail(ctx, "Could not save node", fmt.Errorf("save %s: %w", cellID, ErrNotPersisted))
		}
		merged := nodeui.MergeStaticInput(n.Interface, n.StaticInput, sub)
		req := protocol.NodeSaveRequest{WorkflowID: w.workflowID, ID: n.CustomID, StaticInput: merged}
		ctx = logging.WithNodeID(w.ctx(ctx), n.CustomID)

		g := w.graph
		if err := w.call(ctx, protocol.EventNodeSaveRequest, req, nil, w.scope(cellID)); err != nil {
			return w.fail(ctx, "Could not save node settings", err)
		}
		if !w.alive(g, cell) {
			return nil
		}
		n.StaticInput = merged
		return nil
	}
}

// FetchOptions resolves a dynamic options source for the renderer. It is
// called from panel goroutines and only touches the client.
func (w *Workspace) FetchOptions(ctx context.Context, req protocol.DynamicOptionsRequest) ([]protocol.Option, error) {
	var resp protocol.DynamicOptionsResponse
	if err := w.call(logging.WithNodeID(ctx, req.NodeID), protocol.EventNodeDynamicOptionsRequest, req, &resp, nil); err != nil {
		return nil, err
	}
	if resp.OptionsSource != "" && resp.OptionsSource != req.OptionsSource {
		return nil, fmt.Errorf("options for %q answered with %q: %w", req.OptionsSource, resp.OptionsSource, ErrOptionsMismatch)
	}
	return resp.Options, nil
}
