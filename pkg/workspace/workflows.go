package workspace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/ports"
	"github.com/aretw0/warp/pkg/protocol"
	"github.com/aretw0/warp/pkg/schema"
)

// ListWorkflows returns the engine's workflows. When there are none, a
// workflow named DefaultWorkflowName is created and returned.
func (w *Workspace) ListWorkflows(ctx context.Context) ([]protocol.WorkflowSummary, error) {
	var list protocol.WorkflowListResponse
	if err := w.call(ctx, protocol.EventWorkflowListRequest, nil, &list, nil); err != nil {
		return nil, w.fail(ctx, "Could not list workflows", err)
	}
	if len(list.Workflows) > 0 {
		return list.Workflows, nil
	}
	w.logger.InfoContext(ctx, "no workflows, creating default", "name", DefaultWorkflowName)
	id, err := w.createWorkflow(ctx, DefaultWorkflowName)
	if err != nil {
		return nil, w.fail(ctx, "Could not create workflow", err)
	}
	return []protocol.WorkflowSummary{{ID: id, Name: DefaultWorkflowName}}, nil
}

func (w *Workspace) createWorkflow(ctx context.Context, name string) (string, error) {
	snap, err := graph.New().Serialize().Map()
	if err != nil {
		return "", err
	}
	var saved protocol.SaveResponse
	req := protocol.WorkflowSaveRequest{Name: name, Graph: snap}
	if err := w.call(ctx, protocol.EventWorkflowSaveRequest, req, &saved, nil); err != nil {
		return "", err
	}
	if saved.ID == "" {
		return "", fmt.Errorf("%s: engine returned no id", protocol.EventWorkflowSave)
	}
	return saved.ID, nil
}

// CreateWorkflow creates an empty workflow and opens it.
func (w *Workspace) CreateWorkflow(ctx context.Context, name string) (string, error) {
	id, err := w.createWorkflow(ctx, name)
	if err != nil {
		return "", w.fail(ctx, "Could not create workflow", err)
	}
	w.setGraph(id, name, graph.New())
	return id, nil
}

// OpenWorkflow fetches a workflow and replaces the current graph with its
// layout. Links listed by the engine but missing from the layout are added.
func (w *Workspace) OpenWorkflow(ctx context.Context, id string) error {
	var detail protocol.WorkflowDetail
	if err := w.call(ctx, protocol.EventWorkflowRequest, protocol.IDRequest{ID: id}, &detail, nil); err != nil {
		return w.fail(ctx, "Could not open workflow", err)
	}
	g, err := loadLayout(detail.Graph)
	if err != nil {
		return w.fail(ctx, "Workflow layout is invalid", fmt.Errorf("workflow %s: %w", id, err))
	}
	if added := g.MergeLinks(detail.Links); added > 0 {
		w.logger.DebugContext(ctx, "merged engine links", "count", added)
	}
	for customID, rec := range detail.Nodes {
		if c, ok := g.NodeByCustomID(customID); ok {
			applyIdentity(c, rec)
		}
	}
	name := detail.Name
	if name == "" {
		name = id
	}
	w.setGraph(id, name, g)
	w.logger.InfoContext(w.ctx(ctx), "workflow opened", "cells", g.Len())
	return nil
}

func loadLayout(m map[string]any) (*graph.Graph, error) {
	snap, err := graph.SnapshotFromMap(m)
	if err != nil {
		return nil, err
	}
	if err := schema.Default().ValidateSnapshot(snap); err != nil {
		return nil, err
	}
	return graph.Deserialize(snap)
}

// SaveWorkflow sends the current layout to the engine. On failure the
// layout is kept in the draft store and the graph is left as is.
func (w *Workspace) SaveWorkflow(ctx context.Context) error {
	if err := w.requireWorkflow(); err != nil {
		return err
	}
	ctx = w.ctx(ctx)
	snap := w.graph.Serialize()
	m, err := snap.Map()
	if err != nil {
		return err
	}
	req := protocol.WorkflowSaveRequest{ID: w.workflowID, Name: w.name, Graph: m}
	if err := w.call(ctx, protocol.EventWorkflowSaveRequest, req, nil, nil); err != nil {
		draft := ports.Draft{WorkflowID: w.workflowID, Name: w.name, Snapshot: snap, SavedAt: time.Now()}
		if derr := w.drafts.Save(ctx, draft); derr != nil {
			w.logger.ErrorContext(ctx, "could not keep draft", "error", derr)
		}
		return w.fail(ctx, "Could not save workflow", err)
	}
	if err := w.drafts.Delete(ctx, w.workflowID); err != nil && !errors.Is(err, ports.ErrDraftNotFound) {
		w.logger.WarnContext(ctx, "could not clear draft", "error", err)
	}
	w.logger.InfoContext(ctx, "workflow saved")
	return nil
}

// RenameWorkflow changes the name of the open workflow on the engine.
func (w *Workspace) RenameWorkflow(ctx context.Context, name string) error {
	if err := w.requireWorkflow(); err != nil {
		return err
	}
	req := protocol.WorkflowSaveRequest{ID: w.workflowID, Name: name}
	if err := w.call(w.ctx(ctx), protocol.EventWorkflowSaveRequest, req, nil, nil); err != nil {
		return w.fail(ctx, "Could not rename workflow", err)
	}
	w.name = name
	return nil
}

// RestoreDraft replaces the graph with the unsaved layout kept for the
// open workflow. It returns ports.ErrDraftNotFound when there is none.
func (w *Workspace) RestoreDraft(ctx context.Context) error {
	if err := w.requireWorkflow(); err != nil {
		return err
	}
	d, err := w.drafts.Load(ctx, w.workflowID)
	if err != nil {
		return err
	}
	g, err := graph.Deserialize(d.Snapshot)
	if err != nil {
		return fmt.Errorf("draft %s: %w", d.WorkflowID, err)
	}
	w.setGraph(w.workflowID, w.name, g)
	return nil
}

// DeleteWorkflow deletes a workflow. Deleting the open workflow closes it.
func (w *Workspace) DeleteWorkflow(ctx context.Context, id string) error {
	if err := w.call(ctx, protocol.EventWorkflowDeleteRequest, protocol.IDRequest{ID: id}, nil, nil); err != nil {
		return w.fail(ctx, "Could not delete workflow", err)
	}
	if err := w.drafts.Delete(ctx, id); err != nil && !errors.Is(err, ports.ErrDraftNotFound) {
		w.logger.WarnContext(ctx, "could not clear draft", "error", err)
	}
	if id == w.workflowID {
		w.setGraph("", "", graph.New())
	}
	return nil
}
