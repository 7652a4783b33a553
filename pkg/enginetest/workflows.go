package enginetest

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/warp/pkg/protocol"
)

func (e *Engine) listWorkflows() (map[string]any, error) {
	list := make([]any, 0, len(e.workflowOrder))
	for _, id := range e.workflowOrder {
		wf := e.workflows[id]
		list = append(list, map[string]any{"id": wf.id, "name": wf.name})
	}
	return map[string]any{"workflows": list}, nil
}

func (e *Engine) workflow(id string) (*workflow, error) {
	if id == "" {
		return nil, errors.New("workflow id missing")
	}
	wf, ok := e.workflows[id]
	if !ok {
		return nil, fmt.Errorf("workflow %s not found", id)
	}
	return wf, nil
}

func (e *Engine) getWorkflow(data map[string]any) (map[string]any, error) {
	var req protocol.IDRequest
	if err := protocol.Decode(data, &req); err != nil {
		return nil, err
	}
	wf, err := e.workflow(req.ID)
	if err != nil {
		return nil, err
	}
	nodes := make(map[string]protocol.NodeRecord, len(wf.nodes))
	for id, n := range wf.nodes {
		nodes[id] = *n
	}
	return protocol.ToMap(struct {
		ID    string                         `json:"id"`
		Name  string                         `json:"name"`
		Graph map[string]any                 `json:"graph"`
		Links []protocol.LinkRef             `json:"links"`
		Nodes map[string]protocol.NodeRecord `json:"nodes"`
	}{wf.id, wf.name, wf.graph, wf.links, nodes})
}

func (e *Engine) saveWorkflow(data map[string]any) (map[string]any, error) {
	var req protocol.WorkflowSaveRequest
	if err := protocol.Decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		if req.Name == "" {
			return nil, errors.New("workflow name is required when creating a new workflow")
		}
		wf := &workflow{
			id:    e.newID(),
			name:  req.Name,
			graph: req.Graph,
			nodes: make(map[string]*protocol.NodeRecord),
		}
		e.workflows[wf.id] = wf
		e.workflowOrder = append(e.workflowOrder, wf.id)
		return map[string]any{"id": wf.id}, nil
	}
	wf, err := e.workflow(req.ID)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		wf.name = req.Name
	}
	if req.Graph != nil {
		wf.graph = req.Graph
	}
	return map[string]any{"id": wf.id}, nil
}

func (e *Engine) deleteWorkflow(data map[string]any) (map[string]any, error) {
	var req protocol.IDRequest
	if err := protocol.Decode(data, &req); err != nil {
		return nil, err
	}
	if _, err := e.workflow(req.ID); err != nil {
		return nil, err
	}
	delete(e.workflows, req.ID)
	e.workflowOrder = slices.DeleteFunc(e.workflowOrder, func(id string) bool { return id == req.ID })
	return map[string]any{"id": req.ID}, nil
}

// findNode looks a node up across all workflows.
func (e *Engine) findNode(id string) (*workflow, *protocol.NodeRecord, bool) {
	for _, wf := range e.workflows {
		if n, ok := wf.nodes[id]; ok {
			return wf, n, true
		}
	}
	return nil, nil, false
}

func (e *Engine) saveNode(data map[string]any) (map[string]any, error) {
	var req protocol.NodeSaveRequest
	if err := protocol.Decode(data, &req); err != nil {
		return nil, err
	}
	if req.WorkflowID == "" {
		return nil, errors.New("workflow_id is required to save a node")
	}
	wf, err := e.workflow(req.WorkflowID)
	if err != nil {
		return nil, err
	}
	_, hasInterface := data["interface"]
	_, hasStatic := data["static_input"]

	if req.ID != "" {
		n, ok := wf.nodes[req.ID]
		if !ok {
			return nil, fmt.Errorf("node %s not found", req.ID)
		}
		if req.Name != "" {
			n.Name = req.Name
		}
		if req.NodeType != "" {
			n.NodeType = req.NodeType
		}
		if req.NodeSubtype != "" {
			n.NodeSubtype = req.NodeSubtype
		}
		if hasInterface || req.NodeSubtype != "" {
			n.Interface = interfaceFor(n.NodeSubtype, req.Interface)
		}
		if req.Handler != nil {
			n.Handler = *req.Handler
		}
		if req.Code != nil {
			n.Code = *req.Code
		}
		if hasStatic {
			n.StaticInput = maps.Clone(req.StaticInput)
		}
		return map[string]any{"id": n.ID}, nil
	}

	if req.NodeSubtype == "" {
		return nil, errors.New("node_subtype is required when creating a new node")
	}
	n := &protocol.NodeRecord{
		ID:          "n" + e.newID(),
		Name:        req.Name,
		NodeType:    req.NodeType,
		NodeSubtype: req.NodeSubtype,
		On:          true,
		Interface:   interfaceFor(req.NodeSubtype, req.Interface),
		StaticInput: maps.Clone(req.StaticInput),
		WorkflowID:  wf.id,
	}
	if n.Name == "" {
		n.Name = "Unnamed Node"
	}
	if n.NodeType == "" {
		n.NodeType = "custom"
	}
	if req.Handler != nil {
		n.Handler = *req.Handler
	}
	if req.Code != nil {
		n.Code = *req.Code
	}
	if n.StaticInput == nil {
		n.StaticInput = map[string]any{}
	}
	wf.nodes[n.ID] = n
	return map[string]any{"id": n.ID}, nil
}

func (e *Engine) deleteNode(data map[string]any) (map[string]any, error) {
	var req protocol.NodeRequest
	if err := protocol.Decode(data, &req); err != nil {
		return nil, err
	}
	if req.WorkflowID == "" || req.ID == "" {
		return nil, errors.New("workflow_id and id are required to delete a node")
	}
	wf, ok := e.workflows[req.WorkflowID]
	if ok {
		_, ok = wf.nodes[req.ID]
	}
	if !ok {
		return nil, fmt.Errorf("failed to delete node %s: it might not exist", req.ID)
	}
	delete(wf.nodes, req.ID)
	wf.links = slices.DeleteFunc(wf.links, func(l protocol.LinkRef) bool {
		return l.Source == req.ID || l.Target == req.ID
	})
	return map[string]any{"id": req.ID}, nil
}

func (e *Engine) getNode(data map[string]any) (map[string]any, error) {
	var req protocol.NodeRequest
	if err := protocol.Decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, errors.New("node id missing")
	}
	_, n, ok := e.findNode(req.ID)
	if !ok {
		return nil, fmt.Errorf("node %s not found", req.ID)
	}
	return protocol.ToMap(n)
}

func (e *Engine) dynamicOptions(data map[string]any) (map[string]any, error) {
	var req protocol.DynamicOptionsRequest
	if err := protocol.Decode(data, &req); err != nil {
		return nil, err
	}
	out := map[string]any{"options_source": req.OptionsSource}
	fail := func(err error) (map[string]any, error) { return out, err }

	if req.WorkflowID == "" || req.NodeID == "" || req.OptionsSource == "" {
		return fail(errors.New("missing required parameters"))
	}
	wf, ok := e.workflows[req.WorkflowID]
	if !ok {
		return fail(errors.New("workflow not found"))
	}
	if _, ok := wf.nodes[req.NodeID]; !ok {
		return fail(errors.New("node not found in workflow"))
	}
	provider, ok := e.providers[req.OptionsSource]
	if !ok {
		return fail(fmt.Errorf("no provider found for options source: %s", req.OptionsSource))
	}
	opts, err := provider(req.WorkflowID, req.NodeID)
	if err != nil {
		return fail(fmt.Errorf("generating options: %w", err))
	}
	list := make([]any, 0, len(opts))
	for _, o := range opts {
		list = append(list, map[string]any{"value": o.Value, "text": o.Label()})
	}
	out["options"] = list
	return out, nil
}

func (e *Engine) nodeSubtypes(data map[string]any) (map[string]any, error) {
	var req protocol.NodeSubtypesRequest
	if err := protocol.Decode(data, &req); err != nil {
		return nil, err
	}
	subs, err := subtypesOf(req.NodeType)
	if err != nil {
		return nil, err
	}
	return map[string]any{"node_subtypes": append([]string(nil), subs...)}, nil
}

func (e *Engine) linkRequest(data map[string]any) (*workflow, protocol.LinkRequest, error) {
	var req protocol.LinkRequest
	if err := protocol.Decode(data, &req); err != nil {
		return nil, req, err
	}
	if req.WorkflowID == "" || req.Source == "" || req.Target == "" {
		return nil, req, errors.New("missing workflow_id, source, or target")
	}
	wf, err := e.workflow(req.WorkflowID)
	return wf, req, err
}

func sameLink(l protocol.LinkRef, a, b string) bool {
	return (l.Source == a && l.Target == b) || (l.Source == b && l.Target == a)
}

func (e *Engine) createLink(data map[string]any) (map[string]any, error) {
	wf, req, err := e.linkRequest(data)
	if err != nil {
		return nil, err
	}
	_, srcOK := wf.nodes[req.Source]
	_, dstOK := wf.nodes[req.Target]
	if !srcOK || !dstOK || req.Source == req.Target {
		return nil, errors.New("failed to create link: check if nodes exist or link already exists")
	}
	for _, l := range wf.links {
		if sameLink(l, req.Source, req.Target) {
			return nil, errors.New("failed to create link: check if nodes exist or link already exists")
		}
	}
	wf.links = append(wf.links, protocol.LinkRef{Source: req.Source, Target: req.Target})
	return nil, nil
}

func (e *Engine) deleteLink(data map[string]any) (map[string]any, error) {
	wf, req, err := e.linkRequest(data)
	if err != nil {
		return nil, err
	}
	before := len(wf.links)
	wf.links = slices.DeleteFunc(wf.links, func(l protocol.LinkRef) bool {
		return sameLink(l, req.Source, req.Target)
	})
	if len(wf.links) == before {
		return nil, errors.New("failed to delete link: check if link exists")
	}
	return nil, nil
}
