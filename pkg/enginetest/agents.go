package enginetest

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/warp/pkg/protocol"
)

// DefaultAgentVersion is assigned to agents created without a version.
const DefaultAgentVersion = "1.0.0"

func (e *Engine) listAgents() (map[string]any, error) {
	list := make([]any, 0, len(e.agentOrder))
	for _, id := range e.agentOrder {
		a := e.agents[id]
		list = append(list, map[string]any{"id": a.ID, "name": a.Name})
	}
	return map[string]any{"agents": list}, nil
}

func (e *Engine) agent(id string) (*protocol.AgentDetail, error) {
	if id == "" {
		return nil, errors.New("agent id is required")
	}
	a, ok := e.agents[id]
	if !ok {
		return nil, fmt.Errorf("agent with id %s not found", id)
	}
	return a, nil
}

func (e *Engine) decodeAgentID(data map[string]any) (*protocol.AgentDetail, error) {
	var req protocol.IDRequest
	if err := protocol.Decode(data, &req); err != nil {
		return nil, err
	}
	return e.agent(req.ID)
}

func (e *Engine) getAgent(data map[string]any) (map[string]any, error) {
	a, err := e.decodeAgentID(data)
	if err != nil {
		return nil, err
	}
	return protocol.ToMap(a)
}

func (e *Engine) saveAgent(data map[string]any) (map[string]any, error) {
	var req protocol.AgentSaveRequest
	if err := protocol.Decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		if req.Name == "" {
			return nil, errors.New("validation error: name: field required")
		}
		version := req.Version
		if version == "" {
			version = DefaultAgentVersion
		}
		a := &protocol.AgentDetail{
			ID:           "a" + e.newID(),
			Name:         req.Name,
			Version:      version,
			VersionsList: []string{version},
			WorkflowID:   req.WorkflowID,
			Description:  req.Description,
			Vars:         maps.Clone(req.Vars),
		}
		if a.Vars == nil {
			a.Vars = map[string]any{}
		}
		e.agents[a.ID] = a
		e.agentOrder = append(e.agentOrder, a.ID)
		return map[string]any{"id": a.ID}, nil
	}

	a, err := e.agent(req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update agent %s: %w", req.ID, err)
	}
	if req.Name != "" {
		a.Name = req.Name
	}
	if req.Version != "" && req.Version != a.Version {
		a.Version = req.Version
		if !slices.Contains(a.VersionsList, req.Version) {
			a.VersionsList = append(a.VersionsList, req.Version)
		}
	}
	if _, ok := data["workflow_id"]; ok {
		a.WorkflowID = req.WorkflowID
	}
	if _, ok := data["description"]; ok {
		a.Description = req.Description
	}
	if req.Vars != nil {
		a.Vars = maps.Clone(req.Vars)
	}
	return map[string]any{"id": a.ID}, nil
}

func (e *Engine) deleteAgent(data map[string]any) (map[string]any, error) {
	a, err := e.decodeAgentID(data)
	if err != nil {
		return nil, err
	}
	if a.IsStarted {
		return map[string]any{"id": a.ID}, fmt.Errorf("failed to delete agent %s: it is running", a.ID)
	}
	delete(e.agents, a.ID)
	e.agentOrder = slices.DeleteFunc(e.agentOrder, func(id string) bool { return id == a.ID })
	return map[string]any{"id": a.ID}, nil
}

func (e *Engine) setStarted(data map[string]any, started bool) (map[string]any, error) {
	a, err := e.decodeAgentID(data)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"id": a.ID}
	switch {
	case started && a.IsStarted:
		return out, errors.New("agent is already started")
	case !started && !a.IsStarted:
		return out, errors.New("agent is not started")
	}
	a.IsStarted = started
	return out, nil
}

// defaultVarValue returns the initial value of a new variable.
func defaultVarValue(varType string) any {
	switch varType {
	case "text":
		return ""
	case "array":
		return []any{}
	default:
		return nil
	}
}

func (e *Engine) newVar(data map[string]any) (map[string]any, error) {
	var req protocol.AgentNewVarRequest
	if err := protocol.Decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" || req.VarName == "" || req.VarType == "" {
		return nil, errors.New("missing required fields (id, var_name, var_type)")
	}
	a, err := e.agent(req.ID)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"id": a.ID}
	if _, taken := a.Vars[req.VarName]; taken {
		return out, fmt.Errorf("variable name %q is already taken", req.VarName)
	}
	a.Vars[req.VarName] = defaultVarValue(req.VarType)
	out["var_name"] = req.VarName
	return out, nil
}

// importVars replaces the variable map wholesale.
func (e *Engine) importVars(data map[string]any) (map[string]any, error) {
	var req protocol.AgentImportVarsRequest
	if err := protocol.Decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" || req.Variables == nil {
		return nil, errors.New("missing required fields (id, variables)")
	}
	a, err := e.agent(req.ID)
	if err != nil {
		return nil, err
	}
	a.Vars = maps.Clone(req.Variables)
	return map[string]any{"id": a.ID}, nil
}

func (e *Engine) deleteVar(data map[string]any) (map[string]any, error) {
	var req protocol.AgentDeleteVarRequest
	if err := protocol.Decode(data, &req); err != nil {
		return nil, err
	}
	if req.ID == "" || req.VarName == "" {
		return nil, errors.New("missing required fields (id, var_name)")
	}
	a, err := e.agent(req.ID)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"id": a.ID}
	if _, ok := a.Vars[req.VarName]; !ok {
		return out, fmt.Errorf("variable %q not found", req.VarName)
	}
	delete(a.Vars, req.VarName)
	out["var_name"] = req.VarName
	return out, nil
}

// Agent returns a copy of an agent's state.
func (e *Engine) Agent(id string) (protocol.AgentDetail, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.agents[id]
	if !ok {
		return protocol.AgentDetail{}, false
	}
	cp := *a
	cp.Vars = maps.Clone(a.Vars)
	cp.VersionsList = slices.Clone(a.VersionsList)
	return cp, true
}
