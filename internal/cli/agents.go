package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/warp/internal/presentation/tui"
	"github.com/aretw0/warp/pkg/agent"
	"gopkg.in/yaml.v3"
)

// ListAgents prints the engine's agents.
func ListAgents(ctx context.Context, s *Session, p Printer) error {
	list, err := s.Agents.List(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{a.ID, a.Name})
	}
	tui.Table(p.W, []string{"ID", "NAME"}, rows)
	return nil
}

// ShowAgent prints one agent in the given format.
func ShowAgent(ctx context.Context, s *Session, p Printer, id, format string) error {
	a, err := s.Agents.Select(ctx, id)
	if err != nil {
		return err
	}
	if format != FormatSummary {
		return p.encode(a, format)
	}
	state := tui.Bad.Sprint("stopped")
	if a.IsStarted {
		state = tui.Good.Sprint("running")
	}
	fmt.Fprintf(p.W, "%s %s\n", a.Name, tui.Subtle.Sprint(a.Version))
	if a.Description != "" {
		fmt.Fprintln(p.W, a.Description)
	}
	fmt.Fprintf(p.W, "workflow: %s\nstate:    %s\nvars:     %d\n", a.WorkflowID, state, len(a.Vars))
	return nil
}

// CreateAgent creates an agent bound to a workflow and prints its id.
func CreateAgent(ctx context.Context, s *Session, p Printer, name, workflowID string) error {
	a, err := s.Agents.Create(ctx, name, workflowID)
	if err != nil {
		return err
	}
	fmt.Fprintln(p.W, a.ID)
	return nil
}

// DeleteAgent deletes an agent. The editor's confirmer gates the request.
func DeleteAgent(ctx context.Context, s *Session, id string) error {
	return s.Agents.Delete(ctx, id)
}

// SetAgentStarted starts or stops an agent.
func SetAgentStarted(ctx context.Context, s *Session, id string, started bool) error {
	if _, err := s.Agents.Select(ctx, id); err != nil {
		return err
	}
	if started {
		return s.Agents.Start(ctx)
	}
	return s.Agents.Stop(ctx)
}

// ExportVars prints an agent's variables. A non-empty query is applied as
// a jq expression first.
func ExportVars(ctx context.Context, s *Session, p Printer, id, format, query string) error {
	if _, err := s.Agents.Select(ctx, id); err != nil {
		return err
	}
	vars, err := s.Agents.ExportVars()
	if err != nil {
		return err
	}
	if query == "" {
		return p.encode(vars, format)
	}
	out, err := Query(ctx, query, vars)
	if err != nil {
		return err
	}
	return p.encode(out, format)
}

// ImportVars merges variables read from a YAML or JSON document.
func ImportVars(ctx context.Context, s *Session, id string, data []byte) error {
	var vars map[string]any
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return fmt.Errorf("parse vars: %w", err)
	}
	if _, err := s.Agents.Select(ctx, id); err != nil {
		return err
	}
	return s.Agents.ImportVars(ctx, vars)
}

// SetVar sets one variable. The raw value is parsed as JSON when possible
// and kept as a string otherwise.
func SetVar(ctx context.Context, s *Session, id, name, raw string) error {
	if _, err := s.Agents.Select(ctx, id); err != nil {
		return err
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}
	return s.Agents.SetVar(ctx, name, value)
}

// AddVar declares a variable with the default value of its type.
func AddVar(ctx context.Context, s *Session, id, name, varType string) error {
	t, err := agent.ParseVarType(varType)
	if err != nil {
		return err
	}
	if _, err := s.Agents.Select(ctx, id); err != nil {
		return err
	}
	return s.Agents.AddVar(ctx, name, t)
}

// DeleteVar removes one variable.
func DeleteVar(ctx context.Context, s *Session, id, name string) error {
	if _, err := s.Agents.Select(ctx, id); err != nil {
		return err
	}
	return s.Agents.DeleteVar(ctx, name)
}

