package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/warp/internal/presentation/diagram"
	"github.com/aretw0/warp/internal/presentation/tui"
	"github.com/aretw0/warp/pkg/channel"
	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/ports"
	"github.com/aretw0/warp/pkg/protocol"
	"github.com/aretw0/warp/pkg/schema"
)

// ErrCancelled is returned when a confirmation prompt is declined.
var ErrCancelled = errors.New("cancelled")

// ListWorkflows prints the engine's workflows.
func ListWorkflows(ctx context.Context, s *Session, p Printer) error {
	list, err := s.Workspace.ListWorkflows(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(list))
	for _, wf := range list {
		rows = append(rows, []string{wf.ID, wf.Name})
	}
	tui.Table(p.W, []string{"ID", "NAME"}, rows)
	return nil
}

// ShowWorkflow opens a workflow and prints it in the given format.
func ShowWorkflow(ctx context.Context, s *Session, p Printer, id, format string) error {
	if err := s.Workspace.OpenWorkflow(ctx, id); err != nil {
		return err
	}
	g := s.Workspace.Graph()
	switch format {
	case FormatSummary, "":
		printSummary(p, s.Workspace.Name(), g)
		return nil
	case FormatMermaid:
		fmt.Fprintln(p.W, diagram.GenerateMermaid(g, nil))
		return nil
	default:
		m, err := g.Serialize().Map()
		if err != nil {
			return err
		}
		return p.encode(m, format)
	}
}

func printSummary(p Printer, name string, g *graph.Graph) {
	nodes := g.OfKind(graph.KindNode)
	fmt.Fprintf(p.W, "%s\n", name)
	fmt.Fprintf(p.W, "%s\n\n", tui.Subtle.Sprintf("%d nodes, %d links, %d windows, %d notes",
		len(nodes), len(g.OfKind(graph.KindLink)), len(g.OfKind(graph.KindWindow)), len(g.OfKind(graph.KindNote))))

	rows := make([][]string, 0, len(nodes))
	for _, c := range nodes {
		n := c.Node
		rows = append(rows, []string{tui.StatusIcon(n.Persisted()), n.CustomID, n.Name, n.NodeType, n.NodeSubtype})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i][2] < rows[j][2] })
	tui.Table(p.W, []string{"", "ID", "NAME", "TYPE", "SUBTYPE"}, rows)

	for _, c := range g.OfKind(graph.KindNote) {
		if strings.TrimSpace(c.Note.Text) == "" {
			continue
		}
		fmt.Fprintln(p.W)
		fmt.Fprint(p.W, p.markdown(c.Note.Text))
	}
}

// ExportWorkflow writes the layout of a workflow as YAML.
func ExportWorkflow(ctx context.Context, s *Session, p Printer, id string) error {
	if err := s.Workspace.OpenWorkflow(ctx, id); err != nil {
		return err
	}
	data, err := s.Workspace.Graph().Serialize().YAML()
	if err != nil {
		return err
	}
	_, err = p.W.Write(data)
	return err
}

// ImportWorkflow validates a YAML or JSON layout and stores it under id.
// An empty id creates a new workflow called name. The imported workflow is
// left open and its id returned.
func ImportWorkflow(ctx context.Context, s *Session, id, name string, data []byte) (string, error) {
	snap, err := graph.SnapshotFromYAML(data)
	if err != nil {
		return "", err
	}
	if err := schema.Default().ValidateSnapshot(snap); err != nil {
		return "", err
	}
	if _, err := graph.Deserialize(snap); err != nil {
		return "", err
	}
	m, err := snap.Map()
	if err != nil {
		return "", err
	}

	if id == "" {
		if id, err = s.Workspace.CreateWorkflow(ctx, name); err != nil {
			return "", err
		}
	}
	req := protocol.WorkflowSaveRequest{ID: id, Graph: m}
	if name != "" {
		req.Name = name
	}
	timeout, err := s.Config.Timeout()
	if err != nil {
		return "", err
	}
	var opts []channel.RequestOption
	if timeout > 0 {
		opts = append(opts, channel.WithTimeout(timeout))
	}
	if err := s.Channel.Call(ctx, protocol.EventWorkflowSaveRequest, req, nil, opts...); err != nil {
		return "", fmt.Errorf("import %s: %w", id, err)
	}
	return id, s.Workspace.OpenWorkflow(ctx, id)
}

// DeleteWorkflow deletes a workflow after confirmation.
func DeleteWorkflow(ctx context.Context, s *Session, c ports.Confirmer, id string) error {
	if !c.Confirm(fmt.Sprintf("Delete workflow %s?", id)) {
		return ErrCancelled
	}
	return s.Workspace.DeleteWorkflow(ctx, id)
}

// ListDrafts prints the workflows with unsaved layouts.
func ListDrafts(ctx context.Context, s *Session, p Printer) error {
	ids, err := s.Workspace.Drafts().List(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		d, err := s.Workspace.Drafts().Load(ctx, id)
		if err != nil {
			if errors.Is(err, ports.ErrDraftNotFound) {
				continue
			}
			return err
		}
		rows = append(rows, []string{d.WorkflowID, d.Name, d.SavedAt.Format("2006-01-02 15:04:05")})
	}
	tui.Table(p.W, []string{"WORKFLOW", "NAME", "SAVED"}, rows)
	return nil
}

// RestoreDraft reopens a workflow, replaces its layout with the kept draft
// and saves it again.
func RestoreDraft(ctx context.Context, s *Session, id string) error {
	if err := s.Workspace.OpenWorkflow(ctx, id); err != nil {
		return err
	}
	if err := s.Workspace.RestoreDraft(ctx); err != nil {
		return err
	}
	return s.Workspace.SaveWorkflow(ctx)
}
