// Package diagram renders a workflow graph as a Mermaid flowchart.
package diagram

import (
	"fmt"
	"strings"

	"github.com/aretw0/warp/pkg/graph"
)

// Overlay marks cells to highlight.
type Overlay struct {
	// Selected is a cell id drawn with the current style.
	Selected string
}

// GenerateMermaid produces a Mermaid flowchart for g.
// Node shapes follow the category:
// - trigger: ((circle))
// - resource: [(cylinder)]
// - generator: [[subroutine]]
// - custom: {{hexagon}}
// - action and others: [rectangle]
// Windows become subgraphs holding the nodes they enclose. Nodes never saved
// to the engine get the unsaved class.
func GenerateMermaid(g *graph.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	ids := make(map[string]string)
	for _, c := range g.OfKind(graph.KindNode) {
		ids[c.ID] = sanitizeMermaidID("n_" + c.ID)
	}

	placed := make(map[string]bool)
	for _, w := range g.OfKind(graph.KindWindow) {
		members, err := g.ContainedNodes(w.ID)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "    subgraph %s[\"%s\"]\n", sanitizeMermaidID("w_"+w.ID), escape(w.Window.Label))
		for _, m := range members {
			if placed[m.ID] {
				continue
			}
			placed[m.ID] = true
			sb.WriteString("    " + nodeLine(ids[m.ID], m))
		}
		sb.WriteString("    end\n")
	}

	var unsaved []string
	for _, c := range g.OfKind(graph.KindNode) {
		if !c.Node.Persisted() {
			unsaved = append(unsaved, ids[c.ID])
		}
		if placed[c.ID] {
			continue
		}
		sb.WriteString(nodeLine(ids[c.ID], c))
	}

	for _, c := range g.OfKind(graph.KindNote) {
		fmt.Fprintf(&sb, "    %s>\"%s\"]\n", sanitizeMermaidID("t_"+c.ID), escape(firstLine(c.Note.Text)))
	}

	for _, c := range g.OfKind(graph.KindLink) {
		src, okS := g.NodeByCustomID(c.Link.Source)
		dst, okD := g.NodeByCustomID(c.Link.Target)
		if !okS || !okD {
			continue
		}
		fmt.Fprintf(&sb, "    %s --- %s\n", ids[src.ID], ids[dst.ID])
	}

	if len(unsaved) > 0 || (overlay != nil && overlay.Selected != "") {
		sb.WriteString("\n    %% Styles\n")
		sb.WriteString("    classDef unsaved stroke-dasharray: 5 5;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for _, id := range unsaved {
			fmt.Fprintf(&sb, "    class %s unsaved;\n", id)
		}
		if overlay != nil {
			if id, ok := ids[overlay.Selected]; ok {
				fmt.Fprintf(&sb, "    class %s current;\n", id)
			}
		}
	}
	return sb.String()
}

func nodeLine(id string, c *graph.Cell) string {
	opener, closer := "[", "]"
	switch c.Node.NodeType {
	case graph.CategoryTrigger:
		opener, closer = "((", "))"
	case graph.CategoryResource:
		opener, closer = "[(", ")]"
	case graph.CategoryGenerator:
		opener, closer = "[[", "]]"
	case graph.CategoryCustom:
		opener, closer = "{{", "}}"
	}
	label := escape(c.Node.Name)
	if c.Node.NodeSubtype != "" && c.Node.NodeSubtype != c.Node.Name {
		label += " <br/> " + escape(c.Node.NodeSubtype)
	}
	return fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, label, closer)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "…"
	}
	return s
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", ":", "_", " ", "_")
	return r.Replace(id)
}
