package graph

import (
	"bytes"
	"fmt"

	"github.com/aretw0/warp/pkg/protocol"
	"gopkg.in/yaml.v3"
)

// SnapshotVersion is the layout format written by Serialize.
const SnapshotVersion = 1

// Snapshot is the persisted layout of a workflow.
type Snapshot struct {
	Version int          `json:"version" yaml:"version" mapstructure:"version"`
	Cells   []CellRecord `json:"cells" yaml:"cells" mapstructure:"cells"`
}

// CellRecord is one tagged entry of a Snapshot.
type CellRecord struct {
	Kind     Kind   `json:"kind" yaml:"kind" mapstructure:"kind"`
	ID       string `json:"id" yaml:"id" mapstructure:"id"`
	Position *Point `json:"position,omitempty" yaml:"position,omitempty" mapstructure:"position"`
	Size     *Size  `json:"size,omitempty" yaml:"size,omitempty" mapstructure:"size"`

	CustomID    string `json:"custom_id,omitempty" yaml:"custom_id,omitempty" mapstructure:"custom_id"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	NodeType    string `json:"node_type,omitempty" yaml:"node_type,omitempty" mapstructure:"node_type"`
	NodeSubtype string `json:"node_subtype,omitempty" yaml:"node_subtype,omitempty" mapstructure:"node_subtype"`

	Source string `json:"source,omitempty" yaml:"source,omitempty" mapstructure:"source"`
	Target string `json:"target,omitempty" yaml:"target,omitempty" mapstructure:"target"`

	Label string `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	Text  string `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text"`
}

// Serialize captures the layout. Open interface panels are written with their
// collapsed size since panel content is not part of the layout.
func (g *Graph) Serialize() Snapshot {
	snap := Snapshot{Version: SnapshotVersion, Cells: make([]CellRecord, 0, len(g.order))}
	for _, c := range g.Cells() {
		rec := CellRecord{Kind: c.Kind, ID: c.ID}
		if c.Kind != KindLink {
			pos, size := c.Position, c.Size
			rec.Position, rec.Size = &pos, &size
		}
		switch c.Kind {
		case KindNode:
			if c.Node.Visible {
				collapsed := c.Node.CollapsedSize
				rec.Size = &collapsed
			}
			rec.CustomID = c.Node.CustomID
			rec.Name = c.Node.Name
			rec.NodeType = c.Node.NodeType
			rec.NodeSubtype = c.Node.NodeSubtype
		case KindLink:
			rec.Source, rec.Target = c.Link.Source, c.Link.Target
		case KindWindow:
			rec.Label = c.Window.Label
		case KindNote:
			rec.Text = c.Note.Text
		}
		snap.Cells = append(snap.Cells, rec)
	}
	return snap
}

// Deserialize rebuilds a graph from a snapshot, keeping the cell order.
// Nodes come back with their panels closed, their records unloaded and their
// edit affordance derived from the category. Links whose ends are missing
// are dropped.
func Deserialize(snap Snapshot) (*Graph, error) {
	seen := make(map[string]bool, len(snap.Cells))
	customs := make(map[string]bool)
	for i, rec := range snap.Cells {
		if rec.ID == "" {
			return nil, fmt.Errorf("cell %d has no id: %w", i, ErrInvalidSnapshot)
		}
		if seen[rec.ID] {
			return nil, fmt.Errorf("duplicate cell id %q: %w", rec.ID, ErrInvalidSnapshot)
		}
		seen[rec.ID] = true
		switch rec.Kind {
		case KindNode:
			if rec.CustomID == "" {
				continue
			}
			if customs[rec.CustomID] {
				return nil, fmt.Errorf("duplicate custom id %q: %w", rec.CustomID, ErrInvalidSnapshot)
			}
			customs[rec.CustomID] = true
		case KindLink, KindWindow, KindNote:
		default:
			return nil, fmt.Errorf("cell %q has unknown kind %q: %w", rec.ID, rec.Kind, ErrInvalidSnapshot)
		}
	}

	g := New()
	for _, rec := range snap.Cells {
		var pos Point
		var size Size
		if rec.Position != nil {
			pos = *rec.Position
		}
		if rec.Size != nil {
			size = *rec.Size
		}
		switch rec.Kind {
		case KindNode:
			g.addNodeWithID(rec.ID, pos, size, NodeAttrs{
				CustomID:    rec.CustomID,
				Name:        rec.Name,
				NodeType:    rec.NodeType,
				NodeSubtype: rec.NodeSubtype,
			})
		case KindWindow:
			g.insert(&Cell{ID: rec.ID, Kind: KindWindow, Position: pos, Size: size, Window: &WindowAttrs{Label: rec.Label}})
		case KindNote:
			g.insert(&Cell{ID: rec.ID, Kind: KindNote, Position: pos, Size: size, Note: &NoteAttrs{Text: rec.Text}})
		case KindLink:
			if !customs[rec.Source] || !customs[rec.Target] || rec.Source == rec.Target || g.HasLink(rec.Source, rec.Target) {
				continue
			}
			g.insertLink(rec.ID, rec.Source, rec.Target)
		}
	}
	return g, nil
}

func (g *Graph) addNodeWithID(id string, pos Point, size Size, attrs NodeAttrs) {
	attrs.Editable = EditableCategory(attrs.NodeType)
	attrs.CollapsedSize = size
	g.insert(&Cell{ID: id, Kind: KindNode, Position: pos, Size: size, Node: &attrs})
	if attrs.CustomID != "" {
		g.byCustom[attrs.CustomID] = id
	}
}

func (g *Graph) insertLink(id, a, b string) *Cell {
	c := g.insert(&Cell{ID: id, Kind: KindLink, Link: &LinkAttrs{Source: a, Target: b}})
	g.links[keyOf(a, b)] = c.ID
	return c
}

// MergeLinks adds engine-reported links missing from the layout.
// It returns how many were added.
func (g *Graph) MergeLinks(refs []protocol.LinkRef) int {
	n := 0
	for _, ref := range refs {
		if _, err := g.AddLink(ref.Source, ref.Target); err == nil {
			n++
		}
	}
	return n
}

// Map returns the wire form of the snapshot.
func (s Snapshot) Map() (map[string]any, error) {
	return protocol.ToMap(s)
}

// SnapshotFromMap decodes the wire form. A nil or empty map yields an empty
// snapshot, which is what the engine stores for a brand new workflow.
func SnapshotFromMap(m map[string]any) (Snapshot, error) {
	var snap Snapshot
	if len(m) == 0 {
		return Snapshot{Version: SnapshotVersion, Cells: []CellRecord{}}, nil
	}
	if err := protocol.Decode(m, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if snap.Cells == nil {
		snap.Cells = []CellRecord{}
	}
	return snap, nil
}

// YAML encodes the snapshot for human editing.
func (s Snapshot) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SnapshotFromYAML parses a YAML layout.
func SnapshotFromYAML(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return snap, nil
}
