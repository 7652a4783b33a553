package graph

import "github.com/aretw0/warp/pkg/protocol"

// Kind tags the variant of a Cell.
type Kind string

const (
	KindNode   Kind = "node"
	KindLink   Kind = "link"
	KindWindow Kind = "window"
	KindNote   Kind = "note"
)

// Node categories known to the engine.
const (
	CategoryTrigger   = "trigger"
	CategoryResource  = "resource"
	CategoryAction    = "action"
	CategoryGenerator = "generator"
	CategoryCustom    = "custom"
)

// EditableCategory reports whether nodes of the category expose the edit affordance.
func EditableCategory(category string) bool {
	return category == CategoryCustom || category == CategoryTrigger
}

// Cell is one element of the scene. Exactly one of the attribute pointers is
// set, matching Kind. Links have no geometry of their own.
type Cell struct {
	ID       string
	Kind     Kind
	Position Point
	Size     Size

	Node   *NodeAttrs
	Link   *LinkAttrs
	Window *WindowAttrs
	Note   *NoteAttrs
}

// Bounds returns the cell's bounding box.
func (c *Cell) Bounds() Rect {
	return Rect{Min: c.Position, Size: c.Size}
}

// Draggable reports whether the cell can be moved by pointer drag.
func (c *Cell) Draggable() bool {
	return c.Kind == KindNode || c.Kind == KindWindow || c.Kind == KindNote
}

// Resizable reports whether the cell exposes a resize hot zone.
func (c *Cell) Resizable() bool {
	return c.Kind == KindWindow || c.Kind == KindNote
}

// NodeAttrs are the attributes of a workflow node.
type NodeAttrs struct {
	// CustomID is assigned by the engine on the first successful save and
	// never changes afterwards. Empty means the node was never persisted.
	CustomID    string
	Name        string
	NodeType    string
	NodeSubtype string
	Handler     string
	Code        string
	Interface   protocol.Schema
	StaticInput map[string]any

	// Loaded is set once the node record has been fetched from the engine.
	Loaded bool

	// Visible is true while the interface panel is open.
	Visible bool

	// CollapsedSize is the size before the panel was opened.
	CollapsedSize Size

	// Editable mirrors EditableCategory(NodeType).
	Editable bool
}

// Persisted reports whether the node has a server id.
func (n *NodeAttrs) Persisted() bool { return n.CustomID != "" }

// LinkAttrs joins two nodes by custom id.
type LinkAttrs struct {
	Source string
	Target string
}

// Touches reports whether the link is incident to the given custom id.
func (l *LinkAttrs) Touches(customID string) bool {
	return l.Source == customID || l.Target == customID
}

// WindowAttrs are the attributes of a container window.
type WindowAttrs struct {
	Label string
}

// NoteAttrs are the attributes of a free text note.
type NoteAttrs struct {
	Text string
}
