package graph

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// LinkTolerance is the hit distance, in world units, around a link segment.
const LinkTolerance = 5.0

// Graph is the scene graph of one workflow.
type Graph struct {
	cells    map[string]*Cell
	order    []string
	byCustom map[string]string // custom id -> cell id
	links    map[pairKey]string
	newID    func() string
}

type pairKey struct{ a, b string }

func keyOf(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		cells:    make(map[string]*Cell),
		byCustom: make(map[string]string),
		links:    make(map[pairKey]string),
		newID:    func() string { return uuid.NewString() },
	}
}

func (g *Graph) insert(c *Cell) *Cell {
	if c.ID == "" {
		c.ID = g.newID()
	}
	g.cells[c.ID] = c
	g.order = append(g.order, c.ID)
	return c
}

// AddNode places a node. A non-empty CustomID is indexed for link resolution.
func (g *Graph) AddNode(pos Point, size Size, attrs NodeAttrs) *Cell {
	attrs.Editable = EditableCategory(attrs.NodeType)
	if attrs.CollapsedSize == (Size{}) {
		attrs.CollapsedSize = size
	}
	c := g.insert(&Cell{Kind: KindNode, Position: pos, Size: size, Node: &attrs})
	if attrs.CustomID != "" {
		g.byCustom[attrs.CustomID] = c.ID
	}
	return c
}

// AddWindow places a container window.
func (g *Graph) AddWindow(pos Point, size Size, label string) *Cell {
	return g.insert(&Cell{Kind: KindWindow, Position: pos, Size: size, Window: &WindowAttrs{Label: label}})
}

// AddNote places a free text note.
func (g *Graph) AddNote(pos Point, size Size, text string) *Cell {
	return g.insert(&Cell{Kind: KindNote, Position: pos, Size: size, Note: &NoteAttrs{Text: text}})
}

// AddLink joins two persisted nodes by custom id.
// It returns ErrLinkExists when the pair is already linked in either direction.
func (g *Graph) AddLink(a, b string) (*Cell, error) {
	if a == b {
		return nil, ErrSelfLink
	}
	if _, ok := g.byCustom[a]; !ok {
		return nil, fmt.Errorf("link source %q: %w", a, ErrNotFound)
	}
	if _, ok := g.byCustom[b]; !ok {
		return nil, fmt.Errorf("link target %q: %w", b, ErrNotFound)
	}
	if g.HasLink(a, b) {
		return nil, ErrLinkExists
	}
	return g.insertLink("", a, b), nil
}

// HasLink reports whether a and b are linked, in either direction.
func (g *Graph) HasLink(a, b string) bool {
	_, ok := g.links[keyOf(a, b)]
	return ok
}

// RemoveLink deletes the link between a and b. It reports whether one existed.
func (g *Graph) RemoveLink(a, b string) bool {
	id, ok := g.links[keyOf(a, b)]
	if !ok {
		return false
	}
	g.drop(id)
	return true
}

// RemoveNode deletes a node cell and every link incident to it.
// The removed links are returned.
func (g *Graph) RemoveNode(id string) ([]LinkAttrs, error) {
	c, err := g.kindCell(id, KindNode)
	if err != nil {
		return nil, err
	}
	var removed []LinkAttrs
	if cid := c.Node.CustomID; cid != "" {
		for key, linkID := range g.links {
			if key.a != cid && key.b != cid {
				continue
			}
			removed = append(removed, *g.cells[linkID].Link)
			g.drop(linkID)
		}
		delete(g.byCustom, cid)
	}
	g.drop(id)
	return removed, nil
}

// Remove deletes a cell of any kind.
func (g *Graph) Remove(id string) error {
	c, ok := g.cells[id]
	if !ok {
		return fmt.Errorf("remove %q: %w", id, ErrNotFound)
	}
	switch c.Kind {
	case KindNode:
		_, err := g.RemoveNode(id)
		return err
	case KindLink:
		g.RemoveLink(c.Link.Source, c.Link.Target)
		return nil
	default:
		g.drop(id)
		return nil
	}
}

func (g *Graph) drop(id string) {
	c, ok := g.cells[id]
	if !ok {
		return
	}
	if c.Kind == KindLink {
		delete(g.links, keyOf(c.Link.Source, c.Link.Target))
	}
	delete(g.cells, id)
	g.order = slices.DeleteFunc(g.order, func(x string) bool { return x == id })
}

// SetCustomID records the server id of a node after its first save.
func (g *Graph) SetCustomID(id, customID string) error {
	c, err := g.kindCell(id, KindNode)
	if err != nil {
		return err
	}
	if c.Node.CustomID != "" && c.Node.CustomID != customID {
		return fmt.Errorf("node %s already persisted as %s", id, c.Node.CustomID)
	}
	c.Node.CustomID = customID
	g.byCustom[customID] = id
	return nil
}

// Cell returns the cell with the given id.
func (g *Graph) Cell(id string) (*Cell, bool) {
	c, ok := g.cells[id]
	return c, ok
}

// NodeByCustomID resolves a persisted node.
func (g *Graph) NodeByCustomID(customID string) (*Cell, bool) {
	id, ok := g.byCustom[customID]
	if !ok {
		return nil, false
	}
	return g.cells[id], true
}

func (g *Graph) kindCell(id string, kind Kind) (*Cell, error) {
	c, ok := g.cells[id]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	if c.Kind != kind {
		return nil, fmt.Errorf("%q is a %s: %w", id, c.Kind, ErrWrongKind)
	}
	return c, nil
}

// Cells returns every cell in insertion order.
func (g *Graph) Cells() []*Cell {
	out := make([]*Cell, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.cells[id])
	}
	return out
}

// OfKind returns the cells of one kind in insertion order.
func (g *Graph) OfKind(kind Kind) []*Cell {
	var out []*Cell
	for _, id := range g.order {
		if c := g.cells[id]; c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of cells.
func (g *Graph) Len() int { return len(g.order) }

// Move sets the position of a draggable cell.
func (g *Graph) Move(id string, pos Point) error {
	c, ok := g.cells[id]
	if !ok {
		return fmt.Errorf("move %q: %w", id, ErrNotFound)
	}
	if !c.Draggable() {
		return fmt.Errorf("move %s: %w", c.Kind, ErrWrongKind)
	}
	c.Position = pos
	return nil
}

// Resize sets the size of a node, window or note.
func (g *Graph) Resize(id string, size Size) error {
	c, ok := g.cells[id]
	if !ok {
		return fmt.Errorf("resize %q: %w", id, ErrNotFound)
	}
	if c.Kind == KindLink {
		return fmt.Errorf("resize link: %w", ErrWrongKind)
	}
	c.Size = size
	return nil
}

// LinkEnds returns the centers of the two nodes a link joins.
func (g *Graph) LinkEnds(c *Cell) (Point, Point, bool) {
	if c.Kind != KindLink {
		return Point{}, Point{}, false
	}
	src, ok1 := g.NodeByCustomID(c.Link.Source)
	dst, ok2 := g.NodeByCustomID(c.Link.Target)
	if !ok1 || !ok2 {
		return Point{}, Point{}, false
	}
	return src.Bounds().Center(), dst.Bounds().Center(), true
}

// HitTest returns the topmost cell under p, or nil for empty canvas.
// Nodes and notes are above links, and links are above windows.
func (g *Graph) HitTest(p Point) *Cell {
	for i := len(g.order) - 1; i >= 0; i-- {
		c := g.cells[g.order[i]]
		if (c.Kind == KindNode || c.Kind == KindNote) && c.Bounds().Contains(p) {
			return c
		}
	}
	for i := len(g.order) - 1; i >= 0; i-- {
		c := g.cells[g.order[i]]
		if c.Kind != KindLink {
			continue
		}
		if a, b, ok := g.LinkEnds(c); ok && segmentDistance(p, a, b) <= LinkTolerance {
			return c
		}
	}
	for i := len(g.order) - 1; i >= 0; i-- {
		c := g.cells[g.order[i]]
		if c.Kind == KindWindow && c.Bounds().Contains(p) {
			return c
		}
	}
	return nil
}

// ContainedNodes returns the nodes whose bounding box lies within the window's.
func (g *Graph) ContainedNodes(windowID string) ([]*Cell, error) {
	w, err := g.kindCell(windowID, KindWindow)
	if err != nil {
		return nil, err
	}
	box := w.Bounds()
	var out []*Cell
	for _, c := range g.OfKind(KindNode) {
		if box.Encloses(c.Bounds()) {
			out = append(out, c)
		}
	}
	return out, nil
}
