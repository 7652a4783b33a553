package canvas

import (
	"errors"
	"math"

	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/protocol"
)

// Mode is the exclusive interaction mode.
type Mode int

const (
	Idle Mode = iota
	Panning
	Dragging
	Resizing
	Linking
)

func (m Mode) String() string {
	switch m {
	case Panning:
		return "panning"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	case Linking:
		return "linking"
	default:
		return "idle"
	}
}

const (
	// ResizeHandle is the screen size of the bottom-right resize hot zone.
	ResizeHandle = 10.0
	// MinSize bounds both axes while resizing.
	MinSize = 50.0
)

// ErrNotPersisted is reported when linking a node that has no server id.
var ErrNotPersisted = errors.New("node has not been saved")

// Member is a node captured by a window drag with its offset from the window origin.
type Member struct {
	ID     string
	Offset graph.Point
}

// InteractionState is everything the controller remembers between pointer events.
type InteractionState struct {
	Mode     Mode
	Viewport Viewport

	// Start is the screen point of the pointer-down that began the gesture.
	Start graph.Point

	StartTranslate graph.Point
	Target         string
	StartPos       graph.Point
	StartSize      graph.Size
	Members        []Member

	// LinkSource is the custom id of the armed link source.
	LinkSource string

	Menu *Menu
}

// NewState returns an idle state with the identity viewport.
func NewState() InteractionState {
	return InteractionState{Viewport: DefaultViewport()}
}

// Placement moves a cell to an absolute model position.
type Placement struct {
	ID       string
	Position graph.Point
}

// Resize sets a cell's size.
type Resize struct {
	ID   string
	Size graph.Size
}

// Effect describes what a transition asks the controller to do.
type Effect struct {
	Placements []Placement
	Resize     *Resize

	// Link is a link to request from the engine.
	Link *protocol.LinkRef

	// Armed is the custom id of a newly armed link source.
	Armed string

	// Rejected explains why a linking click was refused.
	Rejected error

	// Cancelled is set when linking was abandoned.
	Cancelled bool

	// Menu is set when a context menu opened.
	Menu *Menu

	// Dismissed is set when a pointer-down only closed the open menu.
	Dismissed bool
}

// StartLinking enters Linking with no armed source.
func StartLinking(s InteractionState) InteractionState {
	s = reset(s)
	s.Mode = Linking
	return s
}

// PointerDown classifies a primary-button press at a screen point.
func PointerDown(s InteractionState, g *graph.Graph, screen graph.Point) (InteractionState, Effect) {
	if s.Menu != nil {
		s.Menu = nil
		return s, Effect{Dismissed: true}
	}
	p := s.Viewport.ToModel(screen)
	hit := g.HitTest(p)

	if s.Mode == Linking {
		return linkClick(s, g, hit)
	}
	s = reset(s)
	s.Start = screen

	switch {
	case hit == nil:
		s.Mode = Panning
		s.StartTranslate = s.Viewport.Translate
	case hit.Resizable() && inResizeHandle(hit.Bounds(), p, s.Viewport.Scale):
		s.Mode = Resizing
		s.Target = hit.ID
		s.StartSize = hit.Size
	case hit.Draggable():
		s.Mode = Dragging
		s.Target = hit.ID
		s.StartPos = hit.Position
		if hit.Kind == graph.KindWindow {
			members, _ := g.ContainedNodes(hit.ID)
			for _, m := range members {
				s.Members = append(s.Members, Member{ID: m.ID, Offset: m.Position.Sub(hit.Position)})
			}
		}
	}
	return s, Effect{}
}

func linkClick(s InteractionState, g *graph.Graph, hit *graph.Cell) (InteractionState, Effect) {
	if hit == nil {
		return reset(s), Effect{Cancelled: true}
	}
	if hit.Kind != graph.KindNode {
		return s, Effect{}
	}
	if !hit.Node.Persisted() {
		return s, Effect{Rejected: ErrNotPersisted}
	}
	id := hit.Node.CustomID
	if s.LinkSource == "" {
		s.LinkSource = id
		return s, Effect{Armed: id}
	}
	if s.LinkSource == id {
		return s, Effect{Rejected: graph.ErrSelfLink}
	}
	src := s.LinkSource
	s = reset(s)
	if g.HasLink(src, id) {
		return s, Effect{Rejected: graph.ErrLinkExists}
	}
	return s, Effect{Link: &protocol.LinkRef{Source: src, Target: id}}
}

// PointerMove updates an active gesture.
func PointerMove(s InteractionState, screen graph.Point) (InteractionState, Effect) {
	screenDelta := screen.Sub(s.Start)
	delta := screenDelta.Scale(1 / s.Viewport.Scale)

	switch s.Mode {
	case Panning:
		s.Viewport.Translate = s.StartTranslate.Add(screenDelta)
		return s, Effect{}
	case Dragging:
		pos := s.StartPos.Add(delta)
		places := []Placement{{ID: s.Target, Position: pos}}
		for _, m := range s.Members {
			places = append(places, Placement{ID: m.ID, Position: pos.Add(m.Offset)})
		}
		return s, Effect{Placements: places}
	case Resizing:
		size := graph.Size{
			Width:  math.Max(MinSize, s.StartSize.Width+delta.X),
			Height: math.Max(MinSize, s.StartSize.Height+delta.Y),
		}
		return s, Effect{Resize: &Resize{ID: s.Target, Size: size}}
	default:
		return s, Effect{}
	}
}

// PointerUp ends panning, dragging and resizing. Linking survives it.
func PointerUp(s InteractionState) (InteractionState, Effect) {
	switch s.Mode {
	case Panning, Dragging, Resizing:
		return reset(s), Effect{}
	default:
		return s, Effect{}
	}
}

// Wheel zooms around the cursor by one tick per call. Negative deltaY zooms in.
func Wheel(s InteractionState, screen graph.Point, deltaY float64) (InteractionState, Effect) {
	if deltaY == 0 {
		return s, Effect{}
	}
	factor := ZoomIn
	if deltaY > 0 {
		factor = ZoomOut
	}
	s.Viewport = s.Viewport.ZoomAt(screen, factor)
	return s, Effect{}
}

// ContextMenu opens the menu for whatever lies under the screen point.
// It is ignored in the middle of a pan, drag or resize.
func ContextMenu(s InteractionState, g *graph.Graph, screen graph.Point) (InteractionState, Effect) {
	if s.Mode != Idle && s.Mode != Linking {
		return s, Effect{}
	}
	p := s.Viewport.ToModel(screen)
	hit := g.HitTest(p)
	m := &Menu{Category: CategoryOf(hit), At: p, Items: MenuItems(hit)}
	if hit != nil {
		m.Target = hit.ID
	}
	s.Menu = m
	return s, Effect{Menu: m}
}

// reset returns to Idle keeping only the viewport.
func reset(s InteractionState) InteractionState {
	return InteractionState{Viewport: s.Viewport}
}

func inResizeHandle(r graph.Rect, p graph.Point, scale float64) bool {
	zone := ResizeHandle / scale
	max := r.Max()
	return r.Contains(p) && p.X >= max.X-zone && p.Y >= max.Y-zone
}
