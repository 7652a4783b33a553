package canvas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/warp/internal/logging"
	"github.com/aretw0/warp/pkg/graph"
)

var (
	// ErrNoMenu is returned by Select when no context menu is open.
	ErrNoMenu = errors.New("no context menu open")

	// ErrUnavailable is returned by Select for an action the open menu does not offer.
	ErrUnavailable = errors.New("action not available")
)

// Default sizes for cells created from the canvas menu.
var (
	DefaultNodeSize   = graph.Size{Width: 180, Height: 40}
	DefaultWindowSize = graph.Size{Width: 320, Height: 220}
	DefaultNoteSize   = graph.Size{Width: 160, Height: 80}
)

// Input carries the user-supplied values some actions need.
type Input struct {
	Name        string
	NodeType    string
	NodeSubtype string
	Code        string
	Handler     string
	// Text is the window label or note text.
	Text string
}

// Commands performs the actions that involve the engine.
type Commands interface {
	PlaceNode(ctx context.Context, at graph.Point, in Input) (*graph.Cell, error)
	SaveWorkflow(ctx context.Context) error
	ToggleInterface(ctx context.Context, cellID string) error
	EditNode(ctx context.Context, cellID string, in Input) error
	DeleteNode(ctx context.Context, cellID string) error
	CreateLink(ctx context.Context, source, target string) error
	DeleteLink(ctx context.Context, cellID string) error
}

// Controller owns the interaction state of one canvas.
type Controller struct {
	graph  *graph.Graph
	cmds   Commands
	state  InteractionState
	logger *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// NewController creates a controller over g.
func NewController(g *graph.Graph, cmds Commands, opts ...Option) *Controller {
	c := &Controller{
		graph:  g,
		cmds:   cmds,
		state:  NewState(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the interaction state.
func (c *Controller) State() InteractionState { return c.state }

// Graph returns the graph being edited.
func (c *Controller) Graph() *graph.Graph { return c.graph }

// SetGraph switches to another graph, abandoning any gesture in progress.
func (c *Controller) SetGraph(g *graph.Graph) {
	c.graph = g
	c.state = reset(c.state)
}

// PointerDown handles a primary-button press. The error is the result of a
// link request committed by this click.
func (c *Controller) PointerDown(ctx context.Context, screen graph.Point) (Effect, error) {
	var eff Effect
	c.state, eff = PointerDown(c.state, c.graph, screen)
	switch {
	case eff.Link != nil:
		if err := c.cmds.CreateLink(ctx, eff.Link.Source, eff.Link.Target); err != nil {
			return eff, fmt.Errorf("create link: %w", err)
		}
	case eff.Rejected != nil:
		c.logger.Debug("link click rejected", "error", eff.Rejected)
	}
	return eff, nil
}

// PointerMove handles pointer motion.
func (c *Controller) PointerMove(screen graph.Point) Effect {
	var eff Effect
	c.state, eff = PointerMove(c.state, screen)
	c.apply(eff)
	return eff
}

// PointerUp handles a button release.
func (c *Controller) PointerUp() Effect {
	var eff Effect
	c.state, eff = PointerUp(c.state)
	return eff
}

// Wheel zooms around the cursor.
func (c *Controller) Wheel(screen graph.Point, deltaY float64) {
	c.state, _ = Wheel(c.state, screen, deltaY)
}

// ContextMenu opens the menu for the entity under the cursor.
func (c *Controller) ContextMenu(screen graph.Point) *Menu {
	var eff Effect
	c.state, eff = ContextMenu(c.state, c.graph, screen)
	return eff.Menu
}

// Select runs an item of the open menu and closes it.
func (c *Controller) Select(ctx context.Context, action Action, in Input) error {
	m := c.state.Menu
	if m == nil {
		return ErrNoMenu
	}
	if !m.Has(action) {
		return fmt.Errorf("%s on %s: %w", action, m.Category, ErrUnavailable)
	}
	c.state.Menu = nil

	switch action {
	case ActionAddNode:
		_, err := c.cmds.PlaceNode(ctx, m.At, in)
		return err
	case ActionAddWindow:
		label := in.Text
		if label == "" {
			label = "Window"
		}
		c.graph.AddWindow(m.At, DefaultWindowSize, label)
	case ActionAddNote:
		c.graph.AddNote(m.At, DefaultNoteSize, in.Text)
	case ActionSaveWorkflow:
		return c.cmds.SaveWorkflow(ctx)
	case ActionToggleInterface:
		return c.cmds.ToggleInterface(ctx, m.Target)
	case ActionEditNode:
		return c.cmds.EditNode(ctx, m.Target, in)
	case ActionCreateLink:
		c.state = StartLinking(c.state)
	case ActionDeleteNode:
		return c.cmds.DeleteNode(ctx, m.Target)
	case ActionDeleteLink:
		return c.cmds.DeleteLink(ctx, m.Target)
	case ActionRenameWindow:
		if cell, ok := c.graph.Cell(m.Target); ok && cell.Window != nil {
			cell.Window.Label = in.Text
		}
	case ActionEditNote:
		if cell, ok := c.graph.Cell(m.Target); ok && cell.Note != nil {
			cell.Note.Text = in.Text
		}
	case ActionDeleteWindow, ActionDeleteNote:
		return c.graph.Remove(m.Target)
	}
	return nil
}

func (c *Controller) apply(eff Effect) {
	for _, p := range eff.Placements {
		if err := c.graph.Move(p.ID, p.Position); err != nil {
			c.logger.Debug("dropping move", "cell", p.ID, "error", err)
		}
	}
	if eff.Resize != nil {
		if err := c.graph.Resize(eff.Resize.ID, eff.Resize.Size); err != nil {
			c.logger.Debug("dropping resize", "cell", eff.Resize.ID, "error", err)
		}
	}
}
