package nodeui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/warp/internal/logging"
	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/schema"
)

var (
	// ErrNotNode is returned when a panel is requested for a cell that is not a node.
	ErrNotNode = errors.New("cell is not a node")

	// ErrNoPanel is returned when no panel is open for a cell.
	ErrNoPanel = errors.New("no open panel")

	// ErrNoFetcher marks dynamic options that could not be requested.
	ErrNoFetcher = errors.New("no options fetcher configured")
)

// Renderer builds and tracks node interface panels.
type Renderer struct {
	fetcher   OptionsFetcher
	validator *schema.Validator
	measure   Measurer
	logger    *slog.Logger
	panels    map[string]*Panel
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the renderer's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = l
	}
}

// WithMeasurer replaces DefaultMeasurer.
func WithMeasurer(m Measurer) Option {
	return func(r *Renderer) {
		r.measure = m
	}
}

// WithValidator replaces schema.Default().
func WithValidator(v *schema.Validator) Option {
	return func(r *Renderer) {
		r.validator = v
	}
}

// NewRenderer creates a renderer. fetcher may be nil, in which case every
// dynamic select falls back to the error option.
func NewRenderer(fetcher OptionsFetcher, opts ...Option) *Renderer {
	r := &Renderer{
		fetcher: fetcher,
		measure: DefaultMeasurer,
		logger:  logging.NewNop(),
		panels:  make(map[string]*Panel),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.validator == nil {
		r.validator = schema.Default()
	}
	return r
}

// Panel returns the open panel for a cell.
func (r *Renderer) Panel(cellID string) (*Panel, bool) {
	p, ok := r.panels[cellID]
	return p, ok
}

// Open shows the interface of a node cell and grows it to fit. Opening an
// already open panel returns it unchanged.
func (r *Renderer) Open(ctx context.Context, workflowID string, cell *graph.Cell, save SaveFunc) (*Panel, error) {
	if cell == nil || cell.Kind != graph.KindNode || cell.Node == nil {
		return nil, ErrNotNode
	}
	if p, ok := r.panels[cell.ID]; ok {
		return p, nil
	}
	n := cell.Node

	valid, err := r.validator.ValidateInterface(n.Interface)
	p := &Panel{
		CellID: cell.ID,
		Schema: valid,
		Form:   Build(valid, n.StaticInput),
		save:   save,
		logger: r.logger,
	}
	if err != nil {
		p.Invalid = schema.ValidationErrors(err)
		r.logger.Warn("skipping invalid interface fields",
			"node_id", n.CustomID, "count", len(p.Invalid), "error", err)
	}
	p.start(ctx, r.fetcher, workflowID, n.CustomID)

	if !n.Visible {
		n.CollapsedSize = cell.Size
		n.Visible = true
	}
	cell.Size = graph.Size{
		Width:  n.CollapsedSize.Width,
		Height: r.measure(p.Form) + HeaderHeight + Padding,
	}
	r.panels[cell.ID] = p
	return p, nil
}

// Close hides a node's interface, cancels outstanding option fetches and
// restores the size the node had before opening. Closing a closed node does
// nothing.
func (r *Renderer) Close(cell *graph.Cell) {
	if cell == nil || cell.Node == nil {
		return
	}
	if p, ok := r.panels[cell.ID]; ok {
		p.stop()
		delete(r.panels, cell.ID)
	}
	if !cell.Node.Visible {
		return
	}
	cell.Size = cell.Node.CollapsedSize
	cell.Node.Visible = false
}

// Toggle opens a closed panel or closes an open one. It reports whether the
// panel is open afterwards.
func (r *Renderer) Toggle(ctx context.Context, workflowID string, cell *graph.Cell, save SaveFunc) (bool, error) {
	if cell != nil && cell.Node != nil && cell.Node.Visible {
		r.Close(cell)
		return false, nil
	}
	if _, err := r.Open(ctx, workflowID, cell, save); err != nil {
		return false, err
	}
	return true, nil
}

// Submit saves the open panel of a cell.
func (r *Renderer) Submit(ctx context.Context, cellID string) error {
	p, ok := r.panels[cellID]
	if !ok {
		return fmt.Errorf("%s: %w", cellID, ErrNoPanel)
	}
	return p.Submit(ctx)
}

// Forget drops the panel of a removed cell without touching its geometry.
func (r *Renderer) Forget(cellID string) {
	if p, ok := r.panels[cellID]; ok {
		p.stop()
		delete(r.panels, cellID)
	}
}

// OpenPanels returns the ids of every cell with an open panel.
func (r *Renderer) OpenPanels() []string {
	ids := make([]string, 0, len(r.panels))
	for id := range r.panels {
		ids = append(ids, id)
	}
	return ids
}
