package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/warp/internal/logging"
	"github.com/aretw0/warp/pkg/adapters/memory"
	"github.com/aretw0/warp/pkg/canvas"
	"github.com/aretw0/warp/pkg/channel"
	"github.com/aretw0/warp/pkg/graph"
	"github.com/aretw0/warp/pkg/nodeui"
	"github.com/aretw0/warp/pkg/ports"
	"github.com/aretw0/warp/pkg/protocol"
)

// DefaultWorkflowName is used for the workflow created when the engine has none.
const DefaultWorkflowName = "New Workflow"

var (
	// ErrNoWorkflow is returned by operations that need an open workflow.
	ErrNoWorkflow = errors.New("no workflow open")

	// ErrNotPersisted is returned for engine operations on a node without a server id.
	ErrNotPersisted = canvas.ErrNotPersisted

	// ErrOptionsMismatch is returned when the engine answers a dynamic options
	// request for a different source.
	ErrOptionsMismatch = errors.New("options source mismatch")
)

// Client is the part of channel.Channel the workspace uses.
type Client interface {
	Call(ctx context.Context, event string, payload any, out any, opts ...channel.RequestOption) error
	Subscribe(event string, h channel.Handler) (unsubscribe func())
}

// Workspace is an editing session over one workflow.
type Workspace struct {
	client   Client
	drafts   ports.DraftStore
	notifier ports.Notifier
	logger   *slog.Logger
	timeout  time.Duration

	workflowID string
	name       string
	graph      *graph.Graph
	canvas     *canvas.Controller
	renderer   *nodeui.Renderer
	scopes     map[string]*channel.Scope

	unsubscribe func()
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the workspace logger. It is shared with the canvas and renderer.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = l
	}
}

// WithNotifier routes failures and engine toasts to n.
func WithNotifier(n ports.Notifier) Option {
	return func(w *Workspace) {
		w.notifier = n
	}
}

// WithDraftStore sets where unsaved layouts are kept. The default is in memory.
func WithDraftStore(s ports.DraftStore) Option {
	return func(w *Workspace) {
		w.drafts = s
	}
}

// WithRequestTimeout bounds every engine request.
func WithRequestTimeout(d time.Duration) Option {
	return func(w *Workspace) {
		w.timeout = d
	}
}

// New creates a workspace with no workflow open.
func New(client Client, opts ...Option) *Workspace {
	w := &Workspace{
		client:   client,
		notifier: ports.NopNotifier{},
		logger:   logging.NewNop(),
		graph:    graph.New(),
		scopes:   make(map[string]*channel.Scope),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.drafts == nil {
		w.drafts = memory.NewStore()
	}
	w.canvas = canvas.NewController(w.graph, w, canvas.WithLogger(w.logger))
	w.renderer = nodeui.NewRenderer(w, nodeui.WithLogger(w.logger))
	w.unsubscribe = client.Subscribe(protocol.EventShowToastr, w.onToast)
	return w
}

// Close cancels every outstanding node request and stops listening for toasts.
func (w *Workspace) Close() {
	w.reset()
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
}

// WorkflowID returns the id of the open workflow, or "".
func (w *Workspace) WorkflowID() string { return w.workflowID }

// Name returns the name of the open workflow.
func (w *Workspace) Name() string { return w.name }

// Graph returns the graph of the open workflow.
func (w *Workspace) Graph() *graph.Graph { return w.graph }

// Canvas returns the interaction controller bound to the graph.
func (w *Workspace) Canvas() *canvas.Controller { return w.canvas }

// Renderer returns the node interface renderer.
func (w *Workspace) Renderer() *nodeui.Renderer { return w.renderer }

// Drafts returns the draft store.
func (w *Workspace) Drafts() ports.DraftStore { return w.drafts }

func (w *Workspace) onToast(env protocol.Envelope) {
	var t protocol.Toast
	if err := protocol.Decode(env.Data, &t); err != nil {
		w.logger.Warn("malformed toast", "error", err)
		return
	}
	w.notifier.Notify(ports.Notification{
		Level:   ports.ParseLevel(t.Severity()),
		Title:   t.Title,
		Message: t.Message,
	})
}

func (w *Workspace) ctx(ctx context.Context) context.Context {
	return logging.WithWorkflowID(ctx, w.workflowID)
}

// call sends one request, optionally inside a node scope.
func (w *Workspace) call(ctx context.Context, event string, payload, out any, scope *channel.Scope) error {
	var opts []channel.RequestOption
	if scope != nil {
		opts = append(opts, channel.InScope(scope))
	}
	if w.timeout > 0 {
		opts = append(opts, channel.WithTimeout(w.timeout))
	}
	return w.client.Call(ctx, event, payload, out, opts...)
}

// fail reports err to the notifier and returns it.
func (w *Workspace) fail(ctx context.Context, title string, err error) error {
	w.logger.WarnContext(ctx, title, "error", err)
	w.notifier.Notify(ports.Notification{Level: ports.LevelError, Title: title, Message: err.Error()})
	return err
}

func (w *Workspace) requireWorkflow() error {
	if w.workflowID == "" {
		return ErrNoWorkflow
	}
	return nil
}

// scope returns the request scope of a cell, creating it on first use.
func (w *Workspace) scope(cellID string) *channel.Scope {
	s, ok := w.scopes[cellID]
	if !ok {
		s = channel.NewScope("cell " + cellID)
		w.scopes[cellID] = s
	}
	return s
}

func (w *Workspace) dropScope(cellID string) {
	if s, ok := w.scopes[cellID]; ok {
		s.Close()
		delete(w.scopes, cellID)
	}
}

// reset forgets the open workflow's panels and cancels its requests.
func (w *Workspace) reset() {
	for _, id := range w.renderer.OpenPanels() {
		w.renderer.Forget(id)
	}
	for id := range w.scopes {
		w.dropScope(id)
	}
}

func (w *Workspace) setGraph(id, name string, g *graph.Graph) {
	w.reset()
	w.workflowID = id
	w.name = name
	w.graph = g
	w.canvas.SetGraph(g)
}

func (w *Workspace) nodeCell(cellID string) (*graph.Cell, error) {
	c, ok := w.graph.Cell(cellID)
	if !ok {
		return nil, fmt.Errorf("cell %q: %w", cellID, graph.ErrNotFound)
	}
	if c.Kind != graph.KindNode {
		return nil, fmt.Errorf("cell %q is a %s: %w", cellID, c.Kind, graph.ErrWrongKind)
	}
	return c, nil
}

// alive reports whether a cell fetched before a request is still part of
// the open graph.
func (w *Workspace) alive(g *graph.Graph, c *graph.Cell) bool {
	if g != w.graph {
		return false
	}
	cur, ok := g.Cell(c.ID)
	return ok && cur == c
}
