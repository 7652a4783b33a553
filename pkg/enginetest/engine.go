package enginetest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/warp/internal/logging"
	"github.com/aretw0/warp/pkg/adapters/memory"
	"github.com/aretw0/warp/pkg/ports"
	"github.com/aretw0/warp/pkg/protocol"
)

// Shape selects how results are reported.
type Shape int

const (
	// ShapeMessage reports {"message": "success"|"error", "error": ...}.
	ShapeMessage Shape = iota
	// ShapeSuccess reports {"success": true|false, "error": ...}.
	ShapeSuccess
	// ShapeBare reports failures as {"error": ...} and success with no marker.
	ShapeBare
)

// Engine is an in-memory engine. It is safe for concurrent use by any
// number of sessions.
type Engine struct {
	mu        sync.Mutex
	shape     Shape
	legacy    bool
	logger    *slog.Logger
	providers map[string]OptionsProvider

	workflows     map[string]*workflow
	workflowOrder []string
	agents        map[string]*protocol.AgentDetail
	agentOrder    []string
	nextID        int

	failures map[string]string
	silenced map[string]bool
	received []protocol.Envelope
	sessions map[ports.Transport]struct{}
}

type workflow struct {
	id    string
	name  string
	graph map[string]any
	nodes map[string]*protocol.NodeRecord
	links []protocol.LinkRef
}

// Option configures an Engine.
type Option func(*Engine)

// WithShape selects the result shape.
func WithShape(s Shape) Option {
	return func(e *Engine) {
		e.shape = s
	}
}

// WithLegacyIDs makes the engine drop request ids from its responses.
func WithLegacyIDs() Option {
	return func(e *Engine) {
		e.legacy = true
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithOptionsProvider registers or replaces a dynamic options source.
func WithOptionsProvider(source string, p OptionsProvider) Option {
	return func(e *Engine) {
		e.providers[source] = p
	}
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:    logging.NewNop(),
		providers: DefaultProviders(),
		workflows: make(map[string]*workflow),
		agents:    make(map[string]*protocol.AgentDetail),
		failures:  make(map[string]string),
		silenced:  make(map[string]bool),
		sessions:  make(map[ports.Transport]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fail makes every later request of the given event fail with message.
func (e *Engine) Fail(requestEvent, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[requestEvent] = message
}

// Silence makes the engine swallow requests of the given event.
func (e *Engine) Silence(requestEvent string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.silenced[requestEvent] = true
}

// Recover undoes Fail and Silence for an event.
func (e *Engine) Recover(requestEvent string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.failures, requestEvent)
	delete(e.silenced, requestEvent)
}

// Received returns every request seen so far, in order.
func (e *Engine) Received(event string) []protocol.Envelope {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []protocol.Envelope
	for _, env := range e.received {
		if event == "" || env.Event == event {
			out = append(out, env)
		}
	}
	return out
}

// Handle answers one request. It returns nothing for silenced or unknown events.
func (e *Engine) Handle(env protocol.Envelope) []protocol.Envelope {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.received = append(e.received, env)

	respEvent, known := protocol.ResponseFor(env.Event)
	if !known {
		e.logger.Warn("ignoring unknown event", "event", env.Event)
		return nil
	}
	if e.silenced[env.Event] {
		return nil
	}

	var (
		data map[string]any
		err  error
	)
	if msg, ok := e.failures[env.Event]; ok {
		err = errors.New(msg)
	} else {
		data, err = e.dispatch(env.Event, env.Data)
	}

	out := protocol.Envelope{Event: respEvent, Data: e.result(data, err)}
	if !e.legacy {
		out.RequestID = env.RequestID
	}
	if err != nil {
		e.logger.Debug("request failed", "event", env.Event, "error", err)
	}
	return []protocol.Envelope{out}
}

func (e *Engine) result(data map[string]any, err error) map[string]any {
	if data == nil {
		data = map[string]any{}
	}
	if err != nil {
		data["error"] = err.Error()
	}
	switch e.shape {
	case ShapeMessage:
		if err != nil {
			data["message"] = "error"
		} else {
			data["message"] = "success"
		}
	case ShapeSuccess:
		data["success"] = err == nil
	}
	return data
}

func (e *Engine) dispatch(event string, data map[string]any) (map[string]any, error) {
	switch event {
	case protocol.EventWorkflowListRequest:
		return e.listWorkflows()
	case protocol.EventWorkflowRequest:
		return e.getWorkflow(data)
	case protocol.EventWorkflowSaveRequest:
		return e.saveWorkflow(data)
	case protocol.EventWorkflowDeleteRequest:
		return e.deleteWorkflow(data)
	case protocol.EventNodeSaveRequest:
		return e.saveNode(data)
	case protocol.EventNodeDeleteRequest:
		return e.deleteNode(data)
	case protocol.EventNodeContentRequest:
		return e.getNode(data)
	case protocol.EventNodeDynamicOptionsRequest:
		return e.dynamicOptions(data)
	case protocol.EventNodeTypesRequest:
		return map[string]any{"node_types": append([]string(nil), NodeTypes...)}, nil
	case protocol.EventNodeSubtypesRequest:
		return e.nodeSubtypes(data)
	case protocol.EventLinkCreateRequest:
		return e.createLink(data)
	case protocol.EventLinkDeleteRequest:
		return e.deleteLink(data)
	case protocol.EventAgentListRequest:
		return e.listAgents()
	case protocol.EventAgentRequest:
		return e.getAgent(data)
	case protocol.EventAgentSaveRequest:
		return e.saveAgent(data)
	case protocol.EventAgentDeleteRequest:
		return e.deleteAgent(data)
	case protocol.EventAgentStartRequest:
		return e.setStarted(data, true)
	case protocol.EventAgentStopRequest:
		return e.setStarted(data, false)
	case protocol.EventAgentNewVarRequest:
		return e.newVar(data)
	case protocol.EventAgentImportVarsRequest:
		return e.importVars(data)
	case protocol.EventAgentDeleteVarRequest:
		return e.deleteVar(data)
	}
	return nil, fmt.Errorf("unhandled event %s", event)
}

func (e *Engine) newID() string {
	e.nextID++
	return fmt.Sprint(e.nextID)
}

// Serve answers requests arriving on t until it closes or ctx ends.
func (e *Engine) Serve(ctx context.Context, t ports.Transport) error {
	e.attach(t)
	defer e.detach(t)
	return e.loop(ctx, t)
}

func (e *Engine) attach(t ports.Transport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions[t] = struct{}{}
}

func (e *Engine) detach(t ports.Transport) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, t)
}

func (e *Engine) loop(ctx context.Context, t ports.Transport) error {
	for {
		env, err := t.Receive(ctx)
		if err != nil {
			if errors.Is(err, ports.ErrTransportClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		for _, out := range e.Handle(env) {
			if err := t.Send(ctx, out); err != nil {
				return fmt.Errorf("send %s: %w", out.Event, err)
			}
		}
	}
}

// Broadcast pushes an event to every connected session.
func (e *Engine) Broadcast(ctx context.Context, env protocol.Envelope) {
	e.mu.Lock()
	targets := make([]ports.Transport, 0, len(e.sessions))
	for t := range e.sessions {
		targets = append(targets, t)
	}
	e.mu.Unlock()

	for _, t := range targets {
		if err := t.Send(ctx, env); err != nil {
			e.logger.Debug("broadcast failed", "event", env.Event, "error", err)
		}
	}
}

// Toast pushes a show_toastr notification to every session.
func (e *Engine) Toast(ctx context.Context, toast protocol.Toast) error {
	env, err := protocol.NewEnvelope(protocol.EventShowToastr, toast)
	if err != nil {
		return err
	}
	e.Broadcast(ctx, env)
	return nil
}

// Sessions returns the number of connected sessions.
func (e *Engine) Sessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// Dialer returns a dialer that connects to the engine through in-memory
// pipes. Each dial starts a new session served until ctx ends or the
// client closes its end.
func (e *Engine) Dialer(ctx context.Context) ports.Dialer {
	return func(context.Context) (ports.Transport, error) {
		client, server := memory.NewPipe(64)
		e.attach(server)
		go func() {
			defer e.detach(server)
			if err := e.loop(ctx, server); err != nil {
				e.logger.Warn("session ended", "error", err)
			}
		}()
		return client, nil
	}
}

// Disconnect closes every session, as if the engine restarted.
func (e *Engine) Disconnect() {
	e.mu.Lock()
	targets := make([]ports.Transport, 0, len(e.sessions))
	for t := range e.sessions {
		targets = append(targets, t)
	}
	e.mu.Unlock()
	for _, t := range targets {
		_ = t.Close()
	}
}
