package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/aretw0/warp/internal/logging"
	"github.com/aretw0/warp/pkg/channel"
	"github.com/aretw0/warp/pkg/ports"
	"github.com/aretw0/warp/pkg/protocol"
)

// DefaultVersion is the version of newly created agents.
const DefaultVersion = "1.0.0"

var (
	// ErrNoAgent is returned by operations that need a selected agent.
	ErrNoAgent = errors.New("no agent selected")

	// ErrDeclined is returned when the user does not confirm a destructive action.
	ErrDeclined = errors.New("action declined")
)

// Client is the part of channel.Channel the editor uses.
type Client interface {
	Call(ctx context.Context, event string, payload any, out any, opts ...channel.RequestOption) error
}

// Icons is the visibility of the start and stop controls.
type Icons struct {
	Start bool
	Stop  bool
}

// Patch holds the agent fields to change. Nil fields are left alone.
type Patch struct {
	Name        *string
	Version     *string
	WorkflowID  *string
	Description *string
}

// Editor is the agent editing session. It is not safe for concurrent use.
type Editor struct {
	client    Client
	notifier  ports.Notifier
	confirmer ports.Confirmer
	logger    *slog.Logger
	timeout   time.Duration

	agents  []protocol.AgentSummary
	current *protocol.AgentDetail
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the editor logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = l
	}
}

// WithNotifier routes failures to n.
func WithNotifier(n ports.Notifier) Option {
	return func(e *Editor) {
		e.notifier = n
	}
}

// WithConfirmer gates deletions. Without one every deletion is confirmed.
func WithConfirmer(c ports.Confirmer) Option {
	return func(e *Editor) {
		e.confirmer = c
	}
}

// WithRequestTimeout bounds every engine request.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Editor) {
		e.timeout = d
	}
}

// New creates an editor with no agent selected.
func New(client Client, opts ...Option) *Editor {
	e := &Editor{
		client:    client,
		notifier:  ports.NopNotifier{},
		confirmer: ports.ConfirmFunc(func(string) bool { return true }),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Agents returns the list loaded by the last call to List.
func (e *Editor) Agents() []protocol.AgentSummary { return e.agents }

// Current returns the selected agent, or nil.
func (e *Editor) Current() *protocol.AgentDetail { return e.current }

// Icons returns which run control is shown for the selected agent.
func (e *Editor) Icons() Icons {
	if e.current == nil {
		return Icons{}
	}
	return Icons{Start: !e.current.IsStarted, Stop: e.current.IsStarted}
}

func (e *Editor) call(ctx context.Context, event string, payload, out any) error {
	var opts []channel.RequestOption
	if e.timeout > 0 {
		opts = append(opts, channel.WithTimeout(e.timeout))
	}
	return e.client.Call(ctx, event, payload, out, opts...)
}

func (e *Editor) fail(ctx context.Context, title string, err error) error {
	e.logger.WarnContext(ctx, title, "error", err)
	e.notifier.Notify(ports.Notification{Level: ports.LevelError, Title: title, Message: err.Error()})
	return err
}

func (e *Editor) selected(ctx context.Context) (context.Context, *protocol.AgentDetail, error) {
	if e.current == nil {
		return ctx, nil, ErrNoAgent
	}
	return logging.WithAgentID(ctx, e.current.ID), e.current, nil
}

// List loads the agent list.
func (e *Editor) List(ctx context.Context) ([]protocol.AgentSummary, error) {
	var resp protocol.AgentListResponse
	if err := e.call(ctx, protocol.EventAgentListRequest, nil, &resp); err != nil {
		return nil, e.fail(ctx, "Could not list agents", err)
	}
	e.agents = resp.Agents
	return resp.Agents, nil
}

// Select loads an agent and makes it the current one.
func (e *Editor) Select(ctx context.Context, id string) (*protocol.AgentDetail, error) {
	ctx = logging.WithAgentID(ctx, id)
	var a protocol.AgentDetail
	if err := e.call(ctx, protocol.EventAgentRequest, protocol.IDRequest{ID: id}, &a); err != nil {
		return nil, e.fail(ctx, "Could not load agent", err)
	}
	if a.ID == "" {
		a.ID = id
	}
	if a.Vars == nil {
		a.Vars = map[string]any{}
	}
	e.current = &a
	return &a, nil
}

// Create makes a new agent bound to a workflow and selects it.
func (e *Editor) Create(ctx context.Context, name, workflowID string) (*protocol.AgentDetail, error) {
	req := protocol.AgentSaveRequest{Name: name, Version: DefaultVersion, WorkflowID: workflowID}
	var saved protocol.SaveResponse
	if err := e.call(ctx, protocol.EventAgentSaveRequest, req, &saved); err != nil {
		return nil, e.fail(ctx, "Could not create agent", err)
	}
	if saved.ID == "" {
		return nil, e.fail(ctx, "Could not create agent", fmt.Errorf("%s: engine returned no id", protocol.EventAgentSave))
	}
	e.logger.InfoContext(logging.WithAgentID(ctx, saved.ID), "agent created", "name", name)
	e.agents = append(e.agents, protocol.AgentSummary{ID: saved.ID, Name: name})
	return e.Select(ctx, saved.ID)
}

// Save sends the set fields of p for the selected agent.
func (e *Editor) Save(ctx context.Context, p Patch) error {
	ctx, a, err := e.selected(ctx)
	if err != nil {
		return err
	}
	req := protocol.AgentSaveRequest{ID: a.ID}
	if p.Name != nil {
		req.Name = *p.Name
	}
	if p.Version != nil {
		req.Version = *p.Version
	}
	if p.WorkflowID != nil {
		req.WorkflowID = *p.WorkflowID
	}
	if p.Description != nil {
		req.Description = *p.Description
	}
	if err := e.call(ctx, protocol.EventAgentSaveRequest, req, nil); err != nil {
		return e.fail(ctx, "Could not save agent", err)
	}
	if p.Name != nil {
		a.Name = *p.Name
		for i := range e.agents {
			if e.agents[i].ID == a.ID {
				e.agents[i].Name = a.Name
			}
		}
	}
	if p.Version != nil && *p.Version != "" {
		a.Version = *p.Version
	}
	if p.WorkflowID != nil {
		a.WorkflowID = *p.WorkflowID
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	return nil
}

// Delete removes an agent after confirmation. Deleting the selected agent
// clears the selection.
func (e *Editor) Delete(ctx context.Context, id string) error {
	ctx = logging.WithAgentID(ctx, id)
	if !e.confirmer.Confirm(fmt.Sprintf("Delete agent %s?", id)) {
		return ErrDeclined
	}
	if err := e.call(ctx, protocol.EventAgentDeleteRequest, protocol.IDRequest{ID: id}, nil); err != nil {
		return e.fail(ctx, "Could not delete agent", err)
	}
	for i, s := range e.agents {
		if s.ID == id {
			e.agents = append(e.agents[:i], e.agents[i+1:]...)
			break
		}
	}
	if e.current != nil && e.current.ID == id {
		e.current = nil
	}
	return nil
}

// Start runs the selected agent.
func (e *Editor) Start(ctx context.Context) error {
	return e.setStarted(ctx, true)
}

// Stop halts the selected agent.
func (e *Editor) Stop(ctx context.Context) error {
	return e.setStarted(ctx, false)
}

func (e *Editor) setStarted(ctx context.Context, started bool) error {
	ctx, a, err := e.selected(ctx)
	if err != nil {
		return err
	}
	event, title := protocol.EventAgentStopRequest, "Could not stop agent"
	if started {
		event, title = protocol.EventAgentStartRequest, "Could not start agent"
	}
	if err := e.call(ctx, event, protocol.IDRequest{ID: a.ID}, nil); err != nil {
		return e.fail(ctx, title, err)
	}
	a.IsStarted = started
	e.logger.InfoContext(ctx, "agent run state changed", "started", started)
	return nil
}

// ExportVars returns a copy of the selected agent's variables.
func (e *Editor) ExportVars() (map[string]any, error) {
	if e.current == nil {
		return nil, ErrNoAgent
	}
	return maps.Clone(e.current.Vars), nil
}

// ImportVars upserts vars into the selected agent's variables. Keys not
// in vars are kept.
func (e *Editor) ImportVars(ctx context.Context, vars map[string]any) error {
	ctx, a, err := e.selected(ctx)
	if err != nil {
		return err
	}
	merged := maps.Clone(a.Vars)
	if merged == nil {
		merged = make(map[string]any, len(vars))
	}
	maps.Copy(merged, vars)
	req := protocol.AgentImportVarsRequest{ID: a.ID, Variables: merged}
	if err := e.call(ctx, protocol.EventAgentImportVarsRequest, req, nil); err != nil {
		return e.fail(ctx, "Could not import variables", err)
	}
	a.Vars = merged
	return nil
}

// SetVar changes the value of one variable.
func (e *Editor) SetVar(ctx context.Context, name string, value any) error {
	return e.ImportVars(ctx, map[string]any{name: value})
}

// AddVar creates a typed variable holding its default value.
func (e *Editor) AddVar(ctx context.Context, name string, t VarType) error {
	ctx, a, err := e.selected(ctx)
	if err != nil {
		return err
	}
	if _, taken := a.Vars[name]; taken {
		return fmt.Errorf("variable %q: %w", name, ErrVarExists)
	}
	req := protocol.AgentNewVarRequest{ID: a.ID, VarName: name, VarType: string(t)}
	if err := e.call(ctx, protocol.EventAgentNewVarRequest, req, nil); err != nil {
		return e.fail(ctx, "Could not add variable", err)
	}
	if a.Vars == nil {
		a.Vars = map[string]any{}
	}
	a.Vars[name] = t.Default()
	return nil
}

// DeleteVar removes one variable after confirmation. Other variables are
// left untouched.
func (e *Editor) DeleteVar(ctx context.Context, name string) error {
	ctx, a, err := e.selected(ctx)
	if err != nil {
		return err
	}
	if _, ok := a.Vars[name]; !ok {
		return fmt.Errorf("variable %q: %w", name, ErrVarNotFound)
	}
	if !e.confirmer.Confirm(fmt.Sprintf("Delete variable %s?", name)) {
		return ErrDeclined
	}
	req := protocol.AgentDeleteVarRequest{ID: a.ID, VarName: name}
	if err := e.call(ctx, protocol.EventAgentDeleteVarRequest, req, nil); err != nil {
		return e.fail(ctx, "Could not delete variable", err)
	}
	delete(a.Vars, name)
	return nil
}
