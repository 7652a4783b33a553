package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	workflowIDKey ctxKey = iota
	nodeIDKey
	agentIDKey
	requestIDKey
)

// WithWorkflowID returns a context carrying the workflow id.
func WithWorkflowID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, workflowIDKey, id)
}

// WithNodeID returns a context carrying the node id.
func WithNodeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, nodeIDKey, id)
}

// WithAgentID returns a context carrying the agent id.
func WithAgentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, agentIDKey, id)
}

// WithRequestID returns a context carrying the request correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func value(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// WorkflowID extracts the workflow id, or "" if absent.
func WorkflowID(ctx context.Context) string { return value(ctx, workflowIDKey) }

// NodeID extracts the node id, or "" if absent.
func NodeID(ctx context.Context) string { return value(ctx, nodeIDKey) }

// AgentID extracts the agent id, or "" if absent.
func AgentID(ctx context.Context) string { return value(ctx, agentIDKey) }

// RequestID extracts the request id, or "" if absent.
func RequestID(ctx context.Context) string { return value(ctx, requestIDKey) }

func correlationAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if v := WorkflowID(ctx); v != "" {
		attrs = append(attrs, slog.String("workflow_id", v))
	}
	if v := NodeID(ctx); v != "" {
		attrs = append(attrs, slog.String("node_id", v))
	}
	if v := AgentID(ctx); v != "" {
		attrs = append(attrs, slog.String("agent_id", v))
	}
	if v := RequestID(ctx); v != "" {
		attrs = append(attrs, slog.String("request_id", v))
	}
	return attrs
}

// CorrelationHandler injects the correlation ids found in the context into
// every record it handles.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps inner.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(correlationAttrs(ctx)...)
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}
