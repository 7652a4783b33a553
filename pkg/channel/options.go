package channel

import (
	"log/slog"
	"time"

	"github.com/aretw0/warp/pkg/ports"
)

// Mode selects how responses are matched to requests.
type Mode int

const (
	// ModeCorrelated tags requests with a request_id and matches on it,
	// falling back to oldest-first for responses without one.
	ModeCorrelated Mode = iota

	// ModeFirstArrival sends no ids: the next response of an event resolves
	// the oldest pending future of that event.
	ModeFirstArrival
)

func (m Mode) String() string {
	if m == ModeFirstArrival {
		return "first-arrival"
	}
	return "correlated"
}

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) {
		c.log = l
	}
}

// WithMode sets the correlation mode.
func WithMode(m Mode) Option {
	return func(c *Channel) {
		c.mode = m
	}
}

// WithNotifier reports connection loss and recovery to the user.
func WithNotifier(n ports.Notifier) Option {
	return func(c *Channel) {
		c.notifier = n
	}
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(c *Channel) {
		c.metrics = m
	}
}

// WithBackoff replaces the reconnect policy.
func WithBackoff(b Backoff) Option {
	return func(c *Channel) {
		c.backoff = b
	}
}

// WithoutReconnect makes a transport loss final.
func WithoutReconnect() Option {
	return func(c *Channel) {
		c.reconnect = false
	}
}

// WithIDGenerator replaces the request id source.
func WithIDGenerator(gen func() string) Option {
	return func(c *Channel) {
		c.newID = gen
	}
}

// RequestOption configures a single request.
type RequestOption func(*requestConfig)

type requestConfig struct {
	scope   *Scope
	timeout time.Duration
}

// InScope binds the future to s.
func InScope(s *Scope) RequestOption {
	return func(rc *requestConfig) {
		rc.scope = s
	}
}

// WithTimeout fails the future with context.DeadlineExceeded after d.
func WithTimeout(d time.Duration) RequestOption {
	return func(rc *requestConfig) {
		rc.timeout = d
	}
}
