// Package cli implements the warp commands on top of the workspace and
// agent editors. The cobra wiring lives in cmd/warp.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/warp/internal/config"
	"github.com/aretw0/warp/internal/logging"
	"github.com/aretw0/warp/internal/notify"
	"github.com/aretw0/warp/pkg/adapters/file"
	"github.com/aretw0/warp/pkg/adapters/jsonl"
	"github.com/aretw0/warp/pkg/adapters/memory"
	"github.com/aretw0/warp/pkg/adapters/redis"
	"github.com/aretw0/warp/pkg/adapters/websocket"
	"github.com/aretw0/warp/pkg/agent"
	"github.com/aretw0/warp/pkg/channel"
	"github.com/aretw0/warp/pkg/ports"
	"github.com/aretw0/warp/pkg/workspace"
)

// Session is one connection to the engine with the editors bound to it.
type Session struct {
	Config    *config.Config
	Logger    *slog.Logger
	Notifier  ports.Notifier
	Channel   *channel.Channel
	Workspace *workspace.Workspace
	Agents    *agent.Editor

	// Notifications keeps recent notifications until dismissed.
	Notifications *notify.Center

	closers []io.Closer
}

// SessionOption configures Open.
type SessionOption func(*sessionSetup)

type sessionSetup struct {
	dialer    ports.Dialer
	logger    *slog.Logger
	notifier  ports.Notifier
	confirmer ports.Confirmer
	channel   []channel.Option
}

// WithDialer replaces the dialer derived from the configuration.
func WithDialer(d ports.Dialer) SessionOption {
	return func(s *sessionSetup) {
		s.dialer = d
	}
}

// WithSessionLogger replaces the logger derived from the configuration.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *sessionSetup) {
		s.logger = l
	}
}

// WithSessionNotifier replaces the terminal notifier.
func WithSessionNotifier(n ports.Notifier) SessionOption {
	return func(s *sessionSetup) {
		s.notifier = n
	}
}

// WithConfirmer sets how destructive actions are confirmed.
func WithConfirmer(c ports.Confirmer) SessionOption {
	return func(s *sessionSetup) {
		s.confirmer = c
	}
}

// WithChannelOptions adds options to the channel.
func WithChannelOptions(opts ...channel.Option) SessionOption {
	return func(s *sessionSetup) {
		s.channel = append(s.channel, opts...)
	}
}

// Dialer builds the dialer described by cfg.
func Dialer(cfg *config.Config, logger *slog.Logger) (ports.Dialer, error) {
	switch cfg.Engine.Transport {
	case config.TransportWebsocket:
		return websocket.Dialer(cfg.Engine.URL, nil), nil
	case config.TransportJSONL:
		return jsonl.Dialer(cfg.Engine.URL, jsonl.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Engine.Transport)
	}
}

// DraftStore builds the draft store described by cfg. The returned closer
// may be nil.
func DraftStore(cfg *config.Config) (ports.DraftStore, io.Closer, error) {
	switch cfg.Drafts.Backend {
	case config.DraftsMemory:
		return memory.NewStore(), nil, nil
	case config.DraftsFile:
		return file.NewStore(cfg.Drafts.Dir), nil, nil
	case config.DraftsRedis:
		ttl, err := cfg.DraftTTL()
		if err != nil {
			return nil, nil, err
		}
		var opts []redis.Option
		if ttl > 0 {
			opts = append(opts, redis.WithTTL(ttl))
		}
		s, err := redis.NewFromURL(cfg.Drafts.RedisURL, opts...)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown draft backend %q", cfg.Drafts.Backend)
	}
}

// Open connects to the engine described by cfg. Notifications are written
// to out unless a notifier is given.
func Open(ctx context.Context, cfg *config.Config, out io.Writer, opts ...SessionOption) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	setup := &sessionSetup{}
	for _, opt := range opts {
		opt(setup)
	}
	if setup.logger == nil {
		setup.logger = logging.New(logging.ParseLevel(cfg.Log.Level))
	}
	if setup.notifier == nil {
		setup.notifier = notify.NewTerminal(out, notify.WithColor(cfg.UI.Color))
	}
	center := notify.NewCenter()
	sinks := []ports.Notifier{center, setup.notifier}
	if logging.ParseLevel(cfg.Log.Level) <= slog.LevelDebug {
		sinks = append(sinks, notify.Log(setup.logger))
	}
	notifier := notify.Fanout(sinks...)
	if setup.dialer == nil {
		d, err := Dialer(cfg, setup.logger)
		if err != nil {
			return nil, err
		}
		setup.dialer = d
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	drafts, closer, err := DraftStore(cfg)
	if err != nil {
		return nil, err
	}

	chOpts := []channel.Option{channel.WithLogger(setup.logger), channel.WithNotifier(notifier)}
	if cfg.Engine.Legacy {
		chOpts = append(chOpts, channel.WithMode(channel.ModeFirstArrival))
	}
	if !cfg.Engine.Reconnect {
		chOpts = append(chOpts, channel.WithoutReconnect())
	}
	ch := channel.New(setup.dialer, append(chOpts, setup.channel...)...)
	if err := ch.Open(ctx); err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("connect to %s: %w", cfg.Engine.URL, err)
	}

	s := &Session{
		Config:        cfg,
		Logger:        setup.logger,
		Notifier:      notifier,
		Notifications: center,
		Channel:       ch,
		Workspace: workspace.New(ch,
			workspace.WithLogger(setup.logger),
			workspace.WithNotifier(notifier),
			workspace.WithDraftStore(drafts),
			workspace.WithRequestTimeout(timeout),
		),
	}
	agentOpts := []agent.Option{
		agent.WithLogger(setup.logger),
		agent.WithNotifier(notifier),
		agent.WithRequestTimeout(timeout),
	}
	if setup.confirmer != nil {
		agentOpts = append(agentOpts, agent.WithConfirmer(setup.confirmer))
	}
	s.Agents = agent.New(ch, agentOpts...)
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
	return s, nil
}

// Close disconnects and releases the draft store.
func (s *Session) Close() error {
	s.Workspace.Close()
	errs := []error{s.Channel.Close()}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
