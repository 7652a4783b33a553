package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/warp/internal/logging"
	"github.com/aretw0/warp/pkg/ports"
	"github.com/aretw0/warp/pkg/protocol"
	"github.com/google/uuid"
)

// Handler receives envelopes delivered to a subscription.
// Handlers run on the channel's reader goroutine and must not block.
type Handler func(env protocol.Envelope)

// Channel is a goroutine-safe request/response layer over a ports.Transport.
type Channel struct {
	dial      ports.Dialer
	log       *slog.Logger
	notifier  ports.Notifier
	metrics   *Metrics
	mode      Mode
	backoff   Backoff
	reconnect bool
	newID     func() string

	sendMu sync.Mutex

	mu      sync.Mutex
	conn    ports.Transport
	byID    map[string]*Future
	byEvent map[string][]*Future
	subs    map[string]map[int]Handler
	subSeq  int
	opened  bool
	closed  bool
	cancel  context.CancelFunc

	wg sync.WaitGroup
}

// New creates a channel that connects through dial when opened.
func New(dial ports.Dialer, opts ...Option) *Channel {
	c := &Channel{
		dial:      dial,
		log:       logging.NewNop(),
		notifier:  ports.NopNotifier{},
		mode:      ModeCorrelated,
		backoff:   DefaultBackoff,
		reconnect: true,
		newID:     uuid.NewString,
		byID:      make(map[string]*Future),
		byEvent:   make(map[string][]*Future),
		subs:      make(map[string]map[int]Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode returns the correlation mode.
func (c *Channel) Mode() Mode { return c.mode }

// Connected reports whether a transport is currently attached.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Open dials the engine and starts the reader. The first dial is synchronous;
// later reconnects happen in the background.
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.opened {
		c.mu.Unlock()
		return errors.New("channel already open")
	}
	c.opened = true
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.opened = false
		c.mu.Unlock()
		return fmt.Errorf("dial engine: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		_ = conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.cancel = cancel
	c.mu.Unlock()

	c.log.Debug("engine connected", "mode", c.mode.String())
	c.wg.Add(1)
	go c.run(runCtx, conn)
	return nil
}

// Close stops the reader, closes the transport and fails pending futures with ErrClosed.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn, cancel := c.conn, c.cancel
	c.conn = nil
	pending := c.drainLocked()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if conn != nil {
		if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, ports.ErrTransportClosed) {
			err = cerr
		}
	}
	c.settleAll(pending, ErrClosed)
	c.wg.Wait()
	return err
}

func (c *Channel) run(ctx context.Context, conn ports.Transport) {
	defer c.wg.Done()
	for {
		err := c.readLoop(ctx, conn)
		_ = conn.Close()
		c.detach(conn)
		if ctx.Err() != nil {
			return
		}
		c.log.Warn("engine connection lost", "err", err)
		if !c.reconnect {
			c.notify(ports.LevelError, "Connection lost", "The engine connection was closed.")
			return
		}
		c.notify(ports.LevelWarning, "Connection lost", "Reconnecting to the engine...")

		conn = c.redial(ctx)
		if conn == nil {
			return
		}
		if !c.attach(conn) {
			_ = conn.Close()
			return
		}
		c.metrics.reconnected()
		c.log.Info("engine reconnected")
		c.notify(ports.LevelSuccess, "Reconnected", "The engine connection was restored.")
	}
}

func (c *Channel) readLoop(ctx context.Context, conn ports.Transport) error {
	for {
		env, err := conn.Receive(ctx)
		if err != nil {
			return err
		}
		c.dispatch(env)
	}
}

func (c *Channel) redial(ctx context.Context) ports.Transport {
	for attempt := 0; ; attempt++ {
		if err := sleepCtx(ctx, c.backoff.Delay(attempt)); err != nil {
			return nil
		}
		conn, err := c.dial(ctx)
		if err == nil {
			return conn
		}
		c.log.Warn("reconnect failed", "attempt", attempt+1, "err", err)
	}
}

// detach drops conn and fails everything that was waiting on it.
func (c *Channel) detach(conn ports.Transport) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	pending := c.drainLocked()
	c.mu.Unlock()
	c.settleAll(pending, ErrDisconnected)
}

func (c *Channel) attach(conn ports.Transport) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.conn = conn
	return true
}

func (c *Channel) notify(level ports.Level, title, msg string) {
	c.notifier.Notify(ports.Notification{Level: level, Title: title, Message: msg})
}

// Request sends event with payload and returns a future for the paired response.
func (c *Channel) Request(ctx context.Context, event string, payload any, opts ...RequestOption) (*Future, error) {
	respEvent, ok := protocol.ResponseFor(event)
	if !ok {
		return nil, fmt.Errorf("%s: %w", event, ErrUnpaired)
	}
	var rc requestConfig
	for _, opt := range opts {
		opt(&rc)
	}

	env, err := protocol.NewEnvelope(event, payload)
	if err != nil {
		return nil, err
	}
	if c.mode == ModeCorrelated {
		env.RequestID = c.newID()
	}

	f := newFuture(c, event, respEvent, env.RequestID)

	c.mu.Lock()
	conn := c.conn
	switch {
	case c.closed:
		err = ErrClosed
	case conn == nil:
		err = ErrDisconnected
	default:
		c.registerLocked(f)
	}
	c.mu.Unlock()
	if err != nil {
		f.abandon(err)
		return nil, fmt.Errorf("%s: %w", event, err)
	}
	if !c.arm(f, rc) {
		return nil, fmt.Errorf("%s in scope %s: %w", event, rc.scope.Name(), ErrCancelled)
	}

	if err := c.send(ctx, conn, env); err != nil {
		c.forget(f)
		f.abandon(err)
		return nil, fmt.Errorf("send %s: %w", event, err)
	}

	c.metrics.sent(event)
	c.log.DebugContext(logging.WithRequestID(ctx, env.RequestID), "request sent", "event", event)
	return f, nil
}

// Await returns a future for the next occurrence of event, whatever request
// produced it. Nothing is sent.
func (c *Channel) Await(event string, opts ...RequestOption) *Future {
	var rc requestConfig
	for _, opt := range opts {
		opt(&rc)
	}
	f := newFuture(c, "", event, "")

	c.mu.Lock()
	closed := c.closed
	if !closed {
		c.registerLocked(f)
	}
	c.mu.Unlock()
	if closed {
		f.abandon(ErrClosed)
		return f
	}
	c.arm(f, rc)
	return f
}

// arm attaches a registered future to its scope and starts its timeout.
// It reports false, with the future unregistered and cancelled, when the
// scope is already closed.
func (c *Channel) arm(f *Future, rc requestConfig) bool {
	if rc.scope != nil {
		f.scope = rc.scope
		if !rc.scope.track(f) {
			c.forget(f)
			f.complete(nil, ErrCancelled)
			return false
		}
	}
	if rc.timeout > 0 {
		f.startTimer(rc.timeout)
	}
	return true
}

// Call sends a request, waits for its response, checks the unified result
// shape and decodes the payload into out (which may be nil).
func (c *Channel) Call(ctx context.Context, event string, payload any, out any, opts ...RequestOption) error {
	f, err := c.Request(ctx, event, payload, opts...)
	if err != nil {
		return err
	}
	defer f.Cancel()

	data, err := f.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", event, err)
	}
	if err := protocol.Check(f.Event(), data); err != nil {
		return err
	}
	if out != nil {
		if err := protocol.Decode(data, out); err != nil {
			return fmt.Errorf("%s: %w", f.Event(), err)
		}
	}
	return nil
}

// Subscribe registers h for every envelope of event. Subscribers see
// responses too, after any matching future has been resolved.
// The returned func removes the subscription.
func (c *Channel) Subscribe(event string, h Handler) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subSeq++
	id := c.subSeq
	if c.subs[event] == nil {
		c.subs[event] = make(map[int]Handler)
	}
	c.subs[event][id] = h
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[event], id)
	}
}

// Pending returns the number of futures waiting for a response.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, q := range c.byEvent {
		n += len(q)
	}
	return n
}

func (c *Channel) send(ctx context.Context, conn ports.Transport, env protocol.Envelope) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return conn.Send(ctx, env)
}

func (c *Channel) dispatch(env protocol.Envelope) {
	c.mu.Lock()
	f, queued := c.matchLocked(env)
	handlers := make([]Handler, 0, len(c.subs[env.Event]))
	for _, h := range c.subs[env.Event] {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	switch {
	case f != nil:
		if queued > 1 {
			c.log.Warn("response without request_id matched by arrival order",
				"event", env.Event, "pending", queued)
		}
		if f.complete(env.Data, nil) {
			if f.scope != nil {
				f.scope.release(f)
			}
			c.metrics.observe(env.Event, time.Since(f.sentAt).Seconds())
			outcome := OutcomeResolved
			if protocol.Check(env.Event, env.Data) != nil {
				outcome = OutcomeRejected
			}
			c.metrics.received(env.Event, outcome)
		}
	case len(handlers) > 0:
		c.metrics.received(env.Event, OutcomeUnsolicited)
	default:
		c.metrics.received(env.Event, OutcomeDropped)
		if env.RequestID != "" {
			c.log.Info("dropping late response", "event", env.Event, "request_id", env.RequestID)
		} else {
			c.log.Debug("dropping unexpected event", "event", env.Event)
		}
	}

	for _, h := range handlers {
		h(env)
	}
}

// matchLocked picks the future an envelope resolves and unregisters it.
// queued is the number of candidates when the match was made by arrival
// order among several futures, and zero otherwise.
func (c *Channel) matchLocked(env protocol.Envelope) (f *Future, queued int) {
	queue := c.byEvent[env.Event]
	if env.RequestID != "" {
		if f, ok := c.byID[env.RequestID]; ok {
			c.unregisterLocked(f)
			return f, 0
		}
		// raw awaiters accept any occurrence of the event
		for _, f := range queue {
			if f.requestID == "" {
				c.unregisterLocked(f)
				return f, 0
			}
		}
		return nil, 0
	}
	if len(queue) == 0 {
		return nil, 0
	}
	f = queue[0]
	if len(queue) > 1 {
		queued = len(queue)
	}
	c.unregisterLocked(f)
	return f, queued
}

func (c *Channel) registerLocked(f *Future) {
	c.metrics.pending(1)
	c.byEvent[f.event] = append(c.byEvent[f.event], f)
	if f.requestID != "" {
		c.byID[f.requestID] = f
	}
}

// unregisterLocked reports whether f was registered.
func (c *Channel) unregisterLocked(f *Future) bool {
	queue := c.byEvent[f.event]
	i := slices.Index(queue, f)
	if i < 0 {
		return false
	}
	queue = slices.Delete(queue, i, i+1)
	if len(queue) == 0 {
		delete(c.byEvent, f.event)
	} else {
		c.byEvent[f.event] = queue
	}
	if f.requestID != "" {
		delete(c.byID, f.requestID)
	}
	c.metrics.pending(-1)
	return true
}

// forget unregisters f after a cancel, timeout or send failure.
func (c *Channel) forget(f *Future) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unregisterLocked(f)
}

func (c *Channel) drainLocked() []*Future {
	var out []*Future
	for _, q := range c.byEvent {
		out = append(out, q...)
	}
	c.byEvent = make(map[string][]*Future)
	c.byID = make(map[string]*Future)
	c.metrics.pending(-len(out))
	return out
}

func (c *Channel) settleAll(futures []*Future, err error) {
	for _, f := range futures {
		f.abandon(err)
	}
}
