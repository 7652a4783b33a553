// Package jsonl implements ports.Transport as JSON Lines over any byte stream:
// one envelope per line, in both directions.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/aretw0/warp/internal/logging"
	"github.com/aretw0/warp/pkg/ports"
	"github.com/aretw0/warp/pkg/protocol"
)

// MaxLineSize bounds a single envelope.
const MaxLineSize = 4 << 20

// Transport exchanges envelopes as JSON Lines.
type Transport struct {
	writer io.Writer
	closer io.Closer
	logger *slog.Logger

	writeMu sync.Mutex
	in      chan protocol.Envelope
	done    chan struct{}
	once    sync.Once
}

// Option configures a Transport.
type Option func(*Transport)

// WithLogger sets the logger used for malformed lines.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = l
	}
}

// New starts reading envelopes from r. Envelopes are written to w.
// c, if not nil, is closed by Close.
func New(r io.Reader, w io.Writer, c io.Closer, opts ...Option) *Transport {
	t := &Transport{
		writer: w,
		closer: c,
		logger: logging.NewNop(),
		in:     make(chan protocol.Envelope, 16),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	go t.readLoop(r)
	return t
}

// NewConn wraps a network connection.
func NewConn(conn net.Conn, opts ...Option) *Transport {
	return New(conn, conn, conn, opts...)
}

// Dial connects to a JSON Lines engine over TCP.
func Dial(ctx context.Context, addr string, opts ...Option) (*Transport, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewConn(conn, opts...), nil
}

// Dialer returns a ports.Dialer for addr.
func Dialer(addr string, opts ...Option) ports.Dialer {
	return func(ctx context.Context) (ports.Transport, error) {
		return Dial(ctx, addr, opts...)
	}
}

func (t *Transport) readLoop(r io.Reader) {
	defer close(t.in)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var env protocol.Envelope
		if err := json.Unmarshal(line, &env); err != nil || env.Event == "" {
			t.logger.Warn("skipping malformed envelope", "err", err, "size", len(line))
			continue
		}
		select {
		case t.in <- env:
		case <-t.done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		t.logger.Debug("jsonl reader stopped", "err", err)
	}
}

// Send writes env as a single line.
func (t *Transport) Send(ctx context.Context, env protocol.Envelope) error {
	select {
	case <-t.done:
		return ports.ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	line, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	line = append(line, '\n')

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.writer.Write(line); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrTransportClosed, err)
	}
	return nil
}

// Receive returns the next envelope read from the stream.
func (t *Transport) Receive(ctx context.Context) (protocol.Envelope, error) {
	select {
	case env, ok := <-t.in:
		if !ok {
			return protocol.Envelope{}, ports.ErrTransportClosed
		}
		return env, nil
	case <-t.done:
		return protocol.Envelope{}, ports.ErrTransportClosed
	case <-ctx.Done():
		return protocol.Envelope{}, ctx.Err()
	}
}

// Close stops the transport and closes the underlying stream.
func (t *Transport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		if t.closer != nil {
			err = t.closer.Close()
		}
	})
	return err
}
