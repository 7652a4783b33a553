// Package websocket implements ports.Transport over a websocket connection,
// one JSON envelope per text message.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/aretw0/warp/pkg/ports"
	"github.com/aretw0/warp/pkg/protocol"
	backend "github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// DefaultReadLimit bounds a single incoming message.
const DefaultReadLimit = 4 << 20

// Transport is a websocket-backed ports.Transport.
type Transport struct {
	conn   *backend.Conn
	closed atomic.Bool
}

// New wraps an established connection.
func New(conn *backend.Conn) *Transport {
	conn.SetReadLimit(DefaultReadLimit)
	return &Transport{conn: conn}
}

// Dial opens a websocket to url (ws:// or wss://).
func Dial(ctx context.Context, url string, header http.Header) (*Transport, error) {
	conn, _, err := backend.Dial(ctx, url, &backend.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return New(conn), nil
}

// Dialer returns a ports.Dialer for url.
func Dialer(url string, header http.Header) ports.Dialer {
	return func(ctx context.Context) (ports.Transport, error) {
		return Dial(ctx, url, header)
	}
}

// Accept upgrades an HTTP request on the engine side.
func Accept(w http.ResponseWriter, r *http.Request, originPatterns ...string) (*Transport, error) {
	conn, err := backend.Accept(w, r, &backend.AcceptOptions{OriginPatterns: originPatterns})
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// Send writes env as a text message.
func (t *Transport) Send(ctx context.Context, env protocol.Envelope) error {
	if t.closed.Load() {
		return ports.ErrTransportClosed
	}
	if err := wsjson.Write(ctx, t.conn, env); err != nil {
		return t.wrap(ctx, err)
	}
	return nil
}

// Receive reads the next envelope. Cancelling ctx closes the connection.
func (t *Transport) Receive(ctx context.Context) (protocol.Envelope, error) {
	var env protocol.Envelope
	if t.closed.Load() {
		return env, ports.ErrTransportClosed
	}
	if err := wsjson.Read(ctx, t.conn, &env); err != nil {
		return protocol.Envelope{}, t.wrap(ctx, err)
	}
	return env, nil
}

func (t *Transport) wrap(ctx context.Context, err error) error {
	if ctx.Err() != nil && !t.closed.Load() {
		return ctx.Err()
	}
	if status := backend.CloseStatus(err); status != -1 {
		return fmt.Errorf("%w: closed with status %d", ports.ErrTransportClosed, status)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ports.ErrTransportClosed, err)
}

// Close drops the connection without waiting for the close handshake.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	return t.conn.CloseNow()
}
