package ports

import (
	"context"
	"errors"

	"github.com/aretw0/warp/pkg/protocol"
)

// ErrTransportClosed is returned by Send and Receive once the transport is closed
// or the peer has gone away.
var ErrTransportClosed = errors.New("transport closed")

// Transport is one live connection to the engine.
// Send and Receive may be called from different goroutines, but each of them
// must only be called from one goroutine at a time.
type Transport interface {
	Send(ctx context.Context, env protocol.Envelope) error
	Receive(ctx context.Context) (protocol.Envelope, error)
	Close() error
}

// Dialer opens a new Transport. It is called again after a connection loss.
type Dialer func(ctx context.Context) (Transport, error)
