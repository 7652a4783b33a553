package memory

import (
	"context"
	"sync"

	"github.com/aretw0/warp/pkg/ports"
	"github.com/aretw0/warp/pkg/protocol"
)

// Pipe is one end of an in-memory duplex transport.
type Pipe struct {
	in        <-chan protocol.Envelope
	out       chan<- protocol.Envelope
	done      chan struct{}
	closeOnce *sync.Once
}

// NewPipe returns two connected ends. Closing either end closes both.
// buffer is the number of envelopes each direction can hold unread.
func NewPipe(buffer int) (*Pipe, *Pipe) {
	ab := make(chan protocol.Envelope, buffer)
	ba := make(chan protocol.Envelope, buffer)
	done := make(chan struct{})
	once := &sync.Once{}
	a := &Pipe{in: ba, out: ab, done: done, closeOnce: once}
	b := &Pipe{in: ab, out: ba, done: done, closeOnce: once}
	return a, b
}

// Send delivers env to the other end.
func (p *Pipe) Send(ctx context.Context, env protocol.Envelope) error {
	select {
	case <-p.done:
		return ports.ErrTransportClosed
	default:
	}
	select {
	case p.out <- env:
		return nil
	case <-p.done:
		return ports.ErrTransportClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive waits for the next envelope from the other end.
func (p *Pipe) Receive(ctx context.Context) (protocol.Envelope, error) {
	select {
	case env := <-p.in:
		return env, nil
	case <-p.done:
		return protocol.Envelope{}, ports.ErrTransportClosed
	case <-ctx.Done():
		return protocol.Envelope{}, ctx.Err()
	}
}

// Close shuts down both ends.
func (p *Pipe) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}
