package channel

import (
	"context"
	"sync"
	"time"
)

// Future is the pending result of a single request.
type Future struct {
	request   string
	event     string
	requestID string
	scope     *Scope
	sentAt    time.Time

	tmu   sync.Mutex
	timer *time.Timer

	ch   *Channel
	once sync.Once
	done chan struct{}
	data map[string]any
	err  error
}

func newFuture(c *Channel, request, event, requestID string) *Future {
	return &Future{
		request:   request,
		event:     event,
		requestID: requestID,
		ch:        c,
		done:      make(chan struct{}),
		sentAt:    time.Now(),
	}
}

// Event returns the response event the future waits for.
func (f *Future) Event() string { return f.event }

// RequestID returns the correlation id, empty in first-arrival mode and for raw awaits.
func (f *Future) RequestID() string { return f.requestID }

// Done is closed once the future is resolved, failed or cancelled.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the future completes or ctx is done.
// A ctx error leaves the future pending.
func (f *Future) Wait(ctx context.Context) (map[string]any, error) {
	select {
	case <-f.done:
		return f.data, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Poll returns the outcome without blocking. done is false while pending.
func (f *Future) Poll() (data map[string]any, done bool, err error) {
	select {
	case <-f.done:
		return f.data, true, f.err
	default:
		return nil, false, nil
	}
}

// Cancel fails the future with ErrCancelled and stops waiting for its response.
// It is a no-op on a completed future.
func (f *Future) Cancel() {
	f.fail(ErrCancelled)
}

// complete settles the future. It reports whether this call won.
func (f *Future) complete(data map[string]any, err error) bool {
	won := false
	f.once.Do(func() {
		won = true
		f.data, f.err = data, err
		close(f.done)
	})
	if won {
		f.tmu.Lock()
		if f.timer != nil {
			f.timer.Stop()
		}
		f.tmu.Unlock()
	}
	return won
}

// startTimer fails the future with context.DeadlineExceeded after d.
func (f *Future) startTimer(d time.Duration) {
	f.tmu.Lock()
	defer f.tmu.Unlock()
	select {
	case <-f.done:
		return
	default:
	}
	f.timer = time.AfterFunc(d, func() { f.fail(context.DeadlineExceeded) })
}

// abandon settles a future that is not, or no longer, registered.
func (f *Future) abandon(err error) {
	if f.complete(nil, err) && f.scope != nil {
		f.scope.release(f)
	}
}

func (f *Future) fail(err error) {
	if f.complete(nil, err) {
		f.ch.forget(f)
		if f.scope != nil {
			f.scope.release(f)
		}
	}
}
