package channel

import "sync"

// Scope groups the futures issued on behalf of one owner, such as a node on
// the canvas. Closing the scope cancels everything still pending in it.
type Scope struct {
	name string

	mu      sync.Mutex
	futures map[*Future]struct{}
	closed  bool
}

// NewScope creates an open scope. name only appears in logs.
func NewScope(name string) *Scope {
	return &Scope{name: name, futures: make(map[*Future]struct{})}
}

// Name returns the scope label.
func (s *Scope) Name() string { return s.name }

// Pending returns the number of futures still waiting in the scope.
func (s *Scope) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.futures)
}

// Closed reports whether Close was called.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close cancels every pending future. Later requests in the scope fail with
// ErrCancelled.
func (s *Scope) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	pending := make([]*Future, 0, len(s.futures))
	for f := range s.futures {
		pending = append(pending, f)
	}
	s.mu.Unlock()

	for _, f := range pending {
		f.Cancel()
	}
}

func (s *Scope) track(f *Future) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.futures[f] = struct{}{}
	return true
}

func (s *Scope) release(f *Future) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.futures, f)
}
