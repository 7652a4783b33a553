package notify

import (
	"sync"
	"time"

	"github.com/aretw0/warp/pkg/ports"
)

// DefaultLimit is how many notifications a Center keeps by default.
const DefaultLimit = 20

// Item is a queued notification.
type Item struct {
	ID int
	ports.Notification
	At time.Time
}

// Center queues notifications until they are dismissed. Notify never
// blocks; past the limit the oldest item is dropped.
type Center struct {
	mu     sync.Mutex
	items  []Item
	nextID int
	limit  int
	now    func() time.Time
}

// CenterOption configures a Center.
type CenterOption func(*Center)

// WithLimit bounds the queue.
func WithLimit(n int) CenterOption {
	return func(c *Center) {
		c.limit = n
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) CenterOption {
	return func(c *Center) {
		c.now = now
	}
}

// NewCenter creates an empty queue.
func NewCenter(opts ...CenterOption) *Center {
	c := &Center{limit: DefaultLimit, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify implements ports.Notifier.
func (c *Center) Notify(n ports.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.items = append(c.items, Item{ID: c.nextID, Notification: n, At: c.now()})
	if c.limit > 0 && len(c.items) > c.limit {
		c.items = c.items[len(c.items)-c.limit:]
	}
}

// Pending returns the queued items, oldest first.
func (c *Center) Pending() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Item(nil), c.items...)
}

// Dismiss removes one item. It reports whether the item was queued.
func (c *Center) Dismiss(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, it := range c.items {
		if it.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// DismissAll empties the queue.
func (c *Center) DismissAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}
