package channel

import (
	"context"
	"time"
)

// Backoff is an exponential reconnect policy.
type Backoff struct {
	Initial time.Duration
	Factor  float64
	Max     time.Duration
}

// DefaultBackoff starts at 500ms, doubles, and caps at 30s.
var DefaultBackoff = Backoff{Initial: 500 * time.Millisecond, Factor: 2, Max: 30 * time.Second}

// Delay returns the wait before the given zero-based attempt.
func (b Backoff) Delay(attempt int) time.Duration {
	if b.Initial <= 0 {
		return 0
	}
	factor := b.Factor
	if factor < 1 {
		factor = 1
	}
	delay := float64(b.Initial)
	for i := 0; i < attempt; i++ {
		delay *= factor
		if b.Max > 0 && delay >= float64(b.Max) {
			return b.Max
		}
	}
	return time.Duration(delay)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
