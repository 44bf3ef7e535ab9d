package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Clock counts elapsed session seconds.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seconds atomic.Int64
}

// NewClock creates a clock at 0 seconds.
func NewClock() *Clock {
	return &Clock{}
}

// Tick advances the clock by one second and returns the new value.
func (c *Clock) Tick() int64 {
	return c.seconds.Add(1)
}

// Elapsed returns the elapsed seconds.
func (c *Clock) Elapsed() int64 {
	return c.seconds.Load()
}

// Reset sets the clock back to 0.
func (c *Clock) Reset() {
	c.seconds.Store(0)
}

// Formatted renders the elapsed time as MM:SS. Minutes are not wrapped, so
// 100 minutes renders as "100:00".
func (c *Clock) Formatted() string {
	return FormatElapsed(c.Elapsed())
}

// Run ticks once per interval until ctx is done.
func (c *Clock) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// FormatElapsed renders seconds as MM:SS.
func FormatElapsed(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
