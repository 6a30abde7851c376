package clock

import (
	"sync"
	"time"

	"github.com/layer-3/smartwallet/ports"
)

// SystemClock reads the wall clock
type SystemClock struct{}

// NewSystemClock creates a wall clock
func NewSystemClock() ports.Clock {
	return SystemClock{}
}

// Now returns the current time
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock returns a settable instant, for tests and replays
type FixedClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFixedClock creates a clock stopped at now
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

// Now returns the stored instant
func (c *FixedClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set moves the clock to t
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
