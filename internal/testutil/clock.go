package testutil

import "sync"

// ManualClock is a game-time clock driven by the test.
//
// It implements event.Clock. Unlike slots.GameTime it is not backed by a
// slot, so saving and restoring slots never moves it.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu  sync.Mutex
	now float64
}

// NewManualClock creates a clock reading start.
func NewManualClock(start float64) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current game time in days.
func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by delta days and returns the new time.
func (c *ManualClock) Advance(delta float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += delta
	return c.now
}

// Set jumps to t. Going backwards is allowed; tests use it to replay.
func (c *ManualClock) Set(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Reset sets the clock back to 0.
func (c *ManualClock) Reset() {
	c.Set(0)
}
