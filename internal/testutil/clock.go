package testutil

import (
	"sync"
	"time"
)

// StepClock provides a thread-safe deterministic time source for tests.
//
// Each call to Now returns the current instant and advances it by the
// step, so successive timestamps are distinct and ordered without
// sleeping. Advance jumps the clock forward explicitly, which is how
// lost-run tests age a heartbeat past the threshold.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepClock creates a clock starting at start, advancing by step per
// Now call. A zero step freezes the clock.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{now: start.UTC(), step: step}
}

// Now returns the current instant and advances the clock by the step.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Advance jumps the clock forward by d without returning a timestamp.
func (c *StepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Current returns the current instant without advancing.
func (c *StepClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}
