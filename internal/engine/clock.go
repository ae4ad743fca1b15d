package engine

import "sync/atomic"

// Clock is a monotonic logical clock stamping delivered callbacks.
//
// Callback order is the only notion of time in a trace; wall-clock
// timestamps are never recorded. Nested schedulers can share one Clock
// (WithClock) so their callbacks interleave in a single sequence.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used to continue a recorded run.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
