package core

import "sync/atomic"

// ElapsedCounter is the 1ms time base. The interrupt handler is the only
// writer of count; the foreground resets by moving its epoch instead, which
// keeps a single writer per field and makes Elapsed wrap-tolerant.
type ElapsedCounter struct {
	count   atomic.Uint32
	epoch   atomic.Uint32
	channel CompareChannel
}

// Attach binds the counter to its compare channel. The channel must not be
// the one used by the ToneOscillator.
func (c *ElapsedCounter) Attach(channel CompareChannel) {
	c.channel = channel
}

// Arm schedules the first tick one millisecond after now
func (c *ElapsedCounter) Arm(now uint32) {
	c.channel.SetCompare(now + TimerFromUS(ElapsedIntervalUS))
}

// HandleInterrupt is the compare-match handler: reschedule by exactly one
// millisecond, then count it.
func (c *ElapsedCounter) HandleInterrupt() {
	rescheduleAfter(c.channel, TimerFromUS(ElapsedIntervalUS))
	c.count.Add(1)
}

// Reset makes Elapsed read zero from now on
func (c *ElapsedCounter) Reset() {
	c.epoch.Store(c.count.Load())
}

// Elapsed returns milliseconds counted since the last Reset
func (c *ElapsedCounter) Elapsed() uint32 {
	return c.count.Load() - c.epoch.Load()
}

// Total returns milliseconds counted since the counter was armed
func (c *ElapsedCounter) Total() uint32 {
	return c.count.Load()
}
