// Package sim models the timer hardware the sequencer core runs on: a
// free-running 1MHz counter, compare-match channels that raise interrupts,
// and a speaker pin. It lets the core run unchanged on a desktop, either
// stepped deterministically or paced by a real-time driver.
package sim

import (
	"sync"
	"sync/atomic"
)

// Machine is a simulated free-running 32-bit counter with compare channels.
type Machine struct {
	mu       sync.Mutex // guards now, queue and channel compare values
	now      uint32
	queue    *pending
	channels []*Channel

	// advanceMu serialises Advance and Step callers. Handlers run while it
	// is held but mu is not, so they may reprogram channels.
	advanceMu sync.Mutex
}

// NewMachine creates a machine whose counter starts at start
func NewMachine(start uint32) *Machine {
	return &Machine{now: start}
}

// NewChannel adds a compare channel whose interrupt calls handler. The
// channel is idle until SetCompare is first called.
func (m *Machine) NewChannel() *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := &Channel{m: m, index: len(m.channels)}
	ch.entry.channel = ch
	m.channels = append(m.channels, ch)
	return ch
}

// Now returns the counter value. Implements core.Counter.
func (m *Machine) Now() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance runs the counter forward by ticks, firing every compare match on
// the way in deadline order.
func (m *Machine) Advance(ticks uint32) {
	m.advanceMu.Lock()
	defer m.advanceMu.Unlock()

	remaining := uint64(ticks)
	for {
		m.mu.Lock()
		ch, used, ok := m.popDue(remaining)
		if !ok {
			m.now += uint32(remaining)
			m.mu.Unlock()
			return
		}
		handler := ch.handler
		m.mu.Unlock()

		remaining -= used
		fire(ch, handler)
	}
}

// Step advances to the next compare match and fires every channel due at
// that tick. It reports false when no channel is armed.
func (m *Machine) Step() bool {
	m.advanceMu.Lock()
	defer m.advanceMu.Unlock()

	budget := uint64(1 << 32)
	fired := false
	for {
		m.mu.Lock()
		ch, _, ok := m.popDue(budget)
		var handler func()
		if ok {
			handler = ch.handler
		}
		m.mu.Unlock()
		if !ok {
			return fired
		}
		fire(ch, handler)
		fired = true

		// Drain only channels matching on the same tick
		budget = 0
	}
}

// Channel is one compare-match unit. Implements core.CompareChannel.
type Channel struct {
	m       *Machine
	index   int
	compare uint32
	armed   bool
	handler func()
	entry   pending
	fired   atomic.Uint64
}

// SetHandler installs the interrupt handler
func (c *Channel) SetHandler(handler func()) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	c.handler = handler
}

// Compare returns the programmed match value
func (c *Channel) Compare() uint32 {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return c.compare
}

// SetCompare programs the next match value and arms the channel. A value
// equal to the current count is due immediately.
func (c *Channel) SetCompare(value uint32) {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()

	if c.armed {
		c.m.remove(c)
	}
	c.compare = value
	c.armed = true
	c.entry.next = nil
	c.m.insert(&c.entry)
}

// Disarm stops the channel from firing
func (c *Channel) Disarm() {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if c.armed {
		c.m.remove(c)
		c.armed = false
	}
}

// Fired returns how many times the channel's interrupt has run
func (c *Channel) Fired() uint64 {
	return c.fired.Load()
}
