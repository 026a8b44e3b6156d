package sim

import "launchtone/core"

// pending is a compare channel waiting for its match. Entries form a list
// sorted by how far ahead of the counter their match value lies.
type pending struct {
	channel *Channel
	next    *pending
}

// dueIn returns the ticks from now until the channel matches
func (p *pending) dueIn(now uint32) uint32 {
	return p.channel.compare - now
}

// insert adds p in deadline order. Equal deadlines keep channel index order
// so lower-numbered channels win ties, as on a real interrupt controller.
func (m *Machine) insert(p *pending) {
	due := p.dueIn(m.now)
	if m.queue == nil || before(p, due, m.queue, m.now) {
		p.next = m.queue
		m.queue = p
		return
	}

	current := m.queue
	for current.next != nil && !before(p, due, current.next, m.now) {
		current = current.next
	}
	p.next = current.next
	current.next = p
}

func before(p *pending, due uint32, other *pending, now uint32) bool {
	otherDue := other.dueIn(now)
	if due != otherDue {
		return due < otherDue
	}
	return p.channel.index < other.channel.index
}

// remove unlinks the entry for ch, if queued
func (m *Machine) remove(ch *Channel) {
	if m.queue == nil {
		return
	}
	if m.queue.channel == ch {
		m.queue = m.queue.next
		return
	}
	for current := m.queue; current.next != nil; current = current.next {
		if current.next.channel == ch {
			current.next = current.next.next
			return
		}
	}
}

// popDue removes and returns the head entry if it matches within budget
// ticks, advancing the counter to its match value. Must hold m.mu.
func (m *Machine) popDue(budget uint64) (*Channel, uint64, bool) {
	head := m.queue
	if head == nil {
		return nil, 0, false
	}
	due := uint64(head.dueIn(m.now))
	if due > budget {
		return nil, 0, false
	}
	m.queue = head.next
	head.next = nil
	m.now = head.channel.compare
	head.channel.armed = false
	return head.channel, due, true
}

// fire runs a channel's handler with interrupts masked
func fire(ch *Channel, handler func()) {
	if handler == nil {
		return
	}
	state := core.EnterInterrupt()
	handler()
	core.ExitInterrupt(state)
	ch.fired.Add(1)
}
