package sim

import (
	"sync"
	"sync/atomic"
)

// Pin is a simulated digital output. Implements core.OutputPin.
type Pin struct {
	clock *Machine
	level atomic.Bool

	mu      sync.Mutex
	record  bool
	toggles []uint32 // counter value at each toggle
	count   uint64
}

// NewPin creates a low pin whose toggles are timestamped by clock
func NewPin(clock *Machine) *Pin {
	return &Pin{clock: clock}
}

// RecordToggles turns timestamp capture on or off. Off by default, since a
// long real-time run would otherwise grow without bound.
func (p *Pin) RecordToggles(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record = enabled
}

// Toggle inverts the pin level
func (p *Pin) Toggle() {
	p.level.Store(!p.level.Load())

	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	if p.record {
		p.toggles = append(p.toggles, p.clock.Now())
	}
}

// Level returns the current pin level
func (p *Pin) Level() bool {
	return p.level.Load()
}

// ToggleCount returns the number of toggles since creation or Clear
func (p *Pin) ToggleCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Toggles returns a copy of the recorded toggle timestamps
func (p *Pin) Toggles() []uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint32(nil), p.toggles...)
}

// Clear drops recorded toggles and resets the count
func (p *Pin) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toggles = nil
	p.count = 0
}

// LED is a simulated status output. Implements core.Indicator.
type LED struct {
	on      atomic.Bool
	changes atomic.Uint64
	onSet   func(bool)
}

// NewLED creates an LED that calls onSet, if non-nil, on every change
func NewLED(onSet func(bool)) *LED {
	return &LED{onSet: onSet}
}

// Set switches the LED
func (l *LED) Set(on bool) {
	if l.on.Swap(on) != on {
		l.changes.Add(1)
		if l.onSet != nil {
			l.onSet(on)
		}
	}
}

// On reports whether the LED is lit
func (l *LED) On() bool {
	return l.on.Load()
}

// Changes returns the number of on/off transitions
func (l *LED) Changes() uint64 {
	return l.changes.Load()
}
