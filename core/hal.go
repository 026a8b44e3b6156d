package core

// CompareChannel is one compare-match unit on the free-running timer.
// Platform-specific implementations handle the actual registers.
type CompareChannel interface {
	// Compare returns the currently programmed match value
	Compare() uint32

	// SetCompare programs the next match value. The channel raises its
	// interrupt when the counter reaches it.
	SetCompare(value uint32)
}

// Counter exposes the free-running hardware tick counter
type Counter interface {
	// Now returns the current counter value in timer ticks
	Now() uint32
}

// OutputPin is the digital output the tone oscillator drives
type OutputPin interface {
	// Toggle inverts the pin level
	Toggle()
}

// Indicator is an optional on/off status output (an LED on real boards)
type Indicator interface {
	Set(on bool)
}

// rescheduleAfter advances a channel's match value by period ticks relative to
// its previous match, never to the live counter, so error does not accumulate.
func rescheduleAfter(ch CompareChannel, period uint32) {
	ch.SetCompare(ch.Compare() + period)
}
