package core

// ToneOscillator produces the square wave on the speaker pin. It owns one
// compare channel and is driven entirely from that channel's interrupt.
type ToneOscillator struct {
	state   *SharedState
	channel CompareChannel
	pin     OutputPin
}

// NewToneOscillator binds the oscillator to its compare channel and pin
func NewToneOscillator(state *SharedState, channel CompareChannel, pin OutputPin) *ToneOscillator {
	return &ToneOscillator{
		state:   state,
		channel: channel,
		pin:     pin,
	}
}

// Arm schedules the first firing one half-period after now
func (o *ToneOscillator) Arm(now uint32) {
	o.channel.SetCompare(now + o.state.NotePeriod())
}

// HandleInterrupt is the compare-match handler. It always reschedules, so the
// toggle rate is already correct the instant sound is re-enabled, and touches
// the pin only while sound is enabled.
func (o *ToneOscillator) HandleInterrupt() {
	period := o.state.NotePeriod()
	if period == 0 {
		// Never stall the channel on a zero offset.
		period = MiddleA
	}
	rescheduleAfter(o.channel, period)

	if o.state.SoundEnabled() {
		o.pin.Toggle()
	}
}
