package core

import "sync/atomic"

// SharedState holds every variable shared between the foreground sequencer
// and the two timer interrupt handlers.
//
// Writer discipline:
//   - soundEnabled, notePeriod: sequencer only; read by ToneOscillator
//   - Elapsed.count: ElapsedCounter interrupt only; read by the sequencer
//   - Elapsed.epoch: sequencer only
type SharedState struct {
	soundEnabled atomic.Bool
	notePeriod   atomic.Uint32

	Elapsed ElapsedCounter
}

// NewSharedState returns state with sound disabled and the note preset to
// MiddleA so the oscillator always has a valid period.
func NewSharedState() *SharedState {
	s := &SharedState{}
	s.notePeriod.Store(MiddleA)
	return s
}

// SetNote selects a note half-period and enables sound as one step with
// respect to the oscillator interrupt.
func (s *SharedState) SetNote(period uint32) {
	state := disableInterrupts()
	s.notePeriod.Store(period)
	s.soundEnabled.Store(true)
	restoreInterrupts(state)
}

// Silence disables sound output. The note period is kept so the oscillator
// continues rescheduling at the same rate.
func (s *SharedState) Silence() {
	s.soundEnabled.Store(false)
}

// SoundEnabled reports whether the oscillator should toggle the speaker
func (s *SharedState) SoundEnabled() bool {
	return s.soundEnabled.Load()
}

// NotePeriod returns the current half-period in timer ticks
func (s *SharedState) NotePeriod() uint32 {
	return s.notePeriod.Load()
}
