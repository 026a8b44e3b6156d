package core

import "errors"

// TicksPerBeat subdivides a beat into sequencing ticks. Assuming 4/4 time,
// four ticks per beat makes one tick a sixteenth note.
const TicksPerBeat = 4

var (
	ErrInvalidTempo     = errors.New("tempo must be at least 1 bpm")
	ErrTempoTooFast     = errors.New("tempo too fast for 1ms resolution")
	ErrTempoNotSet      = errors.New("tempo not set")
	ErrDurationOverflow = errors.New("duration exceeds counter range")
)

// TempoConfig converts musical ticks to milliseconds
type TempoConfig struct {
	bpm       uint32
	msPerTick uint32
}

// SetTempo recomputes milliseconds per tick. The integer truncation is an
// accepted source of drift.
func (t *TempoConfig) SetTempo(bpm uint32) error {
	if bpm == 0 {
		return ErrInvalidTempo
	}
	msPerTick := 60000 / (uint64(TicksPerBeat) * uint64(bpm))
	if msPerTick == 0 {
		return ErrTempoTooFast
	}
	t.bpm = bpm
	t.msPerTick = uint32(msPerTick)
	return nil
}

// BPM returns the last tempo accepted by SetTempo, 0 if none
func (t *TempoConfig) BPM() uint32 {
	return t.bpm
}

// MsPerTick returns the duration of one tick in milliseconds
func (t *TempoConfig) MsPerTick() uint32 {
	return t.msPerTick
}

// DurationMS converts a tick count to milliseconds
func (t *TempoConfig) DurationMS(ticks uint32) (uint32, error) {
	if t.msPerTick == 0 {
		return 0, ErrTempoNotSet
	}
	ms := uint64(ticks) * uint64(t.msPerTick)
	if ms > 0xFFFFFFFF {
		return 0, ErrDurationOverflow
	}
	return uint32(ms), nil
}
