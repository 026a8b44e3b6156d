package core

import (
	"errors"
	"sync/atomic"
)

// DefaultDeadTimeMS is the silence forced at the end of each played note so
// back-to-back notes of the same pitch stay distinct.
const DefaultDeadTimeMS = 20

var (
	ErrInvalidNote     = errors.New("note period must be non-zero")
	ErrInvalidDuration = errors.New("duration must be at least one tick")
)

// Phase is the sequencer's position within the current call
type Phase uint32

const (
	PhaseIdle       Phase = iota // no call in progress
	PhaseSounding                // play: note audible
	PhaseSilentTail              // play: dead time before the full duration
	PhaseSilent                  // rest
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSounding:
		return "sounding"
	case PhaseSilentTail:
		return "silent-tail"
	case PhaseSilent:
		return "silent"
	default:
		return "unknown"
	}
}

// SequencerConfig holds the optional parameters of a Sequencer
type SequencerConfig struct {
	// DeadTimeMS is subtracted from every played note. Zero selects
	// DefaultDeadTimeMS; use NoDeadTime to disable it.
	DeadTimeMS uint32

	// NoDeadTime plays notes for their full duration
	NoDeadTime bool

	// Yield is called between polls of the elapsed counter. Nil busy-waits,
	// which is what bare-metal targets want.
	Yield func()

	// Indicator is lit while a note is sounding. Optional.
	Indicator Indicator
}

// Sequencer is the blocking foreground controller. Play and Rest return only
// when the requested duration has elapsed on the 1ms counter. A Sequencer
// must be driven from a single goroutine.
type Sequencer struct {
	state     *SharedState
	tempo     TempoConfig
	deadTime  uint32
	yield     func()
	indicator Indicator
	phase     atomic.Uint32
}

// NewSequencer creates a sequencer over state, applying config defaults
func NewSequencer(state *SharedState, config SequencerConfig) *Sequencer {
	deadTime := config.DeadTimeMS
	if deadTime == 0 {
		deadTime = DefaultDeadTimeMS
	}
	if config.NoDeadTime {
		deadTime = 0
	}
	return &Sequencer{
		state:     state,
		deadTime:  deadTime,
		yield:     config.Yield,
		indicator: config.Indicator,
	}
}

// SetTempo sets the tempo in beats per minute
func (s *Sequencer) SetTempo(bpm uint32) error {
	if err := s.tempo.SetTempo(bpm); err != nil {
		return err
	}
	RecordTiming(EvtTempo, s.state.Elapsed.Total(), bpm, s.tempo.MsPerTick())
	return nil
}

// Tempo returns the current tempo configuration
func (s *Sequencer) Tempo() TempoConfig {
	return s.tempo
}

// DeadTimeMS returns the dead time applied to played notes
func (s *Sequencer) DeadTimeMS() uint32 {
	return s.deadTime
}

// Phase returns the current phase. Safe to call from any goroutine.
func (s *Sequencer) Phase() Phase {
	return Phase(s.phase.Load())
}

// Play sounds note (a half-period in timer ticks) for ticks musical ticks,
// silencing it DeadTimeMS before the end. Blocks until the full duration has
// elapsed.
func (s *Sequencer) Play(note uint32, ticks uint32) error {
	if note == 0 {
		return ErrInvalidNote
	}
	total, err := s.duration(ticks)
	if err != nil {
		return err
	}

	// A note shorter than the dead time gets no sounding phase at all.
	var sounding uint32
	if total > s.deadTime {
		sounding = total - s.deadTime
	}

	s.state.SetNote(note)
	s.state.Elapsed.Reset()
	s.setPhase(PhaseSounding)
	s.setIndicator(true)
	RecordTiming(EvtNoteOn, s.state.Elapsed.Total(), note, total)

	s.waitUntil(sounding)

	s.state.Silence()
	s.setPhase(PhaseSilentTail)
	s.setIndicator(false)
	RecordTiming(EvtDeadTime, s.state.Elapsed.Total(), s.state.Elapsed.Elapsed(), total)

	s.waitUntil(total)

	s.setPhase(PhaseIdle)
	RecordTiming(EvtDone, s.state.Elapsed.Total(), s.state.Elapsed.Elapsed(), total)
	return nil
}

// Rest keeps sound off for ticks musical ticks. Blocks until the duration has
// elapsed.
func (s *Sequencer) Rest(ticks uint32) error {
	total, err := s.duration(ticks)
	if err != nil {
		return err
	}

	s.state.Silence()
	s.state.Elapsed.Reset()
	s.setPhase(PhaseSilent)
	RecordTiming(EvtRest, s.state.Elapsed.Total(), 0, total)

	s.waitUntil(total)

	s.setPhase(PhaseIdle)
	RecordTiming(EvtDone, s.state.Elapsed.Total(), s.state.Elapsed.Elapsed(), total)
	return nil
}

func (s *Sequencer) duration(ticks uint32) (uint32, error) {
	if ticks == 0 {
		return 0, ErrInvalidDuration
	}
	return s.tempo.DurationMS(ticks)
}

// waitUntil spins until the elapsed counter reaches ms
func (s *Sequencer) waitUntil(ms uint32) {
	for s.state.Elapsed.Elapsed() < ms {
		if s.yield != nil {
			s.yield()
		}
	}
}

func (s *Sequencer) setPhase(p Phase) {
	s.phase.Store(uint32(p))
}

func (s *Sequencer) setIndicator(on bool) {
	if s.indicator != nil {
		s.indicator.Set(on)
	}
}
