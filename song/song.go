// Package song holds the tunes the sequencer plays and the interface they
// are played through.
package song

import "launchtone/core"

// Player runs sequencer operations. It is satisfied by *core.Sequencer for
// local playback and by the host link for a remote board. Every call blocks
// until the operation has finished.
type Player interface {
	SetTempo(bpm uint32) error
	Play(note uint32, ticks uint32) error
	Rest(ticks uint32) error
}

var _ Player = (*core.Sequencer)(nil)

// DemoBPM is the tempo of the built-in tune
const DemoBPM = 120

// Step is one entry of a tune. Note 0 is a rest.
type Step struct {
	Note  uint32
	Ticks uint32
}

// Tune is a tempo and its steps
type Tune struct {
	BPM   uint32
	Steps []Step
}

// DemoTune is the built-in tune: pairs of sixteenth-note A4s separated by
// rests, ending on two single notes.
var DemoTune = Tune{
	BPM: DemoBPM,
	Steps: []Step{
		{core.MiddleA, 1}, {core.MiddleA, 1}, {0, 1},
		{core.MiddleA, 1}, {core.MiddleA, 1}, {0, 1},
		{core.MiddleA, 1}, {core.MiddleA, 1}, {0, 1},
		{core.MiddleA, 1}, {core.MiddleA, 1}, {0, 1},
		{core.MiddleA, 1}, {0, 1},
		{core.MiddleA, 1}, {0, 1},
	},
}

// Play sets the tune's tempo and plays every step, stopping at the first
// error
func (t Tune) Play(p Player) error {
	if err := p.SetTempo(t.BPM); err != nil {
		return err
	}
	for _, s := range t.Steps {
		var err error
		if s.Note == 0 {
			err = p.Rest(s.Ticks)
		} else {
			err = p.Play(s.Note, s.Ticks)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Ticks returns the length of the tune in musical ticks
func (t Tune) Ticks() uint32 {
	var total uint32
	for _, s := range t.Steps {
		total += s.Ticks
	}
	return total
}

// Demo plays DemoTune on p
func Demo(p Player) error {
	return DemoTune.Play(p)
}
