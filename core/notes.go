package core

import "errors"

// Note half-periods in timer ticks (TimerFreq / frequency / 2)
const (
	MiddleA uint32 = 1136 // A4, 440Hz
)

var ErrUnknownNote = errors.New("unknown note name")

// HalfPeriodFromHz returns the half-period in timer ticks for a frequency
func HalfPeriodFromHz(hz uint32) uint32 {
	if hz == 0 {
		return 0
	}
	return TimerFreq / hz / 2
}

// HalfPeriodFromNanos converts a full wave period in nanoseconds to a
// half-period in timer ticks
func HalfPeriodFromNanos(ns uint64) uint32 {
	return uint32(ns * TimerFreq / 1000000000 / 2)
}

// Pitch ratios within an octave, 0x8000 = 1.0, descending by semitone.
var semitoneRatios = [12]uint32{
	32768,
	30929,
	29193,
	27554,
	26008,
	24548,
	23170,
	21870,
	20643,
	19484,
	18390,
	17358,
}

// NoteHalfPeriod returns the half-period in timer ticks for a MIDI note
// number (69 = A4 = 440Hz). Notes below 9 return 0.
func NoteHalfPeriod(midi uint8) uint32 {
	if midi < 9 {
		return 0
	}
	octave := uint32(midi-9) / 12
	semitone := uint32(midi-9) - octave*12

	// Half-period in ns of A at 13.75Hz, shifted to the note's octave.
	base := uint64(36363636 >> octave)
	ns := base * uint64(semitoneRatios[semitone]) / 32768
	return uint32(ns * TimerFreq / 1000000000)
}

// ParseNote converts a note name such as "A4", "C#5" or "Bb3" to a MIDI
// note number.
func ParseNote(name string) (uint8, error) {
	if len(name) < 2 {
		return 0, ErrUnknownNote
	}

	var semitone int
	switch name[0] {
	case 'C', 'c':
		semitone = 0
	case 'D', 'd':
		semitone = 2
	case 'E', 'e':
		semitone = 4
	case 'F', 'f':
		semitone = 5
	case 'G', 'g':
		semitone = 7
	case 'A', 'a':
		semitone = 9
	case 'B', 'b':
		semitone = 11
	default:
		return 0, ErrUnknownNote
	}

	rest := name[1:]
	switch rest[0] {
	case '#', 's', 'S':
		semitone++
		rest = rest[1:]
	case 'b':
		semitone--
		rest = rest[1:]
	}

	if len(rest) != 1 || rest[0] < '0' || rest[0] > '8' {
		return 0, ErrUnknownNote
	}
	octave := int(rest[0] - '0')

	midi := (octave+1)*12 + semitone
	if midi < 9 || midi > 127 {
		return 0, ErrUnknownNote
	}
	return uint8(midi), nil
}
