//go:build rp2040

package main

import (
	"launchtone/core"
	"launchtone/song"

	"tinygo.org/x/drivers/tone"
)

// halfPeriod converts a note to timer ticks between speaker toggles
func halfPeriod(n tone.Note) uint32 {
	return core.HalfPeriodFromNanos(n.Period())
}

// bootTune is a rising arpeggio played once at power-up
var bootTune = song.Tune{
	BPM: 240,
	Steps: []song.Step{
		{Note: halfPeriod(tone.C5), Ticks: 1},
		{Note: halfPeriod(tone.E5), Ticks: 1},
		{Note: halfPeriod(tone.G5), Ticks: 1},
		{Note: halfPeriod(tone.C6), Ticks: 2},
	},
}
