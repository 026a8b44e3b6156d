// Package audio plays the simulated speaker pin through the sound card. The
// sound card's sample clock paces the simulated timer, so the notes are heard
// with the same timing the firmware produces on hardware.
package audio

import (
	"encoding/binary"
	"math"
	"sync"

	"launchtone/core"
	"launchtone/sim"
)

const (
	DefaultSampleRate = 44100
	DefaultAmplitude  = 0.25

	// dcBlockPole sets the high-pass corner at roughly 35Hz for 44.1kHz, so
	// a speaker pin parked high between notes decays to silence.
	dcBlockPole = 0.995

	bytesPerSample = 4 // mono float32
)

// Renderer turns the speaker pin level into PCM. Each sample advances the
// machine by the timer ticks that one sample lasts.
type Renderer struct {
	mu         sync.Mutex
	machine    *sim.Machine
	pin        *sim.Pin
	sampleRate uint32
	amplitude  float32

	carry  uint32 // fractional ticks, in 1/sampleRate units
	prevX  float32
	prevY  float32
	primed bool
}

// NewRenderer creates a renderer for board. sampleRate 0 selects
// DefaultSampleRate, amplitude 0 selects DefaultAmplitude.
func NewRenderer(board *sim.Board, sampleRate int, amplitude float32) *Renderer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if amplitude == 0 {
		amplitude = DefaultAmplitude
	}
	return &Renderer{
		machine:    board.Machine,
		pin:        board.Speaker,
		sampleRate: uint32(sampleRate),
		amplitude:  amplitude,
	}
}

// SampleRate returns the output rate in Hz
func (r *Renderer) SampleRate() int {
	return int(r.sampleRate)
}

// Render fills samples, advancing simulated time by len(samples) sample
// periods
func (r *Renderer) Render(samples []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range samples {
		r.carry += core.TimerFreq
		ticks := r.carry / r.sampleRate
		r.carry -= ticks * r.sampleRate
		r.machine.Advance(ticks)

		x := -r.amplitude
		if r.pin.Level() {
			x = r.amplitude
		}
		if !r.primed {
			r.prevX = x
			r.primed = true
		}
		y := x - r.prevX + dcBlockPole*r.prevY
		r.prevX = x
		r.prevY = y
		samples[i] = y
	}
}

// Read implements io.Reader producing little-endian float32 mono samples.
// Only whole samples are written.
func (r *Renderer) Read(p []byte) (int, error) {
	n := len(p) / bytesPerSample
	if n == 0 {
		return 0, nil
	}

	samples := make([]float32, n)
	r.Render(samples)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(s))
	}
	return n * bytesPerSample, nil
}
