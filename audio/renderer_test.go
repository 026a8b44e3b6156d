package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"launchtone/core"
	"launchtone/sim"
)

func signChanges(samples []float32) int {
	n := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] < 0) != (samples[i] < 0) {
			n++
		}
	}
	return n
}

func TestRendererAdvancesMachine(t *testing.T) {
	board := sim.NewBoard(0)
	r := NewRenderer(board, 44100, 0)

	r.Render(make([]float32, 44100))

	if now := board.Machine.Now(); now != core.TimerFreq {
		t.Errorf("One second of samples advanced %d ticks, expected %d", now, core.TimerFreq)
	}
	if board.State.Elapsed.Total() != 1000 {
		t.Errorf("Expected 1000ms counted, got %d", board.State.Elapsed.Total())
	}
}

func TestRendererTone(t *testing.T) {
	board := sim.NewBoard(0)
	r := NewRenderer(board, 44100, 0.5)
	board.State.SetNote(core.MiddleA)

	samples := make([]float32, 44100)
	r.Render(samples)

	toggles := board.Speaker.ToggleCount()
	if toggles != 880 {
		t.Errorf("Expected 880 toggles in one second of A4, got %d", toggles)
	}
	if n := signChanges(samples); n < 878 || n > 882 {
		t.Errorf("Expected about 880 zero crossings, got %d", n)
	}
}

func TestRendererSilenceDecays(t *testing.T) {
	board := sim.NewBoard(0)
	r := NewRenderer(board, 44100, 0.5)
	board.State.SetNote(core.MiddleA)
	r.Render(make([]float32, 4410))
	board.State.Silence()

	samples := make([]float32, 22050)
	r.Render(samples)

	for _, s := range samples[len(samples)-100:] {
		if math.Abs(float64(s)) > 0.01 {
			t.Fatalf("Silent output did not settle: %f", s)
		}
	}
}

func TestRendererRead(t *testing.T) {
	board := sim.NewBoard(0)
	r := NewRenderer(board, 48000, 0)
	board.State.SetNote(core.MiddleA)

	buf := make([]byte, 4*480+3)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != 4*480 {
		t.Errorf("Expected %d bytes, got %d", 4*480, n)
	}
	if now := board.Machine.Now(); now != 10000 {
		t.Errorf("10ms of samples advanced %d ticks", now)
	}

	var peak float32
	for i := 0; i < n; i += 4 {
		s := math.Float32frombits(binary.LittleEndian.Uint32(buf[i:]))
		if s > peak {
			peak = s
		}
	}
	if peak <= 0 || peak > 2*DefaultAmplitude {
		t.Errorf("Unexpected peak %f", peak)
	}

	if n, _ := r.Read(make([]byte, 3)); n != 0 {
		t.Errorf("Read of a partial sample returned %d bytes", n)
	}
}

func TestRendererDefaults(t *testing.T) {
	r := NewRenderer(sim.NewBoard(0), 0, 0)
	if r.SampleRate() != DefaultSampleRate {
		t.Errorf("Expected default rate %d, got %d", DefaultSampleRate, r.SampleRate())
	}
}
