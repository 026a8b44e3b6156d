package core

import (
	"errors"
	"testing"
)

func TestPlayTimeline(t *testing.T) {
	b := newBench(SequencerConfig{})
	if err := b.seq.SetTempo(120); err != nil {
		t.Fatalf("SetTempo failed: %v", err)
	}

	if err := b.seq.Play(MiddleA, 1); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if len(b.sound) != 125 {
		t.Fatalf("Expected play to wait 125ms, waited %d", len(b.sound))
	}
	if n := b.count(true); n != 105 {
		t.Errorf("Expected 105ms sounding, got %d", n)
	}
	for i := 0; i < 105; i++ {
		if !b.sound[i] {
			t.Fatalf("Sound off at %dms, expected the sounding phase to come first", i)
		}
		if b.phases[i] != PhaseSounding {
			t.Fatalf("Phase %v at %dms, expected %v", b.phases[i], i, PhaseSounding)
		}
	}
	for i := 105; i < 125; i++ {
		if b.sound[i] {
			t.Fatalf("Sound on at %dms during the dead time", i)
		}
		if b.phases[i] != PhaseSilentTail {
			t.Fatalf("Phase %v at %dms, expected %v", b.phases[i], i, PhaseSilentTail)
		}
	}

	if b.seq.Phase() != PhaseIdle {
		t.Errorf("Expected idle after play, got %v", b.seq.Phase())
	}
	if b.state.SoundEnabled() {
		t.Error("Sound still enabled after play returned")
	}
	if b.state.NotePeriod() != MiddleA {
		t.Errorf("Expected note period %d, got %d", MiddleA, b.state.NotePeriod())
	}
}

func TestPlayIndicator(t *testing.T) {
	b := newBench(SequencerConfig{})
	_ = b.seq.SetTempo(120)
	_ = b.seq.Play(MiddleA, 2)

	if len(b.indicator.calls) != 2 || !b.indicator.calls[0] || b.indicator.calls[1] {
		t.Errorf("Expected indicator on then off, got %v", b.indicator.calls)
	}
}

func TestRestTimeline(t *testing.T) {
	b := newBench(SequencerConfig{})
	_ = b.seq.SetTempo(120)

	if err := b.seq.Rest(1); err != nil {
		t.Fatalf("Rest failed: %v", err)
	}

	if len(b.sound) != 125 {
		t.Fatalf("Expected rest to wait 125ms, waited %d", len(b.sound))
	}
	if n := b.count(true); n != 0 {
		t.Errorf("Sound enabled for %dms during rest", n)
	}
	for i, p := range b.phases {
		if p != PhaseSilent {
			t.Fatalf("Phase %v at %dms, expected %v", p, i, PhaseSilent)
		}
	}
	if len(b.indicator.calls) != 0 {
		t.Errorf("Rest touched the indicator: %v", b.indicator.calls)
	}
}

func TestRestSilencesSoundingNote(t *testing.T) {
	b := newBench(SequencerConfig{})
	_ = b.seq.SetTempo(120)
	b.state.SetNote(MiddleA)

	_ = b.seq.Rest(1)

	if b.sound[0] {
		t.Error("Sound was still enabled on the first millisecond of rest")
	}
}

func TestPlayAndRestSameDuration(t *testing.T) {
	for _, ticks := range []uint32{1, 2, 3, 8} {
		b := newBench(SequencerConfig{})
		_ = b.seq.SetTempo(133)

		_ = b.seq.Play(MiddleA, ticks)
		played := len(b.sound)
		b.reset()
		_ = b.seq.Rest(ticks)
		rested := len(b.sound)

		if played != rested {
			t.Errorf("ticks=%d: play waited %dms, rest waited %dms", ticks, played, rested)
		}
	}
}

func TestBeatDuration(t *testing.T) {
	for _, bpm := range []uint32{1, 7, 60, 97, 120, 133, 200, 1000, 15000} {
		b := newBench(SequencerConfig{})
		if err := b.seq.SetTempo(bpm); err != nil {
			t.Fatalf("SetTempo(%d) failed: %v", bpm, err)
		}
		_ = b.seq.Play(MiddleA, TicksPerBeat)

		exact := 60000 / bpm
		got := uint32(len(b.sound))
		if got > exact || exact-got >= TicksPerBeat {
			t.Errorf("bpm=%d: beat lasted %dms, expected within %d of %dms", bpm, got, TicksPerBeat, exact)
		}
	}
}

func TestDeadTimeClamp(t *testing.T) {
	b := newBench(SequencerConfig{DeadTimeMS: 200})
	_ = b.seq.SetTempo(120)

	if err := b.seq.Play(MiddleA, 1); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if len(b.sound) != 125 {
		t.Errorf("Expected 125ms total, got %d", len(b.sound))
	}
	if n := b.count(true); n != 0 {
		t.Errorf("Note shorter than the dead time sounded for %dms", n)
	}
}

func TestDeadTimeClampAtFastTempo(t *testing.T) {
	b := newBench(SequencerConfig{})
	_ = b.seq.SetTempo(15000)

	_ = b.seq.Play(MiddleA, 1)

	if len(b.sound) != 1 || b.count(true) != 0 {
		t.Errorf("Expected 1ms of silence, got %v", b.sound)
	}
}

func TestNoDeadTime(t *testing.T) {
	b := newBench(SequencerConfig{NoDeadTime: true})
	_ = b.seq.SetTempo(120)

	_ = b.seq.Play(MiddleA, 1)

	if n := b.count(true); n != 125 {
		t.Errorf("Expected 125ms sounding without dead time, got %d", n)
	}
	if b.seq.DeadTimeMS() != 0 {
		t.Errorf("Expected dead time 0, got %d", b.seq.DeadTimeMS())
	}
}

func TestSequencerDefaults(t *testing.T) {
	b := newBench(SequencerConfig{})
	if b.seq.DeadTimeMS() != DefaultDeadTimeMS {
		t.Errorf("Expected default dead time %d, got %d", DefaultDeadTimeMS, b.seq.DeadTimeMS())
	}
	if b.seq.Phase() != PhaseIdle {
		t.Errorf("Expected idle, got %v", b.seq.Phase())
	}
}

func TestSequencerErrors(t *testing.T) {
	b := newBench(SequencerConfig{})

	if err := b.seq.Play(MiddleA, 1); !errors.Is(err, ErrTempoNotSet) {
		t.Errorf("Expected ErrTempoNotSet, got %v", err)
	}
	if err := b.seq.Rest(1); !errors.Is(err, ErrTempoNotSet) {
		t.Errorf("Expected ErrTempoNotSet, got %v", err)
	}

	_ = b.seq.SetTempo(120)

	if err := b.seq.Play(0, 1); !errors.Is(err, ErrInvalidNote) {
		t.Errorf("Expected ErrInvalidNote, got %v", err)
	}
	if err := b.seq.Play(MiddleA, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("Expected ErrInvalidDuration, got %v", err)
	}
	if err := b.seq.Rest(0); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("Expected ErrInvalidDuration, got %v", err)
	}
	if err := b.seq.SetTempo(0); !errors.Is(err, ErrInvalidTempo) {
		t.Errorf("Expected ErrInvalidTempo, got %v", err)
	}

	if len(b.sound) != 0 {
		t.Errorf("Rejected calls waited %dms", len(b.sound))
	}
	if b.state.SoundEnabled() {
		t.Error("Rejected play enabled sound")
	}
}

func TestSequencerAcrossCounterWrap(t *testing.T) {
	b := newBench(SequencerConfig{})
	b.state.Elapsed.count.Store(0xFFFFFFC0)
	_ = b.seq.SetTempo(120)

	if err := b.seq.Play(MiddleA, 1); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if len(b.sound) != 125 || b.count(true) != 105 {
		t.Errorf("Expected 125ms with 105ms sounding across the wrap, got %d/%d", len(b.sound), b.count(true))
	}
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		PhaseIdle:       "idle",
		PhaseSounding:   "sounding",
		PhaseSilentTail: "silent-tail",
		PhaseSilent:     "silent",
		Phase(99):       "unknown",
	}
	for p, want := range tests {
		if p.String() != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, p.String(), want)
		}
	}
}
