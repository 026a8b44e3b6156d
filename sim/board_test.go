package sim

import (
	"context"
	"runtime"
	"testing"
	"time"

	"launchtone/core"
)

func TestBoardPlayToggleCadence(t *testing.T) {
	b := NewBoard(0)
	b.Speaker.RecordToggles(true)
	seq := b.NewSequencer(core.SequencerConfig{}, true)
	_ = seq.SetTempo(120)

	if err := seq.Play(core.MiddleA, 1); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	toggles := b.Speaker.Toggles()
	if len(toggles) < 92 || len(toggles) > 93 {
		t.Fatalf("Expected 92-93 toggles in 105ms of A4, got %d", len(toggles))
	}
	for i := 1; i < len(toggles); i++ {
		if d := toggles[i] - toggles[i-1]; d != core.MiddleA {
			t.Fatalf("Toggle %d came %d ticks after the previous one, expected %d", i, d, core.MiddleA)
		}
	}
	if last := toggles[len(toggles)-1]; last > 105000 {
		t.Errorf("Toggle at %d, after the sounding phase ended", last)
	}
}

func TestBoardPlayDuration(t *testing.T) {
	b := NewBoard(0)
	seq := b.NewSequencer(core.SequencerConfig{}, true)
	_ = seq.SetTempo(120)

	_ = seq.Play(core.MiddleA, 1)
	if now := b.Machine.Now(); now != 125000 {
		t.Errorf("Play returned at tick %d, expected 125000", now)
	}

	_ = seq.Rest(2)
	if now := b.Machine.Now(); now != 375000 {
		t.Errorf("Rest returned at tick %d, expected 375000", now)
	}
}

func TestBoardSilentAfterPlay(t *testing.T) {
	b := NewBoard(0)
	seq := b.NewSequencer(core.SequencerConfig{}, true)
	_ = seq.SetTempo(120)
	_ = seq.Play(core.MiddleA, 1)

	count := b.Speaker.ToggleCount()
	b.Machine.Advance(1000000)

	if b.Speaker.ToggleCount() != count {
		t.Errorf("Speaker toggled %d times while silent", b.Speaker.ToggleCount()-count)
	}
	// Both channels keep running while silent
	if b.ToneChannel.Fired() < 900 {
		t.Errorf("Tone channel stopped rescheduling: %d firings", b.ToneChannel.Fired())
	}
	if b.State.Elapsed.Total() != 1125 {
		t.Errorf("Expected 1125ms counted, got %d", b.State.Elapsed.Total())
	}
}

func TestBoardSoundingIndicator(t *testing.T) {
	b := NewBoard(0)
	seq := b.NewSequencer(core.SequencerConfig{}, true)
	_ = seq.SetTempo(120)

	_ = seq.Play(core.MiddleA, 1)
	_ = seq.Rest(1)
	_ = seq.Play(core.MiddleA, 1)

	if b.Sounding.On() {
		t.Error("Indicator left on")
	}
	if b.Sounding.Changes() != 4 {
		t.Errorf("Expected 4 indicator changes for two notes, got %d", b.Sounding.Changes())
	}
}

func TestBoardCounterWrap(t *testing.T) {
	start := uint32(0xFFFFFFFF - 50000)
	b := NewBoard(start)
	b.Speaker.RecordToggles(true)
	seq := b.NewSequencer(core.SequencerConfig{}, true)
	_ = seq.SetTempo(120)

	if err := seq.Play(core.MiddleA, 1); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if elapsed := b.Machine.Now() - start; elapsed != 125000 {
		t.Errorf("Play across the wrap took %d ticks, expected 125000", elapsed)
	}
	toggles := b.Speaker.Toggles()
	for i := 1; i < len(toggles); i++ {
		if d := toggles[i] - toggles[i-1]; d != core.MiddleA {
			t.Fatalf("Toggle interval %d across the wrap, expected %d", d, core.MiddleA)
		}
	}
}

func TestBoardRealtime(t *testing.T) {
	b := NewBoard(0)
	seq := b.NewSequencer(core.SequencerConfig{Yield: runtime.Gosched}, false)
	_ = seq.SetTempo(1200) // 12ms per tick

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go RunRealtime(ctx, b.Machine, time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- seq.Play(core.MiddleA, 4) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Play failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Play did not finish in real time")
	}

	if b.Speaker.ToggleCount() == 0 {
		t.Error("Speaker never toggled")
	}
}
