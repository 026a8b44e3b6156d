package sim

import "launchtone/core"

// Board wires the sequencer core to simulated hardware the same way the
// firmware glue does on a real MCU: tone oscillator on channel 0, elapsed
// counter on channel 1, speaker pin, and a sounding indicator.
type Board struct {
	Machine     *Machine
	ToneChannel *Channel
	TimeChannel *Channel
	Speaker     *Pin
	Sounding    *LED

	State      *core.SharedState
	Oscillator *core.ToneOscillator
}

// NewBoard builds and arms a board whose counter starts at start
func NewBoard(start uint32) *Board {
	m := NewMachine(start)
	b := &Board{
		Machine:     m,
		ToneChannel: m.NewChannel(),
		TimeChannel: m.NewChannel(),
		Speaker:     NewPin(m),
		Sounding:    NewLED(nil),
		State:       core.NewSharedState(),
	}

	b.Oscillator = core.NewToneOscillator(b.State, b.ToneChannel, b.Speaker)
	b.State.Elapsed.Attach(b.TimeChannel)

	b.ToneChannel.SetHandler(b.Oscillator.HandleInterrupt)
	b.TimeChannel.SetHandler(b.State.Elapsed.HandleInterrupt)

	now := m.Now()
	b.Oscillator.Arm(now)
	b.State.Elapsed.Arm(now)
	return b
}

// NewSequencer returns a sequencer on this board. When stepped is true the
// sequencer advances the simulated counter itself while it waits, so no
// real time passes; otherwise something else must drive the machine.
func (b *Board) NewSequencer(config core.SequencerConfig, stepped bool) *core.Sequencer {
	if config.Indicator == nil {
		config.Indicator = b.Sounding
	}
	if stepped {
		config.Yield = func() { b.Machine.Step() }
	}
	return core.NewSequencer(b.State, config)
}
