package core

// fakeChannel is a compare channel that only remembers its match value
type fakeChannel struct {
	compare uint32
	writes  int
}

func (c *fakeChannel) Compare() uint32 { return c.compare }

func (c *fakeChannel) SetCompare(v uint32) {
	c.compare = v
	c.writes++
}

// fakePin counts toggles
type fakePin struct {
	level   bool
	toggles int
}

func (p *fakePin) Toggle() {
	p.level = !p.level
	p.toggles++
}

// fakeIndicator records every Set call
type fakeIndicator struct {
	calls []bool
}

func (i *fakeIndicator) Set(on bool) {
	i.calls = append(i.calls, on)
}

// bench drives a sequencer by firing the elapsed-time interrupt once per
// poll, so every poll is exactly one simulated millisecond. The sound state
// and phase seen at each millisecond are captured.
type bench struct {
	state     *SharedState
	channel   *fakeChannel
	seq       *Sequencer
	indicator *fakeIndicator

	sound  []bool
	phases []Phase
}

func newBench(config SequencerConfig) *bench {
	b := &bench{
		state:     NewSharedState(),
		channel:   &fakeChannel{},
		indicator: &fakeIndicator{},
	}
	b.state.Elapsed.Attach(b.channel)
	b.state.Elapsed.Arm(0)

	config.Indicator = b.indicator
	config.Yield = b.tick
	b.seq = NewSequencer(b.state, config)
	return b
}

func (b *bench) tick() {
	b.sound = append(b.sound, b.state.SoundEnabled())
	b.phases = append(b.phases, b.seq.Phase())
	b.state.Elapsed.HandleInterrupt()
}

func (b *bench) reset() {
	b.sound = nil
	b.phases = nil
}

// count returns how many captured milliseconds had sound enabled
func (b *bench) count(enabled bool) int {
	n := 0
	for _, s := range b.sound {
		if s == enabled {
			n++
		}
	}
	return n
}
