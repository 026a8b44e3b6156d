//go:build headless

package audio

import (
	"io"
	"sync"
	"time"
)

// headlessChunk is how much audio is pulled per wake-up
const headlessChunk = 10 * time.Millisecond

// Player pulls samples at the real-time rate and discards them, so the
// source still advances simulated time without an output device.
type Player struct {
	sampleRate int
	source     io.Reader

	mutex   sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
}

// NewPlayer returns a player that needs no audio device
func NewPlayer(sampleRate int, source io.Reader) (*Player, error) {
	return &Player{
		sampleRate: sampleRate,
		source:     source,
	}, nil
}

// Start begins pulling samples from the source
func (p *Player) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.started {
		return
	}
	p.started = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.stop, p.done)
}

func (p *Player) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	samples := int(int64(p.sampleRate) * int64(headlessChunk) / int64(time.Second))
	buf := make([]byte, samples*bytesPerSample)

	ticker := time.NewTicker(headlessChunk)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := io.ReadFull(p.source, buf); err != nil {
				return
			}
		}
	}
}

// Stop halts the pulling goroutine
func (p *Player) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.started {
		return
	}
	close(p.stop)
	<-p.done
	p.started = false
}

// Close stops the player
func (p *Player) Close() error {
	p.Stop()
	return nil
}

// IsStarted reports whether samples are being pulled
func (p *Player) IsStarted() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.started
}
