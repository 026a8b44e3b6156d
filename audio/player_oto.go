//go:build !headless

package audio

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Player streams a sample source to the default output device
type Player struct {
	ctx     *oto.Context
	player  *oto.Player
	source  io.Reader
	started bool
	mutex   sync.Mutex
}

// NewPlayer opens the output device for mono float32 at sampleRate. source
// must produce little-endian float32 samples, such as a Renderer.
func NewPlayer(sampleRate int, source io.Reader) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	<-ready

	return &Player{
		ctx:    ctx,
		source: source,
	}, nil
}

// Start begins pulling samples from the source
func (p *Player) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.started {
		return
	}
	if p.player == nil {
		p.player = p.ctx.NewPlayer(p.source)
	}
	p.player.Play()
	p.started = true
}

// Stop pauses output; the source is no longer read
func (p *Player) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.started && p.player != nil {
		p.player.Pause()
		p.started = false
	}
}

// Close releases the player
func (p *Player) Close() error {
	p.Stop()
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	return err
}

// IsStarted reports whether samples are being pulled
func (p *Player) IsStarted() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.started
}
