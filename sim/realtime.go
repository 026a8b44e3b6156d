package sim

import (
	"context"
	"time"

	"launchtone/core"
)

// RunRealtime advances m in step with the wall clock until ctx is done,
// resyncing every interval. It is the hosted stand-in for the crystal that
// drives the hardware counter.
func RunRealtime(ctx context.Context, m *Machine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	var carry time.Duration
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			carry += now.Sub(last)
			last = now

			ticks := carry * core.TimerFreq / time.Second
			carry -= ticks * time.Second / core.TimerFreq
			if ticks > 0 {
				m.Advance(uint32(ticks))
			}
		}
	}
}
