//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}

// EnterInterrupt is a no-op on hardware: the CPU already masks the handler's
// priority level while it runs.
func EnterInterrupt() interrupt.State {
	return 0
}

// ExitInterrupt is a no-op on hardware
func ExitInterrupt(state interrupt.State) {}
