//go:build !tinygo

package core

import "sync"

// State is the saved interrupt state on hosted Go
type State uintptr

// Hosted builds have no interrupt controller. The simulated handlers run on
// ordinary goroutines, so a mutex stands in for masking them.
var interruptMu sync.Mutex

// disableInterrupts enters the critical section shared with simulated handlers
func disableInterrupts() State {
	interruptMu.Lock()
	return 0
}

// restoreInterrupts leaves the critical section
func restoreInterrupts(state State) {
	interruptMu.Unlock()
}

// EnterInterrupt is called by hosted hardware models around every handler
// invocation so handlers observe the same exclusion as on a real MCU.
func EnterInterrupt() State {
	return disableInterrupts()
}

// ExitInterrupt ends a handler invocation started with EnterInterrupt
func ExitInterrupt(state State) {
	restoreInterrupts(state)
}
