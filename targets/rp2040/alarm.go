//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"launchtone/core"
)

// RP2040 timer peripheral memory map. The runtime owns alarm 0 for sleeping,
// so the tone and elapsed channels use alarms 2 and 3.
const (
	timerBase     = 0x40054000
	timerALARM2   = timerBase + 0x18
	timerALARM3   = timerBase + 0x1C
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word, no latching
	timerINTR     = timerBase + 0x34 // Write 1 to clear
	timerINTE     = timerBase + 0x38
	timerINTF     = timerBase + 0x3C // Force interrupts
)

var (
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
	timerIntr = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTR)))
	timerInte = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTE)))
	timerIntf = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTF)))

	toneAlarm    = newAlarm(timerALARM2, 2)
	elapsedAlarm = newAlarm(timerALARM3, 3)

	oscillator *core.ToneOscillator
	elapsed    *core.ElapsedCounter
)

// alarm is one compare unit of the 1MHz timer. Writing the alarm register
// arms it; it fires when the low counter word equals the written value.
type alarm struct {
	reg     *volatile.Register32
	mask    uint32
	compare volatile.Register32
}

func newAlarm(addr uintptr, index uint) *alarm {
	return &alarm{
		reg:  (*volatile.Register32)(unsafe.Pointer(addr)),
		mask: 1 << index,
	}
}

func (a *alarm) Compare() uint32 {
	return a.compare.Get()
}

func (a *alarm) SetCompare(value uint32) {
	a.compare.Set(value)
	a.reg.Set(value)
	// A late handler can leave the deadline behind the counter; raise the
	// interrupt now rather than after the 32-bit wrap
	if core.DeadlinePassed(hardwareCounter{}.Now(), value) {
		timerIntf.SetBits(a.mask)
	}
}

func (a *alarm) acknowledge() {
	timerIntf.ClearBits(a.mask)
	timerIntr.Set(a.mask)
}

func (a *alarm) enable() {
	timerInte.SetBits(a.mask)
}

// hardwareCounter reads the free-running microsecond counter
type hardwareCounter struct{}

func (hardwareCounter) Now() uint32 {
	return timerRAWL.Get()
}

// initAlarms attaches the oscillator and the elapsed counter to their alarms
// and starts both running from the current counter value.
func initAlarms(state *core.SharedState, speaker core.OutputPin) {
	oscillator = core.NewToneOscillator(state, toneAlarm, speaker)
	elapsed = &state.Elapsed
	elapsed.Attach(elapsedAlarm)

	toneAlarm.enable()
	elapsedAlarm.enable()

	toneIRQ := interrupt.New(rp.IRQ_TIMER_IRQ_2, handleToneAlarm)
	elapsedIRQ := interrupt.New(rp.IRQ_TIMER_IRQ_3, handleElapsedAlarm)

	now := hardwareCounter{}.Now()
	oscillator.Arm(now)
	elapsed.Arm(now)

	toneIRQ.Enable()
	elapsedIRQ.Enable()
}

func handleToneAlarm(interrupt.Interrupt) {
	toneAlarm.acknowledge()
	oscillator.HandleInterrupt()
}

func handleElapsedAlarm(interrupt.Interrupt) {
	elapsedAlarm.acknowledge()
	elapsed.HandleInterrupt()
}
