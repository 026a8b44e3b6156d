//go:build rp2040

package main

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// buildBlinkProgram returns a free-running blink: each half of the cycle
// holds the pin for 32 loop iterations of 32 cycles.
func buildBlinkProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Set(rp2pio.SetDestPins, 1).Encode(),            // 0: set pins, 1
		asm.Set(rp2pio.SetDestX, 31).Encode(),              // 1: set x, 31
		asm.Jmp(2, rp2pio.JmpXNZeroDec).Delay(31).Encode(), // 2: jmp x--, 2 [31]
		asm.Set(rp2pio.SetDestPins, 0).Encode(),            // 3: set pins, 0
		asm.Set(rp2pio.SetDestX, 31).Encode(),              // 4: set x, 31
		asm.Jmp(5, rp2pio.JmpXNZeroDec).Delay(31).Encode(), // 5: jmp x--, 5 [31]
		// .wrap
	}
}

const blinkOrigin = 0 // Jump targets are absolute

// Slowest divider; at 125MHz one half-cycle lasts about half a second
const blinkClkDiv = 0xFFFF

// StatusBlinker blinks the idle LED from a PIO state machine so the CPU
// stays free while waiting for the start button.
type StatusBlinker struct {
	sm     rp2pio.StateMachine
	pin    machine.Pin
	offset uint8
}

// NewStatusBlinker loads the blink program on PIO0 and prepares a state
// machine driving pin. The blinker starts stopped.
func NewStatusBlinker(pin machine.Pin) (*StatusBlinker, error) {
	sm, err := rp2pio.PIO0.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	program := buildBlinkProgram()
	offset, err := rp2pio.PIO0.AddProgram(program, blinkOrigin)
	if err != nil {
		return nil, err
	}

	pin.Configure(machine.PinConfig{Mode: rp2pio.PIO0.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(pin, 1)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(blinkClkDiv, 0)

	sm.Init(offset, cfg)
	sm.SetPindirsConsecutive(pin, 1, true)
	sm.SetPinsConsecutive(pin, 1, false)

	return &StatusBlinker{sm: sm, pin: pin, offset: offset}, nil
}

// Start begins blinking from the lit half of the cycle
func (b *StatusBlinker) Start() {
	b.sm.SetEnabled(false)
	b.sm.Restart()
	b.sm.ClkDivRestart()
	b.sm.Exec(rp2pio.EncodeJmp(uint16(b.offset)))
	b.sm.SetEnabled(true)
}

// Stop halts the state machine and turns the LED off
func (b *StatusBlinker) Stop() {
	b.sm.SetEnabled(false)
	b.sm.SetPinsConsecutive(b.pin, 1, false)
}
