//go:build rp2040

package main

import (
	"machine"

	"launchtone/core"
)

var debugUART *machine.UART

// InitDebugUART routes core debug output to UART0 on GPIO0 (TX) and GPIO1
// (RX) at 115200 baud. USB CDC carries the framed command link, so debug
// text must not share it.
func InitDebugUART(enabled bool) {
	debugUART = machine.UART0
	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	if err != nil {
		return
	}

	core.SetDebugWriter(func(s string) {
		debugUART.Write([]byte(s))
		debugUART.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(enabled)
	core.SetTimingEnabled(enabled)
	core.DebugPrintln("=== launchtone RP2040 ===")
}
