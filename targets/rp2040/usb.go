//go:build rp2040

package main

import "machine"

// InitUSB configures the USB CDC serial port. machine.Serial is the USB CDC
// device on RP2040 boards; the runtime supplies the descriptors.
func InitUSB() error {
	return machine.Serial.Configure(machine.UARTConfig{})
}

// USBAvailable returns the number of bytes waiting to be read
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead reads a single byte
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// USBWriteBytes writes data to the host
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}
