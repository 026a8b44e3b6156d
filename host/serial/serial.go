// Package serial opens the USB CDC port of a sequencer board
package serial

import (
	"io"
)

// Port is a serial connection to a board. Tests substitute an in-memory
// pipe.
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not read and data written but not
	// yet transmitted
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate. USB CDC ignores it but real UART bridges do not.
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultBaud is the rate the firmware's UART fallback runs at
const DefaultBaud = 115200

// DefaultConfig returns the configuration for device at DefaultBaud
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}
