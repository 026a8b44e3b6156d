//go:build rp2040

package main

import (
	"device/rp"
	"machine"
	"time"

	"launchtone/core"
	"launchtone/protocol"
	"launchtone/song"
)

const (
	speakerPin = machine.GPIO15
	buttonPin  = machine.GPIO14 // Active low, internal pull-up
	idleLEDPin = machine.GPIO16

	debounceDelay = 20 * time.Millisecond

	// Set to true to stream timing events to the debug UART
	debugOutput = false
)

var (
	// Buffers for the USB command link
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	msgerrors uint32
	usbReady  bool

	// USB connection state tracking
	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

// speaker toggles its GPIO through the SIO XOR register, a single store
// that is safe from the alarm interrupt.
type speaker struct{}

func (speaker) Toggle() {
	rp.SIO.GPIO_OUT_XOR.Set(1 << uint32(speakerPin))
}

// ledIndicator lights an LED while a note sounds
type ledIndicator machine.Pin

func (l ledIndicator) Set(on bool) {
	machine.Pin(l).Set(on)
}

func main() {
	// Clear any watchdog state left over from a previous run
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitDebugUART(debugOutput)
	if err := InitUSB(); err != nil {
		// Button playback still works without a host
		core.DebugPrintln("USB unavailable: " + err.Error())
	} else {
		usbReady = true
	}

	speakerPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	speakerPin.Low()
	buttonPin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	machine.LED.Low()

	state := core.NewSharedState()
	initAlarms(state, speaker{})
	seq := core.NewSequencer(state, core.SequencerConfig{
		Indicator: ledIndicator(machine.LED),
	})

	registry := core.NewCommandRegistry()
	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()

	transport = protocol.NewTransport(outputBuffer, registry.Dispatch)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
	})
	// ACKs must reach the host before a blocking command starts
	transport.SetFlushCallback(writeUSB)
	transport.SetErrorCallback(func(err error) {
		msgerrors++
		core.DebugPrintln("frame aborted: " + err.Error())
	})
	core.InitSequencerCommands(registry, seq, transport.SendResponse)

	blinker, err := NewStatusBlinker(idleLEDPin)
	if err != nil {
		core.DebugPrintln("idle LED unavailable: " + err.Error())
	}

	if err := bootTune.Play(seq); err != nil {
		core.DebugPrintln("boot tune failed: " + err.Error())
	}

	if usbReady {
		go usbReaderLoop()
	}

	setIdle(blinker, true)
	core.DebugPrintln("Ready...")

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					inputBuffer.Reset()
					outputBuffer.Reset()
				}
			}()

			if buttonPressed() {
				setIdle(blinker, false)
				if err := song.Demo(seq); err != nil {
					core.DebugPrintln("demo failed: " + err.Error())
				}
				core.DumpTimingRing()
				waitButtonRelease()
				setIdle(blinker, true)
			}

			if inputBuffer.Available() > 0 {
				data := inputBuffer.Data()
				originalLen := len(data)
				inputBuf := protocol.NewSliceInputBuffer(data)

				transport.Receive(inputBuf)

				consumed := originalLen - inputBuf.Available()
				if consumed > 0 {
					inputBuffer.Pop(consumed)
				}
			}

			if len(outputBuffer.Result()) > 0 {
				writeUSB()
			}
		}()

		time.Sleep(10 * time.Microsecond)
	}
}

func setIdle(blinker *StatusBlinker, idle bool) {
	if blinker == nil {
		return
	}
	if idle {
		blinker.Start()
	} else {
		blinker.Stop()
	}
}

// buttonPressed reports a press that is still held after the debounce delay
func buttonPressed() bool {
	if buttonPin.Get() {
		return false
	}
	time.Sleep(debounceDelay)
	return !buttonPin.Get()
}

func waitButtonRelease() {
	for !buttonPin.Get() {
		time.Sleep(debounceDelay)
	}
}

// usbReaderLoop moves bytes from USB CDC into the input FIFO
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		if USBAvailable() > 0 {
			data, err := USBRead()
			if err != nil {
				msgerrors++
				time.Sleep(1 * time.Millisecond)
				continue
			}

			// First byte after a disconnect starts a fresh session
			if usbWasDisconnected {
				usbWasDisconnected = false
				inputBuffer.Reset()
				outputBuffer.Reset()
				transport.Reset()
				consecutiveWriteFailures = 0
			}

			if inputBuffer.Write([]byte{data}) == 0 {
				msgerrors++
				time.Sleep(10 * time.Millisecond)
			}
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// writeUSB sends the pending output. Repeated failures mark the host as
// gone and drop the stale data.
func writeUSB() {
	if !usbReady {
		outputBuffer.Reset()
		return
	}
	result := outputBuffer.Result()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
				inputBuffer.Reset()
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
