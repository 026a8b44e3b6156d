package sim

import (
	"io"

	"launchtone/core"
	"launchtone/protocol"
)

// Device answers the command link the way the firmware does, running each
// command on a sequencer attached to a simulated board.
type Device struct {
	seq       *core.Sequencer
	registry  *core.CommandRegistry
	transport *protocol.Transport
	output    *protocol.ScratchOutput
	input     *protocol.FifoBuffer
	w         io.Writer
	werr      error
}

// NewDevice creates a device executing commands on seq
func NewDevice(seq *core.Sequencer) *Device {
	d := &Device{
		seq:      seq,
		registry: core.NewCommandRegistry(),
		output:   protocol.NewScratchOutput(),
		input:    protocol.NewFifoBuffer(256),
	}
	d.transport = protocol.NewTransport(d.output, d.registry.Dispatch)
	d.transport.SetFlushCallback(d.flush)
	d.transport.SetErrorCallback(reportFrameError)
	core.InitSequencerCommands(d.registry, seq, d.transport.SendResponse)
	return d
}

// Serve reads frames from rw and writes replies until reading fails. It
// returns nil when rw reaches EOF.
func (d *Device) Serve(rw io.ReadWriter) error {
	d.w = rw
	buf := make([]byte, 64)
	for {
		n, err := rw.Read(buf)
		if n > 0 {
			d.input.Write(buf[:n])
			d.transport.Receive(d.input)
			if d.werr != nil {
				return d.werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (d *Device) flush() {
	if d.output.CurPosition() == 0 || d.w == nil {
		return
	}
	if _, err := d.w.Write(d.output.Result()); err != nil && d.werr == nil {
		d.werr = err
	}
	d.output.Reset()
}

func reportFrameError(err error) {
	core.DebugPrintln("frame aborted: " + err.Error())
}
