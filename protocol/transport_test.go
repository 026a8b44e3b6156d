package protocol

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// hostFrame builds a command frame the way the host does
func hostFrame(seq uint8, payload []byte) []byte {
	frame := []byte{uint8(MessageHeaderSize + len(payload) + MessageTrailerSize), seq}
	frame = append(frame, payload...)
	return appendTrailer(frame)
}

// splitFrames parses every frame in data
func splitFrames(t *testing.T, data []byte) []Message {
	t.Helper()
	var msgs []Message
	for len(data) > 0 {
		msgLen, needMore := parseFrame(data)
		if msgLen == 0 || needMore {
			t.Fatalf("Invalid output frame: %v", data)
		}
		msgs = append(msgs, Message{
			Length:   data[MessagePositionLen],
			Sequence: data[MessagePositionSeq],
			Payload:  data[MessageHeaderSize : msgLen-MessageTrailerSize],
		})
		data = data[msgLen:]
	}
	return msgs
}

type dispatched struct {
	cmdID uint16
	args  []uint32
}

func newRecordingTransport() (*Transport, *ScratchOutput, *[]dispatched) {
	output := NewScratchOutput()
	var calls []dispatched
	tr := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		var args []uint32
		for len(*data) > 0 {
			v, err := DecodeVLQUint(data)
			if err != nil {
				return err
			}
			args = append(args, v)
		}
		calls = append(calls, dispatched{cmdID, args})
		return nil
	})
	return tr, output, &calls
}

func TestTransportAckAndDispatch(t *testing.T) {
	tr, output, calls := newRecordingTransport()

	input := NewSliceInputBuffer(hostFrame(0x10, EncodeCommand(CmdPlay, 1136, 4)))
	tr.Receive(input)

	if input.Available() != 0 {
		t.Errorf("Expected frame consumed, %d bytes left", input.Available())
	}
	if len(*calls) != 1 {
		t.Fatalf("Expected 1 dispatched command, got %d", len(*calls))
	}
	call := (*calls)[0]
	if call.cmdID != CmdPlay || len(call.args) != 2 || call.args[0] != 1136 || call.args[1] != 4 {
		t.Errorf("Unexpected dispatch %+v", call)
	}

	acks := splitFrames(t, output.Result())
	if len(acks) != 1 || len(acks[0].Payload) != 0 || acks[0].Sequence != 0x11 {
		t.Errorf("Expected one ACK for 0x11, got %+v", acks)
	}
}

func TestTransportPartialFrame(t *testing.T) {
	tr, _, calls := newRecordingTransport()
	frame := hostFrame(0x10, EncodeCommand(CmdRest, 2))

	fifo := NewFifoBuffer(64)
	fifo.Write(frame[:3])
	tr.Receive(fifo)
	if len(*calls) != 0 || fifo.Available() != 3 {
		t.Fatalf("Partial frame dispatched or consumed: calls=%d left=%d", len(*calls), fifo.Available())
	}

	fifo.Write(frame[3:])
	tr.Receive(fifo)
	if len(*calls) != 1 || !fifo.IsEmpty() {
		t.Errorf("Completed frame not processed: calls=%d left=%d", len(*calls), fifo.Available())
	}
}

func TestTransportWrongSequence(t *testing.T) {
	tr, output, calls := newRecordingTransport()

	tr.Receive(NewSliceInputBuffer(hostFrame(0x10, EncodeCommand(CmdRest, 1))))
	output.Reset()

	tr.Receive(NewSliceInputBuffer(hostFrame(0x13, EncodeCommand(CmdRest, 1))))

	if len(*calls) != 1 {
		t.Errorf("Out-of-sequence frame was dispatched")
	}
	naks := splitFrames(t, output.Result())
	if len(naks) != 1 || naks[0].Sequence != 0x11 {
		t.Errorf("Expected a NAK asking for 0x11, got %+v", naks)
	}
}

func TestTransportHostReset(t *testing.T) {
	tr, _, calls := newRecordingTransport()
	var resets int
	tr.SetResetCallback(func() { resets++ })

	tr.Receive(NewSliceInputBuffer(hostFrame(0x10, EncodeCommand(CmdRest, 1))))
	tr.Receive(NewSliceInputBuffer(hostFrame(0x11, EncodeCommand(CmdRest, 1))))
	tr.Receive(NewSliceInputBuffer(hostFrame(0x10, EncodeCommand(CmdRest, 1))))

	if resets != 1 {
		t.Errorf("Expected 1 reset, got %d", resets)
	}
	if len(*calls) != 3 {
		t.Errorf("Expected 3 dispatched commands, got %d", len(*calls))
	}
}

func TestTransportResync(t *testing.T) {
	tr, _, calls := newRecordingTransport()

	data := []byte{0x01, 0x02, MessageValueSync}
	data = append(data, hostFrame(0x10, EncodeCommand(CmdSetTempo, 120))...)
	tr.Receive(NewSliceInputBuffer(data))

	if len(*calls) != 1 || (*calls)[0].args[0] != 120 {
		t.Errorf("Frame after garbage not dispatched: %+v", *calls)
	}
}

func TestTransportHandlerPanic(t *testing.T) {
	output := NewScratchOutput()
	tr := NewTransport(output, func(cmdID uint16, data *[]byte) error {
		panic("handler failure")
	})

	var reported error
	tr.SetErrorCallback(func(err error) { reported = err })

	tr.Receive(NewSliceInputBuffer(hostFrame(0x10, EncodeCommand(CmdRest, 1))))

	if len(splitFrames(t, output.Result())) != 1 {
		t.Error("Expected the frame to be acknowledged before the handler ran")
	}
	if !errors.Is(reported, ErrHandlerPanic) {
		t.Errorf("Expected ErrHandlerPanic to be reported, got %v", reported)
	}
}

func TestTransportReportsHandlerError(t *testing.T) {
	errUnknown := errors.New("unknown command")
	var ran []uint16
	tr := NewTransport(NewScratchOutput(), func(cmdID uint16, data *[]byte) error {
		ran = append(ran, cmdID)
		if cmdID == 99 {
			return errUnknown
		}
		_, err := DecodeVLQUint(data)
		return err
	})
	var reported []error
	tr.SetErrorCallback(func(err error) { reported = append(reported, err) })

	payload := EncodeCommand(CmdRest, 1)
	payload = append(payload, EncodeCommand(99)...)
	payload = append(payload, EncodeCommand(CmdRest, 2)...)
	tr.Receive(NewSliceInputBuffer(hostFrame(0x10, payload)))

	if len(reported) != 1 || !errors.Is(reported[0], errUnknown) {
		t.Errorf("Expected the handler error to be reported once, got %v", reported)
	}
	if len(ran) != 2 {
		t.Errorf("Expected dispatch to stop at the failing command, ran %v", ran)
	}

	// Frames without errors report nothing
	reported = nil
	tr.Receive(NewSliceInputBuffer(hostFrame(0x11, EncodeCommand(CmdRest, 3))))
	if len(reported) != 0 {
		t.Errorf("Unexpected errors reported: %v", reported)
	}
}

func TestSendResponse(t *testing.T) {
	tr, output, _ := newRecordingTransport()
	var flushes int
	tr.SetFlushCallback(func() { flushes++ })

	tr.SendResponse(RespDone, uint32(CmdPlay), StatusOK)

	msgs := splitFrames(t, output.Result())
	if len(msgs) != 1 || flushes != 1 {
		t.Fatalf("Expected 1 flushed frame, got %d frames and %d flushes", len(msgs), flushes)
	}
	payload := msgs[0].Payload
	respID, _ := DecodeVLQUint(&payload)
	cmd, _ := DecodeVLQUint(&payload)
	status, _ := DecodeVLQUint(&payload)
	if uint16(respID) != RespDone || uint16(cmd) != CmdPlay || status != StatusOK {
		t.Errorf("Unexpected response %d %d %d", respID, cmd, status)
	}
}

// pipeOutput writes device output to a connection on every flush
type pipeOutput struct {
	*ScratchOutput
	w io.Writer
}

func (p *pipeOutput) flush() {
	_, _ = p.w.Write(p.Result())
	p.Reset()
}

// runEchoDevice answers every command with done(cmd, StatusOK)
func runEchoDevice(conn net.Conn) {
	output := &pipeOutput{ScratchOutput: NewScratchOutput(), w: conn}
	var tr *Transport
	tr = NewTransport(output, func(cmdID uint16, data *[]byte) error {
		*data = nil
		tr.SendResponse(RespDone, uint32(cmdID), StatusOK)
		return nil
	})
	tr.SetFlushCallback(output.flush)

	fifo := NewFifoBuffer(256)
	buf := make([]byte, 64)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			fifo.Write(buf[:n])
			tr.Receive(fifo)
		}
		if err != nil {
			return
		}
	}
}

func TestHostTransportLoopback(t *testing.T) {
	hostConn, deviceConn := net.Pipe()
	go runEchoDevice(deviceConn)

	host := NewHostTransport(hostConn)
	defer host.Close()

	// More than 16 commands to wrap the sequence window
	for i := 0; i < 20; i++ {
		if err := host.SendCommand(EncodeCommand(CmdRest, 1), time.Second); err != nil {
			t.Fatalf("Command %d: %v", i, err)
		}
		resp, err := host.ReceiveResponse(time.Second)
		if err != nil {
			t.Fatalf("Command %d: %v", i, err)
		}
		payload := resp.Payload
		respID, _ := DecodeVLQUint(&payload)
		cmd, _ := DecodeVLQUint(&payload)
		if uint16(respID) != RespDone || uint16(cmd) != CmdRest {
			t.Fatalf("Command %d: unexpected response %d/%d", i, respID, cmd)
		}
	}
}

func TestHostTransportAckTimeout(t *testing.T) {
	hostConn, deviceConn := net.Pipe()
	defer deviceConn.Close()

	// Drain writes without ever answering
	go func() { _, _ = io.Copy(io.Discard, deviceConn) }()

	host := NewHostTransport(hostConn)
	defer host.Close()

	if err := host.SendCommand(EncodeCommand(CmdRest, 1), 50*time.Millisecond); err == nil {
		t.Error("Expected an ACK timeout")
	}
}

func TestHostTransportMessageTooLong(t *testing.T) {
	hostConn, deviceConn := net.Pipe()
	defer deviceConn.Close()

	host := NewHostTransport(hostConn)
	defer host.Close()

	if err := host.SendCommand(make([]byte, MessageLengthMax), time.Second); err == nil {
		t.Error("Expected an error for an oversized payload")
	}
}

func TestHostTransportClosed(t *testing.T) {
	hostConn, deviceConn := net.Pipe()
	defer deviceConn.Close()

	host := NewHostTransport(hostConn)
	_ = host.Close()

	if _, err := host.ReceiveResponse(time.Second); !errors.Is(err, ErrTransportStopped) {
		t.Errorf("Expected ErrTransportStopped, got %v", err)
	}
}
