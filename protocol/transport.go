package protocol

import (
	"errors"
	"sync/atomic"
)

// ErrHandlerPanic is reported when a command handler panics
var ErrHandlerPanic = errors.New("command handler panicked")

// CommandHandler is a function type for handling decoded commands
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the firmware side of the link. It validates incoming frames,
// acknowledges them, and hands each command to the handler.
type Transport struct {
	isSynchronized atomic.Bool
	nextSequence   atomic.Uint32 // expected host sequence, 0x10-0x1F

	output        OutputBuffer
	handler       CommandHandler
	resetCallback func() // Called when a host reset is detected
	flushCallback func() // Called to push pending output to the wire
	errorCallback func(error)
}

// NewTransport creates a new Transport instance
func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	t := &Transport{
		output:  output,
		handler: handler,
	}
	t.isSynchronized.Store(true)
	t.nextSequence.Store(MessageDest)
	return t
}

// Receive processes every complete frame in input and pops the consumed bytes.
//
// The ACK for a frame is flushed before its commands run: play and rest
// block for the whole note, and the host must not time out waiting for it.
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !t.isSynchronized.Load() {
			// Drop everything up to and including the next sync byte.
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				data = nil
				break
			}
			data = data[syncPos+1:]
			t.isSynchronized.Store(true)
			t.encodeAck()
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		msgLen, needMore := parseFrame(data)
		if needMore {
			break
		}
		if msgLen == 0 {
			t.isSynchronized.Store(false)
			continue
		}

		seq := data[MessagePositionSeq]
		frame := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]

		expected := uint8(t.nextSequence.Load())
		if seq == MessageDest && expected != MessageDest {
			// Host restarted its sequence numbering
			t.nextSequence.Store(MessageDest)
			expected = MessageDest
			if t.resetCallback != nil {
				t.resetCallback()
			}
		}

		if seq != expected {
			// Acts as a NAK carrying the sequence we want
			t.encodeAck()
			continue
		}

		t.nextSequence.Store(uint32(nextSequence(seq)))
		t.encodeAck()
		if err := t.dispatch(frame); err != nil && t.errorCallback != nil {
			t.errorCallback(err)
		}
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

// dispatch decodes and runs every command in a frame
func (t *Transport) dispatch(frame []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.isSynchronized.Store(false)
			err = ErrHandlerPanic
		}
	}()

	for len(frame) > 0 {
		cmdID, err := DecodeVLQUint(&frame)
		if err != nil {
			t.isSynchronized.Store(false)
			return err
		}
		if t.handler == nil {
			continue
		}
		if err := t.handler(uint16(cmdID), &frame); err != nil {
			// Arguments of later commands can no longer be located
			return err
		}
	}
	return nil
}

// encodeAck writes an empty frame carrying the next expected sequence and
// flushes it immediately.
func (t *Transport) encodeAck() {
	ns := uint8(t.nextSequence.Load())
	t.output.Output(appendTrailer([]byte{MessageLengthMin, ns}))
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// EncodeFrame writes payload as a response frame and flushes it
func (t *Transport) EncodeFrame(payload []byte) {
	seq := uint8(t.nextSequence.Load())
	frame := make([]byte, 0, MessageHeaderSize+len(payload)+MessageTrailerSize)
	frame = append(frame, uint8(MessageHeaderSize+len(payload)+MessageTrailerSize), seq)
	frame = append(frame, payload...)
	t.output.Output(appendTrailer(frame))
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// SendResponse encodes a response ID and its arguments into a frame
func (t *Transport) SendResponse(respID uint16, args ...uint32) {
	t.EncodeFrame(EncodeCommand(respID, args...))
}

// Reset returns the transport to its power-on state
func (t *Transport) Reset() {
	t.isSynchronized.Store(true)
	t.nextSequence.Store(MessageDest)
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback sets a callback to be called when host reset is detected
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetFlushCallback sets a callback that pushes buffered output to the wire
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}

// SetErrorCallback sets a callback receiving errors from frames that were
// acknowledged but could not be run to the end
func (t *Transport) SetErrorCallback(callback func(error)) {
	t.errorCallback = callback
}
