package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var ErrTransportStopped = errors.New("transport stopped")

// HostTransport is the host side of the link: it frames commands, waits for
// their ACK, and collects response frames from a background reader.
type HostTransport struct {
	port io.ReadWriteCloser

	currentSeq     atomic.Uint32 // 0x10-0x1F
	isSynchronized atomic.Bool

	inputBuffer *FifoBuffer

	ackChan      chan *Message
	responseChan chan *Message

	writeMutex sync.Mutex

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewHostTransport creates a host-side transport and starts its reader
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:         port,
		inputBuffer:  NewFifoBuffer(512),
		ackChan:      make(chan *Message, 1),
		responseChan: make(chan *Message, 16),
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
	t.currentSeq.Store(MessageDest)
	t.isSynchronized.Store(true)

	go t.readLoop()
	return t
}

// SendCommand sends a command payload and waits for its ACK
func (t *HostTransport) SendCommand(payload []byte, timeout time.Duration) error {
	msg, err := t.buildMessage(payload)
	if err != nil {
		return fmt.Errorf("failed to build command: %w", err)
	}

	if err := t.writeMessage(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err := t.waitForAck(timeout); err != nil {
		return fmt.Errorf("ACK timeout or error: %w", err)
	}
	return nil
}

// buildMessage wraps payload in header and trailer
func (t *HostTransport) buildMessage(payload []byte) ([]byte, error) {
	msgLen := MessageHeaderSize + len(payload) + MessageTrailerSize
	if msgLen > MessageLengthMax {
		return nil, fmt.Errorf("message too long: %d bytes (max %d)", msgLen, MessageLengthMax)
	}

	seq := uint8(t.currentSeq.Load())
	frame := make([]byte, 0, msgLen)
	frame = append(frame, uint8(msgLen), seq)
	frame = append(frame, payload...)
	return appendTrailer(frame), nil
}

// writeMessage sends a message to the port
func (t *HostTransport) writeMessage(msg []byte) error {
	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	n, err := t.port.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))
	}
	return nil
}

// waitForAck waits for the firmware to acknowledge the current sequence
func (t *HostTransport) waitForAck(timeout time.Duration) error {
	expected := nextSequence(uint8(t.currentSeq.Load()))
	deadline := time.After(timeout)

	for {
		select {
		case ack := <-t.ackChan:
			if ack.Sequence != expected {
				// NAK or a stale ACK; keep waiting for ours
				continue
			}
			t.currentSeq.Store(uint32(expected))
			return nil
		case <-deadline:
			return fmt.Errorf("ACK timeout after %v", timeout)
		case <-t.stopChan:
			return ErrTransportStopped
		}
	}
}

// ReceiveResponse waits for the next response frame
func (t *HostTransport) ReceiveResponse(timeout time.Duration) (*Message, error) {
	select {
	case resp := <-t.responseChan:
		return resp, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("response timeout after %v", timeout)
	case <-t.stopChan:
		return nil, ErrTransportStopped
	}
}

// DiscardResponses drops every response already queued and returns how many
// were dropped
func (t *HostTransport) DiscardResponses() int {
	n := 0
	for {
		select {
		case <-t.responseChan:
			n++
		default:
			return n
		}
	}
}

// readLoop continuously reads from the port and dispatches frames
func (t *HostTransport) readLoop() {
	defer close(t.doneChan)
	buffer := make([]byte, 256)

	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buffer)
		if n > 0 {
			t.inputBuffer.Write(buffer[:n])
			t.processMessages()
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// processMessages parses every complete frame in the input buffer
func (t *HostTransport) processMessages() {
	data := t.inputBuffer.Data()

	for len(data) > 0 {
		if !t.isSynchronized.Load() {
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

		payload := make([]byte, msgLen-MessageHeaderSize-MessageTrailerSize)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		msg := &Message{
			Length:   data[MessagePositionLen],
			Sequence: data[MessagePositionSeq],
			Payload:  payload,
			CRC: uint16(data[msgLen-MessageTrailerCRC])<<8 |
				uint16(data[msgLen-MessageTrailerCRC+1]),
		}
		data = data[msgLen:]

		t.dispatchMessage(msg)
	}

	consumed := t.inputBuffer.Available() - len(data)
	if consumed > 0 {
		t.inputBuffer.Pop(consumed)
	}
}

// dispatchMessage routes empty frames to the ACK channel and the rest to the
// response channel
func (t *HostTransport) dispatchMessage(msg *Message) {
	if len(msg.Payload) == 0 {
		select {
		case t.ackChan <- msg:
		default:
			// Replace an unread ACK with the newer one
			select {
			case <-t.ackChan:
			default:
			}
			t.ackChan <- msg
		}
		return
	}

	select {
	case t.responseChan <- msg:
	default:
		select {
		case <-t.responseChan:
		default:
		}
		t.responseChan <- msg
	}
}

// Close stops the reader and closes the port
func (t *HostTransport) Close() error {
	t.stopOnce.Do(func() { close(t.stopChan) })

	var err error
	if t.port != nil {
		// Closing the port unblocks a pending Read
		err = t.port.Close()
	}
	<-t.doneChan
	return err
}
