// Package link drives a sequencer board over its serial command link. A Link
// satisfies song.Player, so any tune can be streamed to real hardware one
// command at a time.
package link

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"launchtone/core"
	"launchtone/host/serial"
	"launchtone/protocol"
)

var (
	ErrNotConnected = errors.New("not connected to board")
	ErrBadArgument  = errors.New("board rejected an argument")
	ErrFailed       = errors.New("board reported a failure")
)

const (
	// DefaultAckTimeout bounds the wait for the frame ACK, which the
	// firmware sends before it starts a note
	DefaultAckTimeout = time.Second

	// responseSlack is added to a command's own duration when waiting for
	// its done response
	responseSlack = time.Second
)

// StatusError is a done response carrying a non-OK status
type StatusError struct {
	Cmd    uint16
	Status uint32
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("command %d failed with status %d", e.Cmd, e.Status)
}

// Unwrap maps the status to the sequencer error it stands for
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case protocol.StatusBadArgument:
		return ErrBadArgument
	case protocol.StatusNoTempo:
		return core.ErrTempoNotSet
	case protocol.StatusOverflow:
		return core.ErrDurationOverflow
	default:
		return ErrFailed
	}
}

// Link is a connection to a sequencer board. Calls block until the board
// reports the command done; a Link must not be shared between goroutines.
type Link struct {
	transport *protocol.HostTransport

	// tempo mirrors the board's tempo so response timeouts can follow the
	// note length
	tempo core.TempoConfig

	ackTimeout time.Duration
	connected  bool
}

// New creates a link over an already open port
func New(port io.ReadWriteCloser) *Link {
	return &Link{
		transport:  protocol.NewHostTransport(port),
		ackTimeout: DefaultAckTimeout,
		connected:  true,
	}
}

// Connect opens the serial port described by cfg
func Connect(cfg *serial.Config) (*Link, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	l := New(port)

	// Give the board time to enumerate if it just powered on
	time.Sleep(100 * time.Millisecond)

	return l, nil
}

// SetAckTimeout changes how long to wait for each frame ACK
func (l *Link) SetAckTimeout(timeout time.Duration) {
	l.ackTimeout = timeout
}

// Close closes the connection
func (l *Link) Close() error {
	if !l.connected {
		return nil
	}
	l.connected = false
	return l.transport.Close()
}

// IsConnected returns whether the link is open
func (l *Link) IsConnected() bool {
	return l.connected
}

// SetTempo sets the board's tempo
func (l *Link) SetTempo(bpm uint32) error {
	if err := l.exec(protocol.CmdSetTempo, 0, bpm); err != nil {
		return err
	}
	return l.tempo.SetTempo(bpm)
}

// Play sounds note for ticks on the board and returns once it has finished
func (l *Link) Play(note uint32, ticks uint32) error {
	return l.exec(protocol.CmdPlay, l.expected(ticks), note, ticks)
}

// Rest keeps the board silent for ticks
func (l *Link) Rest(ticks uint32) error {
	return l.exec(protocol.CmdRest, l.expected(ticks), ticks)
}

// expected returns how long the board should take for ticks
func (l *Link) expected(ticks uint32) time.Duration {
	ms, err := l.tempo.DurationMS(ticks)
	if err != nil {
		// The board rejects these without waiting
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// exec sends one command and waits for its done response
func (l *Link) exec(cmdID uint16, duration time.Duration, args ...uint32) error {
	if !l.connected {
		return ErrNotConnected
	}

	payload := protocol.EncodeCommand(cmdID, args...)
	if err := l.transport.SendCommand(payload, l.ackTimeout); err != nil {
		return fmt.Errorf("failed to send command %d: %w", cmdID, err)
	}
	// The firmware runs one command at a time and ACKs before running it, so
	// anything queued before this ACK answers an earlier, timed-out command
	if n := l.transport.DiscardResponses(); n > 0 {
		core.DebugPrintln("dropped " + strconv.Itoa(n) + " stale responses")
	}

	deadline := time.Now().Add(duration + responseSlack)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("no done response for command %d", cmdID)
		}

		resp, err := l.transport.ReceiveResponse(remaining)
		if err != nil {
			return fmt.Errorf("failed to receive response for command %d: %w", cmdID, err)
		}

		doneCmd, status, ok := decodeDone(resp.Payload)
		if !ok || doneCmd != cmdID {
			// Unrelated or stale response
			continue
		}
		if status != protocol.StatusOK {
			return &StatusError{Cmd: cmdID, Status: status}
		}
		return nil
	}
}

// decodeDone parses a done response payload
func decodeDone(payload []byte) (cmdID uint16, status uint32, ok bool) {
	respID, err := protocol.DecodeVLQUint(&payload)
	if err != nil || uint16(respID) != protocol.RespDone {
		return 0, 0, false
	}
	cmd, err := protocol.DecodeVLQUint(&payload)
	if err != nil {
		return 0, 0, false
	}
	status, err = protocol.DecodeVLQUint(&payload)
	if err != nil {
		return 0, 0, false
	}
	return uint16(cmd), status, true
}
