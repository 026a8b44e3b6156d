package core

import (
	"errors"

	"launchtone/protocol"
)

// ResponseSender emits a response frame to the host
type ResponseSender func(respID uint16, args ...uint32)

// InitSequencerCommands registers set_tempo, play and rest. Each handler runs
// the blocking operation to completion and then reports "done" with a status
// code, so the host sends the next command only after the previous one has
// finished.
func InitSequencerCommands(reg *CommandRegistry, seq *Sequencer, reply ResponseSender) {
	reg.Register(protocol.CmdSetTempo, "set_tempo", "bpm=%u", func(data *[]byte) error {
		bpm, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		return finish(reply, protocol.CmdSetTempo, seq.SetTempo(bpm))
	})

	reg.Register(protocol.CmdPlay, "play", "note=%u ticks=%u", func(data *[]byte) error {
		note, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		ticks, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		return finish(reply, protocol.CmdPlay, seq.Play(note, ticks))
	})

	reg.Register(protocol.CmdRest, "rest", "ticks=%u", func(data *[]byte) error {
		ticks, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		return finish(reply, protocol.CmdRest, seq.Rest(ticks))
	})

	// Response only; no handler
	reg.Register(protocol.RespDone, "done", "cmd=%u status=%u", nil)
}

// finish reports the outcome of a command. Sequencer errors are delivered to
// the host as a status rather than returned, so they do not abort the frame.
func finish(reply ResponseSender, cmdID uint16, err error) error {
	status := StatusFromError(err)
	if err != nil {
		DebugPrintln("command " + utoa(uint32(cmdID)) + " failed: " + err.Error())
	}
	if reply != nil {
		reply(protocol.RespDone, uint32(cmdID), status)
	}
	return nil
}

// StatusFromError maps sequencer errors to link status codes
func StatusFromError(err error) uint32 {
	switch {
	case err == nil:
		return protocol.StatusOK
	case errors.Is(err, ErrInvalidTempo), errors.Is(err, ErrTempoTooFast),
		errors.Is(err, ErrInvalidNote), errors.Is(err, ErrInvalidDuration):
		return protocol.StatusBadArgument
	case errors.Is(err, ErrTempoNotSet):
		return protocol.StatusNoTempo
	case errors.Is(err, ErrDurationOverflow):
		return protocol.StatusOverflow
	default:
		return protocol.StatusFailed
	}
}
