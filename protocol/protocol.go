// Package protocol implements the framed command link between a host and the
// sequencer firmware. Frames follow the Klipper block layout:
//
//	len seq payload... crc_hi crc_lo 0x7E
//
// Payloads are VLQ-encoded command IDs followed by their arguments.
package protocol

// Frame layout
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
	MessageSeqMask     = 0x0F

	// ScratchSize bounds the device output buffer
	ScratchSize = 256
)

// Command IDs. Fixed so that host and firmware need no dictionary exchange.
const (
	CmdSetTempo uint16 = 1 // set_tempo bpm=%u
	CmdPlay     uint16 = 2 // play note=%u ticks=%u
	CmdRest     uint16 = 3 // rest ticks=%u
	RespDone    uint16 = 4 // done cmd=%u status=%u
)

// Status codes carried by RespDone
const (
	StatusOK          = 0
	StatusBadArgument = 1 // zero note, zero duration, bad tempo
	StatusNoTempo     = 2 // play/rest before set_tempo
	StatusOverflow    = 3 // duration exceeds the counter range
	StatusFailed      = 4
)

// Message is a parsed frame
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // Frame data without header/trailer
	CRC      uint16
}

// nextSequence advances a sequence byte within the 0x10-0x1F window
func nextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}

// parseFrame validates the frame at the start of data. It returns the frame
// length, or 0 with needMore set when data holds only part of a frame, or 0
// with needMore clear when the bytes cannot start a valid frame.
func parseFrame(data []byte) (msgLen int, needMore bool) {
	if len(data) < MessageLengthMin {
		return 0, true
	}
	msgLen = int(data[MessagePositionLen])
	if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
		return 0, false
	}
	if data[MessagePositionSeq]&^MessageSeqMask != MessageDest {
		return 0, false
	}
	if len(data) < msgLen {
		return 0, true
	}
	if data[msgLen-MessageTrailerSync] != MessageValueSync {
		return 0, false
	}
	frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
		uint16(data[msgLen-MessageTrailerCRC+1])
	if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
		return 0, false
	}
	return msgLen, false
}

// appendTrailer computes the CRC over frame and appends the trailer
func appendTrailer(frame []byte) []byte {
	crc := CRC16(frame)
	return append(frame, uint8(crc>>8), uint8(crc), MessageValueSync)
}
