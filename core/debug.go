package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a sequencing event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Clock     uint32 // Elapsed counter total at the event, in ms
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtTempo    = 1 // tempo set: v1=bpm v2=ms per tick
	EvtNoteOn   = 2 // play started: v1=half-period v2=duration ms
	EvtDeadTime = 3 // play silenced: v1=elapsed ms v2=duration ms
	EvtRest     = 4 // rest started: v2=duration ms
	EvtDone     = 5 // call finished: v1=elapsed ms v2=duration ms
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether DebugPrintln produces output
	debugEnabled bool = false

	// Timing ring buffer. Written only from the foreground sequencer.
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  bool = true
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetTimingEnabled turns timing capture on or off
func SetTimingEnabled(enabled bool) {
	timingEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTiming captures a timing event in the ring buffer. Never blocks.
func RecordTiming(eventType uint8, clock, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize

	if debugEnabled {
		DebugPrintln(formatTimingEvent(&timingRing[idx]))
	}
}

// TimingEvents returns the recorded events from oldest to newest
func TimingEvents() []TimingEvent {
	events := make([]TimingEvent, 0, TimingRingSize)
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// DumpTimingRing outputs the timing ring buffer through the debug writer
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingEvents() {
		debugPrintln(formatTimingEvent(&evt))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}

func formatTimingEvent(evt *TimingEvent) string {
	var name string
	switch evt.EventType {
	case EvtTempo:
		name = "TEMPO"
	case EvtNoteOn:
		name = "NOTE_ON"
	case EvtDeadTime:
		name = "DEAD_TIME"
	case EvtRest:
		name = "REST"
	case EvtDone:
		name = "DONE"
	default:
		name = "UNKNOWN"
	}

	return "[TIMING] " + name +
		" clock=" + utoa(evt.Clock) +
		" v1=" + utoa(evt.Value1) +
		" v2=" + utoa(evt.Value2)
}
