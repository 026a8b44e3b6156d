package core

// Timer frequency of the free-running hardware counter both compare
// channels are driven from.
const (
	TimerFreq = 1000000 // 1MHz, one tick per microsecond
)

// ElapsedIntervalUS is the period of the elapsed-time compare channel.
const ElapsedIntervalUS = 1000

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32((uint64(us) * TimerFreq) / 1000000)
}

// TimerBefore reports whether time a is before time b on a wrapping 32-bit
// counter. Both values must be within half the counter range of each other.
func TimerBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// DeadlinePassed reports whether a compare value written at now has already
// been reached. Hardware that matches on equality only would not fire for
// such a value until the counter wraps.
func DeadlinePassed(now, deadline uint32) bool {
	return !TimerBefore(now, deadline)
}
