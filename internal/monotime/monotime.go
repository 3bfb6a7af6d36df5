// Package monotime provides a monotonic nanosecond clock.
//
// Values are only meaningful relative to each other within one process.
// They never go backwards, regardless of wall-clock adjustments.
package monotime

import "time"

// base anchors the monotonic reading carried by time.Time values.
var base = time.Now()

// Now returns the monotonic time in nanoseconds since process start.
func Now() int64 {
	return int64(time.Since(base))
}

// Deadline returns the absolute monotonic time at which a wait of d that
// starts now expires. Callers must only pass positive durations.
func Deadline(d time.Duration) int64 {
	return Now() + int64(d)
}

// Remaining returns the time left until deadline, clamped at zero.
func Remaining(deadline int64) time.Duration {
	if left := deadline - Now(); left > 0 {
		return time.Duration(left)
	}
	return 0
}
