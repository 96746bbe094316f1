package domain

import "time"

// TimestampLayout is the fixed-width UTC layout of every timestamp the core writes.
// Fixed width keeps string order identical to chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Clock returns the current time. Injected so tests can pin timestamps.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}
