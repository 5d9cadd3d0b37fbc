// Package timestamp provides standardized Unix timestamp handling for events
// and telemetry samples.
//
// All timestamps are int64 milliseconds since Unix epoch (UTC). A value of 0
// means "not set"; functions handle zero gracefully.
package timestamp

import (
	"time"
)

// Now returns the current time as Unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// ToUnixMs converts a time.Time to Unix milliseconds.
func ToUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMs converts Unix milliseconds to time.Time.
// Returns the zero time if ms is 0.
func FromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Format renders a timestamp as RFC3339 with millisecond precision.
// Returns an empty string for the zero value.
func Format(ms int64) string {
	if ms == 0 {
		return ""
	}
	return FromUnixMs(ms).Format("2006-01-02T15:04:05.000Z07:00")
}
