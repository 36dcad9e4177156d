package domain

import "time"

// DateLayout is the ISO 8601 calendar date layout used when serializing days.
const DateLayout = "2006-01-02"

// Day returns midnight UTC of t's calendar date (in t's own location).
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FromUnixMilli converts an epoch-millisecond timestamp to UTC time.
func FromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
