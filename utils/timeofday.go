package utils

import "time"

type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
)

// TimeOfDayAt buckets a local wall-clock time: morning before 12:00,
// afternoon before 18:00, evening otherwise.
func TimeOfDayAt(t time.Time) TimeOfDay {
	hour := t.Hour()
	if hour < 12 {
		return Morning
	}
	if hour < 18 {
		return Afternoon
	}
	return Evening
}

// DateKey renders the local calendar date used to bucket log entries and
// dismissal records.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
