package persistence

import "time"

// SQLite stores timestamps as text. The layout is fixed-width with full
// nanosecond precision and always UTC, so lexical comparison of two stored
// values agrees with chronological order. RFC3339Nano would trim trailing
// zeros and break that property for sub-second values.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
