package shared

import "time"

// DateLayout is the calendar-date format used for plan and weight keys.
const DateLayout = "2006-01-02"

// TimestampLayout is how instants are stored in SQLite text columns.
const TimestampLayout = "2006-01-02 15:04:05"

// Today returns the UTC calendar date of now as YYYY-MM-DD.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ParseTimestamp reads an instant back from SQLite. The driver may hand
// DATETIME columns over either as stored or already rendered as RFC 3339.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{TimestampLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
