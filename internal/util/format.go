package util

import (
	"fmt"
	"time"
)

// TimeLayout is the fixed-width UTC layout timestamps are stored in,
// so that lexical order in SQL matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp. It accepts TimeLayout and RFC3339
// and returns the zero time if neither matches.
func ParseTime(s string) time.Time {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// FormatDateTime formats a timestamp as 2006-01-02 15:04 in local time.
func FormatDateTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// FormatRating renders an optional rating, "-" when unrated.
func FormatRating(r *int) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%d/5", *r)
}

// Truncate shortens s to max runes, appending "..." when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
