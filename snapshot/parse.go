package snapshot

import (
	"fmt"
	"time"
)

// timestampFormats is the ordered list of accepted layouts, tried in
// sequence with first success winning. Navitia emits the compact form,
// our own CSV files the dashed form; RFC3339 catches everything else.
var timestampFormats = []string{
	"20060102T150405",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseTimestamp parses a timestamp using the accepted layouts.
// No timezone conversion is performed; naive timestamps are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// FormatTimestamp renders a timestamp the way it is persisted and
// compared: dashed ISO-8601 without zone, so lexicographic order on the
// stored text matches chronological order.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}
