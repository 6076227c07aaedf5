package utils

import (
	"fmt"
	"strings"
	"time"
)

// CalendarNoonHour is the UTC hour date-only values are pinned to. Noon UTC
// lands on the same calendar day for every zone between UTC-11 and UTC+11.
const CalendarNoonHour = 12

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseCalendarDate parses an optional date input. Empty input yields nil.
// "YYYY-MM-DD" becomes noon UTC of that day; timestamps are kept and
// converted to UTC.
func ParseCalendarDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if d, err := time.Parse("2006-01-02", raw); err == nil {
		t := time.Date(d.Year(), d.Month(), d.Day(), CalendarNoonHour, 0, 0, 0, time.UTC)
		return &t, nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", raw)
}

// CalendarDay formats t as YYYY-MM-DD in UTC.
func CalendarDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
