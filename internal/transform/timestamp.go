package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// layouts are tried before dateparse. They cover the dataset exports seen in practice.
var layouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 03:04:05 PM",
	"01/02/2006",
}

// ParseTimestamp parses a date/time in any common layout.
// Ambiguous numeric dates are read month first. Values without a zone are taken
// as UTC wall clock; values with a zone are converted to UTC.
// Values without a calendar date (year 0) are rejected.
func ParseTimestamp(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty value")
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}

	t, err := dateparse.ParseIn(v, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if t.Year() < 1 {
		return time.Time{}, fmt.Errorf("no date in %q", v)
	}
	return t.UTC(), nil
}
