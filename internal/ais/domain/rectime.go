package ais

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidRecTime is returned when rec_time cannot be parsed.
var ErrInvalidRecTime = errors.New("ais: invalid rec_time")

// RecTimeLayout is the canonical text form of a normalized timestamp.
const RecTimeLayout = "2006-01-02 15:04:05"

var recTimeLayouts = []string{
	RecTimeLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// ParseRecTime parses a report timestamp. Zoned values are converted to
// UTC; naive values are taken as UTC.
func ParseRecTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrInvalidRecTime
	}
	for _, layout := range recTimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidRecTime
}

// FormatRecTime renders a normalized timestamp in RecTimeLayout.
func FormatRecTime(ts time.Time) string {
	return ts.UTC().Format(RecTimeLayout)
}
