package ais

import (
	"errors"
	"time"
)

// Granularity is the calendar unit of a trend bucket.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

// ErrInvalidGranularity is returned when granularity is unsupported.
var ErrInvalidGranularity = errors.New("ais: invalid granularity")

// IsValid reports whether the granularity is supported.
func (g Granularity) IsValid() bool {
	switch g {
	case GranularityHour, GranularityDay, GranularityMonth:
		return true
	default:
		return false
	}
}

// Truncate returns the start of the bucket containing ts (UTC).
func (g Granularity) Truncate(ts time.Time) (time.Time, error) {
	ts = ts.UTC()
	switch g {
	case GranularityHour:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), 0, 0, 0, time.UTC), nil
	case GranularityDay:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
	case GranularityMonth:
		return MonthStart(ts), nil
	default:
		return time.Time{}, ErrInvalidGranularity
	}
}

// Layout returns the text layout used when a bucket is rendered.
func (g Granularity) Layout() string {
	switch g {
	case GranularityDay:
		return "2006-01-02"
	default:
		return RecTimeLayout
	}
}

// MonthStart returns the first instant of ts's calendar month in UTC.
func MonthStart(ts time.Time) time.Time {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthLabel renders a month as "October 2026".
func MonthLabel(ts time.Time) string {
	return ts.UTC().Format("January 2006")
}
