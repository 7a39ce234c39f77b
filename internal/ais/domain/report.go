package ais

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Report is one raw AIS message as stored in the telemetry table.
// Source fields are nullable; nil means the source carried no value.
type Report struct {
	ID int64

	MMSI     *int64
	IMO      *int64
	CallSign *string
	ShipName *string

	Latitude         *float64
	Longitude        *float64
	SpeedOverGround  *float64
	CourseOverGround *float64
	TrueHeading      *int64
	RateOfTurn       *float64
	NavStatus        *string

	ShipType     *string
	Destination  *string
	Draught      *float64
	Length       *float64
	Beam         *float64
	ETA          *string
	DimBow       *int64
	DimStern     *int64
	DimPort      *int64
	DimStarboard *int64

	RecTime  *string
	Source   *string
	Country  *string
	FlagName *string

	// Derived by Normalize.
	RecordedAt *time.Time
	LatCell    *float64
	LonCell    *float64
}

const (
	minValidMMSI = 1000000
	maxValidMMSI = 9999999
)

// IsValidMMSI reports whether mmsi has exactly seven decimal digits.
func IsValidMMSI(mmsi int64) bool {
	return mmsi >= minValidMMSI && mmsi <= maxValidMMSI
}

// ParseMMSI parses a vessel identity from text. Any integer is accepted so
// that history stays queryable for identities outside the seven-digit range.
func ParseMMSI(raw string) (int64, error) {
	mmsi, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMMSI, raw)
	}
	return mmsi, nil
}

// IdentityValid reports whether the report carries a usable vessel identity.
func (r Report) IdentityValid() bool {
	return r.MMSI != nil && IsValidMMSI(*r.MMSI)
}

// IsValidPosition reports whether lat/lon are in range and not the (0,0) sentinel.
func IsValidPosition(lat, lon float64) bool {
	return inRange(lat, lon) && !IsNoFix(lat, lon)
}

// IsNoFix reports the (0,0) "no fix" sentinel.
func IsNoFix(lat, lon float64) bool {
	return lat == 0 && lon == 0
}

func inRange(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// HasCoordinates reports whether both coordinates are present and in range.
// The (0,0) sentinel passes; latest-position resolution drops it only after
// the newest report per vessel has been chosen.
func (r Report) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil && inRange(*r.Latitude, *r.Longitude)
}

// PositionValid reports whether the report has a usable fix.
func (r Report) PositionValid() bool {
	return r.HasCoordinates() && !IsNoFix(*r.Latitude, *r.Longitude)
}

// TimeValid reports whether the report's rec_time parsed to a timestamp.
func (r Report) TimeValid() bool {
	return r.RecordedAt != nil
}

// Normalize fills the derived fields from the raw ones. It is applied once
// at ingestion so every backend buckets and bins identically.
func (r *Report) Normalize() {
	if r == nil {
		return
	}
	r.RecordedAt = nil
	if r.RecTime != nil {
		if ts, err := ParseRecTime(*r.RecTime); err == nil {
			r.RecordedAt = &ts
		}
	}
	r.LatCell, r.LonCell = nil, nil
	if r.Latitude != nil && r.Longitude != nil {
		lat, lon := CellOf(*r.Latitude, *r.Longitude)
		r.LatCell, r.LonCell = &lat, &lon
	}
}

func stringOr(value *string, fallback string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return fallback
	}
	return *value
}

func floatOr(value *float64, fallback float64) float64 {
	if value == nil {
		return fallback
	}
	return *value
}
