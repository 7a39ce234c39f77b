package ais

import "strconv"

const (
	// UnknownText is the fallback for missing categorical text.
	UnknownText = "Unknown"
)

// VesselSnapshot is the current state of one vessel for map display.
type VesselSnapshot struct {
	MMSI        string  `json:"mmsi"`
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ShipType    string  `json:"shipType"`
	SOG         float64 `json:"sog"`
	COG         float64 `json:"cog"`
	Heading     float64 `json:"heading"`
	Destination string  `json:"destination"`
	Draught     float64 `json:"draught"`
	Length      float64 `json:"length"`
	Width       float64 `json:"width"`
	LastUpdate  string  `json:"lastUpdate"`
	ETA         string  `json:"eta"`
}

// NewVesselSnapshot maps a resolved report to a snapshot with field defaults.
func NewVesselSnapshot(r Report) VesselSnapshot {
	mmsi := ""
	if r.MMSI != nil {
		mmsi = strconv.FormatInt(*r.MMSI, 10)
	}
	return VesselSnapshot{
		MMSI:        mmsi,
		Name:        stringOr(r.ShipName, "Vessel "+mmsi),
		Lat:         floatOr(r.Latitude, 0),
		Lon:         floatOr(r.Longitude, 0),
		ShipType:    stringOr(r.ShipType, UnknownText),
		SOG:         floatOr(r.SpeedOverGround, 0),
		COG:         floatOr(r.CourseOverGround, 0),
		Heading:     r.Heading(),
		Destination: stringOr(r.Destination, UnknownText),
		Draught:     floatOr(r.Draught, 0),
		Length:      floatOr(r.Length, 0),
		Width:       floatOr(r.Beam, 0),
		LastUpdate:  stringOr(r.RecTime, ""),
		ETA:         stringOr(r.ETA, ""),
	}
}

// Heading returns true heading, falling back to course over ground, then 0.
func (r Report) Heading() float64 {
	if r.TrueHeading != nil {
		return float64(*r.TrueHeading)
	}
	return floatOr(r.CourseOverGround, 0)
}

// HistoryPoint is one entry of a vessel's track.
type HistoryPoint struct {
	RecTime     string  `json:"rec_time"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	SOG         float64 `json:"sog"`
	Destination string  `json:"destination"`
}

// NewHistoryPoint maps a raw report to a history entry with field defaults.
func NewHistoryPoint(r Report) HistoryPoint {
	return HistoryPoint{
		RecTime:     stringOr(r.RecTime, ""),
		Latitude:    floatOr(r.Latitude, 0),
		Longitude:   floatOr(r.Longitude, 0),
		SOG:         floatOr(r.SpeedOverGround, 0),
		Destination: stringOr(r.Destination, UnknownText),
	}
}
