package ais

import "time"

// SeriesPoint is one bucket of a time series.
type SeriesPoint struct {
	Bucket time.Time
	Value  float64
}

// DestinationCount counts reports per destination.
type DestinationCount struct {
	Destination string `json:"destination"`
	Count       int64  `json:"arrivals"`
}

// ShipTypeMonthCount counts distinct vessels of a ship type in a month.
type ShipTypeMonthCount struct {
	Month    time.Time
	ShipType string
	Count    int64
}

// ShipTypeCount counts distinct vessels of a ship type.
type ShipTypeCount struct {
	ShipType string `json:"ship_type"`
	Count    int64  `json:"count"`
}

// MonthCount counts distinct vessels in a calendar month number (1-12).
type MonthCount struct {
	Month int   `json:"month"`
	Count int64 `json:"fishing_vessels"`
}

// CommercialRatio splits a month's distinct vessels by classification.
type CommercialRatio struct {
	Month         time.Time
	Commercial    int64
	NonCommercial int64
}

// SummaryCounts are the raw counts behind the monthly summary.
type SummaryCounts struct {
	ShipsInRange int64
	TotalShips   int64
	TotalRecords int64
}

// MonthlySummary is the dashboard header figure set.
type MonthlySummary struct {
	ShipsThisMonth int64  `json:"ships_this_month"`
	TotalShipsInDB int64  `json:"total_ships_in_db"`
	TotalRecords   int64  `json:"total_records"`
	Month          string `json:"month"`
	Timestamp      string `json:"timestamp"`
	Error          string `json:"error,omitempty"`
}
