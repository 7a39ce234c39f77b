package ais

import "github.com/shopspring/decimal"

// CellPrecision is the number of decimals kept in a grid-cell key
// (about 1.1 km at the equator).
const CellPrecision = 2

// CellOf returns the grid-cell key of a coordinate pair. Rounding is half
// away from zero on the shortest decimal form of each value, so 1.005 maps
// to 1.01 the way a NUMERIC cast followed by round() does.
func CellOf(lat, lon float64) (float64, float64) {
	return roundCell(lat), roundCell(lon)
}

func roundCell(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(CellPrecision).Float64()
	return rounded
}

// HeatmapPoint is one aggregated grid cell.
type HeatmapPoint struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Intensity float64 `json:"intensity"`
}
