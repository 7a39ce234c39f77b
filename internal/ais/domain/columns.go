package ais

import "regexp"

// DefaultTable is the telemetry table name when none is configured.
const DefaultTable = "ais_reports"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidTableName reports whether name is a plain SQL identifier that the
// stores may interpolate into statements and derived index names.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

// ColumnKind is the storage type of a source column.
type ColumnKind int

const (
	KindInt ColumnKind = iota
	KindFloat
	KindText
)

// Column describes one source column of the telemetry table.
type Column struct {
	Name string
	Kind ColumnKind
}

// SourceColumns lists the table columns a tabular source may fill, in
// table order. Names are the source header names.
var SourceColumns = []Column{
	{Name: "mmsi", Kind: KindInt},
	{Name: "nav_status", Kind: KindText},
	{Name: "rot", Kind: KindFloat},
	{Name: "sog", Kind: KindFloat},
	{Name: "latitude", Kind: KindFloat},
	{Name: "longitude", Kind: KindFloat},
	{Name: "cog", Kind: KindFloat},
	{Name: "true_heading", Kind: KindInt},
	{Name: "imo", Kind: KindInt},
	{Name: "ship_name", Kind: KindText},
	{Name: "call_sign", Kind: KindText},
	{Name: "ship_type", Kind: KindText},
	{Name: "draught", Kind: KindFloat},
	{Name: "destination", Kind: KindText},
	{Name: "dimbow", Kind: KindInt},
	{Name: "dimstern", Kind: KindInt},
	{Name: "dimport", Kind: KindInt},
	{Name: "dimstarboard", Kind: KindInt},
	{Name: "eta", Kind: KindText},
	{Name: "beam", Kind: KindFloat},
	{Name: "length", Kind: KindFloat},
	{Name: "rec_time", Kind: KindText},
	{Name: "source", Kind: KindText},
	{Name: "country", Kind: KindText},
	{Name: "flag_name", Kind: KindText},
}

// SourceColumnNames returns the names of SourceColumns.
func SourceColumnNames() []string {
	names := make([]string, len(SourceColumns))
	for i, col := range SourceColumns {
		names[i] = col.Name
	}
	return names
}


// FieldTargets returns pointers to the report fields in SourceColumns order. Values are **int64, **float64 or **string, which
// database/sql can scan into directly.
func (r *Report) FieldTargets() []any {
	return []any{
		&r.MMSI,
		&r.NavStatus,
		&r.RateOfTurn,
		&r.SpeedOverGround,
		&r.Latitude,
		&r.Longitude,
		&r.CourseOverGround,
		&r.TrueHeading,
		&r.IMO,
		&r.ShipName,
		&r.CallSign,
		&r.ShipType,
		&r.Draught,
		&r.Destination,
		&r.DimBow,
		&r.DimStern,
		&r.DimPort,
		&r.DimStarboard,
		&r.ETA,
		&r.Beam,
		&r.Length,
		&r.RecTime,
		&r.Source,
		&r.Country,
		&r.FlagName,
	}
}

// FieldValues returns the source column values in SourceColumns order,
// with untyped nil for missing values.
func (r *Report) FieldValues() []any {
	targets := r.FieldTargets()
	values := make([]any, len(targets))
	for i, target := range targets {
		switch ptr := target.(type) {
		case **int64:
			if *ptr != nil {
				values[i] = **ptr
			}
		case **float64:
			if *ptr != nil {
				values[i] = **ptr
			}
		case **string:
			if *ptr != nil {
				values[i] = **ptr
			}
		}
	}
	return values
}
