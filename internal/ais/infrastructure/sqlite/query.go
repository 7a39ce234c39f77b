package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	ais "ais-insight/internal/ais/domain"
)

// candidatePredicate selects rows eligible to be a vessel's latest report.
// The (0,0) sentinel stays eligible and is filtered after resolution.
const candidatePredicate = `mmsi BETWEEN 1000000 AND 9999999
	AND latitude IS NOT NULL AND longitude IS NOT NULL
	AND latitude BETWEEN -90 AND 90
	AND longitude BETWEEN -180 AND 180`

const noFixPredicate = `(latitude = 0 AND longitude = 0)`

func selectColumns() string {
	return "id, " + strings.Join(ais.SourceColumnNames(), ", ")
}

// LatestPositions returns the newest report per vessel, omitting vessels
// whose newest report has no fix.
func (s *Store) LatestPositions(ctx context.Context, limit int) ([]ais.Report, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT %[1]s FROM (
	SELECT %[1]s, rec_ts,
		ROW_NUMBER() OVER (PARTITION BY mmsi ORDER BY rec_ts DESC NULLS LAST, id DESC) AS rn
	FROM %[2]s
	WHERE %[3]s
)
WHERE rn = 1 AND NOT %[4]s
ORDER BY rec_ts DESC NULLS LAST, mmsi ASC
LIMIT ?`, selectColumns(), s.table, candidatePredicate, noFixPredicate)
	return s.queryReports(ctx, query, limit)
}

// History returns the newest reports of one vessel without validity filters.
func (s *Store) History(ctx context.Context, mmsi int64, limit int) ([]ais.Report, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT %s FROM %s
WHERE mmsi = ?
ORDER BY rec_ts DESC NULLS LAST, id DESC
LIMIT ?`, selectColumns(), s.table)
	return s.queryReports(ctx, query, mmsi, limit)
}

func (s *Store) queryReports(ctx context.Context, query string, args ...any) ([]ais.Report, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]ais.Report, 0)
	for rows.Next() {
		var report ais.Report
		targets := append([]any{&report.ID}, report.FieldTargets()...)
		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}
		report.Normalize()
		result = append(result, report)
	}
	return result, rows.Err()
}

// DensityCells counts reports per grid cell.
func (s *Store) DensityCells(ctx context.Context) ([]ais.HeatmapPoint, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT lat_cell, lon_cell, COUNT(*)
FROM %s
WHERE lat_cell IS NOT NULL AND lon_cell IS NOT NULL
GROUP BY lat_cell, lon_cell
ORDER BY lat_cell, lon_cell`, s.table)
	return s.queryCells(ctx, query)
}

// SpeedCells averages speed over ground per grid cell.
func (s *Store) SpeedCells(ctx context.Context) ([]ais.HeatmapPoint, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT lat_cell, lon_cell, AVG(sog)
FROM %s
WHERE lat_cell IS NOT NULL AND lon_cell IS NOT NULL AND sog IS NOT NULL
GROUP BY lat_cell, lon_cell
ORDER BY lat_cell, lon_cell`, s.table)
	return s.queryCells(ctx, query)
}

func (s *Store) queryCells(ctx context.Context, query string) ([]ais.HeatmapPoint, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]ais.HeatmapPoint, 0)
	for rows.Next() {
		var point ais.HeatmapPoint
		if err := rows.Scan(&point.Lat, &point.Lon, &point.Intensity); err != nil {
			return nil, err
		}
		result = append(result, point)
	}
	return result, rows.Err()
}

// bucketExpr returns the rec_ts prefix naming a bucket and its layout.
func bucketExpr(granularity ais.Granularity) (string, string, error) {
	switch granularity {
	case ais.GranularityHour:
		return "substr(rec_ts, 1, 13)", "2006-01-02 15", nil
	case ais.GranularityDay:
		return "substr(rec_ts, 1, 10)", "2006-01-02", nil
	case ais.GranularityMonth:
		return "substr(rec_ts, 1, 7)", "2006-01", nil
	default:
		return "", "", ais.ErrInvalidGranularity
	}
}

// DistinctVesselsPerBucket counts distinct vessels per time bucket.
func (s *Store) DistinctVesselsPerBucket(ctx context.Context, granularity ais.Granularity) ([]ais.SeriesPoint, error) {
	return s.querySeries(ctx, granularity, "COUNT(DISTINCT mmsi)", "")
}

// AverageSpeedPerBucket averages speed per time bucket.
func (s *Store) AverageSpeedPerBucket(ctx context.Context, granularity ais.Granularity) ([]ais.SeriesPoint, error) {
	return s.querySeries(ctx, granularity, "AVG(sog)", "AND sog IS NOT NULL")
}

func (s *Store) querySeries(ctx context.Context, granularity ais.Granularity, aggregate, filter string) ([]ais.SeriesPoint, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	expr, layout, err := bucketExpr(granularity)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT %[1]s AS bucket, %[2]s
FROM %[3]s
WHERE rec_ts IS NOT NULL %[4]s
GROUP BY bucket
ORDER BY bucket`, expr, aggregate, s.table, filter)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]ais.SeriesPoint, 0)
	for rows.Next() {
		var bucket string
		var value float64
		if err := rows.Scan(&bucket, &value); err != nil {
			return nil, err
		}
		ts, err := time.ParseInLocation(layout, bucket, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: bucket %q: %w", bucket, err)
		}
		result = append(result, ais.SeriesPoint{Bucket: ts, Value: value})
	}
	return result, rows.Err()
}

// Arrivals counts reports per destination.
func (s *Store) Arrivals(ctx context.Context) ([]ais.DestinationCount, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT destination, COUNT(*) AS arrivals
FROM %s
WHERE destination IS NOT NULL
GROUP BY destination
ORDER BY arrivals DESC, destination ASC`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]ais.DestinationCount, 0)
	for rows.Next() {
		var item ais.DestinationCount
		if err := rows.Scan(&item.Destination, &item.Count); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// ShipTypesPerMonth counts distinct vessels per month and ship type.
func (s *Store) ShipTypesPerMonth(ctx context.Context) ([]ais.ShipTypeMonthCount, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT substr(rec_ts, 1, 7) AS month, COALESCE(ship_type, '%s') AS type, COUNT(DISTINCT mmsi)
FROM %s
WHERE rec_ts IS NOT NULL
GROUP BY month, type
ORDER BY month, type`, ais.UnknownText, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]ais.ShipTypeMonthCount, 0)
	for rows.Next() {
		var month string
		var item ais.ShipTypeMonthCount
		if err := rows.Scan(&month, &item.ShipType, &item.Count); err != nil {
			return nil, err
		}
		if item.Month, err = parseMonth(month); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// ShipTypesAtDestination counts distinct vessels per ship type for one destination.
func (s *Store) ShipTypesAtDestination(ctx context.Context, destination string) ([]ais.ShipTypeCount, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT COALESCE(ship_type, '%s') AS type, COUNT(DISTINCT mmsi) AS vessels
FROM %s
WHERE rec_ts IS NOT NULL AND destination = ?
GROUP BY type
ORDER BY vessels DESC, type ASC`, ais.UnknownText, s.table)

	rows, err := s.db.QueryContext(ctx, query, destination)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]ais.ShipTypeCount, 0)
	for rows.Next() {
		var item ais.ShipTypeCount
		if err := rows.Scan(&item.ShipType, &item.Count); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// VesselsPerCalendarMonth counts distinct vessels of a type per month number.
func (s *Store) VesselsPerCalendarMonth(ctx context.Context, shipType string) ([]ais.MonthCount, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT CAST(substr(rec_ts, 6, 2) AS INTEGER) AS month, COUNT(DISTINCT mmsi)
FROM %s
WHERE rec_ts IS NOT NULL AND ship_type = ?
GROUP BY month
ORDER BY month`, s.table)

	rows, err := s.db.QueryContext(ctx, query, shipType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]ais.MonthCount, 0)
	for rows.Next() {
		var item ais.MonthCount
		if err := rows.Scan(&item.Month, &item.Count); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// CommercialRatio splits distinct vessels per month by classification.
func (s *Store) CommercialRatio(ctx context.Context, classification ais.ShipClassification) ([]ais.CommercialRatio, error) {
	if s == nil || s.db == nil {
		return nil, errNilDB
	}
	types := classification.CommercialTypes()
	if len(types) == 0 {
		return nil, ais.ErrEmptyClassification
	}
	in := strings.TrimSuffix(strings.Repeat("?, ", len(types)), ", ")
	query := fmt.Sprintf(`
SELECT substr(rec_ts, 1, 7) AS month,
	COUNT(DISTINCT CASE WHEN ship_type IN (%[1]s) THEN mmsi END),
	COUNT(DISTINCT CASE WHEN ship_type IS NOT NULL AND ship_type NOT IN (%[1]s) THEN mmsi END)
FROM %[2]s
WHERE rec_ts IS NOT NULL
GROUP BY month
ORDER BY month`, in, s.table)

	args := make([]any, 0, 2*len(types))
	for i := 0; i < 2; i++ {
		for _, shipType := range types {
			args = append(args, shipType)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]ais.CommercialRatio, 0)
	for rows.Next() {
		var month string
		var item ais.CommercialRatio
		if err := rows.Scan(&month, &item.Commercial, &item.NonCommercial); err != nil {
			return nil, err
		}
		if item.Month, err = parseMonth(month); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// SummaryCounts returns distinct vessels in [from, to), overall, and time-valid records.
func (s *Store) SummaryCounts(ctx context.Context, from, to time.Time) (ais.SummaryCounts, error) {
	if s == nil || s.db == nil {
		return ais.SummaryCounts{}, errNilDB
	}
	query := fmt.Sprintf(`
SELECT
	COUNT(DISTINCT CASE WHEN rec_ts >= ? AND rec_ts < ? THEN mmsi END),
	COUNT(DISTINCT mmsi),
	COUNT(*)
FROM %s
WHERE rec_ts IS NOT NULL`, s.table)

	var counts ais.SummaryCounts
	var inRange, ships sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, formatTS(from), formatTS(to)).
		Scan(&inRange, &ships, &counts.TotalRecords)
	if err != nil {
		return ais.SummaryCounts{}, err
	}
	counts.ShipsInRange = inRange.Int64
	counts.TotalShips = ships.Int64
	return counts, nil
}

func parseMonth(value string) (time.Time, error) {
	ts, err := time.ParseInLocation("2006-01", value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite store: month %q: %w", value, err)
	}
	return ts, nil
}
