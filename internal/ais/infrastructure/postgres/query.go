package postgres

import (
	"context"
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
func (r *ReportRepository) LatestPositions(ctx context.Context, limit int) ([]ais.Report, error) {
	if r == nil || r.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT %[1]s FROM (
	SELECT DISTINCT ON (mmsi) %[1]s, rec_ts
	FROM %[2]s
	WHERE %[3]s
	ORDER BY mmsi, rec_ts DESC NULLS LAST, id DESC
) latest
WHERE NOT %[4]s
ORDER BY rec_ts DESC NULLS LAST, mmsi ASC
LIMIT $1`, selectColumns(), quote(r.table), candidatePredicate, noFixPredicate)
	return r.queryReports(ctx, query, limit)
}

// History returns the newest reports of one vessel without validity filters.
func (r *ReportRepository) History(ctx context.Context, mmsi int64, limit int) ([]ais.Report, error) {
	if r == nil || r.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT %s FROM %s
WHERE mmsi = $1
ORDER BY rec_ts DESC NULLS LAST, id DESC
LIMIT $2`, selectColumns(), quote(r.table))
	return r.queryReports(ctx, query, mmsi, limit)
}

func (r *ReportRepository) queryReports(ctx context.Context, query string, args ...any) ([]ais.Report, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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
func (r *ReportRepository) DensityCells(ctx context.Context) ([]ais.HeatmapPoint, error) {
	if r == nil || r.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT lat_cell, lon_cell, COUNT(*)::double precision
FROM %s
WHERE lat_cell IS NOT NULL AND lon_cell IS NOT NULL
GROUP BY lat_cell, lon_cell
ORDER BY lat_cell, lon_cell`, quote(r.table))
	return r.queryCells(ctx, query)
}

// SpeedCells averages speed over ground per grid cell.
func (r *ReportRepository) SpeedCells(ctx context.Context) ([]ais.HeatmapPoint, error) {
	if r == nil || r.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT lat_cell, lon_cell, AVG(sog)
FROM %s
WHERE lat_cell IS NOT NULL AND lon_cell IS NOT NULL AND sog IS NOT NULL
GROUP BY lat_cell, lon_cell
ORDER BY lat_cell, lon_cell`, quote(r.table))
	return r.queryCells(ctx, query)
}

func (r *ReportRepository) queryCells(ctx context.Context, query string) ([]ais.HeatmapPoint, error) {
	rows, err := r.db.QueryContext(ctx, query)
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

// DistinctVesselsPerBucket counts distinct vessels per time bucket.
func (r *ReportRepository) DistinctVesselsPerBucket(ctx context.Context, granularity ais.Granularity) ([]ais.SeriesPoint, error) {
	return r.querySeries(ctx, granularity, "COUNT(DISTINCT mmsi)::double precision", "")
}

// AverageSpeedPerBucket averages speed per time bucket.
func (r *ReportRepository) AverageSpeedPerBucket(ctx context.Context, granularity ais.Granularity) ([]ais.SeriesPoint, error) {
	return r.querySeries(ctx, granularity, "AVG(sog)", "AND sog IS NOT NULL")
}

func (r *ReportRepository) querySeries(ctx context.Context, granularity ais.Granularity, aggregate, filter string) ([]ais.SeriesPoint, error) {
	if r == nil || r.db == nil {
		return nil, errNilDB
	}
	if !granularity.IsValid() {
		return nil, ais.ErrInvalidGranularity
	}
	query := fmt.Sprintf(`
SELECT date_trunc('%[1]s', rec_ts) AS bucket, %[2]s
FROM %[3]s
WHERE rec_ts IS NOT NULL %[4]s
GROUP BY bucket
ORDER BY bucket`, string(granularity), aggregate, quote(r.table), filter)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]ais.SeriesPoint, 0)
	for rows.Next() {
		var point ais.SeriesPoint
		if err := rows.Scan(&point.Bucket, &point.Value); err != nil {
			return nil, err
		}
		point.Bucket = point.Bucket.UTC()
		result = append(result, point)
	}
	return result, rows.Err()
}

// Arrivals counts reports per destination.
func (r *ReportRepository) Arrivals(ctx context.Context) ([]ais.DestinationCount, error) {
	if r == nil || r.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT destination, COUNT(*) AS arrivals
FROM %s
WHERE destination IS NOT NULL
GROUP BY destination
ORDER BY arrivals DESC, destination COLLATE "C" ASC`, quote(r.table))

	rows, err := r.db.QueryContext(ctx, query)
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
func (r *ReportRepository) ShipTypesPerMonth(ctx context.Context) ([]ais.ShipTypeMonthCount, error) {
	if r == nil || r.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT date_trunc('month', rec_ts) AS month, COALESCE(ship_type, $1) COLLATE "C" AS type_label, COUNT(DISTINCT mmsi)
FROM %s
WHERE rec_ts IS NOT NULL
GROUP BY month, type_label
ORDER BY month, type_label`, quote(r.table))

	rows, err := r.db.QueryContext(ctx, query, ais.UnknownText)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]ais.ShipTypeMonthCount, 0)
	for rows.Next() {
		var item ais.ShipTypeMonthCount
		if err := rows.Scan(&item.Month, &item.ShipType, &item.Count); err != nil {
			return nil, err
		}
		item.Month = item.Month.UTC()
		result = append(result, item)
	}
	return result, rows.Err()
}

// ShipTypesAtDestination counts distinct vessels per ship type for one destination.
func (r *ReportRepository) ShipTypesAtDestination(ctx context.Context, destination string) ([]ais.ShipTypeCount, error) {
	if r == nil || r.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT COALESCE(ship_type, $1) COLLATE "C" AS type_label, COUNT(DISTINCT mmsi) AS vessels
FROM %s
WHERE rec_ts IS NOT NULL AND destination = $2
GROUP BY type_label
ORDER BY vessels DESC, type_label ASC`, quote(r.table))

	rows, err := r.db.QueryContext(ctx, query, ais.UnknownText, destination)
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
func (r *ReportRepository) VesselsPerCalendarMonth(ctx context.Context, shipType string) ([]ais.MonthCount, error) {
	if r == nil || r.db == nil {
		return nil, errNilDB
	}
	query := fmt.Sprintf(`
SELECT EXTRACT(MONTH FROM rec_ts)::int AS month, COUNT(DISTINCT mmsi)
FROM %s
WHERE rec_ts IS NOT NULL AND ship_type = $1
GROUP BY month
ORDER BY month`, quote(r.table))

	rows, err := r.db.QueryContext(ctx, query, shipType)
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
func (r *ReportRepository) CommercialRatio(ctx context.Context, classification ais.ShipClassification) ([]ais.CommercialRatio, error) {
	if r == nil || r.db == nil {
		return nil, errNilDB
	}
	types := classification.CommercialTypes()
	if len(types) == 0 {
		return nil, ais.ErrEmptyClassification
	}
	query := fmt.Sprintf(`
SELECT date_trunc('month', rec_ts) AS month,
	COUNT(DISTINCT mmsi) FILTER (WHERE ship_type = ANY($1)),
	COUNT(DISTINCT mmsi) FILTER (WHERE ship_type IS NOT NULL AND NOT (ship_type = ANY($1)))
FROM %s
WHERE rec_ts IS NOT NULL
GROUP BY month
ORDER BY month`, quote(r.table))

	rows, err := r.db.QueryContext(ctx, query, types)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]ais.CommercialRatio, 0)
	for rows.Next() {
		var item ais.CommercialRatio
		if err := rows.Scan(&item.Month, &item.Commercial, &item.NonCommercial); err != nil {
			return nil, err
		}
		item.Month = item.Month.UTC()
		result = append(result, item)
	}
	return result, rows.Err()
}

// SummaryCounts returns distinct vessels in [from, to), overall, and time-valid records.
func (r *ReportRepository) SummaryCounts(ctx context.Context, from, to time.Time) (ais.SummaryCounts, error) {
	if r == nil || r.db == nil {
		return ais.SummaryCounts{}, errNilDB
	}
	query := fmt.Sprintf(`
SELECT
	COUNT(DISTINCT mmsi) FILTER (WHERE rec_ts >= $1 AND rec_ts < $2),
	COUNT(DISTINCT mmsi),
	COUNT(*)
FROM %s
WHERE rec_ts IS NOT NULL`, quote(r.table))

	var counts ais.SummaryCounts
	err := r.db.QueryRowContext(ctx, query, from.UTC(), to.UTC()).
		Scan(&counts.ShipsInRange, &counts.TotalShips, &counts.TotalRecords)
	if err != nil {
		return ais.SummaryCounts{}, err
	}
	return counts, nil
}
