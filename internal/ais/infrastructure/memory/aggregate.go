package memory

import (
	"context"
	"sort"
	"time"

	ais "ais-insight/internal/ais/domain"
)

type cellKey struct {
	lat float64
	lon float64
}

type speedSum struct {
	total float64
	count int64
}

// DensityCells counts reports per grid cell.
func (r *Repository) DensityCells(ctx context.Context) ([]ais.HeatmapPoint, error) {
	_ = ctx
	counts := make(map[cellKey]int64)
	for _, report := range r.snapshot() {
		if report.LatCell == nil || report.LonCell == nil {
			continue
		}
		counts[cellKey{lat: *report.LatCell, lon: *report.LonCell}]++
	}
	result := make([]ais.HeatmapPoint, 0, len(counts))
	for key, count := range counts {
		result = append(result, ais.HeatmapPoint{Lat: key.lat, Lon: key.lon, Intensity: float64(count)})
	}
	sortCells(result)
	return result, nil
}

// SpeedCells averages speed over ground per grid cell.
func (r *Repository) SpeedCells(ctx context.Context) ([]ais.HeatmapPoint, error) {
	_ = ctx
	sums := make(map[cellKey]*speedSum)
	for _, report := range r.snapshot() {
		if report.LatCell == nil || report.LonCell == nil || report.SpeedOverGround == nil {
			continue
		}
		key := cellKey{lat: *report.LatCell, lon: *report.LonCell}
		sum := sums[key]
		if sum == nil {
			sum = &speedSum{}
			sums[key] = sum
		}
		sum.total += *report.SpeedOverGround
		sum.count++
	}
	result := make([]ais.HeatmapPoint, 0, len(sums))
	for key, sum := range sums {
		result = append(result, ais.HeatmapPoint{Lat: key.lat, Lon: key.lon, Intensity: sum.total / float64(sum.count)})
	}
	sortCells(result)
	return result, nil
}

func sortCells(cells []ais.HeatmapPoint) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Lat != cells[j].Lat {
			return cells[i].Lat < cells[j].Lat
		}
		return cells[i].Lon < cells[j].Lon
	})
}

type vesselSet map[int64]struct{}

func (s vesselSet) add(report ais.Report) {
	if report.MMSI != nil {
		s[*report.MMSI] = struct{}{}
	}
}

// DistinctVesselsPerBucket counts distinct vessels per time bucket.
func (r *Repository) DistinctVesselsPerBucket(ctx context.Context, granularity ais.Granularity) ([]ais.SeriesPoint, error) {
	_ = ctx
	buckets := make(map[time.Time]vesselSet)
	for _, report := range r.snapshot() {
		if !report.TimeValid() {
			continue
		}
		bucket, err := granularity.Truncate(*report.RecordedAt)
		if err != nil {
			return nil, err
		}
		set := buckets[bucket]
		if set == nil {
			set = make(vesselSet)
			buckets[bucket] = set
		}
		set.add(report)
	}
	result := make([]ais.SeriesPoint, 0, len(buckets))
	for bucket, set := range buckets {
		result = append(result, ais.SeriesPoint{Bucket: bucket, Value: float64(len(set))})
	}
	sortSeries(result)
	return result, nil
}

// AverageSpeedPerBucket averages speed per time bucket.
func (r *Repository) AverageSpeedPerBucket(ctx context.Context, granularity ais.Granularity) ([]ais.SeriesPoint, error) {
	_ = ctx
	buckets := make(map[time.Time]*speedSum)
	for _, report := range r.snapshot() {
		if !report.TimeValid() || report.SpeedOverGround == nil {
			continue
		}
		bucket, err := granularity.Truncate(*report.RecordedAt)
		if err != nil {
			return nil, err
		}
		sum := buckets[bucket]
		if sum == nil {
			sum = &speedSum{}
			buckets[bucket] = sum
		}
		sum.total += *report.SpeedOverGround
		sum.count++
	}
	result := make([]ais.SeriesPoint, 0, len(buckets))
	for bucket, sum := range buckets {
		result = append(result, ais.SeriesPoint{Bucket: bucket, Value: sum.total / float64(sum.count)})
	}
	sortSeries(result)
	return result, nil
}

func sortSeries(points []ais.SeriesPoint) {
	sort.Slice(points, func(i, j int) bool { return points[i].Bucket.Before(points[j].Bucket) })
}

// Arrivals counts reports per destination.
func (r *Repository) Arrivals(ctx context.Context) ([]ais.DestinationCount, error) {
	_ = ctx
	counts := make(map[string]int64)
	for _, report := range r.snapshot() {
		if report.Destination == nil {
			continue
		}
		counts[*report.Destination]++
	}
	result := make([]ais.DestinationCount, 0, len(counts))
	for destination, count := range counts {
		result = append(result, ais.DestinationCount{Destination: destination, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Destination < result[j].Destination
	})
	return result, nil
}

type monthTypeKey struct {
	month    time.Time
	shipType string
}

// ShipTypesPerMonth counts distinct vessels per month and ship type.
func (r *Repository) ShipTypesPerMonth(ctx context.Context) ([]ais.ShipTypeMonthCount, error) {
	_ = ctx
	groups := make(map[monthTypeKey]vesselSet)
	for _, report := range r.snapshot() {
		if !report.TimeValid() {
			continue
		}
		key := monthTypeKey{month: ais.MonthStart(*report.RecordedAt), shipType: shipTypeOrUnknown(report)}
		set := groups[key]
		if set == nil {
			set = make(vesselSet)
			groups[key] = set
		}
		set.add(report)
	}
	result := make([]ais.ShipTypeMonthCount, 0, len(groups))
	for key, set := range groups {
		result = append(result, ais.ShipTypeMonthCount{Month: key.month, ShipType: key.shipType, Count: int64(len(set))})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Month.Equal(result[j].Month) {
			return result[i].Month.Before(result[j].Month)
		}
		return result[i].ShipType < result[j].ShipType
	})
	return result, nil
}

// ShipTypesAtDestination counts distinct vessels per ship type for one destination.
func (r *Repository) ShipTypesAtDestination(ctx context.Context, destination string) ([]ais.ShipTypeCount, error) {
	_ = ctx
	groups := make(map[string]vesselSet)
	for _, report := range r.snapshot() {
		if !report.TimeValid() || report.Destination == nil || *report.Destination != destination {
			continue
		}
		shipType := shipTypeOrUnknown(report)
		set := groups[shipType]
		if set == nil {
			set = make(vesselSet)
			groups[shipType] = set
		}
		set.add(report)
	}
	result := make([]ais.ShipTypeCount, 0, len(groups))
	for shipType, set := range groups {
		result = append(result, ais.ShipTypeCount{ShipType: shipType, Count: int64(len(set))})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].ShipType < result[j].ShipType
	})
	return result, nil
}

// VesselsPerCalendarMonth counts distinct vessels of a type per month number.
func (r *Repository) VesselsPerCalendarMonth(ctx context.Context, shipType string) ([]ais.MonthCount, error) {
	_ = ctx
	groups := make(map[int]vesselSet)
	for _, report := range r.snapshot() {
		if !report.TimeValid() || report.ShipType == nil || *report.ShipType != shipType {
			continue
		}
		month := int(report.RecordedAt.Month())
		set := groups[month]
		if set == nil {
			set = make(vesselSet)
			groups[month] = set
		}
		set.add(report)
	}
	result := make([]ais.MonthCount, 0, len(groups))
	for month, set := range groups {
		result = append(result, ais.MonthCount{Month: month, Count: int64(len(set))})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month < result[j].Month })
	return result, nil
}

// CommercialRatio splits distinct vessels per month by classification.
func (r *Repository) CommercialRatio(ctx context.Context, classification ais.ShipClassification) ([]ais.CommercialRatio, error) {
	_ = ctx
	type split struct {
		commercial    vesselSet
		nonCommercial vesselSet
	}
	months := make(map[time.Time]*split)
	for _, report := range r.snapshot() {
		if !report.TimeValid() {
			continue
		}
		month := ais.MonthStart(*report.RecordedAt)
		entry := months[month]
		if entry == nil {
			entry = &split{commercial: make(vesselSet), nonCommercial: make(vesselSet)}
			months[month] = entry
		}
		if report.ShipType == nil {
			continue
		}
		if classification.IsCommercial(*report.ShipType) {
			entry.commercial.add(report)
		} else {
			entry.nonCommercial.add(report)
		}
	}
	result := make([]ais.CommercialRatio, 0, len(months))
	for month, entry := range months {
		result = append(result, ais.CommercialRatio{
			Month:         month,
			Commercial:    int64(len(entry.commercial)),
			NonCommercial: int64(len(entry.nonCommercial)),
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month.Before(result[j].Month) })
	return result, nil
}

// SummaryCounts returns distinct vessels in [from, to), overall, and time-valid records.
func (r *Repository) SummaryCounts(ctx context.Context, from, to time.Time) (ais.SummaryCounts, error) {
	_ = ctx
	inRange := make(vesselSet)
	total := make(vesselSet)
	var records int64
	for _, report := range r.snapshot() {
		if !report.TimeValid() {
			continue
		}
		records++
		total.add(report)
		ts := *report.RecordedAt
		if !ts.Before(from) && ts.Before(to) {
			inRange.add(report)
		}
	}
	return ais.SummaryCounts{
		ShipsInRange: int64(len(inRange)),
		TotalShips:   int64(len(total)),
		TotalRecords: records,
	}, nil
}

func shipTypeOrUnknown(report ais.Report) string {
	if report.ShipType == nil {
		return ais.UnknownText
	}
	return *report.ShipType
}
