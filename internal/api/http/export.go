package apihttp

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	ais "ais-insight/internal/ais/domain"
	"ais-insight/internal/observability/metrics"
	trends "ais-insight/internal/trends/application"
)

// TrendsWorkbook is the data behind the trends export.
type TrendsWorkbook struct {
	ShipsPerDay     []trends.DailyShips
	AvgSpeedPerDay  []trends.DailySpeed
	Arrivals        []ais.DestinationCount
	ShipTypes       []trends.ShipTypeMonth
	CommercialRatio []trends.MonthlyRatio
	Summary         ais.MonthlySummary
}

// GatherTrends runs the trend queries concurrently.
func GatherTrends(ctx context.Context, svc TrendService) (TrendsWorkbook, error) {
	var book TrendsWorkbook
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		book.ShipsPerDay, err = svc.ShipsPerDay(ctx)
		return err
	})
	g.Go(func() (err error) {
		book.AvgSpeedPerDay, err = svc.AvgSpeedPerDay(ctx)
		return err
	})
	g.Go(func() (err error) {
		book.Arrivals, err = svc.Arrivals(ctx)
		return err
	})
	g.Go(func() (err error) {
		book.ShipTypes, err = svc.ShipTypeTrends(ctx)
		return err
	})
	g.Go(func() (err error) {
		book.CommercialRatio, err = svc.CommercialRatio(ctx)
		return err
	})
	g.Go(func() error {
		book.Summary = svc.MonthlySummary(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return TrendsWorkbook{}, err
	}
	return book, nil
}

// BuildTrendsXLSX renders one sheet per trend series.
func BuildTrendsXLSX(book TrendsWorkbook) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	f.SetSheetName("Sheet1", summarySheet)
	_ = f.SetCellValue(summarySheet, "A1", "AIS Trends")
	_ = f.SetCellValue(summarySheet, "A3", "Month")
	_ = f.SetCellValue(summarySheet, "B3", book.Summary.Month)
	_ = f.SetCellValue(summarySheet, "A4", "Ships this month")
	_ = f.SetCellValue(summarySheet, "B4", book.Summary.ShipsThisMonth)
	_ = f.SetCellValue(summarySheet, "A5", "Total ships")
	_ = f.SetCellValue(summarySheet, "B5", book.Summary.TotalShipsInDB)
	_ = f.SetCellValue(summarySheet, "A6", "Total records")
	_ = f.SetCellValue(summarySheet, "B6", book.Summary.TotalRecords)
	_ = f.SetCellValue(summarySheet, "A7", "Generated")
	_ = f.SetCellValue(summarySheet, "B7", book.Summary.Timestamp)

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{name: "ships_per_day", header: []any{"Day", "Ships"}, rows: rowsOf(book.ShipsPerDay, func(v trends.DailyShips) []any {
			return []any{v.Day, v.Ships}
		})},
		{name: "avg_speed_per_day", header: []any{"Day", "Avg speed (kn)"}, rows: rowsOf(book.AvgSpeedPerDay, func(v trends.DailySpeed) []any {
			return []any{v.Day, v.AvgSpeed}
		})},
		{name: "arrivals", header: []any{"Destination", "Arrivals"}, rows: rowsOf(book.Arrivals, func(v ais.DestinationCount) []any {
			return []any{v.Destination, v.Count}
		})},
		{name: "ship_types", header: []any{"Month", "Ship type", "Vessels"}, rows: rowsOf(book.ShipTypes, func(v trends.ShipTypeMonth) []any {
			return []any{v.Month, v.ShipType, v.Count}
		})},
		{name: "commercial_ratio", header: []any{"Month", "Commercial", "Non-commercial"}, rows: rowsOf(book.CommercialRatio, func(v trends.MonthlyRatio) []any {
			return []any{v.Month, v.Commercial, v.NonCommercial}
		})},
	}
	for _, sheet := range sheets {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, err
		}
		header := sheet.header
		if err := f.SetSheetRow(sheet.name, "A1", &header); err != nil {
			return nil, err
		}
		for i, row := range sheet.rows {
			row := row
			if err := f.SetSheetRow(sheet.name, fmt.Sprintf("A%d", i+2), &row); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rowsOf[T any](items []T, row func(T) []any) [][]any {
	out := make([][]any, 0, len(items))
	for _, item := range items {
		out = append(out, row(item))
	}
	return out
}

// BuildSummaryPDF renders the monthly summary with the ratio table and
// the busiest destinations.
func BuildSummaryPDF(summary ais.MonthlySummary, ratios []trends.MonthlyRatio, arrivals []ais.DestinationCount) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "AIS Monthly Summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Month: %s", summary.Month))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Ships this month: %d", summary.ShipsThisMonth))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total ships: %d", summary.TotalShipsInDB))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total records: %d", summary.TotalRecords))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", summary.Timestamp))
	pdf.Ln(5)
	if summary.Error != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Error: %s", summary.Error))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Month", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Commercial", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Non-commercial", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, ratio := range ratios {
		pdf.CellFormat(50, 6, ratio.Month, "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", ratio.Commercial), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", ratio.NonCommercial), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(90, 6, "Destination", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Arrivals", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for i, item := range arrivals {
		if i == 10 {
			break
		}
		pdf.CellFormat(90, 6, item.Destination, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", item.Count), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GET /api/v1/exports/trends.xlsx
func (s *Server) exportTrendsXLSX(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		notReady(w)
		return
	}
	start := time.Now()
	book, err := GatherTrends(r.Context(), s.trends)
	if err != nil {
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(start))
		s.queryFailed(w, r, err)
		return
	}
	data, err := BuildTrendsXLSX(book)
	metrics.ObserveExport("xlsx", metrics.ResultOf(err), time.Since(start))
	if err != nil {
		s.logger.Error("render xlsx failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "export failed"})
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="trends.xlsx"`)
	_, _ = w.Write(data)
}

// GET /api/v1/exports/summary.pdf
func (s *Server) exportSummaryPDF(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		notReady(w)
		return
	}
	start := time.Now()
	ctx := r.Context()
	var (
		ratios   []trends.MonthlyRatio
		arrivals []ais.DestinationCount
		summary  ais.MonthlySummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ratios, err = s.trends.CommercialRatio(gctx)
		return err
	})
	g.Go(func() (err error) {
		arrivals, err = s.trends.Arrivals(gctx)
		return err
	})
	g.Go(func() error {
		summary = s.trends.MonthlySummary(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.ObserveExport("pdf", metrics.ResultError, time.Since(start))
		s.queryFailed(w, r, err)
		return
	}

	data, err := BuildSummaryPDF(summary, ratios, arrivals)
	metrics.ObserveExport("pdf", metrics.ResultOf(err), time.Since(start))
	if err != nil {
		s.logger.Error("render pdf failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "export failed"})
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="summary.pdf"`)
	_, _ = w.Write(data)
}
