package source

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	ais "ais-insight/internal/ais/domain"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct {
	file    *excelize.File
	rows    *excelize.Rows
	decoder *decoder
}

// OpenXLSX opens the first worksheet of a workbook whose first row is the header.
func OpenXLSX(path string) (Reader, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	reader, err := newXLSXReader(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return reader, nil
}

func newXLSXReader(file *excelize.File) (*xlsxReader, error) {
	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrMissingHeader
	}
	rows, err := file.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("source: open sheet %s: %w", sheets[0], err)
	}
	if !rows.Next() {
		_ = rows.Close()
		return nil, ErrMissingHeader
	}
	header, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("source: read header: %w", err)
	}
	dec, err := newDecoder(header)
	if err != nil {
		_ = rows.Close()
		return nil, err
	}
	reader := &xlsxReader{file: file, rows: rows, decoder: dec}
	dec.rewrite = reader.rewriteCell
	return reader, nil
}

// rewriteCell turns Excel date serials in rec_time into timestamp text.
func (r *xlsxReader) rewriteCell(column ais.Column, raw string) string {
	if column.Name != "rec_time" {
		return raw
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	ts, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return raw
	}
	return ais.FormatRecTime(ts.Round(time.Second))
}

func (r *xlsxReader) Columns() []string    { return r.decoder.columns }
func (r *xlsxReader) Ignored() []string    { return r.decoder.ignored }
func (r *xlsxReader) InvalidValues() int64 { return r.decoder.invalid }

func (r *xlsxReader) Next(ctx context.Context, max int) ([]ais.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if max <= 0 {
		max = 1
	}
	out := make([]ais.Report, 0, min(max, 4096))
	for len(out) < max && r.rows.Next() {
		cells, err := r.rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("source: xlsx row: %w", err)
		}
		if isBlankRow(cells) {
			continue
		}
		out = append(out, r.decoder.decode(cells))
	}
	if err := r.rows.Error(); err != nil {
		return nil, fmt.Errorf("source: xlsx rows: %w", err)
	}
	if len(out) == 0 {
		return nil, io.EOF
	}
	return out, nil
}

func (r *xlsxReader) Close() error {
	rowsErr := r.rows.Close()
	if err := r.file.Close(); err != nil {
		return err
	}
	return rowsErr
}

func isBlankRow(cells []string) bool {
	for _, cell := range cells {
		if cell != "" {
			return false
		}
	}
	return true
}
