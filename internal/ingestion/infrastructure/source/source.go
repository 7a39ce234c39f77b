// Package source reads AIS reports from tabular files.
package source

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	ais "ais-insight/internal/ais/domain"
)

var (
	// ErrUnsupportedFormat is returned for file extensions without a reader.
	ErrUnsupportedFormat = errors.New("source: unsupported file format")
	// ErrMissingHeader is returned when the source has no header row.
	ErrMissingHeader = errors.New("source: missing header row")
)

// Reader yields the rows of a tabular source in chunks.
type Reader interface {
	// Columns lists the header columns mapped to table columns, in source order.
	Columns() []string
	// Ignored lists header columns with no matching table column.
	Ignored() []string
	// Next returns up to max rows, or io.EOF when the source is exhausted.
	Next(ctx context.Context, max int) ([]ais.Report, error)
	// InvalidValues counts numeric cells that could not be parsed.
	InvalidValues() int64
	Close() error
}

// Open picks a reader by file extension.
func Open(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return OpenCSV(path)
	case ".xlsx", ".xlsm":
		return OpenXLSX(path)
	default:
		return nil, ErrUnsupportedFormat
	}
}

type binding struct {
	cell   int
	target int
	column ais.Column
}

// decoder maps header positions to report fields.
type decoder struct {
	bindings []binding
	columns  []string
	ignored  []string
	invalid  int64
	// rewrite adjusts a raw cell before it is parsed.
	rewrite func(column ais.Column, raw string) string
}

func newDecoder(header []string) (*decoder, error) {
	if len(header) == 0 {
		return nil, ErrMissingHeader
	}
	positions := make(map[string]int, len(ais.SourceColumns))
	for i, col := range ais.SourceColumns {
		positions[col.Name] = i
	}

	d := &decoder{}
	seen := make(map[string]bool, len(header))
	for cell, raw := range header {
		name := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		target, ok := positions[name]
		if !ok || seen[name] {
			if name != "" {
				d.ignored = append(d.ignored, name)
			}
			continue
		}
		seen[name] = true
		d.bindings = append(d.bindings, binding{cell: cell, target: target, column: ais.SourceColumns[target]})
		d.columns = append(d.columns, name)
	}
	return d, nil
}

func (d *decoder) decode(cells []string) ais.Report {
	var report ais.Report
	targets := report.FieldTargets()
	for _, b := range d.bindings {
		if b.cell >= len(cells) {
			continue
		}
		raw := cells[b.cell]
		if d.rewrite != nil {
			raw = d.rewrite(b.column, raw)
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		switch target := targets[b.target].(type) {
		case **int64:
			if v, ok, valid := parseInt(raw); ok {
				*target = &v
			} else if !valid {
				d.invalid++
			}
		case **float64:
			if v, ok, valid := parseFloat(raw); ok {
				*target = &v
			} else if !valid {
				d.invalid++
			}
		case **string:
			v := raw
			*target = &v
		}
	}
	return report
}

// parseInt accepts integer text and integral float text such as "123.0".
func parseInt(raw string) (value int64, ok bool, valid bool) {
	raw = strings.TrimSpace(raw)
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, true, true
	}
	f, ok, valid := parseFloat(raw)
	if !ok {
		return 0, false, valid
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false, false
	}
	return int64(f), true, true
}

// parseFloat reports NaN as missing (ok=false, valid=true) and non-numeric
// text as invalid.
func parseFloat(raw string) (value float64, ok bool, valid bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, true
	}
	return f, true, true
}
