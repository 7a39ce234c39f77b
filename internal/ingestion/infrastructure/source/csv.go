package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	ais "ais-insight/internal/ais/domain"
)

type csvReader struct {
	file    *os.File
	reader  *csv.Reader
	decoder *decoder
	line    int
}

// OpenCSV opens a comma-separated file whose first record is the header.
func OpenCSV(path string) (Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	reader, err := newCSVReader(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	reader.file = file
	return reader, nil
}

func newCSVReader(r io.Reader) (*csvReader, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("source: read header: %w", err)
	}
	dec, err := newDecoder(header)
	if err != nil {
		return nil, err
	}
	return &csvReader{reader: reader, decoder: dec, line: 1}, nil
}

func (r *csvReader) Columns() []string    { return r.decoder.columns }
func (r *csvReader) Ignored() []string    { return r.decoder.ignored }
func (r *csvReader) InvalidValues() int64 { return r.decoder.invalid }

func (r *csvReader) Next(ctx context.Context, max int) ([]ais.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if max <= 0 {
		max = 1
	}
	out := make([]ais.Report, 0, min(max, 4096))
	for len(out) < max {
		record, err := r.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		r.line++
		if err != nil {
			return nil, fmt.Errorf("source: csv record %d: %w", r.line, err)
		}
		out = append(out, r.decoder.decode(record))
	}
	if len(out) == 0 {
		return nil, io.EOF
	}
	return out, nil
}

func (r *csvReader) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}
