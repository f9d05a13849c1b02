package fetcher

import (
	"context"
	"path/filepath"
	"strings"
)

// EncodingXLSX is reported as the encoding of workbook sources.
const EncodingXLSX = "xlsx"

// Table is an open tabular source. Rows must be drained before Errs is read.
type Table struct {
	Rows     <-chan []string
	Errs     <-chan error
	Encoding string
}

// IsXLSX reports whether path names an XLSX workbook.
func IsXLSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

func isTSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".tsv")
}

// OpenTable opens a CSV, TSV or XLSX file and streams every row, header rows
// included. Text files are decoded with the first of encodings that succeeds.
// Open and decode failures are returned before any row is produced.
func OpenTable(ctx context.Context, path string, encodings []string) (*Table, error) {
	if IsXLSX(path) {
		sheet, err := OpenXLSX(path)
		if err != nil {
			return nil, err
		}
		rows, errs := StreamXLSX(ctx, sheet)
		return &Table{Rows: rows, Errs: errs, Encoding: EncodingXLSX}, nil
	}

	text, enc, err := DecodeFile(path, encodings)
	if err != nil {
		return nil, err
	}
	opts := CSVOptions{LazyQuotes: true}
	if isTSV(path) {
		opts.Delimiter = '\t'
	}
	rows, errs := StreamCSV(ctx, strings.NewReader(text), opts)
	return &Table{Rows: rows, Errs: errs, Encoding: enc}, nil
}

// Drain returns the first error reported by the table after its rows are consumed.
func (t *Table) Drain() error {
	for range t.Rows { //nolint:revive // drain
	}
	var first error
	for err := range t.Errs {
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}
