package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadOptions controls how a CSV snapshot is read
type ReadOptions struct {
	// IndexColumn names the first column. Snapshots written with a row index
	// carry an unnamed or differently named first header cell.
	IndexColumn string
}

// ReadFile reads a CSV file with a header row
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return t, nil
}

// Read parses CSV with a header row. Short rows are padded with missing
// values and extra cells are ignored.
func Read(r io.Reader, opts ReadOptions) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	if opts.IndexColumn != "" && len(columns) > 0 {
		columns[0] = opts.IndexColumn
	}

	t := New(columns...)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		row := make(Row, len(columns))
		for i, c := range columns {
			if i < len(record) {
				row[c] = strings.TrimSpace(record[i])
			} else {
				row[c] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}
