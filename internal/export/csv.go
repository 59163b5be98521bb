package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
)

// CSVExporter writes a comma separated file with a header row.
type CSVExporter struct{}

func (e *CSVExporter) Format() Format { return CSV }

func (e *CSVExporter) Export(_ context.Context, t Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return writeErr(path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns()); err != nil {
		return writeErr(path, err)
	}
	for _, rec := range t.Records {
		if err := w.Write(t.Strings(rec)); err != nil {
			return writeErr(path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return writeErr(path, err)
	}
	if err := f.Close(); err != nil {
		return writeErr(path, err)
	}
	return nil
}

// ReadCSV reads back a file written by CSVExporter.
func ReadCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("read csv %s: empty file", path)
	}
	return all[0], all[1:], nil
}
