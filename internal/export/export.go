// Package export writes annotation tables to files and external sinks.
//
// Column order always comes from the schema: the frame column first, then
// each declared field. Record keys outside the schema are ignored and missing
// keys are written as empty cells.
package export

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OCAP2/annotator/pkg/core"
)

var (
	// ErrWrite wraps any failure to write an export destination.
	ErrWrite = errors.New("export write failed")

	// ErrUnknownFormat is returned for unsupported format names.
	ErrUnknownFormat = errors.New("unknown export format")
)

// DefaultFrameColumn is the name of the leading frame index column.
const DefaultFrameColumn = "frame_index"

// Format identifies an export format.
type Format string

const (
	CSV    Format = "csv"
	XLSX   Format = "xlsx"
	JSON   Format = "json"
	Influx Format = "influx"
)

// Formats lists the supported formats.
var Formats = []Format{CSV, XLSX, JSON, Influx}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	if f == Influx {
		return "lp"
	}
	return string(f)
}

// Table is a schema snapshot with its records and some context about where
// they came from.
type Table struct {
	Schema      core.Schema
	Records     []core.Record
	FrameColumn string

	VideoPath string
	SessionID string
	FPS       float64
}

// NewTable builds a table with the default frame column.
func NewTable(schema core.Schema, records []core.Record) Table {
	return Table{Schema: schema, Records: records, FrameColumn: DefaultFrameColumn}
}

func (t Table) frameColumn() string {
	if t.FrameColumn == "" {
		return DefaultFrameColumn
	}
	return t.FrameColumn
}

// Columns returns the header row.
func (t Table) Columns() []string {
	return append([]string{t.frameColumn()}, t.Schema.Names()...)
}

// Values returns rec's typed cells in column order. Missing values are nil.
func (t Table) Values(rec core.Record) []core.Value {
	row := make([]core.Value, 0, t.Schema.Len()+1)
	row = append(row, int64(rec.FrameIndex))
	for _, name := range t.Schema.Names() {
		row = append(row, rec.Values[name])
	}
	return row
}

// Strings returns rec's cells in column order as text.
func (t Table) Strings(rec core.Record) []string {
	row := make([]string, 0, t.Schema.Len()+1)
	row = append(row, strconv.Itoa(rec.FrameIndex))
	for _, name := range t.Schema.Names() {
		row = append(row, core.FormatValue(rec.Values[name]))
	}
	return row
}

// Exporter writes a table to a destination.
type Exporter interface {
	Export(ctx context.Context, t Table, path string) error
	Format() Format
}

// Options configures the exporters built by New.
type Options struct {
	SheetName    string
	CompressJSON bool
	Influx       TableWriter
}

// New creates the exporter for format.
func New(format Format, opts Options) (Exporter, error) {
	switch format {
	case CSV:
		return &CSVExporter{}, nil
	case XLSX:
		return &XLSXExporter{SheetName: opts.SheetName}, nil
	case JSON:
		return &JSONExporter{Compress: opts.CompressJSON}, nil
	case Influx:
		return &InfluxExporter{Writer: opts.Influx}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func writeErr(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
}
