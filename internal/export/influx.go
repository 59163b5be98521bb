package export

import (
	"context"
	"errors"
	"fmt"
)

// TableWriter sends a table to a time-series sink.
type TableWriter interface {
	WriteTable(ctx context.Context, t Table) error
}

// InfluxExporter forwards a table to InfluxDB. The path is unused; points go
// to the server, or to the writer's backup file when it is unreachable.
type InfluxExporter struct {
	Writer TableWriter
}

func (e *InfluxExporter) Format() Format { return Influx }

func (e *InfluxExporter) Export(ctx context.Context, t Table, _ string) error {
	if e.Writer == nil {
		return fmt.Errorf("%w: influx: %w", ErrWrite, errors.New("influx output not configured"))
	}
	if err := e.Writer.WriteTable(ctx, t); err != nil {
		return fmt.Errorf("%w: influx: %w", ErrWrite, err)
	}
	return nil
}
