package influx

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/annotator/internal/config"
	"github.com/OCAP2/annotator/internal/export"
	"github.com/OCAP2/annotator/pkg/core"
)

func sampleTable() export.Table {
	schema := core.MustSchema(
		core.Field{Name: "label", Type: core.FieldString},
		core.Field{Name: "valor", Type: core.FieldInt},
	)
	tbl := export.NewTable(schema, []core.Record{
		{FrameIndex: 0, Values: map[string]core.Value{"label": "start", "valor": int64(1)}},
		{FrameIndex: 15, Values: map[string]core.Value{"label": nil, "valor": int64(2)}},
	})
	tbl.VideoPath = "/videos/clip.mp4"
	tbl.SessionID = "abc"
	tbl.FPS = 30
	return tbl
}

func TestBuildPoints(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	points := BuildPoints(sampleTable(), base)
	require.Len(t, points, 2)

	assert.Equal(t, Measurement, points[0].Name())
	assert.Equal(t, base, points[0].Time())
	assert.Equal(t, base.Add(500*time.Millisecond), points[1].Time())

	line := influxdb2_write.PointToLineProtocol(points[0], time.Nanosecond)
	assert.True(t, strings.HasPrefix(line, "annotation,"))
	assert.Contains(t, line, "video=clip.mp4")
	assert.Contains(t, line, "session=abc")
	assert.Contains(t, line, "frame_index=0i")
	assert.Contains(t, line, `label="start"`)
	assert.Contains(t, line, "valor=1i")

	// nil values are not written as fields
	line = influxdb2_write.PointToLineProtocol(points[1], time.Nanosecond)
	assert.NotContains(t, line, "label=")
	assert.Contains(t, line, "frame_index=15i")
}

func TestBuildPoints_DefaultFPS(t *testing.T) {
	tbl := sampleTable()
	tbl.FPS = 0
	base := time.Unix(0, 0).UTC()

	points := BuildPoints(tbl, base)
	assert.Equal(t, base.Add(500*time.Millisecond), points[1].Time())
}

func TestWriteTable_Backup(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "influx", "backup.lp.gz")
	m := NewManager(zerolog.Nop(), config.InfluxConfig{Enabled: false, BackupPath: backup})
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	require.NoError(t, m.Connect(context.Background()))
	assert.False(t, m.IsValid)
	require.NoError(t, m.WriteTable(context.Background(), sampleTable()))
	require.NoError(t, m.Close())

	f, err := os.Open(backup)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], " "+strconv.FormatInt(base.UnixNano(), 10)))
	assert.Contains(t, lines[1], "frame_index=15i")
}

func TestWriteTable_ConnectsOnFirstUse(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "lazy.lp.gz")
	m := NewManager(zerolog.Nop(), config.InfluxConfig{BackupPath: backup})

	require.NoError(t, m.WriteTable(context.Background(), sampleTable()))
	assert.NotNil(t, m.BackupWriter)
	require.NoError(t, m.Close())

	_, err := os.Stat(backup)
	assert.NoError(t, err)
}

func TestWriteTable_NoBackupPath(t *testing.T) {
	m := NewManager(zerolog.Nop(), config.InfluxConfig{})

	err := m.WriteTable(context.Background(), sampleTable())
	assert.Error(t, err)

	// Empty tables are a no-op.
	empty := export.NewTable(core.MustSchema(), nil)
	assert.NoError(t, m.WriteTable(context.Background(), empty))
}

func TestConnect_UnreachableFallsBack(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "backup.lp.gz")
	m := NewManager(zerolog.Nop(), config.InfluxConfig{
		Enabled:    true,
		Protocol:   "http",
		Host:       "127.0.0.1",
		Port:       "1",
		BackupPath: backup,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, m.Connect(ctx))
	assert.False(t, m.IsValid)
	assert.NotNil(t, m.BackupWriter)
	require.NoError(t, m.Close())

	_, err := os.Stat(backup)
	assert.NoError(t, err)
}
