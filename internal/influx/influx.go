package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/OCAP2/annotator/internal/config"
	"github.com/OCAP2/annotator/internal/export"
)

// Measurement is the measurement name of annotation points.
const Measurement = "annotation"

// Manager handles InfluxDB connections and writes.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPIBlocking
	BackupWriter *gzip.Writer
	IsValid      bool
	Config       config.InfluxConfig
	Logger       zerolog.Logger

	backupFile *os.File
	connected  bool
	now        func() time.Time
	mu         sync.Mutex
}

// NewManager creates a new InfluxDB manager.
func NewManager(log zerolog.Logger, cfg config.InfluxConfig) *Manager {
	return &Manager{
		Config: cfg,
		Logger: log,
		now:    time.Now,
	}
}

// Connect pings the server. When influx is disabled or unreachable, points
// are written to the gzip backup file instead. WriteTable connects on first
// use when Connect was not called.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connect(ctx)
}

func (m *Manager) connect(ctx context.Context) error {
	m.connected = true

	if !m.Config.Enabled {
		m.Logger.Info().Str("backupPath", m.Config.BackupPath).
			Msg("InfluxDB disabled, writing to backup file")
		return m.openBackup()
	}

	m.Client = influxdb2.NewClientWithOptions(
		m.Config.URL(),
		m.Config.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(ctx)
	if err != nil || !running {
		m.IsValid = false
		m.Logger.Warn().Err(err).Str("backupPath", m.Config.BackupPath).
			Msg("InfluxDB client failed to initialize, using backup writer")
		return m.openBackup()
	}

	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.Writer = m.Client.WriteAPIBlocking(m.Config.Org, m.Config.Bucket)
	m.IsValid = true
	m.Logger.Info().Str("url", m.Config.URL()).Str("bucket", m.Config.Bucket).
		Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.BackupWriter != nil {
		return nil
	}
	if dir := filepath.Dir(m.Config.BackupPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating backup dir: %w", err)
		}
	}
	file, err := os.OpenFile(m.Config.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgName := m.Config.Org

	// ensure org exists
	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		influxOrg, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	bucket := m.Config.Bucket
	if _, err = m.Client.BucketsAPI().FindBucketByName(ctx, bucket); err != nil {
		m.Logger.Info().Str("bucket", bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 0, // keep forever
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", bucket).Msg("Error creating bucket")
			return err
		}
	}

	return nil
}

// BuildPoints converts each record into one point. The point time is base
// plus the frame's offset in the video.
func BuildPoints(t export.Table, base time.Time) []*influxdb2_write.Point {
	fps := t.FPS
	if fps <= 0 {
		fps = 30
	}
	frameColumn := t.Columns()[0]
	video := filepath.Base(t.VideoPath)

	points := make([]*influxdb2_write.Point, 0, len(t.Records))
	for _, rec := range t.Records {
		offset := time.Duration(float64(rec.FrameIndex) * float64(time.Second) / fps)
		point := influxdb2_write.NewPointWithMeasurement(Measurement).
			SetTime(base.Add(offset))
		if t.VideoPath != "" {
			point.AddTag("video", video)
		}
		if t.SessionID != "" {
			point.AddTag("session", t.SessionID)
		}

		point.AddField(frameColumn, int64(rec.FrameIndex))
		for _, name := range t.Schema.Names() {
			if v := rec.Values[name]; v != nil {
				point.AddField(name, v)
			}
		}
		points = append(points, point)
	}
	return points
}

// WriteTable writes the table to InfluxDB or the backup file.
func (m *Manager) WriteTable(ctx context.Context, t export.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	points := BuildPoints(t, m.now())
	if len(points) == 0 {
		return nil
	}

	if !m.connected {
		if err := m.connect(ctx); err != nil {
			return err
		}
	}

	if m.IsValid {
		if err := m.Writer.WritePoint(ctx, points...); err != nil {
			return fmt.Errorf("error sending data to InfluxDB: %w", err)
		}
		m.Logger.Debug().Int("points", len(points)).Msg("Wrote annotations to InfluxDB")
		return nil
	}

	if m.BackupWriter == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	for _, point := range points {
		lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
		if _, err := m.BackupWriter.Write([]byte(lineProtocol + "\n")); err != nil {
			return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
		}
	}
	if err := m.BackupWriter.Flush(); err != nil {
		return fmt.Errorf("error flushing InfluxDB backup file: %w", err)
	}
	m.Logger.Debug().Int("points", len(points)).Str("backupPath", m.Config.BackupPath).
		Msg("Wrote annotations to backup file")
	return nil
}

// Close flushes the backup file and closes the client.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.BackupWriter != nil {
		errs = append(errs, m.BackupWriter.Close())
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		errs = append(errs, m.backupFile.Close())
		m.backupFile = nil
	}
	if m.Client != nil {
		m.Client.Close()
		m.Client = nil
	}
	m.IsValid = false
	m.connected = false
	return errors.Join(errs...)
}
