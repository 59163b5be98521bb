package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "annotator.cfg.json"

// DirEnv overrides the directory the config file is read from.
const DirEnv = "ANNOTATOR_CONFIG_DIR"

// ErrNotFound is returned by Load when no config file exists. Defaults are
// still in effect.
var ErrNotFound = errors.New("config file not found")

// VideoConfig holds frame source settings.
type VideoConfig struct {
	FFmpegPath  string  `json:"ffmpegPath" mapstructure:"ffmpegPath"`
	FFprobePath string  `json:"ffprobePath" mapstructure:"ffprobePath"`
	PreviewPath string  `json:"previewPath" mapstructure:"previewPath"`
	DefaultFPS  float64 `json:"defaultFps" mapstructure:"defaultFps"`
}

// ExportConfig holds export settings shared by all formats.
type ExportConfig struct {
	OutputDir    string `json:"outputDir" mapstructure:"outputDir"`
	FrameColumn  string `json:"frameColumn" mapstructure:"frameColumn"`
	SheetName    string `json:"sheetName" mapstructure:"sheetName"`
	CompressJSON bool   `json:"compressJson" mapstructure:"compressJson"`
}

// SQLiteConfig holds SQLite session storage settings.
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// PostgresConfig holds PostgreSQL session storage settings.
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// StorageConfig selects and configures the session storage backend.
type StorageConfig struct {
	Type     string         `json:"type" mapstructure:"type"`
	SQLite   SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// InfluxConfig holds InfluxDB export settings.
type InfluxConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	Protocol   string `json:"protocol" mapstructure:"protocol"`
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// URL returns the server address.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// GraylogConfig holds GELF log shipping settings.
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// Dir returns the directory the config file is read from: $ANNOTATOR_CONFIG_DIR
// when set, else the directory of the running executable.
func Dir() string {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir
	}
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./annotatorlogs")

	viper.SetDefault("video.ffmpegPath", "ffmpeg")
	viper.SetDefault("video.ffprobePath", "ffprobe")
	viper.SetDefault("video.previewPath", "./preview.png")
	viper.SetDefault("video.defaultFps", 30.0)

	viper.SetDefault("export.outputDir", "./exports")
	viper.SetDefault("export.frameColumn", "frame_index")
	viper.SetDefault("export.sheetName", "annotations")
	viper.SetDefault("export.compressJson", false)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.sqlite.path", "./annotations.db")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "annotator")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "annotator")
	viper.SetDefault("influx.bucket", "annotations")
	viper.SetDefault("influx.backupPath", "./annotations_influx_backup.log.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "frame-annotator")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w in %s", ErrNotFound, configDir)
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetVideoConfig returns the frame source settings.
func GetVideoConfig() VideoConfig {
	return VideoConfig{
		FFmpegPath:  viper.GetString("video.ffmpegPath"),
		FFprobePath: viper.GetString("video.ffprobePath"),
		PreviewPath: viper.GetString("video.previewPath"),
		DefaultFPS:  viper.GetFloat64("video.defaultFps"),
	}
}

// GetExportConfig returns the export settings.
func GetExportConfig() ExportConfig {
	return ExportConfig{
		OutputDir:    viper.GetString("export.outputDir"),
		FrameColumn:  viper.GetString("export.frameColumn"),
		SheetName:    viper.GetString("export.sheetName"),
		CompressJSON: viper.GetBool("export.compressJson"),
	}
}

// GetStorageConfig returns the session storage settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
		},
	}
}

// GetInfluxConfig returns the InfluxDB settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Protocol:   viper.GetString("influx.protocol"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetGraylogConfig returns the GELF settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
