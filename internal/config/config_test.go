package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"video": { "ffmpegPath": "/opt/ffmpeg/bin/ffmpeg" },
		"export": { "outputDir": "/data/exports" }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", GetString("logLevel"))
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", GetVideoConfig().FFmpegPath)
	assert.Equal(t, "ffprobe", GetVideoConfig().FFprobePath)
	assert.Equal(t, "/data/exports", GetExportConfig().OutputDir)
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./annotatorlogs", viper.GetString("logsDir"))
	assert.Equal(t, "./preview.png", viper.GetString("video.previewPath"))
	assert.Equal(t, 30.0, viper.GetFloat64("video.defaultFps"))
	assert.Equal(t, "frame_index", viper.GetString("export.frameColumn"))
	assert.Equal(t, "annotations", viper.GetString("export.sheetName"))
	assert.Equal(t, false, viper.GetBool("export.compressJson"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "./annotations.db", viper.GetString("storage.sqlite.path"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, false, GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.ErrorIs(t, err, ErrNotFound)

	// Defaults are usable even without a file.
	assert.Equal(t, "memory", GetStorageConfig().Type)
}

func TestLoad_MalformedFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load(writeConfig(t, `{"logLevel": `))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestDir(t *testing.T) {
	t.Setenv(DirEnv, "/etc/annotator")
	assert.Equal(t, "/etc/annotator", Dir())

	t.Setenv(DirEnv, "")
	assert.NotEmpty(t, Dir())
}

func TestGetExportConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"export": { "frameColumn": "frame", "sheetName": "labels", "compressJson": true }
	}`)))

	ec := GetExportConfig()
	assert.Equal(t, "./exports", ec.OutputDir)
	assert.Equal(t, "frame", ec.FrameColumn)
	assert.Equal(t, "labels", ec.SheetName)
	assert.True(t, ec.CompressJSON)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"storage": {
			"type": "postgres",
			"sqlite": { "path": "/tmp/a.db" },
			"postgres": { "host": "10.0.0.1", "port": "5433", "database": "labels" }
		}
	}`)))

	sc := GetStorageConfig()
	assert.Equal(t, "postgres", sc.Type)
	assert.Equal(t, "/tmp/a.db", sc.SQLite.Path)
	assert.Equal(t, "10.0.0.1", sc.Postgres.Host)
	assert.Equal(t, "5433", sc.Postgres.Port)
	assert.Equal(t, "postgres", sc.Postgres.Username)
	assert.Equal(t, "labels", sc.Postgres.Database)
}

func TestGetInfluxConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"influx": { "enabled": true, "host": "influx.local", "token": "secret" }
	}`)))

	ic := GetInfluxConfig()
	assert.True(t, ic.Enabled)
	assert.Equal(t, "http://influx.local:8086", ic.URL())
	assert.Equal(t, "secret", ic.Token)
	assert.Equal(t, "annotations", ic.Bucket)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetOTelConfig()
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "frame-annotator", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, true, cfg.Insecure)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-service",
			"batchTimeout": "30s",
			"endpoint": "localhost:4318",
			"insecure": false
		}
	}`)))

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-service", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4318", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}

func TestGetGraylogConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("graylog.enabled", true)
	viper.Set("graylog.address", "gelf:12201")

	gc := GetGraylogConfig()
	assert.True(t, gc.Enabled)
	assert.Equal(t, "gelf:12201", gc.Address)
}
