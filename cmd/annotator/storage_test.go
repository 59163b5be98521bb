package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/annotator/internal/config"
	"github.com/OCAP2/annotator/internal/storage/memory"
	sqlitestorage "github.com/OCAP2/annotator/internal/storage/sqlite"
)

func quietLoggers(t *testing.T) {
	t.Helper()
	prevLogger, prevZ := Logger, ZLogger
	Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	ZLogger = zerolog.Nop()
	t.Cleanup(func() {
		Logger, ZLogger = prevLogger, prevZ
	})
}

func TestCreateStorageBackend_Memory(t *testing.T) {
	quietLoggers(t)

	for _, typ := range []string{"memory", ""} {
		b, err := createStorageBackend(config.StorageConfig{Type: typ})
		require.NoError(t, err)
		assert.IsType(t, &memory.Backend{}, b)
	}
}

func TestCreateStorageBackend_SQLite(t *testing.T) {
	quietLoggers(t)

	b, err := createStorageBackend(config.StorageConfig{
		Type:   "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "sessions.db")},
	})
	require.NoError(t, err)
	assert.IsType(t, &sqlitestorage.Backend{}, b)
	require.NoError(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestCreateStorageBackend_Unknown(t *testing.T) {
	quietLoggers(t)

	b, err := createStorageBackend(config.StorageConfig{Type: "websocket"})
	assert.Error(t, err)
	assert.Nil(t, b)
}
