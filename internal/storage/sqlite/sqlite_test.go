package sqlitestorage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/annotator/internal/config"
	"github.com/OCAP2/annotator/internal/storage"
	"github.com/OCAP2/annotator/pkg/core"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func TestSessionSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	cfg := config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "annotations.db")}
	schema := core.MustSchema(core.Field{Name: "valor", Type: core.FieldInt})

	b, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.SaveSession(ctx, core.Session{
		ID:      "persisted",
		Schema:  schema,
		SavedAt: time.Now(),
		Records: []core.Record{{FrameIndex: 4, Values: map[string]core.Value{"valor": int64(42)}}},
	}))
	require.NoError(t, b.Close())

	b, err = New(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	defer b.Close()

	got, err := b.LoadSession(ctx, "persisted")
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
	assert.Equal(t, int64(42), got.Records[0].Values["valor"])
}

func TestNew_InMemory(t *testing.T) {
	b, err := New(config.SQLiteConfig{}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
}
