// Package sqlitestorage implements the storage.Backend interface on a SQLite
// file through the GORM backend. The only SQLite-specific concern is opening
// and closing the database.
package sqlitestorage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/OCAP2/annotator/internal/config"
	"github.com/OCAP2/annotator/internal/database"
	gormstorage "github.com/OCAP2/annotator/internal/storage/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db *database.Manager
}

// New opens the SQLite database at cfg.Path. An empty path opens an
// in-memory database that lives until Close.
func New(cfg config.SQLiteConfig, log zerolog.Logger) (*Backend, error) {
	db := database.NewManager(log)
	if err := db.ConnectSQLite(cfg.Path); err != nil {
		return nil, fmt.Errorf("failed to create SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:     db.DB,
			Logger: log,
		}),
		db: db,
	}, nil
}

// Close closes the embedded GORM backend and the database.
func (b *Backend) Close() error {
	if err := b.Backend.Close(); err != nil {
		return err
	}
	return b.db.Close()
}
