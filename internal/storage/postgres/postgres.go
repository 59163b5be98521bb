// Package postgres implements the storage.Backend interface on PostgreSQL
// through the GORM backend.
package postgres

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/OCAP2/annotator/internal/config"
	"github.com/OCAP2/annotator/internal/database"
	gormstorage "github.com/OCAP2/annotator/internal/storage/gorm"
)

// Backend wraps the GORM backend with a PostgreSQL connection.
type Backend struct {
	*gormstorage.Backend
	db *database.Manager
}

// New connects to the configured PostgreSQL server.
func New(cfg config.PostgresConfig, log zerolog.Logger) (*Backend, error) {
	db := database.NewManager(log)
	if err := db.ConnectPostgres(cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres DB: %w", err)
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
