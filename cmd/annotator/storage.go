package main

import (
	"fmt"

	"github.com/OCAP2/annotator/internal/config"
	"github.com/OCAP2/annotator/internal/storage"
	"github.com/OCAP2/annotator/internal/storage/memory"
	pgstorage "github.com/OCAP2/annotator/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/annotator/internal/storage/sqlite"
)

// createStorageBackend builds the session backend selected by storage.type.
func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		backend, err := pgstorage.New(storageCfg.Postgres, ZLogger)
		if err != nil {
			return nil, err
		}
		Logger.Info("Postgres storage backend initialized", "host", storageCfg.Postgres.Host, "database", storageCfg.Postgres.Database)
		return backend, nil

	case "sqlite":
		backend, err := sqlitestorage.New(storageCfg.SQLite, ZLogger)
		if err != nil {
			return nil, err
		}
		Logger.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.Path)
		return backend, nil

	case "memory", "":
		Logger.Info("Memory storage backend initialized")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown storage type: %q", storageCfg.Type)
	}
}
