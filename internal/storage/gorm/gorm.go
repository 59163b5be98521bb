// Package gormstorage implements the storage.Backend interface on any GORM
// dialector. The sqlite and postgres packages wrap it with their connection
// setup.
package gormstorage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/OCAP2/annotator/internal/model"
	"github.com/OCAP2/annotator/internal/model/convert"
	"github.com/OCAP2/annotator/internal/storage"
	"github.com/OCAP2/annotator/pkg/core"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// Backend stores sessions through GORM.
type Backend struct {
	db  *gorm.DB
	log zerolog.Logger
}

// New creates a GORM backend. Init must be called before use.
func New(deps Dependencies) *Backend {
	return &Backend{
		db:  deps.DB,
		log: deps.Logger,
	}
}

// Init migrates the session tables.
func (b *Backend) Init() error {
	if b.db == nil {
		return errors.New("gorm backend: no database")
	}
	b.log.Info().Msg("Migrating schema")
	if err := b.db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.log.Info().Msg("Database setup complete")
	return nil
}

// Close is a no-op; the connection belongs to whoever opened it.
func (b *Backend) Close() error {
	return nil
}

// SaveSession upserts the session row and replaces its records in one
// transaction.
func (b *Backend) SaveSession(ctx context.Context, s core.Session) error {
	if s.ID == "" {
		return errors.New("session id is empty")
	}

	row, err := convert.CoreToSession(s)
	if err != nil {
		return err
	}
	records := row.Records
	row.Records = nil

	err = b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(&row).Error; err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if err := tx.Where("session_id = ?", row.ID).Delete(&model.Record{}).Error; err != nil {
			return fmt.Errorf("clear records: %w", err)
		}
		if len(records) > 0 {
			if err := tx.CreateInBatches(records, 500).Error; err != nil {
				return fmt.Errorf("insert records: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.log.Debug().Str("session", s.ID).Int("records", len(records)).Msg("Session saved")
	return nil
}

// LoadSession reads a session and its records.
func (b *Backend) LoadSession(ctx context.Context, id string) (core.Session, error) {
	var row model.Session
	err := b.db.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB {
			return db.Order("frame_index ASC")
		}).
		First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Session{}, fmt.Errorf("%w: %s", storage.ErrSessionNotFound, id)
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("load session %s: %w", id, err)
	}
	return convert.SessionToCore(row)
}

type recordCount struct {
	SessionID string
	Count     int
}

// ListSessions returns summaries, most recently saved first.
func (b *Backend) ListSessions(ctx context.Context) ([]core.SessionInfo, error) {
	db := b.db.WithContext(ctx)

	var rows []model.Session
	if err := db.Order("saved_at DESC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var counts []recordCount
	err := db.Model(&model.Record{}).
		Select("session_id, count(*) AS count").
		Group("session_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	bySession := make(map[string]int, len(counts))
	for _, c := range counts {
		bySession[c.SessionID] = c.Count
	}

	infos := make([]core.SessionInfo, 0, len(rows))
	for _, r := range rows {
		infos = append(infos, convert.SessionToInfo(r, bySession[r.ID]))
	}
	return infos, nil
}
