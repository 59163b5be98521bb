// internal/storage/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/OCAP2/annotator/internal/storage"
	"github.com/OCAP2/annotator/pkg/core"
)

// Backend keeps saved sessions in memory for the lifetime of the process
type Backend struct {
	sessions map[string]core.Session
	mu       sync.RWMutex
}

// New creates a new memory backend
func New() *Backend {
	return &Backend{
		sessions: make(map[string]core.Session),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// SaveSession stores a deep copy of s
func (b *Backend) SaveSession(_ context.Context, s core.Session) error {
	if s.ID == "" {
		return fmt.Errorf("session id is empty")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.sessions[s.ID] = cloneSession(s)
	return nil
}

// LoadSession returns a deep copy of the stored session
func (b *Backend) LoadSession(_ context.Context, id string) (core.Session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.sessions[id]
	if !ok {
		return core.Session{}, fmt.Errorf("%w: %s", storage.ErrSessionNotFound, id)
	}
	return cloneSession(s), nil
}

// ListSessions returns summaries, most recently saved first
func (b *Backend) ListSessions(_ context.Context) ([]core.SessionInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	infos := make([]core.SessionInfo, 0, len(b.sessions))
	for _, s := range b.sessions {
		infos = append(infos, core.SessionInfo{
			ID:          s.ID,
			VideoPath:   s.VideoPath,
			RecordCount: len(s.Records),
			SavedAt:     s.SavedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].SavedAt.Equal(infos[j].SavedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].SavedAt.After(infos[j].SavedAt)
	})
	return infos, nil
}

func cloneSession(s core.Session) core.Session {
	out := s
	out.Records = make([]core.Record, len(s.Records))
	for i, r := range s.Records {
		out.Records[i] = r.Clone()
	}
	return out
}
