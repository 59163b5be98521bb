// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"github.com/OCAP2/annotator/pkg/core"
)

// ErrSessionNotFound is returned when no session has the requested id.
var ErrSessionNotFound = errors.New("session not found")

// Backend is the interface all session storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// SaveSession stores s, replacing any earlier save with the same id.
	SaveSession(ctx context.Context, s core.Session) error
	LoadSession(ctx context.Context, id string) (core.Session, error)
	// ListSessions returns summaries, most recently saved first.
	ListSessions(ctx context.Context) ([]core.SessionInfo, error)
}
