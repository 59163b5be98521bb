// Package session tracks the identity of the current annotation session and
// the video position, for log enrichment and persistence.
package session

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// NoVideo is reported while nothing is loaded.
const NoVideo = "No video loaded"

// Context holds the current session id, video and frame.
type Context struct {
	mu     sync.RWMutex
	id     string
	video  string
	frame  int
	loaded bool
}

// NewContext creates a new Context with a fresh session id.
func NewContext() *Context {
	return &Context{id: uuid.NewString()}
}

// ID returns the current session id.
func (c *Context) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Renew starts a new session and returns its id.
func (c *Context) Renew() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = uuid.NewString()
	return c.id
}

// Adopt continues a previously saved session.
func (c *Context) Adopt(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
}

// Video returns the loaded video path, or "" when none is loaded.
func (c *Context) Video() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.video
}

// SetVideo records a newly loaded video, positioned at frame 0.
func (c *Context) SetVideo(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.video = path
	c.frame = 0
	c.loaded = path != ""
}

// Frame returns the current frame index.
func (c *Context) Frame() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame
}

// SetFrame records the current frame index.
func (c *Context) SetFrame(frame int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = frame
}

// LogAttrs returns the session attributes added to every log record.
func (c *Context) LogAttrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.loaded {
		return []slog.Attr{
			slog.String("session", c.id),
			slog.String("video", NoVideo),
		}
	}
	return []slog.Attr{
		slog.String("session", c.id),
		slog.String("video", filepath.Base(c.video)),
		slog.Int("frame", c.frame),
	}
}
