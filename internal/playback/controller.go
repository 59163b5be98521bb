// Package playback tracks the current frame of the loaded video and pushes
// every committed frame to a display.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCAP2/annotator/internal/video"
)

// ErrNoVideo is returned by navigation while nothing is loaded.
var ErrNoVideo = errors.New("no video loaded")

// Source is the part of an open video the controller needs.
type Source interface {
	Path() string
	TotalFrames() int
	FPS() float64
	Read(ctx context.Context, index int) (video.Frame, error)
	Close() error
}

// Opener opens a video file.
type Opener func(ctx context.Context, path string) (Source, error)

// DecoderOpener returns an Opener backed by video.Open.
func DecoderOpener(decoder video.Decoder) Opener {
	return func(ctx context.Context, path string) (Source, error) {
		return video.Open(ctx, path, decoder)
	}
}

// Controller owns at most one video source and the current frame index.
type Controller struct {
	open    Opener
	display Display
	logger  *slog.Logger

	source  Source
	current int
}

// New creates a controller with nothing loaded.
func New(open Opener, display Display, logger *slog.Logger) *Controller {
	if display == nil {
		display = NopDisplay{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		open:    open,
		display: display,
		logger:  logger,
	}
}

// Load releases any open source, then opens path and shows its first frame.
// On failure nothing is loaded.
func (c *Controller) Load(ctx context.Context, path string) error {
	c.release()

	src, err := c.open(ctx, path)
	if err != nil {
		return err
	}

	frame, err := src.Read(ctx, 0)
	if err != nil {
		_ = src.Close()
		return err
	}

	c.source = src
	c.current = 0
	c.logger.Info("Video loaded", "path", path, "frames", src.TotalFrames(), "fps", src.FPS())
	c.show(frame)
	return nil
}

func (c *Controller) release() {
	if c.source == nil {
		return
	}
	if err := c.source.Close(); err != nil {
		c.logger.Warn("Failed to release video", "path", c.source.Path(), "error", err)
	}
	c.source = nil
	c.current = 0
}

// Advance moves by delta frames. A target outside [0, total) is ignored and
// reported as false. The frame is read before the index is committed, so a
// read error leaves the position unchanged.
func (c *Controller) Advance(ctx context.Context, delta int) (bool, error) {
	if c.source == nil {
		return false, ErrNoVideo
	}

	target := c.current + delta
	if target < 0 || target >= c.source.TotalFrames() {
		return false, nil
	}

	frame, err := c.source.Read(ctx, target)
	if err != nil {
		return false, err
	}

	c.current = target
	c.show(frame)
	return true, nil
}

// Seek jumps to an absolute frame.
func (c *Controller) Seek(ctx context.Context, frame int) (bool, error) {
	return c.Advance(ctx, frame-c.current)
}

func (c *Controller) show(frame video.Frame) {
	if err := c.display.Show(frame); err != nil {
		c.logger.Warn("Failed to display frame", "frame", frame.Index, "error", err)
	}
}

// Loaded reports whether a video is open.
func (c *Controller) Loaded() bool {
	return c.source != nil
}

// Current returns the committed frame index.
func (c *Controller) Current() int {
	return c.current
}

// Total returns the frame count of the loaded video, or 0.
func (c *Controller) Total() int {
	if c.source == nil {
		return 0
	}
	return c.source.TotalFrames()
}

// Path returns the loaded video path, or "".
func (c *Controller) Path() string {
	if c.source == nil {
		return ""
	}
	return c.source.Path()
}

// FPS returns the loaded video frame rate, or 0.
func (c *Controller) FPS() float64 {
	if c.source == nil {
		return 0
	}
	return c.source.FPS()
}

// Position returns the current frame and its time in seconds.
func (c *Controller) Position() (int, float64) {
	if c.source == nil {
		return 0, 0
	}
	return c.current, float64(c.current) / c.source.FPS()
}

// InfoLine formats the position as shown to the user.
func (c *Controller) InfoLine() string {
	frame, secs := c.Position()
	return FormatInfo(frame, secs)
}

// FormatInfo renders "Frame: N | Time: S.SS s".
func FormatInfo(frame int, seconds float64) string {
	return fmt.Sprintf("Frame: %d | Time: %.2f s", frame, seconds)
}

// Close releases the loaded source.
func (c *Controller) Close() {
	c.release()
}
