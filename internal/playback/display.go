package playback

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/OCAP2/annotator/internal/video"
)

// Display shows a decoded frame.
type Display interface {
	Show(frame video.Frame) error
}

// NopDisplay discards frames.
type NopDisplay struct{}

func (NopDisplay) Show(video.Frame) error { return nil }

// PNGDisplay writes the current frame to a PNG file that an external image
// viewer can keep open.
type PNGDisplay struct {
	Path string
}

// Show replaces the preview file with frame. The file is written next to the
// target and renamed so viewers never see a half-written image.
func (d PNGDisplay) Show(frame video.Frame) error {
	if err := os.MkdirAll(filepath.Dir(d.Path), 0o755); err != nil {
		return fmt.Errorf("create preview dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(d.Path), ".preview-*.png")
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, frame.Image); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode frame %d: %w", frame.Index, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	return os.Rename(tmp.Name(), d.Path)
}
