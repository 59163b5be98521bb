package playback

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OCAP2/annotator/internal/video"
)

type fakeSource struct {
	path   string
	total  int
	fps    float64
	failAt map[int]bool
	closed bool
}

func (s *fakeSource) Path() string     { return s.path }
func (s *fakeSource) TotalFrames() int { return s.total }
func (s *fakeSource) FPS() float64     { return s.fps }

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

func (s *fakeSource) Read(_ context.Context, index int) (video.Frame, error) {
	if s.closed {
		return video.Frame{}, video.ErrClosed
	}
	if s.failAt[index] {
		return video.Frame{}, video.ErrFrameRead
	}
	return video.Frame{Index: index, Image: image.NewGray(image.Rect(0, 0, 1, 1))}, nil
}

type recordingDisplay struct {
	shown []int
}

func (d *recordingDisplay) Show(f video.Frame) error {
	d.shown = append(d.shown, f.Index)
	return nil
}

func openerFor(sources map[string]*fakeSource, hook func(path string)) Opener {
	return func(_ context.Context, path string) (Source, error) {
		if hook != nil {
			hook(path)
		}
		src, ok := sources[path]
		if !ok {
			return nil, video.ErrOpen
		}
		return src, nil
	}
}

func TestAdvance_Bounds(t *testing.T) {
	src := &fakeSource{path: "a.mp4", total: 10, fps: 30}
	disp := &recordingDisplay{}
	c := New(openerFor(map[string]*fakeSource{"a.mp4": src}, nil), disp, nil)

	require.NoError(t, c.Load(context.Background(), "a.mp4"))
	assert.Equal(t, 0, c.Current())
	assert.Equal(t, 10, c.Total())

	moved, err := c.Advance(context.Background(), -1)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 0, c.Current())

	moved, err = c.Advance(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 1, c.Current())

	moved, err = c.Advance(context.Background(), 9)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 1, c.Current())

	assert.Equal(t, []int{0, 1}, disp.shown)
}

func TestAdvance_ReadErrorKeepsPosition(t *testing.T) {
	src := &fakeSource{path: "a.mp4", total: 10, fps: 30, failAt: map[int]bool{4: true}}
	c := New(openerFor(map[string]*fakeSource{"a.mp4": src}, nil), nil, nil)
	require.NoError(t, c.Load(context.Background(), "a.mp4"))

	_, err := c.Seek(context.Background(), 3)
	require.NoError(t, err)

	moved, err := c.Advance(context.Background(), 1)
	assert.ErrorIs(t, err, video.ErrFrameRead)
	assert.False(t, moved)
	assert.Equal(t, 3, c.Current())
}

func TestSeek(t *testing.T) {
	src := &fakeSource{path: "a.mp4", total: 100, fps: 25}
	c := New(openerFor(map[string]*fakeSource{"a.mp4": src}, nil), nil, nil)
	require.NoError(t, c.Load(context.Background(), "a.mp4"))

	moved, err := c.Seek(context.Background(), 50)
	require.NoError(t, err)
	assert.True(t, moved)

	frame, secs := c.Position()
	assert.Equal(t, 50, frame)
	assert.InDelta(t, 2.0, secs, 1e-9)
	assert.Equal(t, "Frame: 50 | Time: 2.00 s", c.InfoLine())

	moved, err = c.Seek(context.Background(), 100)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 50, c.Current())
}

func TestNavigation_NoVideo(t *testing.T) {
	c := New(openerFor(nil, nil), nil, nil)

	_, err := c.Advance(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoVideo)
	assert.False(t, c.Loaded())
	assert.Equal(t, 0, c.Total())
	assert.Equal(t, "Frame: 0 | Time: 0.00 s", c.InfoLine())
}

func TestLoad_ReleasesPreviousBeforeOpening(t *testing.T) {
	a := &fakeSource{path: "a.mp4", total: 10, fps: 30}
	b := &fakeSource{path: "b.mp4", total: 20, fps: 30}

	var releasedFirst bool
	hook := func(path string) {
		if path == "b.mp4" {
			releasedFirst = a.closed
		}
	}
	c := New(openerFor(map[string]*fakeSource{"a.mp4": a, "b.mp4": b}, hook), nil, nil)

	require.NoError(t, c.Load(context.Background(), "a.mp4"))
	_, err := c.Seek(context.Background(), 7)
	require.NoError(t, err)

	require.NoError(t, c.Load(context.Background(), "b.mp4"))
	assert.True(t, releasedFirst)
	assert.Equal(t, 0, c.Current())
	assert.Equal(t, 20, c.Total())

	_, err = a.Read(context.Background(), 0)
	assert.ErrorIs(t, err, video.ErrClosed)
}

func TestLoad_FailureLeavesNothingLoaded(t *testing.T) {
	a := &fakeSource{path: "a.mp4", total: 10, fps: 30}
	c := New(openerFor(map[string]*fakeSource{"a.mp4": a}, nil), nil, nil)

	require.NoError(t, c.Load(context.Background(), "a.mp4"))
	err := c.Load(context.Background(), "missing.mp4")
	assert.ErrorIs(t, err, video.ErrOpen)
	assert.False(t, c.Loaded())
	assert.True(t, a.closed)
}

func TestLoad_FirstFrameUnreadable(t *testing.T) {
	a := &fakeSource{path: "a.mp4", total: 10, fps: 30, failAt: map[int]bool{0: true}}
	c := New(openerFor(map[string]*fakeSource{"a.mp4": a}, nil), nil, nil)

	err := c.Load(context.Background(), "a.mp4")
	assert.True(t, errors.Is(err, video.ErrFrameRead))
	assert.False(t, c.Loaded())
	assert.True(t, a.closed)
}

func TestClose(t *testing.T) {
	a := &fakeSource{path: "a.mp4", total: 10, fps: 30}
	c := New(openerFor(map[string]*fakeSource{"a.mp4": a}, nil), nil, nil)
	require.NoError(t, c.Load(context.Background(), "a.mp4"))

	c.Close()
	assert.True(t, a.closed)
	assert.False(t, c.Loaded())
	c.Close()
}

func TestPNGDisplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "preview.png")
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})

	require.NoError(t, PNGDisplay{Path: path}.Show(video.Frame{Index: 4, Image: img}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), got.Bounds())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
