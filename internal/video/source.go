// Package video wraps one open video file and reads single frames from it.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"runtime"
	"time"
)

var (
	// ErrOpen is returned when a video cannot be opened or probed.
	ErrOpen = errors.New("video: cannot open")

	// ErrFrameRead is returned when seeking or decoding a frame fails.
	ErrFrameRead = errors.New("video: cannot read frame")

	// ErrClosed is returned by reads on a released source.
	ErrClosed = errors.New("video: source closed")

	// ErrDecoderNotFound is returned when the decoder binaries are missing.
	ErrDecoderNotFound = errors.New("video: decoder not found")
)

// DefaultFPS is used when the stream does not report a frame rate.
const DefaultFPS = 30.0

// StreamInfo describes the video stream found by the decoder.
type StreamInfo struct {
	TotalFrames int
	FPS         float64
	Width       int
	Height      int
	Duration    time.Duration
}

// Decoder probes streams and decodes individual frames.
type Decoder interface {
	Probe(ctx context.Context, path string) (StreamInfo, error)
	DecodeFrame(ctx context.Context, path string, index int, info StreamInfo) (image.Image, error)
}

// Frame is one decoded image and its position in the stream.
type Frame struct {
	Index     int
	Timestamp time.Duration
	Image     image.Image
}

// Source is an open video. It holds the file handle until Close.
type Source struct {
	path    string
	decoder Decoder
	info    StreamInfo

	// file is never read: the decoder reopens path. Holding it keeps the
	// video pinned while open and marks the source's lifetime for Read.
	file    *os.File
	cleanup runtime.Cleanup
	closed  bool
}

// Open opens path and probes its video stream. The extension is not checked;
// any stream the decoder understands works.
func Open(ctx context.Context, path string, decoder Decoder) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	if st, err := f.Stat(); err != nil || st.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: not a regular file", ErrOpen, path)
	}

	info, err := decoder.Probe(ctx, path)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}
	if info.TotalFrames <= 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: no video frames", ErrOpen, path)
	}
	if info.FPS <= 0 {
		info.FPS = DefaultFPS
	}

	s := &Source{
		path:    path,
		decoder: decoder,
		info:    info,
		file:    f,
	}
	// Release the handle if the source is dropped without Close.
	s.cleanup = runtime.AddCleanup(s, func(f *os.File) { _ = f.Close() }, f)
	return s, nil
}

// Path returns the opened file path.
func (s *Source) Path() string {
	return s.path
}

// Info returns the probed stream description.
func (s *Source) Info() StreamInfo {
	return s.info
}

// TotalFrames returns the frame count fixed at open time.
func (s *Source) TotalFrames() int {
	return s.info.TotalFrames
}

// FPS returns the stream frame rate.
func (s *Source) FPS() float64 {
	return s.info.FPS
}

// Timestamp converts a frame index to its presentation time.
func (s *Source) Timestamp(index int) time.Duration {
	return time.Duration(float64(index) * float64(time.Second) / s.info.FPS)
}

// Read seeks to index and decodes that frame.
func (s *Source) Read(ctx context.Context, index int) (Frame, error) {
	if s.closed {
		return Frame{}, ErrClosed
	}
	if index < 0 || index >= s.info.TotalFrames {
		return Frame{}, fmt.Errorf("%w %d: out of range [0, %d)", ErrFrameRead, index, s.info.TotalFrames)
	}

	img, err := s.decoder.DecodeFrame(ctx, s.path, index, s.info)
	if err != nil {
		return Frame{}, fmt.Errorf("%w %d: %w", ErrFrameRead, index, err)
	}
	if img == nil {
		return Frame{}, fmt.Errorf("%w %d: decoder returned no image", ErrFrameRead, index)
	}

	return Frame{
		Index:     index,
		Timestamp: s.Timestamp(index),
		Image:     img,
	}, nil
}

// Closed reports whether Close has been called.
func (s *Source) Closed() bool {
	return s.closed
}

// Close releases the file handle. Calling it more than once is a no-op.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cleanup.Stop()
	return s.file.Close()
}
