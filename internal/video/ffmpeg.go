package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// FFmpeg decodes frames by running the ffprobe and ffmpeg binaries.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string

	// FallbackFPS replaces a frame rate the stream does not report.
	// Zero leaves it to DefaultFPS.
	FallbackFPS float64
}

// NewFFmpeg creates a decoder using the given binaries; empty names fall back
// to the ones on PATH.
func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	RFrameRate    string `json:"r_frame_rate"`
	AvgFrameRate  string `json:"avg_frame_rate"`
	Duration      string `json:"duration"`
	NbFrames      string `json:"nb_frames"`
	NbReadPackets string `json:"nb_read_packets"`
}

// Probe counts the packets of the first video stream and reads its rate.
func (d *FFmpeg) Probe(ctx context.Context, path string) (StreamInfo, error) {
	bin, err := exec.LookPath(d.FFprobePath)
	if err != nil {
		return StreamInfo{}, fmt.Errorf("%w: %s", ErrDecoderNotFound, d.FFprobePath)
	}

	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate,duration,nb_frames,nb_read_packets",
		"-of", "json",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return StreamInfo{}, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	info, err := parseProbe(out)
	if err != nil {
		return StreamInfo{}, err
	}
	if info.FPS <= 0 && d.FallbackFPS > 0 {
		info.FPS = d.FallbackFPS
	}
	return info, nil
}

func parseProbe(out []byte) (StreamInfo, error) {
	var po probeOutput
	if err := json.Unmarshal(out, &po); err != nil {
		return StreamInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(po.Streams) == 0 {
		return StreamInfo{}, errors.New("no video stream")
	}
	st := po.Streams[0]

	fps := parseRate(st.AvgFrameRate)
	if fps <= 0 {
		fps = parseRate(st.RFrameRate)
	}

	var duration time.Duration
	if secs, err := strconv.ParseFloat(st.Duration, 64); err == nil {
		duration = time.Duration(secs * float64(time.Second))
	}

	total := parseCount(st.NbReadPackets)
	if total <= 0 {
		total = parseCount(st.NbFrames)
	}
	if total <= 0 && fps > 0 && duration > 0 {
		total = int(math.Round(duration.Seconds() * fps))
	}

	return StreamInfo{
		TotalFrames: total,
		FPS:         fps,
		Width:       st.Width,
		Height:      st.Height,
		Duration:    duration,
	}, nil
}

// parseRate parses ffprobe rates such as "30000/1001".
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	dn, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || dn == 0 {
		return 0
	}
	return n / dn
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// DecodeFrame seeks to the frame's timestamp and decodes it as PNG.
func (d *FFmpeg) DecodeFrame(ctx context.Context, path string, index int, info StreamInfo) (image.Image, error) {
	bin, err := exec.LookPath(d.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecoderNotFound, d.FFmpegPath)
	}

	fps := info.FPS
	if fps <= 0 {
		fps = d.FallbackFPS
	}
	if fps <= 0 {
		fps = DefaultFPS
	}

	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-ss", seekArg(index, fps),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if len(out) == 0 {
		return nil, errors.New("ffmpeg produced no frame")
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return img, nil
}

func seekArg(index int, fps float64) string {
	return strconv.FormatFloat(float64(index)/fps, 'f', 6, 64)
}
