package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strings"

	"github.com/h2non/filetype"

	// Register the still-image codecs used for dimension probing.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/chai2010/webp"
	_ "golang.org/x/image/bmp"
)

// Static errors for media probing.
var (
	// ErrUnreadable is returned when a file cannot be identified or its
	// dimensions cannot be determined.
	ErrUnreadable = errors.New("catalog: unreadable media")
	// ErrFFprobeExecution is returned when the ffprobe command fails.
	ErrFFprobeExecution = errors.New("catalog: ffprobe execution failed")
)

// sniffLen is how many leading bytes magic-byte type detection needs.
const sniffLen = 261

// Prober identifies media files and extracts their dimensions, duration,
// and representative frames. Still images are decoded directly; videos go
// through ffprobe/ffmpeg.
type Prober struct {
	ffmpegPath  string
	ffprobePath string
}

// NewProber creates a Prober. Empty paths default to "ffmpeg" and
// "ffprobe" found via PATH.
func NewProber(ffmpegPath, ffprobePath string) *Prober {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Prober{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Probe identifies the file at path and returns its MediaItem. The kind
// is sniffed from magic bytes, never the extension. Unreadable or
// unsupported files return ErrUnreadable.
func (p *Prober) Probe(ctx context.Context, path string) (MediaItem, error) {
	head, err := readHead(path)
	if err != nil {
		return MediaItem{}, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}

	switch {
	case filetype.IsImage(head):
		w, h, err := imageDimensions(path)
		if err != nil {
			return MediaItem{}, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
		}
		return MediaItem{Path: path, Width: w, Height: h, Kind: KindImage}, nil

	case filetype.IsVideo(head):
		w, h, err := p.videoDimensions(ctx, path)
		if err != nil {
			return MediaItem{}, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
		}
		return MediaItem{Path: path, Width: w, Height: h, Kind: KindVideo}, nil

	default:
		return MediaItem{}, fmt.Errorf("%w: %s: unrecognized format", ErrUnreadable, path)
	}
}

// Duration returns the duration in seconds of a media file, via ffprobe.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(stdout.String()), "%f", &duration)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}

	return duration, nil
}

// ExtractFrame writes a representative frame of the video to dst as a
// still image. The frame is taken from the midpoint when the duration is
// known, otherwise from the start.
func (p *Prober) ExtractFrame(ctx context.Context, path, dst string) error {
	seek := 0.0
	if d, err := p.Duration(ctx, path); err == nil && d > 0 {
		seek = d / 2
	}

	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%.2f", seek),
		"-i", path,
		"-frames:v", "1",
		dst,
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("extract frame from %s: %w, stderr: %s", path, err, stderr.String())
	}

	return nil
}

// videoDimensions extracts the first video stream's width and height.
func (p *Prober) videoDimensions(ctx context.Context, path string) (int, int, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	var w, h int
	_, err := fmt.Sscanf(strings.TrimSpace(stdout.String()), "%dx%d", &w, &h)
	if err != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("parse dimensions %q: %w", stdout.String(), err)
	}

	return w, h, nil
}

// imageDimensions decodes just the header of a still image.
func imageDimensions(path string) (int, int, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// readHead reads the leading bytes used for magic-byte sniffing.
func readHead(path string) ([]byte, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, sniffLen)
	n, err := f.Read(head)
	if n == 0 && err != nil {
		return nil, err
	}
	return head[:n], nil
}
