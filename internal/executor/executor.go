// Package executor runs a crop batch: it partitions the registered media
// into matching and mismatched items, crops images in-process, delegates
// videos to a supervised external process one at a time, and reports
// progress through an events channel.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/go-playground/validator/v10"

	"github.com/hyase/cropbatch/internal/catalog"
	"github.com/hyase/cropbatch/internal/geometry"
	"github.com/hyase/cropbatch/internal/imagecrop"
	"github.com/hyase/cropbatch/internal/region"
	"github.com/hyase/cropbatch/internal/supervise"
)

// eventBuffer decouples job execution from event consumption. Completion
// events block when the buffer fills; progress updates are dropped
// instead, since a newer one always follows.
const eventBuffer = 256

// Static errors for batch execution.
var (
	// ErrInvalidRequest is returned when the batch request fails
	// validation.
	ErrInvalidRequest = errors.New("executor: invalid request")
	// ErrToolMissing is returned on video jobs when ffmpeg cannot be
	// found. Image jobs are unaffected.
	ErrToolMissing = errors.New("executor: ffmpeg not found")
)

// Request describes one crop batch.
type Request struct {
	// Region is the crop rectangle, in reference-item pixels. The
	// executor receives it by value; later interactive edits never
	// affect a running batch.
	Region geometry.Rect
	// RefWidth and RefHeight are the reference item's dimensions. Items
	// with any other dimensions are skipped, never rescaled.
	RefWidth  int `validate:"gt=0"`
	RefHeight int `validate:"gt=0"`
	// OutputDir receives the cropped files. Created if absent.
	OutputDir string `validate:"required"`
	// Items are the batch candidates, in processing order.
	Items []catalog.MediaItem `validate:"min=1"`
}

// Summary counts the terminal outcomes of a batch. On interruption it
// holds the partial counts accumulated so far plus the jobs that never
// started, counted as cancelled.
type Summary struct {
	Succeeded int
	Skipped   int
	Failed    int
	Cancelled int
}

// Total returns the number of accounted items.
func (s Summary) Total() int {
	return s.Succeeded + s.Skipped + s.Failed + s.Cancelled
}

// Executor runs crop batches sequentially on the caller's goroutine. An
// Executor is single-use: Run closes the events channel when the batch
// ends.
type Executor struct {
	ffmpegPath string
	hwEncode   bool
	prober     *catalog.Prober
	logger     *slog.Logger
	validator  *validator.Validate
	events     chan Event
}

// New creates an Executor. An empty ffmpegPath defaults to "ffmpeg"
// found via PATH. When hwEncode is set, a hardware encoder is probed
// once and used for video jobs if available.
func New(ffmpegPath string, hwEncode bool, prober *catalog.Prober, logger *slog.Logger) *Executor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		ffmpegPath: ffmpegPath,
		hwEncode:   hwEncode,
		prober:     prober,
		logger:     logger,
		validator:  validator.New(),
		events:     make(chan Event, eventBuffer),
	}
}

// Events returns the channel carrying ProgressUpdate, JobCompleted, and
// BatchCompleted messages. It is closed when Run returns.
func (e *Executor) Events() <-chan Event {
	return e.events
}

// Run executes the batch and returns the outcome counts. Per-item
// failures never abort the batch; the returned error is non-nil only
// when the request itself is unusable. Cancelling ctx stops the
// in-flight video job, prevents further jobs from starting, and keeps
// already completed outputs.
func (e *Executor) Run(ctx context.Context, req Request) (Summary, error) {
	defer close(e.events)

	if err := e.validator.Struct(req); err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if !region.Valid(req.Region, region.Bounds{W: req.RefWidth, H: req.RefHeight}) {
		return Summary{}, fmt.Errorf("%w: region %+v outside %dx%d reference",
			ErrInvalidRequest, req.Region, req.RefWidth, req.RefHeight)
	}

	if err := os.MkdirAll(req.OutputDir, 0750); err != nil {
		return Summary{}, fmt.Errorf("create output directory: %w", err)
	}

	// ffmpeg absence is detected up front so every video job fails fast
	// with the same cause instead of erroring one launch at a time.
	var toolMissing bool
	if hasVideo(req.Items) {
		if _, err := exec.LookPath(e.ffmpegPath); err != nil {
			toolMissing = true
			e.logger.Warn("ffmpeg not found, video jobs will fail",
				slog.String("path", e.ffmpegPath),
			)
		}
	}

	encoder := ""
	if e.hwEncode && !toolMissing {
		encoder = supervise.DetectHardwareEncoder(e.ffmpegPath)
		if encoder != "" {
			e.logger.Info("using hardware encoder", slog.String("encoder", encoder))
		}
	}

	e.logger.Info("starting crop batch",
		slog.Int("items", len(req.Items)),
		slog.Int("ref_width", req.RefWidth),
		slog.Int("ref_height", req.RefHeight),
		slog.String("output_dir", req.OutputDir),
	)

	var sum Summary
	total := len(req.Items)

	for i, item := range req.Items {
		idx := i + 1

		if ctx.Err() != nil {
			sum.Cancelled++
			e.complete(JobCompleted{Source: item.Path, Outcome: OutcomeCancelled, Index: idx, Total: total})
			continue
		}

		if item.Width != req.RefWidth || item.Height != req.RefHeight {
			sum.Skipped++
			e.logger.Info("skipping dimension mismatch",
				slog.String("path", item.Path),
				slog.String("size", fmt.Sprintf("%dx%d", item.Width, item.Height)),
			)
			e.complete(JobCompleted{Source: item.Path, Outcome: OutcomeSkipped, Index: idx, Total: total})
			continue
		}

		output := outputName(req.OutputDir, item.Path)

		var outcome Outcome
		var err error
		switch item.Kind {
		case catalog.KindVideo:
			outcome, err = e.runVideo(ctx, item, output, req.Region, encoder, toolMissing, idx, total)
		default:
			outcome, err = runImage(item, output, req.Region)
		}

		done := JobCompleted{Source: item.Path, Outcome: outcome, Err: err, Index: idx, Total: total}
		switch outcome {
		case OutcomeSucceeded:
			sum.Succeeded++
			done.Output = output
		case OutcomeCancelled:
			sum.Cancelled++
		default:
			sum.Failed++
			e.logger.Error("job failed",
				slog.String("path", item.Path),
				slog.String("error", err.Error()),
			)
		}
		e.complete(done)
	}

	e.logger.Info("crop batch finished",
		slog.Int("succeeded", sum.Succeeded),
		slog.Int("skipped", sum.Skipped),
		slog.Int("failed", sum.Failed),
		slog.Int("cancelled", sum.Cancelled),
	)

	e.complete(BatchCompleted{Summary: sum})
	return sum, nil
}

// runImage crops a still image in-process.
func runImage(item catalog.MediaItem, output string, r geometry.Rect) (Outcome, error) {
	if err := imagecrop.Crop(item.Path, output, r); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeSucceeded, nil
}

// runVideo delegates one video to a supervised external process,
// bridging ctx cancellation to the supervisor's cooperative cancel.
func (e *Executor) runVideo(ctx context.Context, item catalog.MediaItem, output string, r geometry.Rect, encoder string, toolMissing bool, idx, total int) (Outcome, error) {
	if toolMissing {
		return OutcomeFailed, ErrToolMissing
	}

	// An unknown duration degrades progress to indeterminate, never
	// blocks the job.
	duration, err := e.prober.Duration(ctx, item.Path)
	if err != nil {
		duration = 0
		e.logger.Warn("duration unavailable, progress will be indeterminate",
			slog.String("path", item.Path),
			slog.String("error", err.Error()),
		)
	}

	sup := supervise.New(e.ffmpegPath, e.logger)
	sup.OnProgress = func(pct float64) {
		e.progress(ProgressUpdate{Source: item.Path, Percent: pct, Index: idx, Total: total})
	}

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			sup.Cancel()
		case <-watchDone:
		}
	}()

	status, err := sup.Run(supervise.Job{
		Source:   item.Path,
		Output:   output,
		X:        r.X,
		Y:        r.Y,
		W:        r.W,
		H:        r.H,
		Duration: duration,
		Encoder:  encoder,
	})

	switch status {
	case supervise.StatusCompleted:
		return OutcomeSucceeded, nil
	case supervise.StatusCancelled:
		return OutcomeCancelled, nil
	default:
		return OutcomeFailed, err
	}
}

// complete delivers a completion event, blocking until the consumer has
// room. Completion events are never dropped.
func (e *Executor) complete(ev Event) {
	e.events <- ev
}

// progress delivers a progress event if the consumer has room. A newer
// update always follows, so dropping is safe.
func (e *Executor) progress(ev ProgressUpdate) {
	select {
	case e.events <- ev:
	default:
	}
}

func hasVideo(items []catalog.MediaItem) bool {
	for _, item := range items {
		if item.Kind == catalog.KindVideo {
			return true
		}
	}
	return false
}
