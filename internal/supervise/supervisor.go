// Package supervise runs one external crop/transcode process per video
// job, with live progress extraction from the diagnostic stream,
// cooperative cancellation, and guaranteed partial-output cleanup. A
// Supervisor is single-use: NotStarted -> Running -> {Completed,
// Cancelling -> Cancelled, Failed}, no re-entry.
package supervise

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Status is the supervisor's lifecycle state.
type Status string

// Supervisor states.
const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusRunning    Status = "RUNNING"
	StatusCancelling Status = "CANCELLING"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusFailed     Status = "FAILED"
)

// Indeterminate is reported as the progress percentage when the source
// duration is unknown.
const Indeterminate = -1.0

// Timing constants for supervision.
const (
	// cancelPollInterval bounds how long a cancellation request can go
	// unnoticed while the process runs.
	cancelPollInterval = 100 * time.Millisecond
	// killTimeout is how long a graceful termination request may take
	// before the process is force-killed.
	killTimeout = 3 * time.Second
	// stderrTailLines is how many trailing diagnostic lines are kept for
	// failure reporting.
	stderrTailLines = 20
)

// Static errors for supervision.
var (
	// ErrLaunch is returned when the external process cannot be started.
	ErrLaunch = errors.New("supervise: process launch failed")
	// ErrAlreadyStarted is returned when Run is called more than once.
	ErrAlreadyStarted = errors.New("supervise: supervisor is single-use")
)

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusNotStarted: {StatusRunning, StatusFailed},
	StatusRunning:    {StatusCompleted, StatusCancelling, StatusFailed},
	StatusCancelling: {StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
	StatusFailed:     {},
}

// ExitError reports a non-zero process exit, carrying the trailing
// diagnostic output.
type ExitError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("supervise: process failed: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Job describes one video crop invocation.
type Job struct {
	// Source is the input video path.
	Source string
	// Output is the destination path. Deleted on any non-success end.
	Output string
	// X, Y, W, H is the crop rectangle in source pixels.
	X, Y, W, H int
	// Duration is the source duration in seconds. Non-positive degrades
	// progress reporting to indeterminate, never an error.
	Duration float64
	// Encoder optionally names a video encoder (e.g. a hardware encoder
	// detected up front). Empty uses ffmpeg's default.
	Encoder string
}

// Supervisor supervises a single external crop process. The OnProgress
// callback, if set, is invoked from the diagnostic reader goroutine with
// the completion percentage, or Indeterminate when the duration is
// unknown.
type Supervisor struct {
	// OnProgress receives progress updates. May be nil.
	OnProgress func(percent float64)

	ffmpegPath string
	logger     *slog.Logger

	mu     sync.Mutex
	status Status

	cancelled atomic.Bool
}

// New creates a Supervisor. An empty ffmpegPath defaults to "ffmpeg"
// found via PATH.
func New(ffmpegPath string, logger *slog.Logger) *Supervisor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		ffmpegPath: ffmpegPath,
		logger:     logger,
		status:     StatusNotStarted,
	}
}

// Status returns the current lifecycle state.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Cancel requests cooperative cancellation. It is safe to call from any
// goroutine, at any time, and is a no-op once the process has ended.
func (s *Supervisor) Cancel() {
	s.cancelled.Store(true)
}

// transitionTo moves to the given state if the transition table allows
// it.
func (s *Supervisor) transitionTo(status Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, allowed := range validTransitions[s.status] {
		if allowed == status {
			s.status = status
			return true
		}
	}
	return false
}

// Run launches the crop process and supervises it until a terminal state.
// It returns the terminal status; the error is non-nil only for Failed.
// Cancellation is not a failure. On any non-success termination the
// partial output file is removed best-effort.
func (s *Supervisor) Run(job Job) (Status, error) {
	if !s.transitionTo(StatusRunning) {
		return s.Status(), ErrAlreadyStarted
	}

	args := buildArgs(job)

	s.logger.Info("starting crop process",
		slog.String("source", job.Source),
		slog.String("output", job.Output),
		slog.Float64("duration", job.Duration),
		slog.String("encoder", job.Encoder),
	)

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.Command(s.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.transitionTo(StatusFailed)
		return StatusFailed, fmt.Errorf("%w: stderr pipe: %w", ErrLaunch, err)
	}

	if err := cmd.Start(); err != nil {
		s.transitionTo(StatusFailed)
		return StatusFailed, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	// The diagnostic stream is drained on its own goroutine so a blocking
	// read never stalls the cancellation poll below.
	tail := make([]string, 0, stderrTailLines)
	var readerDone sync.WaitGroup
	readerDone.Add(1)
	go func() {
		defer readerDone.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			line := scanner.Text()

			if len(tail) == stderrTailLines {
				copy(tail, tail[1:])
				tail = tail[:stderrTailLines-1]
			}
			tail = append(tail, line)

			if elapsed, ok := parseElapsed(line); ok && s.OnProgress != nil {
				s.OnProgress(Percent(elapsed, job.Duration))
			}
		}
	}()

	// Wait must not run until the pipe is fully drained, since it closes
	// the pipe. Process exit delivers EOF to the reader, so this ordering
	// cannot deadlock.
	waitCh := make(chan error, 1)
	go func() {
		readerDone.Wait()
		waitCh <- cmd.Wait()
	}()

	ticker := time.NewTicker(cancelPollInterval)
	defer ticker.Stop()

	var waitErr error
poll:
	for {
		select {
		case waitErr = <-waitCh:
			break poll
		case <-ticker.C:
			if !s.cancelled.Load() {
				continue
			}
			s.transitionTo(StatusCancelling)
			s.logger.Info("cancelling crop process", slog.String("output", job.Output))

			// Graceful stop first, force-kill after a bounded wait.
			_ = cmd.Process.Signal(os.Interrupt)
			select {
			case <-waitCh:
			case <-time.After(killTimeout):
				_ = cmd.Process.Kill()
				<-waitCh
			}

			readerDone.Wait()
			s.removePartialOutput(job.Output)
			s.transitionTo(StatusCancelled)
			return StatusCancelled, nil
		}
	}

	readerDone.Wait()

	if waitErr != nil {
		s.removePartialOutput(job.Output)
		s.transitionTo(StatusFailed)
		return StatusFailed, &ExitError{
			Args:   args,
			Stderr: strings.Join(tail, "\n"),
			Err:    waitErr,
		}
	}

	s.transitionTo(StatusCompleted)
	s.logger.Info("crop process completed", slog.String("output", job.Output))
	return StatusCompleted, nil
}

// removePartialOutput deletes the output file if present. Failure to
// delete is logged, never surfaced.
func (s *Supervisor) removePartialOutput(path string) {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return
	}
	s.logger.Warn("failed to remove partial output",
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
}

// buildArgs assembles the ffmpeg invocation for a crop job.
func buildArgs(job Job) []string {
	args := []string{
		"-y",
		"-i", job.Source,
		"-vf", fmt.Sprintf("crop=%d:%d:%d:%d", job.W, job.H, job.X, job.Y),
	}
	if job.Encoder != "" {
		args = append(args, "-c:v", job.Encoder)
	}
	return append(args, job.Output)
}
