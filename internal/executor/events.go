package executor

// Event is a message emitted on the executor's events channel. Events
// carry all cross-goroutine progress state; consumers never read the
// executor's counters directly.
type Event interface {
	event()
}

// Outcome is the terminal result of one batch job.
type Outcome string

// Job outcomes.
const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// ProgressUpdate reports in-flight progress for a video job.
type ProgressUpdate struct {
	// Source is the input file being processed.
	Source string
	// Percent is the completion percentage, or supervise.Indeterminate
	// when the source duration is unknown.
	Percent float64
	// Index and Total position the job within the batch, 1-based.
	Index int
	Total int
}

// JobCompleted reports one job reaching a terminal outcome.
type JobCompleted struct {
	// Source is the input file.
	Source string
	// Output is the written file path. Empty unless succeeded.
	Output string
	// Outcome is the terminal result.
	Outcome Outcome
	// Err carries the failure cause for OutcomeFailed.
	Err error
	// Index and Total position the job within the batch, 1-based.
	Index int
	Total int
}

// BatchCompleted reports the end of the whole batch. It is always the
// final event before the channel closes, including on cancellation.
type BatchCompleted struct {
	Summary Summary
}

func (ProgressUpdate) event() {}
func (JobCompleted) event()   {}
func (BatchCompleted) event() {}
