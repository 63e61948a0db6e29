package domain

// OutcomeStatus classifies the result of ingesting one event.
type OutcomeStatus int

const (
	// OutcomeSkipped means the event was not admitted (unstable, ignored, empty).
	// A later event for the same path retries naturally.
	OutcomeSkipped OutcomeStatus = iota

	// OutcomeFailed means extraction, hashing or embedding failed.
	OutcomeFailed

	// OutcomeUnchanged means the content hash matched the registered record.
	OutcomeUnchanged

	// OutcomeIngested means a record was inserted or overwritten.
	OutcomeIngested

	// OutcomeRemoved means a record was deleted.
	OutcomeRemoved

	// OutcomeRelocated means a record moved from one key to another.
	OutcomeRelocated
)

// String returns a short label for logs.
func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeIngested:
		return "ingested"
	case OutcomeRemoved:
		return "removed"
	case OutcomeRelocated:
		return "relocated"
	default:
		return "unknown"
	}
}

// Outcome is the explicit result of one ingestion step.
type Outcome struct {
	Status OutcomeStatus

	// Path is the registry key affected (destination for moves).
	Path string

	// Reason explains skips and failures.
	Reason string

	// Err carries the cause of a failure.
	Err error
}

// Mutated reports whether the registry changed and a recluster should be scheduled.
func (o Outcome) Mutated() bool {
	switch o.Status {
	case OutcomeIngested, OutcomeRemoved, OutcomeRelocated:
		return true
	default:
		return false
	}
}

// Skipped builds a skip outcome.
func Skipped(path, reason string) Outcome {
	return Outcome{Status: OutcomeSkipped, Path: path, Reason: reason}
}

// Failed builds a failure outcome.
func Failed(path string, err error) Outcome {
	return Outcome{Status: OutcomeFailed, Path: path, Reason: err.Error(), Err: err}
}
