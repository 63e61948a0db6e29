package domain

import "time"

// RunTrigger describes what started a reorganisation run.
type RunTrigger string

// Run triggers.
const (
	// TriggerDebounce is a run fired after a quiet period.
	TriggerDebounce RunTrigger = "debounce"

	// TriggerManual is a run requested by the CLI or an MCP client.
	TriggerManual RunTrigger = "manual"
)

// ReorganiseRun records the outcome of one cluster, name and materialise pass.
type ReorganiseRun struct {
	// ID is the unique identifier for the run.
	ID string

	// Trigger is what started the run.
	Trigger RunTrigger

	// StartedAt is when the run started.
	StartedAt time.Time

	// EndedAt is when the run completed.
	EndedAt time.Time

	// Files is the number of clusterable records considered.
	Files int

	// Clusters is the number of clusters produced.
	Clusters int

	// Moved is the number of successful file moves.
	Moved int

	// Failed is the number of moves that failed.
	Failed int

	// Note carries a human-readable remark, such as a no-op reason.
	Note string
}

// Duration returns how long the run took.
func (r ReorganiseRun) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Success reports whether every move succeeded.
func (r ReorganiseRun) Success() bool {
	return r.Failed == 0
}

// DefaultRunHistoryLimit is the number of runs kept by run stores.
const DefaultRunHistoryLimit = 100
