package web

import (
	"time"

	"github.com/custodia-labs/sefs/internal/core/domain"
)

// RunView is the JSON form of a reorganisation run.
type RunView struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Files      int       `json:"files"`
	Clusters   int       `json:"clusters"`
	Moved      int       `json:"moved"`
	Failed     int       `json:"failed"`
	Note       string    `json:"note,omitempty"`
}

// NewRunView converts a run for output.
func NewRunView(r domain.ReorganiseRun) RunView {
	return RunView{
		ID:         r.ID,
		Trigger:    string(r.Trigger),
		StartedAt:  r.StartedAt,
		EndedAt:    r.EndedAt,
		DurationMS: r.Duration().Milliseconds(),
		Files:      r.Files,
		Clusters:   r.Clusters,
		Moved:      r.Moved,
		Failed:     r.Failed,
		Note:       r.Note,
	}
}
