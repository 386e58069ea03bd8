package history

import (
	"time"

	"ytkit/internal/batch"
)

// Engine names the subsystem that produced a run.
type Engine string

const (
	EngineMatch Engine = "match"
	EngineTags  Engine = "tags"
)

// Action names what a run did.
type Action string

const (
	ActionApply  Action = "apply"
	ActionUndo   Action = "undo"
	ActionRevert Action = "revert"
)

// Run is one recorded engine operation.
type Run struct {
	ID           string     `json:"id"`
	Engine       Engine     `json:"engine"`
	Action       Action     `json:"action"`
	Root         string     `json:"root,omitempty"`
	LogPath      string     `json:"log_path,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Succeeded    int        `json:"succeeded"`
	Skipped      int        `json:"skipped"`
	Errored      int        `json:"errored"`
	Cancelled    bool       `json:"cancelled"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// ApplySummary copies the counts of s onto the run.
func (r *Run) ApplySummary(s batch.Summary) {
	r.Succeeded = s.Succeeded
	r.Skipped = s.Skipped
	r.Errored = s.Errored
	r.Cancelled = s.Cancelled
}

// Duration is the elapsed time, or zero for an unfinished run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Engine Engine
	Action Action
	Limit  int
}
