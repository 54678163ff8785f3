package entity

import (
	"math"
	"time"
)

// Progress is one tick of a long-running pack/unpack operation. Ephemeral:
// a fresh value is built for every report, never persisted. Current never
// exceeds Total, so Percentage is 0-100 by construction.
type Progress struct {
	Step       string `json:"step"`
	Current    int    `json:"current"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// ProgressFunc receives progress ticks. It exists solely for UI feedback:
// implementations must not influence control flow, and a nil func is valid.
type ProgressFunc func(Progress)

// NewProgress builds a tick with the percentage rounded from current/total.
func NewProgress(step string, current, total int) Progress {
	p := Progress{Step: step, Current: current, Total: total}
	if total > 0 {
		p.Percentage = int(math.Round(float64(current) / float64(total) * 100))
	}

	return p
}

// Report invokes fn with a fresh tick, tolerating a nil callback.
func (fn ProgressFunc) Report(step string, current, total int) {
	if fn == nil {
		return
	}

	fn(NewProgress(step, current, total))
}

// OperationSnapshot is the externally visible state of a tracked
// pack/unpack operation at one point in time.
type OperationSnapshot struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	StartedAt time.Time `json:"startedAt"`
	Done      bool      `json:"done"`
	Error     string    `json:"error,omitempty"`
	Progress  Progress  `json:"progress"`
}
