// Package iteration models one attempt at one work item, from start to a
// terminal or retryable outcome.
package iteration

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Status is the lifecycle state of an iteration.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusBlocked    Status = "blocked"
	StatusRolledBack Status = "rolled_back"
)

// Terminal reports whether the status ends the automated lifecycle.
// Blocked is terminal for the loop but may be exited by an explicit unblock.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusBlocked
}

// CanTransitionTo reports whether the status may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted || next == StatusFailed ||
			next == StatusBlocked || next == StatusRolledBack
	case StatusFailed:
		return next == StatusInProgress || next == StatusRolledBack
	case StatusBlocked:
		// Exiting blocked requires an explicit rollback or unblock.
		return next == StatusRolledBack || next == StatusInProgress
	case StatusCompleted, StatusRolledBack:
		return false
	default:
		return false
	}
}

// Iteration is one tracked attempt at one story.
type Iteration struct {
	ID            string     `json:"id"`
	StoryID       string     `json:"story_id"`
	Status        Status     `json:"status"`
	StartRevision string     `json:"start_revision"`
	EndRevision   string     `json:"end_revision,omitempty"`
	RetryCount    int        `json:"retry_count"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
}

// New creates an in-progress iteration for a story. retryCount is inherited
// from the superseded attempt, if any.
func New(storyID, startRevision string, retryCount int, now time.Time) *Iteration {
	return &Iteration{
		ID:            NewID(now),
		StoryID:       storyID,
		Status:        StatusInProgress,
		StartRevision: startRevision,
		RetryCount:    retryCount,
		StartedAt:     now,
	}
}

// NewID generates a ULID-based iteration id with an ITR- prefix.
func NewID(now time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0)
	return "ITR-" + ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
