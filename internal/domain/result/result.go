// Package result defines the structured record the agent is expected to emit
// at the end of each iteration, and the typed enums the loop dispatches on.
package result

import "fmt"

// Status is the agent's self-reported outcome for one iteration.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusSuccess, StatusFailure:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// NextAction is the agent's signal for what the loop should do next.
type NextAction string

const (
	ActionContinue NextAction = "continue"
	ActionComplete NextAction = "complete"
	ActionBlocked  NextAction = "blocked"
)

// ParseNextAction validates a raw next-action string.
func ParseNextAction(s string) (NextAction, error) {
	switch NextAction(s) {
	case ActionContinue, ActionComplete, ActionBlocked:
		return NextAction(s), nil
	default:
		return "", fmt.Errorf("unknown next_action %q", s)
	}
}

// StructuredResult is the machine-readable record extracted from the agent's
// output. Status, StoryID and NextAction are required; the rest default to
// empty when the agent omits them.
type StructuredResult struct {
	Status       Status     `json:"status"`
	StoryID      string     `json:"story_id"`
	NextAction   NextAction `json:"next_action"`
	FilesChanged []string   `json:"files_changed,omitempty"`
	Learnings    []string   `json:"learnings,omitempty"`
	Error        string     `json:"error,omitempty"`
}
