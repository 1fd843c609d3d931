package agent

import (
	"context"
	"fmt"

	"github.com/x0georgiev/gushter/internal/interpret"
)

// SimulateRunner supplies an already-successful synthetic result instead of
// doing real work. Used by simulate mode to exercise the loop end to end.
type SimulateRunner struct{}

// NewSimulateRunner creates a simulate-mode runner.
func NewSimulateRunner() *SimulateRunner {
	return &SimulateRunner{}
}

// Run emits a result block completing the requested story.
func (r *SimulateRunner) Run(ctx context.Context, req Request) (string, error) {
	body := fmt.Sprintf(`{"status": "success", "story_id": %q, "next_action": "complete", "learnings": ["simulated run"]}`, req.StoryID)
	return fmt.Sprintf("Simulated work for %s.\n\n```%s\n%s\n```\n", req.StoryID, interpret.Marker, body), nil
}
