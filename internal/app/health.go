package app

import (
	"encoding/json"
	"time"

	"github.com/spf13/afero"
)

// Health represents the health status of the iteration loop
type Health struct {
	TS        string `json:"ts"`
	Iteration int    `json:"iteration"`
	StoryID   string `json:"story_id"`
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
}

// WriteHealth writes the health status to a JSON file.
// Best-effort: callers log but never abort on failure.
func WriteHealth(fs afero.Fs, path string, iteration int, storyID string, ok bool, errMsg string) error {
	h := Health{
		TS:        time.Now().UTC().Format(time.RFC3339Nano),
		Iteration: iteration,
		StoryID:   storyID,
		OK:        ok,
		Error:     errMsg,
	}
	b, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, b, 0o644)
}
