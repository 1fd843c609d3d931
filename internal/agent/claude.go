package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/x0georgiev/gushter/internal/app"
)

// ClaudeCLIRunner executes the Claude Code CLI
// (`claude -p --output-format json "<prompt>"`).
type ClaudeCLIRunner struct {
	Bin     string
	Timeout time.Duration
	Log     app.Logger
}

// NewClaudeCLIRunner creates a runner for the given binary and timeout.
func NewClaudeCLIRunner(bin string, timeout time.Duration, log app.Logger) *ClaudeCLIRunner {
	if log == nil {
		log = app.NopLogger()
	}
	return &ClaudeCLIRunner{Bin: bin, Timeout: timeout, Log: log}
}

// claudeResponse is the JSON envelope the CLI prints in json output mode.
type claudeResponse struct {
	Type       string  `json:"type"`
	Subtype    string  `json:"subtype"`
	IsError    bool    `json:"is_error"`
	DurationMs int     `json:"duration_ms"`
	Result     string  `json:"result"`
	SessionID  string  `json:"session_id"`
	TotalCost  float64 `json:"total_cost_usd"`
}

// Run invokes the CLI and returns the result text. While the process runs, a
// heartbeat line is logged every few seconds so long executions stay
// observable.
func (r *ClaudeCLIRunner) Run(ctx context.Context, req Request) (string, error) {
	args := []string{"-p", "--output-format", "json", req.Prompt}

	cctx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	heartbeatCtx, stopHeartbeat := context.WithCancel(context.Background())
	defer stopHeartbeat()
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		elapsed := 0
		for {
			select {
			case <-heartbeatCtx.Done():
				return
			case <-ticker.C:
				elapsed += 5
				r.Log.Info("agent still processing story %s... (%d seconds elapsed)", req.StoryID, elapsed)
			}
		}
	}()

	start := time.Now()
	cmd := exec.CommandContext(cctx, r.Bin, args...)
	out, err := cmd.CombinedOutput()
	stopHeartbeat()
	r.Log.Debug("agent call for %s took %v", req.StoryID, time.Since(start))

	if err != nil {
		return "", fmt.Errorf("agent execution failed: %w (output: %s)", err, string(out))
	}

	var response claudeResponse
	if err := json.Unmarshal(out, &response); err != nil {
		// Older CLI versions print plain text; pass it through.
		return string(out), nil
	}

	if response.IsError {
		return "", fmt.Errorf("agent returned error: %s", response.Result)
	}
	return response.Result, nil
}
