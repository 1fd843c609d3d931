// Package agent wraps the external code-generation process. The loop treats
// the process as opaque: it hands over a prompt and gets back raw text.
package agent

import "context"

// Request carries everything the runner needs for one invocation.
type Request struct {
	StoryID string
	Prompt  string
}

// Runner is the external-process capability. Run blocks until the process
// finishes; the loop imposes no timeout of its own, so any ceiling belongs
// to the implementation.
type Runner interface {
	Run(ctx context.Context, req Request) (string, error)
}
