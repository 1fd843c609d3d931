package orchestrator

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// readLearnings returns the accumulated learnings document, or "" when none
// has been written yet. Read failures are non-fatal.
func (o *Orchestrator) readLearnings() string {
	if o.learn == "" {
		return ""
	}
	data, err := afero.ReadFile(o.fs, o.learn)
	if err != nil {
		return ""
	}
	return string(data)
}

// appendLearnings adds the agent's reported learnings to the shared document.
func (o *Orchestrator) appendLearnings(storyID string, learnings []string) {
	if o.learn == "" || len(learnings) == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n## %s (%s)\n\n", storyID, time.Now().UTC().Format(time.RFC3339))
	for _, l := range learnings {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", l)
	}

	f, err := o.fs.OpenFile(o.learn, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		o.log.Warn("failed to open learnings file: %v", err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(b.String()); err != nil {
		o.log.Warn("failed to append learnings: %v", err)
	}
}
