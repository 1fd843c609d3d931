package orchestrator

import (
	"fmt"
	"strings"

	"github.com/x0georgiev/gushter/internal/domain/backlog"
	"github.com/x0georgiev/gushter/internal/interpret"
)

// BuildPrompt renders the instruction text sent to the agent for one story.
// Accumulated learnings from earlier iterations are included so the agent
// does not repeat known mistakes.
func BuildPrompt(item *backlog.WorkItem, learnings string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Task: %s\n\n", item.Title)
	fmt.Fprintf(&b, "Story ID: %s\n\n", item.ID)

	if item.Description != "" {
		b.WriteString("## Description\n\n")
		b.WriteString(strings.TrimSpace(item.Description))
		b.WriteString("\n\n")
	}

	if len(item.AcceptanceCriteria) > 0 {
		b.WriteString("## Acceptance Criteria\n\n")
		for _, ac := range item.AcceptanceCriteria {
			fmt.Fprintf(&b, "- %s\n", ac)
		}
		b.WriteString("\n")
	}

	if item.Notes != "" {
		b.WriteString("## Notes\n\n")
		b.WriteString(strings.TrimSpace(item.Notes))
		b.WriteString("\n\n")
	}

	if learnings != "" {
		b.WriteString("## Learnings From Previous Iterations\n\n")
		b.WriteString(strings.TrimSpace(learnings))
		b.WriteString("\n\n")
	}

	b.WriteString("## Output Format\n\n")
	b.WriteString("Implement the task above. When you are finished, report the outcome\n")
	fmt.Fprintf(&b, "in a fenced code block tagged `%s` containing a single JSON object:\n\n", interpret.Marker)
	fmt.Fprintf(&b, "```%s\n", interpret.Marker)
	fmt.Fprintf(&b, `{
  "status": "success",
  "story_id": %q,
  "next_action": "continue",
  "files_changed": ["path/to/file"],
  "learnings": ["what future iterations should know"],
  "error": ""
}
`, item.ID)
	b.WriteString("```\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- status must be \"success\" or \"failure\".\n")
	b.WriteString("- next_action must be \"continue\", \"complete\", or \"blocked\".\n")
	b.WriteString("- Use \"complete\" only when every acceptance criterion is met.\n")
	b.WriteString("- Use \"blocked\" when the task cannot proceed without human input,\n")
	b.WriteString("  and explain the obstacle in the error field.\n")

	return b.String()
}
