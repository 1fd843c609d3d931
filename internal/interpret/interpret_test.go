package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x0georgiev/gushter/internal/domain/result"
)

func TestInterpret_WellFormedBlock(t *testing.T) {
	raw := "Some preamble.\n\n```gushter-result\n" +
		`{"status": "success", "story_id": "S-1", "next_action": "continue", "files_changed": ["a.go"], "learnings": ["use contexts"], "error": ""}` +
		"\n```\n\nTrailing text."

	out := Interpret(raw)
	require.NotNil(t, out.Structured)
	assert.Equal(t, result.StatusSuccess, out.Structured.Status)
	assert.Equal(t, "S-1", out.Structured.StoryID)
	assert.Equal(t, result.ActionContinue, out.Structured.NextAction)
	assert.Equal(t, []string{"a.go"}, out.Structured.FilesChanged)
	assert.Equal(t, []string{"use contexts"}, out.Structured.Learnings)
	assert.Equal(t, raw, out.RawOutput)

	assert.True(t, out.IsSuccess())
	assert.False(t, out.IsComplete())
	assert.False(t, out.IsBlocked())
	assert.Equal(t, "", out.ErrorMessage())
}

func TestInterpret_FirstBlockWins(t *testing.T) {
	raw := "```gushter-result\n" +
		`{"status": "failure", "story_id": "S-1", "next_action": "continue"}` +
		"\n```\n```gushter-result\n" +
		`{"status": "success", "story_id": "S-2", "next_action": "complete"}` +
		"\n```\n"

	out := Interpret(raw)
	require.NotNil(t, out.Structured)
	assert.Equal(t, "S-1", out.Structured.StoryID)
	assert.Equal(t, result.StatusFailure, out.Structured.Status)
}

func TestInterpret_Degradations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "no block at all",
			raw:  "I did some work but forgot to report.",
		},
		{
			name: "wrong tag",
			raw:  "```json\n{\"status\": \"success\", \"story_id\": \"S-1\", \"next_action\": \"continue\"}\n```",
		},
		{
			name: "malformed json",
			raw:  "```gushter-result\n{status: success\n```",
		},
		{
			name: "missing story id",
			raw:  "```gushter-result\n{\"status\": \"success\", \"next_action\": \"continue\"}\n```",
		},
		{
			name: "unknown status",
			raw:  "```gushter-result\n{\"status\": \"maybe\", \"story_id\": \"S-1\", \"next_action\": \"continue\"}\n```",
		},
		{
			name: "unknown next action",
			raw:  "```gushter-result\n{\"status\": \"success\", \"story_id\": \"S-1\", \"next_action\": \"retreat\"}\n```",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Interpret(tt.raw)
			assert.Nil(t, out.Structured)
			assert.Equal(t, tt.raw, out.RawOutput)
			assert.False(t, out.IsSuccess())
			assert.False(t, out.IsComplete())
			assert.False(t, out.IsBlocked())
			assert.Equal(t, "no structured output received", out.ErrorMessage())
		})
	}
}

func TestInterpret_BlockedSignal(t *testing.T) {
	raw := "```gushter-result\n" +
		`{"status": "failure", "story_id": "S-1", "next_action": "blocked", "error": "needs credentials"}` +
		"\n```"

	out := Interpret(raw)
	require.NotNil(t, out.Structured)
	assert.True(t, out.IsBlocked())
	assert.Equal(t, "needs credentials", out.ErrorMessage())
}

func TestErrorMessage_FailureWithoutDetails(t *testing.T) {
	raw := "```gushter-result\n" +
		`{"status": "failure", "story_id": "S-1", "next_action": "continue"}` +
		"\n```"

	out := Interpret(raw)
	require.NotNil(t, out.Structured)
	assert.Equal(t, "agent reported failure without details", out.ErrorMessage())
}
