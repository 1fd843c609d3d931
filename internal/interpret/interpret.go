// Package interpret extracts a structured result from the free-form text an
// agent produces. Extraction is deliberately forgiving: a missing or
// malformed result block is a normal outcome (the loop treats it as an
// implicit failure), never a parse error surfaced to the caller.
package interpret

import (
	"encoding/json"
	"regexp"

	"github.com/x0georgiev/gushter/internal/domain/result"
)

// Marker is the reserved fenced-block tag the agent must use for its
// structured result. Case-sensitive, matched exactly.
const Marker = "gushter-result"

// Only the first tagged block in the output is considered.
var blockRe = regexp.MustCompile("(?s)```" + Marker + "[ \t]*\n(.*?)```")

// ParsedOutput is the outcome of interpreting one block of raw agent text.
// Structured is nil when no well-formed result block was found.
type ParsedOutput struct {
	Structured *result.StructuredResult
	RawOutput  string
}

// rawResult mirrors the wire shape before enum validation.
type rawResult struct {
	Status       string   `json:"status"`
	StoryID      string   `json:"story_id"`
	NextAction   string   `json:"next_action"`
	FilesChanged []string `json:"files_changed"`
	Learnings    []string `json:"learnings"`
	Error        string   `json:"error"`
}

// Interpret searches rawText for the first fenced block tagged with Marker
// and parses its content. Malformed content degrades to an absent structured
// result; RawOutput always carries the full original text.
func Interpret(rawText string) ParsedOutput {
	out := ParsedOutput{RawOutput: rawText}

	m := blockRe.FindStringSubmatch(rawText)
	if m == nil {
		return out
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(m[1]), &raw); err != nil {
		return out
	}
	if raw.StoryID == "" {
		return out
	}
	status, err := result.ParseStatus(raw.Status)
	if err != nil {
		return out
	}
	action, err := result.ParseNextAction(raw.NextAction)
	if err != nil {
		return out
	}

	out.Structured = &result.StructuredResult{
		Status:       status,
		StoryID:      raw.StoryID,
		NextAction:   action,
		FilesChanged: raw.FilesChanged,
		Learnings:    raw.Learnings,
		Error:        raw.Error,
	}
	return out
}

// IsSuccess reports whether a structured result is present and successful.
func (p ParsedOutput) IsSuccess() bool {
	return p.Structured != nil && p.Structured.Status == result.StatusSuccess
}

// IsComplete reports whether the agent signaled the story is complete.
func (p ParsedOutput) IsComplete() bool {
	return p.Structured != nil && p.Structured.NextAction == result.ActionComplete
}

// IsBlocked reports whether the agent explicitly signaled it is blocked.
func (p ParsedOutput) IsBlocked() bool {
	return p.Structured != nil && p.Structured.NextAction == result.ActionBlocked
}

// ErrorMessage returns the best available failure description:
// the structured error field when set, a generic message when the agent
// reported failure without details, a generic message when no structured
// output was found at all, and "" otherwise.
func (p ParsedOutput) ErrorMessage() string {
	if p.Structured != nil && p.Structured.Error != "" {
		return p.Structured.Error
	}
	if p.Structured != nil && p.Structured.Status == result.StatusFailure {
		return "agent reported failure without details"
	}
	if p.Structured == nil {
		return "no structured output received"
	}
	return ""
}
