// Package backlog holds the work-item backlog document and the selection
// logic that decides which story runs next.
package backlog

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrStoryNotFound is returned when a story id does not exist in the backlog.
var ErrStoryNotFound = errors.New("story not found")

// WorkItem is one discrete, independently completable unit of backlog work.
// Lower Priority values are picked first.
type WorkItem struct {
	ID                 string   `yaml:"id" json:"id"`
	Title              string   `yaml:"title" json:"title"`
	Description        string   `yaml:"description,omitempty" json:"description,omitempty"`
	AcceptanceCriteria []string `yaml:"acceptance_criteria,omitempty" json:"acceptance_criteria,omitempty"`
	Priority           int      `yaml:"priority" json:"priority"`
	Passes             bool     `yaml:"passes" json:"passes"`
	Notes              string   `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Backlog is the ordered collection of work items for a run, keyed to a
// single target branch. Only the Passes flag of its items is mutated during
// a run.
type Backlog struct {
	Version     int         `yaml:"version" json:"version"`
	Project     string      `yaml:"project" json:"project"`
	Branch      string      `yaml:"branch" json:"branch"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Stories     []*WorkItem `yaml:"stories" json:"stories"`
}

// Find returns the work item with the given id, or ErrStoryNotFound.
func (b *Backlog) Find(id string) (*WorkItem, error) {
	for _, s := range b.Stories {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrStoryNotFound, id)
}

// MarkComplete sets the Passes flag on the story with the given id.
func (b *Backlog) MarkComplete(id string) error {
	s, err := b.Find(id)
	if err != nil {
		return err
	}
	s.Passes = true
	return nil
}

// Normalize applies NFC normalization to ids and titles and trims
// surrounding whitespace. Called once at load, before Validate.
func (b *Backlog) Normalize() {
	b.Project = strings.TrimSpace(b.Project)
	b.Branch = strings.TrimSpace(b.Branch)
	for _, s := range b.Stories {
		s.ID = norm.NFC.String(strings.TrimSpace(s.ID))
		s.Title = norm.NFC.String(strings.TrimSpace(s.Title))
	}
}

// Validate checks the backlog invariants: a branch name, non-empty unique
// ids, and non-empty titles. Priorities may repeat.
func (b *Backlog) Validate() error {
	if b.Branch == "" {
		return errors.New("backlog has no target branch")
	}
	seen := make(map[string]bool, len(b.Stories))
	for i, s := range b.Stories {
		if s.ID == "" {
			return fmt.Errorf("story at index %d has an empty id", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate story id %q", s.ID)
		}
		seen[s.ID] = true
		if s.Title == "" {
			return fmt.Errorf("story %s has an empty title", s.ID)
		}
	}
	return nil
}
