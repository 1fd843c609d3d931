// Package runstate owns the durable record of a run: iteration history,
// retry counts and blocked stories. Every mutating operation writes the
// whole record through to disk before returning, so a crash loses at most
// the in-flight iteration.
package runstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/x0georgiev/gushter/internal/app"
	"github.com/x0georgiev/gushter/internal/domain/iteration"
	"github.com/x0georgiev/gushter/internal/infra/fs"
)

// schemaVersion tags the persisted record format.
const schemaVersion = 1

// ErrNoLiveIteration is returned when a mutation references a story with no
// in-progress iteration. This is an integration error, not a retry target.
var ErrNoLiveIteration = errors.New("no live iteration for story")

// RunState is the versioned persisted record.
type RunState struct {
	Version          int                    `json:"version"`
	RunID            string                 `json:"run_id"`
	Branch           string                 `json:"branch"`
	CurrentIteration int                    `json:"current_iteration"`
	MaxIterations    int                    `json:"max_iterations"`
	Iterations       []*iteration.Iteration `json:"iterations"`
	BlockedStories   []string               `json:"blocked_stories"`
	StartedAt        time.Time              `json:"started_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// Store loads, mutates and persists a RunState.
type Store struct {
	fs      afero.Fs
	path    string
	archive Archive
	log     app.Logger
	now     func() time.Time
	state   *RunState
}

// NewStore creates a store persisting to path. archive may be nil, in which
// case superseded iterations are discarded instead of archived.
func NewStore(fsys afero.Fs, path string, archive Archive, log app.Logger) *Store {
	if log == nil {
		log = app.NopLogger()
	}
	return &Store{
		fs:      fsys,
		path:    path,
		archive: archive,
		log:     log,
		now:     time.Now,
	}
}

// Load reads the persisted record, or initializes a fresh one when none
// exists or the persisted branch differs from the requested branch. On
// resume the max-iteration ceiling is overridden by the current run's
// configuration; a non-positive ceiling keeps the persisted value. A
// malformed record is a structural error.
func (s *Store) Load(branch string, maxIterations int) error {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.initFresh(branch, maxIterations)
		}
		return fmt.Errorf("failed to read run state: %w", err)
	}

	var st RunState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("malformed run state %s: %w", s.path, err)
	}

	if st.Branch != branch {
		s.log.Info("run state is for branch %s, starting fresh for %s", st.Branch, branch)
		return s.initFresh(branch, maxIterations)
	}

	if maxIterations > 0 {
		st.MaxIterations = maxIterations
	}
	s.state = &st
	s.log.Info("resumed run %s at iteration %d/%d", st.RunID, st.CurrentIteration, st.MaxIterations)
	return s.persist()
}

// Read returns the persisted record without mutating anything. A missing
// file yields a nil state and no error.
func Read(fsys afero.Fs, path string) (*RunState, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read run state: %w", err)
	}
	var st RunState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("malformed run state %s: %w", path, err)
	}
	return &st, nil
}

func (s *Store) initFresh(branch string, maxIterations int) error {
	now := s.now()
	s.state = &RunState{
		Version:        schemaVersion,
		RunID:          uuid.NewString(),
		Branch:         branch,
		MaxIterations:  maxIterations,
		Iterations:     []*iteration.Iteration{},
		BlockedStories: []string{},
		StartedAt:      now,
		UpdatedAt:      now,
	}
	return s.persist()
}

// StartIteration begins a tracked attempt at a story. Any prior non-rolled-
// back iteration for the same story is superseded: its retry count carries
// over and the record itself moves to the archive. Increments the run's
// iteration counter.
func (s *Store) StartIteration(storyID, startRevision string) (iteration.Iteration, error) {
	retryCount := 0
	for i, it := range s.state.Iterations {
		if it.StoryID != storyID || it.Status == iteration.StatusRolledBack {
			continue
		}
		retryCount = it.RetryCount
		if s.archive != nil {
			if err := s.archive.ArchiveIteration(s.state.RunID, it); err != nil {
				s.log.Warn("failed to archive superseded iteration %s: %v", it.ID, err)
			}
		}
		s.state.Iterations = append(s.state.Iterations[:i], s.state.Iterations[i+1:]...)
		break
	}

	it := iteration.New(storyID, startRevision, retryCount, s.now())
	s.state.Iterations = append(s.state.Iterations, it)
	s.state.CurrentIteration++

	if err := s.persist(); err != nil {
		return iteration.Iteration{}, err
	}
	return *it, nil
}

// CompleteIteration marks the live iteration for a story as completed and
// records the ending revision.
func (s *Store) CompleteIteration(storyID, endRevision string) error {
	it := s.live(storyID)
	if it == nil {
		return fmt.Errorf("%w: %s", ErrNoLiveIteration, storyID)
	}
	now := s.now()
	it.Status = iteration.StatusCompleted
	it.EndRevision = endRevision
	it.CompletedAt = &now
	return s.persist()
}

// FailIteration records a failed attempt. The retry count increments; once
// it reaches maxRetries the iteration becomes blocked and the story joins
// the blocked set. Returns the updated iteration so the caller can branch
// on the resulting status.
func (s *Store) FailIteration(storyID, errMsg string, maxRetries int) (iteration.Iteration, error) {
	it := s.live(storyID)
	if it == nil {
		return iteration.Iteration{}, fmt.Errorf("%w: %s", ErrNoLiveIteration, storyID)
	}

	now := s.now()
	it.RetryCount++
	it.LastError = errMsg
	it.CompletedAt = &now

	if it.RetryCount >= maxRetries {
		it.Status = iteration.StatusBlocked
		s.addBlocked(storyID)
	} else {
		it.Status = iteration.StatusFailed
	}

	if err := s.persist(); err != nil {
		return iteration.Iteration{}, err
	}
	return *it, nil
}

// MarkRolledBack moves the story's latest non-terminal attempt to
// rolled_back and removes the story from the blocked set. Safe to call when
// the story was never blocked or has no matching iteration.
func (s *Store) MarkRolledBack(storyID string) error {
	if it := s.latest(storyID); it != nil && it.Status.CanTransitionTo(iteration.StatusRolledBack) {
		it.Status = iteration.StatusRolledBack
	}
	s.removeBlocked(storyID)
	return s.persist()
}

// UnblockStory removes a story from the blocked set without touching its
// iteration history.
func (s *Store) UnblockStory(storyID string) error {
	s.removeBlocked(storyID)
	return s.persist()
}

// LastIterationFor returns the most recently started iteration for a story,
// or nil.
func (s *Store) LastIterationFor(storyID string) *iteration.Iteration {
	it := s.latest(storyID)
	if it == nil {
		return nil
	}
	cp := *it
	return &cp
}

// CanStartNewIteration reports whether the iteration ceiling leaves room for
// another attempt.
func (s *Store) CanStartNewIteration() bool {
	return s.state.CurrentIteration < s.state.MaxIterations
}

// Reset discards all iteration history and blocked ids and reinitializes the
// counters for the same branch.
func (s *Store) Reset() error {
	return s.initFresh(s.state.Branch, s.state.MaxIterations)
}

// Blocked returns a copy of the blocked story ids.
func (s *Store) Blocked() []string {
	out := make([]string, len(s.state.BlockedStories))
	copy(out, s.state.BlockedStories)
	return out
}

// Iterations returns copies of all retained iterations in start order.
func (s *Store) Iterations() []iteration.Iteration {
	out := make([]iteration.Iteration, 0, len(s.state.Iterations))
	for _, it := range s.state.Iterations {
		out = append(out, *it)
	}
	return out
}

// CurrentIteration returns the run's iteration counter.
func (s *Store) CurrentIteration() int { return s.state.CurrentIteration }

// MaxIterations returns the configured iteration ceiling.
func (s *Store) MaxIterations() int { return s.state.MaxIterations }

// Branch returns the branch the run state is keyed to.
func (s *Store) Branch() string { return s.state.Branch }

// RunID returns the run session identifier.
func (s *Store) RunID() string { return s.state.RunID }

func (s *Store) live(storyID string) *iteration.Iteration {
	for _, it := range s.state.Iterations {
		if it.StoryID == storyID && it.Status == iteration.StatusInProgress {
			return it
		}
	}
	return nil
}

func (s *Store) latest(storyID string) *iteration.Iteration {
	var latest *iteration.Iteration
	for _, it := range s.state.Iterations {
		if it.StoryID != storyID {
			continue
		}
		if latest == nil || it.StartedAt.After(latest.StartedAt) {
			latest = it
		}
	}
	return latest
}

func (s *Store) addBlocked(storyID string) {
	for _, id := range s.state.BlockedStories {
		if id == storyID {
			return
		}
	}
	s.state.BlockedStories = append(s.state.BlockedStories, storyID)
}

func (s *Store) removeBlocked(storyID string) {
	out := s.state.BlockedStories[:0]
	for _, id := range s.state.BlockedStories {
		if id != storyID {
			out = append(out, id)
		}
	}
	s.state.BlockedStories = out
}

func (s *Store) persist() error {
	s.state.UpdatedAt = s.now()
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run state: %w", err)
	}
	if err := fs.WriteFileAtomic(s.fs, s.path, data); err != nil {
		return fmt.Errorf("failed to write run state: %w", err)
	}
	return nil
}
