package runstate

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x0georgiev/gushter/internal/domain/iteration"
)

const statePath = "var/run_state.json"

func newTestStore(t *testing.T, fsys afero.Fs) *Store {
	t.Helper()
	s := NewStore(fsys, statePath, nil, nil)
	require.NoError(t, s.Load("main", 10))
	return s
}

func TestStore_FreshInit(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())

	assert.Equal(t, "main", s.Branch())
	assert.NotEmpty(t, s.RunID())
	assert.Equal(t, 0, s.CurrentIteration())
	assert.Equal(t, 10, s.MaxIterations())
	assert.Empty(t, s.Blocked())
	assert.True(t, s.CanStartNewIteration())
}

func TestStore_StartAndCompleteIteration(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())

	it, err := s.StartIteration("S-1", "rev-a")
	require.NoError(t, err)
	assert.Equal(t, iteration.StatusInProgress, it.Status)
	assert.Equal(t, "rev-a", it.StartRevision)
	assert.Equal(t, 0, it.RetryCount)
	assert.Equal(t, 1, s.CurrentIteration())

	require.NoError(t, s.CompleteIteration("S-1", "rev-b"))

	last := s.LastIterationFor("S-1")
	require.NotNil(t, last)
	assert.Equal(t, iteration.StatusCompleted, last.Status)
	assert.Equal(t, "rev-b", last.EndRevision)
	require.NotNil(t, last.CompletedAt)
}

func TestStore_CompleteWithoutLiveIteration(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())

	err := s.CompleteIteration("S-1", "rev-b")
	assert.ErrorIs(t, err, ErrNoLiveIteration)

	_, err = s.FailIteration("S-1", "boom", 3)
	assert.ErrorIs(t, err, ErrNoLiveIteration)
}

func TestStore_FailIteration_BlocksAtMaxRetriesOne(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())

	_, err := s.StartIteration("S-1", "rev-a")
	require.NoError(t, err)

	it, err := s.FailIteration("S-1", "no good", 1)
	require.NoError(t, err)
	assert.Equal(t, iteration.StatusBlocked, it.Status)
	assert.Equal(t, 1, it.RetryCount)
	assert.Equal(t, "no good", it.LastError)
	assert.Equal(t, []string{"S-1"}, s.Blocked())
}

func TestStore_FailIteration_RetrySequence(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := s.StartIteration("S-1", "rev-a")
		require.NoError(t, err)

		it, err := s.FailIteration("S-1", "still failing", 3)
		require.NoError(t, err)
		assert.Equal(t, attempt, it.RetryCount)

		if attempt < 3 {
			assert.Equal(t, iteration.StatusFailed, it.Status)
			assert.Empty(t, s.Blocked())
		} else {
			assert.Equal(t, iteration.StatusBlocked, it.Status)
			assert.Equal(t, []string{"S-1"}, s.Blocked())
		}
	}
	assert.Equal(t, 3, s.CurrentIteration())
}

func TestStore_StartIteration_InheritsRetryCount(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())

	_, err := s.StartIteration("S-1", "rev-a")
	require.NoError(t, err)
	_, err = s.FailIteration("S-1", "boom", 5)
	require.NoError(t, err)

	it, err := s.StartIteration("S-1", "rev-a")
	require.NoError(t, err)
	assert.Equal(t, 1, it.RetryCount)

	// Superseded records are removed, one record per story remains.
	count := 0
	for _, rec := range s.Iterations() {
		if rec.StoryID == "S-1" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestStore_MarkRolledBack(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())

	_, err := s.StartIteration("S-1", "rev-a")
	require.NoError(t, err)
	_, err = s.FailIteration("S-1", "boom", 1)
	require.NoError(t, err)
	require.Equal(t, []string{"S-1"}, s.Blocked())

	require.NoError(t, s.MarkRolledBack("S-1"))
	assert.Empty(t, s.Blocked())

	last := s.LastIterationFor("S-1")
	require.NotNil(t, last)
	assert.Equal(t, iteration.StatusRolledBack, last.Status)

	// Rolled-back attempts no longer feed retry inheritance.
	it, err := s.StartIteration("S-1", "rev-a")
	require.NoError(t, err)
	assert.Equal(t, 0, it.RetryCount)
}

func TestStore_MarkRolledBack_NoOpSafe(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())

	// Never blocked, no iterations at all.
	assert.NoError(t, s.MarkRolledBack("S-404"))
	assert.Empty(t, s.Blocked())
}

func TestStore_UnblockStory(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())

	_, err := s.StartIteration("S-1", "rev-a")
	require.NoError(t, err)
	_, err = s.FailIteration("S-1", "boom", 1)
	require.NoError(t, err)

	require.NoError(t, s.UnblockStory("S-1"))
	assert.Empty(t, s.Blocked())

	// Iteration history keeps the blocked record.
	last := s.LastIterationFor("S-1")
	require.NotNil(t, last)
	assert.Equal(t, iteration.StatusBlocked, last.Status)
}

func TestStore_ResumeFromDisk(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s1 := newTestStore(t, fsys)

	_, err := s1.StartIteration("S-1", "rev-a")
	require.NoError(t, err)
	_, err = s1.FailIteration("S-1", "boom", 1)
	require.NoError(t, err)
	runID := s1.RunID()

	// A second store over the same file resumes, overriding the ceiling.
	s2 := NewStore(fsys, statePath, nil, nil)
	require.NoError(t, s2.Load("main", 25))

	assert.Equal(t, runID, s2.RunID())
	assert.Equal(t, 1, s2.CurrentIteration())
	assert.Equal(t, 25, s2.MaxIterations())
	assert.Equal(t, []string{"S-1"}, s2.Blocked())
}

func TestStore_BranchMismatchStartsFresh(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s1 := newTestStore(t, fsys)
	_, err := s1.StartIteration("S-1", "rev-a")
	require.NoError(t, err)
	runID := s1.RunID()

	s2 := NewStore(fsys, statePath, nil, nil)
	require.NoError(t, s2.Load("feature/x", 10))

	assert.NotEqual(t, runID, s2.RunID())
	assert.Equal(t, 0, s2.CurrentIteration())
	assert.Equal(t, "feature/x", s2.Branch())
}

func TestStore_MalformedStateIsStructural(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, statePath, []byte("{torn"), 0644))

	s := NewStore(fsys, statePath, nil, nil)
	err := s.Load("main", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed run state")
}

func TestStore_CanStartNewIteration(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := NewStore(fsys, statePath, nil, nil)
	require.NoError(t, s.Load("main", 1))

	assert.True(t, s.CanStartNewIteration())
	_, err := s.StartIteration("S-1", "rev-a")
	require.NoError(t, err)
	assert.False(t, s.CanStartNewIteration())
}

func TestStore_Reset(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())

	_, err := s.StartIteration("S-1", "rev-a")
	require.NoError(t, err)
	_, err = s.FailIteration("S-1", "boom", 1)
	require.NoError(t, err)
	oldRunID := s.RunID()

	require.NoError(t, s.Reset())
	assert.Equal(t, 0, s.CurrentIteration())
	assert.Empty(t, s.Blocked())
	assert.Empty(t, s.Iterations())
	assert.Equal(t, "main", s.Branch())
	assert.NotEqual(t, oldRunID, s.RunID())
}

func TestRead(t *testing.T) {
	fsys := afero.NewMemMapFs()

	st, err := Read(fsys, statePath)
	require.NoError(t, err)
	assert.Nil(t, st)

	s := newTestStore(t, fsys)
	_, err = s.StartIteration("S-1", "rev-a")
	require.NoError(t, err)

	st, err = Read(fsys, statePath)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "main", st.Branch)
	assert.Equal(t, 1, st.CurrentIteration)
}

// recordingArchive captures archived iterations for assertions.
type recordingArchive struct {
	archived []*iteration.Iteration
}

func (a *recordingArchive) ArchiveIteration(runID string, it *iteration.Iteration) error {
	a.archived = append(a.archived, it)
	return nil
}

func (a *recordingArchive) FindByStory(storyID string) ([]ArchivedIteration, error) {
	return nil, nil
}

func (a *recordingArchive) Close() error { return nil }

func TestStore_ArchivesSupersededIterations(t *testing.T) {
	archive := &recordingArchive{}
	s := NewStore(afero.NewMemMapFs(), statePath, archive, nil)
	require.NoError(t, s.Load("main", 10))

	_, err := s.StartIteration("S-1", "rev-a")
	require.NoError(t, err)
	_, err = s.FailIteration("S-1", "boom", 5)
	require.NoError(t, err)
	_, err = s.StartIteration("S-1", "rev-a")
	require.NoError(t, err)

	require.Len(t, archive.archived, 1)
	assert.Equal(t, "S-1", archive.archived[0].StoryID)
	assert.Equal(t, iteration.StatusFailed, archive.archived[0].Status)
}
