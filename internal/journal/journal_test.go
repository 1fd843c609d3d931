package journal

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_AppendAndRead(t *testing.T) {
	fsys := afero.NewMemMapFs()
	w := NewWriter(fsys, "var/journal.ndjson")

	require.NoError(t, w.Append(Entry{
		Iteration: 1,
		StoryID:   "S-1",
		Decision:  "completed",
		ElapsedMs: 1200,
		Artifacts: []string{"main.go"},
	}))
	require.NoError(t, w.Append(Entry{
		Iteration: 2,
		StoryID:   "S-2",
		Decision:  "failed",
		Error:     "verification failed",
	}))

	entries, err := w.Read()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "S-1", entries[0].StoryID)
	assert.Equal(t, "completed", entries[0].Decision)
	assert.NotEmpty(t, entries[0].TS)
	assert.Equal(t, []string{"main.go"}, entries[0].Artifacts)

	assert.Equal(t, "failed", entries[1].Decision)
	assert.Equal(t, "verification failed", entries[1].Error)
	// Artifacts are normalized to an empty list, never null.
	assert.NotNil(t, entries[1].Artifacts)
}

func TestWriter_ReadMissingFile(t *testing.T) {
	w := NewWriter(afero.NewMemMapFs(), "var/journal.ndjson")

	entries, err := w.Read()
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestWriter_ReadToleratesTornTrailingLine(t *testing.T) {
	fsys := afero.NewMemMapFs()
	w := NewWriter(fsys, "var/journal.ndjson")

	require.NoError(t, w.Append(Entry{Iteration: 1, StoryID: "S-1", Decision: "completed"}))

	// Simulate a crash mid-append.
	f, err := fsys.OpenFile("var/journal.ndjson", os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"ts": "2026-01-01T0`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := w.Read()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "S-1", entries[0].StoryID)
}
