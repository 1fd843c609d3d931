// Package journal appends one NDJSON entry per loop pass for audit.
// Journal writes are best-effort; a failed append never fails the run.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
)

// Entry is a normalized journal record. All fields are always present so the
// file keeps a consistent schema across versions.
type Entry struct {
	TS        string   `json:"ts"`
	Iteration int      `json:"iteration"`
	StoryID   string   `json:"story_id"`
	Decision  string   `json:"decision"`
	ElapsedMs int64    `json:"elapsed_ms"`
	Error     string   `json:"error"`
	Artifacts []string `json:"artifacts"`
}

// Writer appends entries to a single NDJSON file.
type Writer struct {
	fs   afero.Fs
	path string
}

// NewWriter creates a journal writer for the given path.
func NewWriter(fsys afero.Fs, path string) *Writer {
	return &Writer{fs: fsys, path: path}
}

// Append normalizes and writes one entry.
func (w *Writer) Append(e Entry) error {
	if e.TS == "" {
		e.TS = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if e.Artifacts == nil {
		e.Artifacts = []string{}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	f, err := w.fs.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// Read returns all entries currently in the journal, oldest first.
// Used by the status command.
func (w *Writer) Read() ([]Entry, error) {
	data, err := afero.ReadFile(w.fs, w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	var entries []Entry
	start := 0
	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1
			if len(line) == 0 {
				continue
			}
			var e Entry
			if err := json.Unmarshal(line, &e); err != nil {
				// Tolerate a torn trailing line from a crashed append.
				continue
			}
			entries = append(entries, e)
		}
	}
	return entries, nil
}
