// Package backlog provides the file-based repository for the backlog
// document. The document is a single YAML record, read once at startup and
// rewritten wholesale whenever a story's completion flag changes.
package backlog

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	domain "github.com/x0georgiev/gushter/internal/domain/backlog"
	"github.com/x0georgiev/gushter/internal/infra/fs"
)

// ErrBacklogNotFound is returned when the backlog document does not exist.
var ErrBacklogNotFound = errors.New("backlog document not found")

// FileBacklogRepository is a file-based implementation of backlog persistence
type FileBacklogRepository struct {
	FS   afero.Fs
	Path string
}

// NewFileBacklogRepository creates a repository for the document at path
func NewFileBacklogRepository(fsys afero.Fs, path string) *FileBacklogRepository {
	return &FileBacklogRepository{FS: fsys, Path: path}
}

// Load reads, normalizes and validates the backlog document.
// A missing or malformed document is a structural error, never retried.
func (r *FileBacklogRepository) Load() (*domain.Backlog, error) {
	data, err := afero.ReadFile(r.FS, r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBacklogNotFound, r.Path)
		}
		return nil, fmt.Errorf("failed to read backlog: %w", err)
	}

	var b domain.Backlog
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse backlog %s: %w", r.Path, err)
	}

	b.Normalize()
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backlog %s: %w", r.Path, err)
	}
	return &b, nil
}

// Save rewrites the backlog document atomically.
func (r *FileBacklogRepository) Save(b *domain.Backlog) error {
	data, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal backlog: %w", err)
	}
	if err := fs.WriteFileAtomic(r.FS, r.Path, data); err != nil {
		return fmt.Errorf("failed to write backlog: %w", err)
	}
	return nil
}
