package runstate

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/x0georgiev/gushter/internal/domain/iteration"
)

// Archive receives iterations superseded by a retry, keeping per-story
// attempt history queryable after the live record has moved on.
type Archive interface {
	ArchiveIteration(runID string, it *iteration.Iteration) error
	FindByStory(storyID string) ([]ArchivedIteration, error)
	Close() error
}

// ArchivedIteration is one archived attempt row.
type ArchivedIteration struct {
	ID            int64
	RunID         string
	IterationID   string
	StoryID       string
	Status        string
	StartRevision string
	EndRevision   string
	RetryCount    int
	StartedAt     string
	LastError     string
}

// SQLiteArchive implements Archive using a local SQLite database.
type SQLiteArchive struct {
	db *sql.DB
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS iteration_archive (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	iteration_id TEXT NOT NULL,
	story_id TEXT NOT NULL,
	status TEXT NOT NULL,
	start_revision TEXT,
	end_revision TEXT,
	retry_count INTEGER NOT NULL DEFAULT 0,
	started_at TEXT NOT NULL,
	last_error TEXT,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_iteration_archive_story ON iteration_archive(story_id);
`

// OpenSQLiteArchive opens (and migrates) the archive database at path.
func OpenSQLiteArchive(path string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate archive database: %w", err)
	}
	return &SQLiteArchive{db: db}, nil
}

// ArchiveIteration appends one superseded iteration.
func (a *SQLiteArchive) ArchiveIteration(runID string, it *iteration.Iteration) error {
	query := `
		INSERT INTO iteration_archive
			(run_id, iteration_id, story_id, status, start_revision, end_revision, retry_count, started_at, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := a.db.Exec(query,
		runID,
		it.ID,
		it.StoryID,
		string(it.Status),
		it.StartRevision,
		it.EndRevision,
		it.RetryCount,
		it.StartedAt.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"),
		it.LastError,
	)
	if err != nil {
		return fmt.Errorf("failed to archive iteration: %w", err)
	}
	return nil
}

// FindByStory returns all archived attempts for a story, oldest first.
func (a *SQLiteArchive) FindByStory(storyID string) ([]ArchivedIteration, error) {
	query := `
		SELECT id, run_id, iteration_id, story_id, status,
		       COALESCE(start_revision, ''), COALESCE(end_revision, ''),
		       retry_count, started_at, COALESCE(last_error, '')
		FROM iteration_archive
		WHERE story_id = ?
		ORDER BY id ASC
	`
	rows, err := a.db.Query(query, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query iteration archive: %w", err)
	}
	defer rows.Close()

	var out []ArchivedIteration
	for rows.Next() {
		var rec ArchivedIteration
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.IterationID, &rec.StoryID, &rec.Status,
			&rec.StartRevision, &rec.EndRevision,
			&rec.RetryCount, &rec.StartedAt, &rec.LastError,
		); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating archive rows: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
