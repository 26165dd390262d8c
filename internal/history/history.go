// Package history persists per-episode processing outcomes in a local
// SQLite database so past runs can be inspected and re-runs can skip
// already-processed work.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Event types for history records.
const (
	EventMerged    = "merged"
	EventFailed    = "failed"
	EventSkipped   = "skipped"
	EventValidated = "validated"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	series      TEXT NOT NULL,
	season      INTEGER NOT NULL,
	episode     INTEGER NOT NULL,
	event       TEXT NOT NULL,
	source_path TEXT NOT NULL DEFAULT '',
	output_path TEXT NOT NULL DEFAULT '',
	detail      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_series ON history(series, season, episode);
CREATE INDEX IF NOT EXISTS idx_history_event ON history(event);
`

// Entry represents one history record.
type Entry struct {
	ID         int64
	Series     string
	Season     int
	Episode    int
	Event      string
	SourcePath string
	OutputPath string
	Detail     string
	CreatedAt  time.Time
}

// Filter specifies criteria for listing history.
type Filter struct {
	Series  string
	Event   string
	Episode *int
	Limit   int
}

// Store persists history records.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and applies the
// schema. The parent directory is created when missing.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts a new history entry and fills its ID and timestamp.
func (s *Store) Add(e *Entry) error {
	now := time.Now()
	result, err := s.db.Exec(`
		INSERT INTO history (series, season, episode, event, source_path, output_path, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Series, e.Season, e.Episode, e.Event, e.SourcePath, e.OutputPath, e.Detail, now,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	e.ID = id
	e.CreatedAt = now
	return nil
}

// List returns history entries matching the filter, most recent first.
func (s *Store) List(f Filter) ([]*Entry, error) {
	var conditions []string
	var args []any

	if f.Series != "" {
		conditions = append(conditions, "series = ?")
		args = append(args, f.Series)
	}
	if f.Event != "" {
		conditions = append(conditions, "event = ?")
		args = append(args, f.Event)
	}
	if f.Episode != nil {
		conditions = append(conditions, "episode = ?")
		args = append(args, *f.Episode)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := `SELECT id, series, season, episode, event, source_path, output_path, detail, created_at
		FROM history ` + whereClause + ` ORDER BY created_at DESC, id DESC`

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Entry
	for rows.Next() {
		e := &Entry{}
		if err := rows.Scan(&e.ID, &e.Series, &e.Season, &e.Episode, &e.Event, &e.SourcePath, &e.OutputPath, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return results, nil
}

// Merged reports whether an episode of a series already has a merged
// record, which lets re-runs skip completed work.
func (s *Store) Merged(series string, season, episode int) (bool, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM history
		WHERE series = ? AND season = ? AND episode = ? AND event = ?`,
		series, season, episode, EventMerged,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query history: %w", err)
	}
	return n > 0, nil
}
