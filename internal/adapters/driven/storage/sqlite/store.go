// Package sqlite provides the SQLite-backed ingest log.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tessera-labs/tessera-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IngestLog = (*Store)(nil)

// Store is the SQLite-backed ingest log. It records ingestion runs and
// the latest state of each ingested source.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.tessera/data/ingest.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tessera", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ingest.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RecordRun stores one completed ingestion run.
func (s *Store) RecordRun(ctx context.Context, run driven.IngestRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, kind, started_at, completed_at, total, succeeded, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Kind, run.StartedAt.UTC(), run.CompletedAt.UTC(),
		run.Total, run.Succeeded, run.Failed)

	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// RecordSource stores or overwrites the latest ingestion state of a
// source. Last write wins, matching upsert semantics in the index.
func (s *Store) RecordSource(ctx context.Context, src driven.IngestSource) error {
	updatedAt := src.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_sources (source, title, chunks, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			title = excluded.title,
			chunks = excluded.chunks,
			updated_at = excluded.updated_at
	`, src.Source, src.Title, src.Chunks, updatedAt.UTC())

	if err != nil {
		return fmt.Errorf("recording source: %w", err)
	}
	return nil
}

// ListSources returns all ingested sources, most recently updated first.
func (s *Store) ListSources(ctx context.Context) ([]driven.IngestSource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, title, chunks, updated_at
		FROM ingest_sources
		ORDER BY updated_at DESC, source
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []driven.IngestSource //nolint:prealloc // size unknown from query
	for rows.Next() {
		var src driven.IngestSource
		var updatedAt sql.NullTime
		if err := rows.Scan(&src.Source, &src.Title, &src.Chunks, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		if updatedAt.Valid {
			src.UpdatedAt = updatedAt.Time
		}
		sources = append(sources, src)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}

	return sources, nil
}

// ListRuns returns the most recent ingestion runs, newest first.
// limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]driven.IngestRun, error) {
	query := `
		SELECT id, kind, started_at, completed_at, total, succeeded, failed
		FROM ingest_runs
		ORDER BY started_at DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []driven.IngestRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		var run driven.IngestRun
		var startedAt, completedAt sql.NullTime
		if err := rows.Scan(&run.ID, &run.Kind, &startedAt, &completedAt,
			&run.Total, &run.Succeeded, &run.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if startedAt.Valid {
			run.StartedAt = startedAt.Time
		}
		if completedAt.Valid {
			run.CompletedAt = completedAt.Time
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
