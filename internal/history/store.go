package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"voicegrab/internal/config"
)

// The archive is a single append-only table; the statements are idempotent
// so reopening an existing database is a no-op.
//
//go:embed schema.sql
var schemaSQL string

// Entry is one completed resolution.
type Entry struct {
	ID            int64
	RecordID      string
	TabID         string
	DurationMs    int64
	DownloadURL   string
	LastModified  string
	SuggestedName string
	ResolvedAt    time.Time
}

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(context.Background(), schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts a completed resolution and returns it with its id assigned.
func (s *Store) Record(ctx context.Context, entry Entry) (*Entry, error) {
	if entry.DownloadURL == "" {
		return nil, errors.New("entry requires a download url")
	}
	if entry.ResolvedAt.IsZero() {
		entry.ResolvedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO resolutions (
            record_id, tab_id, duration_ms, download_url,
            last_modified, suggested_name, resolved_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullableString(entry.RecordID),
		nullableString(entry.TabID),
		entry.DurationMs,
		entry.DownloadURL,
		nullableString(entry.LastModified),
		nullableString(entry.SuggestedName),
		entry.ResolvedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert resolution: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	return &entry, nil
}

// GetByID fetches a history entry by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM resolutions WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// List returns the most recent entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+entryColumns+` FROM resolutions ORDER BY resolved_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list resolutions: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM resolutions`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count resolutions: %w", err)
	}
	return count, nil
}

// Prune deletes entries resolved before the cutoff and returns the count.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM resolutions WHERE resolved_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune resolutions: %w", err)
	}
	return res.RowsAffected()
}

const entryColumns = "id, record_id, tab_id, duration_ms, download_url, last_modified, suggested_name, resolved_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id            int64
		recordID      sql.NullString
		tabID         sql.NullString
		durationMs    int64
		downloadURL   string
		lastModified  sql.NullString
		suggestedName sql.NullString
		resolvedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&recordID,
		&tabID,
		&durationMs,
		&downloadURL,
		&lastModified,
		&suggestedName,
		&resolvedRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:            id,
		RecordID:      recordID.String,
		TabID:         tabID.String,
		DurationMs:    durationMs,
		DownloadURL:   downloadURL,
		LastModified:  lastModified.String,
		SuggestedName: suggestedName.String,
	}
	if resolved, err := time.Parse(time.RFC3339Nano, resolvedRaw.String); err == nil {
		entry.ResolvedAt = resolved
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
