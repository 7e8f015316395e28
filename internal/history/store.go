package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// timeLayout is fixed width so started_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Trigger values for Attempt.Trigger.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// Attempt is one recorded dispatch.
type Attempt struct {
	ID            int64
	DispatchID    string
	Trigger       string
	Result        string
	StartedAt     time.Time
	Duration      time.Duration
	ArtifactPath  string
	ErrorCategory string
	ErrorMessage  string
	CleanupError  string
}

// Store persists dispatch attempts.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends an attempt.
func (s *Store) Record(ctx context.Context, a Attempt) error {
	if strings.TrimSpace(a.DispatchID) == "" {
		return errors.New("dispatch id required")
	}
	if a.Trigger == "" {
		a.Trigger = TriggerSchedule
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dispatch_attempts (
            dispatch_id, trigger_source, result, started_at, duration_ms,
            artifact_path, error_category, error_message, cleanup_error
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.DispatchID,
		a.Trigger,
		a.Result,
		a.StartedAt.UTC().Format(timeLayout),
		a.Duration.Milliseconds(),
		nullableString(a.ArtifactPath),
		nullableString(a.ErrorCategory),
		nullableString(a.ErrorMessage),
		nullableString(a.CleanupError),
	)
	if err != nil {
		return fmt.Errorf("insert dispatch attempt: %w", err)
	}
	return nil
}

// Recent returns up to limit attempts, newest first. A limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Attempt, error) {
	query := `SELECT id, dispatch_id, trigger_source, result, started_at, duration_ms,
            artifact_path, error_category, error_message, cleanup_error
        FROM dispatch_attempts ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dispatch attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var (
			a                                            Attempt
			startedAt                                    string
			durationMS                                   int64
			artifact, category, message, cleanupErrorCol sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.DispatchID, &a.Trigger, &a.Result, &startedAt, &durationMS,
			&artifact, &category, &message, &cleanupErrorCol); err != nil {
			return nil, fmt.Errorf("scan dispatch attempt: %w", err)
		}
		if a.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
		}
		a.Duration = time.Duration(durationMS) * time.Millisecond
		a.ArtifactPath = artifact.String
		a.ErrorCategory = category.String
		a.ErrorMessage = message.String
		a.CleanupError = cleanupErrorCol.String
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatch attempts: %w", err)
	}
	return attempts, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start a fresh ledger)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
