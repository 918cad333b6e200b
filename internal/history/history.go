// Package history implements a sync-run audit log: one row per Component
// Pipeline invocation, schema-migrated with goose and stored in sqlite.
// Adapted from the teacher's internal/infrastructure SQLiteDatabase
// (connect/PRAGMA/pool-config shape) and internal/infrastructure/migrations
// (goose-driven MigrationManager), narrowed from alerts/classifications to
// a single sync_runs table.
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Status is a completed sync run's outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailure Status = "failure"
)

// Record is one row of the audit log.
type Record struct {
	ID         int64
	Namespace  string
	Component  string
	NVR        string
	Status     Status
	DestRef    string
	BuildTask  int64
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store owns the sqlite connection backing the audit log.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to (creating if necessary) the sqlite database at path and
// applies any pending migrations. path may be ":memory:".
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create history database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite, single-writer audit log (§9 ambient stack)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		logger.Warn("history: failed to enable WAL mode", "error", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}

	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history migrations: %w", err)
	}

	logger.Info("history store ready", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSync appends one completed-or-failed sync run to the audit log.
func (s *Store) RecordSync(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (namespace, component, nvr, status, dest_ref, build_task, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Namespace, r.Component, r.NVR, string(r.Status), nullIfEmpty(r.DestRef), nullIfZero(r.BuildTask), nullIfEmpty(r.Error), r.StartedAt, r.FinishedAt)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}
