package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the key-value operations the application needs.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// Get returns the entry stored under key. ok is false when it is absent.
	Get(ctx context.Context, key string) (entry Entry, ok bool, err error)

	// Put inserts or replaces the value stored under key.
	Put(ctx context.Context, key, value string) error

	// Delete removes key. Removing an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// RunSQLMaintenance performs VACUUM and lets sqlite refresh its statistics.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "database"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	if key == "" {
		return Entry{}, false, errors.New("key cannot be empty")
	}

	var entry Entry
	err := s.db.GetContext(ctx, &entry,
		`SELECT key, value, created_at, updated_at FROM kv_store WHERE key = ?`, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Entry{}, false, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Failed to read key", "key", key, "error", err)
		return Entry{}, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return entry, true, nil
}

func (s *sqlxStore) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO kv_store (key, value, created_at, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to write key", "key", key, "error", err)
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}

	s.logger.DebugContext(ctx, "Key written", "key", key, "bytes", len(value))
	return nil
}

func (s *sqlxStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// RunSQLMaintenance executes VACUUM followed by PRAGMA optimize.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context done before starting maintenance", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance")
	start := time.Now()

	// VACUUM must run outside a transaction in SQLite
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		s.logger.WarnContext(ctx, "PRAGMA optimize failed", "error", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed", "duration", time.Since(start))
	return nil
}
