package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/sheet-inbox/internal/core"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of core.SnapshotCache
type SQLiteCache struct {
	db      *sql.DB
	logger  *zap.Logger
	ttl     time.Duration
	janitor *janitor
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, ttl, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// sqlite3 serializes writers anyway
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sheet_snapshots (
			source_url TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			body BLOB,
			etag TEXT,
			last_modified TEXT,
			fetched_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_snapshots_expires_at ON sheet_snapshots(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:     db,
		logger: logger,
		ttl:    ttl,
	}
	cache.janitor = startJanitor(logger, cleanupFreq, cache.Cleanup)

	return cache, nil
}

// Get retrieves the snapshot for a source URL
func (c *SQLiteCache) Get(ctx context.Context, sourceURL string) (*core.Snapshot, error) {
	return getSnapshot(ctx, c.db, `
		SELECT source_url, source_id, body, etag, last_modified, fetched_at, expires_at
		FROM sheet_snapshots
		WHERE source_url = ?
	`, sourceURL)
}

// Set stores a snapshot
func (c *SQLiteCache) Set(ctx context.Context, snapshot *core.Snapshot) error {
	expiresAt := snapshot.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = expiry(time.Now(), c.ttl)
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sheet_snapshots
			(source_url, source_id, body, etag, last_modified, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, snapshot.SourceURL, snapshot.SourceID, snapshot.Body, snapshot.ETag, snapshot.LastModified,
		snapshot.FetchedAt.UnixNano(), expiresAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Delete removes a snapshot
func (c *SQLiteCache) Delete(ctx context.Context, sourceURL string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM sheet_snapshots
		WHERE source_url = ?
	`, sourceURL)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	return cleanupSnapshots(ctx, c.db, c.logger)
}

// Stop stops the background cleanup task and closes the database connection
func (c *SQLiteCache) Stop() {
	c.janitor.stop()
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}

// getSnapshot runs a single-row snapshot query shared by the SQL caches
func getSnapshot(ctx context.Context, db *sql.DB, query, sourceURL string) (*core.Snapshot, error) {
	var (
		snap                 core.Snapshot
		etag, lastModified   sql.NullString
		fetchedAt, expiresAt int64
	)

	err := db.QueryRowContext(ctx, query, sourceURL).Scan(
		&snap.SourceURL, &snap.SourceID, &snap.Body, &etag, &lastModified, &fetchedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	snap.ETag = etag.String
	snap.LastModified = lastModified.String
	snap.FetchedAt = time.Unix(0, fetchedAt)
	snap.ExpiresAt = time.Unix(0, expiresAt)

	if time.Now().After(snap.ExpiresAt) {
		return nil, ErrExpired
	}

	return &snap, nil
}

func cleanupSnapshots(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	result, err := db.ExecContext(ctx, `
		DELETE FROM sheet_snapshots
		WHERE expires_at <= ?
	`, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}
