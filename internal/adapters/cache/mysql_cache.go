package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/sheet-inbox/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of core.SnapshotCache, for several
// instances sharing the last good sheet bodies
type MySQLCache struct {
	db      *sql.DB
	logger  *zap.Logger
	ttl     time.Duration
	janitor *janitor
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, ttl, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sheet_snapshots (
			source_url VARCHAR(768) PRIMARY KEY,
			source_id VARCHAR(255) NOT NULL,
			body LONGBLOB,
			etag VARCHAR(255),
			last_modified VARCHAR(64),
			fetched_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			INDEX idx_snapshots_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:     db,
		logger: logger,
		ttl:    ttl,
	}
	cache.janitor = startJanitor(logger, cleanupFreq, cache.Cleanup)

	return cache, nil
}

// Get retrieves the snapshot for a source URL
func (c *MySQLCache) Get(ctx context.Context, sourceURL string) (*core.Snapshot, error) {
	return getSnapshot(ctx, c.db, `
		SELECT source_url, source_id, body, etag, last_modified, fetched_at, expires_at
		FROM sheet_snapshots
		WHERE source_url = ?
	`, sourceURL)
}

// Set stores a snapshot
func (c *MySQLCache) Set(ctx context.Context, snapshot *core.Snapshot) error {
	expiresAt := snapshot.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = expiry(time.Now(), c.ttl)
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO sheet_snapshots
			(source_url, source_id, body, etag, last_modified, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			source_id = VALUES(source_id),
			body = VALUES(body),
			etag = VALUES(etag),
			last_modified = VALUES(last_modified),
			fetched_at = VALUES(fetched_at),
			expires_at = VALUES(expires_at)
	`, snapshot.SourceURL, snapshot.SourceID, snapshot.Body, snapshot.ETag, snapshot.LastModified,
		snapshot.FetchedAt.UnixNano(), expiresAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to update cache: %w", err)
	}

	return nil
}

// Delete removes a snapshot
func (c *MySQLCache) Delete(ctx context.Context, sourceURL string) error {
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
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	return cleanupSnapshots(ctx, c.db, c.logger)
}

// Stop stops the background cleanup task and closes the database connection
func (c *MySQLCache) Stop() {
	c.janitor.stop()
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
