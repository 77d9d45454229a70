package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/records-activity-go/internal/cache"
	"github.com/jengzang/records-activity-go/internal/database"
)

// CacheRepository stores cache entries in the SQLite cache_entries table
type CacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a new SQLite-backed cache store
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Get loads an entry by key
func (r *CacheRepository) Get(ctx context.Context, key string) (*cache.Entry, error) {
	query := `
		SELECT cache_key, kind, scope, payload, cached_at, ttl_seconds
		FROM cache_entries
		WHERE cache_key = ?
	`

	var e cache.Entry
	var cachedAt, ttlSeconds int64
	err := r.db.QueryRowContext(ctx, query, key).Scan(&e.Key, &e.Kind, &e.Scope, &e.Payload, &cachedAt, &ttlSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	e.CachedAt = time.UnixMilli(cachedAt)
	e.TTL = time.Duration(ttlSeconds) * time.Second
	return &e, nil
}

// Put inserts or replaces an entry in one transaction
func (r *CacheRepository) Put(ctx context.Context, e cache.Entry) error {
	query := `
		INSERT INTO cache_entries (cache_key, kind, scope, payload, cached_at, ttl_seconds)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			kind = excluded.kind,
			scope = excluded.scope,
			payload = excluded.payload,
			cached_at = excluded.cached_at,
			ttl_seconds = excluded.ttl_seconds
	`

	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			e.Key,
			e.Kind,
			e.Scope,
			e.Payload,
			e.CachedAt.UnixMilli(),
			ttlSeconds(e.TTL),
		)
		if err != nil {
			return fmt.Errorf("failed to put cache entry: %w", err)
		}
		return nil
	})
}

// ttlSeconds rounds a positive TTL up to whole seconds. Zero is reserved for
// entries that never expire.
func ttlSeconds(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return int64((ttl + time.Second - 1) / time.Second)
}

// Delete removes an entry. Deleting a missing key is not an error.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE cache_key = ?", key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// DeleteScope removes every entry of a scope
func (r *CacheRepository) DeleteScope(ctx context.Context, scope string) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE scope = ?", scope)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache scope: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// PurgeExpired removes entries whose TTL elapsed before now
func (r *CacheRepository) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	query := `
		DELETE FROM cache_entries
		WHERE ttl_seconds > 0 AND cached_at + ttl_seconds * 1000 < ?
	`
	res, err := r.db.ExecContext(ctx, query, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Close closes the database
func (r *CacheRepository) Close() error {
	return r.db.Close()
}
