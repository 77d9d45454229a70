// Package cache is the fix cache that sits in front of the location recorder.
//
// Entries are keyed by a hash of (user, device, from, to) and expire after a
// TTL. Every read decodes a fresh copy, so callers may modify what they get.
// Writes to one key are serialized in process; the Store serializes writers
// across processes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/jengzang/records-activity-go/internal/logging"
	"github.com/jengzang/records-activity-go/internal/metrics"
	"github.com/jengzang/records-activity-go/internal/models"
)

// Payload kinds
const (
	KindFixes  = "fixes"
	KindResult = "result"
)

const dateLayout = "2006-01-02"

// Options tunes a LocationCache
type Options struct {
	// TTL applies to windows that reach today or later.
	TTL time.Duration
	// HistoricalTTL applies to windows that ended before today.
	HistoricalTTL time.Duration
	// Location decides where "today" starts. Defaults to UTC.
	Location *time.Location
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// LocationCache caches fix lists and derived analysis results
type LocationCache struct {
	store Store
	opts  Options
	locks [64]sync.Mutex
	log   zerolog.Logger
}

// New creates a cache over store
func New(store Store, opts Options) *LocationCache {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.HistoricalTTL <= 0 {
		opts.HistoricalTTL = opts.TTL
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &LocationCache{store: store, opts: opts, log: logging.WithComponent("cache")}
}

// Key hashes its parts into a fixed-length cache key
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// FixesKey is the key of the fix list for user/device over [from, to)
func FixesKey(user, device string, from, to time.Time) string {
	return Key(KindFixes, user, device, from.Format(dateLayout), to.Format(dateLayout))
}

// Scope groups the entries of one user and device
func Scope(user, device string) string {
	return user + "/" + device
}

func (c *LocationCache) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &c.locks[h.Sum32()%uint32(len(c.locks))]
}

// ttlFor picks the TTL of a window ending (exclusive) at to
func (c *LocationCache) ttlFor(to time.Time) time.Duration {
	now := c.opts.Now().In(c.opts.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.opts.Location)
	if !to.After(today) {
		return c.opts.HistoricalTTL
	}
	return c.opts.TTL
}

// get loads key and decodes it into out. Expired entries are deleted and
// reported as a miss. Store failures are logged and reported as a miss.
func (c *LocationCache) get(ctx context.Context, kind, key string, out any) bool {
	entry, err := c.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		metrics.CacheRequests.WithLabelValues(kind, "miss").Inc()
		return false
	}
	if err != nil {
		metrics.CacheRequests.WithLabelValues(kind, "error").Inc()
		c.log.Warn().Err(err).Str("kind", kind).Msg("cache read failed")
		return false
	}

	if entry.Expired(c.opts.Now()) {
		metrics.CacheRequests.WithLabelValues(kind, "expired").Inc()
		c.dropExpired(ctx, key, entry.CachedAt)
		return false
	}

	if err := json.Unmarshal(entry.Payload, out); err != nil {
		metrics.CacheRequests.WithLabelValues(kind, "error").Inc()
		c.log.Warn().Err(err).Str("kind", kind).Msg("corrupt cache entry")
		return false
	}

	metrics.CacheRequests.WithLabelValues(kind, "hit").Inc()
	return true
}

// dropExpired deletes key only if it still holds the expired entry seen by
// get. A writer may have replaced it between the unlocked read and here.
func (c *LocationCache) dropExpired(ctx context.Context, key string, cachedAt time.Time) {
	mu := c.lock(key)
	mu.Lock()
	defer mu.Unlock()

	current, err := c.store.Get(ctx, key)
	if err != nil || !current.CachedAt.Equal(cachedAt) {
		return
	}
	if err := c.store.Delete(ctx, key); err != nil {
		c.log.Warn().Err(err).Msg("failed to delete expired entry")
	}
}

func (c *LocationCache) put(ctx context.Context, kind, scope, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}

	mu := c.lock(key)
	mu.Lock()
	defer mu.Unlock()

	err = c.store.Put(ctx, Entry{
		Key:      key,
		Kind:     kind,
		Scope:    scope,
		Payload:  payload,
		CachedAt: c.opts.Now(),
		TTL:      ttl,
	})
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", kind, err)
	}
	metrics.CacheWrites.WithLabelValues(kind).Inc()
	return nil
}

// GetFixes returns the cached fixes for user/device over [from, to)
func (c *LocationCache) GetFixes(ctx context.Context, user, device string, from, to time.Time) ([]models.LocationFix, bool) {
	var fixes []models.LocationFix
	if !c.get(ctx, KindFixes, FixesKey(user, device, from, to), &fixes) {
		return nil, false
	}
	if fixes == nil {
		fixes = []models.LocationFix{}
	}
	return fixes, true
}

// PutFixes caches fixes for user/device over [from, to)
func (c *LocationCache) PutFixes(ctx context.Context, user, device string, from, to time.Time, fixes []models.LocationFix) error {
	if fixes == nil {
		fixes = []models.LocationFix{}
	}
	return c.put(ctx, KindFixes, Scope(user, device), FixesKey(user, device, from, to), fixes, c.ttlFor(to))
}

// GetResult decodes a cached analysis result into out
func (c *LocationCache) GetResult(ctx context.Context, key string, out any) bool {
	return c.get(ctx, KindResult, key, out)
}

// PutResult caches an analysis result. windowEnd (exclusive) selects the TTL
// the same way it does for fixes.
func (c *LocationCache) PutResult(ctx context.Context, scope, key string, windowEnd time.Time, v any) error {
	return c.put(ctx, KindResult, scope, key, v, c.ttlFor(windowEnd))
}

// Invalidate drops every entry of scope
func (c *LocationCache) Invalidate(ctx context.Context, scope string) (int, error) {
	n, err := c.store.DeleteScope(ctx, scope)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate %s: %w", scope, err)
	}
	return n, nil
}

// Purge removes expired entries from the store
func (c *LocationCache) Purge(ctx context.Context) (int, error) {
	n, err := c.store.PurgeExpired(ctx, c.opts.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	if n > 0 {
		c.log.Info().Int("removed", n).Msg("purged expired entries")
	}
	return n, nil
}

// Close closes the underlying store
func (c *LocationCache) Close() error {
	return c.store.Close()
}
