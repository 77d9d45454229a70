package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/jengzang/records-activity-go/internal/cache"
)

// Key prefixes for BadgerDB storage
const (
	cacheKeyPrefix   = "cache:"
	cacheScopePrefix = "cache_scope:"
)

// badgerRecord is the stored form of an entry
type badgerRecord struct {
	Kind       string `json:"kind"`
	Scope      string `json:"scope"`
	Payload    []byte `json:"payload"`
	CachedAtMs int64  `json:"cached_at_ms"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

// BadgerCacheRepository stores cache entries in an embedded BadgerDB
type BadgerCacheRepository struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a BadgerDB at path. An empty path opens an
// in-memory database.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return db, nil
}

// NewBadgerCacheRepository creates a BadgerDB-backed cache store
func NewBadgerCacheRepository(db *badger.DB) *BadgerCacheRepository {
	return &BadgerCacheRepository{db: db}
}

func scopeIndexKey(scope, key string) []byte {
	return []byte(cacheScopePrefix + scope + ":" + key)
}

// Get loads an entry by key
func (r *BadgerCacheRepository) Get(ctx context.Context, key string) (*cache.Entry, error) {
	var rec badgerRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(cacheKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return cache.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get cache entry: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}

	return &cache.Entry{
		Key:      key,
		Kind:     rec.Kind,
		Scope:    rec.Scope,
		Payload:  rec.Payload,
		CachedAt: time.UnixMilli(rec.CachedAtMs),
		TTL:      time.Duration(rec.TTLSeconds) * time.Second,
	}, nil
}

// Put stores an entry and its scope index in one transaction. Badger's own
// TTL is set to twice the entry TTL, and at least a minute, so abandoned keys
// are eventually dropped.
func (r *BadgerCacheRepository) Put(ctx context.Context, e cache.Entry) error {
	data, err := json.Marshal(badgerRecord{
		Kind:       e.Kind,
		Scope:      e.Scope,
		Payload:    e.Payload,
		CachedAtMs: e.CachedAt.UnixMilli(),
		TTLSeconds: ttlSeconds(e.TTL),
	})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(cacheKeyPrefix+e.Key), data)
		index := badger.NewEntry(scopeIndexKey(e.Scope, e.Key), []byte(e.Key))
		if e.TTL > 0 {
			keep := max(2*e.TTL, time.Minute)
			entry = entry.WithTTL(keep)
			index = index.WithTTL(keep)
		}
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set cache entry: %w", err)
		}
		if err := txn.SetEntry(index); err != nil {
			return fmt.Errorf("set scope index: %w", err)
		}
		return nil
	})
}

// Delete removes an entry and its scope index
func (r *BadgerCacheRepository) Delete(ctx context.Context, key string) error {
	existing, err := r.Get(ctx, key)
	if errors.Is(err, cache.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(cacheKeyPrefix + key)); err != nil {
			return err
		}
		return txn.Delete(scopeIndexKey(existing.Scope, key))
	})
}

// DeleteScope removes every entry indexed under scope
func (r *BadgerCacheRepository) DeleteScope(ctx context.Context, scope string) (int, error) {
	prefix := []byte(cacheScopePrefix + scope + ":")
	var keys []string

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				keys = append(keys, string(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan scope index: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(cacheKeyPrefix + key)); err != nil {
				return err
			}
			if err := txn.Delete(scopeIndexKey(scope, key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete scope: %w", err)
	}
	return len(keys), nil
}

// PurgeExpired removes entries whose TTL elapsed before now
func (r *BadgerCacheRepository) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	type expired struct{ key, scope string }
	var victims []expired

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(cacheKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var rec badgerRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			e := cache.Entry{CachedAt: time.UnixMilli(rec.CachedAtMs), TTL: time.Duration(rec.TTLSeconds) * time.Second}
			if e.Expired(now) {
				key := string(item.KeyCopy(nil))[len(cacheKeyPrefix):]
				victims = append(victims, expired{key: key, scope: rec.Scope})
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan cache entries: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		for _, v := range victims {
			if err := txn.Delete([]byte(cacheKeyPrefix + v.key)); err != nil {
				return err
			}
			if err := txn.Delete(scopeIndexKey(v.scope, v.key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge cache entries: %w", err)
	}
	return len(victims), nil
}

// Close closes the database
func (r *BadgerCacheRepository) Close() error {
	return r.db.Close()
}
