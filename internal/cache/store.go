package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by a Store when a key has no entry
var ErrNotFound = errors.New("cache entry not found")

// Entry is one persisted cache record
type Entry struct {
	Key      string
	Kind     string
	Scope    string
	Payload  []byte
	CachedAt time.Time
	TTL      time.Duration
}

// Expired reports whether the entry is older than its TTL at now.
// A non-positive TTL never expires.
func (e *Entry) Expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.CachedAt) > e.TTL
}

// Store persists cache entries. Implementations must make Put atomic per key.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, e Entry) error
	Delete(ctx context.Context, key string) error
	DeleteScope(ctx context.Context, scope string) (int, error)
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
	Close() error
}

// MemoryStore keeps entries in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	e.Payload = append([]byte(nil), e.Payload...)
	return &e, nil
}

func (s *MemoryStore) Put(_ context.Context, e Entry) error {
	e.Payload = append([]byte(nil), e.Payload...)
	s.mu.Lock()
	s.entries[e.Key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteScope(_ context.Context, scope string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if e.Scope == scope {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if e.Expired(now) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// SetCachedAt rewrites the timestamp of an entry. Used to age entries in tests.
func (s *MemoryStore) SetCachedAt(key string, t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if ok {
		e.CachedAt = t
		s.entries[key] = e
	}
	return ok
}
