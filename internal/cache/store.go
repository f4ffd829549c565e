package cache

import (
	"sync"
	"time"
)

// DefaultMaxSize is the entry count above which a Set triggers a cleanup pass.
const DefaultMaxSize = 1000

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// expired reports whether the entry is stale at now.
func (e entry[V]) expired(now time.Time) bool { return now.After(e.expiresAt) }

// Store is an in-memory key/value store with per-entry expiration.
// It is safe for concurrent use by multiple goroutines.
//
// Expired entries are removed when a Get observes them, or by a cleanup pass
// that runs synchronously inside Set once the store grows past its max size.
// There is no background sweeping.
type Store[V any] struct {
	mu      sync.Mutex
	items   map[string]entry[V]
	maxSize int
	now     func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	maxSize int
	now     func() time.Time
}

// WithMaxSize sets the cleanup threshold. Values <= 0 keep DefaultMaxSize.
func WithMaxSize(n int) StoreOption {
	return func(o *storeOptions) {
		if n > 0 {
			o.maxSize = n
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewStore returns an empty Store.
func NewStore[V any](opts ...StoreOption) *Store[V] {
	o := storeOptions{maxSize: DefaultMaxSize, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[V]{
		items:   make(map[string]entry[V]),
		maxSize: o.maxSize,
		now:     o.now,
	}
}

// Get returns the value stored under key if it has not expired.
// An expired entry is deleted before Get reports it as missing.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if e.expired(s.now()) {
		delete(s.items, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key until now+ttl, replacing any previous entry.
// The ttl is not validated: a zero or negative ttl produces an entry that any
// later read treats as expired.
func (s *Store[V]) Set(key string, value V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.items[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
	if len(s.items) > s.maxSize {
		s.cleanupLocked(now)
	}
}

// Delete removes key. Missing keys are ignored.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// Clear removes every entry.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.items)
}

// Len returns the number of stored entries.
//
// Expired entries that have not been read or swept yet are counted.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// MaxSize returns the cleanup threshold.
func (s *Store[V]) MaxSize() int { return s.maxSize }

// cleanupLocked removes every entry whose expiration is strictly before now.
// O(n) in the number of entries.
func (s *Store[V]) cleanupLocked(now time.Time) {
	for key, e := range s.items {
		if e.expiresAt.Before(now) {
			delete(s.items, key)
		}
	}
}
