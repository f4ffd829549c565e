package cache

import (
	"context"
	"time"
)

// KV defines the minimal byte-level cache contract with TTL semantics.
// Get returns ErrNotFound for missing and expired keys.
// Implementations must be safe for concurrent use by multiple goroutines.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// MemoryKV implements KV on top of a Store. It is what the cache daemon serves.
type MemoryKV struct {
	store *Store[[]byte]
}

func NewMemoryKV(opts ...StoreOption) *MemoryKV {
	return &MemoryKV{store: NewStore[[]byte](opts...)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.store.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.store.Delete(key)
	return nil
}

// Len reports the number of entries, expired ones included.
func (m *MemoryKV) Len() int { return m.store.Len() }
