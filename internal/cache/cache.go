package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/leonardcser/weather-mcp/internal/logger"
)

var ErrNotFound = errors.New("cache: not found")

// Key is a cache key bound to the type of value stored under it.
type Key[V any] struct{ s string }

func (k Key[V]) String() string { return k.s }

// Namespace is the key scheme for one kind of cached result.
// Keys look like "<prefix>:<part>[:<part>...]".
type Namespace[V any] struct{ prefix string }

func NewNamespace[V any](prefix string) Namespace[V] {
	return Namespace[V]{prefix: prefix}
}

func (n Namespace[V]) Prefix() string { return n.prefix }

// Key builds a key inside the namespace.
func (n Namespace[V]) Key(parts ...string) Key[V] {
	return Key[V]{s: n.prefix + ":" + strings.Join(parts, ":")}
}

// Cache is the typed cache contract consumed by the service layer.
//
// Methods take a context and return errors so that a networked implementation
// can stand in for the in-memory one. A miss is reported as (zero, false, nil).
type Cache[V any] interface {
	Get(ctx context.Context, key Key[V]) (V, bool, error)
	Set(ctx context.Context, key Key[V], value V, ttl time.Duration) error
	Delete(ctx context.Context, key Key[V]) error
}

// Local serves a Cache straight from an in-process Store. It never fails.
type Local[V any] struct {
	store *Store[V]
}

func NewLocal[V any](store *Store[V]) *Local[V] {
	return &Local[V]{store: store}
}

func (l *Local[V]) Get(_ context.Context, key Key[V]) (V, bool, error) {
	v, ok := l.store.Get(key.s)
	return v, ok, nil
}

func (l *Local[V]) Set(_ context.Context, key Key[V], value V, ttl time.Duration) error {
	l.store.Set(key.s, value, ttl)
	return nil
}

func (l *Local[V]) Delete(_ context.Context, key Key[V]) error {
	l.store.Delete(key.s)
	return nil
}

// Store exposes the backing store for diagnostics.
func (l *Local[V]) Store() *Store[V] { return l.store }

// Remote serves a Cache from a byte-level KV, encoding values as JSON.
type Remote[V any] struct {
	kv KV
}

func NewRemote[V any](kv KV) *Remote[V] {
	return &Remote[V]{kv: kv}
}

// Get decodes the stored value. Payloads that no longer decode into V are
// dropped and reported as a miss.
func (r *Remote[V]) Get(ctx context.Context, key Key[V]) (V, bool, error) {
	var zero V
	b, err := r.kv.Get(ctx, key.s)
	if errors.Is(err, ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	var v V
	if err := json.Unmarshal(b, &v); err != nil {
		logger.Warnf("cache: dropping undecodable entry %s: %v", key.s, err)
		_ = r.kv.Delete(ctx, key.s)
		return zero, false, nil
	}
	return v, true, nil
}

func (r *Remote[V]) Set(ctx context.Context, key Key[V], value V, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.kv.Put(ctx, key.s, b, ttl)
}

func (r *Remote[V]) Delete(ctx context.Context, key Key[V]) error {
	return r.kv.Delete(ctx, key.s)
}
