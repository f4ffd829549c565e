package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestStore_SetGet(t *testing.T) {
	s := NewStore[string]()
	s.Set("a", "1", time.Minute)

	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStore_SetOverwrites(t *testing.T) {
	clock := newFakeClock()
	s := NewStore[int](WithClock(clock.Now))
	s.Set("k", 1, time.Second)
	s.Set("k", 2, time.Hour)

	clock.Advance(time.Minute)
	v, ok := s.Get("k")
	require.True(t, ok, "second Set replaces the expiration too")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, s.Len())
}

func TestStore_ExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	s := NewStore[string](WithClock(clock.Now))
	s.Set("k", "v", time.Second)

	clock.Advance(time.Second)
	_, ok := s.Get("k")
	assert.True(t, ok, "entry is live at exactly expiresAt")

	clock.Advance(time.Nanosecond)
	_, ok = s.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len(), "expired entry is deleted by the read")
}

func TestStore_ExpiredEntryCountedUntilObserved(t *testing.T) {
	clock := newFakeClock()
	s := NewStore[string](WithClock(clock.Now))
	s.Set("k", "v", time.Millisecond)
	clock.Advance(time.Second)

	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_NonPositiveTTL(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Minute} {
		t.Run(ttl.String(), func(t *testing.T) {
			clock := newFakeClock()
			s := NewStore[string](WithClock(clock.Now))
			s.Set("k", "v", ttl)
			clock.Advance(time.Nanosecond)
			_, ok := s.Get("k")
			assert.False(t, ok)
		})
	}
}

func TestStore_DeleteAndClear(t *testing.T) {
	s := NewStore[int]()
	s.Set("a", 1, time.Minute)
	s.Set("b", 2, time.Minute)

	s.Delete("a")
	s.Delete("never-set")
	_, ok := s.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestStore_CleanupOnOverflow(t *testing.T) {
	clock := newFakeClock()
	s := NewStore[int](WithClock(clock.Now), WithMaxSize(3))

	s.Set("old1", 1, time.Second)
	s.Set("old2", 2, time.Second)
	s.Set("live", 3, time.Hour)
	clock.Advance(time.Minute)

	// Fourth entry pushes Len past maxSize and sweeps the two expired ones.
	s.Set("new", 4, time.Hour)
	assert.Equal(t, 2, s.Len())

	v, ok := s.Get("live")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	v, ok = s.Get("new")
	require.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestStore_CleanupThreshold(t *testing.T) {
	clock := newFakeClock()
	const maxSize = 5
	s := NewStore[int](WithClock(clock.Now), WithMaxSize(maxSize))
	for i := range maxSize {
		s.Set(fmt.Sprint(i), i, time.Second)
	}
	clock.Advance(time.Minute)

	s.Set("live", 1, time.Hour)
	assert.LessOrEqual(t, s.Len(), 1)
}

func TestStore_OverflowWithNothingExpired(t *testing.T) {
	s := NewStore[int](WithMaxSize(2))
	for i := range 5 {
		s.Set(fmt.Sprint(i), i, time.Hour)
	}
	assert.Equal(t, 5, s.Len(), "cleanup only removes expired entries")
}

func TestStore_CleanupKeepsEntryAtNow(t *testing.T) {
	clock := newFakeClock()
	s := NewStore[int](WithClock(clock.Now), WithMaxSize(1))
	s.Set("zero", 0, 0)
	s.Set("other", 1, time.Hour)

	// expiresAt == now is not strictly before now.
	assert.Equal(t, 2, s.Len())
}

func TestStore_MaxSizeDefault(t *testing.T) {
	assert.Equal(t, DefaultMaxSize, NewStore[int]().MaxSize())
	assert.Equal(t, DefaultMaxSize, NewStore[int](WithMaxSize(0)).MaxSize())
	assert.Equal(t, DefaultMaxSize, NewStore[int](WithMaxSize(-3)).MaxSize())
	assert.Equal(t, 7, NewStore[int](WithMaxSize(7)).MaxSize())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore[int](WithMaxSize(50))
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				key := fmt.Sprint(i % 20)
				s.Set(key, g, time.Minute)
				if v, ok := s.Get(key); ok {
					assert.GreaterOrEqual(t, v, 0)
				}
				if i%50 == 0 {
					s.Delete(key)
				}
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Len(), 20)
}
