package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisKV(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		DialTimeout: 100 * time.Millisecond,
		ReadTimeout: 100 * time.Millisecond,
		MaxRetries:  1,
	})
	kv := NewRedisKV(client, "test:")
	t.Cleanup(func() {
		_ = kv.Close()
		mr.Close()
	})
	return kv, mr
}

func TestRedisKV_PutGetDelete(t *testing.T) {
	kv, mr := newTestRedisKV(t)
	ctx := context.Background()

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Put(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("test:k"), "keys carry the prefix")

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, kv.Delete(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisKV_TTL(t *testing.T) {
	kv, mr := newTestRedisKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "k", []byte("v"), time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("test:k"))

	mr.FastForward(time.Minute + time.Second)
	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisKV_NonPositiveTTLRemovesKey(t *testing.T) {
	kv, mr := newTestRedisKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "k", []byte("old"), time.Minute))
	require.NoError(t, kv.Put(ctx, "k", []byte("new"), 0))
	assert.False(t, mr.Exists("test:k"))

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisKV_BackendDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	kv := NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), "test:")
	defer kv.Close()
	mr.Close()

	_, err = kv.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
