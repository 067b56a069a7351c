package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test:rl:"), mr
}

func TestRedisStoreFixedWindowSequence(t *testing.T) {
	store, _ := newRedisStore(t)
	// reset times must lie in the future for the key expiry to be set
	clock := newTestClock(time.Now().Truncate(time.Millisecond))
	l := New(store, WithClock(clock.Now))

	checkWindowSequence(t, l, clock, "login:redis@example.com")
}

func TestRedisStorePersistsRecord(t *testing.T) {
	store, mr := newRedisStore(t)
	clock := newTestClock(time.Now().Truncate(time.Millisecond))
	l := New(store, WithClock(clock.Now))
	ctx := context.Background()

	_, err := l.Check(ctx, "submit-job:10.1.1.1", 3, time.Hour)
	require.NoError(t, err)
	_, err = l.Check(ctx, "submit-job:10.1.1.1", 3, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "2", mr.HGet("test:rl:submit-job:10.1.1.1", "count"))
	ttl := mr.TTL("test:rl:submit-job:10.1.1.1")
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour, "ttl %v", ttl)

	removed, err := store.Sweep(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestRedisStoreExpiryStartsFreshWindow(t *testing.T) {
	store, mr := newRedisStore(t)
	l := New(store)
	ctx := context.Background()

	res, err := l.Check(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = l.Check(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("test:rl:k"))
}

func TestRedisStoreRejectsCorruptRecord(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.HSet("test:rl:bad", "count", "many")

	_, err := New(store).Check(context.Background(), "bad", 5, time.Minute)
	assert.Error(t, err)
}
