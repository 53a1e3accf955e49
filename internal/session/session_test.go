package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl), mr
}

// storeContract exercises the behaviour every Store implementation shares.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()
	sess := New(NewID(), store)

	_, ok, err := sess.Get(ctx, "csrf")
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := sess.SetNX(ctx, "csrf", "first")
	require.NoError(t, err)
	assert.Equal(t, "first", stored)

	stored, err = sess.SetNX(ctx, "csrf", "second")
	require.NoError(t, err)
	assert.Equal(t, "first", stored, "SetNX must not overwrite")

	value, ok, err := sess.Get(ctx, "csrf")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "first", value)

	other := New(NewID(), store)
	_, ok, err = other.Get(ctx, "csrf")
	require.NoError(t, err)
	assert.False(t, ok, "sessions must be isolated")

	require.NoError(t, sess.Destroy(ctx))
	_, ok, err = sess.Get(ctx, "csrf")
	require.NoError(t, err)
	assert.False(t, ok)
}

// concurrentSetNX checks that racing writers all observe one winner.
func concurrentSetNX(t *testing.T, store Store) {
	ctx := context.Background()
	sessionID := NewID()

	const workers = 16
	results := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := store.SetNX(ctx, sessionID, "csrf", fmt.Sprintf("value-%d", i))
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(time.Hour))
}

func TestMemoryStore_ConcurrentSetNX(t *testing.T) {
	concurrentSetNX(t, NewMemoryStore(time.Hour))
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, err := store.SetNX(ctx, "s1", "csrf", "token")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, ok, err := store.Get(ctx, "s1", "csrf")
	require.NoError(t, err)
	assert.True(t, ok, "access within ttl")

	// The Get above slid the expiry forward.
	now = now.Add(45 * time.Second)
	_, ok, err = store.Get(ctx, "s1", "csrf")
	require.NoError(t, err)
	assert.True(t, ok, "sliding expiry")

	now = now.Add(2 * time.Minute)
	_, ok, err = store.Get(ctx, "s1", "csrf")
	require.NoError(t, err)
	assert.False(t, ok, "expired session is gone")

	stored, err := store.SetNX(ctx, "s1", "csrf", "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", stored)
}

func TestMemoryStore_ReclaimsAbandonedSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for i := 0; i < 10000; i++ {
		_, err := store.SetNX(ctx, fmt.Sprintf("old-%d", i), "csrf", "token")
		require.NoError(t, err)
	}
	require.Len(t, store.sessions, 10000, "nothing has expired yet")

	now = now.Add(24 * time.Hour)
	for i := 0; i < defaultSweepEvery; i++ {
		_, err := store.SetNX(ctx, fmt.Sprintf("new-%d", i), "csrf", "token")
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, len(store.sessions), defaultSweepEvery)
	for id := range store.sessions {
		assert.NotContains(t, id, "old-")
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_, err := store.SetNX(ctx, "stale", "csrf", "a")
	require.NoError(t, err)
	now = now.Add(50 * time.Second)
	_, err = store.SetNX(ctx, "fresh", "csrf", "b")
	require.NoError(t, err)

	now = now.Add(20 * time.Second)
	store.Sweep()

	assert.Len(t, store.sessions, 1)
	_, ok, err := store.Get(ctx, "fresh", "csrf")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Hour)
	storeContract(t, store)
}

func TestRedisStore_ConcurrentSetNX(t *testing.T) {
	store, _ := newTestRedisStore(t, time.Hour)
	concurrentSetNX(t, store)
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, time.Minute)

	_, err := store.SetNX(ctx, "s1", "csrf", "token")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("taskbox:session:s1"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := store.Get(ctx, "s1", "csrf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := newTestRedisStore(t, time.Minute)
	mr.Close()

	_, _, err := store.Get(context.Background(), "s1", "csrf")
	require.Error(t, err)
	_, err = store.SetNX(context.Background(), "s1", "csrf", "x")
	require.Error(t, err)
}

func TestCookieCodec(t *testing.T) {
	codec := NewCookieCodec("secret", time.Hour)
	id := NewID()

	value, err := codec.Encode(id)
	require.NoError(t, err)

	got, err := codec.Decode(value)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = NewCookieCodec("other", time.Hour).Decode(value)
	require.ErrorIs(t, err, ErrInvalidCookie)

	_, err = codec.Decode(value + "x")
	require.ErrorIs(t, err, ErrInvalidCookie)
}

func TestCookieCodec_RejectsNonUUIDSession(t *testing.T) {
	codec := NewCookieCodec("secret", time.Hour)
	value, err := codec.Encode("not-a-uuid")
	require.NoError(t, err)

	_, err = codec.Decode(value)
	require.ErrorIs(t, err, ErrInvalidCookie)
}
