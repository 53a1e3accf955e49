package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskbox/internal/config"
)

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), config.RedisConfig{Addr: mr.Addr(), PoolSize: 4, MinIdleConns: 1})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNew_SelectsDB(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), config.RedisConfig{Addr: mr.Addr(), DB: 3})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.Select(3)
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNew_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), config.RedisConfig{Addr: addr, DB: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
	assert.Contains(t, err.Error(), "db 1")
}

func TestOptions(t *testing.T) {
	opts := options(config.RedisConfig{Addr: "cache:6379", Password: "pw", DB: 2, PoolSize: 5, MinIdleConns: 9})
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 5, opts.PoolSize)
	assert.Equal(t, 5, opts.MinIdleConns, "idle connections are capped by the pool")
	assert.Equal(t, ioTimeout, opts.ReadTimeout)

	defaults := options(config.RedisConfig{Addr: "cache:6379"})
	assert.Zero(t, defaults.PoolSize)
	assert.Zero(t, defaults.MinIdleConns)
}
