package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taskbox/internal/config"
)

const (
	dialTimeout = 3 * time.Second
	ioTimeout   = 2 * time.Second
	pingTimeout = 3 * time.Second
)

// New connects the session store's Redis and pings it. A failed ping closes
// the client so no pool goroutines are left behind.
func New(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(options(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s db %d failed: %w", cfg.Addr, cfg.DB, err)
	}
	return client, nil
}

// options maps config onto the client. Zero pool settings keep go-redis
// defaults; idle connections never exceed the pool.
func options(cfg config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
		if opts.PoolSize > 0 && opts.MinIdleConns > opts.PoolSize {
			opts.MinIdleConns = opts.PoolSize
		}
	}
	return opts
}
