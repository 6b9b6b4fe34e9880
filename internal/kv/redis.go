package kv

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "quiz:"

// Redis stores each key as a plain string under a namespace prefix so the
// quiz can share a database with other applications.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

func NewRedis(ctx context.Context, rawURL, prefix string) (*Redis, error) {
	if strings.TrimSpace(rawURL) == "" {
		rawURL = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &Redis{rdb: rdb, prefix: prefix}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
