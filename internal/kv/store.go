package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is the flat key-value substrate every repository persists through.
// Values are whole JSON or CSV documents; there are no transactions, so
// callers own read-modify-write discipline.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverRedis    Driver = "redis"
)

type Config struct {
	Driver      Driver
	DSN         string
	QuotaBytes  int
	RedisPrefix string
}

// Open picks the adapter named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch Driver(strings.ToLower(string(cfg.Driver))) {
	case DriverMemory:
		return NewMemory(cfg.QuotaBytes), nil
	case DriverSQLite, "":
		return NewSQLite(cfg.DSN)
	case DriverPostgres:
		return NewPostgres(ctx, cfg.DSN)
	case DriverRedis:
		return NewRedis(ctx, cfg.DSN, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}
