package app

import (
	"context"
	"flag"
	"os"

	"github.com/go-faster/errors"

	"github.com/xenking/teahouse-backend/internal/storage/file"
	"github.com/xenking/teahouse-backend/internal/storage/postgres"
	"github.com/xenking/teahouse-backend/internal/storage/redis"
	"github.com/xenking/teahouse-backend/internal/store"
)

// OpenStore connects the configured collection backend. The returned close
// function releases its connections.
func OpenStore(ctx context.Context, cfg StoreConfig) (store.Store, func(), error) {
	nop := func() {}
	switch cfg.Driver {
	case DriverFile:
		s, err := file.New(cfg.Dir)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open file store")
		}
		return s, nop, nil
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		return postgres.NewStore(pool), pool.Close, nil
	case DriverRedis:
		client, err := redis.Dial(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect redis")
		}
		return redis.NewStore(client, cfg.RedisPrefix), func() { _ = client.Close() }, nil
	case DriverMemory:
		return store.NewMemory(), nop, nil
	default:
		return nil, nil, errors.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// RegisterFlags binds the store settings to fs for the maintenance tools.
// Connection URLs fall back to DATABASE_URL and REDIS_URL.
func (c *StoreConfig) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Driver, "store", DriverFile, "collection store: file, postgres, redis or memory")
	fs.StringVar(&c.Dir, "data-dir", "data", "data directory of the file store")
	fs.StringVar(&c.DatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL (or DATABASE_URL env)")
	fs.StringVar(&c.RedisURL, "redis-url", os.Getenv("REDIS_URL"), "Redis connection URL (or REDIS_URL env)")
	fs.StringVar(&c.RedisPrefix, "redis-prefix", "teahouse:collection:", "Redis key prefix")
}
