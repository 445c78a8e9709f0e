package redisdb

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/enghaven/portal/core"
)

// DB stores each collection under the key `<prefix>:<collection>`.
type DB struct {
	client *redis.Client
	prefix string
}

var _ core.DocumentStore = (*DB)(nil)

// Open connects to redis with short timeouts. dsn is either a redis:// URL or a host:port address.
func Open(ctx context.Context, dsn, prefix string) (*DB, error) {
	opts := &redis.Options{Addr: dsn}
	if strings.HasPrefix(dsn, "redis://") || strings.HasPrefix(dsn, "rediss://") {
		var err error
		if opts, err = redis.ParseURL(dsn); err != nil {
			return nil, errors.Wrap(err, "parsing redis url")
		}
	}
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 1 * time.Second
	opts.WriteTimeout = 1 * time.Second

	db := &DB{client: redis.NewClient(opts), prefix: prefix}
	if err := db.Ping(ctx); err != nil {
		_ = db.client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return db, nil
}

func (db *DB) key(collection string) string {
	if db.prefix == "" {
		return collection
	}
	return db.prefix + ":" + collection
}

func (db *DB) Get(ctx context.Context, collection string) ([]byte, error) {
	data, err := db.client.Get(ctx, db.key(collection)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "getting %s", collection)
	}
	return data, nil
}

func (db *DB) Set(ctx context.Context, collection string, data []byte) error {
	err := db.client.Set(ctx, db.key(collection), data, 0).Err()
	return errors.Wrapf(err, "setting %s", collection)
}

func (db *DB) Ping(ctx context.Context) error { return db.client.Ping(ctx).Err() }

func (db *DB) Close() error { return db.client.Close() }
