package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/storage/database/inmem"
	"github.com/enghaven/portal/storage/database/mongo"
	"github.com/enghaven/portal/storage/database/redis"
	"github.com/enghaven/portal/storage/database/sqlx"
)

// Engines
const (
	EngineMemory   = "memory"
	EnginePostgres = sqlxdb.Postgres
	EngineSQLite   = sqlxdb.SQLite
	EngineRedis    = "redis"
	EngineMongo    = "mongo"
)

// OpenStore connects to the document store selected by conf.Engine.
// SQL stores are migrated to the latest version.
func OpenStore(ctx context.Context, conf core.StoreConfig) (core.DocumentStore, error) {
	switch conf.Engine {
	case EngineMemory, "":
		return inmemdb.Open(), nil
	case EnginePostgres, EngineSQLite:
		db, err := sqlxdb.Open(ctx, conf.Engine, conf.DSN)
		if err != nil {
			return nil, err
		}
		if err = db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	case EngineRedis:
		return redisdb.Open(ctx, conf.DSN, conf.Name)
	case EngineMongo:
		return mongodb.Open(ctx, conf.DSN, conf.Name)
	default:
		return nil, errors.Errorf("unknown store engine %q", conf.Engine)
	}
}

// Open returns a DB over the configured document store.
func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	store, err := OpenStore(ctx, conf.Store)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s store", conf.Store.Engine)
	}
	return NewDB(store), nil
}
