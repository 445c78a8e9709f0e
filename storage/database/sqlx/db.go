package sqlxdb

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/enghaven/portal/core"
)

// Engines
const (
	Postgres = "postgres"
	SQLite   = "sqlite3"
)

// MigrationsDir is the directory of the embedded migrations.
const MigrationsDir = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

// DB stores each collection as one row of the `documents` table.
type DB struct {
	db     *sqlx.DB
	engine string
}

var _ core.DocumentStore = (*DB)(nil)

// Open connects to the database and waits for it to be ready.
func Open(ctx context.Context, engine, dsn string) (*DB, error) {
	if engine != Postgres && engine != SQLite {
		return nil, errors.Errorf("unsupported sql engine %q", engine)
	}
	db, err := sqlx.Open(engine, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if engine == SQLite {
		db.SetMaxOpenConns(1) // single writer
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}

	if err = ping(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db, engine: engine}, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sql.DB) error {
	var err error
	maxAttempts := 10
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

// SQL exposes the underlying connection pool (used by the admin CLI for migrations).
func (d *DB) SQL() *sql.DB { return d.db.DB }

func (d *DB) Engine() string { return d.engine }

// PrepareMigrations points goose at the embedded migrations for the given engine.
func PrepareMigrations(engine string) error {
	goose.SetBaseFS(migrations)
	return errors.Wrap(goose.SetDialect(engine), "setting goose dialect")
}

// Migrate applies all pending migrations.
func (d *DB) Migrate(ctx context.Context) error {
	if err := PrepareMigrations(d.engine); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, d.db.DB, MigrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

func (d *DB) Get(ctx context.Context, collection string) ([]byte, error) {
	var data string
	q := d.db.Rebind("SELECT data FROM documents WHERE collection = ?")
	if err := d.db.GetContext(ctx, &data, q, collection); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "selecting %s", collection)
	}
	return []byte(data), nil
}

func (d *DB) Set(ctx context.Context, collection string, data []byte) error {
	q := d.db.Rebind(`
		INSERT INTO documents (collection, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (collection) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	_, err := d.db.ExecContext(ctx, q, collection, string(data), time.Now().UTC())
	return errors.Wrapf(err, "upserting %s", collection)
}

func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

func (d *DB) Close() error { return d.db.Close() }
