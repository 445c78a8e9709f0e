package database

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/enghaven/portal/core"
)

// DB is the document store shared by all repositories.
// It serializes read-modify-write cycles per collection within the process.
type DB struct {
	store core.DocumentStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewDB(store core.DocumentStore) *DB {
	return &DB{store: store, locks: make(map[string]*sync.Mutex)}
}

func (db *DB) Store() core.DocumentStore { return db.store }

func (db *DB) Ping(ctx context.Context) error { return db.store.Ping(ctx) }

func (db *DB) Close() error { return db.store.Close() }

func (db *DB) lock(collection string) *sync.Mutex {
	db.mu.Lock()
	defer db.mu.Unlock()

	l, ok := db.locks[collection]
	if !ok {
		l = new(sync.Mutex)
		db.locks[collection] = l
	}
	return l
}

// Collection is a typed view over one collection of the document store.
type Collection[T any] struct {
	db   *DB
	name string
}

func NewCollection[T any](db *DB, name string) *Collection[T] {
	return &Collection[T]{db: db, name: name}
}

func (c *Collection[T]) Name() string { return c.name }

// ListAll returns every record of the collection, in insertion order.
// A collection that was never written is empty.
func (c *Collection[T]) ListAll(ctx context.Context) ([]T, error) {
	raw, err := c.db.store.Get(ctx, c.name)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", c.name)
	}

	items := make([]T, 0)
	if len(raw) == 0 {
		return items, nil
	}
	if err = json.Unmarshal(raw, &items); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", c.name)
	}
	if items == nil { // stored as `null`
		items = make([]T, 0)
	}
	return items, nil
}

// Update reads the collection, applies fn and replaces the collection with its result.
// An error returned by fn aborts the write and is returned as is.
func (c *Collection[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	l := c.db.lock(c.name)
	l.Lock()
	defer l.Unlock()

	items, err := c.ListAll(ctx)
	if err != nil {
		return err
	}
	if items, err = fn(items); err != nil {
		return err
	}
	if items == nil {
		items = make([]T, 0)
	}

	data, err := json.Marshal(items)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", c.name)
	}
	return errors.Wrapf(c.db.store.Set(ctx, c.name, data), "saving %s", c.name)
}
