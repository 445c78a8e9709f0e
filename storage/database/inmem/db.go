package inmemdb

import (
	"context"
	"sync"

	"github.com/enghaven/portal/core"
)

// DB keeps every collection in process memory. Nothing survives a restart.
type DB struct {
	mutex  sync.RWMutex
	tables map[string][]byte
}

var _ core.DocumentStore = (*DB)(nil)

func Open() *DB {
	return &DB{tables: make(map[string][]byte)}
}

func (db *DB) Get(_ context.Context, collection string) ([]byte, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	data, ok := db.tables[collection]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (db *DB) Set(_ context.Context, collection string, data []byte) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.tables[collection] = append([]byte(nil), data...)
	return nil
}

// Reset drops every collection.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.tables = make(map[string][]byte)
}

func (db *DB) Ping(context.Context) error { return nil }

func (db *DB) Close() error { return nil }
