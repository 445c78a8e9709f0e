package sqlxdb

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, SQLite, filepath.Join(t.TempDir(), "enghaven.db"))
	if err != nil && strings.Contains(err.Error(), "CGO_ENABLED=0") {
		t.Skip("sqlite3 requires cgo")
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx))
	return db
}

func TestDB_GetSet(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	data, err := db.Get(ctx, "users")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, db.Set(ctx, "users", []byte(`[{"id":"1"}]`)))
	require.NoError(t, db.Set(ctx, "batches", []byte(`[]`)))
	require.NoError(t, db.Set(ctx, "users", []byte(`[{"id":"1"},{"id":"2"}]`)))

	data, err = db.Get(ctx, "users")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"},{"id":"2"}]`, string(data))

	data, err = db.Get(ctx, "batches")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestDB_Migrate_idempotent(t *testing.T) {
	db := openSQLite(t)
	assert.NoError(t, db.Migrate(context.Background()))
}

func TestOpen_unsupportedEngine(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "")
	assert.Error(t, err)
}
