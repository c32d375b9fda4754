package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store, dir
}

func TestNewStore_Path(t *testing.T) {
	store, dir := setupTestStore(t)
	assert.Equal(t, filepath.Join(dir, "cache.db"), store.Path())
}

func TestStore_GetMissing(t *testing.T) {
	store, _ := setupTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_SetGetOverwrite(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "stockline.queryCache", []byte(`{"entries":[]}`)))
	got, err := store.Get(ctx, "stockline.queryCache")
	require.NoError(t, err)
	assert.JSONEq(t, `{"entries":[]}`, string(got))

	require.NoError(t, store.Set(ctx, "stockline.queryCache", []byte(`{"entries":[1]}`)))
	got, err = store.Get(ctx, "stockline.queryCache")
	require.NoError(t, err)
	assert.JSONEq(t, `{"entries":[1]}`, string(got))
}

func TestStore_Delete(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	require.NoError(t, store.Delete(ctx, "k"))
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "k"), "deleting a missing key is fine")
}

func TestStore_UpdatedAt(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	at, err := store.UpdatedAt(ctx, "k")
	require.NoError(t, err)
	assert.True(t, at.After(before))

	_, err = store.UpdatedAt(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ReopenKeepsValuesAndSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "stockline.mutations", []byte(`[]`)))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(ctx, "stockline.mutations")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	var version int
	require.NoError(t, second.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}
