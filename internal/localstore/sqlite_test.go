package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestSqlite(t *testing.T) *SqliteStore {
	store, err := NewSqliteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSqliteSetGet(t *testing.T) {
	store := setupTestSqlite(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "auth_token", "tok-1"))

	v, err := store.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", v)
}

func TestSqliteSet_Overwrites(t *testing.T) {
	store := setupTestSqlite(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "username", "alice"))
	require.NoError(t, store.Set(ctx, "username", "bob"))

	v, err := store.Get(ctx, "username")
	require.NoError(t, err)
	assert.Equal(t, "bob", v)
}

func TestSqliteGet_NotFound(t *testing.T) {
	store := setupTestSqlite(t)

	_, err := store.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSqliteDelete(t *testing.T) {
	store := setupTestSqlite(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "cart", "{}"))
	require.NoError(t, store.Delete(ctx, "cart"))

	_, err := store.Get(ctx, "cart")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing key is not an error
	assert.NoError(t, store.Delete(ctx, "cart"))
}

func TestSqliteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := NewSqliteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "session_id", "sess_42"))
	require.NoError(t, store.Close())

	reopened, err := NewSqliteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(ctx, "session_id")
	require.NoError(t, err)
	assert.Equal(t, "sess_42", v)
}
