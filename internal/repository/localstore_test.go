package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := OpenLocalStore(context.Background(), filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	slots := openTestStore(t).Scope("chat-1")

	got, err := slots.Load(ctx, "anonymousChat")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, slots.Save(ctx, "anonymousChat", []byte(`[{"role":"user","content":"a"}]`)))
	require.NoError(t, slots.Save(ctx, "anonymousChat", []byte(`[]`)))

	got, err = slots.Load(ctx, "anonymousChat")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	require.NoError(t, slots.Delete(ctx, "anonymousChat"))
	got, err = slots.Load(ctx, "anonymousChat")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLocalStoreScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Scope("a").Save(ctx, "k", []byte("one")))
	require.NoError(t, store.Scope("b").Save(ctx, "k", []byte("two")))

	a, err := store.Scope("a").Load(ctx, "k")
	require.NoError(t, err)
	b, err := store.Scope("b").Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "one", string(a))
	assert.Equal(t, "two", string(b))
}

func TestLocalStoreReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local.db")

	store, err := OpenLocalStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Scope("c").Save(ctx, "k", []byte("kept")))
	require.NoError(t, store.Close())

	store, err = OpenLocalStore(ctx, path)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Scope("c").Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "kept", string(got))
}

func TestLocalStoreForChat(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ForChat(1).Save(ctx, "anonymousChat", []byte(`[]`)))

	got, err := store.Scope("tg:1").Load(ctx, "anonymousChat")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)

	got, err = store.ForChat(2).Load(ctx, "anonymousChat")
	require.NoError(t, err)
	assert.Nil(t, got)
}
