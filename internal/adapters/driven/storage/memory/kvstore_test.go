package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/stockline/internal/core/domain"
)

func TestKeyValueStore_GetMissing(t *testing.T) {
	_, err := NewKeyValueStore().Get(context.Background(), "k")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKeyValueStore_ValuesAreCopied(t *testing.T) {
	store := NewKeyValueStore()
	ctx := context.Background()

	in := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", in))
	in[0] = 'x'

	out, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))

	out[1] = 'y'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestKeyValueStore_Delete(t *testing.T) {
	store := NewKeyValueStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
