package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"factoryfeed/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "post_1.png", bytes.NewReader([]byte("img")), 3, "image/png"))

	rc, err := store.Get(ctx, "post_1.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "img", string(data))

	require.NoError(t, store.Delete(ctx, "post_1.png"))
	_, err = store.Get(ctx, "post_1.png")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(ctx, "post_1.png"))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	err = store.Put(context.Background(), "../escape.png", bytes.NewReader(nil), 0, "")
	assert.Error(t, err)
}

func TestNew_DefaultsToLocal(t *testing.T) {
	store, err := New(&config.Config{ImageUploadDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
}
