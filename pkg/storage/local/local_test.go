package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutDeleteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, "http://localhost:4000/public/uploads/")
	require.NoError(t, err)

	ctx := context.Background()
	url, err := store.Put(ctx, "products/abc/photo.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000/public/uploads/products/abc/photo.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "products", "abc", "photo.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, store.Delete(ctx, "products/abc/photo.png"))
	_, err = os.Stat(filepath.Join(dir, "products", "abc", "photo.png"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, store.Delete(ctx, "products/abc/photo.png"), "second delete is a no-op")
	require.NoError(t, store.Ping(ctx))
}

func TestRejectsTraversal(t *testing.T) {
	store, err := New(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../escape.txt", strings.NewReader("x"), "text/plain")
	require.Error(t, err)
}
