package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/media-catalog/pkg/mediacatalog"
)

func TestBackend_StoreGetDelete(t *testing.T) {
	ctx := context.Background()
	b := New()

	url, err := b.Store(ctx, "/posters/", strings.NewReader("data"), mediacatalog.StoreParams{ObjectKey: "a/b.png", MimeType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "memory://posters/a/b.png", url)
	assert.Equal(t, 1, b.Len())

	obj, ok := b.Get(url)
	require.True(t, ok)
	assert.Equal(t, []byte("data"), obj.Data)
	assert.Equal(t, "image/png", obj.MimeType)

	require.NoError(t, b.Delete(ctx, "posters", "a/b.png"))
	assert.Equal(t, 0, b.Len())
	assert.Error(t, b.Delete(ctx, "posters", "a/b.png"))
}

func TestBackend_Defaults(t *testing.T) {
	b := New()

	_, err := b.Store(context.Background(), "", strings.NewReader("x"), mediacatalog.StoreParams{})
	assert.Error(t, err)

	url, err := b.Store(context.Background(), "", strings.NewReader("x"), mediacatalog.StoreParams{ObjectKey: "k"})
	require.NoError(t, err)
	obj, ok := b.Get(url)
	require.True(t, ok)
	assert.Equal(t, "application/octet-stream", obj.MimeType)
}
