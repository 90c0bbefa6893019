package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/media-catalog/pkg/mediacatalog"
)

func TestStore_EmptyLoad(t *testing.T) {
	c, err := New().Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Empty(t, c)
}

func TestStore_SaveIsolation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New()

	c := mediacatalog.Collection{{ID: "a", Title: "Dune", CreatedAt: now, UpdatedAt: now, Reviews: []mediacatalog.Review{}}}
	require.NoError(t, s.Save(ctx, c))
	assert.Equal(t, 1, s.Saves())

	// Mutating the caller's copy does not leak into the store
	c[0].Title = "changed"

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dune", loaded[0].Title)

	loaded[0].Title = "also changed"
	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Dune", again[0].Title)
}

func TestStore_NewWithCollection(t *testing.T) {
	s, err := NewWithCollection(mediacatalog.Collection{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Saves())

	c, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, c, 2)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New()
	assert.ErrorIs(t, s.Save(ctx, mediacatalog.Collection{}), context.Canceled)
	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
